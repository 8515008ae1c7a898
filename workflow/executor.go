// Package workflow executes the ordered steps and post-step rules of a
// registered business handler. Execution is data-driven: the executor
// itself knows nothing about any action; it threads parameters, calls the
// resolver, and evaluates named condition checks.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360/semgraph/actions"
	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/handler"
)

// StepResult records one executed step.
type StepResult struct {
	Number int    `json:"number"`
	Action string `json:"action"`
	Output any    `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RuleOutcome records one rule whose condition held and whose action ran.
type RuleOutcome struct {
	Condition string `json:"condition"`
	Action    string `json:"action"`
	Output    any    `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of one workflow execution.
type Result struct {
	RunID    string        `json:"run_id"`
	Intent   string        `json:"intent"`
	Success  bool          `json:"success"`
	Summary  string        `json:"summary"`
	Steps    []StepResult  `json:"steps"`
	Rules    []RuleOutcome `json:"rules,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Check inspects the execution state after the steps and reports whether a
// rule's condition holds. The state maps call parameters and
// "step_<n>_result" entries to their values.
type Check func(state map[string]any) bool

// ContainsCheck returns a Check that holds when any step result's string
// form contains marker.
func ContainsCheck(marker string) Check {
	return func(state map[string]any) bool {
		for key, value := range state {
			if !strings.HasPrefix(key, "step_") || !strings.HasSuffix(key, "_result") {
				continue
			}
			if strings.Contains(fmt.Sprintf("%v", value), marker) {
				return true
			}
		}
		return false
	}
}

// AnyCheck returns a Check that holds when any of the given checks hold.
func AnyCheck(checks ...Check) Check {
	return func(state map[string]any) bool {
		for _, check := range checks {
			if check(state) {
				return true
			}
		}
		return false
	}
}

// Executor runs handler workflows.
type Executor struct {
	handlers *handler.Registry
	checks   map[string]Check
	logger   *slog.Logger
	metrics  *executorMetrics
}

// Option configures an Executor.
type Option func(*Executor) error

// WithCheck registers a named condition check. Later registrations replace
// earlier ones.
func WithCheck(name string, check Check) Option {
	return func(e *Executor) error {
		e.checks[name] = check
		return nil
	}
}

// WithLogger sets the executor's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) error {
		e.logger = logger
		return nil
	}
}

// NewExecutor creates a workflow executor over a handler registry. The
// built-in check table covers "always", "never" and "stock_error"; more are
// added with WithCheck.
func NewExecutor(handlers *handler.Registry, options ...Option) (*Executor, error) {
	e := &Executor{
		handlers: handlers,
		logger:   slog.Default(),
		checks: map[string]Check{
			"always":      func(map[string]any) bool { return true },
			"never":       func(map[string]any) bool { return false },
			"stock_error": AnyCheck(ContainsCheck("stock_error"), ContainsCheck("stock error")),
		},
	}
	for _, opt := range options {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "WorkflowExecutor")
	return e, nil
}

// Execute runs the workflow of the handler registered for intent. Steps run
// in ascending step-number order; each step sees the call parameters plus
// the outputs of every earlier step under "step_<n>_result". The first
// resolver error aborts the remaining steps; the partial result comes back
// alongside the wrapped error. Rules are evaluated only after a fully
// successful pass.
func (e *Executor) Execute(ctx context.Context, intent string, params map[string]any, resolver actions.Resolver) (Result, error) {
	started := time.Now()
	result := Result{
		RunID:  uuid.NewString(),
		Intent: intent,
	}

	cfg, err := e.handlers.Get(intent)
	if err != nil {
		result.Summary = "no handler registered for intent " + intent
		result.Duration = time.Since(started)
		e.metrics.recordExecution(false, result.Duration)
		return result, err
	}

	state := make(map[string]any, len(params)+len(cfg.Workflow))
	for k, v := range params {
		state[k] = v
	}

	e.logger.Info("executing workflow", "intent", intent, "run_id", result.RunID, "steps", len(cfg.Workflow))

	for _, step := range cfg.Workflow {
		args := make(map[string]any, len(step.Parameters))
		for _, name := range step.Parameters {
			if v, ok := state[name]; ok {
				args[name] = v
			}
		}

		output, err := resolver.Resolve(ctx, step.Action, args)
		if err != nil {
			wrapped := errors.Wrap(errors.ErrHandlerExecution, "WorkflowExecutor", "Execute",
				fmt.Sprintf("step %d (%s): %v", step.Number, step.Action, err))
			result.Steps = append(result.Steps, StepResult{
				Number: step.Number,
				Action: step.Action,
				Error:  err.Error(),
			})
			result.Summary = fmt.Sprintf("workflow %s failed at step %d (%s)", intent, step.Number, step.Action)
			result.Duration = time.Since(started)
			e.metrics.recordExecution(false, result.Duration)
			e.logger.Error("workflow step failed", "intent", intent, "run_id", result.RunID,
				"step", step.Number, "action", step.Action, "error", err)
			return result, wrapped
		}

		state[fmt.Sprintf("step_%d_result", step.Number)] = output
		result.Steps = append(result.Steps, StepResult{
			Number: step.Number,
			Action: step.Action,
			Output: output,
		})
	}

	for _, rule := range cfg.Rules {
		check, known := e.checks[rule.Condition]
		if !known {
			e.logger.Warn("unknown rule condition, skipping", "intent", intent, "condition", rule.Condition)
			continue
		}
		if !check(state) {
			continue
		}

		outcome := RuleOutcome{Condition: rule.Condition, Action: rule.Action}
		output, err := resolver.Resolve(ctx, rule.Action, state)
		if err != nil {
			outcome.Error = err.Error()
			e.logger.Error("rule action failed", "intent", intent, "run_id", result.RunID,
				"condition", rule.Condition, "action", rule.Action, "error", err)
		} else {
			outcome.Output = output
		}
		result.Rules = append(result.Rules, outcome)
	}

	result.Success = true
	result.Summary = fmt.Sprintf("workflow %s completed: %d steps", intent, len(result.Steps))
	result.Duration = time.Since(started)
	e.metrics.recordExecution(true, result.Duration)
	e.logger.Info("workflow completed", "intent", intent, "run_id", result.RunID,
		"steps", len(result.Steps), "rules_fired", len(result.Rules))
	return result, nil
}
