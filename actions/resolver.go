// Package actions resolves workflow action names to executable behavior.
// The executor stays agnostic of where actions run: in process, simulated,
// or across NATS request/reply.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Resolver executes one named action with named arguments and returns its
// output value.
type Resolver interface {
	Resolve(ctx context.Context, action string, args map[string]any) (any, error)
}

// Func adapts a plain function to the Resolver interface.
type Func func(ctx context.Context, action string, args map[string]any) (any, error)

// Resolve implements Resolver.
func (f Func) Resolve(ctx context.Context, action string, args map[string]any) (any, error) {
	return f(ctx, action, args)
}

// Call records one resolved action for inspection.
type Call struct {
	Action string
	Args   map[string]any
}

// Simulated resolves every action locally with a synthesized result string.
// It records calls so tests and demos can assert on what ran and with what
// arguments.
type Simulated struct {
	mu     sync.Mutex
	calls  []Call
	logger *slog.Logger

	// Outputs overrides the synthesized result for specific action names.
	// An error value is returned as the resolution error.
	outputs map[string]any
}

// SimulatedOption configures a Simulated resolver.
type SimulatedOption func(*Simulated)

// WithOutput fixes the result returned for one action name. An error value
// makes the action fail.
func WithOutput(action string, output any) SimulatedOption {
	return func(s *Simulated) { s.outputs[action] = output }
}

// WithSimulatedLogger sets the resolver's logger.
func WithSimulatedLogger(logger *slog.Logger) SimulatedOption {
	return func(s *Simulated) { s.logger = logger }
}

// NewSimulated creates a Simulated resolver.
func NewSimulated(options ...SimulatedOption) *Simulated {
	s := &Simulated{
		logger:  slog.Default(),
		outputs: make(map[string]any),
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With("component", "SimulatedResolver")
	return s
}

// Resolve implements Resolver. Unknown actions succeed with a synthesized
// completion string so that any declared workflow can run end to end
// without real backends.
func (s *Simulated) Resolve(ctx context.Context, action string, args map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Action: action, Args: cloneArgs(args)})
	out, fixed := s.outputs[action]
	s.mu.Unlock()

	if fixed {
		if err, ok := out.(error); ok {
			return nil, err
		}
		return out, nil
	}

	s.logger.Debug("simulated action", "action", action, "args", len(args))
	return fmt.Sprintf("simulated %s completed", action), nil
}

// Calls returns a copy of every recorded call in resolution order.
func (s *Simulated) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Reset clears the recorded calls.
func (s *Simulated) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func cloneArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}
