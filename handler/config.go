// Package handler stores declarative business handlers as graph data. A
// handler couples an intent name with extraction patterns, an ordered
// workflow and condition/action rules; registering one writes its whole
// definition into the triple store, where the workflow executor and the
// introspection engine read it back.
package handler

import (
	"fmt"
	"regexp"

	"github.com/c360/semgraph/errors"
)

// Parameter names one extractable workflow input and the regular
// expressions that capture it from free text. The first pattern with a
// match wins; a capture group narrows the value, otherwise the whole match
// is used.
type Parameter struct {
	Name     string   `json:"name" yaml:"name"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

// Step is one workflow action. Steps execute in ascending Number order
// regardless of declaration order. Parameters is the set of input names the
// action consumes; values are resolved by name at execution time, so order
// is not significant and is not preserved by the graph.
type Step struct {
	Number     int      `json:"number" yaml:"number"`
	Action     string   `json:"action" yaml:"action"`
	Parameters []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Rule pairs a named condition check with an action to run when the check
// passes after the workflow steps complete.
type Rule struct {
	Condition string `json:"condition" yaml:"condition"`
	Action    string `json:"action" yaml:"action"`
}

// Config is a complete handler definition.
type Config struct {
	Name               string      `json:"name" yaml:"name"`
	Description        string      `json:"description,omitempty" yaml:"description,omitempty"`
	ExtractionPatterns []Parameter `json:"extraction_patterns,omitempty" yaml:"extraction_patterns,omitempty"`
	Workflow           []Step      `json:"workflow" yaml:"workflow"`
	Rules              []Rule      `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// Validate checks the definition before it is written to the graph. A
// definition must name itself, carry at least one step, keep step numbers
// positive and unique, and use only compilable extraction patterns.
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidHandler, "Handler", "Validate", "handler name must be non-empty")
	}
	if len(c.Workflow) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidHandler, "Handler", "Validate",
			fmt.Sprintf("handler %s has no workflow steps", c.Name))
	}

	seen := make(map[int]struct{}, len(c.Workflow))
	for _, step := range c.Workflow {
		if step.Number <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidHandler, "Handler", "Validate",
				fmt.Sprintf("handler %s step number %d must be positive", c.Name, step.Number))
		}
		if _, dup := seen[step.Number]; dup {
			return errors.WrapInvalid(errors.ErrInvalidHandler, "Handler", "Validate",
				fmt.Sprintf("handler %s has duplicate step number %d", c.Name, step.Number))
		}
		seen[step.Number] = struct{}{}
		if step.Action == "" {
			return errors.WrapInvalid(errors.ErrInvalidHandler, "Handler", "Validate",
				fmt.Sprintf("handler %s step %d has no action", c.Name, step.Number))
		}
	}

	for _, param := range c.ExtractionPatterns {
		if param.Name == "" {
			return errors.WrapInvalid(errors.ErrInvalidHandler, "Handler", "Validate",
				fmt.Sprintf("handler %s has an unnamed extraction parameter", c.Name))
		}
		for _, pattern := range param.Patterns {
			if _, err := regexp.Compile(pattern); err != nil {
				return errors.WrapInvalid(errors.ErrInvalidHandler, "Handler", "Validate",
					fmt.Sprintf("handler %s parameter %s pattern %q does not compile: %v",
						c.Name, param.Name, pattern, err))
			}
		}
	}

	for i, rule := range c.Rules {
		if rule.Condition == "" || rule.Action == "" {
			return errors.WrapInvalid(errors.ErrInvalidHandler, "Handler", "Validate",
				fmt.Sprintf("handler %s rule %d needs both condition and action", c.Name, i))
		}
	}

	return nil
}
