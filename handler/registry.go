package handler

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"

	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/triplestore"
	"github.com/c360/semgraph/vocabulary"
)

// HandlerClass is the IRI typing every handler node in the graph.
const HandlerClass = vocabulary.OntologyNamespace + "BusinessHandler"

// Registry reads and writes handler definitions in the triple store.
// Definitions are plain graph data; every sub-node carries a hasOwner edge
// back to its handler so a re-registration can sweep the old structure
// without leaving orphans.
type Registry struct {
	store  *triplestore.Store
	logger *slog.Logger
}

// NewRegistry creates a handler registry over the store.
func NewRegistry(store *triplestore.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, logger: logger.With("component", "HandlerRegistry")}
}

// IRI returns the graph node IRI of a handler name.
func IRI(name string) string {
	return vocabulary.HandlerNamespace + name
}

// Register validates the definition and writes it to the graph. Registering
// a name that already exists replaces the previous definition completely:
// the old handler node and every node owned by it are removed first.
func (r *Registry) Register(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	handlerIRI := IRI(cfg.Name)
	if r.Exists(cfg.Name) {
		r.sweep(handlerIRI)
		r.logger.Info("replacing handler", "handler", cfg.Name)
	}

	add := func(subject, predicate string, object triplestore.Term) error {
		if err := r.store.Add(subject, predicate, object); err != nil {
			return errors.Wrap(err, "HandlerRegistry", "Register", "store mutation")
		}
		return nil
	}
	// own ties a sub-node to the handler for the replacement sweep.
	own := func(node string) error {
		return add(node, vocabulary.HasOwner, triplestore.IRI(handlerIRI))
	}

	if err := add(handlerIRI, vocabulary.RDFType, triplestore.IRI(HandlerClass)); err != nil {
		return err
	}
	if err := add(handlerIRI, vocabulary.HasIntent, triplestore.Literal(cfg.Name)); err != nil {
		return err
	}
	if cfg.Description != "" {
		if err := add(handlerIRI, vocabulary.HasDescription, triplestore.Literal(cfg.Description)); err != nil {
			return err
		}
	}

	if len(cfg.ExtractionPatterns) > 0 {
		patternsNode := handlerIRI + "/patterns"
		if err := add(handlerIRI, vocabulary.HasExtractionPatterns, triplestore.IRI(patternsNode)); err != nil {
			return err
		}
		if err := own(patternsNode); err != nil {
			return err
		}
		for _, param := range cfg.ExtractionPatterns {
			paramNode := patternsNode + "/" + param.Name
			if err := add(patternsNode, vocabulary.HasParameter, triplestore.IRI(paramNode)); err != nil {
				return err
			}
			if err := add(paramNode, vocabulary.HasName, triplestore.Literal(param.Name)); err != nil {
				return err
			}
			if err := own(paramNode); err != nil {
				return err
			}
			for i, pattern := range param.Patterns {
				patternNode := paramNode + "/pattern-" + strconv.Itoa(i)
				if err := add(paramNode, vocabulary.HasPattern, triplestore.IRI(patternNode)); err != nil {
					return err
				}
				if err := add(patternNode, vocabulary.HasIndex,
					triplestore.TypedLiteral(strconv.Itoa(i), vocabulary.XSDInteger)); err != nil {
					return err
				}
				if err := add(patternNode, vocabulary.HasRegex, triplestore.Literal(pattern)); err != nil {
					return err
				}
				if err := own(patternNode); err != nil {
					return err
				}
			}
		}
	}

	workflowNode := handlerIRI + "/workflow"
	if err := add(handlerIRI, vocabulary.HasWorkflow, triplestore.IRI(workflowNode)); err != nil {
		return err
	}
	if err := own(workflowNode); err != nil {
		return err
	}
	for _, step := range cfg.Workflow {
		stepNode := workflowNode + "/step-" + strconv.Itoa(step.Number)
		if err := add(workflowNode, vocabulary.HasStep, triplestore.IRI(stepNode)); err != nil {
			return err
		}
		if err := add(stepNode, vocabulary.HasStepNumber,
			triplestore.TypedLiteral(strconv.Itoa(step.Number), vocabulary.XSDInteger)); err != nil {
			return err
		}
		if err := add(stepNode, vocabulary.HasAction, triplestore.Literal(step.Action)); err != nil {
			return err
		}
		for _, p := range step.Parameters {
			if err := add(stepNode, vocabulary.HasParameter, triplestore.Literal(p)); err != nil {
				return err
			}
		}
		if err := own(stepNode); err != nil {
			return err
		}
	}

	if len(cfg.Rules) > 0 {
		rulesNode := handlerIRI + "/rules"
		if err := add(handlerIRI, vocabulary.HasRules, triplestore.IRI(rulesNode)); err != nil {
			return err
		}
		if err := own(rulesNode); err != nil {
			return err
		}
		for i, rule := range cfg.Rules {
			ruleNode := rulesNode + "/rule-" + strconv.Itoa(i)
			if err := add(rulesNode, vocabulary.HasRule, triplestore.IRI(ruleNode)); err != nil {
				return err
			}
			if err := add(ruleNode, vocabulary.HasIndex,
				triplestore.TypedLiteral(strconv.Itoa(i), vocabulary.XSDInteger)); err != nil {
				return err
			}
			if err := add(ruleNode, vocabulary.HasCondition, triplestore.Literal(rule.Condition)); err != nil {
				return err
			}
			if err := add(ruleNode, vocabulary.HasAction, triplestore.Literal(rule.Action)); err != nil {
				return err
			}
			if err := own(ruleNode); err != nil {
				return err
			}
		}
	}

	r.logger.Info("registered handler", "handler", cfg.Name,
		"steps", len(cfg.Workflow), "rules", len(cfg.Rules))
	return nil
}

// Exists reports whether a handler name is registered.
func (r *Registry) Exists(name string) bool {
	return r.store.Contains(IRI(name), vocabulary.RDFType, triplestore.IRI(HandlerClass))
}

// Get reconstructs a handler definition from the graph. Workflow steps come
// back sorted by step number whatever order the graph yields them in;
// patterns and rules come back in the order they were registered with.
func (r *Registry) Get(name string) (Config, error) {
	handlerIRI := IRI(name)
	if !r.Exists(name) {
		return Config{}, errors.Wrap(errors.ErrHandlerNotFound, "HandlerRegistry", "Get", "lookup of "+name)
	}

	cfg := Config{Name: name}
	cfg.Description = r.literal(handlerIRI, vocabulary.HasDescription)

	for _, t := range r.store.Match(handlerIRI, vocabulary.HasExtractionPatterns, triplestore.Term{}) {
		for _, p := range r.store.Match(t.Object.Value, vocabulary.HasParameter, triplestore.Term{}) {
			param := Parameter{Name: r.literal(p.Object.Value, vocabulary.HasName)}
			var nodes []string
			for _, pat := range r.store.Match(p.Object.Value, vocabulary.HasPattern, triplestore.Term{}) {
				nodes = append(nodes, pat.Object.Value)
			}
			r.sortByIndex(nodes)
			for _, node := range nodes {
				param.Patterns = append(param.Patterns, r.literal(node, vocabulary.HasRegex))
			}
			cfg.ExtractionPatterns = append(cfg.ExtractionPatterns, param)
		}
	}
	sort.Slice(cfg.ExtractionPatterns, func(i, j int) bool {
		return cfg.ExtractionPatterns[i].Name < cfg.ExtractionPatterns[j].Name
	})

	for _, t := range r.store.Match(handlerIRI, vocabulary.HasWorkflow, triplestore.Term{}) {
		for _, s := range r.store.Match(t.Object.Value, vocabulary.HasStep, triplestore.Term{}) {
			step := Step{Action: r.literal(s.Object.Value, vocabulary.HasAction)}
			step.Number, _ = strconv.Atoi(r.literal(s.Object.Value, vocabulary.HasStepNumber))
			for _, p := range r.store.Match(s.Object.Value, vocabulary.HasParameter, triplestore.Term{}) {
				step.Parameters = append(step.Parameters, p.Object.Value)
			}
			sort.Strings(step.Parameters)
			cfg.Workflow = append(cfg.Workflow, step)
		}
	}
	sort.Slice(cfg.Workflow, func(i, j int) bool { return cfg.Workflow[i].Number < cfg.Workflow[j].Number })

	for _, t := range r.store.Match(handlerIRI, vocabulary.HasRules, triplestore.Term{}) {
		var nodes []string
		for _, ru := range r.store.Match(t.Object.Value, vocabulary.HasRule, triplestore.Term{}) {
			nodes = append(nodes, ru.Object.Value)
		}
		r.sortByIndex(nodes)
		for _, node := range nodes {
			cfg.Rules = append(cfg.Rules, Rule{
				Condition: r.literal(node, vocabulary.HasCondition),
				Action:    r.literal(node, vocabulary.HasAction),
			})
		}
	}

	return cfg, nil
}

// List returns all registered handler names sorted.
func (r *Registry) List() []string {
	var names []string
	for _, t := range r.store.Match("", vocabulary.RDFType, triplestore.IRI(HandlerClass)) {
		names = append(names, vocabulary.LocalName(t.Subject))
	}
	sort.Strings(names)
	return names
}

// Unregister removes a handler and all of its owned structure. Removing an
// absent handler is a no-op.
func (r *Registry) Unregister(name string) {
	if r.Exists(name) {
		r.sweep(IRI(name))
	}
}

// Extract applies a handler's extraction patterns to free text and returns
// the captured parameter values. For each parameter the first matching
// pattern wins; a capture group narrows the value. Parameters with no match
// are simply absent.
func (r *Registry) Extract(name, text string) (map[string]string, error) {
	cfg, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for _, param := range cfg.ExtractionPatterns {
		for _, pattern := range param.Patterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				continue
			}
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if len(m) > 1 {
				values[param.Name] = m[1]
			} else {
				values[param.Name] = m[0]
			}
			break
		}
	}
	return values, nil
}

// sweep removes the handler node's own triples and every triple mentioning
// a node owned by it.
func (r *Registry) sweep(handlerIRI string) {
	owned := make([]string, 0, 8)
	for _, t := range r.store.Match("", vocabulary.HasOwner, triplestore.IRI(handlerIRI)) {
		owned = append(owned, t.Subject)
	}
	for _, node := range owned {
		for _, t := range r.store.Match(node, "", triplestore.Term{}) {
			r.store.Remove(t.Subject, t.Predicate, t.Object)
		}
		for _, t := range r.store.Match("", "", triplestore.IRI(node)) {
			r.store.Remove(t.Subject, t.Predicate, t.Object)
		}
	}
	for _, t := range r.store.Match(handlerIRI, "", triplestore.Term{}) {
		r.store.Remove(t.Subject, t.Predicate, t.Object)
	}
}

// sortByIndex orders sub-nodes by their hasIndex literal so patterns and
// rules come back in declaration order.
func (r *Registry) sortByIndex(nodes []string) {
	sort.Slice(nodes, func(i, j int) bool {
		a, _ := strconv.Atoi(r.literal(nodes[i], vocabulary.HasIndex))
		b, _ := strconv.Atoi(r.literal(nodes[j], vocabulary.HasIndex))
		return a < b
	})
}

func (r *Registry) literal(subject, predicate string) string {
	for _, t := range r.store.Match(subject, predicate, triplestore.Term{}) {
		return t.Object.Value
	}
	return ""
}
