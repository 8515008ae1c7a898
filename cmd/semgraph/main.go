// Package main runs the semgraph demo: it builds an ordering ontology,
// registers an order-creation handler, executes it through the simulated
// resolver and prints the resulting introspection snapshot.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/c360/semgraph"
	"github.com/c360/semgraph/config"
	"github.com/c360/semgraph/handler"
	"github.com/c360/semgraph/schema"
	"github.com/c360/semgraph/vocabulary"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration (optional)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}

	level := cfg.SlogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	sys, err := semgraph.New(semgraph.WithConfig(cfg), semgraph.WithLogger(logger))
	if err != nil {
		return err
	}
	defer sys.Close()

	ctx := context.Background()

	// Ordering ontology.
	if _, err := sys.CreateClass("Client", []schema.PropertySpec{
		{Name: "hasName", Type: vocabulary.TagString},
		{Name: "hasEmail", Type: vocabulary.TagString},
	}); err != nil {
		return err
	}
	if _, err := sys.CreateClass("Product", []schema.PropertySpec{
		{Name: "hasPrice", Type: vocabulary.TagFloat},
		{Name: "hasStock", Type: vocabulary.TagInteger},
	}); err != nil {
		return err
	}
	if _, err := sys.CreateClass("Order", []schema.PropertySpec{
		{Name: "hasClient", Type: vocabulary.TypeTag("Client")},
		{Name: "hasProduct", Type: vocabulary.TypeTag("Product")},
		{Name: "hasState", Type: vocabulary.TagString},
	}); err != nil {
		return err
	}
	if err := sys.Schema.DeclareBehavior("Client", []schema.MethodSpec{
		{Name: "place_order"},
		{Name: "update_profile"},
	}, cfg.Graph.DefaultNamespace); err != nil {
		return err
	}
	if err := sys.Schema.DeclareStateMachine("Order",
		[]string{"pending", "paid", "shipped"},
		[]schema.TransitionSpec{
			{From: "pending", To: "paid", Trigger: "pay"},
			{From: "paid", To: "shipped", Trigger: "ship"},
		}, cfg.Graph.DefaultNamespace); err != nil {
		return err
	}

	// Data.
	ada, err := sys.CreateInstance("Client", map[string]any{
		"hasName":  "Ada",
		"hasEmail": "ada@example.org",
	})
	if err != nil {
		return err
	}
	if _, err := sys.CreateInstance("Product", map[string]any{
		"hasPrice": 1299.0,
		"hasStock": 4,
	}); err != nil {
		return err
	}

	// Handler.
	if err := sys.RegisterHandler(handler.Config{
		Name:        "create_order",
		Description: "creates an order for a client and product",
		ExtractionPatterns: []handler.Parameter{
			{Name: "client_name", Patterns: []string{`for (\w+)`}},
			{Name: "product_name", Patterns: []string{`order (?:a|an|one) (\w+)`}},
		},
		Workflow: []handler.Step{
			{Number: 1, Action: "check_stock", Parameters: []string{"product_name"}},
			{Number: 2, Action: "create_order_record", Parameters: []string{"client_name", "product_name", "step_1_result"}},
			{Number: 3, Action: "notify_client", Parameters: []string{"client_name", "step_2_result"}},
		},
		Rules: []handler.Rule{
			{Condition: "stock_error", Action: "cancel_order"},
		},
	}); err != nil {
		return err
	}

	// Parameter extraction from free text, then execution.
	params, err := sys.Handlers.Extract("create_order", "please order a laptop for Ada")
	if err != nil {
		return err
	}
	callParams := make(map[string]any, len(params))
	for k, v := range params {
		callParams[k] = v
	}

	result, err := sys.Execute(ctx, "create_order", callParams)
	if err != nil {
		return err
	}
	logger.Info("workflow finished", "run_id", result.RunID, "summary", result.Summary)

	// Proxy dispatch.
	p, err := sys.Proxy("Client", ada)
	if err != nil {
		return err
	}
	out, err := p.Invoke(ctx, "place_order", map[string]any{"product": "laptop", "quantity": 1})
	if err != nil {
		return err
	}
	logger.Info("proxy call", "result", out)

	// Introspection snapshot to stdout.
	snapshot := sys.DescribeOntology()
	encoded, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
