// Command classify runs one purpose statement through a local Ollama model
// using the production prompt and parser, for tuning models by hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garnizeh/pawfect/internal/ai"
	"github.com/garnizeh/pawfect/pkg/ollama"
)

func main() {
	def := ollama.DefaultConfig()
	baseURL := flag.String("url", def.BaseURL, "Ollama base URL")
	model := flag.String("model", def.Model, "model name")
	strict := flag.Bool("strict", false, "require the reply to be exactly one JSON object")
	verbose := flag.Bool("v", false, "log client activity")
	flag.Parse()

	purpose := flag.Arg(0)
	if purpose == "" {
		fmt.Fprintln(os.Stderr, `usage: classify [flags] "purpose of adoption"`)
		os.Exit(2)
	}

	if *verbose {
		l, _ := zap.NewDevelopment()
		ollama.SetLogger(l)
	}

	client, err := ollama.NewDefaultClient(ollama.Config{BaseURL: *baseURL, Model: *model, Timeout: 2 * time.Minute})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ctx := context.Background()
	if err := client.Health(ctx); err != nil {
		log.Fatalf("ollama unreachable: %v", err)
	}
	if models, err := client.ListModels(ctx); err == nil {
		fmt.Printf("available models: %v\n", models)
	}

	schema, err := ai.LoadSchema("v1")
	if err != nil {
		log.Fatal(err)
	}
	res, err := ai.NewValidator(client, schema, *strict, nil).Evaluate(ctx, purpose)
	if err != nil {
		log.Fatalf("evaluate: %v (raw: %q)", err, res.Raw)
	}

	fmt.Printf("raw:      %q\n", res.Raw)
	fmt.Printf("decision: %s (accepted=%v)\n", res.Decision, res.Accepted())
	if len(res.SchemaErrors) > 0 {
		fmt.Printf("schema:   %v\n", res.SchemaErrors)
	}
}
