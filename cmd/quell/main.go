package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/quellhq/quell/internal/introspection"
	"github.com/quellhq/quell/internal/language"
	"github.com/quellhq/quell/internal/logging"
	"github.com/quellhq/quell/internal/otel"
	"github.com/quellhq/quell/internal/runtime"
	"github.com/quellhq/quell/internal/schema"
	"github.com/quellhq/quell/internal/server"
)

const rootUsage = `quell — GraphQL execution engine & tools

USAGE:
  quell <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL endpoint over an SDL schema
  check            Parse and validate an SDL schema, print the normalized form
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -schema <file>                 GraphQL SDL schema file (required)
  -data <file>                   JSON file served as the root value
  -runtime.backend <name>        Execution backend: blocking, pool or loop (default: pool)
  -runtime.workers <n>           Worker cap for the pool backend (default: 64)
  -graphql.introspection <bool>  Enable GraphQL introspection (default: true)
  -server.addr <addr>            HTTP listen address (default: :8080)
  -server.pretty                 Pretty-print JSON responses
  -server.timeout <duration>     Per-request timeout, e.g. 10s (default: 10s)
  -server.cors <origin>          Allowed CORS origin. Repeatable; use * for any
  -otel.endpoint <addr>          OTLP collector endpoint
  -otel.service <name>           OpenTelemetry service name (default: quell)
  -log.dev                       Human-readable development logging
`

const checkUsage = `check FLAGS:
  -schema <file>  GraphQL SDL schema file (required)
  -query <file>   Operation document to validate against the schema
  -out <file>     Write the normalized SDL to file (default: stdout)
  (Validation always runs; exits non-zero on errors)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("quell", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "check":
		return cmdCheck(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "check":
		fmt.Print(checkUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func newBackend(name string, workers int) (runtime.Runtime, error) {
	switch name {
	case "blocking":
		return runtime.NewBlocking(), nil
	case "pool":
		return runtime.NewPool(workers), nil
	case "loop":
		return runtime.NewLoop(), nil
	}
	return nil, fmt.Errorf("unknown runtime backend %q", name)
}

func cmdServe(args []string) error {
	schemaFile := ""
	dataFile := ""
	backend := "pool"
	workers := 64
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	enableIntrospection := true
	otelEndpoint := ""
	otelService := "quell"
	devLog := false
	var corsOrigins stringListFlag

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL schema file")
	fs.StringVar(&dataFile, "data", dataFile, "JSON file served as the root value")
	fs.StringVar(&backend, "runtime.backend", backend, "Execution backend")
	fs.IntVar(&workers, "runtime.workers", workers, "Worker cap for the pool backend")
	fs.BoolVar(&enableIntrospection, "graphql.introspection", enableIntrospection, "Enable GraphQL introspection")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Var(&corsOrigins, "server.cors", "Allowed CORS origin")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	fs.BoolVar(&devLog, "log.dev", devLog, "Human-readable development logging")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("-schema is required")
	}

	sch, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}

	var rootValue any
	if dataFile != "" {
		raw, err := os.ReadFile(dataFile)
		if err != nil {
			return fmt.Errorf("read data: %w", err)
		}
		if err := json.Unmarshal(raw, &rootValue); err != nil {
			return fmt.Errorf("parse data: %w", err)
		}
	}

	rt, err := newBackend(backend, workers)
	if err != nil {
		return err
	}

	flush, err := logging.Setup(devLog)
	if err != nil {
		return fmt.Errorf("logging setup: %w", err)
	}
	defer flush()
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if enableIntrospection {
		sch = introspection.Extend(sch)
	}

	sopts := []server.Option{server.WithTimeout(timeout)}
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(corsOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(corsOrigins...))
	}
	if rootValue != nil {
		sopts = append(sopts, server.WithRootValue(rootValue))
	}
	h, err := server.New(rt, sch, sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)

	log.Printf("GraphQL server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func cmdCheck(args []string) error {
	schemaFile := ""
	queryFile := ""
	outFile := ""
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL schema file")
	fs.StringVar(&queryFile, "query", queryFile, "Operation document to validate against the schema")
	fs.StringVar(&outFile, "out", outFile, "Write the normalized SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, checkUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(os.Stderr, checkUsage)
		return fmt.Errorf("-schema is required")
	}

	sch, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	sdl := schema.Render(sch)

	if queryFile != "" {
		raw, err := os.ReadFile(queryFile)
		if err != nil {
			return fmt.Errorf("read query: %w", err)
		}
		doc, err := language.ParseQuery(string(raw))
		if err != nil {
			return fmt.Errorf("parse query: %w", err)
		}
		validated, err := language.LoadSchema("schema", sdl)
		if err != nil {
			return fmt.Errorf("load schema: %w", err)
		}
		if errs := language.Validate(validated, doc); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e.Error())
			}
			return fmt.Errorf("%d validation error(s)", len(errs))
		}
		return nil
	}

	if outFile == "" {
		fmt.Print(sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}

func loadSchema(file string) (*schema.Schema, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	sch, err := schema.BuildFromSDL(string(raw), nil)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return sch, nil
}
