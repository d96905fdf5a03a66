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

	"github.com/pkg/errors"

	"github.com/fieldgate/fieldgate/internal/engine"
	"github.com/fieldgate/fieldgate/internal/eventbus"
	"github.com/fieldgate/fieldgate/internal/introspect"
	"github.com/fieldgate/fieldgate/internal/logging"
	"github.com/fieldgate/fieldgate/internal/memstore"
	"github.com/fieldgate/fieldgate/internal/naming"
	"github.com/fieldgate/fieldgate/internal/otel"
	"github.com/fieldgate/fieldgate/internal/resource"
	"github.com/fieldgate/fieldgate/internal/schemacfg"
	"github.com/fieldgate/fieldgate/internal/selection"
	"github.com/fieldgate/fieldgate/internal/server"
	"github.com/fieldgate/fieldgate/internal/shorthand"
)

const rootUsage = `fieldgate — field-selection RPC gateway & schema tools

USAGE:
  fieldgate <command> [flags]

COMMANDS:
  serve      Run the HTTP RPC gateway over an in-memory store
  check      Load and validate a schema directory
  describe   Print the introspection catalog for a schema
  explain    Show how a field selection resolves against a resource
  help       Show help for any command
`

const serveUsage = `serve FLAGS:
  -schema.dir <dir>          Schema directory of *.hcl files (required)
  -schema.fixtures <file>    JSON file of seed records, keyed by resource
  -schema.naming <name>      Wire naming convention: camel or snake (default: camel)
  -server.addr <addr>        HTTP listen address (default: :8080)
  -server.pretty             Pretty-print JSON responses
  -server.timeout <duration> Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body <bytes>   Max request body size, 0 for unlimited (default: 1048576)
  -server.cors <origin>      Allowed CORS origin. Repeatable; * allows any
  -log.level <level>         Log level: debug, info, warn, error (default: info)
  -log.format <format>       Log format: text or json (default: text)
  -otel.endpoint <addr>      OTLP collector endpoint
  -otel.service <name>       OpenTelemetry service name (default: fieldgate)
`

const checkUsage = `check FLAGS:
  -schema.dir <dir>  Schema directory of *.hcl files (required)
  (Exits non-zero on parse or reference errors)
`

const describeUsage = `describe FLAGS:
  -schema.dir <dir>     Schema directory of *.hcl files (required)
  -schema.naming <name> Wire naming convention: camel or snake (default: camel)
  -out <file>           Write catalog to file (default: stdout)
`

const explainUsage = `explain FLAGS:
  -schema.dir <dir>     Schema directory of *.hcl files (required)
  -schema.naming <name> Wire naming convention: camel or snake (default: camel)
  -resource <name>      Resource to resolve the selection against (required)

USAGE:
  fieldgate explain -schema.dir <dir> -resource <name> "<selection>"

The selection uses the shorthand form, e.g. "title author { name }".
Prints the stored-field projection and nested loads the selection
resolves to.
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("fieldgate", flag.ContinueOnError)
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
	case "describe":
		return cmdDescribe(cmdArgs)
	case "explain":
		return cmdExplain(cmdArgs)
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
	case "describe":
		fmt.Print(describeUsage)
	case "explain":
		fmt.Print(explainUsage)
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

func loadRegistry(dir string) (*resource.Registry, error) {
	if dir == "" {
		return nil, fmt.Errorf("-schema.dir is required")
	}
	defs, err := schemacfg.Load(dir)
	if err != nil {
		return nil, errors.Wrap(err, "load schema")
	}
	reg, err := schemacfg.Register(defs)
	if err != nil {
		return nil, errors.Wrap(err, "register schema")
	}
	return reg, nil
}

func parseConvention(s string) (naming.Convention, error) {
	conv, ok := naming.ParseConvention(s)
	if !ok {
		return conv, fmt.Errorf("unknown naming convention %q", s)
	}
	return conv, nil
}

// loadFixtures seeds the store from a JSON file shaped as
// {"<resource>": [{record}, ...], ...}.
func loadFixtures(store *memstore.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fixtures map[string][]map[string]any
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return errors.Wrapf(err, "fixtures %s", path)
	}
	for res, recs := range fixtures {
		store.Seed(res, recs...)
	}
	return nil
}

func cmdServe(args []string) error {
	schemaDir := ""
	fixtures := ""
	convName := "camel"
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	maxBody := int64(1 << 20)
	logLevel := "info"
	logFormat := "text"
	otelEndpoint := ""
	otelService := "fieldgate"
	var corsOrigins stringListFlag

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaDir, "schema.dir", schemaDir, "Schema directory")
	fs.StringVar(&fixtures, "schema.fixtures", fixtures, "JSON seed records")
	fs.StringVar(&convName, "schema.naming", convName, "Wire naming convention")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Int64Var(&maxBody, "server.max-body", maxBody, "Max request body size")
	fs.Var(&corsOrigins, "server.cors", "Allowed CORS origin")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	fs.StringVar(&logFormat, "log.format", logFormat, "Log format")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}

	conv, err := parseConvention(convName)
	if err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	reg, err := loadRegistry(schemaDir)
	if err != nil {
		return err
	}

	store := memstore.New(reg)
	if fixtures != "" {
		if err := loadFixtures(store, fixtures); err != nil {
			return err
		}
	}

	eventbus.Use(eventbus.New())
	logging.Subscribe(logging.NewLogger(logLevel, logFormat))
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return errors.Wrap(err, "otel setup")
	}
	defer func() { _ = shutdown(context.Background()) }()

	eng := engine.New(reg, store, engine.WithConvention(conv))

	sopts := []server.Option{server.WithMaxBodyBytes(maxBody)}
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	if len(corsOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(corsOrigins...))
	}

	mux := http.NewServeMux()
	mux.Handle("/rpc", server.New(eng, sopts...))
	mux.Handle("/schema", server.NewSchema(eng, sopts...))

	log.Printf("fieldgate listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func cmdCheck(args []string) error {
	schemaDir := ""
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaDir, "schema.dir", schemaDir, "Schema directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, checkUsage)
		return err
	}
	reg, err := loadRegistry(schemaDir)
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d resources\n", len(reg.Names()))
	return nil
}

func cmdDescribe(args []string) error {
	schemaDir := ""
	convName := "camel"
	outFile := ""
	fs := flag.NewFlagSet("describe", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaDir, "schema.dir", schemaDir, "Schema directory")
	fs.StringVar(&convName, "schema.naming", convName, "Wire naming convention")
	fs.StringVar(&outFile, "out", outFile, "Write catalog to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, describeUsage)
		return err
	}

	conv, err := parseConvention(convName)
	if err != nil {
		fmt.Fprint(os.Stderr, describeUsage)
		return err
	}
	reg, err := loadRegistry(schemaDir)
	if err != nil {
		return err
	}
	cat, err := introspect.Catalog(reg, conv)
	if err != nil {
		return errors.Wrap(err, "catalog")
	}
	out, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if outFile == "" {
		fmt.Print(string(out))
		return nil
	}
	return os.WriteFile(outFile, out, 0644)
}

func cmdExplain(args []string) error {
	schemaDir := ""
	convName := "camel"
	resName := ""
	fs := flag.NewFlagSet("explain", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaDir, "schema.dir", schemaDir, "Schema directory")
	fs.StringVar(&convName, "schema.naming", convName, "Wire naming convention")
	fs.StringVar(&resName, "resource", resName, "Resource name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, explainUsage)
		return err
	}
	if resName == "" {
		fmt.Fprint(os.Stderr, explainUsage)
		return fmt.Errorf("-resource is required")
	}
	if fs.NArg() != 1 {
		fmt.Fprint(os.Stderr, explainUsage)
		return fmt.Errorf("expected one selection argument")
	}

	conv, err := parseConvention(convName)
	if err != nil {
		fmt.Fprint(os.Stderr, explainUsage)
		return err
	}
	reg, err := loadRegistry(schemaDir)
	if err != nil {
		return err
	}
	sch, err := reg.Describe(conv.Canonicalize(resName))
	if err != nil {
		return err
	}

	raw, err := shorthand.Parse(fs.Arg(0))
	if err != nil {
		return errors.Wrap(err, "parse selection")
	}
	proj, tmpl, err := selection.NewProcessor(reg, conv).ProcessRaw(sch, raw)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(map[string]any{
		"select":   proj.Select,
		"load":     proj.Load,
		"template": tmpl,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
