// Command colmap maps dataset columns, loads sales data into the local
// warehouse and runs forecasts from the terminal.
//
// Usage:
//
//	colmap map -file sales.csv [-candidates catalog.yaml] [-model text-embedding-3-large] [-tenant acme -dataset q1]
//	colmap load -file sales.parquet [-table sample_sales]
//	colmap forecast -start 2025-01-01 -end 2025-04-01 [-product widget]
//	colmap chat [-user alice] < requests.txt
//
// Configuration is read from config/<ENV>.yaml unless -config is given.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colmap/internal/app"
	"github.com/kailas-cloud/colmap/internal/config"
	"github.com/kailas-cloud/colmap/internal/domain"
	domfc "github.com/kailas-cloud/colmap/internal/domain/forecast"
	"github.com/kailas-cloud/colmap/internal/ingest"
	logpkg "github.com/kailas-cloud/colmap/internal/logger"
	"github.com/kailas-cloud/colmap/internal/usecase/automap"
	"github.com/kailas-cloud/colmap/internal/usecase/forecast"
	"github.com/kailas-cloud/colmap/internal/version"
)

var errUsage = errors.New("usage")

const usage = `colmap <command> [flags]

Commands:
  map       map the columns of a CSV or Parquet file to the catalog
  load      load a CSV or Parquet file into the warehouse
  forecast  run a forecast over a date window
  chat      answer free-text requests, one per line of stdin
  version   print the version

Global flags (before the command):
  -config   path to a config file (default: config/$ENV.yaml)
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, os.Args[1:], cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}); err != nil {
		cancel()
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "colmap:", err)
		}
		os.Exit(1)
	}
}

// cli carries the standard streams.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, std cli) error {
	stdout, stderr := std.stdout, std.stderr
	global := flag.NewFlagSet("colmap", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "", "path to a config file")
	if err := global.Parse(args); err != nil {
		return errUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return errUsage
	}

	cmd, cmdArgs := rest[0], rest[1:]
	if cmd == "version" {
		_, err := fmt.Fprintln(stdout, "colmap", version.String())
		return err
	}

	var handler func(ctx context.Context, a *app.App, args []string, std cli) error
	switch cmd {
	case "map":
		handler = runMap
	case "load":
		handler = runLoad
	case "forecast":
		handler = runForecast
	case "chat":
		handler = runChat
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		global.Usage()
		return errUsage
	}

	env := config.GetEnv()
	cfg, err := loadConfig(env, *configPath)
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := handler(ctx, a, cmdArgs, std); err != nil {
		if !errors.Is(err, errUsage) {
			logger.Error("Command failed", zap.String("command", cmd), zap.Error(err))
		}
		return err
	}
	return nil
}

func loadConfig(env, path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(env)
}

func runMap(ctx context.Context, a *app.App, args []string, std cli) error {
	fs := newFlagSet("map", std.stderr)
	file := fs.String("file", "", "CSV or Parquet file to map (required)")
	catalogPath := fs.String("candidates", "", "candidate catalog YAML (default: configured catalog)")
	model := fs.String("model", "", "embedding model (default: mapping.default_model)")
	tenant := fs.String("tenant", "", "tenant to persist the mapping under")
	ds := fs.String("dataset", "", "dataset to persist the mapping under")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *file == "" {
		return requireFlag(fs, "file")
	}
	if (*tenant == "") != (*ds == "") {
		return fmt.Errorf("%w: -tenant and -dataset must be given together", domain.ErrInvalidInput)
	}

	candidates := a.Catalog
	if *catalogPath != "" {
		c, err := app.LoadCatalog(*catalogPath)
		if err != nil {
			return err
		}
		candidates = c
	}

	rows, err := ingest.ReadFile(*file)
	if err != nil {
		return err
	}

	mappings, err := a.Mapper.AutoMapColumns(ctx, automap.Config{
		Rows:       rows,
		Candidates: candidates,
		Model:      *model,
	})
	if err != nil {
		return err
	}

	if *tenant != "" {
		if a.Mappings == nil {
			return fmt.Errorf("%w: no database configured", domain.ErrStorageUnavailable)
		}
		if err := a.Mappings.Save(ctx, *tenant, *ds, mappings); err != nil {
			return err
		}
	}
	return printJSON(std.stdout, mappings)
}

func runLoad(ctx context.Context, a *app.App, args []string, std cli) error {
	fs := newFlagSet("load", std.stderr)
	file := fs.String("file", "", "CSV or Parquet file to load (required)")
	table := fs.String("table", "", "target table (default: warehouse.table)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *file == "" {
		return requireFlag(fs, "file")
	}
	if *table == "" {
		*table = a.Config.Warehouse.Table
	}

	rows, err := ingest.ReadFile(*file)
	if err != nil {
		return err
	}
	n, err := a.Warehouse.Load(ctx, *table, rows)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(std.stdout, "loaded %d rows into %s\n", n, *table)
	return err
}

func runForecast(ctx context.Context, a *app.App, args []string, std cli) error {
	fs := newFlagSet("forecast", std.stderr)
	start := fs.String("start", "", "window start date, YYYY-MM-DD (required)")
	end := fs.String("end", "", "window end date, YYYY-MM-DD (required)")
	product := fs.String("product", "", "restrict to one product")
	timeout := fs.Int("timeout", 0, "job timeout in seconds (max 120)")
	user := fs.String("user", "", "user recorded in run history")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *start == "" {
		return requireFlag(fs, "start")
	}
	if *end == "" {
		return requireFlag(fs, "end")
	}

	resp, err := a.Forecasts.Forecast(ctx, forecast.Request{
		Timeframe:      domfc.Timeframe{StartDate: *start, EndDate: *end},
		Product:        *product,
		TimeoutSeconds: *timeout,
		RequestedBy:    *user,
	})
	if err != nil {
		return err
	}
	return printJSON(std.stdout, resp)
}

func runChat(ctx context.Context, a *app.App, args []string, std cli) error {
	fs := newFlagSet("chat", std.stderr)
	user := fs.String("user", "", "user id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	scanner := bufio.NewScanner(std.stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := printJSON(std.stdout, a.Conversations.Handle(ctx, text, *user)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func requireFlag(fs *flag.FlagSet, name string) error {
	fmt.Fprintf(fs.Output(), "-%s is required\n", name)
	fs.Usage()
	return errUsage
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
