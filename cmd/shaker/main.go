// # cmd/shaker/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"shaker/internal/core/app"
	"shaker/internal/core/config"
	"shaker/internal/shared/observability"
)

const defaultConfigPath = "./shaker.toml"

var (
	configPath = flag.String("config", defaultConfigPath, "Path to config file")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	historyN   = flag.Int("history", 0, "Print the N most recent recorded builds and exit")
	why        = flag.String("why", "", "Print the import chain from the entry to a module")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.3.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("shaker v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("shaker failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, observability.TracingOptions{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()

	if *historyN > 0 {
		builds, err := a.History(*historyN)
		if err != nil {
			return err
		}
		fmt.Print(formatHistory(builds))
		return nil
	}

	report, err := a.Build(ctx, flag.Arg(0))
	if err != nil {
		return err
	}
	defer report.Close()

	if *why != "" {
		chain, err := a.Why(report, *why)
		if err != nil {
			return err
		}
		fmt.Print(formatChain(report, chain))
		return nil
	}

	if err := a.WriteOutputs(report); err != nil {
		return err
	}
	fmt.Print(formatSummary(report))
	return nil
}

// loadConfig reads path. A missing file at the default location means "use
// defaults"; an explicitly named file must exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !os.IsNotExist(err) || path != defaultConfigPath {
		return nil, err
	}
	slog.Debug("no config file, using defaults", "path", path)
	cfg = config.DefaultConfig()
	config.ApplyEnvOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
