// # internal/core/app/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"shaker/internal/core/config"
	"shaker/internal/core/errors"
	"shaker/internal/data/history"
	"shaker/internal/engine/binder"
	"shaker/internal/engine/graph"
	"shaker/internal/engine/module"
	"shaker/internal/engine/parser"
	"shaker/internal/engine/resolver"
	"shaker/internal/engine/treeshake"
	"shaker/internal/shared/observability"
	"shaker/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type App struct {
	Config   *config.Config
	Parser   *parser.Parser
	Resolver *resolver.Resolver

	limiter *util.Limiter
	history *history.Store
}

// Report is the outcome of one build. It owns the graph's syntax trees until
// Close.
type Report struct {
	Session  string
	Entry    string
	Graph    *graph.Graph
	Bindings *binder.Bindings
	Result   *treeshake.Result
	Cycles   [][]string
	Warnings []module.Warning
	Duration time.Duration
}

func (r *Report) Close() {
	if r == nil {
		return
	}
	r.Graph.Close()
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	loader, err := parser.NewGrammarLoader()
	if err != nil {
		return nil, err
	}
	r, err := resolver.New(resolver.Options{
		Extensions:       cfg.Resolve.Extensions,
		IndexFiles:       cfg.Resolve.IndexFiles,
		Externals:        cfg.Resolve.Externals,
		LenientExternals: cfg.Resolve.LenientExternals,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Parser:   parser.NewParser(loader),
		Resolver: r,
		limiter:  util.NewLimiter(cfg.Loader.MaxReadsPerSecond, cfg.Loader.Workers),
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path, cfg.History.BusyTimeout)
		if err != nil {
			return nil, err
		}
		a.history = store
	}
	return a, nil
}

func (a *App) Close() error {
	return a.history.Close()
}

// Build runs graph construction, binding and tree-shaking for entry, or for
// the configured entry when entry is empty. A failed build returns no report
// and holds no syntax trees.
func (a *App) Build(ctx context.Context, entry string) (report *Report, err error) {
	if strings.TrimSpace(entry) == "" {
		entry = a.Config.Entry
	}
	if strings.TrimSpace(entry) == "" {
		return nil, errors.New(errors.CodeValidationError, "no entry module given")
	}

	ctx, span := observability.Tracer.Start(ctx, "shaker.build", trace.WithAttributes(attribute.String("entry", entry)))
	defer span.End()
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			observability.BuildFailuresTotal.WithLabelValues(string(errors.CodeOf(err))).Inc()
		}
	}()

	var g *graph.Graph
	err = phase(ctx, "graph", func(ctx context.Context) error {
		builder := graph.NewBuilder(a.Resolver, a.Parser, graph.Options{
			Workers: a.Config.Loader.Workers,
			Limiter: a.limiter,
		})
		var buildErr error
		g, buildErr = builder.Build(ctx, entry)
		return buildErr
	})
	if err != nil {
		return nil, err
	}

	var b *binder.Bindings
	err = phase(ctx, "bind", func(context.Context) error {
		var bindErr error
		b, bindErr = binder.Bind(g, binder.Options{StarConflict: a.Config.Analysis.StarConflict})
		return bindErr
	})
	if err != nil {
		g.Close()
		return nil, err
	}

	var res *treeshake.Result
	err = phase(ctx, "shake", func(context.Context) error {
		var shakeErr error
		res, shakeErr = treeshake.Shake(g, b, treeshake.Options{IncludeEntryExports: a.Config.Analysis.EntryExports()})
		return shakeErr
	})
	if err != nil {
		g.Close()
		return nil, err
	}

	report = &Report{
		Session:  g.Session.String(),
		Entry:    g.Entry,
		Graph:    g,
		Bindings: b,
		Result:   res,
		Cycles:   g.Cycles(),
		Duration: time.Since(start),
	}
	report.Warnings = collectWarnings(report)
	for _, w := range report.Warnings {
		observability.WarningsTotal.WithLabelValues(w.Kind).Inc()
	}
	span.SetAttributes(
		attribute.String("session", report.Session),
		attribute.Int("modules", g.Len()),
		attribute.Int("statements.included", res.Included),
	)
	observability.AnalysisDuration.WithLabelValues("build").Observe(report.Duration.Seconds())

	a.record(report)
	return report, nil
}

func phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.Tracer.Start(ctx, "shaker."+name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// collectWarnings gathers every non-fatal finding of the build. Module and
// binder warnings were logged where they arose; cycles and potential globals
// are logged here.
func collectWarnings(r *Report) []module.Warning {
	g := r.Graph
	out := append([]module.Warning(nil), g.Warnings...)
	out = append(out, r.Bindings.Warnings...)

	for _, cycle := range r.Cycles {
		names := make([]string, 0, len(cycle)+1)
		for _, id := range cycle {
			names = append(names, util.DisplayPath(filepath.Dir(g.Entry), id))
		}
		names = append(names, names[0])
		msg := "import cycle: " + strings.Join(names, " -> ")
		out = append(out, module.Warning{Kind: module.WarnImportCycle, Path: cycle[0], Message: msg})
		slog.Warn("import cycle", "modules", strings.Join(names, " -> "))
	}

	for _, id := range g.Order {
		m := g.Module(id)
		globals := m.SortedPotentialGlobals()
		if len(globals) == 0 {
			continue
		}
		out = append(out, module.Warning{
			Kind:    module.WarnPotentialGlobal,
			Path:    id,
			Message: "unresolved names treated as globals: " + strings.Join(globals, ", "),
		})
		slog.Debug("potential globals", "path", id, "names", strings.Join(globals, ","))
	}
	return out
}

func (a *App) record(r *Report) {
	if a.history == nil {
		return
	}
	err := a.history.Save(history.Build{
		Session:    r.Session,
		Entry:      r.Entry,
		At:         time.Now().UTC(),
		Duration:   r.Duration,
		Modules:    r.Graph.Len(),
		Edges:      len(r.Graph.Edges),
		Cycles:     len(r.Cycles),
		Warnings:   len(r.Warnings),
		Statements: r.Result.Total,
		Included:   r.Result.Included,
	})
	if err != nil {
		slog.Warn("failed to record build history", "path", a.history.Path(), "error", err)
	}
}

// History returns the most recent recorded builds, newest first.
func (a *App) History(limit int) ([]history.Build, error) {
	if a.history == nil {
		return nil, errors.New(errors.CodeValidationError, "build history is disabled")
	}
	return a.history.Recent(limit)
}

// Why explains why target is part of the bundle: the import chain from the
// entry module down to it.
func (a *App) Why(r *Report, target string) ([]string, error) {
	id, err := resolver.Canonical(target)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "cannot resolve module"), errors.CtxPath, target)
	}
	chain, ok := r.Graph.ImportChain(r.Graph.Entry, id)
	if !ok {
		return nil, errors.AddContext(errors.New(errors.CodeNotFound, fmt.Sprintf("%s is not reachable from the entry", target)), errors.CtxPath, id)
	}
	return chain, nil
}
