// # internal/engine/graph/builder.go
package graph

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"shaker/internal/core/errors"
	"shaker/internal/engine/module"
	"shaker/internal/engine/parser"
	"shaker/internal/engine/resolver"
	"shaker/internal/shared/observability"
	"shaker/internal/shared/util"
)

// FileSystem is the file collaborator: module reads, specifier resolution
// and the external-specifier policy.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	ResolvePath(baseDir, specifier string) (string, error)
	IsExternal(specifier string) bool
}

// SourceParser turns module source into a syntax tree.
type SourceParser interface {
	Parse(path string, content []byte) (*parser.Unit, error)
}

type Options struct {
	// Workers > 1 reads and parses queued modules ahead of analysis.
	Workers int
	// Limiter throttles file reads; nil means unlimited.
	Limiter *util.Limiter
}

// Builder discovers every module statically reachable from an entry file.
// Modules are analyzed one at a time in queue order; only reading and parsing
// run on worker goroutines.
type Builder struct {
	fs      FileSystem
	parser  SourceParser
	workers int
	limiter *util.Limiter
}

func NewBuilder(fs FileSystem, p SourceParser, opts Options) *Builder {
	return &Builder{
		fs:      fs,
		parser:  p,
		workers: opts.Workers,
		limiter: opts.Limiter,
	}
}

type loadResult struct {
	unit *parser.Unit
	err  error
}

type prefetch struct {
	done chan struct{}
	res  loadResult
}

// build holds the state of one Build call.
type build struct {
	b       *Builder
	ctx     context.Context
	cancel  context.CancelFunc
	graph   *Graph
	queue   []string
	visited map[string]bool

	sem     chan struct{}
	wg      sync.WaitGroup
	pending map[string]*prefetch
}

// Build runs the work queue from entry to a fixpoint. Any failure releases
// every tree parsed so far and returns no graph.
func (b *Builder) Build(ctx context.Context, entry string) (*Graph, error) {
	entryID, err := resolver.Canonical(entry)
	if err != nil {
		return nil, errors.ModuleLoad(entry, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := &build{
		b:       b,
		ctx:     ctx,
		cancel:  cancel,
		graph:   newGraph(entryID),
		visited: make(map[string]bool),
		pending: make(map[string]*prefetch),
	}
	if b.workers > 1 {
		s.sem = make(chan struct{}, b.workers)
	}

	start := time.Now()
	if err := s.run(entryID); err != nil {
		s.abort()
		return nil, err
	}
	s.wg.Wait()

	g := s.graph
	observability.GraphNodes.Set(float64(len(g.Modules)))
	observability.GraphEdges.Set(float64(len(g.Edges)))
	observability.AnalysisDuration.WithLabelValues("graph").Observe(time.Since(start).Seconds())
	slog.Debug("module graph built", "entry", entryID, "modules", len(g.Modules), "edges", len(g.Edges), "session", g.Session.String())
	return g, nil
}

func (s *build) run(entryID string) error {
	s.enqueue(entryID)

	for len(s.queue) > 0 {
		if err := s.ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "module graph build canceled")
		}
		id := s.queue[0]
		s.queue = s.queue[1:]
		if s.graph.Modules[id] != nil {
			continue
		}

		res := s.take(id)
		if res.err != nil {
			return errors.ModuleLoad(id, res.err)
		}
		m, err := module.Analyze(res.unit)
		if err != nil {
			res.unit.Close()
			return errors.ModuleLoad(id, err)
		}
		s.graph.addModule(m)
		observability.ModulesLoadedTotal.Inc()
		s.graph.Warnings = append(s.graph.Warnings, m.Warnings...)

		if err := s.link(m); err != nil {
			return err
		}
	}
	return nil
}

// link resolves every specifier of m and queues newly seen modules.
func (s *build) link(m *module.Module) error {
	dir := filepath.Dir(m.ID)
	for _, spec := range m.Specifiers {
		loc := m.SpecifierLocation(spec)
		if s.b.fs.IsExternal(spec) {
			m.MarkExternal(spec)
			s.graph.Warnings = append(s.graph.Warnings, module.Warning{
				Kind:     module.WarnExternalImport,
				Path:     m.ID,
				Message:  "external import " + spec + " left unbundled",
				Location: loc,
			})
			slog.Debug("external import", "path", m.ID, "specifier", spec)
			continue
		}
		if resolver.IsBare(spec) {
			return errors.UnresolvedImport(m.ID, spec, "")
		}

		dep, err := s.b.fs.ResolvePath(dir, spec)
		if err != nil {
			if errors.IsCode(err, errors.CodeNotFound) {
				return errors.UnresolvedImport(m.ID, spec, "")
			}
			return errors.AddContext(errors.ModuleLoad(m.ID, err), errors.CtxSpecifier, spec)
		}
		m.SetSource(spec, dep)
		s.graph.addEdge(m.ID, dep, spec, loc)
		s.enqueue(dep)
	}
	return nil
}

func (s *build) enqueue(id string) {
	if s.visited[id] {
		return
	}
	s.visited[id] = true
	s.queue = append(s.queue, id)
	if s.sem != nil {
		s.prefetch(id)
	}
}

func (s *build) prefetch(id string) {
	p := &prefetch{done: make(chan struct{})}
	s.pending[id] = p
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(p.done)
		select {
		case s.sem <- struct{}{}:
		case <-s.ctx.Done():
			p.res.err = s.ctx.Err()
			return
		}
		defer func() { <-s.sem }()
		p.res = s.b.load(s.ctx, id)
	}()
}

// take returns the read+parse result for id, waiting for its prefetch when
// one is running.
func (s *build) take(id string) loadResult {
	p, ok := s.pending[id]
	if !ok {
		return s.b.load(s.ctx, id)
	}
	<-p.done
	delete(s.pending, id)
	return p.res
}

// abort stops the workers and releases every tree, consumed or not.
func (s *build) abort() {
	s.cancel()
	s.wg.Wait()
	for id, p := range s.pending {
		p.res.unit.Close()
		delete(s.pending, id)
	}
	s.graph.Close()
}

func (b *Builder) load(ctx context.Context, id string) loadResult {
	if err := b.limiter.Wait(ctx, 1); err != nil {
		return loadResult{err: err}
	}
	data, err := b.fs.ReadFile(id)
	if err != nil {
		return loadResult{err: err}
	}
	unit, err := b.parser.Parse(id, data)
	return loadResult{unit: unit, err: err}
}
