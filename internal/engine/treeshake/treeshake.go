// # internal/engine/treeshake/treeshake.go
package treeshake

import (
	"log/slog"
	"time"

	"shaker/internal/core/errors"
	"shaker/internal/engine/binder"
	"shaker/internal/engine/graph"
	"shaker/internal/engine/module"
	"shaker/internal/shared/observability"
)

type Options struct {
	// IncludeEntryExports seeds the mark phase with every export of the
	// entry module, as if some consumer imported all of them.
	IncludeEntryExports bool
}

// ModuleResult is one module of the output with its included statements in
// source order.
type ModuleResult struct {
	Module     *module.Module
	Statements []*module.Statement
}

type Result struct {
	Order    []*ModuleResult // emission order
	Included int
	Total    int
}

type item struct {
	m     *module.Module
	index int
}

type marker struct {
	bindings *binder.Bindings
	work     []item
	expanded map[string]bool // namespaces already fanned out
}

// Shake marks every statement reachable from the side effects of the graph
// and, optionally, from the entry's exports. Marks accumulate on the modules,
// so a second run over the same graph adds nothing.
func Shake(g *graph.Graph, b *binder.Bindings, opts Options) (*Result, error) {
	start := time.Now()
	mk := &marker{bindings: b, expanded: make(map[string]bool)}

	for _, id := range g.Order {
		m := g.Modules[id]
		for _, st := range m.Statements {
			if st.Kind == module.StmtSideEffect {
				mk.push(m, st.Index)
			}
		}
	}
	if opts.IncludeEntryExports {
		entry := g.Module(g.Entry)
		if entry == nil {
			return nil, errors.AddContext(errors.New(errors.CodeInternal, "entry module missing from graph"), errors.CtxPath, g.Entry)
		}
		for _, name := range entry.ExportOrder {
			t, err := b.ResolveExport(entry, name)
			if err != nil {
				return nil, err
			}
			if err := mk.pushTarget(t); err != nil {
				return nil, err
			}
		}
	}

	if err := mk.run(); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, id := range g.EmissionOrder() {
		m := g.Modules[id]
		included := m.Included()
		res.Order = append(res.Order, &ModuleResult{Module: m, Statements: included})
		res.Included += len(included)
		res.Total += len(m.Statements)
	}

	observability.StatementsIncluded.Set(float64(res.Included))
	observability.StatementsTotal.Set(float64(res.Total))
	observability.AnalysisDuration.WithLabelValues("shake").Observe(time.Since(start).Seconds())
	slog.Debug("tree-shake complete", "included", res.Included, "total", res.Total)
	return res, nil
}

func (mk *marker) push(m *module.Module, index int) {
	if index < 0 || index >= len(m.Statements) || m.IsIncluded(index) {
		return
	}
	if !m.Statements[index].Kind.Emittable() {
		return
	}
	mk.work = append(mk.work, item{m: m, index: index})
}

func (mk *marker) run() error {
	for len(mk.work) > 0 {
		n := len(mk.work) - 1
		it := mk.work[n]
		mk.work = mk.work[:n]
		if !it.m.MarkIncluded(it.index) {
			continue
		}
		for _, ref := range it.m.Statements[it.index].References {
			if err := mk.pushDecl(it.m, ref.Decl); err != nil {
				return err
			}
		}
	}
	return nil
}

// pushDecl queues the statement declaring d. Imported names are followed
// through the binder into the module that really declares them.
func (mk *marker) pushDecl(m *module.Module, d *module.Declaration) error {
	if d == nil || d.Kind == module.DeclType {
		return nil
	}
	if d.Kind != module.DeclImport {
		mk.push(m, d.Statement)
		return nil
	}
	t, ok := mk.bindings.Import(d.Import)
	if !ok {
		return errors.UnresolvedImport(m.ID, d.Import.Specifier, d.Import.ImportedName)
	}
	return mk.pushTarget(t)
}

func (mk *marker) pushTarget(t binder.Target) error {
	switch {
	case t.External:
		return nil
	case t.Namespace:
		if mk.expanded[t.Module.ID] {
			return nil
		}
		mk.expanded[t.Module.ID] = true
		members, err := mk.bindings.NamespaceMembers(t.Module)
		if err != nil {
			return err
		}
		for _, member := range members {
			if err := mk.pushTarget(member.Target); err != nil {
				return err
			}
		}
		return nil
	default:
		if t.Decl == nil || t.Decl.Kind == module.DeclType {
			return nil
		}
		mk.push(t.Module, t.Decl.Statement)
		return nil
	}
}
