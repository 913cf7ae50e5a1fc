// # internal/engine/binder/binder.go
package binder

import (
	"fmt"
	"log/slog"
	"time"

	"shaker/internal/core/errors"
	"shaker/internal/engine/graph"
	"shaker/internal/engine/module"
	"shaker/internal/shared/observability"
)

const (
	StarConflictFirst = "first"
	StarConflictError = "error"
)

type Options struct {
	// StarConflict decides what happens when two `export *` sources provide
	// the same name: "first" keeps the earlier one, "error" fails the build.
	StarConflict string
}

// Target is what an import or export name finally denotes.
type Target struct {
	Module    *module.Module
	Decl      *module.Declaration // nil for namespaces and externals
	Namespace bool
	External  bool
	Specifier string // set for externals
}

func (t Target) same(o Target) bool {
	return t.Module == o.Module && t.Decl == o.Decl && t.Namespace == o.Namespace &&
		t.External == o.External && t.Specifier == o.Specifier
}

type Member struct {
	Name   string
	Target Target
}

type exportKey struct {
	module string
	name   string
}

// Bindings holds the cross-module resolution of every import in a graph.
type Bindings struct {
	graph    *graph.Graph
	opts     Options
	imports  map[*module.ImportBinding]Target
	exports  map[exportKey]Target
	warned   map[string]bool
	Warnings []module.Warning
}

// Bind resolves every import binding and every export of every module. It
// must only run once the graph is complete.
func Bind(g *graph.Graph, opts Options) (*Bindings, error) {
	if opts.StarConflict == "" {
		opts.StarConflict = StarConflictFirst
	}
	b := &Bindings{
		graph:   g,
		opts:    opts,
		imports: make(map[*module.ImportBinding]Target),
		exports: make(map[exportKey]Target),
		warned:  make(map[string]bool),
	}

	start := time.Now()
	for _, id := range g.Order {
		m := g.Modules[id]
		for _, imp := range m.Imports {
			t, err := b.resolveImport(m, imp)
			if err != nil {
				return nil, err
			}
			b.imports[imp] = t
		}
		for _, name := range m.ExportOrder {
			if _, err := b.ResolveExport(m, name); err != nil {
				return nil, err
			}
		}
	}
	observability.AnalysisDuration.WithLabelValues("bind").Observe(time.Since(start).Seconds())
	return b, nil
}

// Import returns the resolved target of an import binding.
func (b *Bindings) Import(imp *module.ImportBinding) (Target, bool) {
	t, ok := b.imports[imp]
	return t, ok
}

func (b *Bindings) resolveImport(m *module.Module, imp *module.ImportBinding) (Target, error) {
	if imp.External {
		m.PotentialGlobals[imp.LocalName] = true
		return Target{External: true, Specifier: imp.Specifier}, nil
	}
	src := b.graph.Module(imp.SourceID)
	if src == nil {
		return Target{}, errors.UnresolvedImport(m.ID, imp.Specifier, "")
	}
	if imp.IsNamespace() {
		return Target{Module: src, Namespace: true}, nil
	}
	t, found, err := b.resolve(src, imp.ImportedName, nil, map[string]bool{src.ID: true})
	if err != nil {
		return Target{}, err
	}
	if !found {
		return Target{}, errors.UnresolvedImport(m.ID, imp.Specifier, imp.ImportedName)
	}
	return t, nil
}

// ResolveExport finds the declaration behind an exported name of m.
func (b *Bindings) ResolveExport(m *module.Module, name string) (Target, error) {
	key := exportKey{m.ID, name}
	if t, ok := b.exports[key]; ok {
		return t, nil
	}
	t, found, err := b.resolve(m, name, nil, map[string]bool{m.ID: true})
	if err != nil {
		return Target{}, err
	}
	if !found {
		err := errors.New(errors.CodeUnresolvedImport, fmt.Sprintf("export %q has no declaration", name))
		err = errors.AddContext(err, errors.CtxPath, m.ID)
		return Target{}, errors.AddContext(err, errors.CtxSymbol, name)
	}
	b.exports[key] = t
	return t, nil
}

// resolve walks explicit re-exports with chain as the cycle guard; stars
// records modules already searched through `export *`, which contribute
// nothing when reached again.
func (b *Bindings) resolve(m *module.Module, name string, chain []exportKey, stars map[string]bool) (Target, bool, error) {
	key := exportKey{m.ID, name}
	for _, k := range chain {
		if k == key {
			return Target{}, false, errors.CircularExport(m.ID, name, chainPath(append(chain, key)))
		}
	}
	chain = append(chain, key)

	if e, ok := m.Exports[name]; ok {
		if !e.IsReExport() {
			return b.resolveLocal(m, e.LocalName, chain, stars)
		}
		if e.SourceID == "" {
			if m.Externals[e.Specifier] {
				return Target{External: true, Specifier: e.Specifier}, true, nil
			}
			return Target{}, false, errors.UnresolvedImport(m.ID, e.Specifier, "")
		}
		src := b.graph.Module(e.SourceID)
		if e.LocalName == module.NamespaceName {
			return Target{Module: src, Namespace: true}, true, nil
		}
		t, found, err := b.resolve(src, e.LocalName, chain, stars)
		if err != nil {
			return Target{}, false, err
		}
		if !found {
			return Target{}, false, errors.UnresolvedImport(m.ID, e.Specifier, e.LocalName)
		}
		return t, true, nil
	}

	// `export *` never forwards a default export
	if name == "default" {
		return Target{}, false, nil
	}

	var found Target
	var foundFrom string
	ok := false
	for _, star := range m.StarExports {
		if star.SourceID == "" || stars[star.SourceID] {
			continue
		}
		stars[star.SourceID] = true
		t, hit, err := b.resolve(b.graph.Module(star.SourceID), name, chain, stars)
		if err != nil {
			return Target{}, false, err
		}
		if !hit {
			continue
		}
		if !ok {
			found, foundFrom, ok = t, star.Specifier, true
			continue
		}
		if found.same(t) {
			continue
		}
		if err := b.starConflict(m, name, foundFrom, star.Specifier); err != nil {
			return Target{}, false, err
		}
	}
	return found, ok, nil
}

func (b *Bindings) resolveLocal(m *module.Module, local string, chain []exportKey, stars map[string]bool) (Target, bool, error) {
	d := m.Definitions[local]
	if d == nil {
		return Target{}, false, nil
	}
	if d.Kind != module.DeclImport {
		return Target{Module: m, Decl: d}, true, nil
	}

	// exported import: follow it into its source
	imp := d.Import
	if imp.External {
		return Target{External: true, Specifier: imp.Specifier}, true, nil
	}
	src := b.graph.Module(imp.SourceID)
	if src == nil {
		return Target{}, false, errors.UnresolvedImport(m.ID, imp.Specifier, "")
	}
	if imp.IsNamespace() {
		return Target{Module: src, Namespace: true}, true, nil
	}
	t, found, err := b.resolve(src, imp.ImportedName, chain, stars)
	if err != nil {
		return Target{}, false, err
	}
	if !found {
		return Target{}, false, errors.UnresolvedImport(m.ID, imp.Specifier, imp.ImportedName)
	}
	return t, true, nil
}

func (b *Bindings) starConflict(m *module.Module, name, first, second string) error {
	msg := fmt.Sprintf("%q is exported by both %q and %q", name, first, second)
	if b.opts.StarConflict == StarConflictError {
		err := errors.New(errors.CodeUnresolvedImport, "ambiguous star export: "+msg)
		err = errors.AddContext(err, errors.CtxPath, m.ID)
		return errors.AddContext(err, errors.CtxSymbol, name)
	}
	if b.warned[m.ID+"\x00"+name] {
		return nil
	}
	b.warned[m.ID+"\x00"+name] = true
	b.Warnings = append(b.Warnings, module.Warning{
		Kind:    module.WarnStarConflict,
		Path:    m.ID,
		Message: msg + "; using " + first,
	})
	slog.Warn("conflicting star exports", "path", m.ID, "name", name, "kept", first, "ignored", second)
	return nil
}

// NamespaceMembers lists the names visible on `import * as ns` of m: its own
// exports in source order, then names gained through `export *`, first wins.
func (b *Bindings) NamespaceMembers(m *module.Module) ([]Member, error) {
	seen := make(map[string]bool)
	var names []string
	b.collectNames(m, map[string]bool{}, seen, &names, true)

	out := make([]Member, 0, len(names))
	for _, name := range names {
		t, err := b.ResolveExport(m, name)
		if err != nil {
			return nil, err
		}
		out = append(out, Member{Name: name, Target: t})
	}
	return out, nil
}

func (b *Bindings) collectNames(m *module.Module, visited, seen map[string]bool, names *[]string, root bool) {
	if m == nil || visited[m.ID] {
		return
	}
	visited[m.ID] = true
	for _, name := range m.ExportOrder {
		if (!root && name == "default") || seen[name] {
			continue
		}
		seen[name] = true
		*names = append(*names, name)
	}
	for _, star := range m.StarExports {
		if star.SourceID == "" {
			continue
		}
		b.collectNames(b.graph.Module(star.SourceID), visited, seen, names, false)
	}
}

func chainPath(chain []exportKey) []string {
	out := make([]string, 0, len(chain))
	for _, k := range chain {
		out = append(out, k.module+":"+k.name)
	}
	return out
}
