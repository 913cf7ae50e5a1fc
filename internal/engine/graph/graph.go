// # internal/engine/graph/graph.go
package graph

import (
	"sort"

	"shaker/internal/engine/module"
	"shaker/internal/engine/parser"

	"github.com/google/uuid"
)

// Graph is the module graph of one build session. It is populated by the
// Builder and read-only afterwards.
type Graph struct {
	Session uuid.UUID
	Entry   string

	Modules map[string]*module.Module
	Order   []string // first-discovery order
	Edges   []ImportEdge

	Warnings []module.Warning

	imports    map[string][]string
	importedBy map[string]map[string]bool
	discovery  map[string]int
}

type ImportEdge struct {
	From      string
	To        string
	Specifier string
	Location  parser.Location
}

func newGraph(entry string) *Graph {
	return &Graph{
		Session:    uuid.New(),
		Entry:      entry,
		Modules:    make(map[string]*module.Module),
		imports:    make(map[string][]string),
		importedBy: make(map[string]map[string]bool),
		discovery:  make(map[string]int),
	}
}

func (g *Graph) addModule(m *module.Module) {
	if _, ok := g.Modules[m.ID]; ok {
		return
	}
	g.Modules[m.ID] = m
	g.discovery[m.ID] = len(g.Order)
	g.Order = append(g.Order, m.ID)
}

func (g *Graph) addEdge(from, to, specifier string, loc parser.Location) {
	g.Edges = append(g.Edges, ImportEdge{From: from, To: to, Specifier: specifier, Location: loc})
	for _, existing := range g.imports[from] {
		if existing == to {
			return
		}
	}
	g.imports[from] = append(g.imports[from], to)
	if g.importedBy[to] == nil {
		g.importedBy[to] = make(map[string]bool)
	}
	g.importedBy[to][from] = true
}

func (g *Graph) Module(id string) *module.Module {
	return g.Modules[id]
}

func (g *Graph) Len() int {
	return len(g.Modules)
}

// Dependencies lists the modules id imports, in the order first imported.
func (g *Graph) Dependencies(id string) []string {
	return append([]string(nil), g.imports[id]...)
}

// Dependents lists the modules importing id, sorted.
func (g *Graph) Dependents(id string) []string {
	out := make([]string, 0, len(g.importedBy[id]))
	for from := range g.importedBy[id] {
		out = append(out, from)
	}
	sort.Strings(out)
	return out
}

// DiscoveryIndex is the position of id in the builder's queue order, or -1.
func (g *Graph) DiscoveryIndex(id string) int {
	if i, ok := g.discovery[id]; ok {
		return i
	}
	return -1
}

// Close releases every module's syntax tree.
func (g *Graph) Close() {
	if g == nil {
		return
	}
	for _, m := range g.Modules {
		m.Close()
	}
}
