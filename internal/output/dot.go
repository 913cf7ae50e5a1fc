// # internal/output/dot.go
package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"shaker/internal/engine/graph"
	"shaker/internal/engine/treeshake"
)

type DOTGenerator struct {
	graph  *graph.Graph
	result *treeshake.Result
	base   string
}

// NewDOTGenerator renders g; res may be nil when only the graph is wanted.
// Module labels are relative to the entry's directory.
func NewDOTGenerator(g *graph.Graph, res *treeshake.Result) *DOTGenerator {
	return &DOTGenerator{graph: g, result: res, base: filepath.Dir(g.Entry)}
}

func (d *DOTGenerator) Generate(cycles [][]string) (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph modules {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.5;\n")
	buf.WriteString("  nodesep=0.6;\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  overlap=false;\n\n")

	cycleEdges := cycleEdgeSet(cycles)
	inCycle := cycleModuleSet(cycles)
	counts := statementCounts(d.result)
	name := func(id string) string { return displayName(d.base, id) }

	buf.WriteString("  subgraph cluster_bundle {\n")
	buf.WriteString("    label=\"Bundled Modules\";\n")
	buf.WriteString("    style=filled;\n")
	buf.WriteString("    color=\"whitesmoke\";\n")
	buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")

	externals := make(map[string]bool)
	for _, id := range d.graph.Order {
		m := d.graph.Module(id)
		label := name(id)
		if c, ok := counts[id]; ok {
			label = fmt.Sprintf("%s\\n(%d/%d stmts)", label, c[0], c[1])
		}
		switch {
		case inCycle[id]:
			buf.WriteString(fmt.Sprintf("    %q [label=\"%s\", fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", name(id), label))
		case id == d.graph.Entry:
			buf.WriteString(fmt.Sprintf("    %q [label=\"%s\", color=\"navy\", penwidth=2.0];\n", name(id), label))
		default:
			buf.WriteString(fmt.Sprintf("    %q [label=\"%s\", color=\"darkslategrey\"];\n", name(id), label))
		}
		for spec := range m.Externals {
			externals[spec] = true
		}
	}
	buf.WriteString("  }\n\n")

	buf.WriteString("  // External\n")
	buf.WriteString("  node [fillcolor=\"gainsboro\", style=\"rounded,filled\", color=\"grey\"];\n")
	for _, spec := range sortedKeys(externals) {
		buf.WriteString(fmt.Sprintf("  %q [label=%q];\n", "ext:"+spec, spec))
	}
	buf.WriteString("\n")

	for _, from := range d.graph.Order {
		for _, to := range d.graph.Dependencies(from) {
			if cycleEdges[from][to] {
				buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"red\", penwidth=3.0, label=\"CYCLE\"];\n", name(from), name(to)))
			} else {
				buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"forestgreen\", penwidth=1.8];\n", name(from), name(to)))
			}
		}
		m := d.graph.Module(from)
		for _, spec := range m.Specifiers {
			if m.Externals[spec] {
				buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"grey\", style=dashed];\n", name(from), "ext:"+spec))
			}
		}
	}

	buf.WriteString("\n  subgraph cluster_legend {\n")
	buf.WriteString("    label=\"Legend\";\n")
	buf.WriteString("    style=dashed;\n")
	buf.WriteString("    legend_module [label=\"Module (included/total)\", fillcolor=\"white\", style=\"rounded,filled\"];\n")
	buf.WriteString("    legend_external [label=\"External\", fillcolor=\"gainsboro\", style=\"rounded,filled\"];\n")
	buf.WriteString("    legend_cycle [label=\"Circular Import\", fillcolor=\"mistyrose\", color=\"red\", style=\"rounded,filled\"];\n")
	buf.WriteString("  }\n")

	buf.WriteString("}\n")

	return buf.String(), nil
}
