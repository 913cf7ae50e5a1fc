package output

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"shaker/internal/engine/graph"
	"shaker/internal/engine/treeshake"
)

type MermaidGenerator struct {
	graph  *graph.Graph
	result *treeshake.Result
	base   string
}

func NewMermaidGenerator(g *graph.Graph, res *treeshake.Result) *MermaidGenerator {
	return &MermaidGenerator{graph: g, result: res, base: filepath.Dir(g.Entry)}
}

// Generate draws the module graph as a flowchart. Modules that contribute
// no statement to the bundle are dimmed.
func (m *MermaidGenerator) Generate(cycles [][]string) (string, error) {
	var b strings.Builder
	b.WriteString("%%{init: {'flowchart': {'nodeSpacing': 80, 'rankSpacing': 110, 'curve': 'basis'}}}%%\n")
	b.WriteString("flowchart LR\n")

	names := make([]string, 0, len(m.graph.Order))
	for _, id := range m.graph.Order {
		names = append(names, displayName(m.base, id))
	}
	ids := makeMermaidIDs(names)
	idOf := func(id string) string { return ids[displayName(m.base, id)] }

	counts := statementCounts(m.result)
	inCycle := cycleModuleSet(cycles)
	cycleEdges := cycleEdgeSet(cycles)

	var cycleNodes, emptyNodes []string
	for _, id := range m.graph.Order {
		label := displayName(m.base, id)
		if c, ok := counts[id]; ok {
			label = fmt.Sprintf("%s\\n%d/%d stmts", label, c[0], c[1])
			if c[0] == 0 {
				emptyNodes = append(emptyNodes, idOf(id))
			}
		}
		b.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", idOf(id), escapeMermaidLabel(label)))
		if inCycle[id] {
			cycleNodes = append(cycleNodes, idOf(id))
		}
	}

	b.WriteString("\n")
	linkIndex := 0
	var cycleLinks []string
	for _, from := range m.graph.Order {
		for _, to := range m.graph.Dependencies(from) {
			edgeLabel := ""
			if cycleEdges[from][to] {
				edgeLabel = "|CYCLE|"
				cycleLinks = append(cycleLinks, fmt.Sprint(linkIndex))
			}
			b.WriteString(fmt.Sprintf("  %s -->%s %s\n", idOf(from), edgeLabel, idOf(to)))
			linkIndex++
		}
	}

	if len(cycleNodes) > 0 {
		b.WriteString("  classDef cycleNode fill:#ffe4e1,stroke:#cc0000,stroke-width:2px;\n")
		b.WriteString("  class " + strings.Join(cycleNodes, ",") + " cycleNode;\n")
	}
	if len(emptyNodes) > 0 {
		b.WriteString("  classDef shakenNode fill:#eeeeee,stroke:#999999,color:#777777;\n")
		b.WriteString("  class " + strings.Join(emptyNodes, ",") + " shakenNode;\n")
	}
	if len(cycleLinks) > 0 {
		b.WriteString(fmt.Sprintf("  linkStyle %s stroke:#cc0000,stroke-width:3px;\n", strings.Join(cycleLinks, ",")))
	}

	return b.String(), nil
}

func sanitizeMermaidID(name string) string {
	if name == "" {
		return "m"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "m_" + out
	}
	return out
}

func makeMermaidIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeMermaidID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
