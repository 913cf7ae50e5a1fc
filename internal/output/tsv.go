// # internal/output/tsv.go
package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"shaker/internal/engine/graph"
	"shaker/internal/engine/treeshake"
)

type TSVGenerator struct {
	graph  *graph.Graph
	result *treeshake.Result
	base   string
}

func NewTSVGenerator(g *graph.Graph, res *treeshake.Result) *TSVGenerator {
	return &TSVGenerator{graph: g, result: res, base: filepath.Dir(g.Entry)}
}

// Generate lists the included statements in emission order.
func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("Module\tIndex\tKind\tStartLine\tEndLine\tDefines\n")
	if t.result == nil {
		return buf.String(), nil
	}
	for _, mr := range t.result.Order {
		name := displayName(t.base, mr.Module.ID)
		for _, st := range mr.Statements {
			buf.WriteString(fmt.Sprintf("%s\t%d\t%s\t%d\t%d\t%s\n",
				name, st.Index, st.Kind, st.Location.Line, st.Location.EndLine, strings.Join(st.Defines, ",")))
		}
	}

	return buf.String(), nil
}

// GenerateEdges lists every resolved import edge.
func (t *TSVGenerator) GenerateEdges() (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tSpecifier\tLine\tColumn\n")
	for _, e := range t.graph.Edges {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%d\t%d\n",
			displayName(t.base, e.From), displayName(t.base, e.To), e.Specifier, e.Location.Line, e.Location.Column))
	}

	return buf.String(), nil
}
