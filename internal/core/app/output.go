package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shaker/internal/output"
	"shaker/internal/shared/observability"
	"shaker/internal/shared/util"
)

// WriteOutputs renders every configured report file for r. The TSV statement
// table gets a sibling "<name>.edges<ext>" file listing import edges.
func (a *App) WriteOutputs(r *Report) error {
	out := a.Config.Output

	if out.DOT != "" {
		dot, err := output.NewDOTGenerator(r.Graph, r.Result).Generate(r.Cycles)
		if err != nil {
			return err
		}
		if err := util.WriteStringWithDirs(out.DOT, dot, 0o644); err != nil {
			return fmt.Errorf("write dot output: %w", err)
		}
		slog.Info("wrote DOT graph", "path", out.DOT)
	}

	if out.TSV != "" {
		gen := output.NewTSVGenerator(r.Graph, r.Result)
		stmts, err := gen.Generate()
		if err != nil {
			return err
		}
		if err := util.WriteStringWithDirs(out.TSV, stmts, 0o644); err != nil {
			return fmt.Errorf("write tsv output: %w", err)
		}
		edges, err := gen.GenerateEdges()
		if err != nil {
			return err
		}
		edgesPath := edgesPathFor(out.TSV)
		if err := util.WriteStringWithDirs(edgesPath, edges, 0o644); err != nil {
			return fmt.Errorf("write tsv edges output: %w", err)
		}
		slog.Info("wrote TSV tables", "statements", out.TSV, "edges", edgesPath)
	}

	if out.Mermaid != "" {
		mmd, err := output.NewMermaidGenerator(r.Graph, r.Result).Generate(r.Cycles)
		if err != nil {
			return err
		}
		if err := util.WriteStringWithDirs(out.Mermaid, mmd, 0o644); err != nil {
			return fmt.Errorf("write mermaid output: %w", err)
		}
		slog.Info("wrote Mermaid graph", "path", out.Mermaid)
	}

	if out.MetricsTextfile != "" {
		if dir := filepath.Dir(out.MetricsTextfile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create metrics directory: %w", err)
			}
		}
		if err := observability.WriteTextfile(out.MetricsTextfile); err != nil {
			return fmt.Errorf("write metrics textfile: %w", err)
		}
		slog.Info("wrote metrics", "path", out.MetricsTextfile)
	}
	return nil
}

func edgesPathFor(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".edges" + ext
}
