package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shaker/internal/core/config"
	"shaker/internal/core/errors"
	"shaker/internal/engine/module"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for rel, src := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return root
}

func newTestApp(t *testing.T, root string, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Entry = filepath.Join(root, "main.js")
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(root, "out", "history.db")
	cfg.Resolve.Externals = []string{"react"}
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

var project = map[string]string{
	"main.js":       "import { render } from './lib/view'\nimport React from 'react'\nrender(React)\n",
	"lib/view.js":   "import { helper } from './util'\nexport function render(x) { return helper(x) }\nexport const unused = 1\n",
	"lib/util.js":   "import { render } from './view'\nexport function helper(x) { return x }\nexport function other() { return render }\n",
	"lib/unused.js": "export const never = 1\n",
}

func TestApp_Build(t *testing.T) {
	root := writeProject(t, project)
	a := newTestApp(t, root, nil)

	report, err := a.Build(context.Background(), "")
	require.NoError(t, err)
	defer report.Close()

	var names []string
	for _, mr := range report.Result.Order {
		names = append(names, filepath.Base(mr.Module.ID))
	}
	assert.Equal(t, []string{"view.js", "util.js", "main.js"}, names)
	assert.Equal(t, 3, report.Graph.Len())
	require.Len(t, report.Cycles, 1)
	assert.Len(t, report.Cycles[0], 2)

	kinds := map[string]int{}
	for _, w := range report.Warnings {
		kinds[w.Kind]++
	}
	assert.Equal(t, 1, kinds[module.WarnImportCycle])
	assert.Equal(t, 1, kinds[module.WarnExternalImport])

	builds, err := a.History(5)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, report.Session, builds[0].Session)
	assert.Equal(t, 3, builds[0].Modules)
	assert.Equal(t, 1, builds[0].Cycles)
	assert.Equal(t, report.Result.Included, builds[0].Included)
	assert.Equal(t, report.Result.Total, builds[0].Statements)
}

func TestApp_BuildExplicitEntryOverridesConfig(t *testing.T) {
	root := writeProject(t, map[string]string{
		"main.js":  "import './other'\n",
		"other.js": "console.log('other')\n",
	})
	a := newTestApp(t, root, func(cfg *config.Config) { cfg.Entry = "" })

	report, err := a.Build(context.Background(), filepath.Join(root, "other.js"))
	require.NoError(t, err)
	defer report.Close()
	assert.Equal(t, 1, report.Graph.Len())
	assert.Equal(t, filepath.Join(root, "other.js"), report.Entry)
}

func TestApp_BuildWithoutEntry(t *testing.T) {
	root := writeProject(t, map[string]string{"main.js": ""})
	a := newTestApp(t, root, func(cfg *config.Config) { cfg.Entry = "" })

	_, err := a.Build(context.Background(), " ")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestApp_BuildFailures(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		code  errors.ErrorCode
	}{
		{
			name:  "missing module",
			files: map[string]string{"main.js": "import { a } from './missing'\n"},
			code:  errors.CodeUnresolvedImport,
		},
		{
			name: "missing export",
			files: map[string]string{
				"main.js": "import { nope } from './dep'\nnope()\n",
				"dep.js":  "export const yes = 1\n",
			},
			code: errors.CodeUnresolvedImport,
		},
		{
			name: "circular re-export",
			files: map[string]string{
				"main.js": "import { x } from './a'\nx\n",
				"a.js":    "export { x } from './b'\n",
				"b.js":    "export { x } from './a'\n",
			},
			code: errors.CodeCircularExport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeProject(t, tt.files)
			a := newTestApp(t, root, nil)

			report, err := a.Build(context.Background(), "")
			require.Error(t, err)
			assert.Nil(t, report)
			assert.Equal(t, tt.code, errors.CodeOf(err))

			builds, err := a.History(5)
			require.NoError(t, err)
			assert.Empty(t, builds)
		})
	}
}

func TestApp_Why(t *testing.T) {
	root := writeProject(t, project)
	a := newTestApp(t, root, nil)

	report, err := a.Build(context.Background(), "")
	require.NoError(t, err)
	defer report.Close()

	chain, err := a.Why(report, filepath.Join(root, "lib", "util.js"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "main.js"),
		filepath.Join(root, "lib", "view.js"),
		filepath.Join(root, "lib", "util.js"),
	}, chain)

	_, err = a.Why(report, filepath.Join(root, "lib", "unused.js"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestApp_HistoryDisabled(t *testing.T) {
	root := writeProject(t, map[string]string{"main.js": ""})
	a := newTestApp(t, root, func(cfg *config.Config) { cfg.History.Enabled = false })

	_, err := a.History(1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
	assert.NoError(t, a.Close())
}

func TestApp_WriteOutputs(t *testing.T) {
	root := writeProject(t, project)
	out := filepath.Join(root, "out")
	a := newTestApp(t, root, func(cfg *config.Config) {
		cfg.Output.DOT = filepath.Join(out, "graph.dot")
		cfg.Output.TSV = filepath.Join(out, "statements.tsv")
		cfg.Output.Mermaid = filepath.Join(out, "graph.mmd")
		cfg.Output.MetricsTextfile = filepath.Join(out, "metrics", "shaker.prom")
	})

	report, err := a.Build(context.Background(), "")
	require.NoError(t, err)
	defer report.Close()
	require.NoError(t, a.WriteOutputs(report))

	read := func(name string) string {
		data, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err)
		return string(data)
	}
	assert.True(t, strings.HasPrefix(read("graph.dot"), "digraph modules"))
	assert.Contains(t, read("statements.tsv"), "Module\tIndex\tKind")
	assert.Contains(t, read("statements.edges.tsv"), "From\tTo\tSpecifier")
	assert.Contains(t, read("graph.mmd"), "flowchart")
	assert.Contains(t, read(filepath.Join("metrics", "shaker.prom")), "shaker_modules_loaded_total")
}

func TestEdgesPathFor(t *testing.T) {
	assert.Equal(t, "out/s.edges.tsv", edgesPathFor("out/s.tsv"))
	assert.Equal(t, "report.edges", edgesPathFor("report"))
}
