// # internal/core/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shaker.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1
entry = " src/main.js "

[resolve]
extensions = ["js", ".ts"]
index_files = ["index", "main"]
externals = ["react", "@scope/*"]
lenient_externals = true

[analysis]
star_conflict = "Error"
include_entry_exports = false

[loader]
workers = 2
max_reads_per_second = 50

[output]
dot = "graph.dot"
tsv = "included.tsv"

[history]
enabled = true
busy_timeout = "2s"

[tracing]
endpoint = "localhost:4317"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Entry != "src/main.js" {
		t.Errorf("Expected entry src/main.js, got %q", cfg.Entry)
	}
	if got := strings.Join(cfg.Resolve.Extensions, ","); got != ".js,.ts" {
		t.Errorf("Unexpected extensions: %s", got)
	}
	if len(cfg.Resolve.IndexFiles) != 2 {
		t.Errorf("Unexpected index files: %v", cfg.Resolve.IndexFiles)
	}
	if len(cfg.Resolve.Externals) != 2 || !cfg.Resolve.LenientExternals {
		t.Errorf("Unexpected externals: %v lenient=%v", cfg.Resolve.Externals, cfg.Resolve.LenientExternals)
	}
	if cfg.Analysis.StarConflict != "error" {
		t.Errorf("Expected star_conflict error, got %q", cfg.Analysis.StarConflict)
	}
	if cfg.Analysis.EntryExports() {
		t.Error("Expected include_entry_exports to be false")
	}
	if cfg.Loader.Workers != 2 || cfg.Loader.MaxReadsPerSecond != 50 {
		t.Errorf("Unexpected loader: %+v", cfg.Loader)
	}
	if cfg.Output.DOT != "graph.dot" || cfg.Output.TSV != "included.tsv" {
		t.Errorf("Unexpected output: %+v", cfg.Output)
	}
	if !cfg.History.Enabled || cfg.History.Path != "data/shaker-history.db" {
		t.Errorf("Unexpected history: %+v", cfg.History)
	}
	if cfg.History.BusyTimeout != 2*time.Second {
		t.Errorf("Expected busy timeout 2s, got %v", cfg.History.BusyTimeout)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || cfg.Tracing.ServiceName != "shaker" {
		t.Errorf("Unexpected tracing: %+v", cfg.Tracing)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Version != 1 {
		t.Errorf("Expected version 1, got %d", cfg.Version)
	}
	if len(cfg.Resolve.Extensions) != len(defaultExtensions) {
		t.Errorf("Unexpected extensions: %v", cfg.Resolve.Extensions)
	}
	if cfg.Analysis.StarConflict != "first" {
		t.Errorf("Expected star_conflict first, got %q", cfg.Analysis.StarConflict)
	}
	if !cfg.Analysis.EntryExports() {
		t.Error("Expected entry exports to be included by default")
	}
	if cfg.Loader.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Loader.Workers)
	}
	if cfg.History.Enabled {
		t.Error("History should be disabled by default")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}

	// defaults must not share backing arrays
	cfg.Resolve.Extensions[0] = ".changed"
	if DefaultConfig().Resolve.Extensions[0] != ".js" {
		t.Error("DefaultConfig leaked a shared slice")
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"version", "version = 3\n", "unsupported config version"},
		{"star conflict", "[analysis]\nstar_conflict = \"last\"\n", "analysis.star_conflict"},
		{"workers", "[loader]\nworkers = -1\n", "loader.workers"},
		{"rate", "[loader]\nmax_reads_per_second = -2\n", "max_reads_per_second"},
		{"relative external", "[resolve]\nexternals = [\"./local\"]\n", "only bare specifiers"},
		{"bad glob", "[resolve]\nexternals = [\"[abc\"]\n", "resolve.externals[0]"},
		{"duplicate extension", "[resolve]\nextensions = [\".js\", \"js\"]\n", "duplicate resolve extension"},
		{"index path", "[resolve]\nindex_files = [\"lib/index\"]\n", "bare file name"},
		{"same output", "[output]\ndot = \"out\"\ntsv = \"out\"\n", "output.dot and output.tsv"},
		{"unknown key", "[loader]\nthreads = 3\n", "unknown config key"},
		{"syntax", "entry = \n", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.want != "" && !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SHAKER_ENTRY", "app.ts")
	t.Setenv("SHAKER_LOADER_WORKERS", "8")
	t.Setenv("SHAKER_RESOLVE_EXTERNALS", "react, lodash ,")
	t.Setenv("SHAKER_HISTORY_ENABLED", "TRUE")
	t.Setenv("SHAKER_ANALYSIS_STAR_CONFLICT", "error")

	cfg, err := Load(writeConfig(t, "entry = \"main.js\"\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Entry != "app.ts" {
		t.Errorf("Expected entry app.ts, got %q", cfg.Entry)
	}
	if cfg.Loader.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", cfg.Loader.Workers)
	}
	if strings.Join(cfg.Resolve.Externals, "|") != "react|lodash" {
		t.Errorf("Unexpected externals: %v", cfg.Resolve.Externals)
	}
	if !cfg.History.Enabled {
		t.Error("Expected history enabled from env")
	}
	if cfg.Analysis.StarConflict != "error" {
		t.Errorf("Expected star_conflict error, got %q", cfg.Analysis.StarConflict)
	}
}
