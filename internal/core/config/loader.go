package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

var (
	defaultExtensions = []string{".js", ".mjs", ".jsx", ".ts", ".tsx"}
	defaultIndexFiles = []string{"index"}
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	ApplyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.Resolve.Extensions) == 0 {
		cfg.Resolve.Extensions = append([]string(nil), defaultExtensions...)
	}
	if len(cfg.Resolve.IndexFiles) == 0 {
		cfg.Resolve.IndexFiles = append([]string(nil), defaultIndexFiles...)
	}
	if strings.TrimSpace(cfg.Analysis.StarConflict) == "" {
		cfg.Analysis.StarConflict = "first"
	}
	if cfg.Analysis.IncludeEntryExports == nil {
		enabled := true
		cfg.Analysis.IncludeEntryExports = &enabled
	}
	if cfg.Loader.Workers == 0 {
		cfg.Loader.Workers = 4
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "data/shaker-history.db"
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}
	if strings.TrimSpace(cfg.Tracing.ServiceName) == "" {
		cfg.Tracing.ServiceName = "shaker"
	}
}

func normalize(cfg *Config) {
	cfg.Entry = strings.TrimSpace(cfg.Entry)
	cfg.Analysis.StarConflict = strings.ToLower(strings.TrimSpace(cfg.Analysis.StarConflict))
	for i, ext := range cfg.Resolve.Extensions {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Resolve.Extensions[i] = ext
	}
	for i, p := range cfg.Resolve.Externals {
		cfg.Resolve.Externals[i] = strings.TrimSpace(p)
	}
	cfg.Output.DOT = strings.TrimSpace(cfg.Output.DOT)
	cfg.Output.TSV = strings.TrimSpace(cfg.Output.TSV)
	cfg.Output.Mermaid = strings.TrimSpace(cfg.Output.Mermaid)
	cfg.Output.MetricsTextfile = strings.TrimSpace(cfg.Output.MetricsTextfile)
	cfg.Tracing.Endpoint = strings.TrimSpace(cfg.Tracing.Endpoint)
}

// Validate checks a config that already has its defaults applied.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateResolve(cfg); err != nil {
		return err
	}
	if err := validateAnalysis(cfg); err != nil {
		return err
	}
	if err := validateLoader(cfg); err != nil {
		return err
	}
	return validateOutput(cfg)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateResolve(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Resolve.Extensions))
	for i, ext := range cfg.Resolve.Extensions {
		if ext == "" {
			return fmt.Errorf("resolve.extensions[%d] must not be empty", i)
		}
		if seen[ext] {
			return fmt.Errorf("duplicate resolve extension %q", ext)
		}
		seen[ext] = true
	}
	for i, name := range cfg.Resolve.IndexFiles {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("resolve.index_files[%d] must be a bare file name, got %q", i, name)
		}
	}
	for i, pattern := range cfg.Resolve.Externals {
		if pattern == "" {
			return fmt.Errorf("resolve.externals[%d] must not be empty", i)
		}
		if strings.HasPrefix(pattern, ".") || strings.HasPrefix(pattern, "/") {
			return fmt.Errorf("resolve.externals[%d] %q: only bare specifiers can be external", i, pattern)
		}
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("resolve.externals[%d] %q: %w", i, pattern, err)
		}
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	switch cfg.Analysis.StarConflict {
	case "first", "error":
		return nil
	default:
		return fmt.Errorf("analysis.star_conflict must be one of: first, error")
	}
}

func validateLoader(cfg *Config) error {
	if cfg.Loader.Workers < 1 {
		return fmt.Errorf("loader.workers must be >= 1, got %d", cfg.Loader.Workers)
	}
	if cfg.Loader.MaxReadsPerSecond < 0 {
		return fmt.Errorf("loader.max_reads_per_second must be >= 0")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	outputs := make(map[string]string)
	for key, path := range map[string]string{
		"output.dot":              cfg.Output.DOT,
		"output.tsv":              cfg.Output.TSV,
		"output.mermaid":          cfg.Output.Mermaid,
		"output.metrics_textfile": cfg.Output.MetricsTextfile,
	} {
		if path == "" {
			continue
		}
		if other, ok := outputs[path]; ok {
			first, second := other, key
			if second < first {
				first, second = second, first
			}
			return fmt.Errorf("%s and %s write the same file %q", first, second, path)
		}
		outputs[path] = key
	}
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty")
	}
	return nil
}
