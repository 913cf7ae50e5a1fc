// # internal/core/config/config.go
package config

import "time"

type Config struct {
	Version  int      `toml:"version"`
	Entry    string   `toml:"entry"`
	Resolve  Resolve  `toml:"resolve"`
	Analysis Analysis `toml:"analysis"`
	Loader   Loader   `toml:"loader"`
	Output   Output   `toml:"output"`
	History  History  `toml:"history"`
	Tracing  Tracing  `toml:"tracing"`
}

type Resolve struct {
	Extensions []string `toml:"extensions"`
	IndexFiles []string `toml:"index_files"`
	// Externals are glob patterns of bare specifiers left out of the bundle.
	Externals []string `toml:"externals"`
	// LenientExternals treats every bare specifier as external.
	LenientExternals bool `toml:"lenient_externals"`
}

type Analysis struct {
	StarConflict        string `toml:"star_conflict"`
	IncludeEntryExports *bool  `toml:"include_entry_exports"`
}

// EntryExports reports whether the entry's exports seed the mark phase.
func (a Analysis) EntryExports() bool {
	return a.IncludeEntryExports == nil || *a.IncludeEntryExports
}

type Loader struct {
	Workers           int     `toml:"workers"`
	MaxReadsPerSecond float64 `toml:"max_reads_per_second"`
}

type Output struct {
	DOT             string `toml:"dot"`
	TSV             string `toml:"tsv"`
	Mermaid         string `toml:"mermaid"`
	MetricsTextfile string `toml:"metrics_textfile"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Tracing struct {
	Endpoint    string `toml:"endpoint"`
	ServiceName string `toml:"service_name"`
	Insecure    bool   `toml:"insecure"`
}

// DefaultConfig is used when no config file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
