package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: SHAKER_[SECTION]_[KEY] (e.g., SHAKER_LOADER_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Entry, "SHAKER_ENTRY")

	setEnvBool(&cfg.Resolve.LenientExternals, "SHAKER_RESOLVE_LENIENT_EXTERNALS")
	setEnvList(&cfg.Resolve.Externals, "SHAKER_RESOLVE_EXTERNALS")

	setEnvString(&cfg.Analysis.StarConflict, "SHAKER_ANALYSIS_STAR_CONFLICT")

	setEnvInt(&cfg.Loader.Workers, "SHAKER_LOADER_WORKERS")

	setEnvBool(&cfg.History.Enabled, "SHAKER_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "SHAKER_HISTORY_PATH")

	setEnvString(&cfg.Tracing.Endpoint, "SHAKER_TRACING_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

// setEnvList reads a comma separated list.
func setEnvList(target *[]string, key string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	slog.Debug("applying env override", "key", key, "value", val)
	*target = out
}
