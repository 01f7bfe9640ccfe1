package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/staffbot/internal/config"
)

// ConfigCheckResult holds the result of configuration validation
type ConfigCheckResult struct {
	Missing  []string          // Required keys that are missing
	Present  map[string]string // Keys that are set (masked values)
	Warnings []string          // Non-fatal warnings
	Backend  string            // Store backend selected by store.uri
}

// CheckConfig reports which required keys of cfg are set
func CheckConfig(cfg *config.Config) *ConfigCheckResult {
	result := &ConfigCheckResult{
		Missing:  []string{},
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	required := map[string]string{
		"discord.token": cfg.Discord.Token,
		"store.uri":     cfg.Store.URI,
	}
	for key, val := range required {
		if val == "" {
			result.Missing = append(result.Missing, key)
		} else {
			result.Present[key] = maskSecret(val)
		}
	}
	sort.Strings(result.Missing)

	result.Present["discord.prefix"] = cfg.Discord.Prefix
	result.Present["log.level"] = cfg.Log.Level
	result.Present["log.format"] = cfg.Log.Format
	if cfg.Status.Addr != "" {
		result.Present["status.addr"] = cfg.Status.Addr
	} else {
		result.Warnings = append(result.Warnings, "status.addr is empty, the status server is disabled")
	}

	if cfg.Store.URI != "" {
		backend, err := config.Backend(cfg.Store.URI)
		if err != nil {
			result.Warnings = append(result.Warnings, err.Error())
		}
		result.Backend = backend
		switch backend {
		case config.BackendMemory:
			result.Warnings = append(result.Warnings, "memory store selected, boards are lost on restart")
		case config.BackendMongo:
			result.Present["store.database"] = cfg.Store.Database
		}
	}

	return result
}

// PrintConfigCheck prints the configuration check results
func PrintConfigCheck(w io.Writer, path string, result *ConfigCheckResult) {
	fmt.Fprintln(w, "=== Configuration Check ===")
	fmt.Fprintf(w, "File: %s\n", path)
	if result.Backend != "" {
		fmt.Fprintf(w, "Store: %s\n", result.Backend)
	}
	fmt.Fprintln(w, "")

	if len(result.Missing) > 0 {
		fmt.Fprintln(w, "❌ Missing required keys:")
		for _, v := range result.Missing {
			fmt.Fprintf(w, "   - %s (or %s)\n", v, config.EnvName(v))
		}
		fmt.Fprintln(w, "")
	}

	if len(result.Present) > 0 {
		keys := make([]string, 0, len(result.Present))
		for k := range result.Present {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(w, "✓ Configured keys:")
		for _, k := range keys {
			fmt.Fprintf(w, "   - %s = %s\n", k, result.Present[k])
		}
		fmt.Fprintln(w, "")
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "⚠ Warning: %s\n", warning)
	}

	if len(result.Missing) == 0 {
		fmt.Fprintln(w, "✓ All required configuration is present")
	}

	fmt.Fprintln(w, "============================")
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}
