package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vea-app/vea/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage VEA configuration",
	Long: `Inspect and edit the VEA config file (default ~/.vea/config.json).

Keys you will most often touch:
  llm.api_key       OpenAI-compatible API key (or set OPENAI_API_KEY)
  llm.model         chat model, e.g. gpt-4o-mini
  llm.native_tools  true to use structured tool calling, false for the
                    textual function-call fallback
  media.api_key     media provider key; unset disables image/video generation
  database_url      Postgres DSN; unset runs memory-only
  auth.secret       JWT signing secret the dashboard tokens are verified with

The serve command reads the file once at startup; restart it after changes.`,
}

// enumKeys constrains the config keys whose values come from a fixed set;
// everything else is free-form.
var enumKeys = map[string][]string{
	"log_level":    {"debug", "info", "warn", "error"},
	"llm.provider": {"openai"},
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all configuration values",
	Example: "  vea config list",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		values, err := config.ListValues(cfg, true)
		if err != nil {
			return fmt.Errorf("list config: %w", err)
		}

		// Sort keys for stable output
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fmt.Fprintf(os.Stdout, "%s = %v\n", k, values[k])
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:     "get <key>",
	Short:   "Get a configuration value",
	Example: "  vea config get llm.model",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		val, err := config.GetValue(cfgPath, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, val)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Example: `  vea config set llm.model gpt-4o
  vea config set media.api_key sk-media-...
  vea config set log_level debug`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if allowed, ok := enumKeys[key]; ok && !contains(allowed, value) {
			return fmt.Errorf("invalid value %q for %s (one of: %s)", value, key, strings.Join(allowed, " | "))
		}
		if err := config.SetValue(cfgPath, key, value); err != nil {
			return err
		}
		display := value
		if config.IsSecretKey(key) {
			display = "***"
		}
		fmt.Fprintf(os.Stdout, "Set %s = %s\n", key, display)
		fmt.Fprintln(os.Stdout, "Restart `vea serve` for the change to take effect.")
		return nil
	},
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
