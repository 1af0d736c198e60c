package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/taskbotics/b24bot/config"
)

// ConfigCommandDeps holds the dependencies for config commands.
type ConfigCommandDeps struct {
	LoadConfig func() (*config.CLIConfig, error)
	SaveConfig func(*config.CLIConfig) error
}

// DefaultConfigDeps returns the default dependencies for production use.
func DefaultConfigDeps() *ConfigCommandDeps {
	return &ConfigCommandDeps{
		LoadConfig: config.LoadConfig,
		SaveConfig: config.SaveConfig,
	}
}

// NewConfigCommand creates the root config command with all subcommands.
func NewConfigCommand(deps *ConfigCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultConfigDeps()
	}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit b24bot configuration",
		Long: `Manage the configuration file at ~/.b24bot/config.yaml.

Values come from defaults, then the file, then B24BOT_* environment
variables. $B24BOT_CONFIG_DIR relocates the whole directory.`,
		Example: `  # Effective configuration after env overlay
  b24bot config show

  # Write a config file with defaults
  b24bot config init

  # Point the directory at your published sheet
  b24bot config set sheet_url "https://docs.google.com/spreadsheets/d/e/…/pub?output=csv"`,
	}

	// Add subcommands
	cmd.AddCommand(newConfigShowCommand(deps))
	cmd.AddCommand(newConfigInitCommand(deps))
	cmd.AddCommand(newConfigSetCommand(deps))

	return cmd
}

// newConfigShowCommand creates the 'config show' subcommand.
func newConfigShowCommand(deps *ConfigCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			view := map[string]any{
				"sheet_url":              cfg.SheetURL,
				"timeout":                cfg.Timeout.String(),
				"lookup_timeout":         cfg.LookupTimeout.String(),
				"output_format":          cfg.OutputFormat.String(),
				"listen_addr":            cfg.ListenAddr,
				"default_responsible_id": cfg.DefaultResponsibleID,
				"local_store":            cfg.LocalStore,
				"debug":                  cfg.Debug,
			}
			if cfg.Redis.Enabled() {
				view["redis"] = map[string]any{
					"addr": cfg.Redis.Addr,
					"db":   cfg.Redis.DB,
					"ttl":  cfg.Redis.TTL.String(),
				}
			}
			path, _ := config.ConfigPath()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", path)
			return yaml.NewEncoder(out).Encode(view)
		},
	}
}

// newConfigInitCommand creates the 'config init' subcommand.
func newConfigInitCommand(deps *ConfigCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.SaveConfig(config.DefaultConfig()); err != nil {
				return fmt.Errorf("writing configuration: %w", err)
			}
			path, _ := config.ConfigPath()
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}

// newConfigSetCommand creates the 'config set' subcommand.
func newConfigSetCommand(deps *ConfigCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value and save the file",
		Long: `Set a configuration key and write the file back.

Supported keys: sheet_url, timeout, lookup_timeout, output_format,
listen_addr, default_responsible_id, local_store, debug.

Examples:
  b24bot config set output_format json
  b24bot config set timeout 30s
  b24bot config set local_store true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := deps.SaveConfig(cfg); err != nil {
				return fmt.Errorf("writing configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

// setConfigValue applies one key=value pair to the configuration.
func setConfigValue(cfg *config.CLIConfig, key, value string) error {
	switch key {
	case "sheet_url":
		cfg.SheetURL = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		cfg.Timeout = d
	case "lookup_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parsing lookup_timeout: %w", err)
		}
		cfg.LookupTimeout = d
	case "output_format":
		cfg.OutputFormat = config.OutputFormat(value)
	case "listen_addr":
		cfg.ListenAddr = value
	case "default_responsible_id":
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing default_responsible_id: %w", err)
		}
		cfg.DefaultResponsibleID = id
	case "local_store":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parsing local_store: %w", err)
		}
		cfg.LocalStore = b
	case "debug":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parsing debug: %w", err)
		}
		cfg.Debug = b
	default:
		return fmt.Errorf("unknown configuration key %q", key)
	}
	return nil
}
