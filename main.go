// Package main provides the b24bot CLI entry point.
// b24bot bridges conversational bot platforms to a Bitrix24-style task
// backend: natural-language task and project management over per-user
// webhooks.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskbotics/b24bot/cmd"
	"github.com/taskbotics/b24bot/config"
	"github.com/taskbotics/b24bot/pkg/buildinfo"
	"github.com/taskbotics/b24bot/pkg/logging"
)

// Global flags and state.
var (
	sheetURL     string
	timeout      time.Duration
	outputFormat string
	debug        bool

	// cfg holds the loaded configuration.
	cfg *config.CLIConfig
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "b24bot",
	Short: "Bitrix24 task bot - natural-language task management",
	Long: `b24bot is the operation layer of a conversational task bot.

It acts on Bitrix24-style portals through per-user inbound webhooks:
creating, updating, deleting and listing tasks, and creating projects.
Tasks and people are referred to in natural language; titles are matched
by shared words, deadlines accept phrases like "завтра" or "через 3 дня".

Webhooks are resolved through a credential directory: a published
name,webhook sheet, optionally fronted by a local encrypted store.

DESIGNED FOR BOT PLATFORMS:
  'b24bot serve' exposes the same operations as HTTP functions taking the
  platform's flat JSON argument map and answering the in-band result
  object. The CLI subcommands print the identical objects with
  --output json.

COMMON WORKFLOWS:
  Create a task:   b24bot task add --user "Анна" --title "Позвонить клиенту" --deadline завтра
  See open work:   b24bot task list --user "Анна" --deadline сегодня
  New project:     b24bot project create --user "Анна" --name "Запуск Q4"
  Store a webhook: b24bot webhook save --name "Анна"
  Run the server:  b24bot serve

DISCOVERY:
  b24bot <command> --help     Subcommands, flags, and examples
  b24bot config show          Effective configuration
  b24bot version              Build information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for commands that don't need it.
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		// Load configuration.
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		// Override with command-line flags.
		if sheetURL != "" {
			cfg.SheetURL = sheetURL
		}
		if timeout != 0 {
			cfg.Timeout = timeout
		}
		if outputFormat != "" {
			cfg.OutputFormat = config.OutputFormat(outputFormat)
		}
		if debug {
			cfg.Debug = true
		}

		level := logging.LevelInfo
		if cfg.Debug {
			level = logging.LevelDebug
		}
		logging.SetGlobal(logging.NewLogger(&logging.Config{
			Level:       level,
			ServiceName: "b24bot",
			Environment: "development",
		}))

		return nil
	},
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit hash, and build time of b24bot.

Examples:
  b24bot version`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildinfo.Get("b24bot")
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "b24bot version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go:         %s\n", info.GoVersion)
		return nil
	},
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(&sheetURL, "sheet-url", "", "Webhook directory sheet URL (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Portal request timeout (overrides config)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output-format", "", "Default output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// Add command groups for organized help output.
	rootCmd.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Tasks & Projects:"},
		&cobra.Group{ID: "ops", Title: "Operations:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	// Tasks & Projects
	taskCmd := cmd.NewTaskCommand(nil)
	taskCmd.GroupID = "tasks"
	rootCmd.AddCommand(taskCmd)

	projectCmd := cmd.NewProjectCommand(nil)
	projectCmd.GroupID = "tasks"
	rootCmd.AddCommand(projectCmd)

	// Operations
	serveCmd := cmd.NewServeCommand(nil)
	serveCmd.GroupID = "ops"
	rootCmd.AddCommand(serveCmd)

	// Setup
	webhookCmd := cmd.NewWebhookCommand(nil)
	webhookCmd.GroupID = "setup"
	rootCmd.AddCommand(webhookCmd)

	configCmd := cmd.NewConfigCommand(nil)
	configCmd.GroupID = "setup"
	rootCmd.AddCommand(configCmd)

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
