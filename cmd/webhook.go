package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taskbotics/b24bot/config"
	"github.com/taskbotics/b24bot/credentials"
	"github.com/taskbotics/b24bot/pkg/logging"
)

// Webhook command flags
var (
	webhookName  string
	webhookValue string
)

// WebhookCommandDeps holds the dependencies for webhook commands.
type WebhookCommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)
	NewStore   func() (*credentials.Store, error)

	// Mock function overrides for testing
	LookupFn func(ctx context.Context, cfg *config.CLIConfig, name string) (string, error)
	PromptFn func() (string, error)
}

// DefaultWebhookDeps returns the default dependencies for production use.
func DefaultWebhookDeps() *WebhookCommandDeps {
	return &WebhookCommandDeps{
		LoadConfig: config.LoadConfig,
		NewStore:   credentials.NewStore,
	}
}

// NewWebhookCommand creates the root webhook command with all subcommands.
func NewWebhookCommand(deps *WebhookCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultWebhookDeps()
	}

	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the webhook credential directory",
		Long: `Inspect and manage the webhooks the bot acts through.

Every operation runs against the portal behind one user's inbound webhook
URL. Webhooks are looked up by user name in the published sheet, or in the
local encrypted store when local_store is enabled. The store lives in
~/.b24bot, values encrypted with a key held in the system keyring.

A webhook URL embeds a secret; treat it like a password. show and lookup
print it masked.`,
		Example: `  # Where does "Анна" resolve to?
  b24bot webhook lookup "Анна"

  # Save a webhook locally (URL prompted without echo)
  b24bot webhook save --name "Анна"

  # List locally stored webhooks, masked
  b24bot webhook show

  # Remove one
  b24bot webhook delete --name "Анна"`,
	}

	// Add subcommands
	cmd.AddCommand(newWebhookLookupCommand(deps))
	cmd.AddCommand(newWebhookSaveCommand(deps))
	cmd.AddCommand(newWebhookShowCommand(deps))
	cmd.AddCommand(newWebhookDeleteCommand(deps))

	return cmd
}

// newWebhookLookupCommand creates the 'webhook lookup' subcommand.
func newWebhookLookupCommand(deps *WebhookCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <name>",
		Short: "Resolve a user name through the credential directory",
		Long: `Resolve a user name to their webhook the same way the operations do:
local store first when enabled, then the published sheet. Prints the
masked webhook on success.

Examples:
  b24bot webhook lookup "Анна"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWebhookLookup(cmd, deps, args[0])
		},
	}

	return cmd
}

// newWebhookSaveCommand creates the 'webhook save' subcommand.
func newWebhookSaveCommand(deps *WebhookCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Store a webhook in the local encrypted store",
		Long: `Save a user's webhook URL into the local encrypted store.

The URL is prompted interactively without echo so it never lands in shell
history. Use --webhook to pass it non-interactively, for scripts.

Examples:
  # Interactive (recommended)
  b24bot webhook save --name "Анна"

  # Non-interactive
  b24bot webhook save --name "Анна" --webhook https://portal.example/rest/1/secret/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWebhookSave(cmd, deps)
		},
	}

	cmd.Flags().StringVarP(&webhookName, "name", "n", "", "User name the webhook belongs to (required)")
	cmd.Flags().StringVar(&webhookValue, "webhook", "", "Webhook URL; prompted without echo when omitted")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// newWebhookShowCommand creates the 'webhook show' subcommand.
func newWebhookShowCommand(deps *WebhookCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "List locally stored webhooks, masked",
		Long: `List the names in the local encrypted store with their webhooks
masked. The full URL is never printed.

Examples:
  b24bot webhook show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWebhookShow(cmd, deps)
		},
	}

	return cmd
}

// newWebhookDeleteCommand creates the 'webhook delete' subcommand.
func newWebhookDeleteCommand(deps *WebhookCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a webhook from the local store",
		Long: `Remove one user's webhook from the local encrypted store.

Examples:
  b24bot webhook delete --name "Анна"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWebhookDelete(cmd, deps)
		},
	}

	cmd.Flags().StringVarP(&webhookName, "name", "n", "", "User name to remove (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runWebhookLookup(cmd *cobra.Command, deps *WebhookCommandDeps, name string) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	deps.Config = cfg

	lookup := deps.LookupFn
	if lookup == nil {
		lookup = func(ctx context.Context, cfg *config.CLIConfig, name string) (string, error) {
			dir, err := newDirectory(cfg, logging.MustGlobal(), nil)
			if err != nil {
				return "", err
			}
			return dir.Lookup(ctx, name)
		}
	}

	webhook, err := lookup(cmd.Context(), cfg, name)
	if err != nil {
		return fmt.Errorf("looking up %q: %w", name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, credentials.MaskWebhook(webhook))
	return nil
}

func runWebhookSave(cmd *cobra.Command, deps *WebhookCommandDeps) error {
	webhook := strings.TrimSpace(webhookValue)
	if webhook == "" {
		prompt := deps.PromptFn
		if prompt == nil {
			prompt = promptForWebhook
		}
		var err error
		webhook, err = prompt()
		if err != nil {
			return err
		}
	}
	if webhook == "" {
		return fmt.Errorf("no webhook provided")
	}
	if !strings.HasPrefix(webhook, "https://") && !strings.HasPrefix(webhook, "http://") {
		return fmt.Errorf("webhook must be an http(s) URL")
	}

	store, err := deps.NewStore()
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}
	if err := store.SaveWebhook(webhookName, webhook); err != nil {
		return fmt.Errorf("saving webhook: %w", err)
	}

	credPath, _ := credentials.CredentialsPath()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Saved webhook for %q: %s\n", webhookName, credentials.MaskWebhook(webhook))
	fmt.Fprintf(out, "Stored in: %s\n", credPath)
	return nil
}

func runWebhookShow(cmd *cobra.Command, deps *WebhookCommandDeps) error {
	store, err := deps.NewStore()
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}

	names, err := store.Names()
	if err != nil {
		return fmt.Errorf("reading credential store: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "No webhooks stored locally.")
		return nil
	}

	for _, name := range names {
		webhook, err := store.LoadWebhook(name)
		if err != nil {
			fmt.Fprintf(out, "%s: <unreadable: %v>\n", name, err)
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", name, credentials.MaskWebhook(webhook))
	}
	return nil
}

func runWebhookDelete(cmd *cobra.Command, deps *WebhookCommandDeps) error {
	store, err := deps.NewStore()
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}
	if err := store.DeleteWebhook(webhookName); err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted webhook for %q\n", webhookName)
	return nil
}

// promptForWebhook reads the webhook URL without echoing it.
func promptForWebhook() (string, error) {
	fmt.Printf("Webhook URL for %q: ", webhookName)

	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // newline after hidden input
	if err != nil {
		// Fallback to regular input if terminal not available
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading webhook: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
	return strings.TrimSpace(string(raw)), nil
}
