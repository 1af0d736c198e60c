package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskbotics/b24bot/config"
	"github.com/taskbotics/b24bot/credentials"
)

// webhookTestKey is a fixed 32-byte key, hex-encoded.
const webhookTestKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// setupWebhookStore points the credential store at a temp directory.
func setupWebhookStore(t *testing.T) {
	t.Helper()
	t.Setenv("B24BOT_CONFIG_DIR", t.TempDir())
	t.Setenv("B24BOT_ENCRYPTION_KEY", webhookTestKey)
}

// TestNewWebhookCommand verifies the webhook command structure.
func TestNewWebhookCommand(t *testing.T) {
	cmd := NewWebhookCommand(DefaultWebhookDeps())

	assert.Equal(t, "webhook", cmd.Use, "command name should be webhook")
	assert.NotEmpty(t, cmd.Short, "command should have short description")
	assert.NotEmpty(t, cmd.Long, "command should have long description")

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"lookup", "save", "show", "delete"} {
		assert.True(t, names[want], "webhook should have %s subcommand", want)
	}
}

// TestWebhookSaveCommand_Flags verifies the save flag set.
func TestWebhookSaveCommand_Flags(t *testing.T) {
	cmd := newWebhookSaveCommand(DefaultWebhookDeps())

	nameFlag := cmd.Flags().Lookup("name")
	require.NotNil(t, nameFlag, "name flag should exist")
	assert.Equal(t, "string", nameFlag.Value.Type(), "name flag should be string")
	require.NotNil(t, cmd.Flags().ShorthandLookup("n"), "name flag should have shorthand -n")

	webhookFlag := cmd.Flags().Lookup("webhook")
	require.NotNil(t, webhookFlag, "webhook flag should exist")
}

// TestWebhookLookup_Masked verifies lookup output never shows the secret.
func TestWebhookLookup_Masked(t *testing.T) {
	deps := &WebhookCommandDeps{
		LoadConfig: testLoadConfig,
		LookupFn: func(ctx context.Context, cfg *config.CLIConfig, name string) (string, error) {
			assert.Equal(t, "Анна", name)
			return "https://portal.example/rest/1/supersecretcode/", nil
		},
	}

	cmd := NewWebhookCommand(deps)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"lookup", "Анна"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Анна")
	assert.NotContains(t, out, "supersecretcode", "secret must be masked")
}

// TestWebhookSaveShowDelete exercises the lifecycle against a real store.
func TestWebhookSaveShowDelete(t *testing.T) {
	setupWebhookStore(t)

	deps := &WebhookCommandDeps{
		LoadConfig: testLoadConfig,
		NewStore:   credentials.NewStore,
	}

	// Save non-interactively.
	cmd := NewWebhookCommand(deps)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"save", "--name", "Анна", "--webhook", "https://portal.example/rest/1/supersecretcode/"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Анна")
	assert.NotContains(t, buf.String(), "supersecretcode", "saved webhook must be echoed masked")

	// Show lists the stored name, masked.
	cmd = NewWebhookCommand(deps)
	buf.Reset()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"show"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Анна")
	assert.NotContains(t, buf.String(), "supersecretcode")

	// Delete removes it.
	cmd = NewWebhookCommand(deps)
	buf.Reset()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"delete", "--name", "Анна"})
	require.NoError(t, cmd.Execute())

	cmd = NewWebhookCommand(deps)
	buf.Reset()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"show"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No webhooks stored locally.")
}

// TestWebhookSave_RejectsNonURL verifies input validation.
func TestWebhookSave_RejectsNonURL(t *testing.T) {
	setupWebhookStore(t)

	deps := &WebhookCommandDeps{
		LoadConfig: testLoadConfig,
		NewStore:   credentials.NewStore,
	}

	cmd := NewWebhookCommand(deps)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"save", "--name", "Анна", "--webhook", "not-a-url"})

	assert.Error(t, cmd.Execute(), "save should reject a non-URL webhook")
}

// TestWebhookSave_Prompted verifies the no-echo prompt path.
func TestWebhookSave_Prompted(t *testing.T) {
	setupWebhookStore(t)

	deps := &WebhookCommandDeps{
		LoadConfig: testLoadConfig,
		NewStore:   credentials.NewStore,
		PromptFn: func() (string, error) {
			return "https://portal.example/rest/1/prompted/", nil
		},
	}

	cmd := NewWebhookCommand(deps)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"save", "--name", "Иван"})

	require.NoError(t, cmd.Execute())

	store, err := credentials.NewStore()
	require.NoError(t, err)
	got, err := store.LoadWebhook("Иван")
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example/rest/1/prompted/", got)
}
