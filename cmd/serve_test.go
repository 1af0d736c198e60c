package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskbotics/b24bot/config"
)

// TestNewServeCommand verifies the serve command structure.
func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand(DefaultServeDeps())

	assert.Equal(t, "serve", cmd.Use, "command name should be serve")
	assert.NotEmpty(t, cmd.Short, "command should have short description")
	assert.NotEmpty(t, cmd.Long, "command should have long description")

	listenFlag := cmd.Flags().Lookup("listen")
	require.NotNil(t, listenFlag, "listen flag should exist")
	assert.Equal(t, "string", listenFlag.Value.Type(), "listen flag should be string")
}

// TestServeCommand_ListenOverride verifies --listen wins over config.
func TestServeCommand_ListenOverride(t *testing.T) {
	var gotCfg *config.CLIConfig
	deps := &ServeCommandDeps{
		LoadConfig: testLoadConfig,
		RunFn: func(ctx context.Context, cfg *config.CLIConfig) error {
			gotCfg = cfg
			return nil
		},
	}

	cmd := NewServeCommand(deps)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--listen", "0.0.0.0:9000"})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, gotCfg, "serve should reach the run function")
	assert.Equal(t, "0.0.0.0:9000", gotCfg.ListenAddr)
}

// TestServeCommand_DefaultListen verifies the configured address is kept.
func TestServeCommand_DefaultListen(t *testing.T) {
	var gotCfg *config.CLIConfig
	deps := &ServeCommandDeps{
		LoadConfig: testLoadConfig,
		RunFn: func(ctx context.Context, cfg *config.CLIConfig) error {
			gotCfg = cfg
			return nil
		},
	}

	cmd := NewServeCommand(deps)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, gotCfg)
	assert.Equal(t, config.DefaultListenAddr, gotCfg.ListenAddr)
}
