package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}

	if versionCmd.Use != "version" {
		t.Errorf("Unexpected Use: %s", versionCmd.Use)
	}

	if versionCmd.Short != "Print version information" {
		t.Errorf("Unexpected Short: %s", versionCmd.Short)
	}
}

func TestVersionOutput(t *testing.T) {
	var buf bytes.Buffer
	originalStdout := versionCmd.OutOrStdout()
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(originalStdout)

	err := versionCmd.RunE(versionCmd, []string{})
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := buf.String()
	if output == "" {
		t.Fatal("version command produced no output")
	}

	if !strings.Contains(output, "b24bot version") {
		t.Errorf("version output does not contain 'b24bot version'. Output:\n%s", output)
	}
	if !strings.Contains(output, "commit:") {
		t.Errorf("version output does not contain 'commit:'. Output:\n%s", output)
	}
	if !strings.Contains(output, "built:") {
		t.Errorf("version output does not contain 'built:'. Output:\n%s", output)
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "b24bot" {
		t.Errorf("Unexpected Use: %s", rootCmd.Use)
	}

	want := []string{"task", "project", "webhook", "serve", "config", "version"}
	for _, name := range want {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	for _, name := range []string{"sheet-url", "timeout", "output-format", "debug"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("--%s flag not found on root command", name)
		}
	}
}
