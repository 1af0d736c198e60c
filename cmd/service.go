// Package cmd provides CLI commands for the b24bot tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/taskbotics/b24bot/config"
	"github.com/taskbotics/b24bot/credentials"
	"github.com/taskbotics/b24bot/pkg/b24"
	"github.com/taskbotics/b24bot/pkg/funcs"
	"github.com/taskbotics/b24bot/pkg/logging"
	"github.com/taskbotics/b24bot/pkg/sheet"
)

// newDirectory builds the webhook directory for a configuration: published
// sheet lookup, optionally consulted after the local encrypted store.
func newDirectory(cfg *config.CLIConfig, log logging.Logger, cache sheet.Cache) (funcs.Directory, error) {
	opts := []sheet.Option{
		sheet.WithTimeout(cfg.LookupTimeout),
		sheet.WithLogger(log),
	}
	if cache != nil {
		opts = append(opts, sheet.WithCache(cache))
	}
	dir := funcs.Directory(sheet.NewDirectory(cfg.SheetURL, opts...))

	if cfg.LocalStore {
		store, err := credentials.NewStore()
		if err != nil {
			return nil, fmt.Errorf("opening credential store: %w", err)
		}
		dir = &storeDirectory{store: store, next: dir}
	}
	return dir, nil
}

// storeDirectory answers lookups from the local encrypted store first and
// falls back to the sheet for names it does not hold.
type storeDirectory struct {
	store *credentials.Store
	next  funcs.Directory
}

func (d *storeDirectory) Lookup(ctx context.Context, name string) (string, error) {
	if webhook, err := d.store.LoadWebhook(name); err == nil {
		return webhook, nil
	}
	return d.next.Lookup(ctx, name)
}

// newServiceFromConfig assembles the operation service for CLI use.
func newServiceFromConfig(cfg *config.CLIConfig, log logging.Logger) (*funcs.Service, error) {
	dir, err := newDirectory(cfg, log, nil)
	if err != nil {
		return nil, err
	}

	clientOpts := b24.DefaultOptions()
	clientOpts.Timeout = cfg.Timeout

	return funcs.New(funcs.Deps{
		Directory: dir,
		NewBackend: func(webhook string) funcs.Backend {
			return b24.NewClient(webhook, clientOpts)
		},
		Log:                  log,
		DefaultResponsibleID: cfg.DefaultResponsibleID,
	}), nil
}

// printResult renders an operation result in the requested output format.
// JSON and YAML reproduce the wire shape; text prints the message and, for
// listings, the grouped tasks.
func printResult(w io.Writer, format config.OutputFormat, res funcs.Result) error {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case config.OutputFormatYAML:
		// Result controls its shape through MarshalJSON, so round-trip
		// through JSON to keep the YAML fields identical.
		raw, err := json.Marshal(res)
		if err != nil {
			return err
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		return yaml.NewEncoder(w).Encode(v)
	default:
		if res.Message != "" {
			fmt.Fprintln(w, res.Message)
		}
		for _, p := range res.Projects {
			fmt.Fprintf(w, "\n%s\n", p.ProjectName)
			for _, t := range p.Tasks {
				fmt.Fprintf(w, "  %s\n", t.Title)
				fmt.Fprintf(w, "    Срок: %s  Статус: %s  Исполнитель: %s\n", t.Deadline, t.Status, t.Responsible)
				if t.Description != "Нет" && t.Description != "" {
					fmt.Fprintf(w, "    %s\n", t.Description)
				}
			}
		}
		return nil
	}
}

// resultFormat picks the effective output format: the command's --output
// flag when given, else the configured default.
func resultFormat(cfg *config.CLIConfig, flag string) config.OutputFormat {
	if flag != "" {
		return config.OutputFormat(flag)
	}
	return cfg.OutputFormat
}
