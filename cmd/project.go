package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskbotics/b24bot/config"
	"github.com/taskbotics/b24bot/pkg/funcs"
	"github.com/taskbotics/b24bot/pkg/logging"
)

// Project command flags
var (
	projectUser      string
	projectName      string
	projectDirectors []string
	projectTeam      []string
	projectOutput    string
)

// ProjectCommandDeps holds the dependencies for project commands.
type ProjectCommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)
	NewService func(cfg *config.CLIConfig, log logging.Logger) (*funcs.Service, error)

	// Mock function overrides for testing
	CreateProjectFn func(ctx context.Context, args funcs.Args) funcs.Result
}

// DefaultProjectDeps returns the default dependencies for production use.
func DefaultProjectDeps() *ProjectCommandDeps {
	return &ProjectCommandDeps{
		LoadConfig: config.LoadConfig,
		NewService: newServiceFromConfig,
	}
}

// NewProjectCommand creates the root project command with all subcommands.
func NewProjectCommand(deps *ProjectCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultProjectDeps()
	}

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create portal workgroups",
		Long: `Manage the workgroups (projects) tasks are filed under.

Projects are created on the portal of the named bot user; that user becomes
the workgroup owner. Directors and team members are given by name and
matched against the portal's user directory; when no directors are named,
the owner leads the project alone.`,
		Example: `  # A project led by the webhook owner
  b24bot project create --user "Анна" --name "Редизайн сайта"

  # Explicit leadership and team
  b24bot project create --user "Анна" --name "Запуск Q4" \
      --director "Иван" --team "Мария" --team "Петр"`,
	}

	// Add subcommands
	cmd.AddCommand(newProjectCreateCommand(deps))

	return cmd
}

// newProjectCreateCommand creates the 'project create' subcommand.
func newProjectCreateCommand(deps *ProjectCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new workgroup",
		Long: `Create a visible, open workgroup on the portal.

--name is required. --director and --team are repeatable and accept
comma-separated lists; every name must match a portal user or the command
fails. The workgroup members are the directors plus the team.

Examples:
  # Minimal
  b24bot project create --user "Анна" --name "Редизайн сайта"

  # Names can be comma-separated or repeated
  b24bot project create --user "Анна" --name "Запуск Q4" \
      --director "Иван,Мария" --team "Петр" --team "Ольга"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectCreate(cmd, deps)
		},
	}

	cmd.Flags().StringVarP(&projectUser, "user", "u", "", "Bot user the operation acts for (required)")
	cmd.Flags().StringVar(&projectName, "name", "", "Workgroup name (required)")
	cmd.Flags().StringSliceVar(&projectDirectors, "director", nil, "Project leader name (repeatable)")
	cmd.Flags().StringSliceVar(&projectTeam, "team", nil, "Team member name (repeatable)")
	cmd.Flags().StringVarP(&projectOutput, "output", "o", "", "Output format: text, json, yaml")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runProjectCreate(cmd *cobra.Command, deps *ProjectCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	deps.Config = cfg

	args := funcs.Args{}
	if strings.TrimSpace(projectUser) != "" {
		args["nameUser"] = projectUser
	}
	if projectName != "" {
		args["name"] = projectName
	}
	if len(projectDirectors) > 0 {
		args["directors"] = projectDirectors
	}
	if len(projectTeam) > 0 {
		args["team"] = projectTeam
	}

	op := deps.CreateProjectFn
	if op == nil {
		svc, err := deps.NewService(cfg, logging.MustGlobal())
		if err != nil {
			return fmt.Errorf("initializing project create: %w", err)
		}
		op = svc.CreateProject
	}

	res := op(cmd.Context(), args)
	return printResult(cmd.OutOrStdout(), resultFormat(cfg, projectOutput), res)
}
