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

// Task command flags
var (
	taskUser        string
	taskTitle       string
	taskDescription string
	taskProject     string
	taskResponsible string
	taskDeadline    string
	taskPriority    string
	taskStatus      string
	taskFindTitle   string
	taskWebhook     string
	taskOutput      string
)

// TaskCommandDeps holds the dependencies for task commands.
type TaskCommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)
	NewService func(cfg *config.CLIConfig, log logging.Logger) (*funcs.Service, error)

	// Mock function overrides for testing
	CreateTaskFn func(ctx context.Context, args funcs.Args) funcs.Result
	UpdateTaskFn func(ctx context.Context, args funcs.Args) funcs.Result
	DeleteTaskFn func(ctx context.Context, args funcs.Args) funcs.Result
	ShowTasksFn  func(ctx context.Context, args funcs.Args) funcs.Result
}

// DefaultTaskDeps returns the default dependencies for production use.
func DefaultTaskDeps() *TaskCommandDeps {
	return &TaskCommandDeps{
		LoadConfig: config.LoadConfig,
		NewService: newServiceFromConfig,
	}
}

// NewTaskCommand creates the root task command with all subcommands.
func NewTaskCommand(deps *TaskCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultTaskDeps()
	}

	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, update, delete and list portal tasks",
		Long: `Work with tasks on the portal behind a user's webhook.

Every subcommand acts on behalf of one bot user: --user names them, and
their webhook URL is looked up in the credential directory (the local
encrypted store when enabled, otherwise the published sheet).

Tasks, projects and people are referred to by natural-language phrases, not
IDs. "сделать отчет по продажам" finds the task whose title shares the most
words with the phrase; "Иван" finds the user whose name contains it.
Deadlines accept "завтра", "послезавтра", "через неделю", "через 3 дня",
"через 2 часа", "tomorrow", "in a week" or an exact "25.12.2026 15:00".

The command prints the operation's result object: a success or error with a
human-readable message, or the grouped task listing.

For AI assistants:
  Use --output json for the exact result object the HTTP function surface
  returns. Errors are in-band (result=error), the exit code stays zero.`,
		Example: `  # Create a task for tomorrow evening
  b24bot task add --user "Анна" --title "Позвонить клиенту" --deadline завтра

  # Create a high-priority task in a project, assigned by name
  b24bot task add --user "Анна" --title "Отчет" --project "Редизайн сайта" \
      --responsible "Иван" --priority высокий

  # Move a task to another status
  b24bot task update --user "Анна" --find-title "отчет" --status "в работе"

  # Delete by fuzzy title within a project
  b24bot task delete --user "Анна" --title "старый отчет" --project "Архив"

  # List open tasks due tomorrow
  b24bot task list --user "Анна" --deadline завтра --output json`,
	}

	// Add subcommands
	cmd.AddCommand(newTaskAddCommand(deps))
	cmd.AddCommand(newTaskUpdateCommand(deps))
	cmd.AddCommand(newTaskDeleteCommand(deps))
	cmd.AddCommand(newTaskListCommand(deps))

	return cmd
}

// newTaskAddCommand creates the 'task add' subcommand.
func newTaskAddCommand(deps *TaskCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new task",
		Long: `Create a task on the portal of the named user.

--title is required. --project resolves a workgroup by fuzzy name and fails
when nothing matches. --responsible searches portal users by substring; when
omitted, the task is assigned to the webhook owner. An unparseable
--deadline is dropped with a note and the task is still created. --priority
accepts низкий/обычный/высокий (or low/normal/high, or 0/1/2) and defaults
to normal.

Examples:
  # Minimal: title only, assigned to the webhook owner
  b24bot task add --user "Анна" --title "Позвонить клиенту"

  # Everything spelled out
  b24bot task add --user "Анна" --title "Отчет по продажам" \
      --description "Цифры за квартал" --project "Редизайн сайта" \
      --responsible "Иван" --deadline "через 3 дня" --priority высокий`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskOp(cmd, deps, "create", deps.CreateTaskFn, func(svc *funcs.Service) opFn {
				return svc.CreateTask
			}, taskArgs(map[string]string{
				"title":       taskTitle,
				"description": taskDescription,
				"project":     taskProject,
				"responsible": taskResponsible,
				"deadline":    taskDeadline,
				"priority":    taskPriority,
			}))
		},
	}

	cmd.Flags().StringVarP(&taskUser, "user", "u", "", "Bot user the operation acts for (required)")
	cmd.Flags().StringVar(&taskTitle, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&taskDescription, "description", "", "Task description")
	cmd.Flags().StringVar(&taskProject, "project", "", "Project to file the task under (fuzzy name)")
	cmd.Flags().StringVar(&taskResponsible, "responsible", "", "Assignee name (substring search)")
	cmd.Flags().StringVar(&taskDeadline, "deadline", "", "Deadline phrase or DD.MM.YYYY [HH:MM]")
	cmd.Flags().StringVar(&taskPriority, "priority", "", "Priority: низкий, обычный, высокий or 0-2")
	cmd.Flags().StringVarP(&taskOutput, "output", "o", "", "Output format: text, json, yaml")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// newTaskUpdateCommand creates the 'task update' subcommand.
func newTaskUpdateCommand(deps *TaskCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update an existing task found by fuzzy title",
		Long: `Find a task by fuzzy title match and change the supplied fields.

--find-title is required and matches against open (not completed) tasks;
--project narrows the search to one workgroup. Only the fields you pass are
sent to the portal. A field that cannot be resolved, such as an unknown
status word or an unparseable deadline, is skipped with a logged warning
rather than failing the whole update. Passing no updatable field at all is
an error.

Examples:
  # Rename a task
  b24bot task update --user "Анна" --find-title "отчет" --title "Отчет Q3"

  # Reassign and push the deadline
  b24bot task update --user "Анна" --find-title "отчет" \
      --responsible "Мария" --deadline "через неделю"

  # Complete a task inside a project
  b24bot task update --user "Анна" --find-title "отчет" \
      --project "Редизайн сайта" --status завершена`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := taskArgs(map[string]string{
				"find_title":  taskFindTitle,
				"project":     taskProject,
				"responsible": taskResponsible,
				"deadline":    taskDeadline,
				"priority":    taskPriority,
				"status":      taskStatus,
			})
			// Distinguish "not passed" from "set to empty": title and
			// description may legitimately be cleared.
			if cmd.Flags().Changed("title") {
				a["title"] = taskTitle
			}
			if cmd.Flags().Changed("description") {
				a["description"] = taskDescription
			}
			return runTaskOp(cmd, deps, "update", deps.UpdateTaskFn, func(svc *funcs.Service) opFn {
				return svc.UpdateTask
			}, a)
		},
	}

	cmd.Flags().StringVarP(&taskUser, "user", "u", "", "Bot user the operation acts for (required)")
	cmd.Flags().StringVar(&taskFindTitle, "find-title", "", "Phrase locating the task to update (required)")
	cmd.Flags().StringVar(&taskTitle, "title", "", "New title")
	cmd.Flags().StringVar(&taskDescription, "description", "", "New description")
	cmd.Flags().StringVar(&taskProject, "project", "", "Project scope for the search (fuzzy name)")
	cmd.Flags().StringVar(&taskResponsible, "responsible", "", "New assignee name")
	cmd.Flags().StringVar(&taskDeadline, "deadline", "", "New deadline phrase")
	cmd.Flags().StringVar(&taskPriority, "priority", "", "New priority")
	cmd.Flags().StringVar(&taskStatus, "status", "", "New status, e.g. \"в работе\", завершена")
	cmd.Flags().StringVarP(&taskOutput, "output", "o", "", "Output format: text, json, yaml")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("find-title")

	return cmd
}

// newTaskDeleteCommand creates the 'task delete' subcommand.
func newTaskDeleteCommand(deps *TaskCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a task found by fuzzy title",
		Long: `Find a task by fuzzy title match and delete it.

Unlike update, the search here also covers completed tasks, so finished
work can be cleaned up. --project narrows the search to one workgroup.

Examples:
  # Delete the best title match
  b24bot task delete --user "Анна" --title "старый отчет"

  # Delete within a project
  b24bot task delete --user "Анна" --title "черновик" --project "Архив"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskOp(cmd, deps, "delete", deps.DeleteTaskFn, func(svc *funcs.Service) opFn {
				return svc.DeleteTask
			}, taskArgs(map[string]string{
				"title":        taskTitle,
				"project_name": taskProject,
			}))
		},
	}

	cmd.Flags().StringVarP(&taskUser, "user", "u", "", "Bot user the operation acts for (required)")
	cmd.Flags().StringVar(&taskTitle, "title", "", "Phrase locating the task to delete (required)")
	cmd.Flags().StringVar(&taskProject, "project", "", "Project scope for the search (fuzzy name)")
	cmd.Flags().StringVarP(&taskOutput, "output", "o", "", "Output format: text, json, yaml")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// newTaskListCommand creates the 'task list' subcommand.
func newTaskListCommand(deps *TaskCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks grouped by project",
		Long: `List the user's open tasks, newest first, grouped by project.

Completed tasks are excluded. --project limits the listing to one workgroup
(fuzzy name). --deadline limits it to one day: сегодня, завтра, today,
tomorrow or an exact DD.MM.YYYY. --webhook skips the directory lookup and
talks to the given webhook URL directly.

Examples:
  # Everything open
  b24bot task list --user "Анна"

  # One project, due today
  b24bot task list --user "Анна" --project "Редизайн сайта" --deadline сегодня

  # Direct webhook, machine-readable
  b24bot task list --webhook https://portal.example/rest/1/abc/ --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskOp(cmd, deps, "list", deps.ShowTasksFn, func(svc *funcs.Service) opFn {
				return svc.ShowTasks
			}, taskArgs(map[string]string{
				"project_name": taskProject,
				"deadline":     taskDeadline,
				"webhook":      taskWebhook,
			}))
		},
	}

	cmd.Flags().StringVarP(&taskUser, "user", "u", "", "Bot user the operation acts for")
	cmd.Flags().StringVar(&taskProject, "project", "", "Project scope (fuzzy name)")
	cmd.Flags().StringVar(&taskDeadline, "deadline", "", "Day filter: сегодня, завтра or DD.MM.YYYY")
	cmd.Flags().StringVar(&taskWebhook, "webhook", "", "Webhook URL to use directly, bypassing the directory")
	cmd.Flags().StringVarP(&taskOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

type opFn func(ctx context.Context, args funcs.Args) funcs.Result

// taskArgs builds the operation argument map from flag values, including
// the user name and dropping blanks.
func taskArgs(fields map[string]string) funcs.Args {
	a := funcs.Args{}
	if strings.TrimSpace(taskUser) != "" {
		a["nameUser"] = taskUser
	}
	for key, val := range fields {
		if val != "" {
			a[key] = val
		}
	}
	return a
}

// runTaskOp loads configuration, assembles the service and executes one
// task operation, printing its result object.
func runTaskOp(cmd *cobra.Command, deps *TaskCommandDeps, name string, mock opFn, pick func(*funcs.Service) opFn, args funcs.Args) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	deps.Config = cfg

	op := mock
	if op == nil {
		svc, err := deps.NewService(cfg, logging.MustGlobal())
		if err != nil {
			return fmt.Errorf("initializing %s: %w", name, err)
		}
		op = pick(svc)
	}

	res := op(cmd.Context(), args)
	return printResult(cmd.OutOrStdout(), resultFormat(cfg, taskOutput), res)
}
