// Package funcs implements the bot-facing operations: create, update,
// delete and list tasks, plus project creation. Each operation takes the
// flat argument map a bot platform sends and answers with an in-band result
// object; failures become human-readable messages, never Go errors crossing
// the surface.
package funcs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/taskbotics/b24bot/pkg/b24"
	"github.com/taskbotics/b24bot/pkg/logging"
)

// Discriminator values shared by every operation result.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Args is the flat argument map of one invocation. Unrecognized keys are
// ignored. Values arrive as whatever the platform's JSON decoder produced,
// so the accessors normalize strings, numbers and lists.
type Args map[string]any

// Has reports whether the key was supplied at all, regardless of value.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns the value under key rendered as a string, or "" when the
// key is absent or null.
func (a Args) String(key string) string {
	switch v := a[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// StringList returns the value under key as a list of names. JSON arrays
// are taken element-wise; a plain string is split on commas. Blank entries
// are dropped.
func (a Args) StringList(key string) []string {
	var raw []string
	switch v := a[key].(type) {
	case nil:
		return nil
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			raw = append(raw, fmt.Sprint(item))
		}
	case string:
		raw = strings.Split(v, ",")
	default:
		raw = []string{fmt.Sprint(v)}
	}

	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TaskView is one task row in the listing output.
type TaskView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	Status      string `json:"status"`
	Responsible string `json:"responsible"`
}

// ProjectTasks groups the listed tasks of one project.
type ProjectTasks struct {
	ProjectName string     `json:"projectName"`
	Tasks       []TaskView `json:"tasks"`
}

// Result is the outcome of one operation. Mutating operations serialize
// with the "result" discriminator; the listing uses "status" and carries
// the grouped tasks.
type Result struct {
	Status   string
	Message  string
	Projects []ProjectTasks

	listing bool
}

type mutationJSON struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

type listingJSON struct {
	Status   string         `json:"status"`
	Projects []ProjectTasks `json:"projects"`
	Message  string         `json:"message,omitempty"`
}

type listingErrorJSON struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// MarshalJSON renders the wire shape the bot platform expects.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.listing {
		return json.Marshal(mutationJSON{Result: r.Status, Message: r.Message})
	}
	if r.Status == StatusError {
		return json.Marshal(listingErrorJSON{Status: r.Status, Message: r.Message})
	}
	projects := r.Projects
	if projects == nil {
		projects = []ProjectTasks{}
	}
	return json.Marshal(listingJSON{Status: r.Status, Projects: projects, Message: r.Message})
}

// NewListing builds a listing-shaped Result, the shape ShowTasks answers
// with. Surfaces that stand in for the listing operation use it.
func NewListing(status, message string, projects []ProjectTasks) Result {
	return Result{Status: status, Message: message, Projects: projects, listing: true}
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

func success(format string, args ...any) Result {
	return Result{Status: StatusSuccess, Message: fmt.Sprintf(format, args...)}
}

func errorf(format string, args ...any) Result {
	return Result{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

func listError(format string, args ...any) Result {
	r := errorf(format, args...)
	r.listing = true
	return r
}

// Directory maps a bot user's display name to their portal webhook URL.
type Directory interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// Backend is the portal surface one operation works against. *b24.Client
// satisfies it; tests substitute fakes.
type Backend interface {
	CurrentUser(ctx context.Context) (b24.User, error)
	Groups(ctx context.Context) ([]b24.Project, error)
	Users(ctx context.Context) ([]b24.User, error)
	UserByID(ctx context.Context, id int64) (b24.User, error)
	SearchUsers(ctx context.Context, query string) ([]b24.User, error)
	Tasks(ctx context.Context, filter b24.TaskFilter) ([]b24.Task, error)
	AddTask(ctx context.Context, fields map[string]any) (b24.TaskRef, error)
	UpdateTask(ctx context.Context, taskID int64, fields map[string]any) (b24.TaskRef, error)
	DeleteTask(ctx context.Context, taskID int64) error
	CreateGroup(ctx context.Context, fields map[string]any) (int64, error)
	TaskURL(creatorID, taskID int64) string
	GroupURL(groupID int64) string
}

// Deps wires a Service to its collaborators.
type Deps struct {
	// Directory resolves bot user names to webhook URLs.
	Directory Directory

	// NewBackend builds a portal client for a webhook URL.
	NewBackend func(webhook string) Backend

	// Now supplies the clock for deadline arithmetic. Defaults to time.Now.
	Now func() time.Time

	// Log receives operation traces. Defaults to a nop logger.
	Log logging.Logger

	// DefaultResponsibleID is the assignee of last resort when the portal
	// cannot even report who owns the webhook. Defaults to 1, the portal
	// administrator.
	DefaultResponsibleID int64
}

// Service executes the bot operations.
type Service struct {
	dir        Directory
	newBackend func(webhook string) Backend
	now        func() time.Time
	log        logging.Logger
	fallbackID int64
}

// New creates a Service. Directory and NewBackend are required; the
// remaining deps get working defaults.
func New(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logging.NewNopLogger()
	}
	if deps.DefaultResponsibleID == 0 {
		deps.DefaultResponsibleID = 1
	}
	if deps.NewBackend == nil {
		deps.NewBackend = func(webhook string) Backend {
			return b24.NewClient(webhook, nil)
		}
	}
	return &Service{
		dir:        deps.Directory,
		newBackend: deps.NewBackend,
		now:        deps.Now,
		log:        deps.Log,
		fallbackID: deps.DefaultResponsibleID,
	}
}

// backendFor looks up the caller's webhook and builds a portal client for
// it. The error result is already a terminal user-facing Result.
func (s *Service) backendFor(ctx context.Context, args Args) (Backend, Result, bool) {
	userName := args.String("nameUser")
	if userName == "" {
		return nil, errorf("Техническая ошибка: не было передано имя пользователя (nameUser)."), false
	}

	webhook, err := s.dir.Lookup(ctx, userName)
	if err != nil {
		s.log.Warn("webhook lookup failed", logging.F("user", userName), logging.Err(err))
		return nil, errorf("Не удалось найти вебхук для пользователя '%s'. Убедитесь, что вы внесены в базу.", userName), false
	}
	return s.newBackend(webhook), Result{}, true
}
