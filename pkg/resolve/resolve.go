// Package resolve turns free-text names from chat into portal identifiers.
//
// Projects and tasks are resolved with bag-of-words scoring against what the
// portal returns, so "таск про логин" can find a task titled "Починить логин
// на сайте". Users go through the portal's own search plus a substring scan
// for project member lists.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskbotics/b24bot/pkg/b24"
	boterrors "github.com/taskbotics/b24bot/pkg/errors"
	"github.com/taskbotics/b24bot/pkg/match"
)

// Backend is the slice of the portal client the resolver needs.
type Backend interface {
	Groups(ctx context.Context) ([]b24.Project, error)
	Users(ctx context.Context) ([]b24.User, error)
	SearchUsers(ctx context.Context, query string) ([]b24.User, error)
	Tasks(ctx context.Context, filter b24.TaskFilter) ([]b24.Task, error)
}

// Resolver resolves spoken names against one portal.
type Resolver struct {
	backend Backend
}

// New creates a Resolver over the given backend.
func New(backend Backend) *Resolver {
	return &Resolver{backend: backend}
}

// ProjectID resolves a spoken project name to a workgroup id.
// Returns ErrNoMatch when nothing scores.
func (r *Resolver) ProjectID(ctx context.Context, phrase string) (int64, error) {
	groups, err := r.backend.Groups(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing projects: %w", err)
	}

	candidates := make([]match.Candidate, 0, len(groups))
	for _, g := range groups {
		candidates = append(candidates, match.Candidate{ID: g.ID.Int64(), Name: g.Name})
	}

	id, ok := match.Resolve(phrase, candidates)
	if !ok {
		return 0, fmt.Errorf("project %q: %w", phrase, boterrors.ErrNoMatch)
	}
	return id, nil
}

// TaskID resolves a spoken task title to a task id. When groupID is non-nil
// the search is scoped to that workgroup. With excludeCompleted set, finished
// tasks never match, so a reopened phrasing cannot land on one; deletion
// keeps them in scope so a completed task can still be removed.
func (r *Resolver) TaskID(ctx context.Context, phrase string, groupID *int64, excludeCompleted bool) (int64, error) {
	tasks, err := r.backend.Tasks(ctx, b24.TaskFilter{
		GroupID:          groupID,
		ExcludeZombie:    true,
		ExcludeCompleted: excludeCompleted,
	})
	if err != nil {
		return 0, fmt.Errorf("listing tasks: %w", err)
	}

	candidates := make([]match.Candidate, 0, len(tasks))
	for _, t := range tasks {
		candidates = append(candidates, match.Candidate{ID: t.ID.Int64(), Name: t.Title})
	}

	id, ok := match.Resolve(phrase, candidates)
	if !ok {
		return 0, fmt.Errorf("task %q: %w", phrase, boterrors.ErrNoMatch)
	}
	return id, nil
}

// UserID resolves a person's name to a user id through the portal's fuzzy
// search. The first hit wins, matching how the portal ranks its own results.
func (r *Resolver) UserID(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("empty user name: %w", boterrors.ErrNoMatch)
	}

	users, err := r.backend.SearchUsers(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("searching user %q: %w", name, err)
	}
	if len(users) == 0 {
		return 0, fmt.Errorf("user %q: %w", name, boterrors.ErrNoMatch)
	}
	return users[0].ID.Int64(), nil
}

// UserIDs resolves a list of member names in one pass over the portal's user
// directory. A name matches the first user whose first, last or middle name
// contains it, case-insensitively; each field is checked on its own, so a
// needle spanning two fields matches nobody. Names that match nobody are
// skipped.
func (r *Resolver) UserIDs(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}

	users, err := r.backend.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	var ids []int64
	for _, name := range names {
		needle := strings.ToLower(strings.TrimSpace(name))
		if needle == "" {
			continue
		}
		for _, u := range users {
			if nameFieldMatches(u, needle) {
				ids = append(ids, u.ID.Int64())
				break
			}
		}
	}
	return ids, nil
}

func nameFieldMatches(u b24.User, needle string) bool {
	for _, field := range []string{u.Name, u.LastName, u.SecondName} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// UserSource fetches single user records, for name annotation.
type UserSource interface {
	UserByID(ctx context.Context, id int64) (b24.User, error)
}

// NameCache memoizes user display names within one listing invocation, so a
// responsible user appearing on twenty tasks costs one lookup. It is not
// safe for concurrent use and is meant to live for a single request.
type NameCache struct {
	src   UserSource
	names map[int64]string
}

// NewNameCache creates an empty NameCache over the given source.
func NewNameCache(src UserSource) *NameCache {
	return &NameCache{src: src, names: make(map[int64]string)}
}

// Name resolves a user id to a display name. Only successful lookups are
// cached; a failed one is retried on the next call.
func (c *NameCache) Name(ctx context.Context, id int64) (string, error) {
	if name, ok := c.names[id]; ok {
		return name, nil
	}
	u, err := c.src.UserByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("user %d: %w", id, err)
	}
	name := u.DisplayName()
	c.names[id] = name
	return name, nil
}
