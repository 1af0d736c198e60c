package b24

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	boterrors "github.com/taskbotics/b24bot/pkg/errors"
)

// Default client settings.
const (
	DefaultTimeout      = 15 * time.Second
	DefaultProbeTimeout = 5 * time.Second
)

// Options configures the Client behavior.
type Options struct {
	// Timeout bounds listing and lookup calls. Mutations run on the caller's
	// context without a client-side deadline.
	Timeout time.Duration

	// ProbeTimeout bounds cheap identity calls like user.current, which are
	// used to validate a webhook and should fail fast.
	ProbeTimeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// DefaultOptions returns Options with default values.
func DefaultOptions() *Options {
	return &Options{
		Timeout:      DefaultTimeout,
		ProbeTimeout: DefaultProbeTimeout,
	}
}

// Client talks to one portal through its inbound webhook URL. A webhook
// already encodes the portal host, the acting user and the secret, so the
// client carries no further credentials.
type Client struct {
	webhook string
	httpc   *http.Client
	opts    *Options
}

// NewClient creates a Client for the given webhook URL. A missing trailing
// slash is tolerated.
func NewClient(webhook string, opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if !strings.HasSuffix(webhook, "/") {
		webhook += "/"
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &Client{webhook: webhook, httpc: httpc, opts: opts}
}

// Webhook returns the webhook URL the client was built with.
func (c *Client) Webhook() string {
	return c.webhook
}

// PortalBase returns the portal origin, e.g. "https://example.bitrix24.ru",
// derived from the webhook URL.
func (c *Client) PortalBase() string {
	base, _, found := strings.Cut(c.webhook, "/rest/")
	if !found {
		return strings.TrimSuffix(c.webhook, "/")
	}
	return base
}

// TaskURL builds the portal link for a task in its creator's task list.
func (c *Client) TaskURL(creatorID, taskID int64) string {
	return fmt.Sprintf("%s/company/personal/user/%d/tasks/task/view/%d/", c.PortalBase(), creatorID, taskID)
}

// GroupURL builds the portal link for a workgroup page.
func (c *Client) GroupURL(groupID int64) string {
	return fmt.Sprintf("%s/workgroups/group/%d/", c.PortalBase(), groupID)
}

// apiResponse is the envelope every REST method answers with.
type apiResponse struct {
	Result           json.RawMessage `json:"result"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// call POSTs payload to the named REST method and decodes the result field
// into out. Every request is issued exactly once: the portal's mutations are
// not idempotent, so a failed call surfaces to the caller instead of being
// reissued. BackendError.Retryable tells the caller whether trying again by
// hand is worth it.
func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	body := bytes.NewReader(nil)
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", method, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhook+method+".json", body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &boterrors.BackendError{Method: method, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return &boterrors.BackendError{Method: method, Status: resp.StatusCode, Cause: err}
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &boterrors.BackendError{Method: method, Status: resp.StatusCode, Cause: err}
	}
	if envelope.Error != "" {
		return &boterrors.BackendError{
			Method:      method,
			Status:      resp.StatusCode,
			Code:        envelope.Error,
			Description: envelope.ErrorDescription,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return &boterrors.BackendError{Method: method, Status: resp.StatusCode}
	}

	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return &boterrors.BackendError{Method: method, Status: resp.StatusCode, Cause: err}
		}
	}
	return nil
}

// CurrentUser fetches the user the webhook acts as. It uses the probe
// timeout, so a stale webhook fails quickly.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ProbeTimeout)
	defer cancel()

	var u User
	if err := c.call(ctx, "user.current", nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Groups lists the sonet workgroups visible to the webhook user.
func (c *Client) Groups(ctx context.Context) ([]Project, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var groups []Project
	if err := c.call(ctx, "sonet_group.get", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Users lists every active portal user.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var users []User
	if err := c.call(ctx, "user.get", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UserByID fetches a single user by identifier.
func (c *Client) UserByID(ctx context.Context, id int64) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var users []User
	if err := c.call(ctx, "user.get", map[string]any{"ID": id}, &users); err != nil {
		return User{}, err
	}
	if len(users) == 0 {
		return User{}, fmt.Errorf("user %d: %w", id, boterrors.ErrNoMatch)
	}
	return users[0], nil
}

// SearchUsers runs the portal's fuzzy user search.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var users []User
	payload := map[string]any{"FILTER": map[string]any{"FIND": query}}
	if err := c.call(ctx, "user.search", payload, &users); err != nil {
		return nil, err
	}
	return users, nil
}

var taskSelect = []string{
	"ID", "TITLE", "DESCRIPTION", "DEADLINE",
	"CREATED_BY", "RESPONSIBLE_ID", "GROUP_ID", "STATUS", "PRIORITY",
}

// Tasks lists tasks matching the filter.
func (c *Client) Tasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	payload := map[string]any{
		"order":  map[string]string{"ID": "DESC"},
		"filter": filter.toMap(),
		"select": taskSelect,
	}
	var result struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.call(ctx, "tasks.task.list", payload, &result); err != nil {
		return nil, err
	}
	return result.Tasks, nil
}

// AddTask creates a task and returns its identifier and creator. Like every
// mutation it runs on the caller's context without a client-side deadline.
func (c *Client) AddTask(ctx context.Context, fields map[string]any) (TaskRef, error) {
	var result struct {
		Task TaskRef `json:"task"`
	}
	if err := c.call(ctx, "tasks.task.add", map[string]any{"fields": fields}, &result); err != nil {
		return TaskRef{}, err
	}
	return result.Task, nil
}

// UpdateTask applies field changes to an existing task and returns the
// updated task reference.
func (c *Client) UpdateTask(ctx context.Context, taskID int64, fields map[string]any) (TaskRef, error) {
	payload := map[string]any{"taskId": taskID, "fields": fields}
	var result struct {
		Task TaskRef `json:"task"`
	}
	if err := c.call(ctx, "tasks.task.update", payload, &result); err != nil {
		return TaskRef{}, err
	}
	return result.Task, nil
}

// DeleteTask removes a task. The portal answers with a bare boolean.
func (c *Client) DeleteTask(ctx context.Context, taskID int64) error {
	var ok bool
	if err := c.call(ctx, "tasks.task.delete", map[string]any{"taskId": taskID}, &ok); err != nil {
		return err
	}
	if !ok {
		return &boterrors.BackendError{Method: "tasks.task.delete", Description: fmt.Sprintf("task %d not deleted", taskID)}
	}
	return nil
}

// CreateGroup creates a sonet workgroup and returns its identifier.
func (c *Client) CreateGroup(ctx context.Context, fields map[string]any) (int64, error) {
	var id FlexInt
	if err := c.call(ctx, "sonet_group.create", map[string]any{"fields": fields}, &id); err != nil {
		return 0, err
	}
	return id.Int64(), nil
}
