// Package b24 provides the REST client for a Bitrix24 portal webhook.
// It handles request encoding, response envelopes, retry logic, and the
// portal's loose typing of numeric identifiers.
package b24

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt is an int64 that tolerates the portal's habit of returning numeric
// identifiers either as JSON numbers or as quoted strings, depending on the
// endpoint and portal version.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("numeric id %q: %w", s, err)
		}
		*f = FlexInt(n)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	n, err := num.Int64()
	if err != nil {
		// Some portals emit "25.0" style numbers on aggregate fields.
		fl, ferr := num.Float64()
		if ferr != nil {
			return err
		}
		n = int64(fl)
	}
	*f = FlexInt(n)
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(f), 10)), nil
}

// Int64 returns the plain integer value.
func (f FlexInt) Int64() int64 { return int64(f) }

// Project is a sonet workgroup as returned by sonet_group.get.
type Project struct {
	ID   FlexInt `json:"ID"`
	Name string  `json:"NAME"`
}

// Task is a task row as returned by tasks.task.list. The new tasks API emits
// camelCase keys regardless of the upper-case names used in select and filter.
type Task struct {
	ID            FlexInt `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Deadline      string  `json:"deadline"`
	CreatedBy     FlexInt `json:"createdBy"`
	ResponsibleID FlexInt `json:"responsibleId"`
	GroupID       FlexInt `json:"groupId"`
	Status        FlexInt `json:"status"`
	Priority      FlexInt `json:"priority"`
}

// TaskRef identifies a freshly created task.
type TaskRef struct {
	ID        FlexInt `json:"id"`
	CreatedBy FlexInt `json:"createdBy"`
}

// User is a portal user as returned by user.get, user.search and user.current.
type User struct {
	ID         FlexInt `json:"ID"`
	Name       string  `json:"NAME"`
	LastName   string  `json:"LAST_NAME"`
	SecondName string  `json:"SECOND_NAME"`
}

// DisplayName joins first and last name, the form task listings label the
// responsible person with. The patronymic stays out of it.
func (u User) DisplayName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{u.Name, u.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// TaskFilter describes the server-side filter for tasks.task.list.
type TaskFilter struct {
	// GroupID restricts to one workgroup when set. Zero means the personal
	// bucket, so the field is a pointer to distinguish "unset" from 0.
	GroupID *int64

	// ExcludeZombie drops soft-deleted rows. Title resolution sets it so a
	// phrase never lands on a deleted task; the listing does not.
	ExcludeZombie bool

	// ExcludeCompleted drops tasks in the terminal status.
	ExcludeCompleted bool

	// DeadlineFrom / DeadlineTo bound the deadline, inclusive, using the
	// "YYYY-MM-DD HH:MM:SS" form the portal accepts in filters.
	DeadlineFrom string
	DeadlineTo   string
}

func (f TaskFilter) toMap() map[string]any {
	m := map[string]any{}
	if f.ExcludeZombie {
		m["ZOMBIE"] = "N"
	}
	if f.ExcludeCompleted {
		m["!STATUS"] = int(StatusCompleted)
	}
	if f.GroupID != nil {
		m["GROUP_ID"] = *f.GroupID
	}
	if f.DeadlineFrom != "" {
		m[">=DEADLINE"] = f.DeadlineFrom
	}
	if f.DeadlineTo != "" {
		m["<=DEADLINE"] = f.DeadlineTo
	}
	return m
}
