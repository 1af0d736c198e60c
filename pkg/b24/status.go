package b24

import "strings"

// Status is the portal's numeric task status.
type Status int

const (
	StatusNew             Status = 1
	StatusPending         Status = 2
	StatusInProgress      Status = 3
	StatusAwaitingControl Status = 4
	StatusCompleted       Status = 5
	StatusDeferred        Status = 6
)

// statusNames maps spoken status names, Russian and English, to codes.
// "ждет контроля" and "ожидает контроля" are treated as the same status.
var statusNames = map[string]Status{
	"новая":             StatusNew,
	"new":               StatusNew,
	"ждет выполнения":   StatusPending,
	"ожидает выполнения": StatusPending,
	"pending":           StatusPending,
	"выполняется":       StatusInProgress,
	"in progress":       StatusInProgress,
	"ждет контроля":     StatusAwaitingControl,
	"ожидает контроля":  StatusAwaitingControl,
	"awaiting control":  StatusAwaitingControl,
	"завершена":         StatusCompleted,
	"completed":         StatusCompleted,
	"отложена":          StatusDeferred,
	"deferred":          StatusDeferred,
}

var statusDisplay = map[Status]string{
	StatusNew:             "Новая",
	StatusPending:         "Ждет выполнения",
	StatusInProgress:      "Выполняется",
	StatusAwaitingControl: "Ждет контроля",
	StatusCompleted:       "Завершена",
	StatusDeferred:        "Отложена",
}

// ParseStatus maps a spoken status name to its portal code.
func ParseStatus(s string) (Status, bool) {
	st, ok := statusNames[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

// Name returns the display name for a status code, or "" for unknown codes.
func (s Status) Name() string {
	return statusDisplay[s]
}

// ParsePriority maps a spoken priority to the "0".."2" scale the portal
// expects. Bare digits pass through untouched. The second return reports
// whether the input was recognized; callers decide between defaulting and
// skipping the field.
func ParsePriority(s string) (string, bool) {
	p := strings.ToLower(strings.TrimSpace(s))
	switch p {
	case "0", "1", "2":
		return p, true
	case "высокий", "высокая", "high":
		return "2", true
	case "средний", "средняя", "normal", "medium":
		return "1", true
	case "низкий", "низкая", "low":
		return "0", true
	}
	return "", false
}
