package funcs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/taskbotics/b24bot/pkg/b24"
	"github.com/taskbotics/b24bot/pkg/deadline"
	boterrors "github.com/taskbotics/b24bot/pkg/errors"
	"github.com/taskbotics/b24bot/pkg/logging"
	"github.com/taskbotics/b24bot/pkg/resolve"
)

const personalBucket = "Личные (без проекта)"

// diskFileMarker matches the attachment placeholders the portal embeds in
// task descriptions, which mean nothing in chat output.
var diskFileMarker = regexp.MustCompile(`\[DISK FILE ID=[^\]]+\]`)

// ShowTasks lists open tasks, optionally narrowed to one project and one
// deadline day, grouped by project for chat rendering. The caller may pass
// the webhook directly instead of going through the directory.
func (s *Service) ShowTasks(ctx context.Context, args Args) Result {
	var backend Backend
	if webhook := args.String("webhook"); webhook != "" {
		backend = s.newBackend(webhook)
	} else {
		userName := args.String("nameUser")
		if userName == "" {
			return listError("Ошибка: Не удалось определить пользователя для поиска вебхука.")
		}
		webhook, err := s.dir.Lookup(ctx, userName)
		if err != nil {
			s.log.Warn("webhook lookup failed", logging.F("user", userName), logging.Err(err))
			return listError("Ошибка: Вебхук для пользователя '%s' не найден.", userName)
		}
		backend = s.newBackend(webhook)
	}
	r := resolve.New(backend)

	filter := b24.TaskFilter{ExcludeCompleted: true}

	projectName := args.String("project_name")
	if projectName != "" {
		id, err := r.ProjectID(ctx, projectName)
		if err != nil {
			s.log.Debug("project resolution failed", logging.F("project", projectName), logging.Err(err))
			return listError("Проект с названием '%s' не найден.", projectName)
		}
		filter.GroupID = &id
	}

	if expr := args.String("deadline"); expr != "" {
		day, ok := deadline.ParseRange(expr, s.now())
		if !ok {
			return listError("Не удалось распознать формат крайнего срока: '%s'. Используйте 'сегодня', 'завтра' или 'ДД.ММ.ГГГГ'.", expr)
		}
		filter.DeadlineFrom = day.Start
		filter.DeadlineTo = day.End
	}

	tasks, err := backend.Tasks(ctx, filter)
	if err != nil {
		s.log.Error("task listing failed", logging.Err(err), logging.F("transient", boterrors.IsRetryable(err)))
		return listError("%s", listingErrorMessage(err))
	}

	if len(tasks) == 0 {
		r := Result{Status: StatusSuccess, Message: "Задачи по вашим критериям не найдены.", listing: true}
		return r
	}

	// With an explicit project every task lands in that bucket; otherwise
	// tasks are labeled through the full workgroup map.
	var projectLabels map[int64]string
	if projectName == "" {
		projectLabels = s.projectLabels(ctx, backend)
	}

	names := resolve.NewNameCache(backend)
	grouped := make(map[string][]TaskView)
	for _, t := range tasks {
		label := projectName
		if label == "" {
			label = projectLabels[t.GroupID.Int64()]
			if label == "" {
				label = fmt.Sprintf("Проект ID:%d", t.GroupID.Int64())
			}
		}
		grouped[label] = append(grouped[label], TaskView{
			Title:       orDefault(t.Title, "Без названия"),
			Description: orDefault(strings.TrimSpace(diskFileMarker.ReplaceAllString(t.Description, "")), "Нет"),
			Deadline:    formatDeadline(t.Deadline),
			Status:      statusLabel(b24.Status(t.Status.Int64())),
			Responsible: s.responsibleLabel(ctx, names, t.ResponsibleID.Int64()),
		})
	}

	labels := make([]string, 0, len(grouped))
	for label := range grouped {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	projects := make([]ProjectTasks, 0, len(labels))
	for _, label := range labels {
		projects = append(projects, ProjectTasks{ProjectName: label, Tasks: grouped[label]})
	}
	return Result{Status: StatusSuccess, Projects: projects, listing: true}
}

// projectLabels maps workgroup ids to display names, with the zero id as
// the personal bucket. A failed fetch degrades to the bucket alone, so the
// listing still renders with id placeholders.
func (s *Service) projectLabels(ctx context.Context, backend Backend) map[int64]string {
	labels := map[int64]string{0: personalBucket}
	groups, err := backend.Groups(ctx)
	if err != nil {
		s.log.Warn("project map unavailable", logging.Err(err))
		return labels
	}
	for _, g := range groups {
		if g.ID.Int64() != 0 && g.Name != "" {
			labels[g.ID.Int64()] = g.Name
		}
	}
	return labels
}

func (s *Service) responsibleLabel(ctx context.Context, names *resolve.NameCache, id int64) string {
	if id == 0 {
		return "Не назначен"
	}
	name, err := names.Name(ctx, id)
	if err != nil {
		if boterrors.IsNoMatch(err) {
			return fmt.Sprintf("ID: %d", id)
		}
		return fmt.Sprintf("ID: %d (ошибка)", id)
	}
	return name
}

// formatDeadline turns the portal's ISO deadline into the DD.MM.YYYY HH:MM
// form used in chat. The portal appends a numeric zone offset.
func formatDeadline(raw string) string {
	if raw == "" {
		return "Не указан"
	}
	datePart, timePart, found := strings.Cut(raw, "T")
	if !found {
		return "Неверный формат даты"
	}
	timePart, _, _ = strings.Cut(timePart, "+")
	d := strings.Split(datePart, "-")
	tm := strings.Split(timePart, ":")
	if len(d) != 3 || len(tm) < 2 {
		return "Неверный формат даты"
	}
	return fmt.Sprintf("%s.%s.%s %s:%s", d[2], d[1], d[0], tm[0], tm[1])
}

func statusLabel(st b24.Status) string {
	if name := st.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("Неизвестный статус (%d)", int(st))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func listingErrorMessage(err error) string {
	var be *boterrors.BackendError
	if errors.As(err, &be) && be.Code != "" {
		desc := be.Description
		if desc == "" {
			desc = "Нет описания"
		}
		return fmt.Sprintf("Ошибка API Bitrix24: %s", desc)
	}
	return fmt.Sprintf("Ошибка сети при обращении к Bitrix24: %v", err)
}
