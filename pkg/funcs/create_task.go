package funcs

import (
	"context"

	"github.com/taskbotics/b24bot/pkg/b24"
	"github.com/taskbotics/b24bot/pkg/deadline"
	boterrors "github.com/taskbotics/b24bot/pkg/errors"
	"github.com/taskbotics/b24bot/pkg/logging"
	"github.com/taskbotics/b24bot/pkg/resolve"
)

// CreateTask creates a task from the spoken arguments. The project and the
// responsible person are resolved from free text; an unparseable deadline
// does not block creation, the field is simply left off.
func (s *Service) CreateTask(ctx context.Context, args Args) Result {
	backend, res, ok := s.backendFor(ctx, args)
	if !ok {
		return res
	}
	r := resolve.New(backend)

	title := args.String("title")
	if title == "" {
		return errorf("Необходимо указать название задачи.")
	}

	var groupID *int64
	if projectName := args.String("project"); projectName != "" {
		id, err := r.ProjectID(ctx, projectName)
		if err != nil {
			s.log.Debug("project resolution failed", logging.F("project", projectName), logging.Err(err))
			return errorf("Проект, похожий на '%s', не найден. Задача не была создана.", projectName)
		}
		s.log.Debug("project resolved", logging.F("project", projectName), logging.F("group_id", id))
		groupID = &id
	}

	var responsibleID int64
	if responsibleName := args.String("responsible"); responsibleName != "" {
		id, err := r.UserID(ctx, responsibleName)
		if err != nil {
			s.log.Debug("responsible resolution failed", logging.F("responsible", responsibleName), logging.Err(err))
			return errorf("Пользователь '%s' не найден. Проверьте имя.", responsibleName)
		}
		responsibleID = id
	} else {
		// No assignee named, the task goes to the webhook owner.
		current, err := backend.CurrentUser(ctx)
		if err != nil || current.ID.Int64() == 0 {
			responsibleID = s.fallbackID
			s.log.Warn("current user unavailable, using fallback assignee",
				logging.F("fallback_id", responsibleID), logging.Err(err))
		} else {
			responsibleID = current.ID.Int64()
		}
	}

	fields := map[string]any{
		"TITLE":          title,
		"DESCRIPTION":    args.String("description"),
		"RESPONSIBLE_ID": responsibleID,
	}
	if groupID != nil {
		fields["GROUP_ID"] = *groupID
	}
	if expr := args.String("deadline"); expr != "" {
		if due, ok := deadline.Parse(expr, s.now()); ok {
			fields["DEADLINE"] = due
		} else {
			s.log.Warn("deadline not recognized, creating without one", logging.F("deadline", expr))
		}
	}
	priority, ok := b24.ParsePriority(args.String("priority"))
	if !ok {
		priority = "1"
	}
	fields["PRIORITY"] = priority

	ref, err := backend.AddTask(ctx, fields)
	if err != nil || ref.ID.Int64() == 0 {
		s.log.Error("task creation failed", logging.Err(err), logging.F("transient", boterrors.IsRetryable(err)))
		return errorf("Произошла ошибка при создании задачи в Bitrix24.")
	}

	link := backend.TaskURL(ref.CreatedBy.Int64(), ref.ID.Int64())
	s.log.Info("task created", logging.F("task_id", ref.ID.Int64()), logging.F("link", link))
	return success("✅ Задача «%s» успешно создана!\n\n🔗 Ссылка: %s", title, link)
}
