package funcs

import (
	"context"

	"github.com/taskbotics/b24bot/pkg/b24"
	"github.com/taskbotics/b24bot/pkg/deadline"
	boterrors "github.com/taskbotics/b24bot/pkg/errors"
	"github.com/taskbotics/b24bot/pkg/logging"
	"github.com/taskbotics/b24bot/pkg/resolve"
)

// UpdateTask finds a task by its approximate title and applies the supplied
// field changes. Fields that fail to resolve or parse are skipped with a
// warning rather than failing the whole update; completed tasks are never
// update targets.
func (s *Service) UpdateTask(ctx context.Context, args Args) Result {
	backend, res, ok := s.backendFor(ctx, args)
	if !ok {
		return res
	}
	r := resolve.New(backend)

	findTitle := args.String("find_title")
	if findTitle == "" {
		return errorf("Необходимо указать 'find_title' для поиска задачи.")
	}

	projectName := args.String("project")
	var groupID *int64
	if projectName != "" {
		id, err := r.ProjectID(ctx, projectName)
		if err != nil {
			s.log.Debug("project resolution failed", logging.F("project", projectName), logging.Err(err))
			return errorf("Проект с названием, похожим на '%s', не найден. Обновление отменено.", projectName)
		}
		groupID = &id
	}

	taskID, err := r.TaskID(ctx, findTitle, groupID, true)
	if err != nil {
		s.log.Debug("task resolution failed", logging.F("find_title", findTitle), logging.Err(err))
		if projectName != "" {
			return errorf("Задача с названием, похожим на '%s', не найдена в проекте '%s'.", findTitle, projectName)
		}
		return errorf("Задача с названием, похожим на '%s', не найдена.", findTitle)
	}
	s.log.Debug("task resolved", logging.F("find_title", findTitle), logging.F("task_id", taskID))

	fields := map[string]any{}
	if args.Has("title") {
		fields["TITLE"] = args.String("title")
	}
	if args.Has("description") {
		fields["DESCRIPTION"] = args.String("description")
	}
	if groupID != nil {
		fields["GROUP_ID"] = *groupID
	}
	if args.Has("responsible") {
		if id, err := r.UserID(ctx, args.String("responsible")); err == nil {
			fields["RESPONSIBLE_ID"] = id
		} else {
			s.log.Warn("responsible not found, field skipped",
				logging.F("responsible", args.String("responsible")), logging.Err(err))
		}
	}
	if args.Has("deadline") {
		if due, ok := deadline.Parse(args.String("deadline"), s.now()); ok {
			fields["DEADLINE"] = due
		} else {
			s.log.Warn("deadline not recognized, field skipped", logging.F("deadline", args.String("deadline")))
		}
	}
	if args.Has("status") {
		if st, ok := b24.ParseStatus(args.String("status")); ok {
			fields["STATUS"] = int(st)
		} else {
			s.log.Warn("status not recognized, field skipped", logging.F("status", args.String("status")))
		}
	}
	if args.Has("priority") {
		if p, ok := b24.ParsePriority(args.String("priority")); ok {
			fields["PRIORITY"] = p
		} else {
			s.log.Warn("priority not recognized, field skipped", logging.F("priority", args.String("priority")))
		}
	}

	if len(fields) == 0 {
		return errorf("Не передано ни одного поля для обновления (title, description, project, responsible, deadline, status, priority).")
	}

	ref, err := backend.UpdateTask(ctx, taskID, fields)
	if err != nil || ref.ID.Int64() == 0 {
		s.log.Error("task update failed", logging.F("task_id", taskID), logging.Err(err), logging.F("transient", boterrors.IsRetryable(err)))
		return errorf("Произошла ошибка при обновлении задачи #%d в Bitrix24.", taskID)
	}

	link := backend.TaskURL(ref.CreatedBy.Int64(), ref.ID.Int64())
	s.log.Info("task updated", logging.F("task_id", ref.ID.Int64()))
	return success("✅ Задача #%d успешно обновлена!\n\n🔗 Ссылка: %s", ref.ID.Int64(), link)
}
