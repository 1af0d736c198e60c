package funcs

import (
	"context"

	boterrors "github.com/taskbotics/b24bot/pkg/errors"
	"github.com/taskbotics/b24bot/pkg/logging"
	"github.com/taskbotics/b24bot/pkg/resolve"
)

// DeleteTask finds a task by its approximate title and deletes it. Unlike
// updates, completed tasks stay in the search scope so finished work can
// still be cleaned up.
func (s *Service) DeleteTask(ctx context.Context, args Args) Result {
	backend, res, ok := s.backendFor(ctx, args)
	if !ok {
		return res
	}
	r := resolve.New(backend)

	title := args.String("title")
	if title == "" {
		return errorf("Необходимо указать 'title' для поиска и удаления задачи.")
	}

	projectName := args.String("project_name")
	var groupID *int64
	if projectName != "" {
		id, err := r.ProjectID(ctx, projectName)
		if err != nil {
			s.log.Debug("project resolution failed", logging.F("project", projectName), logging.Err(err))
			return errorf("Проект с названием, похожим на '%s', не найден. Удаление отменено.", projectName)
		}
		groupID = &id
	}

	taskID, err := r.TaskID(ctx, title, groupID, false)
	if err != nil {
		s.log.Debug("task resolution failed", logging.F("title", title), logging.Err(err))
		if projectName != "" {
			return errorf("Задача с названием, похожим на '%s', не найдена в проекте '%s'.", title, projectName)
		}
		return errorf("Задача с названием, похожим на '%s', не найдена.", title)
	}

	if err := backend.DeleteTask(ctx, taskID); err != nil {
		s.log.Error("task deletion failed", logging.F("task_id", taskID), logging.Err(err), logging.F("transient", boterrors.IsRetryable(err)))
		return errorf("Произошла ошибка при удалении задачи #%d в Bitrix24.", taskID)
	}

	s.log.Info("task deleted", logging.F("task_id", taskID))
	return success("✅ Задача #%d ('%s') успешно удалена.", taskID, title)
}
