package funcs

import (
	"context"

	boterrors "github.com/taskbotics/b24bot/pkg/errors"
	"github.com/taskbotics/b24bot/pkg/logging"
	"github.com/taskbotics/b24bot/pkg/resolve"
)

// CreateProject creates a workgroup owned by the webhook owner. Directors
// and team members are resolved by substring scan over the user directory;
// when no directors are named the owner leads the project alone.
func (s *Service) CreateProject(ctx context.Context, args Args) Result {
	backend, res, ok := s.backendFor(ctx, args)
	if !ok {
		return res
	}
	r := resolve.New(backend)

	name := args.String("name")
	if name == "" {
		return errorf("Необходимо указать название проекта.")
	}

	current, err := backend.CurrentUser(ctx)
	if err != nil || current.ID.Int64() == 0 {
		s.log.Error("current user unavailable", logging.Err(err))
		return errorf("Не удалось определить текущего пользователя.")
	}
	ownerID := current.ID.Int64()

	directorIDs := []int64{ownerID}
	if directors := args.StringList("directors"); len(directors) > 0 {
		directorIDs, err = r.UserIDs(ctx, directors)
		if err != nil || len(directorIDs) == 0 {
			s.log.Warn("directors not resolved", logging.F("directors", directors), logging.Err(err))
			return errorf("Не удалось найти указанных руководителей.")
		}
	}

	var teamIDs []int64
	if team := args.StringList("team"); len(team) > 0 {
		teamIDs, err = r.UserIDs(ctx, team)
		if err != nil || len(teamIDs) == 0 {
			s.log.Warn("team not resolved", logging.F("team", team), logging.Err(err))
			return errorf("Не удалось найти указанных участников команды.")
		}
	}

	fields := map[string]any{
		"NAME":        name,
		"VISIBLE":     "Y",
		"OPENED":      "Y",
		"CLOSED":      "N",
		"SUBJECT_ID":  1,
		"KEYWORDS":    "",
		"DESCRIPTION": "",
		"PROJECT":     "Y",
		"IS_EXTRANET": "N",
		"OWNER_ID":    ownerID,
		"MEMBERS":     append(directorIDs, teamIDs...),
	}

	groupID, err := backend.CreateGroup(ctx, fields)
	if err != nil || groupID == 0 {
		s.log.Error("project creation failed", logging.Err(err), logging.F("transient", boterrors.IsRetryable(err)))
		return errorf("Произошла ошибка при создании проекта в Bitrix24.")
	}

	link := backend.GroupURL(groupID)
	s.log.Info("project created", logging.F("group_id", groupID), logging.F("link", link))
	return success("✅ Проект «%s» успешно создан!\n\n🔗 Ссылка: %s", name, link)
}
