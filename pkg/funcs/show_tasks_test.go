package funcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskbotics/b24bot/pkg/b24"
	boterrors "github.com/taskbotics/b24bot/pkg/errors"
)

func TestShowTasks(t *testing.T) {
	backend := &fakeBackend{
		groups: []b24.Project{{ID: 5, Name: "Редизайн сайта"}},
		users:  []b24.User{{ID: 7, Name: "Пётр", LastName: "Сидоров"}},
		tasks: []b24.Task{
			{
				ID: 16, Title: "Обновить зависимости",
				Description:   "Список пакетов [DISK FILE ID=n123]",
				Deadline:      "2024-03-11T18:00:00+03:00",
				Status:        3,
				ResponsibleID: 7,
				GroupID:       5,
			},
			{
				ID: 15, Title: "Прозвонить клиентов",
				Status:        2,
				ResponsibleID: 7,
			},
		},
	}
	svc := newTestService(backend)

	res := svc.ShowTasks(context.Background(), Args{"nameUser": "Анна"})
	require.True(t, res.OK())
	require.Len(t, res.Projects, 2)

	// Groups come out sorted by name; the personal bucket sorts first here.
	personal := res.Projects[0]
	assert.Equal(t, "Личные (без проекта)", personal.ProjectName)
	require.Len(t, personal.Tasks, 1)
	assert.Equal(t, "Прозвонить клиентов", personal.Tasks[0].Title)
	assert.Equal(t, "Нет", personal.Tasks[0].Description)
	assert.Equal(t, "Не указан", personal.Tasks[0].Deadline)
	assert.Equal(t, "Ждет выполнения", personal.Tasks[0].Status)
	assert.Equal(t, "Пётр Сидоров", personal.Tasks[0].Responsible)

	redesign := res.Projects[1]
	assert.Equal(t, "Редизайн сайта", redesign.ProjectName)
	require.Len(t, redesign.Tasks, 1)
	assert.Equal(t, "Список пакетов", redesign.Tasks[0].Description)
	assert.Equal(t, "11.03.2024 18:00", redesign.Tasks[0].Deadline)
	assert.Equal(t, "Выполняется", redesign.Tasks[0].Status)

	assert.True(t, backend.lastFilter.ExcludeCompleted)
	// The listing sends only the status exclusion; soft-deleted rows are
	// filtered out on the resolution path, not here.
	assert.False(t, backend.lastFilter.ExcludeZombie)
}

func TestShowTasksDirectWebhook(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(backend)

	// A webhook in the arguments bypasses the directory entirely.
	res := svc.ShowTasks(context.Background(), Args{
		"webhook": "https://portal.example/rest/9/other/",
	})
	require.True(t, res.OK())
	assert.Equal(t, "Задачи по вашим критериям не найдены.", res.Message)
	assert.Empty(t, res.Projects)
}

func TestShowTasksMissingUser(t *testing.T) {
	svc := newTestService(&fakeBackend{})

	res := svc.ShowTasks(context.Background(), Args{})
	assert.False(t, res.OK())
	assert.Equal(t, "Ошибка: Не удалось определить пользователя для поиска вебхука.", res.Message)

	res = svc.ShowTasks(context.Background(), Args{"nameUser": "Никто"})
	assert.False(t, res.OK())
	assert.Equal(t, "Ошибка: Вебхук для пользователя 'Никто' не найден.", res.Message)
}

func TestShowTasksProjectScope(t *testing.T) {
	backend := &fakeBackend{
		groups: []b24.Project{{ID: 5, Name: "Редизайн сайта"}},
		tasks:  []b24.Task{{ID: 15, Title: "Прозвонить клиентов", GroupID: 5}},
	}
	svc := newTestService(backend)

	res := svc.ShowTasks(context.Background(), Args{
		"nameUser":     "Анна",
		"project_name": "редизайн",
	})
	require.True(t, res.OK())
	require.Len(t, res.Projects, 1)
	// The caller's own wording labels the group.
	assert.Equal(t, "редизайн", res.Projects[0].ProjectName)
	require.NotNil(t, backend.lastFilter.GroupID)
	assert.Equal(t, int64(5), *backend.lastFilter.GroupID)
}

func TestShowTasksUnknownProject(t *testing.T) {
	svc := newTestService(&fakeBackend{})

	res := svc.ShowTasks(context.Background(), Args{
		"nameUser":     "Анна",
		"project_name": "бухгалтерия",
	})
	assert.False(t, res.OK())
	assert.Equal(t, "Проект с названием 'бухгалтерия' не найден.", res.Message)
}

func TestShowTasksDeadlineFilter(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(backend)

	res := svc.ShowTasks(context.Background(), Args{
		"nameUser": "Анна",
		"deadline": "завтра",
	})
	require.True(t, res.OK())
	assert.Equal(t, "2024-03-11 00:00:00", backend.lastFilter.DeadlineFrom)
	assert.Equal(t, "2024-03-11 23:59:59", backend.lastFilter.DeadlineTo)
}

func TestShowTasksBadDeadline(t *testing.T) {
	svc := newTestService(&fakeBackend{})

	res := svc.ShowTasks(context.Background(), Args{
		"nameUser": "Анна",
		"deadline": "через пару дней",
	})
	assert.False(t, res.OK())
	assert.Equal(t, "Не удалось распознать формат крайнего срока: 'через пару дней'. Используйте 'сегодня', 'завтра' или 'ДД.ММ.ГГГГ'.", res.Message)
}

func TestShowTasksBackendError(t *testing.T) {
	backend := &fakeBackend{tasksErr: &boterrors.BackendError{
		Method:      "tasks.task.list",
		Code:        "QUERY_LIMIT_EXCEEDED",
		Description: "Слишком много запросов",
	}}
	svc := newTestService(backend)

	res := svc.ShowTasks(context.Background(), Args{"nameUser": "Анна"})
	assert.False(t, res.OK())
	assert.Equal(t, "Ошибка API Bitrix24: Слишком много запросов", res.Message)
}

func TestShowTasksUnknownResponsible(t *testing.T) {
	backend := &fakeBackend{
		tasks: []b24.Task{{ID: 15, Title: "Задача", ResponsibleID: 99}},
	}
	svc := newTestService(backend)

	res := svc.ShowTasks(context.Background(), Args{"nameUser": "Анна"})
	require.True(t, res.OK())
	require.Len(t, res.Projects, 1)
	assert.Equal(t, "ID: 99", res.Projects[0].Tasks[0].Responsible)
}

func TestFormatDeadline(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Не указан"},
		{"2024-03-11T18:00:00+03:00", "11.03.2024 18:00"},
		{"2024-03-11T18:30:00", "11.03.2024 18:30"},
		{"мусор", "Неверный формат даты"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDeadline(tt.in), "input %q", tt.in)
	}
}
