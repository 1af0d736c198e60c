package funcs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskbotics/b24bot/pkg/b24"
)

func TestCreateProject(t *testing.T) {
	backend := &fakeBackend{
		current: b24.User{ID: 42, Name: "Анна", LastName: "Иванова"},
		users: []b24.User{
			{ID: 42, Name: "Анна", LastName: "Иванова"},
			{ID: 7, Name: "Пётр", LastName: "Сидоров"},
			{ID: 9, Name: "Мария", LastName: "Петрова"},
		},
		createdGroupID: 77,
	}
	svc := newTestService(backend)

	res := svc.CreateProject(context.Background(), Args{
		"nameUser":  "Анна",
		"name":      "Запуск рассылки",
		"directors": []any{"Сидоров"},
		"team":      "Петрова",
	})

	require.True(t, res.OK())
	assert.Contains(t, res.Message, "✅ Проект «Запуск рассылки» успешно создан!")
	assert.Contains(t, res.Message, "https://portal.example/workgroups/group/77/")

	assert.Equal(t, "Запуск рассылки", backend.groupFields["NAME"])
	assert.Equal(t, "Y", backend.groupFields["VISIBLE"])
	assert.Equal(t, "Y", backend.groupFields["OPENED"])
	assert.Equal(t, "N", backend.groupFields["CLOSED"])
	assert.Equal(t, 1, backend.groupFields["SUBJECT_ID"])
	assert.Equal(t, "Y", backend.groupFields["PROJECT"])
	assert.Equal(t, "N", backend.groupFields["IS_EXTRANET"])
	assert.Equal(t, int64(42), backend.groupFields["OWNER_ID"])
	assert.Equal(t, []int64{7, 9}, backend.groupFields["MEMBERS"])
}

func TestCreateProjectOwnerLeadsByDefault(t *testing.T) {
	backend := &fakeBackend{
		current:        b24.User{ID: 42, Name: "Анна"},
		createdGroupID: 78,
	}
	svc := newTestService(backend)

	res := svc.CreateProject(context.Background(), Args{
		"nameUser": "Анна",
		"name":     "Личный проект",
	})

	require.True(t, res.OK())
	assert.Equal(t, []int64{42}, backend.groupFields["MEMBERS"])
}

func TestCreateProjectMissingName(t *testing.T) {
	svc := newTestService(&fakeBackend{})

	res := svc.CreateProject(context.Background(), Args{"nameUser": "Анна"})
	assert.False(t, res.OK())
	assert.Equal(t, "Необходимо указать название проекта.", res.Message)
}

func TestCreateProjectNoCurrentUser(t *testing.T) {
	backend := &fakeBackend{currentErr: errors.New("portal down")}
	svc := newTestService(backend)

	res := svc.CreateProject(context.Background(), Args{"nameUser": "Анна", "name": "Проект"})
	assert.False(t, res.OK())
	assert.Equal(t, "Не удалось определить текущего пользователя.", res.Message)
}

func TestCreateProjectUnknownDirectors(t *testing.T) {
	backend := &fakeBackend{current: b24.User{ID: 42}}
	svc := newTestService(backend)

	res := svc.CreateProject(context.Background(), Args{
		"nameUser":  "Анна",
		"name":      "Проект",
		"directors": []any{"Никто Таков"},
	})
	assert.False(t, res.OK())
	assert.Equal(t, "Не удалось найти указанных руководителей.", res.Message)
}

func TestCreateProjectUnknownTeam(t *testing.T) {
	backend := &fakeBackend{
		current: b24.User{ID: 42},
		users:   []b24.User{{ID: 7, Name: "Пётр", LastName: "Сидоров"}},
	}
	svc := newTestService(backend)

	res := svc.CreateProject(context.Background(), Args{
		"nameUser":  "Анна",
		"name":      "Проект",
		"directors": []any{"Сидоров"},
		"team":      []any{"Никто Таков"},
	})
	assert.False(t, res.OK())
	assert.Equal(t, "Не удалось найти указанных участников команды.", res.Message)
}

func TestCreateProjectBackendFailure(t *testing.T) {
	backend := &fakeBackend{
		current:        b24.User{ID: 42},
		createGroupErr: errors.New("boom"),
	}
	svc := newTestService(backend)

	res := svc.CreateProject(context.Background(), Args{"nameUser": "Анна", "name": "Проект"})
	assert.False(t, res.OK())
	assert.Equal(t, "Произошла ошибка при создании проекта в Bitrix24.", res.Message)
}
