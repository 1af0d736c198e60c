package funcs

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskbotics/b24bot/pkg/b24"
	boterrors "github.com/taskbotics/b24bot/pkg/errors"
)

var fixedNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeDirectory struct {
	webhooks map[string]string
}

func (d *fakeDirectory) Lookup(_ context.Context, name string) (string, error) {
	if w, ok := d.webhooks[name]; ok {
		return w, nil
	}
	return "", boterrors.ErrCredentialNotFound
}

// fakeBackend serves canned portal data and records every mutation it saw.
type fakeBackend struct {
	current    b24.User
	currentErr error

	groups    []b24.Project
	groupsErr error

	users      []b24.User
	searchHits []b24.User

	tasks      []b24.Task
	tasksErr   error
	lastFilter b24.TaskFilter

	addRef    b24.TaskRef
	addErr    error
	addFields map[string]any

	updateRef    b24.TaskRef
	updateErr    error
	updatedID    int64
	updateFields map[string]any

	deleteErr error
	deletedID int64

	createdGroupID int64
	createGroupErr error
	groupFields    map[string]any
}

func (f *fakeBackend) CurrentUser(context.Context) (b24.User, error) {
	return f.current, f.currentErr
}

func (f *fakeBackend) Groups(context.Context) ([]b24.Project, error) {
	return f.groups, f.groupsErr
}

func (f *fakeBackend) Users(context.Context) ([]b24.User, error) {
	return f.users, nil
}

func (f *fakeBackend) UserByID(_ context.Context, id int64) (b24.User, error) {
	for _, u := range f.users {
		if u.ID.Int64() == id {
			return u, nil
		}
	}
	return b24.User{}, boterrors.ErrNoMatch
}

func (f *fakeBackend) SearchUsers(context.Context, string) ([]b24.User, error) {
	return f.searchHits, nil
}

func (f *fakeBackend) Tasks(_ context.Context, filter b24.TaskFilter) ([]b24.Task, error) {
	f.lastFilter = filter
	return f.tasks, f.tasksErr
}

func (f *fakeBackend) AddTask(_ context.Context, fields map[string]any) (b24.TaskRef, error) {
	f.addFields = fields
	return f.addRef, f.addErr
}

func (f *fakeBackend) UpdateTask(_ context.Context, taskID int64, fields map[string]any) (b24.TaskRef, error) {
	f.updatedID = taskID
	f.updateFields = fields
	return f.updateRef, f.updateErr
}

func (f *fakeBackend) DeleteTask(_ context.Context, taskID int64) error {
	f.deletedID = taskID
	return f.deleteErr
}

func (f *fakeBackend) CreateGroup(_ context.Context, fields map[string]any) (int64, error) {
	f.groupFields = fields
	return f.createdGroupID, f.createGroupErr
}

func (f *fakeBackend) TaskURL(creatorID, taskID int64) string {
	return fmt.Sprintf("https://portal.example/company/personal/user/%d/tasks/task/view/%d/", creatorID, taskID)
}

func (f *fakeBackend) GroupURL(groupID int64) string {
	return fmt.Sprintf("https://portal.example/workgroups/group/%d/", groupID)
}

func newTestService(backend *fakeBackend) *Service {
	return New(Deps{
		Directory: &fakeDirectory{webhooks: map[string]string{
			"Анна": "https://portal.example/rest/1/secret/",
		}},
		NewBackend: func(string) Backend { return backend },
		Now:        func() time.Time { return fixedNow },
	})
}

func TestArgsString(t *testing.T) {
	args := Args{
		"title":    "Прозвонить клиентов",
		"priority": float64(2),
		"empty":    nil,
	}
	assert.Equal(t, "Прозвонить клиентов", args.String("title"))
	assert.Equal(t, "2", args.String("priority"))
	assert.Equal(t, "", args.String("empty"))
	assert.Equal(t, "", args.String("absent"))
}

func TestArgsStringList(t *testing.T) {
	args := Args{
		"directors": []any{"Анна", "Пётр"},
		"team":      "Мария, Иван,  ",
	}
	assert.Equal(t, []string{"Анна", "Пётр"}, args.StringList("directors"))
	assert.Equal(t, []string{"Мария", "Иван"}, args.StringList("team"))
	assert.Nil(t, args.StringList("absent"))
}

func TestResultMarshalMutation(t *testing.T) {
	raw, err := json.Marshal(errorf("Необходимо указать название задачи."))
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":"error","message":"Необходимо указать название задачи."}`, string(raw))
}

func TestResultMarshalListing(t *testing.T) {
	r := Result{Status: StatusSuccess, Message: "Задачи по вашим критериям не найдены.", listing: true}
	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","projects":[],"message":"Задачи по вашим критериям не найдены."}`, string(raw))

	raw, err = json.Marshal(listError("Проект с названием 'X' не найден."))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","message":"Проект с названием 'X' не найден."}`, string(raw))
}

func TestMissingUserName(t *testing.T) {
	svc := newTestService(&fakeBackend{})

	for _, op := range []func(context.Context, Args) Result{
		svc.CreateTask, svc.UpdateTask, svc.DeleteTask, svc.CreateProject,
	} {
		res := op(context.Background(), Args{})
		assert.False(t, res.OK())
		assert.Equal(t, "Техническая ошибка: не было передано имя пользователя (nameUser).", res.Message)
	}
}

func TestUnknownUser(t *testing.T) {
	svc := newTestService(&fakeBackend{})

	res := svc.CreateTask(context.Background(), Args{"nameUser": "Никто", "title": "Задача"})
	assert.False(t, res.OK())
	assert.Equal(t, "Не удалось найти вебхук для пользователя 'Никто'. Убедитесь, что вы внесены в базу.", res.Message)
}
