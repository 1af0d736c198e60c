package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskbotics/b24bot/pkg/b24"
	boterrors "github.com/taskbotics/b24bot/pkg/errors"
)

// fakeBackend serves canned portal data and records the filters it saw.
type fakeBackend struct {
	groups      []b24.Project
	users       []b24.User
	searchHits  []b24.User
	tasks       []b24.Task
	err         error
	lastFilter  b24.TaskFilter
	searchQuery string
}

func (f *fakeBackend) Groups(context.Context) ([]b24.Project, error) {
	return f.groups, f.err
}

func (f *fakeBackend) Users(context.Context) ([]b24.User, error) {
	return f.users, f.err
}

func (f *fakeBackend) SearchUsers(_ context.Context, query string) ([]b24.User, error) {
	f.searchQuery = query
	return f.searchHits, f.err
}

func (f *fakeBackend) Tasks(_ context.Context, filter b24.TaskFilter) ([]b24.Task, error) {
	f.lastFilter = filter
	return f.tasks, f.err
}

func TestProjectID(t *testing.T) {
	backend := &fakeBackend{groups: []b24.Project{
		{ID: 1, Name: "Редизайн сайта"},
		{ID: 2, Name: "Мобильное приложение"},
	}}
	r := New(backend)

	id, err := r.ProjectID(context.Background(), "проект редизайн")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestProjectIDNoMatch(t *testing.T) {
	backend := &fakeBackend{groups: []b24.Project{{ID: 1, Name: "Редизайн сайта"}}}
	r := New(backend)

	_, err := r.ProjectID(context.Background(), "бухгалтерия")
	assert.True(t, boterrors.IsNoMatch(err))
}

func TestProjectIDBackendError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	r := New(backend)

	_, err := r.ProjectID(context.Background(), "проект")
	require.Error(t, err)
	assert.False(t, boterrors.IsNoMatch(err))
}

func TestTaskIDScopedToGroup(t *testing.T) {
	backend := &fakeBackend{tasks: []b24.Task{
		{ID: 10, Title: "Починить логин на сайте"},
		{ID: 11, Title: "Обновить зависимости"},
	}}
	r := New(backend)

	groupID := int64(5)
	id, err := r.TaskID(context.Background(), "таск про логин", &groupID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)

	require.NotNil(t, backend.lastFilter.GroupID)
	assert.Equal(t, int64(5), *backend.lastFilter.GroupID)
	assert.True(t, backend.lastFilter.ExcludeZombie)
	assert.True(t, backend.lastFilter.ExcludeCompleted)
}

func TestTaskIDUnscoped(t *testing.T) {
	backend := &fakeBackend{tasks: []b24.Task{{ID: 10, Title: "Починить логин"}}}
	r := New(backend)

	_, err := r.TaskID(context.Background(), "логин", nil, false)
	require.NoError(t, err)
	assert.Nil(t, backend.lastFilter.GroupID)
	assert.False(t, backend.lastFilter.ExcludeCompleted)
}

func TestTaskIDNoMatch(t *testing.T) {
	backend := &fakeBackend{}
	r := New(backend)

	_, err := r.TaskID(context.Background(), "что угодно", nil, true)
	assert.True(t, boterrors.IsNoMatch(err))
}

func TestUserIDFirstHitWins(t *testing.T) {
	backend := &fakeBackend{searchHits: []b24.User{
		{ID: 7, Name: "Пётр", LastName: "Сидоров"},
		{ID: 9, Name: "Пётр", LastName: "Смирнов"},
	}}
	r := New(backend)

	id, err := r.UserID(context.Background(), "Пётр")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "Пётр", backend.searchQuery)
}

func TestUserIDNoMatch(t *testing.T) {
	r := New(&fakeBackend{})

	_, err := r.UserID(context.Background(), "Никто Таков")
	assert.True(t, boterrors.IsNoMatch(err))

	_, err = r.UserID(context.Background(), "   ")
	assert.True(t, boterrors.IsNoMatch(err))
}

func TestUserIDs(t *testing.T) {
	backend := &fakeBackend{users: []b24.User{
		{ID: 1, Name: "Анна", LastName: "Иванова"},
		{ID: 2, Name: "Пётр", LastName: "Сидоров"},
		{ID: 3, Name: "Мария", LastName: "Петрова"},
	}}
	r := New(backend)

	ids, err := r.UserIDs(context.Background(), []string{"иванова", "сидоров", "никто"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestUserIDsFirstHitPerName(t *testing.T) {
	backend := &fakeBackend{users: []b24.User{
		{ID: 1, Name: "Анна", LastName: "Иванова"},
		{ID: 2, Name: "Анна", LastName: "Ильина"},
	}}
	r := New(backend)

	ids, err := r.UserIDs(context.Background(), []string{"Анна"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestUserIDsFieldsCheckedSeparately(t *testing.T) {
	backend := &fakeBackend{users: []b24.User{
		{ID: 1, Name: "Иван", SecondName: "Олегович", LastName: "Петров"},
	}}
	r := New(backend)

	// A needle spanning first and last name matches no single field.
	ids, err := r.UserIDs(context.Background(), []string{"Иван Петров"})
	require.NoError(t, err)
	assert.Nil(t, ids)

	// The patronymic participates on its own.
	ids, err = r.UserIDs(context.Background(), []string{"олегович"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestUserIDsEmptyList(t *testing.T) {
	r := New(&fakeBackend{})

	ids, err := r.UserIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, ids)
}

// fakeUserSource counts lookups so caching is observable.
type fakeUserSource struct {
	users map[int64]b24.User
	calls int
}

func (f *fakeUserSource) UserByID(_ context.Context, id int64) (b24.User, error) {
	f.calls++
	u, ok := f.users[id]
	if !ok {
		return b24.User{}, boterrors.ErrNoMatch
	}
	return u, nil
}

func TestNameCache(t *testing.T) {
	src := &fakeUserSource{users: map[int64]b24.User{
		7: {ID: 7, Name: "Пётр", SecondName: "Сергеевич", LastName: "Сидоров"},
	}}
	cache := NewNameCache(src)

	name, err := cache.Name(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Пётр Сидоров", name)

	name, err = cache.Name(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Пётр Сидоров", name)
	assert.Equal(t, 1, src.calls)
}

func TestNameCacheMiss(t *testing.T) {
	src := &fakeUserSource{}
	cache := NewNameCache(src)

	_, err := cache.Name(context.Background(), 99)
	assert.True(t, boterrors.IsNoMatch(err))

	// Failures are not cached.
	_, _ = cache.Name(context.Background(), 99)
	assert.Equal(t, 2, src.calls)
}
