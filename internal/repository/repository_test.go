package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"planner/internal/model"
)

func TestTemplateRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(newTestDB(t))

	tpl := &model.RecurringTemplate{
		ProjectID: 1,
		Title:     "Standup notes",
		Schedule:  model.Schedule{Type: model.ScheduleWeekly, DaysOfWeek: []int{1, 3}, Interval: 2},
		Defaults:  model.TemplateDefaults{NextStep: "share", Tags: []string{"team"}},
		Active:    true,
	}
	require.NoError(t, repo.Create(ctx, tpl))
	require.NotEmpty(t, tpl.ID)

	got, err := repo.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, got.Schedule.DaysOfWeek)
	assert.Equal(t, []string{"team"}, got.Defaults.Tags)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, repo.SetActive(ctx, tpl.ID, false))
	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	got.Title = "Standup summary"
	got.Active = true
	require.NoError(t, repo.Update(ctx, got))
	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Standup summary", active[0].Title)

	_, err = repo.Delete(ctx, tpl.ID, false)
	require.NoError(t, err)
	_, err = repo.Delete(ctx, tpl.ID, false)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.SetActive(ctx, tpl.ID, true), gorm.ErrRecordNotFound)
}

func seedTemplates(t *testing.T, repo *TemplateRepository, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, repo.Create(context.Background(), &model.RecurringTemplate{
			ID:        id,
			ProjectID: 1,
			Title:     "template " + id,
			Schedule:  model.Schedule{Type: model.ScheduleDaily},
			Active:    true,
		}))
	}
}

func TestTaskRepositoryRecurrenceQueries(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	templates := NewTemplateRepository(db)
	seedTemplates(t, templates, "a", "b")

	due := time.Date(2024, time.June, 9, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ProjectID: 1, Title: "a1", Status: model.StatusDoing, DueDate: &due, Extras: model.TaskExtras{RecurrenceID: "a", RecurrencePeriod: "2024-W23"}},
		{ProjectID: 1, Title: "a2", Status: model.StatusDoing, Extras: model.TaskExtras{RecurrenceID: "a", RecurrencePeriod: "2024-W24"}},
		{ProjectID: 1, Title: "b1", Status: model.StatusDone, Extras: model.TaskExtras{RecurrenceID: "b", RecurrencePeriod: "2024-06"}},
		{ProjectID: 1, Title: "one-off", Status: model.StatusPaused, Tags: []string{"x", "y"}},
	}
	created, err := repo.CreateBatch(ctx, tasks)
	require.NoError(t, err)
	require.Len(t, created, 4)
	for _, task := range created {
		assert.NotZero(t, task.ID)
	}

	inst, err := repo.FindByRecurrenceID(ctx, "a")
	require.NoError(t, err)
	require.Len(t, inst, 2)
	assert.Equal(t, "2024-W23", inst[0].Extras.RecurrencePeriod)

	counts, err := repo.CountByRecurrenceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, counts)

	open, err := repo.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 3)
	assert.Equal(t, "a1", open[0].Title)

	require.NoError(t, repo.Delete(ctx, created[0].ID))
	removed, err := templates.Delete(ctx, "a", true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	trash, err := repo.ListTrash(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []string{"x", "y"}, all[1].Tags)
}

func TestTaskRepositoryCreateBatchSkips(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	templates := NewTemplateRepository(db)
	seedTemplates(t, templates, "live", "paused")
	require.NoError(t, templates.SetActive(ctx, "paused", false))

	instance := func(id, period string) model.Task {
		return model.Task{ProjectID: 1, Title: id, Extras: model.TaskExtras{RecurrenceID: id, RecurrencePeriod: period}}
	}

	created, err := repo.CreateBatch(ctx, []model.Task{
		instance("live", "2024-06-10"),
		instance("paused", "2024-06-10"),
		instance("gone", "2024-06-10"),
		{ProjectID: 1, Title: "one-off"},
		{ProjectID: 1, Title: "another one-off"},
	})
	require.NoError(t, err)
	require.Len(t, created, 3)
	assert.Equal(t, "live", created[0].Title)

	again, err := repo.CreateBatch(ctx, []model.Task{instance("live", "2024-06-10"), instance("live", "2024-06-11")})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "2024-06-11", again[0].Extras.RecurrencePeriod)

	require.NoError(t, repo.Delete(ctx, created[0].ID))
	again, err = repo.CreateBatch(ctx, []model.Task{instance("live", "2024-06-10")})
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestTemplateRepositoryDeleteRollsBackInstances(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	templates := NewTemplateRepository(db)

	orphan := &model.Task{ProjectID: 1, Title: "orphan", Extras: model.TaskExtras{RecurrenceID: "gone", RecurrencePeriod: "2024-06"}}
	require.NoError(t, repo.Create(ctx, orphan))

	removed, err := templates.Delete(ctx, "gone", true)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Zero(t, removed)

	left, err := repo.FindByRecurrenceID(ctx, "gone")
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestTaskRepositoryTrash(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)

	old := &model.Task{ProjectID: 1, Title: "old"}
	fresh := &model.Task{ProjectID: 1, Title: "fresh"}
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Delete(ctx, old.ID))
	require.NoError(t, repo.Delete(ctx, fresh.ID))

	_, err := repo.FindByID(ctx, old.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	oldAt := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	freshAt := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Unscoped().Model(&model.Task{}).Where("id = ?", old.ID).Update("deleted_at", oldAt).Error)
	require.NoError(t, db.Unscoped().Model(&model.Task{}).Where("id = ?", fresh.ID).Update("deleted_at", freshAt).Error)

	trash, err := repo.ListTrash(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 2)
	assert.Equal(t, "fresh", trash[0].Title)

	purged, err := repo.PurgeTrash(ctx, oldAt)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	require.NoError(t, repo.Restore(ctx, fresh.ID))
	assert.ErrorIs(t, repo.Restore(ctx, fresh.ID), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Restore(ctx, old.ID), gorm.ErrRecordNotFound)

	got, err := repo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Title)
	trash, err = repo.ListTrash(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func TestTaskRepositoryMarkDoneAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))

	task := &model.Task{ProjectID: 1, Title: "ship", Status: model.StatusDoing}
	require.NoError(t, repo.Create(ctx, task))

	at := time.Date(2024, time.June, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkDone(ctx, task, at))

	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, at.Equal(*got.CompletedAt))

	require.NoError(t, repo.Delete(ctx, task.ID))
	assert.ErrorIs(t, repo.Delete(ctx, task.ID), gorm.ErrRecordNotFound)
}

func TestProjectRepositoryGetOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(newTestDB(t))

	first, err := repo.GetOrCreate(ctx, " Ops ")
	require.NoError(t, err)
	second, err := repo.GetOrCreate(ctx, "Ops")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = repo.GetOrCreate(ctx, "")
	assert.Error(t, err)

	projects, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestSettingsRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(newTestDB(t))

	_, ok, err := repo.Get(ctx, "trashRetentionDays")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Put(ctx, "trashRetentionDays", "10"))
	require.NoError(t, repo.Put(ctx, "trashRetentionDays", "25"))

	value, ok, err := repo.Get(ctx, "trashRetentionDays")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "25", value)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"trashRetentionDays": "25"}, all)
}

func TestSubscriberRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewSubscriberRepository(newTestDB(t))

	_, err := repo.UpsertFromTelegram(ctx, 42, "Ann", "", "ann")
	require.NoError(t, err)
	sub, err := repo.UpsertFromTelegram(ctx, 42, "Ann", "Lee", "ann")
	require.NoError(t, err)
	assert.Equal(t, "Lee", sub.LastName)

	subs, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	require.NoError(t, repo.DeleteByTelegramID(ctx, 42))
	subs, err = repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
