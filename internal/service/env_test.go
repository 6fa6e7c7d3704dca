package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"planner/internal/repository"
)

type testEnv struct {
	db        *gorm.DB
	tasks     *repository.TaskRepository
	templates *repository.TemplateRepository
	projects  *repository.ProjectRepository
	settings  *repository.SettingsRepository
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name), zerolog.Nop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return testEnv{
		db:        db,
		tasks:     repository.NewTaskRepository(db),
		templates: repository.NewTemplateRepository(db),
		projects:  repository.NewProjectRepository(db),
		settings:  repository.NewSettingsRepository(db),
	}
}

func (e testEnv) templateService() *TemplateService {
	return NewTemplateService(e.templates, e.tasks, e.projects, zerolog.Nop())
}
