package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talent-lab/sourcedash/dao/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Project{}, &model.User{}, &model.AuditLog{}))
	return db
}

func intPtr(v int) *int                                    { return &v }
func strPtr(v string) *string                              { return &v }
func statusPtr(v model.ProjectStatus) *model.ProjectStatus { return &v }

func seedProject(t *testing.T, s *Store, input CreateProjectInput) *model.Project {
	t.Helper()
	p, err := s.Create(context.Background(), input, nil)
	require.NoError(t, err)
	return p
}

func TestCreateAppliesDefaults(t *testing.T) {
	s := NewStore(newTestDB(t))
	ctx := context.Background()

	p, err := s.Create(ctx, CreateProjectInput{
		Company:   "Acme",
		Sourcer:   "Dana",
		GroupType: model.GroupIsrael,
		ModelType: model.ModelHourly,
	}, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 1, p.RolesCount)
	assert.Equal(t, model.StatusActive, p.Status)
	assert.False(t, p.CreatedAt.IsZero())

	// explicit values win over defaults
	p2, err := s.Create(ctx, CreateProjectInput{
		Company:    "Acme",
		Sourcer:    "Dana",
		GroupType:  model.GroupIsrael,
		ModelType:  model.ModelSuccess,
		RolesCount: intPtr(5),
		Status:     statusPtr(model.StatusCompleted),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, p2.RolesCount)
	assert.Equal(t, model.StatusCompleted, p2.Status)
}

func TestCreateWritesAuditRow(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)
	actor := "user-1"

	p := seedProject(t, s, CreateProjectInput{
		Company: "Acme", Sourcer: "Dana",
		GroupType: model.GroupIsrael, ModelType: model.ModelHourly,
	})
	_, err := s.Create(context.Background(), CreateProjectInput{
		Company: "Globex", Sourcer: "Lior",
		GroupType: model.GroupGlobal, ModelType: model.ModelSuccess,
	}, &actor)
	require.NoError(t, err)

	var logs []model.AuditLog
	require.NoError(t, db.Order("created_at").Find(&logs).Error)
	require.Len(t, logs, 2)

	assert.Equal(t, model.AuditCreate, logs[0].Action)
	assert.Equal(t, EntityProject, logs[0].EntityType)
	assert.Equal(t, p.ID, logs[0].EntityID)
	assert.Nil(t, logs[0].UserID)
	assert.Nil(t, logs[0].OldValues)
	assert.NotNil(t, logs[0].NewValues)

	require.NotNil(t, logs[1].UserID)
	assert.Equal(t, actor, *logs[1].UserID)
}

func TestUpdateMergesFieldsAndAudits(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	p := seedProject(t, s, CreateProjectInput{
		Company: "Acme", Sourcer: "Dana",
		GroupType: model.GroupIsrael, ModelType: model.ModelHourly,
		Notes: strPtr("initial"),
	})

	updated, err := s.Update(ctx, p.ID, UpdateProjectInput{
		Company:      strPtr("Acme Ltd"),
		HoursOrHires: intPtr(42),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Acme Ltd", updated.Company)
	require.NotNil(t, updated.HoursOrHires)
	assert.Equal(t, 42, *updated.HoursOrHires)
	// untouched fields survive a partial update
	assert.Equal(t, "Dana", updated.Sourcer)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "initial", *updated.Notes)

	var count int64
	require.NoError(t, db.Model(&model.AuditLog{}).
		Where("action = ?", model.AuditUpdate).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err = s.Update(ctx, "missing", UpdateProjectInput{Company: strPtr("x")}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArchiveAndRestore(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	p := seedProject(t, s, CreateProjectInput{
		Company: "Acme", Sourcer: "Dana",
		GroupType: model.GroupIsrael, ModelType: model.ModelHourly,
	})

	archived, err := s.Archive(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, archived.Status)

	restored, err := s.Restore(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, restored.Status)

	// archive writes an ARCHIVE row, restore a plain UPDATE
	var actions []model.AuditAction
	require.NoError(t, db.Model(&model.AuditLog{}).
		Where("action <> ?", model.AuditCreate).
		Order("created_at").Pluck("action", &actions).Error)
	assert.Equal(t, []model.AuditAction{model.AuditArchive, model.AuditUpdate}, actions)
}

func TestDeleteRemovesRowAndAudits(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	p := seedProject(t, s, CreateProjectInput{
		Company: "Acme", Sourcer: "Dana",
		GroupType: model.GroupIsrael, ModelType: model.ModelHourly,
	})

	require.NoError(t, s.Delete(ctx, p.ID, nil))
	_, err := s.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var log model.AuditLog
	require.NoError(t, db.Where("action = ?", model.AuditDelete).First(&log).Error)
	assert.Equal(t, p.ID, log.EntityID)
	assert.NotNil(t, log.OldValues)
	assert.Nil(t, log.NewValues)

	assert.ErrorIs(t, s.Delete(ctx, p.ID, nil), ErrNotFound)
}

func TestListFiltersAndPaginates(t *testing.T) {
	s := NewStore(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seedProject(t, s, CreateProjectInput{
			Company: "Acme", Sourcer: "Dana",
			GroupType: model.GroupIsrael, ModelType: model.ModelHourly,
			RolesCount: intPtr(i + 1),
		})
	}
	seedProject(t, s, CreateProjectInput{
		Company: "Globex", Sourcer: "Lior",
		GroupType: model.GroupGlobal, ModelType: model.ModelSuccess,
		Status: statusPtr(model.StatusCompleted),
	})

	// unfiltered, default options
	res, err := s.List(ctx, ProjectFilter{}, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, res.Pagination.Total)
	assert.Equal(t, 1, res.Pagination.Page)
	assert.Equal(t, 20, res.Pagination.Limit)
	assert.Equal(t, 1, res.Pagination.TotalPages)
	assert.Len(t, res.Data, 4)

	// company filter
	company := "Globex"
	res, err = s.List(ctx, ProjectFilter{Company: &company}, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Pagination.Total)

	// roles range
	res, err = s.List(ctx, ProjectFilter{RolesMin: intPtr(2), RolesMax: intPtr(3)}, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Pagination.Total)

	// pagination: page 2 of size 3
	res, err = s.List(ctx, ProjectFilter{}, ListOptions{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, res.Data, 1)
	assert.Equal(t, 2, res.Pagination.TotalPages)
}

func TestListSearchIsCaseInsensitive(t *testing.T) {
	s := NewStore(newTestDB(t))
	ctx := context.Background()

	seedProject(t, s, CreateProjectInput{
		Company: "Acme", Sourcer: "Dana",
		GroupType: model.GroupIsrael, ModelType: model.ModelHourly,
		Notes: strPtr("URGENT backfill"),
	})
	seedProject(t, s, CreateProjectInput{
		Company: "Globex", Sourcer: "Lior",
		GroupType: model.GroupGlobal, ModelType: model.ModelSuccess,
		Roles: strPtr("Data Engineer"),
	})

	search := "urgent"
	res, err := s.List(ctx, ProjectFilter{Search: &search}, ListOptions{})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Acme", res.Data[0].Company)

	// matches across roles too
	search = "ENGINEER"
	res, err = s.List(ctx, ProjectFilter{Search: &search}, ListOptions{})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Globex", res.Data[0].Company)
}

func TestListSortAllowlistFallback(t *testing.T) {
	s := NewStore(newTestDB(t))
	ctx := context.Background()

	seedProject(t, s, CreateProjectInput{
		Company: "Beta", Sourcer: "Dana",
		GroupType: model.GroupIsrael, ModelType: model.ModelHourly,
	})
	seedProject(t, s, CreateProjectInput{
		Company: "Alpha", Sourcer: "Dana",
		GroupType: model.GroupIsrael, ModelType: model.ModelHourly,
	})

	res, err := s.List(ctx, ProjectFilter{}, ListOptions{SortBy: "company", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", res.Data[0].Company)

	// unknown column falls back to created_at instead of an injection vector
	res, err = s.List(ctx, ProjectFilter{}, ListOptions{SortBy: "company; DROP TABLE projects", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "Beta", res.Data[0].Company)
}

func TestBulkAction(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		p := seedProject(t, s, CreateProjectInput{
			Company: "Acme", Sourcer: "Dana",
			GroupType: model.GroupIsrael, ModelType: model.ModelHourly,
		})
		ids = append(ids, p.ID)
	}

	n, err := s.BulkAction(ctx, ids[:2], BulkArchive)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	archived, err := s.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, archived.Status)
	untouched, err := s.Get(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, untouched.Status)

	n, err = s.BulkAction(ctx, ids, BulkDelete)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	// bulk paths write no audit rows
	var count int64
	require.NoError(t, db.Model(&model.AuditLog{}).
		Where("action <> ?", model.AuditCreate).Count(&count).Error)
	assert.Zero(t, count)

	_, err = s.BulkAction(ctx, nil, BulkArchive)
	assert.ErrorIs(t, err, ErrInvalidAction)
	_, err = s.BulkAction(ctx, []string{"x"}, BulkAction("promote"))
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestFilterOptions(t *testing.T) {
	s := NewStore(newTestDB(t))
	ctx := context.Background()

	for _, sourcer := range []string{"Lior", "Dana", "Dana"} {
		seedProject(t, s, CreateProjectInput{
			Company: "Acme " + sourcer, Sourcer: sourcer,
			GroupType: model.GroupIsrael, ModelType: model.ModelHourly,
		})
	}

	opts, err := s.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dana", "Lior"}, opts.Sourcers)
	assert.Len(t, opts.Companies, 2)
	assert.Equal(t, model.ModelTypes, opts.ModelTypes)
	assert.Equal(t, model.Statuses, opts.Statuses)
}

func TestImportExportDocument(t *testing.T) {
	s := NewStore(newTestDB(t))
	ctx := context.Background()

	seedProject(t, s, CreateProjectInput{
		Company: "Old", Sourcer: "Dana",
		GroupType: model.GroupIsrael, ModelType: model.ModelHourly,
	})

	incoming := &Document{Projects: []model.Project{
		{ID: "imported-1", Company: "New Co", Sourcer: "Lior",
			GroupType: model.GroupGlobal, ModelType: model.ModelSuccess,
			RolesCount: 2, Status: model.StatusActive},
	}}
	require.NoError(t, s.ImportDocument(ctx, incoming))

	// import replaces, never merges
	snapshot, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "imported-1", snapshot[0].ID)

	doc, err := s.ExportDocument(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Projects, 1)
	assert.NotEmpty(t, doc.LastUpdated)
}
