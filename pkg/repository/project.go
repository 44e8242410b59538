package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/talent-lab/sourcedash/dao/model"
	"github.com/talent-lab/sourcedash/pkg/audit"
)

// sortableColumns is the allowlist for sort_by. Anything else falls back to
// created_at rather than erroring.
var sortableColumns = map[string]struct{}{
	"company":        {},
	"sourcer":        {},
	"group_type":     {},
	"model_type":     {},
	"roles_count":    {},
	"hours_or_hires": {},
	"start_date":     {},
	"end_date":       {},
	"status":         {},
	"created_at":     {},
	"updated_at":     {},
}

// Store is the Postgres-backed ProjectStore. Every mutation and its audit row
// are written in one transaction: a failed audit insert rolls the mutation
// back.
type Store struct {
	db       *gorm.DB
	recorder *audit.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, recorder: audit.NewDB(db)}
}

func applyFilter(tx *gorm.DB, f ProjectFilter) *gorm.DB {
	if f.Sourcer != nil {
		tx = tx.Where("sourcer = ?", *f.Sourcer)
	}
	if f.ModelType != nil {
		tx = tx.Where("model_type = ?", *f.ModelType)
	}
	if f.Company != nil {
		tx = tx.Where("company = ?", *f.Company)
	}
	if f.GroupType != nil {
		tx = tx.Where("group_type = ?", *f.GroupType)
	}
	if f.Status != nil {
		tx = tx.Where("status = ?", *f.Status)
	}
	if f.RolesMin != nil {
		tx = tx.Where("roles_count >= ?", *f.RolesMin)
	}
	if f.RolesMax != nil {
		tx = tx.Where("roles_count <= ?", *f.RolesMax)
	}
	if f.HiresMin != nil {
		tx = tx.Where("hours_or_hires >= ?", *f.HiresMin)
	}
	if f.HiresMax != nil {
		tx = tx.Where("hours_or_hires <= ?", *f.HiresMax)
	}
	if f.StartDateFrom != nil {
		tx = tx.Where("start_date >= ?", *f.StartDateFrom)
	}
	if f.StartDateTo != nil {
		tx = tx.Where("start_date <= ?", *f.StartDateTo)
	}
	if f.Search != nil && *f.Search != "" {
		pattern := "%" + strings.ToLower(*f.Search) + "%"
		tx = tx.Where(
			"LOWER(company) LIKE ? OR LOWER(sourcer) LIKE ? OR LOWER(roles) LIKE ? OR LOWER(notes) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	return tx
}

func (s *Store) List(ctx context.Context, filter ProjectFilter, opts ListOptions) (*ListResult, error) {
	opts.Normalize()

	base := applyFilter(s.db.WithContext(ctx).Model(&model.Project{}), filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	sortBy := opts.SortBy
	if _, ok := sortableColumns[sortBy]; !ok {
		sortBy = "created_at"
	}

	var projects []model.Project
	err := base.
		Order(fmt.Sprintf("%s %s", sortBy, opts.SortOrder)).
		Limit(opts.Limit).
		Offset((opts.Page - 1) * opts.Limit).
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return &ListResult{
		Data: projects,
		Pagination: Pagination{
			Page:       opts.Page,
			Limit:      opts.Limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(opts.Limit))),
		},
	}, nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &project, nil
}

func (s *Store) Create(ctx context.Context, input CreateProjectInput, actorID *string) (*model.Project, error) {
	project := model.Project{
		Company:      input.Company,
		Sourcer:      input.Sourcer,
		GroupType:    input.GroupType,
		ModelType:    input.ModelType,
		Roles:        input.Roles,
		RolesCount:   1,
		HoursOrHires: input.HoursOrHires,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		TimeToHire:   input.TimeToHire,
		Notes:        input.Notes,
		Status:       model.StatusActive,
	}
	if input.RolesCount != nil {
		project.RolesCount = *input.RolesCount
	}
	if input.Status != nil {
		project.Status = *input.Status
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		return s.recorder.WithTx(tx).Record(ctx, actorID, model.AuditCreate, EntityProject, project.ID, nil, project)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Store) Update(ctx context.Context, id string, input UpdateProjectInput, actorID *string) (*model.Project, error) {
	return s.update(ctx, id, input, actorID, model.AuditUpdate)
}

func (s *Store) update(ctx context.Context, id string, input UpdateProjectInput,
	actorID *string, action model.AuditAction) (*model.Project, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := updateMap(input)
	// updated_at refreshes even when no field changed, so callers can rely on
	// the bump as a write marker.
	updates["updated_at"] = time.Now()

	var updated model.Project
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		if err := tx.Where("id = ?", id).First(&updated).Error; err != nil {
			return fmt.Errorf("reload project: %w", err)
		}
		return s.recorder.WithTx(tx).Record(ctx, actorID, action, EntityProject, id, existing, updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func updateMap(input UpdateProjectInput) map[string]any {
	updates := map[string]any{}
	if input.Company != nil {
		updates["company"] = *input.Company
	}
	if input.Sourcer != nil {
		updates["sourcer"] = *input.Sourcer
	}
	if input.GroupType != nil {
		updates["group_type"] = *input.GroupType
	}
	if input.ModelType != nil {
		updates["model_type"] = *input.ModelType
	}
	if input.Roles != nil {
		updates["roles"] = *input.Roles
	}
	if input.RolesCount != nil {
		updates["roles_count"] = *input.RolesCount
	}
	if input.HoursOrHires != nil {
		updates["hours_or_hires"] = *input.HoursOrHires
	}
	if input.StartDate != nil {
		updates["start_date"] = *input.StartDate
	}
	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}
	if input.TimeToHire != nil {
		updates["time_to_hire"] = *input.TimeToHire
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	return updates
}

func (s *Store) Delete(ctx context.Context, id string, actorID *string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&model.Project{}).Error; err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		return s.recorder.WithTx(tx).Record(ctx, actorID, model.AuditDelete, EntityProject, id, existing, nil)
	})
}

func (s *Store) Archive(ctx context.Context, id string, actorID *string) (*model.Project, error) {
	status := model.StatusArchived
	return s.update(ctx, id, UpdateProjectInput{Status: &status}, actorID, model.AuditArchive)
}

func (s *Store) Restore(ctx context.Context, id string, actorID *string) (*model.Project, error) {
	status := model.StatusActive
	return s.update(ctx, id, UpdateProjectInput{Status: &status}, actorID, model.AuditUpdate)
}

// BulkAction applies one status transition (or delete) to every matching row
// in a single batch. Bulk operations deliberately write no per-row audit
// entries (see DESIGN.md).
func (s *Store) BulkAction(ctx context.Context, ids []string, action BulkAction) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("empty id list: %w", ErrInvalidAction)
	}

	var status model.ProjectStatus
	switch action {
	case BulkArchive:
		status = model.StatusArchived
	case BulkComplete:
		status = model.StatusCompleted
	case BulkActivate:
		status = model.StatusActive
	case BulkDelete:
		res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Project{})
		if res.Error != nil {
			return 0, fmt.Errorf("bulk delete: %w", res.Error)
		}
		return res.RowsAffected, nil
	default:
		return 0, fmt.Errorf("%q: %w", action, ErrInvalidAction)
	}

	res := s.db.WithContext(ctx).Model(&model.Project{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return 0, fmt.Errorf("bulk %s: %w", action, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	var sourcers, companies []string
	if err := s.db.WithContext(ctx).Model(&model.Project{}).
		Distinct("sourcer").Order("sourcer").Pluck("sourcer", &sourcers).Error; err != nil {
		return nil, fmt.Errorf("distinct sourcers: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.Project{}).
		Distinct("company").Order("company").Pluck("company", &companies).Error; err != nil {
		return nil, fmt.Errorf("distinct companies: %w", err)
	}
	return &FilterOptions{
		Sourcers:   sourcers,
		Companies:  companies,
		ModelTypes: model.ModelTypes,
		GroupTypes: model.GroupTypes,
		Statuses:   model.Statuses,
	}, nil
}

func (s *Store) Snapshot(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := s.db.WithContext(ctx).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("snapshot projects: %w", err)
	}
	return projects, nil
}

func (s *Store) ExportDocument(ctx context.Context) (*Document, error) {
	projects, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	doc := &Document{Projects: projects, LastUpdated: time.Now().UTC().Format(time.RFC3339)}
	if len(projects) > 0 {
		latest := lo.MaxBy(projects, func(a, b model.Project) bool {
			return a.UpdatedAt.After(b.UpdatedAt)
		})
		doc.LastUpdated = latest.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return doc, nil
}

// ImportDocument replaces the full project set with the document's rows,
// keeping their ids and timestamps.
func (s *Store) ImportDocument(ctx context.Context, doc *Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Project{}).Error; err != nil {
			return fmt.Errorf("clear projects: %w", err)
		}
		if len(doc.Projects) == 0 {
			return nil
		}
		if err := tx.Create(&doc.Projects).Error; err != nil {
			return fmt.Errorf("import projects: %w", err)
		}
		return nil
	})
}
