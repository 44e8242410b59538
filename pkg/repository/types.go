// Package repository is the typed access layer over the project and user
// stores. The ProjectStore interface is the single storage capability surface;
// implementations are selected once at composition time (see cmd/sourcedash).
package repository

import (
	"context"
	"errors"

	"github.com/talent-lab/sourcedash/dao/model"
)

// EntityProject is the entity_type recorded in audit rows for projects.
const EntityProject = "project"

var (
	ErrNotFound        = errors.New("record not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrInvalidAction   = errors.New("invalid bulk action")
	ErrInvalidPassword = errors.New("current password is incorrect")
)

// ProjectFilter enumerates every supported list predicate. Nil fields are not
// applied; the rest are ANDed together.
type ProjectFilter struct {
	Sourcer       *string              `form:"sourcer"`
	ModelType     *model.ModelType     `form:"model_type" binding:"omitempty,oneof=Hourly Success 'Success Executive'"`
	Company       *string              `form:"company"`
	GroupType     *model.GroupType     `form:"group_type" binding:"omitempty,oneof=Israel Global"`
	Status        *model.ProjectStatus `form:"status" binding:"omitempty,oneof=active completed archived"`
	RolesMin      *int                 `form:"roles_min" binding:"omitempty,min=0"`
	RolesMax      *int                 `form:"roles_max" binding:"omitempty,min=0"`
	HiresMin      *int                 `form:"hires_min" binding:"omitempty,min=0"`
	HiresMax      *int                 `form:"hires_max" binding:"omitempty,min=0"`
	StartDateFrom *string              `form:"start_date_from" binding:"omitempty,datetime=2006-01-02"`
	StartDateTo   *string              `form:"start_date_to" binding:"omitempty,datetime=2006-01-02"`
	// Search matches case-insensitively against company, sourcer, roles or
	// notes (logical OR across the four fields).
	Search *string `form:"search"`
}

// ListOptions is the pagination and sort part of a list request.
type ListOptions struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// Normalize fills the documented defaults for zero-valued options.
func (o *ListOptions) Normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 20
	}
	if o.SortBy == "" {
		o.SortBy = "created_at"
	}
	if o.SortOrder == "" {
		o.SortOrder = "desc"
	}
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type ListResult struct {
	Data       []model.Project `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

// CreateProjectInput carries a validated create request. Optional fields stay
// nil; RolesCount defaults to 1 and Status to active when omitted.
type CreateProjectInput struct {
	Company      string               `json:"company" binding:"required"`
	Sourcer      string               `json:"sourcer" binding:"required"`
	GroupType    model.GroupType      `json:"group_type" binding:"required,oneof=Israel Global"`
	ModelType    model.ModelType      `json:"model_type" binding:"required,oneof=Hourly Success 'Success Executive'"`
	Roles        *string              `json:"roles"`
	RolesCount   *int                 `json:"roles_count" binding:"omitempty,min=0"`
	HoursOrHires *int                 `json:"hours_or_hires" binding:"omitempty,min=0"`
	StartDate    *string              `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate      *string              `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	TimeToHire   *string              `json:"time_to_hire"`
	Notes        *string              `json:"notes"`
	Status       *model.ProjectStatus `json:"status" binding:"omitempty,oneof=active completed archived"`
}

// UpdateProjectInput is a partial update; nil fields are left untouched.
type UpdateProjectInput struct {
	Company      *string              `json:"company" binding:"omitempty,min=1"`
	Sourcer      *string              `json:"sourcer" binding:"omitempty,min=1"`
	GroupType    *model.GroupType     `json:"group_type" binding:"omitempty,oneof=Israel Global"`
	ModelType    *model.ModelType     `json:"model_type" binding:"omitempty,oneof=Hourly Success 'Success Executive'"`
	Roles        *string              `json:"roles"`
	RolesCount   *int                 `json:"roles_count" binding:"omitempty,min=0"`
	HoursOrHires *int                 `json:"hours_or_hires" binding:"omitempty,min=0"`
	StartDate    *string              `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate      *string              `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	TimeToHire   *string              `json:"time_to_hire"`
	Notes        *string              `json:"notes"`
	Status       *model.ProjectStatus `json:"status" binding:"omitempty,oneof=active completed archived"`
}

// BulkAction is one of the batch state transitions.
type BulkAction string

const (
	BulkArchive  BulkAction = "archive"
	BulkComplete BulkAction = "complete"
	BulkActivate BulkAction = "activate"
	BulkDelete   BulkAction = "delete"
)

// FilterOptions populates filter UIs: the distinct values currently present
// plus the static enumerations.
type FilterOptions struct {
	Sourcers   []string              `json:"sourcers"`
	Companies  []string              `json:"companies"`
	ModelTypes []model.ModelType     `json:"model_types"`
	GroupTypes []model.GroupType     `json:"group_types"`
	Statuses   []model.ProjectStatus `json:"statuses"`
}

// Document is the raw import/export shape shared with the file backend.
type Document struct {
	Projects    []model.Project `json:"projects"`
	LastUpdated string          `json:"lastUpdated"`
}

// ProjectStore is the storage capability interface for projects. Both the
// Postgres store and the JSON file store implement it.
type ProjectStore interface {
	List(ctx context.Context, filter ProjectFilter, opts ListOptions) (*ListResult, error)
	Get(ctx context.Context, id string) (*model.Project, error)
	Create(ctx context.Context, input CreateProjectInput, actorID *string) (*model.Project, error)
	Update(ctx context.Context, id string, input UpdateProjectInput, actorID *string) (*model.Project, error)
	Delete(ctx context.Context, id string, actorID *string) error
	Archive(ctx context.Context, id string, actorID *string) (*model.Project, error)
	Restore(ctx context.Context, id string, actorID *string) (*model.Project, error)
	BulkAction(ctx context.Context, ids []string, action BulkAction) (int64, error)
	FilterOptions(ctx context.Context) (*FilterOptions, error)

	// Snapshot returns every project row; the aggregation engine reduces over
	// it so that results are identical across backends.
	Snapshot(ctx context.Context) ([]model.Project, error)

	ExportDocument(ctx context.Context) (*Document, error)
	ImportDocument(ctx context.Context, doc *Document) error
}

// UserStore is the storage capability interface for users.
type UserStore interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	// GetByEmail returns (nil, nil) when no user has the email; existence
	// checks are not errors.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, email, passwordHash, name string, role model.Role) (*model.User, error)
	Update(ctx context.Context, id string, name, email *string, role *model.Role) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}
