// Package filestore keeps the whole project set in a single JSON document
// `{projects, lastUpdated}` persisted to one file. It is the standalone
// storage mode: no database, no audit table. Change notification is
// best-effort fan-out of a fresh full snapshot to every subscriber.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/talent-lab/sourcedash/dao/model"
	"github.com/talent-lab/sourcedash/pkg/logutils"
	"github.com/talent-lab/sourcedash/pkg/repository"
)

type Store struct {
	path string

	mu  sync.RWMutex
	doc repository.Document

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func([]model.Project)
}

// New loads the document from path, creating an empty one if the file does
// not exist. A corrupt file is an error, not silently reset.
func New(path string) (*Store, error) {
	s := &Store{path: path, subs: make(map[int]func([]model.Project))}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := s.commit([]model.Project{}); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read store file: %w", err)
	default:
		if err := json.Unmarshal(data, &s.doc); err != nil {
			return nil, fmt.Errorf("parse store file %s: %w", path, err)
		}
	}
	return s, nil
}

// commit writes projects to disk atomically (tmp file + rename) and swaps the
// new document in only after the write succeeds, so a failed persist never
// leaves reads serving state the file does not have. Callers must hold the
// write lock and must not touch projects afterwards.
func (s *Store) commit(projects []model.Project) error {
	next := repository.Document{
		Projects:    projects,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(&next, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, filepath.Clean(s.path)); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	s.doc = next
	return nil
}

// Subscribe registers a change listener and returns its unsubscribe func.
// Listeners receive a full fresh snapshot after every mutation; delivery is
// best-effort with no ordering guarantee.
func (s *Store) Subscribe(fn func([]model.Project)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	snapshot := s.copyProjects()
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, fn := range s.subs {
		go fn(snapshot)
	}
}

func (s *Store) copyProjects() []model.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProjects(s.doc.Projects)
}

func cloneProjects(src []model.Project) []model.Project {
	out := make([]model.Project, len(src))
	copy(out, src)
	return out
}

func matches(p *model.Project, f repository.ProjectFilter) bool {
	if f.Sourcer != nil && p.Sourcer != *f.Sourcer {
		return false
	}
	if f.ModelType != nil && p.ModelType != *f.ModelType {
		return false
	}
	if f.Company != nil && p.Company != *f.Company {
		return false
	}
	if f.GroupType != nil && p.GroupType != *f.GroupType {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.RolesMin != nil && p.RolesCount < *f.RolesMin {
		return false
	}
	if f.RolesMax != nil && p.RolesCount > *f.RolesMax {
		return false
	}
	if f.HiresMin != nil && (p.HoursOrHires == nil || *p.HoursOrHires < *f.HiresMin) {
		return false
	}
	if f.HiresMax != nil && (p.HoursOrHires == nil || *p.HoursOrHires > *f.HiresMax) {
		return false
	}
	if f.StartDateFrom != nil && (p.StartDate == nil || *p.StartDate < *f.StartDateFrom) {
		return false
	}
	if f.StartDateTo != nil && (p.StartDate == nil || *p.StartDate > *f.StartDateTo) {
		return false
	}
	if f.Search != nil && *f.Search != "" {
		needle := strings.ToLower(*f.Search)
		if !strings.Contains(strings.ToLower(p.Company), needle) &&
			!strings.Contains(strings.ToLower(p.Sourcer), needle) &&
			!containsLower(p.Roles, needle) &&
			!containsLower(p.Notes, needle) {
			return false
		}
	}
	return true
}

func containsLower(s *string, needle string) bool {
	return s != nil && strings.Contains(strings.ToLower(*s), needle)
}

// less orders two projects by the given column; unknown columns fall back to
// created_at (same fail-safe as the SQL store's allowlist).
func less(a, b *model.Project, column string) bool {
	switch column {
	case "company":
		return a.Company < b.Company
	case "sourcer":
		return a.Sourcer < b.Sourcer
	case "group_type":
		return a.GroupType < b.GroupType
	case "model_type":
		return a.ModelType < b.ModelType
	case "roles_count":
		return a.RolesCount < b.RolesCount
	case "hours_or_hires":
		return lessIntPtr(a.HoursOrHires, b.HoursOrHires)
	case "start_date":
		return lessStrPtr(a.StartDate, b.StartDate)
	case "end_date":
		return lessStrPtr(a.EndDate, b.EndDate)
	case "status":
		return a.Status < b.Status
	case "updated_at":
		return a.UpdatedAt.Before(b.UpdatedAt)
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func lessIntPtr(a, b *int) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return *a < *b
}

func lessStrPtr(a, b *string) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return *a < *b
}

func (s *Store) List(_ context.Context, filter repository.ProjectFilter, opts repository.ListOptions) (*repository.ListResult, error) {
	opts.Normalize()

	projects := s.copyProjects()
	filtered := lo.Filter(projects, func(p model.Project, _ int) bool {
		return matches(&p, filter)
	})

	sort.SliceStable(filtered, func(i, j int) bool {
		if opts.SortOrder == "asc" {
			return less(&filtered[i], &filtered[j], opts.SortBy)
		}
		return less(&filtered[j], &filtered[i], opts.SortBy)
	})

	total := int64(len(filtered))
	start := (opts.Page - 1) * opts.Limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + opts.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return &repository.ListResult{
		Data: filtered[start:end],
		Pagination: repository.Pagination{
			Page:       opts.Page,
			Limit:      opts.Limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(opts.Limit))),
		},
	}, nil
}

func (s *Store) Get(_ context.Context, id string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.doc.Projects {
		if s.doc.Projects[i].ID == id {
			p := s.doc.Projects[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("project %s: %w", id, repository.ErrNotFound)
}

func (s *Store) Create(_ context.Context, input repository.CreateProjectInput, _ *string) (*model.Project, error) {
	now := time.Now()
	project := model.Project{
		ID:           uuid.NewString(),
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
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.RolesCount != nil {
		project.RolesCount = *input.RolesCount
	}
	if input.Status != nil {
		project.Status = *input.Status
	}

	s.mu.Lock()
	err := s.commit(append(cloneProjects(s.doc.Projects), project))
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify()
	return &project, nil
}

func (s *Store) Update(ctx context.Context, id string, input repository.UpdateProjectInput, actorID *string) (*model.Project, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.doc.Projects {
		if s.doc.Projects[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("project %s: %w", id, repository.ErrNotFound)
	}

	next := cloneProjects(s.doc.Projects)
	p := &next[idx]
	if input.Company != nil {
		p.Company = *input.Company
	}
	if input.Sourcer != nil {
		p.Sourcer = *input.Sourcer
	}
	if input.GroupType != nil {
		p.GroupType = *input.GroupType
	}
	if input.ModelType != nil {
		p.ModelType = *input.ModelType
	}
	if input.Roles != nil {
		p.Roles = input.Roles
	}
	if input.RolesCount != nil {
		p.RolesCount = *input.RolesCount
	}
	if input.HoursOrHires != nil {
		p.HoursOrHires = input.HoursOrHires
	}
	if input.StartDate != nil {
		p.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		p.EndDate = input.EndDate
	}
	if input.TimeToHire != nil {
		p.TimeToHire = input.TimeToHire
	}
	if input.Notes != nil {
		p.Notes = input.Notes
	}
	if input.Status != nil {
		p.Status = *input.Status
	}
	p.UpdatedAt = time.Now()
	updated := *p

	err := s.commit(next)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify()
	return &updated, nil
}

func (s *Store) Delete(_ context.Context, id string, _ *string) error {
	s.mu.Lock()
	next := lo.Reject(s.doc.Projects, func(p model.Project, _ int) bool {
		return p.ID == id
	})
	if len(next) == len(s.doc.Projects) {
		s.mu.Unlock()
		return fmt.Errorf("project %s: %w", id, repository.ErrNotFound)
	}
	err := s.commit(next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify()
	return nil
}

func (s *Store) Archive(ctx context.Context, id string, actorID *string) (*model.Project, error) {
	status := model.StatusArchived
	return s.Update(ctx, id, repository.UpdateProjectInput{Status: &status}, actorID)
}

func (s *Store) Restore(ctx context.Context, id string, actorID *string) (*model.Project, error) {
	status := model.StatusActive
	return s.Update(ctx, id, repository.UpdateProjectInput{Status: &status}, actorID)
}

func (s *Store) BulkAction(_ context.Context, ids []string, action repository.BulkAction) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("empty id list: %w", repository.ErrInvalidAction)
	}
	idSet := lo.SliceToMap(ids, func(id string) (string, struct{}) { return id, struct{}{} })

	var status model.ProjectStatus
	switch action {
	case repository.BulkArchive:
		status = model.StatusArchived
	case repository.BulkComplete:
		status = model.StatusCompleted
	case repository.BulkActivate:
		status = model.StatusActive
	case repository.BulkDelete:
		s.mu.Lock()
		next := lo.Reject(s.doc.Projects, func(p model.Project, _ int) bool {
			_, ok := idSet[p.ID]
			return ok
		})
		affected := int64(len(s.doc.Projects) - len(next))
		err := s.commit(next)
		s.mu.Unlock()
		if err != nil {
			return 0, err
		}
		s.notify()
		return affected, nil
	default:
		return 0, fmt.Errorf("%q: %w", action, repository.ErrInvalidAction)
	}

	var affected int64
	now := time.Now()
	s.mu.Lock()
	next := cloneProjects(s.doc.Projects)
	for i := range next {
		if _, ok := idSet[next[i].ID]; ok {
			next[i].Status = status
			next[i].UpdatedAt = now
			affected++
		}
	}
	err := s.commit(next)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	s.notify()
	return affected, nil
}

func (s *Store) FilterOptions(_ context.Context) (*repository.FilterOptions, error) {
	projects := s.copyProjects()
	sourcers := lo.Uniq(lo.Map(projects, func(p model.Project, _ int) string { return p.Sourcer }))
	companies := lo.Uniq(lo.Map(projects, func(p model.Project, _ int) string { return p.Company }))
	sort.Strings(sourcers)
	sort.Strings(companies)
	return &repository.FilterOptions{
		Sourcers:   sourcers,
		Companies:  companies,
		ModelTypes: model.ModelTypes,
		GroupTypes: model.GroupTypes,
		Statuses:   model.Statuses,
	}, nil
}

func (s *Store) Snapshot(_ context.Context) ([]model.Project, error) {
	return s.copyProjects(), nil
}

func (s *Store) ExportDocument(_ context.Context) (*repository.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := repository.Document{
		Projects:    make([]model.Project, len(s.doc.Projects)),
		LastUpdated: s.doc.LastUpdated,
	}
	copy(doc.Projects, s.doc.Projects)
	return &doc, nil
}

func (s *Store) ImportDocument(_ context.Context, doc *repository.Document) error {
	s.mu.Lock()
	err := s.commit(cloneProjects(doc.Projects))
	s.mu.Unlock()
	if err != nil {
		return err
	}

	logutils.Log.Infof("Imported %d projects into %s", len(doc.Projects), s.path)
	s.notify()
	return nil
}
