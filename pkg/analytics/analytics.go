// Package analytics computes the dashboard aggregates. Every operation is a
// pure reduction over a full project snapshot, so the Postgres store and the
// file store produce identical results through the same code path.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/talent-lab/sourcedash/dao/model"
)

const (
	// hiresThreshold splits the overloaded hours_or_hires field: values <= 10
	// are treated as hire counts, larger values as hours worked.
	hiresThreshold = 10

	// successHoursPerRole is the synthetic effort assigned to one role under
	// the Success billing models when computing the hours-deficit report.
	successHoursPerRole = 30

	DefaultMinHours       = 200
	DefaultRecentLimit    = 10
	DefaultTimelineMonths = 12
)

// Source provides the project snapshot the engine reduces over.
type Source interface {
	Snapshot(ctx context.Context) ([]model.Project, error)
}

// Engine is the read-side aggregation engine. It never writes.
type Engine struct {
	src Source
}

func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

type Overview struct {
	TotalProjects     int `json:"totalProjects"`
	ActiveProjects    int `json:"activeProjects"`
	CompletedProjects int `json:"completedProjects"`
	TotalRoles        int `json:"totalRoles"`
	TotalHires        int `json:"totalHires"`
	TotalCompanies    int `json:"totalCompanies"`
	TotalSourcers     int `json:"totalSourcers"`
}

type ModelCount struct {
	Model model.ModelType `json:"model"`
	Count int             `json:"count"`
}

type GroupCount struct {
	Group model.GroupType `json:"group"`
	Count int             `json:"count"`
}

type StatusCount struct {
	Status model.ProjectStatus `json:"status"`
	Count  int                 `json:"count"`
}

type SourcerStats struct {
	Sourcer    string `json:"sourcer"`
	Projects   int    `json:"projects"`
	TotalRoles int    `json:"totalRoles"`
}

type ClientStats struct {
	Company      string `json:"company"`
	ProjectCount int    `json:"projectCount"`
	TotalRoles   int    `json:"totalRoles"`
	TotalHires   int    `json:"totalHires"`
	TotalHours   int    `json:"totalHours"`
}

type SourcerHours struct {
	Sourcer      string `json:"sourcer"`
	TotalHours   int    `json:"totalHours"`
	MissingHours int    `json:"missingHours"`
}

type TimelineBucket struct {
	Month      string `json:"month"`
	Count      int    `json:"count"`
	TotalRoles int    `json:"totalRoles"`
}

func (e *Engine) Overview(ctx context.Context) (*Overview, error) {
	projects, err := e.src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ReduceOverview(projects), nil
}

func ReduceOverview(projects []model.Project) *Overview {
	o := &Overview{TotalProjects: len(projects)}
	companies := map[string]struct{}{}
	sourcers := map[string]struct{}{}
	for i := range projects {
		p := &projects[i]
		switch p.Status {
		case model.StatusActive:
			o.ActiveProjects++
		case model.StatusCompleted:
			o.CompletedProjects++
		}
		o.TotalRoles += p.RolesCount
		if p.HoursOrHires != nil && *p.HoursOrHires <= hiresThreshold {
			o.TotalHires += *p.HoursOrHires
		}
		companies[p.Company] = struct{}{}
		sourcers[p.Sourcer] = struct{}{}
	}
	o.TotalCompanies = len(companies)
	o.TotalSourcers = len(sourcers)
	return o
}

func (e *Engine) ByModel(ctx context.Context) ([]ModelCount, error) {
	projects, err := e.src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	groups := lo.GroupBy(projects, func(p model.Project) model.ModelType { return p.ModelType })
	out := lo.MapToSlice(groups, func(k model.ModelType, v []model.Project) ModelCount {
		return ModelCount{Model: k, Count: len(v)}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out, nil
}

func (e *Engine) ByGroup(ctx context.Context) ([]GroupCount, error) {
	projects, err := e.src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	groups := lo.GroupBy(projects, func(p model.Project) model.GroupType { return p.GroupType })
	out := lo.MapToSlice(groups, func(k model.GroupType, v []model.Project) GroupCount {
		return GroupCount{Group: k, Count: len(v)}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out, nil
}

func (e *Engine) ByStatus(ctx context.Context) ([]StatusCount, error) {
	projects, err := e.src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	groups := lo.GroupBy(projects, func(p model.Project) model.ProjectStatus { return p.Status })
	out := lo.MapToSlice(groups, func(k model.ProjectStatus, v []model.Project) StatusCount {
		return StatusCount{Status: k, Count: len(v)}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (e *Engine) BySourcer(ctx context.Context) ([]SourcerStats, error) {
	projects, err := e.src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	groups := lo.GroupBy(projects, func(p model.Project) string { return p.Sourcer })
	out := lo.MapToSlice(groups, func(k string, v []model.Project) SourcerStats {
		return SourcerStats{
			Sourcer:    k,
			Projects:   len(v),
			TotalRoles: lo.SumBy(v, func(p model.Project) int { return p.RolesCount }),
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Projects != out[j].Projects {
			return out[i].Projects > out[j].Projects
		}
		return out[i].Sourcer < out[j].Sourcer
	})
	return out, nil
}

func (e *Engine) Clients(ctx context.Context) ([]ClientStats, error) {
	projects, err := e.src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ReduceClients(projects), nil
}

func ReduceClients(projects []model.Project) []ClientStats {
	groups := lo.GroupBy(projects, func(p model.Project) string { return p.Company })
	out := lo.MapToSlice(groups, func(company string, rows []model.Project) ClientStats {
		stats := ClientStats{Company: company, ProjectCount: len(rows)}
		for i := range rows {
			stats.TotalRoles += rows[i].RolesCount
			if rows[i].HoursOrHires == nil {
				continue
			}
			if v := *rows[i].HoursOrHires; v <= hiresThreshold {
				stats.TotalHires += v
			} else {
				stats.TotalHours += v
			}
		}
		return stats
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProjectCount != out[j].ProjectCount {
			return out[i].ProjectCount > out[j].ProjectCount
		}
		return out[i].Company < out[j].Company
	})
	return out
}

// LackingHours reports every sourcer whose aggregate active-project effort is
// strictly below minHours, most deficient first.
func (e *Engine) LackingHours(ctx context.Context, minHours int) ([]SourcerHours, error) {
	projects, err := e.src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ReduceLackingHours(projects, minHours), nil
}

func ReduceLackingHours(projects []model.Project, minHours int) []SourcerHours {
	if minHours <= 0 {
		minHours = DefaultMinHours
	}
	totals := map[string]int{}
	for i := range projects {
		p := &projects[i]
		if p.Status != model.StatusActive {
			continue
		}
		effort := p.RolesCount * successHoursPerRole
		if p.ModelType == model.ModelHourly {
			effort = 0
			if p.HoursOrHires != nil {
				effort = *p.HoursOrHires
			}
		}
		totals[p.Sourcer] += effort
	}

	out := make([]SourcerHours, 0, len(totals))
	for sourcer, total := range totals {
		if total >= minHours {
			continue
		}
		out = append(out, SourcerHours{
			Sourcer:      sourcer,
			TotalHours:   total,
			MissingHours: minHours - total,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalHours != out[j].TotalHours {
			return out[i].TotalHours < out[j].TotalHours
		}
		return out[i].Sourcer < out[j].Sourcer
	})
	return out
}

func (e *Engine) Recent(ctx context.Context, limit int) ([]model.Project, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	projects, err := e.src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	if len(projects) > limit {
		projects = projects[:limit]
	}
	return projects, nil
}

// Timeline groups projects by calendar month of start_date within the
// trailing window. Rows without a start date are excluded.
func (e *Engine) Timeline(ctx context.Context, months int) ([]TimelineBucket, error) {
	if months <= 0 {
		months = DefaultTimelineMonths
	}
	projects, err := e.src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ReduceTimeline(projects, months, time.Now()), nil
}

func ReduceTimeline(projects []model.Project, months int, now time.Time) []TimelineBucket {
	cutoff := now.AddDate(0, -months, 0)
	buckets := map[string]*TimelineBucket{}
	for i := range projects {
		p := &projects[i]
		if p.StartDate == nil {
			continue
		}
		start, err := time.Parse("2006-01-02", *p.StartDate)
		if err != nil || start.Before(cutoff) {
			continue
		}
		month := start.Format("2006-01")
		b, ok := buckets[month]
		if !ok {
			b = &TimelineBucket{Month: month}
			buckets[month] = b
		}
		b.Count++
		b.TotalRoles += p.RolesCount
	}

	out := make([]TimelineBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
