package analytics

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/talent-lab/sourcedash/dao/model"
)

// ExportFilename is the download hint served with the CSV body.
const ExportFilename = "projects_export.csv"

// CSVFilter is the reduced filter set supported by the export (not the full
// list filter).
type CSVFilter struct {
	Status    *model.ProjectStatus `form:"status" binding:"omitempty,oneof=active completed archived"`
	GroupType *model.GroupType     `form:"group_type" binding:"omitempty,oneof=Israel Global"`
	ModelType *model.ModelType     `form:"model_type" binding:"omitempty,oneof=Hourly Success 'Success Executive'"`
}

var csvHeader = []string{
	"ID", "Company", "Sourcer", "Group", "Model", "Roles", "Roles Count",
	"Hours/Hires", "Start Date", "End Date", "Time to Hire", "Status",
	"Notes", "Created At",
}

// ExportCSV serializes the filtered project set, newest first.
func (e *Engine) ExportCSV(ctx context.Context, filter CSVFilter) (string, error) {
	projects, err := e.src.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	filtered := projects[:0:0]
	for i := range projects {
		p := &projects[i]
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.GroupType != nil && p.GroupType != *filter.GroupType {
			continue
		}
		if filter.ModelType != nil && p.ModelType != *filter.ModelType {
			continue
		}
		filtered = append(filtered, *p)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	return RenderCSV(filtered), nil
}

// RenderCSV writes the fixed-column CSV. Every cell is double-quoted with
// internal quotes doubled, rows are joined by newline and there is no
// trailing newline. encoding/csv quotes conditionally and appends a final
// newline, so the rows are written by hand.
func RenderCSV(projects []model.Project) string {
	var sb strings.Builder
	writeRow(&sb, csvHeader)
	for i := range projects {
		p := &projects[i]
		sb.WriteByte('\n')
		writeRow(&sb, []string{
			p.ID,
			p.Company,
			p.Sourcer,
			string(p.GroupType),
			string(p.ModelType),
			deref(p.Roles),
			strconv.Itoa(p.RolesCount),
			derefInt(p.HoursOrHires),
			deref(p.StartDate),
			deref(p.EndDate),
			deref(p.TimeToHire),
			string(p.Status),
			deref(p.Notes),
			p.CreatedAt.Format(time.RFC3339),
		})
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		sb.WriteByte('"')
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
