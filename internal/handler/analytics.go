package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/talent-lab/sourcedash/internal/resputil"
	"github.com/talent-lab/sourcedash/pkg/analytics"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewAnalyticsMgr)
}

type AnalyticsMgr struct {
	name   string
	engine *analytics.Engine
}

func NewAnalyticsMgr(conf *RegisterConfig) Manager {
	return &AnalyticsMgr{
		name:   "analytics",
		engine: conf.Analytics,
	}
}

func (mgr *AnalyticsMgr) GetName() string { return mgr.name }

func (mgr *AnalyticsMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *AnalyticsMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/analytics/overview", mgr.Overview)
	g.GET("/analytics/by-model", mgr.ByModel)
	g.GET("/analytics/by-group", mgr.ByGroup)
	g.GET("/analytics/by-sourcer", mgr.BySourcer)
	g.GET("/analytics/by-status", mgr.ByStatus)
	g.GET("/analytics/clients", mgr.Clients)
	g.GET("/analytics/lacking-hours", mgr.LackingHours)
	g.GET("/analytics/recent", mgr.Recent)
	g.GET("/analytics/timeline", mgr.Timeline)
	g.GET("/analytics/export", mgr.ExportCSV)
}

func (mgr *AnalyticsMgr) RegisterAdmin(_ *gin.RouterGroup) {}

// intQuery parses an optional positive integer query parameter, returning
// fallback for missing or unparsable values.
func intQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// Overview godoc
//
//	@Summary		Dashboard overview statistics
//	@Tags			Analytics
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[analytics.Overview]	"overview counters"
//	@Router			/v1/analytics/overview [get]
func (mgr *AnalyticsMgr) Overview(c *gin.Context) {
	stats, err := mgr.engine.Overview(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, stats)
}

// ByModel godoc
//
//	@Summary		Project counts per billing model
//	@Tags			Analytics
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]analytics.ModelCount]	"counts"
//	@Router			/v1/analytics/by-model [get]
func (mgr *AnalyticsMgr) ByModel(c *gin.Context) {
	data, err := mgr.engine.ByModel(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, data)
}

// ByGroup godoc
//
//	@Summary		Project counts per group
//	@Tags			Analytics
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]analytics.GroupCount]	"counts"
//	@Router			/v1/analytics/by-group [get]
func (mgr *AnalyticsMgr) ByGroup(c *gin.Context) {
	data, err := mgr.engine.ByGroup(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, data)
}

// BySourcer godoc
//
//	@Summary		Project and role totals per sourcer
//	@Tags			Analytics
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]analytics.SourcerStats]	"per-sourcer totals"
//	@Router			/v1/analytics/by-sourcer [get]
func (mgr *AnalyticsMgr) BySourcer(c *gin.Context) {
	data, err := mgr.engine.BySourcer(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, data)
}

// ByStatus godoc
//
//	@Summary		Project counts per status
//	@Tags			Analytics
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]analytics.StatusCount]	"counts"
//	@Router			/v1/analytics/by-status [get]
func (mgr *AnalyticsMgr) ByStatus(c *gin.Context) {
	data, err := mgr.engine.ByStatus(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, data)
}

// Clients godoc
//
//	@Summary		Client rollups
//	@Description	Per-company totals with the hours/hires bucket split
//	@Tags			Analytics
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]analytics.ClientStats]	"per-company rollups"
//	@Router			/v1/analytics/clients [get]
func (mgr *AnalyticsMgr) Clients(c *gin.Context) {
	data, err := mgr.engine.Clients(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, data)
}

// LackingHours godoc
//
//	@Summary		Sourcers below the active-effort threshold
//	@Tags			Analytics
//	@Produce		json
//	@Security		Bearer
//	@Param			minHours	query	int	false	"threshold (default 200)"
//	@Success		200	{object}	resputil.Response[[]analytics.SourcerHours]	"deficit report"
//	@Router			/v1/analytics/lacking-hours [get]
func (mgr *AnalyticsMgr) LackingHours(c *gin.Context) {
	data, err := mgr.engine.LackingHours(c, intQuery(c, "minHours", analytics.DefaultMinHours))
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, data)
}

// Recent godoc
//
//	@Summary		Most recently created projects
//	@Tags			Analytics
//	@Produce		json
//	@Security		Bearer
//	@Param			limit	query	int	false	"row cap (default 10)"
//	@Success		200	{object}	resputil.Response[[]model.Project]	"recent projects"
//	@Router			/v1/analytics/recent [get]
func (mgr *AnalyticsMgr) Recent(c *gin.Context) {
	data, err := mgr.engine.Recent(c, intQuery(c, "limit", analytics.DefaultRecentLimit))
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, data)
}

// Timeline godoc
//
//	@Summary		Monthly project counts over the trailing window
//	@Tags			Analytics
//	@Produce		json
//	@Security		Bearer
//	@Param			months	query	int	false	"window size (default 12)"
//	@Success		200	{object}	resputil.Response[[]analytics.TimelineBucket]	"monthly buckets"
//	@Router			/v1/analytics/timeline [get]
func (mgr *AnalyticsMgr) Timeline(c *gin.Context) {
	data, err := mgr.engine.Timeline(c, intQuery(c, "months", analytics.DefaultTimelineMonths))
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, data)
}

// ExportCSV godoc
//
//	@Summary		CSV export of the filtered project set
//	@Description	Supports status, group_type and model_type filters only
//	@Tags			Analytics
//	@Produce		text/csv
//	@Security		Bearer
//	@Param			filter	query	analytics.CSVFilter	false	"export filters"
//	@Success		200	{string}	string	"CSV body"
//	@Router			/v1/analytics/export [get]
func (mgr *AnalyticsMgr) ExportCSV(c *gin.Context) {
	var filter analytics.CSVFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, err.Error(), resputil.InvalidRequest)
		return
	}

	csv, err := mgr.engine.ExportCSV(c, filter)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+analytics.ExportFilename+`"`)
	c.Data(http.StatusOK, "text/csv", []byte(csv))
}
