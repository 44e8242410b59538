package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talent-lab/sourcedash/dao/model"
	"github.com/talent-lab/sourcedash/internal/middleware"
	"github.com/talent-lab/sourcedash/internal/resputil"
	"github.com/talent-lab/sourcedash/internal/util"
	"github.com/talent-lab/sourcedash/pkg/repository"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewProjectMgr)
}

type ProjectMgr struct {
	name  string
	store repository.ProjectStore
}

func NewProjectMgr(conf *RegisterConfig) Manager {
	return &ProjectMgr{
		name:  "projects",
		store: conf.Store,
	}
}

func (mgr *ProjectMgr) GetName() string { return mgr.name }

func (mgr *ProjectMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ProjectMgr) RegisterProtected(g *gin.RouterGroup) {
	destructive := middleware.RoleRequired(model.RoleAdmin, model.RoleManager)

	g.GET("/projects", mgr.List)
	g.GET("/projects/filter-options", mgr.FilterOptions)
	g.GET("/projects/data", mgr.ExportData)
	g.POST("/projects/data", destructive, mgr.ImportData)
	g.POST("/projects/bulk", destructive, mgr.Bulk)
	g.GET("/projects/:id", mgr.Get)
	g.POST("/projects", mgr.Create)
	g.PUT("/projects/:id", mgr.Update)
	g.DELETE("/projects/:id", destructive, mgr.Delete)
	g.POST("/projects/:id/archive", mgr.Archive)
	g.POST("/projects/:id/restore", mgr.Restore)
}

func (mgr *ProjectMgr) RegisterAdmin(_ *gin.RouterGroup) {}

// actor returns the audit actor id for the current request, nil when the
// identity is unknown.
func actor(c *gin.Context) *string {
	token, ok := util.GetToken(c)
	if !ok || token.UserID == "" {
		return nil
	}
	id := token.UserID
	return &id
}

// List godoc
//
//	@Summary		List projects
//	@Description	Filtered, sorted and paginated project listing
//	@Tags			Project
//	@Produce		json
//	@Security		Bearer
//	@Param			filter	query	repository.ProjectFilter	false	"filter predicates"
//	@Param			page	query	repository.ListOptions	false	"pagination and sort"
//	@Success		200	{object}	resputil.Response[repository.ListResult]	"page of projects"
//	@Failure		400	{object}	resputil.Response[any]	"invalid query"
//	@Router			/v1/projects [get]
func (mgr *ProjectMgr) List(c *gin.Context) {
	var filter repository.ProjectFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, err.Error(), resputil.InvalidRequest)
		return
	}
	var opts repository.ListOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, err.Error(), resputil.InvalidRequest)
		return
	}

	result, err := mgr.store.List(c, filter, opts)
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, result)
}

// FilterOptions godoc
//
//	@Summary		Available filter values
//	@Description	Distinct sourcers/companies plus the static enumerations
//	@Tags			Project
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[repository.FilterOptions]	"filter options"
//	@Router			/v1/projects/filter-options [get]
func (mgr *ProjectMgr) FilterOptions(c *gin.Context) {
	options, err := mgr.store.FilterOptions(c)
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, options)
}

// Get godoc
//
//	@Summary		Get one project
//	@Tags			Project
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path	string	true	"project id"
//	@Success		200	{object}	resputil.Response[model.Project]	"project"
//	@Failure		404	{object}	resputil.Response[any]	"not found"
//	@Router			/v1/projects/{id} [get]
func (mgr *ProjectMgr) Get(c *gin.Context) {
	project, err := mgr.store.Get(c, c.Param("id"))
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, project)
}

// Create godoc
//
//	@Summary		Create a project
//	@Description	Defaults roles_count to 1 and status to active; audited
//	@Tags			Project
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			body	body	repository.CreateProjectInput	true	"project fields"
//	@Success		200	{object}	resputil.Response[model.Project]	"created project"
//	@Failure		400	{object}	resputil.Response[any]	"invalid body"
//	@Router			/v1/projects [post]
func (mgr *ProjectMgr) Create(c *gin.Context) {
	var input repository.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, err.Error(), resputil.InvalidRequest)
		return
	}

	project, err := mgr.store.Create(c, input, actor(c))
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, project)
}

// Update godoc
//
//	@Summary		Update a project
//	@Description	Partial update; refreshes updated_at; audited with before/after snapshots
//	@Tags			Project
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path	string	true	"project id"
//	@Param			body	body	repository.UpdateProjectInput	true	"changed fields"
//	@Success		200	{object}	resputil.Response[model.Project]	"updated project"
//	@Failure		404	{object}	resputil.Response[any]	"not found"
//	@Router			/v1/projects/{id} [put]
func (mgr *ProjectMgr) Update(c *gin.Context) {
	var input repository.UpdateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, err.Error(), resputil.InvalidRequest)
		return
	}

	project, err := mgr.store.Update(c, c.Param("id"), input, actor(c))
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, project)
}

// Delete godoc
//
//	@Summary		Delete a project
//	@Description	Hard delete, admin or manager only; audited with the pre-delete snapshot
//	@Tags			Project
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path	string	true	"project id"
//	@Success		200	{object}	resputil.Response[any]	"deleted"
//	@Failure		403	{object}	resputil.Response[any]	"role not allowed"
//	@Failure		404	{object}	resputil.Response[any]	"not found"
//	@Router			/v1/projects/{id} [delete]
func (mgr *ProjectMgr) Delete(c *gin.Context) {
	if err := mgr.store.Delete(c, c.Param("id"), actor(c)); err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, gin.H{"success": true})
}

// Archive godoc
//
//	@Summary		Archive a project
//	@Description	Shorthand for updating only the status to archived
//	@Tags			Project
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path	string	true	"project id"
//	@Success		200	{object}	resputil.Response[model.Project]	"archived project"
//	@Router			/v1/projects/{id}/archive [post]
func (mgr *ProjectMgr) Archive(c *gin.Context) {
	project, err := mgr.store.Archive(c, c.Param("id"), actor(c))
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, project)
}

// Restore godoc
//
//	@Summary		Restore an archived project to active
//	@Tags			Project
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path	string	true	"project id"
//	@Success		200	{object}	resputil.Response[model.Project]	"restored project"
//	@Router			/v1/projects/{id}/restore [post]
func (mgr *ProjectMgr) Restore(c *gin.Context) {
	project, err := mgr.store.Restore(c, c.Param("id"), actor(c))
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, project)
}

type BulkReq struct {
	IDs    []string              `json:"ids" binding:"required,min=1"`
	Action repository.BulkAction `json:"action" binding:"required,oneof=archive complete activate delete"`
}

type BulkResp struct {
	Success  bool  `json:"success"`
	Affected int64 `json:"affected"`
}

// Bulk godoc
//
//	@Summary		Apply a status transition or delete to many projects
//	@Description	Admin or manager only; affected rows are not individually audited
//	@Tags			Project
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			body	body	BulkReq	true	"ids and action"
//	@Success		200	{object}	resputil.Response[BulkResp]	"affected count"
//	@Failure		400	{object}	resputil.Response[any]	"unknown action"
//	@Failure		403	{object}	resputil.Response[any]	"role not allowed"
//	@Router			/v1/projects/bulk [post]
func (mgr *ProjectMgr) Bulk(c *gin.Context) {
	var req BulkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, err.Error(), resputil.InvalidRequest)
		return
	}

	affected, err := mgr.store.BulkAction(c, req.IDs, req.Action)
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, BulkResp{Success: true, Affected: affected})
}

// ExportData godoc
//
//	@Summary		Export the raw project document
//	@Description	Returns the full `{projects, lastUpdated}` document
//	@Tags			Project
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[repository.Document]	"document"
//	@Router			/v1/projects/data [get]
func (mgr *ProjectMgr) ExportData(c *gin.Context) {
	doc, err := mgr.store.ExportDocument(c)
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, doc)
}

// ImportData godoc
//
//	@Summary		Replace the project set from a raw document
//	@Description	Admin or manager only; replaces every project row
//	@Tags			Project
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			body	body	repository.Document	true	"document"
//	@Success		200	{object}	resputil.Response[any]	"imported count"
//	@Failure		403	{object}	resputil.Response[any]	"role not allowed"
//	@Router			/v1/projects/data [post]
func (mgr *ProjectMgr) ImportData(c *gin.Context) {
	var doc repository.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, err.Error(), resputil.InvalidRequest)
		return
	}
	if doc.Projects == nil {
		resputil.HTTPError(c, http.StatusBadRequest, "document has no projects array", resputil.InvalidRequest)
		return
	}

	if err := mgr.store.ImportDocument(c, &doc); err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, gin.H{"imported": len(doc.Projects)})
}
