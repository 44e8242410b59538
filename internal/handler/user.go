package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/talent-lab/sourcedash/dao/model"
	"github.com/talent-lab/sourcedash/internal/resputil"
	"github.com/talent-lab/sourcedash/internal/util"
	"github.com/talent-lab/sourcedash/pkg/repository"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewUserMgr)
}

type UserMgr struct {
	name  string
	users repository.UserStore
}

func NewUserMgr(conf *RegisterConfig) Manager {
	return &UserMgr{
		name:  "users",
		users: conf.Users,
	}
}

func (mgr *UserMgr) GetName() string { return mgr.name }

func (mgr *UserMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *UserMgr) RegisterProtected(g *gin.RouterGroup) {
	// Password change is self-service; everything else is admin only.
	g.POST("/users/:id/password", mgr.UpdatePassword)
}

func (mgr *UserMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("/users", mgr.List)
	g.GET("/users/:id", mgr.Get)
	g.POST("/users", mgr.Create)
	g.PUT("/users/:id", mgr.Update)
	g.DELETE("/users/:id", mgr.Delete)
}

type (
	CreateUserReq struct {
		Email    string      `json:"email" binding:"required,email"`
		Password string      `json:"password" binding:"required,min=6"`
		Name     string      `json:"name" binding:"required"`
		Role     *model.Role `json:"role" binding:"omitempty,oneof=admin manager user"`
	}
	UpdateUserReq struct {
		Name  *string     `json:"name" binding:"omitempty,min=1"`
		Email *string     `json:"email" binding:"omitempty,email"`
		Role  *model.Role `json:"role" binding:"omitempty,oneof=admin manager user"`
	}
	UpdatePasswordReq struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=6"`
	}
)

// List godoc
//
//	@Summary		List users
//	@Tags			User
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[[]model.User]	"users, newest first"
//	@Router			/v1/admin/users [get]
func (mgr *UserMgr) List(c *gin.Context) {
	users, err := mgr.users.List(c)
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, users)
}

// Get godoc
//
//	@Summary		Get one user
//	@Tags			User
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path	string	true	"user id"
//	@Success		200	{object}	resputil.Response[model.User]	"user"
//	@Failure		404	{object}	resputil.Response[any]	"not found"
//	@Router			/v1/admin/users/{id} [get]
func (mgr *UserMgr) Get(c *gin.Context) {
	user, err := mgr.users.Get(c, c.Param("id"))
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, user)
}

// Create godoc
//
//	@Summary		Create a user
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			body	body	CreateUserReq	true	"user fields"
//	@Success		200	{object}	resputil.Response[model.User]	"created user"
//	@Failure		409	{object}	resputil.Response[any]	"email already exists"
//	@Router			/v1/admin/users [post]
func (mgr *UserMgr) Create(c *gin.Context) {
	var req CreateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, err.Error(), resputil.InvalidRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	role := model.RoleUser
	if req.Role != nil {
		role = *req.Role
	}

	user, err := mgr.users.Create(c, req.Email, string(hash), req.Name, role)
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, user)
}

// Update godoc
//
//	@Summary		Update a user's name, email or role
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path	string	true	"user id"
//	@Param			body	body	UpdateUserReq	true	"changed fields"
//	@Success		200	{object}	resputil.Response[model.User]	"updated user"
//	@Failure		404	{object}	resputil.Response[any]	"not found"
//	@Failure		409	{object}	resputil.Response[any]	"email already exists"
//	@Router			/v1/admin/users/{id} [put]
func (mgr *UserMgr) Update(c *gin.Context) {
	var req UpdateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, err.Error(), resputil.InvalidRequest)
		return
	}

	user, err := mgr.users.Update(c, c.Param("id"), req.Name, req.Email, req.Role)
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, user)
}

// UpdatePassword godoc
//
//	@Summary		Change a password
//	@Description	Verifies the current password; callers may only change their own unless admin
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path	string	true	"user id"
//	@Param			body	body	UpdatePasswordReq	true	"current and new password"
//	@Success		200	{object}	resputil.Response[any]	"changed"
//	@Failure		400	{object}	resputil.Response[any]	"current password incorrect"
//	@Failure		403	{object}	resputil.Response[any]	"not your account"
//	@Router			/v1/users/{id}/password [post]
func (mgr *UserMgr) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, err.Error(), resputil.InvalidRequest)
		return
	}

	id := c.Param("id")
	token, _ := util.GetToken(c)
	if token.UserID != id && token.Role != model.RoleAdmin {
		resputil.HTTPError(c, http.StatusForbidden, "Cannot change another user's password", resputil.UserNotAllowed)
		return
	}

	user, err := mgr.users.Get(c, id)
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		resputil.StoreError(c, repository.ErrInvalidPassword)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if err := mgr.users.UpdatePassword(c, id, string(hash)); err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, gin.H{"success": true})
}

// Delete godoc
//
//	@Summary		Delete a user
//	@Description	Audit rows keep a null actor after the user is gone
//	@Tags			User
//	@Produce		json
//	@Security		Bearer
//	@Param			id	path	string	true	"user id"
//	@Success		200	{object}	resputil.Response[any]	"deleted"
//	@Failure		404	{object}	resputil.Response[any]	"not found"
//	@Router			/v1/admin/users/{id} [delete]
func (mgr *UserMgr) Delete(c *gin.Context) {
	if err := mgr.users.Delete(c, c.Param("id")); err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, gin.H{"success": true})
}
