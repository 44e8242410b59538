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
	Registers = append(Registers, NewAuthMgr)
}

type AuthMgr struct {
	name  string
	users repository.UserStore
	token *util.TokenManager
}

func NewAuthMgr(conf *RegisterConfig) Manager {
	return &AuthMgr{
		name:  "auth",
		users: conf.Users,
		token: conf.Token,
	}
}

func (mgr *AuthMgr) GetName() string { return mgr.name }

func (mgr *AuthMgr) RegisterPublic(g *gin.RouterGroup) {
	g.POST("/auth/login", mgr.Login)
	g.POST("/auth/register", mgr.Register)
	g.POST("/auth/refresh", mgr.Refresh)
}

func (mgr *AuthMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/auth/me", mgr.Me)
}

func (mgr *AuthMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	LoginReq struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	RegisterReq struct {
		Email    string      `json:"email" binding:"required,email"`
		Password string      `json:"password" binding:"required,min=6"`
		Name     string      `json:"name" binding:"required"`
		Role     *model.Role `json:"role" binding:"omitempty,oneof=admin manager user"`
	}
	RefreshReq struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	UserInfo struct {
		ID    string     `json:"id"`
		Email string     `json:"email"`
		Name  string     `json:"name"`
		Role  model.Role `json:"role"`
	}
	TokenPairResp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	AuthResp struct {
		User UserInfo `json:"user"`
		TokenPairResp
	}
)

// invalidCredentials is the single message for every login failure so the
// response does not reveal whether the email exists.
const invalidCredentials = "Invalid credentials"

// Login godoc
//
//	@Summary		Sign in with email and password
//	@Description	Issues an access/refresh token pair for valid credentials
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body	LoginReq	true	"credentials"
//	@Success		200	{object}	resputil.Response[AuthResp]	"user and token pair"
//	@Failure		401	{object}	resputil.Response[any]	"invalid credentials"
//	@Router			/v1/auth/login [post]
func (mgr *AuthMgr) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, err.Error(), resputil.InvalidRequest)
		return
	}

	user, err := mgr.users.GetByEmail(c, req.Email)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if user == nil {
		resputil.HTTPError(c, http.StatusUnauthorized, invalidCredentials, resputil.InvalidCredentials)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, invalidCredentials, resputil.InvalidCredentials)
		return
	}

	mgr.respondWithTokens(c, user)
}

// Register godoc
//
//	@Summary		Create an account
//	@Description	Rejects duplicate emails; defaults the role to user
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body	RegisterReq	true	"account details"
//	@Success		200	{object}	resputil.Response[AuthResp]	"user and token pair"
//	@Failure		409	{object}	resputil.Response[any]	"email already exists"
//	@Router			/v1/auth/register [post]
func (mgr *AuthMgr) Register(c *gin.Context) {
	var req RegisterReq
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

	mgr.respondWithTokens(c, user)
}

// Refresh godoc
//
//	@Summary		Exchange a refresh token for a new token pair
//	@Description	Rejects invalid or expired tokens and tokens of deleted users
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body	RefreshReq	true	"refresh token"
//	@Success		200	{object}	resputil.Response[TokenPairResp]	"new token pair"
//	@Failure		401	{object}	resputil.Response[any]	"invalid refresh token"
//	@Router			/v1/auth/refresh [post]
func (mgr *AuthMgr) Refresh(c *gin.Context) {
	var req RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, err.Error(), resputil.InvalidRequest)
		return
	}

	msg, err := mgr.token.CheckRefreshToken(req.RefreshToken)
	if err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "Invalid refresh token", resputil.TokenInvalid)
		return
	}

	// The token may outlive the account; a deleted user cannot refresh.
	user, err := mgr.users.Get(c, msg.UserID)
	if err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "Invalid refresh token", resputil.TokenInvalid)
		return
	}

	access, refresh, err := mgr.token.CreateTokens(&util.JWTMessage{
		UserID: user.ID, Email: user.Email, Role: user.Role,
	})
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, TokenPairResp{AccessToken: access, RefreshToken: refresh})
}

// Me godoc
//
//	@Summary		Current identity
//	@Description	Returns the identity embedded in the verified access token
//	@Tags			Auth
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[UserInfo]	"identity"
//	@Router			/v1/auth/me [get]
func (mgr *AuthMgr) Me(c *gin.Context) {
	token, _ := util.GetToken(c)
	user, err := mgr.users.Get(c, token.UserID)
	if err != nil {
		resputil.StoreError(c, err)
		return
	}
	resputil.Success(c, UserInfo{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role})
}

func (mgr *AuthMgr) respondWithTokens(c *gin.Context, user *model.User) {
	access, refresh, err := mgr.token.CreateTokens(&util.JWTMessage{
		UserID: user.ID, Email: user.Email, Role: user.Role,
	})
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, AuthResp{
		User:          UserInfo{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role},
		TokenPairResp: TokenPairResp{AccessToken: access, RefreshToken: refresh},
	})
}
