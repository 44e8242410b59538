package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/talent-lab/sourcedash/internal/util"
	"github.com/talent-lab/sourcedash/pkg/analytics"
	"github.com/talent-lab/sourcedash/pkg/repository"
)

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

// RegisterConfig carries the composed dependencies every manager may draw
// from. The concrete stores are chosen once in cmd/sourcedash.
type RegisterConfig struct {
	Store     repository.ProjectStore
	Users     repository.UserStore
	Analytics *analytics.Engine
	Token     *util.TokenManager
}

type RegisterFunc func(conf *RegisterConfig) Manager

// Registers collects the manager constructors; each handler file appends its
// own in init().
var Registers []RegisterFunc
