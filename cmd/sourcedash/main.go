package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/talent-lab/sourcedash/dao/model"
	"github.com/talent-lab/sourcedash/dao/query"
	"github.com/talent-lab/sourcedash/internal"
	"github.com/talent-lab/sourcedash/internal/handler"
	"github.com/talent-lab/sourcedash/internal/util"
	"github.com/talent-lab/sourcedash/pkg/analytics"
	"github.com/talent-lab/sourcedash/pkg/config"
	"github.com/talent-lab/sourcedash/pkg/filestore"
	"github.com/talent-lab/sourcedash/pkg/logutils"
	"github.com/talent-lab/sourcedash/pkg/repository"
)

// @title Sourcing Dashboard API
// @version 1.0
// @description Recruiting project tracking and analytics service.
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Log in via /v1/auth/login and pass 'Bearer ${TOKEN}' to access protected routes.
func main() {
	// set global timezone
	time.Local = time.UTC

	// variable changes in local development
	if gin.Mode() == gin.DebugMode {
		if err := godotenv.Load(".debug.env"); err != nil {
			logutils.Log.Info("no .debug.env file, relying on config file only")
		}
	}

	backendConfig := config.GetConfig()

	store, users, err := buildStores(backendConfig)
	if err != nil {
		logutils.Log.Error("storage init: ", err)
		panic(err)
	}

	token := util.NewTokenManager(
		backendConfig.Auth.AccessTokenSecret,
		backendConfig.Auth.RefreshTokenSecret,
		backendConfig.Auth.AccessTokenExpiryHour,
		backendConfig.Auth.RefreshTokenExpiryHour,
	)

	backend := internal.Register(&handler.RegisterConfig{
		Store:     store,
		Users:     users,
		Analytics: analytics.NewEngine(store),
		Token:     token,
	})

	srv := &http.Server{
		Addr:              backendConfig.ServerAddr,
		Handler:           backend.R,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logutils.Log.Infof("listening on %s (storage mode: %s)", backendConfig.ServerAddr, backendConfig.Storage.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logutils.Log.Error("server error: ", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logutils.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logutils.Log.Error("forced shutdown: ", err)
	}
}

// buildStores wires the project and user stores for the configured
// storage mode. Postgres gets the full relational stack with audit
// logging; file mode keeps the whole dataset in one JSON document and
// authenticates against an in-memory user table seeded with the
// bootstrap admin.
func buildStores(conf *config.Config) (repository.ProjectStore, repository.UserStore, error) {
	switch conf.Storage.Mode {
	case config.StoragePostgres:
		db := query.GetDB()
		if err := query.Migrate(db); err != nil {
			return nil, nil, err
		}
		return repository.NewStore(db), repository.NewUsers(db), nil
	case config.StorageFile:
		store, err := filestore.New(conf.Storage.File.Path)
		if err != nil {
			return nil, nil, err
		}
		users := repository.NewMemUsers()
		if err := seedBootstrapAdmin(users, conf); err != nil {
			return nil, nil, err
		}
		return store, users, nil
	default:
		return nil, nil, errors.New("unknown storage mode: " + string(conf.Storage.Mode))
	}
}

func seedBootstrapAdmin(users repository.UserStore, conf *config.Config) error {
	boot := conf.Auth.Bootstrap
	if boot.Email == "" || boot.Password == "" {
		return errors.New("file storage mode requires auth.bootstrap.email and auth.bootstrap.password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(boot.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	name := boot.Name
	if name == "" {
		name = "Administrator"
	}
	_, err = users.Create(context.Background(), boot.Email, string(hash), name, model.RoleAdmin)
	return err
}
