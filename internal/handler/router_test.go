package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/talent-lab/sourcedash/dao/model"
	"github.com/talent-lab/sourcedash/internal/middleware"
	"github.com/talent-lab/sourcedash/internal/util"
	"github.com/talent-lab/sourcedash/pkg/analytics"
	"github.com/talent-lab/sourcedash/pkg/filestore"
	"github.com/talent-lab/sourcedash/pkg/repository"
)

// testEnv is a fully wired router over the file store and in-memory users,
// mirroring the composition in cmd/sourcedash.
type testEnv struct {
	router *gin.Engine
	token  *util.TokenManager
	users  repository.UserStore
	store  repository.ProjectStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := filestore.New(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)

	conf := &RegisterConfig{
		Store:     store,
		Users:     repository.NewMemUsers(),
		Analytics: analytics.NewEngine(store),
		Token:     util.NewTokenManager("access", "refresh", 1, 2),
	}

	router := gin.New()
	public := router.Group("/v1")
	protected := router.Group("/v1")
	protected.Use(middleware.AuthProtected(conf.Token))
	admin := router.Group("/v1/admin")
	admin.Use(middleware.AuthProtected(conf.Token), middleware.AuthAdmin())

	for _, register := range Registers {
		mgr := register(conf)
		mgr.RegisterPublic(public)
		mgr.RegisterProtected(protected)
		mgr.RegisterAdmin(admin)
	}

	return &testEnv{router: router, token: conf.Token, users: conf.Users, store: store}
}

// seedUser creates a user with a bcrypt-hashed password and returns its access
// token.
func (e *testEnv) seedUser(t *testing.T, email, password string, role model.Role) (*model.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := e.users.Create(context.Background(), email, string(hash), "Test User", role)
	require.NoError(t, err)

	access, _, err := e.token.CreateTokens(&util.JWTMessage{
		UserID: user.ID, Email: user.Email, Role: user.Role,
	})
	require.NoError(t, err)
	return user, access
}

func (e *testEnv) seedProject(t *testing.T, company, sourcer string) *model.Project {
	t.Helper()
	p, err := e.store.Create(context.Background(), repository.CreateProjectInput{
		Company:   company,
		Sourcer:   sourcer,
		GroupType: model.GroupIsrael,
		ModelType: model.ModelHourly,
	}, nil)
	require.NoError(t, err)
	return p
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if len(w.Body.Bytes()) > 0 && w.Header().Get("Content-Type") != "text/csv" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
