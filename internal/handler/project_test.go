package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talent-lab/sourcedash/dao/model"
	"github.com/talent-lab/sourcedash/pkg/repository"
)

func TestProjectCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "dana@example.com", "secret123", model.RoleUser)

	w, env1 := env.request(t, http.MethodPost, "/v1/projects", token, map[string]any{
		"company":    "Acme",
		"sourcer":    "Dana",
		"group_type": "Israel",
		"model_type": "Hourly",
	})
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[model.Project](t, env1.Data)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.RolesCount)
	assert.Equal(t, model.StatusActive, created.Status)

	w, env2 := env.request(t, http.MethodGet, "/v1/projects/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Acme", decode[model.Project](t, env2.Data).Company)

	w, env3 := env.request(t, http.MethodPut, "/v1/projects/"+created.ID, token, map[string]any{
		"notes": "reviewed",
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[model.Project](t, env3.Data)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "reviewed", *updated.Notes)

	w, _ = env.request(t, http.MethodGet, "/v1/projects/does-not-exist", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "dana@example.com", "secret123", model.RoleUser)

	// missing required company
	w, _ := env.request(t, http.MethodPost, "/v1/projects", token, map[string]any{
		"sourcer":    "Dana",
		"group_type": "Israel",
		"model_type": "Hourly",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown enum value
	w, _ = env.request(t, http.MethodPost, "/v1/projects", token, map[string]any{
		"company":    "Acme",
		"sourcer":    "Dana",
		"group_type": "Mars",
		"model_type": "Hourly",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// malformed date
	w, _ = env.request(t, http.MethodPost, "/v1/projects", token, map[string]any{
		"company":    "Acme",
		"sourcer":    "Dana",
		"group_type": "Israel",
		"model_type": "Hourly",
		"start_date": "01/02/2024",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectList(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "dana@example.com", "secret123", model.RoleUser)

	env.seedProject(t, "Acme", "Dana")
	env.seedProject(t, "Beta", "Lior")

	w, env1 := env.request(t, http.MethodGet, "/v1/projects", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[repository.ListResult](t, env1.Data)
	assert.EqualValues(t, 2, result.Pagination.Total)
	assert.Equal(t, 20, result.Pagination.Limit)

	w, env2 := env.request(t, http.MethodGet, "/v1/projects?company=Acme", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[repository.ListResult](t, env2.Data).Pagination.Total)

	// limit above the cap is a validation error
	w, _ = env.request(t, http.MethodGet, "/v1/projects?limit=500", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env3 := env.request(t, http.MethodGet, "/v1/projects/filter-options", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	opts := decode[repository.FilterOptions](t, env3.Data)
	assert.Equal(t, []string{"Dana", "Lior"}, opts.Sourcers)
	assert.Len(t, opts.ModelTypes, 3)
}

func TestDestructiveRoutesRequireElevatedRole(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.seedUser(t, "user@example.com", "secret123", model.RoleUser)
	_, managerToken := env.seedUser(t, "manager@example.com", "secret123", model.RoleManager)

	p := env.seedProject(t, "Acme", "Dana")

	w, _ := env.request(t, http.MethodDelete, "/v1/projects/"+p.ID, userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.request(t, http.MethodPost, "/v1/projects/bulk", userToken, map[string]any{
		"ids": []string{p.ID}, "action": "archive",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.request(t, http.MethodPost, "/v1/projects/data", userToken, map[string]any{
		"projects": []any{},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// manager passes the same gates
	w, env1 := env.request(t, http.MethodPost, "/v1/projects/bulk", managerToken, map[string]any{
		"ids": []string{p.ID}, "action": "archive",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[BulkResp](t, env1.Data)
	assert.True(t, resp.Success)
	assert.EqualValues(t, 1, resp.Affected)

	w, _ = env.request(t, http.MethodDelete, "/v1/projects/"+p.ID, managerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBulkUnknownActionRejected(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "admin@example.com", "secret123", model.RoleAdmin)

	w, _ := env.request(t, http.MethodPost, "/v1/projects/bulk", token, map[string]any{
		"ids": []string{"x"}, "action": "promote",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.request(t, http.MethodPost, "/v1/projects/bulk", token, map[string]any{
		"ids": []string{}, "action": "archive",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArchiveRestoreEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "dana@example.com", "secret123", model.RoleUser)
	p := env.seedProject(t, "Acme", "Dana")

	w, env1 := env.request(t, http.MethodPost, "/v1/projects/"+p.ID+"/archive", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StatusArchived, decode[model.Project](t, env1.Data).Status)

	w, env2 := env.request(t, http.MethodPost, "/v1/projects/"+p.ID+"/restore", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StatusActive, decode[model.Project](t, env2.Data).Status)
}

func TestImportExportDocumentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "admin@example.com", "secret123", model.RoleAdmin)

	env.seedProject(t, "Old", "Dana")

	w, _ := env.request(t, http.MethodPost, "/v1/projects/data", token, map[string]any{
		"projects": []map[string]any{{
			"id": "imported-1", "company": "New Co", "sourcer": "Lior",
			"group_type": "Global", "model_type": "Success",
			"roles_count": 2, "status": "active",
		}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	// a document without a projects array is rejected before any write
	w, _ = env.request(t, http.MethodPost, "/v1/projects/data", token, map[string]any{
		"lastUpdated": "2024-01-01T00:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env1 := env.request(t, http.MethodGet, "/v1/projects/data", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode[repository.Document](t, env1.Data)
	require.Len(t, doc.Projects, 1)
	assert.Equal(t, "imported-1", doc.Projects[0].ID)
	assert.NotEmpty(t, doc.LastUpdated)
}
