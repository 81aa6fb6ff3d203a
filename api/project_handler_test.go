package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-backend/models"
)

func createProject(t *testing.T, env *testEnv, body map[string]any) *models.Project {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/projects", body, withToken(env.adminToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[*models.Project](t, rec)
}

func TestCreateAndFetchProject(t *testing.T) {
	env := newTestEnv(t, Dependencies{}, nil)

	created := createProject(t, env, map[string]any{
		"title":   "Cedar Canoe!",
		"summary": "Strip-built canoe",
		"tags":    []string{"Woodworking", "boats"},
	})
	assert.Equal(t, "cedar-canoe", created.Slug)
	assert.Equal(t, models.ProjectKindHobby, created.Kind)
	assert.ElementsMatch(t, []string{"woodworking", "boats"}, created.TagValues())

	rec := env.do(t, http.MethodGet, "/api/projects/cedar-canoe", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeBody[*models.Project](t, rec).ID)

	rec = env.do(t, http.MethodGet, "/api/projects/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/tags", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"boats", "woodworking"}, decodeBody[ListResponse[string]](t, rec).Items)
}

func TestCreateProjectValidation(t *testing.T) {
	env := newTestEnv(t, Dependencies{}, nil)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"summary": "x"}},
		{"bad kind", map[string]any{"title": "Lamp", "kind": "side-quest"}},
		{"bad status", map[string]any{"title": "Lamp", "status": "abandoned"}},
		{"slug of symbols", map[string]any{"title": "!!!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/projects", tt.body, withToken(env.adminToken))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "error", decodeBody[ErrorResponse](t, rec).Status)
		})
	}

	rec := env.do(t, http.MethodPost, "/api/projects", strings.NewReader(`{"title":`), withToken(env.adminToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProjectDuplicateSlug(t *testing.T) {
	env := newTestEnv(t, Dependencies{}, nil)
	createProject(t, env, map[string]any{"title": "Lamp"})

	rec := env.do(t, http.MethodPost, "/api/projects", map[string]any{"title": "Other lamp", "slug": "lamp"}, withToken(env.adminToken))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListProjectsFilters(t *testing.T) {
	env := newTestEnv(t, Dependencies{}, nil)
	createProject(t, env, map[string]any{"title": "Canoe", "kind": "hobby", "featured": true})
	createProject(t, env, map[string]any{"title": "Billing API", "kind": "work"})

	rec := env.do(t, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeBody[ListResponse[*models.Project]](t, rec)
	require.Equal(t, 2, all.Total)
	assert.Equal(t, "Canoe", all.Items[0].Title)

	rec = env.do(t, http.MethodGet, "/api/projects?kind=work", nil)
	work := decodeBody[ListResponse[*models.Project]](t, rec)
	require.Len(t, work.Items, 1)
	assert.Equal(t, "Billing API", work.Items[0].Title)

	rec = env.do(t, http.MethodGet, "/api/projects?featured=true", nil)
	featured := decodeBody[ListResponse[*models.Project]](t, rec)
	require.Len(t, featured.Items, 1)
	assert.Equal(t, "Canoe", featured.Items[0].Title)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/projects?kind=other", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/projects?featured=maybe", nil).Code)
}

func TestUpdateProject(t *testing.T) {
	env := newTestEnv(t, Dependencies{}, nil)
	p := createProject(t, env, map[string]any{"title": "Lamp", "tags": []string{"wood"}})

	rec := env.do(t, http.MethodPut, "/api/projects/"+p.ID.String(), map[string]any{
		"title":  "Walnut lamp",
		"status": "done",
	}, withToken(env.adminToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeBody[*models.Project](t, rec)
	assert.Equal(t, "walnut-lamp", updated.Slug)
	assert.Equal(t, models.ProjectStatusDone, updated.Status)
	assert.Equal(t, []string{"wood"}, updated.TagValues(), "tags are kept when omitted")

	rec = env.do(t, http.MethodPut, "/api/projects/"+p.ID.String(), map[string]any{
		"title": "Walnut lamp",
		"tags":  []string{},
	}, withToken(env.adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[*models.Project](t, rec).Tags)

	rec = env.do(t, http.MethodPut, "/api/projects/"+uuid.NewString(), map[string]any{"title": "Ghost"}, withToken(env.adminToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReorderProjects(t *testing.T) {
	env := newTestEnv(t, Dependencies{}, nil)
	a := createProject(t, env, map[string]any{"title": "A"})
	b := createProject(t, env, map[string]any{"title": "B"})

	rec := env.do(t, http.MethodPut, "/api/projects/order", map[string]any{"ids": []uuid.UUID{b.ID, a.ID}}, withToken(env.adminToken))
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	list := decodeBody[ListResponse[*models.Project]](t, env.do(t, http.MethodGet, "/api/projects", nil))
	require.Len(t, list.Items, 2)
	assert.Equal(t, "B", list.Items[0].Title)

	rec = env.do(t, http.MethodPut, "/api/projects/order", map[string]any{"ids": []uuid.UUID{uuid.New()}}, withToken(env.adminToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProject(t *testing.T) {
	store := newMemoryStore()
	env := newTestEnv(t, Dependencies{Store: store}, nil)
	p := createProject(t, env, map[string]any{"title": "Shelf"})

	body, contentType := multipartBody(t, "files", [][]byte{pngBytes}, nil)
	rec := env.do(t, http.MethodPost, "/api/projects/"+p.ID.String()+"/images", body,
		withToken(env.adminToken), withHeader("Content-Type", contentType))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.objects, 1)

	rec = env.do(t, http.MethodDelete, "/api/projects/"+p.ID.String(), nil, withToken(env.adminToken))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.objects)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/projects/shelf", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/projects/"+p.ID.String(), nil, withToken(env.adminToken)).Code)
}

func TestGetUnknownProject(t *testing.T) {
	env := newTestEnv(t, Dependencies{}, nil)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/projects/no-such-thing", nil).Code)
}
