package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/database/dbtest"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/services"
)

const testSecret = "test-secret"

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type testEnv struct {
	handler     http.Handler
	db          database.Database
	gorm        *gorm.DB
	issuer      tokenIssuer
	admin       *models.User
	viewer      *models.User
	adminToken  string
	viewerToken string
}

func newTestEnv(t *testing.T, deps Dependencies, overrides map[string]string) *testEnv {
	t.Helper()

	c := map[string]string{
		"JWT_SECRET":    testSecret,
		"COOKIE_SECURE": "false",
	}
	for k, v := range overrides {
		c[k] = v
	}

	gormDB := dbtest.Open(t)
	db := database.New(gormDB)
	handler, err := newRouter(db, withConfig(c), withDependencies(deps))
	require.NoError(t, err)

	env := &testEnv{
		handler: handler,
		db:      db,
		gorm:    gormDB,
		issuer:  newTokenIssuer(testSecret, time.Hour),
	}
	env.admin = env.addUser(t, "admin@example.com", "workbench42", models.RoleAdmin)
	env.viewer = env.addUser(t, "viewer@example.com", "workbench42", models.RoleViewer)
	env.adminToken = env.token(t, env.admin)
	env.viewerToken = env.token(t, env.viewer)
	return env
}

func (e *testEnv) addUser(t *testing.T, email, password, role string) *models.User {
	t.Helper()
	hash, err := services.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{Email: email, Name: email, PasswordHash: hash, Role: role}
	require.NoError(t, e.db.UserRepo().Add(context.Background(), user))
	return user
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := e.issuer.Issue(user)
	require.NoError(t, err)
	return token
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func withCookies(cookies []*http.Cookie) requestOption {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func withRemoteAddr(addr string) requestOption {
	return func(r *http.Request) { r.RemoteAddr = addr }
}

// do sends body as JSON unless it is already an io.Reader.
func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// multipartBody builds a form with one file per entry of files and the given fields.
func multipartBody(t *testing.T, field string, files [][]byte, fields map[string]string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i, data := range files {
		fw, err := mw.CreateFormFile(field, "upload-"+string(rune('a'+i)))
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) StreamChat(ctx context.Context, turns []services.ChatTurn, onChunk func(string) error) (string, error) {
	args := m.Called(ctx, turns, onChunk)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) DescribeImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	args := m.Called(ctx, prompt, mimeType, data)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	vectors, _ := args.Get(0).([][]float32)
	return vectors, args.Error(1)
}

// memoryStore is an ObjectStore that keeps objects in a map.
type memoryStore struct {
	objects map[string][]byte
	deleted []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (s *memoryStore) Put(_ context.Context, key, _ string, body []byte) (string, error) {
	s.objects[key] = body
	return s.URL(key), nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memoryStore) URL(key string) string {
	return "https://cdn.example.com/" + key
}
