package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/festival/internal/logger"
	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/service/auth"
	"github.com/nkiryanov/festival/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/festival/internal/service/cleanup"
	"github.com/nkiryanov/festival/internal/service/content"
	"github.com/nkiryanov/festival/internal/service/upload"
	"github.com/nkiryanov/festival/internal/service/user"
	"github.com/nkiryanov/festival/internal/storage/localfs"
	"github.com/nkiryanov/festival/internal/testutil"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

// Cheap hasher, bcrypt makes tests slow
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }
func (plainHasher) Verify(hashed string, password string) bool {
	return hashed == "plain:"+password
}

// Running server with production services over in-memory repositories
type testServer struct {
	url      string
	root     string
	users    *testutil.UserRepo
	tokens   *tokenmanager.TokenManager
	userSvc  *user.UserService
	cleanup  *cleanup.Coordinator
	registry *prometheus.Registry
}

type serverOption func(*Config)

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	ts := &testServer{
		root:     t.TempDir(),
		users:    testutil.NewUserRepo(),
		registry: prometheus.NewRegistry(),
	}

	l := logger.NewNoOpLogger()

	var err error
	ts.tokens, err = tokenmanager.New(tokenmanager.Config{AccessSecret: "access-secret", RefreshSecret: "refresh-secret"})
	require.NoError(t, err)

	authSvc, err := auth.NewService(auth.Config{Hasher: plainHasher{}}, ts.tokens, ts.users)
	require.NoError(t, err)

	ts.userSvc = user.NewService(plainHasher{}, ts.users)

	pipeline := upload.New(localfs.New(ts.root), l)
	ts.cleanup = cleanup.New(pipeline, l, time.Second)

	contentSvc := content.NewServices(content.Repos{
		Bands:      testutil.NewDocumentRepo[models.Band](),
		News:       testutil.NewDocumentRepo[models.News](),
		Archives:   testutil.NewDocumentRepo[models.ArchiveEntry](),
		SiteAssets: testutil.NewSiteAssetsRepo(),
	}, pipeline, ts.cleanup)

	cfg := Config{Registry: ts.registry}
	for _, opt := range opts {
		opt(&cfg)
	}

	router := NewRouter(Services{
		Auth:       authSvc,
		Users:      ts.userSvc,
		Bands:      contentSvc.Bands,
		News:       contentSvc.News,
		Archives:   contentSvc.Archives,
		SiteAssets: contentSvc.SiteAssets,
		Uploads:    pipeline,
	}, cfg, l)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	ts.url = srv.URL

	return ts
}

// Decoded response envelope, data is kept raw
type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

type response struct {
	code   int
	header http.Header
	body   []byte
}

func (r response) envelope(t *testing.T) envelope {
	t.Helper()
	var e envelope
	require.NoErrorf(t, json.Unmarshal(r.body, &e), "response is not an envelope: %s", r.body)
	return e
}

// Decode envelope data into v
func (r response) data(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.envelope(t).Data, v))
}

func (ts *testServer) do(t *testing.T, method string, path string, token string, body io.Reader, contentType string) response {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), method, ts.url+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return response{code: resp.StatusCode, header: resp.Header, body: raw}
}

func (ts *testServer) json(t *testing.T, method string, path string, token string, body any) response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	return ts.do(t, method, path, token, reader, "application/json")
}

type loginData struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

func (ts *testServer) login(t *testing.T, email string, password string) loginData {
	t.Helper()

	resp := ts.json(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equalf(t, http.StatusOK, resp.code, "login failed: %s", resp.body)

	var data loginData
	resp.data(t, &data)
	return data
}

// Create admin and return its access token
func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()

	_, _, err := ts.userSvc.EnsureAdmin(t.Context(), "admin@festival.com", "admin-password")
	require.NoError(t, err)

	return ts.login(t, "admin@festival.com", "admin-password").AccessToken
}

func (ts *testServer) userToken(t *testing.T) string {
	t.Helper()

	resp := ts.json(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "user@festival.com", "password": "user-password"})
	require.Equalf(t, http.StatusCreated, resp.code, "register failed: %s", resp.body)

	var data loginData
	resp.data(t, &data)
	return data.AccessToken
}

// Stored path "uploads/bands/x.png" on disk
func (ts *testServer) file(path string) string {
	return filepath.Join(ts.root, filepath.FromSlash(path[len(upload.PathPrefix):]))
}

func (ts *testServer) fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(ts.file(path))
	if os.IsNotExist(err) {
		return false
	}
	require.NoError(t, err)
	return true
}
