package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/wishlist/internal/auth"
	"github.com/mmynk/wishlist/internal/docstore/memory"
	"github.com/mmynk/wishlist/internal/metrics"
)

func newTestServer(t *testing.T, staticDir string) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := memory.New()
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(NewHandler(Deps{
		Store:      store,
		JWTManager: auth.NewJWTManager("test-secret", time.Hour, auth.NewRevocations(ctx)),
		Metrics:    metrics.New(),
		StaticPath: staticDir,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, "")

	code, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	code, body := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "go_goroutines")
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>wishlist</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	srv := newTestServer(t, dir)

	_, body := get(t, srv, "/")
	assert.Equal(t, "<h1>wishlist</h1>", body)

	_, body = get(t, srv, "/app.js")
	assert.Equal(t, "console.log(1)", body)

	_, body = get(t, srv, "/friends/u2")
	assert.Equal(t, "<h1>wishlist</h1>", body)

	code, _ := get(t, srv, "/wishlist.v1.Nope/Method")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, "")

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/wishlist.v1.WishlistService/CreateItem", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
}
