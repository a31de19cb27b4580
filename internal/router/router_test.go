package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticEngine(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	parent := t.TempDir()
	dir := filepath.Join(parent, "public")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "js"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Shadow AI</h1>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "js", "app.js"), []byte("console.log('hi')"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("dont serve me"), 0644))

	engine := gin.New()
	engine.NoRoute(staticServer(dir))
	return engine, dir
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestStaticServesIndexAtRoot(t *testing.T) {
	engine, _ := staticEngine(t)

	w := get(engine, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Shadow AI")
}

func TestStaticServesNestedFiles(t *testing.T) {
	engine, _ := staticEngine(t)

	w := get(engine, "/js/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")
}

func TestStaticMissingFileIs404(t *testing.T) {
	engine, _ := staticEngine(t)

	w := get(engine, "/nope.html")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaticRefusesTraversal(t *testing.T) {
	engine, _ := staticEngine(t)

	for _, path := range []string{"/../secret.txt", "/js/../../secret.txt", "/..%2Fsecret.txt"} {
		w := get(engine, path)
		assert.Equalf(t, http.StatusNotFound, w.Code, "path %s must not escape the static dir", path)
		assert.NotContains(t, w.Body.String(), "dont serve me")
	}
}

func TestStaticRejectsNonGET(t *testing.T) {
	engine, _ := staticEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/index.html", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaticCleanPathStaysInside(t *testing.T) {
	engine, _ := staticEngine(t)

	// ".." segments that stay inside the root are fine after cleaning.
	w := get(engine, "/js/../index.html")
	assert.Equal(t, http.StatusOK, w.Code)
}
