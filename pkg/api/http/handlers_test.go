package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aescanero/cellflow/internal/application/engine"
	"github.com/aescanero/cellflow/internal/notebook"
	eventsmemory "github.com/aescanero/cellflow/pkg/adapters/events/memory"
	storagememory "github.com/aescanero/cellflow/pkg/adapters/storage/memory"
	"github.com/aescanero/cellflow/pkg/domain"
	"github.com/aescanero/cellflow/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manifest := notebook.DefaultManifest()
	g, err := notebook.Build(notebook.Config{Manifest: manifest})
	require.NoError(t, err)

	eng := engine.New(g, eventsmemory.NewEventBus(), storagememory.NewSnapshotStore(),
		ports.NopMetrics{}, zap.NewNop(), engine.Options{})
	require.NoError(t, eng.Evaluate(context.Background()))

	return NewServer(&Config{
		Port:     0,
		Engine:   eng,
		Manifest: manifest,
		Logger:   zap.NewNop(),
	})
}

func doRequest(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.NotEmpty(t, resp["session_id"])
}

func TestHandleGetGraph(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v1/graph", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp GraphResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Cells, 5)
	assert.Equal(t, "data", resp.Order[0])
	assert.Contains(t, resp.Values, "n")
	assert.Contains(t, resp.Values, "sigma")
	assert.NotNil(t, resp.Sliders)
}

func TestHandleListCells(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v1/cells", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap domain.GraphSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, uint64(1), snap.Version)
	require.Contains(t, snap.Cells, "analysis")
	assert.Equal(t, domain.CellStateFresh, snap.Cells["analysis"].State)
}

func TestHandleGetCell(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v1/cells/analysis", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap domain.CellSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "analysis", snap.Cell)
	assert.Equal(t, domain.CellStateFresh, snap.State)

	w = doRequest(s, http.MethodGet, "/api/v1/cells/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetOutput(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v1/outputs/corr", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp OutputResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "corr", resp.Name)
	assert.Equal(t, domain.CellStateFresh, resp.State)
	assert.NotNil(t, resp.Value)
	assert.Empty(t, resp.Error)

	w = doRequest(s, http.MethodGet, "/api/v1/outputs/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetOutputErrored(t *testing.T) {
	s := newTestServer(t)

	// Break the data branch, then read a downstream output.
	w := doRequest(s, http.MethodPut, "/api/v1/values/n", map[string]any{"value": 1})
	require.Equal(t, http.StatusOK, w.Code, "contained failures still complete the pass")

	w = doRequest(s, http.MethodGet, "/api/v1/outputs/corr", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp OutputResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.CellStateErrored, resp.State)
	assert.NotEmpty(t, resp.Error)
	assert.Nil(t, resp.Value)
}

func TestHandleSetValue(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPut, "/api/v1/values/sigma", map[string]any{"value": 2.5})
	require.Equal(t, http.StatusOK, w.Code)

	var snap domain.GraphSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 2.5, snap.Values["sigma"])
	assert.Equal(t, uint64(2), snap.Version)
}

func TestHandleSetValueErrors(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPut, "/api/v1/values/nope", map[string]any{"value": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(s, http.MethodPut, "/api/v1/values/sigma", map[string]any{"other": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/values/sigma", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEvaluate(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/v1/evaluate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap domain.GraphSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	// Nothing pending, so the version does not advance.
	assert.Equal(t, uint64(1), snap.Version)
}
