package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanzue/toptoolbar-sub001/internal/logging"
	"github.com/vanzue/toptoolbar-sub001/internal/runtime"
	"github.com/vanzue/toptoolbar-sub001/internal/types"
)

type stubProvider struct {
	id string
}

func (s *stubProvider) ID() string { return s.id }

func (s *stubProvider) Info() types.ProviderInfo {
	return types.ProviderInfo{ID: s.id, Name: "Stub", Version: "0.0.1"}
}

func (s *stubProvider) Discover(ctx context.Context) ([]types.ActionDescriptor, error) {
	return []types.ActionDescriptor{{ID: s.id + ".demo", Title: "Demo", Kind: types.ActionCommand, CanExecute: true}}, nil
}

func (s *stubProvider) Invoke(ctx context.Context, actionID string, args map[string]interface{}, progress types.ProgressSink) (*types.ActionResult, error) {
	if actionID == "bad" {
		return &types.ActionResult{Ok: false, Message: "disabled feature"}, nil
	}
	return &types.ActionResult{Ok: true, Message: "done"}, nil
}

func (s *stubProvider) CreateGroup(ctx context.Context) (*types.ButtonGroup, error) {
	return &types.ButtonGroup{Name: "Stub Group"}, nil
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := runtime.NewRegistry(logging.NewNop(), nil)
	t.Cleanup(registry.Close)
	require.NoError(t, registry.Register(&stubProvider{id: "stub"}))

	h := NewHandlers(registry)
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/providers", h.ListProviders)
	router.GET("/providers/:id/actions", h.DiscoverActions)
	router.GET("/providers/:id/group", h.CreateGroup)
	router.POST("/invoke", h.Invoke)
	return router
}

func TestListProviders(t *testing.T) {
	router := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/providers", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Providers []types.ProviderInfo `json:"providers"`
		Count     int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "stub", body.Providers[0].ID)
}

func TestDiscoverActions(t *testing.T) {
	router := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/providers/stub/actions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stub.demo")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/providers/ghost/actions", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateGroup(t *testing.T) {
	router := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/providers/stub/group", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Stub Group")
}

func TestInvoke(t *testing.T) {
	router := setupRouter(t)

	payload := `{"provider_id":"stub","action_id":"stub.demo"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(payload)))
	require.Equal(t, http.StatusOK, w.Code)

	var result types.ActionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Ok)
}

func TestInvokeExpectedFailureIs200(t *testing.T) {
	router := setupRouter(t)

	payload := `{"provider_id":"stub","action_id":"bad"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(payload)))
	require.Equal(t, http.StatusOK, w.Code)

	var result types.ActionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Ok)
	assert.Equal(t, "disabled feature", result.Message)
}

func TestInvokeUnknownProvider(t *testing.T) {
	router := setupRouter(t)

	payload := `{"provider_id":"ghost","action_id":"x"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(payload)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvokeBadPayload(t *testing.T) {
	router := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
