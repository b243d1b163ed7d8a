package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vanzue/toptoolbar-sub001/internal/runtime"
)

// Handlers exposes the provider runtime to the toolbar UI layer.
type Handlers struct {
	registry *runtime.Registry
}

// NewHandlers creates a new handler set over the registry.
func NewHandlers(registry *runtime.Registry) *Handlers {
	return &Handlers{registry: registry}
}

// Root handles health check.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "toolbar provider runtime",
		"version": "0.3.0",
	})
}

// Health handles detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"registry": h.registry.Stats(),
	})
}

// ListProviders lists all registered providers.
func (h *Handlers) ListProviders(c *gin.Context) {
	providers := h.registry.List()
	c.JSON(http.StatusOK, gin.H{
		"providers": providers,
		"count":     len(providers),
	})
}

// DiscoverActions runs discovery for one provider.
func (h *Handlers) DiscoverActions(c *gin.Context) {
	id := c.Param("id")
	descriptors, err := h.registry.Discover(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"provider": id,
		"actions":  descriptors,
	})
}

// DiscoverAll fans discovery out across every provider.
func (h *Handlers) DiscoverAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"actions": h.registry.DiscoverAll(c.Request.Context()),
	})
}

// CreateGroup builds the toolbar group for one provider.
func (h *Handlers) CreateGroup(c *gin.Context) {
	id := c.Param("id")
	group, err := h.registry.CreateGroup(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, group)
}

// InvokeRequest is the invocation payload.
type InvokeRequest struct {
	ProviderID string                 `json:"provider_id" binding:"required"`
	ActionID   string                 `json:"action_id" binding:"required"`
	Args       map[string]interface{} `json:"args"`
}

// Invoke executes one action. Expected failures come back HTTP 200 with
// ok=false; only routing problems surface as HTTP errors.
func (h *Handlers) Invoke(c *gin.Context) {
	var req InvokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.registry.Invoke(c.Request.Context(), req.ProviderID, req.ActionID, req.Args, nil)
	if err != nil {
		if _, found := h.registry.TryGet(req.ProviderID); !found {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
