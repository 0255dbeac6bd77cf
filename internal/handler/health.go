package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// statusReporter reports the ledger's probe status.
// *health.Checker satisfies this interface.
type statusReporter interface {
	Status() string
}

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	checker statusReporter // nil = ledger status not reported
}

// NewHealthHandler creates a HealthHandler. checker may be nil.
func NewHealthHandler(checker statusReporter) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Register mounts GET /health on the given router group.
func (h *HealthHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health handles GET /health. The process is alive whenever it can answer,
// so status is always "ok"; the ledger probe result is reported alongside.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.checker != nil {
		resp["ledger"] = h.checker.Status()
	}
	c.JSON(http.StatusOK, resp)
}
