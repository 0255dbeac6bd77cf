package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/jugtracker/internal/jugledger"
	"go.uber.org/zap"
)

// JugHandler serves the jug listing and fill/empty endpoints.
type JugHandler struct {
	ledger Ledger
	logger *zap.Logger
}

// NewJugHandler creates a new JugHandler.
func NewJugHandler(ledger Ledger, logger *zap.Logger) *JugHandler {
	return &JugHandler{ledger: ledger, logger: logger}
}

// Register mounts the jug routes on the given router group.
func (h *JugHandler) Register(rg *gin.RouterGroup) {
	j := rg.Group("/jugs")
	{
		j.GET("", h.List)
		j.POST("/fill", h.Fill)
		j.POST("/empty", h.Empty)
	}
}

// List handles GET /jugs: every event, or with ?state=filled only the jugs
// that are currently full, oldest fill first.
func (h *JugHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	if c.Query("state") == "filled" {
		c.JSON(http.StatusOK, h.ledger.ListCurrentlyFilled(ctx))
		return
	}
	c.JSON(http.StatusOK, h.ledger.ListAll(ctx))
}

type fillRequest struct {
	Jugs []string `json:"jugs"`
}

// Fill handles POST /jugs/fill.
func (h *JugHandler) Fill(c *gin.Context) {
	var req fillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.ledger.Fill(c.Request.Context(), req.Jugs)
	if err != nil {
		writeLedgerError(c, h.logger, err, "failed to record filled jugs")
		return
	}
	RecordEventsAppended(jugledger.StateFilled, n)

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Filled %d jugs", n),
		"status":  "success",
		"count":   n,
	})
}

type emptyRequest struct {
	JugName string `json:"jugName"`
}

// Empty handles POST /jugs/empty.
func (h *JugHandler) Empty(c *gin.Context) {
	var req emptyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ledger.Empty(c.Request.Context(), req.JugName); err != nil {
		writeLedgerError(c, h.logger, err, "failed to record emptied jug")
		return
	}
	RecordEventsAppended(jugledger.StateEmptied, 1)

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Emptied jug %s", req.JugName),
		"status":  "success",
	})
}
