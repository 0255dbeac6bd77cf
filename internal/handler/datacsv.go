package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/jugtracker/internal/jugledger"
	"go.uber.org/zap"
)

// DataHandler serves raw ledger download and the tail editor endpoints.
type DataHandler struct {
	ledger     Ledger
	exportName string
	logger     *zap.Logger
}

// NewDataHandler creates a new DataHandler.
func NewDataHandler(ledger Ledger, logger *zap.Logger) *DataHandler {
	return &DataHandler{ledger: ledger, exportName: "jugs.csv", logger: logger}
}

// SetExportName sets the file name offered to browsers on download.
func (h *DataHandler) SetExportName(name string) {
	if name != "" {
		h.exportName = name
	}
}

// Register mounts the data routes on the given router group.
func (h *DataHandler) Register(rg *gin.RouterGroup) {
	d := rg.Group("/data-csv")
	{
		d.GET("", h.Export)
		d.GET("/last-n", h.LastN)
		d.POST("/update", h.Update)
	}
}

// Export handles GET /data-csv: the persisted ledger as a CSV attachment.
func (h *DataHandler) Export(c *gin.Context) {
	raw, err := h.ledger.ExportRaw(c.Request.Context())
	if err != nil {
		h.logger.Error("export ledger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read ledger"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.exportName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", raw)
}

// LastN handles GET /data-csv/last-n?n=: the newest n rows, newest first.
func (h *DataHandler) LastN(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("n", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
		return
	}

	res, err := h.ledger.Tail(c.Request.Context(), n)
	if err != nil {
		writeLedgerError(c, h.logger, err, "failed to read ledger")
		return
	}
	c.JSON(http.StatusOK, res)
}

type updateRequest struct {
	Lines       []jugledger.Event `json:"lines"`
	TotalRows   *int              `json:"totalRows"`
	EditedCount *int              `json:"editedCount"`
}

// Update handles POST /data-csv/update. It replaces the rows previously
// fetched through LastN with the edited lines.
func (h *DataHandler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RecordBulkUpdate("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Lines) == 0 {
		RecordBulkUpdate("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "lines must not be empty"})
		return
	}
	if req.TotalRows == nil || req.EditedCount == nil {
		RecordBulkUpdate("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "totalRows and editedCount are required"})
		return
	}

	total, err := h.ledger.BulkReplaceTail(c.Request.Context(), req.Lines, *req.TotalRows, *req.EditedCount)
	if err != nil {
		RecordBulkUpdate(bulkResult(err))
		writeLedgerError(c, h.logger, err, "failed to update ledger")
		return
	}
	RecordBulkUpdate("ok")

	c.JSON(http.StatusOK, gin.H{
		"message":  "Ledger updated",
		"status":   "success",
		"newTotal": total,
	})
}
