// Package handler contains the gin HTTP handlers and middleware for the jug
// tracker API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/jugtracker/internal/jugledger"
	"go.uber.org/zap"
)

// Ledger is the set of ledger operations the HTTP layer depends on.
// *jugledger.Ledger satisfies this interface.
type Ledger interface {
	ListAll(ctx context.Context) []jugledger.Event
	ListCurrentlyFilled(ctx context.Context) []jugledger.Event
	Fill(ctx context.Context, names []string) (int, error)
	Empty(ctx context.Context, name string) error
	ExportRaw(ctx context.Context) ([]byte, error)
	Tail(ctx context.Context, n int) (*jugledger.TailResult, error)
	BulkReplaceTail(ctx context.Context, events []jugledger.Event, expectedTotal, editedCount int) (int, error)
}

// writeLedgerError maps ledger errors onto HTTP responses. Anything that is
// not a validation or conflict error is logged and reported as a 500 with
// the generic message msg.
func writeLedgerError(c *gin.Context, logger *zap.Logger, err error, msg string) {
	var verr *jugledger.ValidationError
	var cerr *jugledger.ConflictError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": verr.Error(),
			"field": verr.Field,
			"value": verr.Value,
		})
	case errors.As(err, &cerr):
		c.JSON(http.StatusConflict, gin.H{
			"error":    cerr.Error(),
			"expected": cerr.Expected,
			"actual":   cerr.Actual,
		})
	default:
		logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
