package health

import (
	"context"
	"sync"
	"time"

	"github.com/jmerrifield20/jugtracker/internal/jugledger"
	"go.uber.org/zap"
)

// Ledger probe statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Prober loads the ledger. jugledger.Store satisfies it.
type Prober interface {
	Load(ctx context.Context) ([]jugledger.Event, error)
}

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(success bool)

// RowsRecordFunc is an optional callback receiving the row count seen by a
// successful probe.
type RowsRecordFunc func(rows int)

// Checker runs periodic readability probes against the ledger store.
type Checker struct {
	prober    Prober
	mu        sync.Mutex
	failCount int
	status    string
	cfg       Config
	onMetrics MetricsRecordFunc
	onRows    RowsRecordFunc
	logger    *zap.Logger
}

// New creates a new Checker. The ledger is assumed healthy until proven
// otherwise.
func New(prober Prober, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}

	return &Checker{
		prober: prober,
		status: StatusHealthy,
		cfg:    cfg,
		logger: logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (h *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// SetRowsRecord configures the row count callback.
func (h *Checker) SetRowsRecord(fn RowsRecordFunc) {
	h.onRows = fn
}

// Status returns "healthy" or "degraded".
func (h *Checker) Status() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Start probes once, then on every tick until ctx is cancelled.
func (h *Checker) Start(ctx context.Context) {
	h.CheckOnce(ctx)

	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.CheckOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckOnce runs a single probe and updates the status.
func (h *Checker) CheckOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.ProbeTimeout)
	defer cancel()

	events, err := h.prober.Load(ctx)
	success := err == nil

	if h.onMetrics != nil {
		h.onMetrics(success)
	}
	if success && h.onRows != nil {
		h.onRows(len(events))
	}

	h.mu.Lock()
	prevCount := h.failCount
	if success {
		h.failCount = 0
	} else {
		h.failCount++
	}
	count := h.failCount
	if success {
		h.status = StatusHealthy
	} else if count >= h.cfg.FailThreshold {
		h.status = StatusDegraded
	}
	h.mu.Unlock()

	switch {
	case success && prevCount >= h.cfg.FailThreshold:
		h.logger.Info("health: ledger recovered", zap.Int("rows", len(events)))
	case !success && count == h.cfg.FailThreshold:
		h.logger.Warn("health: ledger degraded",
			zap.Int("fail_count", count),
			zap.Error(err),
		)
	case !success:
		h.logger.Debug("health: ledger probe failed", zap.Int("fail_count", count), zap.Error(err))
	}
}
