package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmerrifield20/jugtracker/internal/jugledger"
	"go.uber.org/zap"
)

// ── Stubs ────────────────────────────────────────────────────────────────

type stubProber struct {
	fails  int // remaining failures before Load succeeds
	events []jugledger.Event
}

func (s *stubProber) Load(_ context.Context) ([]jugledger.Event, error) {
	if s.fails > 0 {
		s.fails--
		return nil, jugledger.ErrStorageUnreadable
	}
	return s.events, nil
}

// ── Tests ────────────────────────────────────────────────────────────────

func TestCheckOnce_healthyByDefault(t *testing.T) {
	checker := New(&stubProber{}, Config{}, zap.NewNop())
	if checker.Status() != StatusHealthy {
		t.Errorf("expected healthy before any probe, got %q", checker.Status())
	}
	checker.CheckOnce(context.Background())
	if checker.Status() != StatusHealthy {
		t.Errorf("expected healthy, got %q", checker.Status())
	}
}

func TestCheckOnce_degradesAfterThreshold(t *testing.T) {
	checker := New(&stubProber{fails: 10}, Config{FailThreshold: 3}, zap.NewNop())

	for i := 0; i < 2; i++ {
		checker.CheckOnce(context.Background())
	}
	if checker.Status() != StatusHealthy {
		t.Fatalf("expected healthy below threshold, got %q", checker.Status())
	}

	checker.CheckOnce(context.Background())
	if checker.Status() != StatusDegraded {
		t.Errorf("expected degraded, got %q", checker.Status())
	}
}

func TestCheckOnce_recoversOnSuccess(t *testing.T) {
	checker := New(&stubProber{fails: 3}, Config{FailThreshold: 3}, zap.NewNop())

	// Fail 3 times, then succeed.
	for i := 0; i < 4; i++ {
		checker.CheckOnce(context.Background())
	}

	if checker.Status() != StatusHealthy {
		t.Errorf("expected healthy after recovery, got %q", checker.Status())
	}
}

func TestCheckOnce_callbacks(t *testing.T) {
	prober := &stubProber{
		fails: 1,
		events: []jugledger.Event{
			{JugName: "A", State: jugledger.StateFilled, DateTime: "10:00:00 01.01.2024"},
			{JugName: "B", State: jugledger.StateFilled, DateTime: "10:00:00 01.01.2024"},
		},
	}
	checker := New(prober, Config{}, zap.NewNop())

	var results []bool
	rows := -1
	checker.SetMetricsRecord(func(ok bool) { results = append(results, ok) })
	checker.SetRowsRecord(func(n int) { rows = n })

	checker.CheckOnce(context.Background())
	if rows != -1 {
		t.Errorf("row callback must not fire on failure, got %d", rows)
	}
	checker.CheckOnce(context.Background())

	if len(results) != 2 || results[0] || !results[1] {
		t.Errorf("unexpected probe results %v", results)
	}
	if rows != 2 {
		t.Errorf("expected rows=2, got %d", rows)
	}
}

type blockingProber struct{}

func (blockingProber) Load(ctx context.Context) ([]jugledger.Event, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCheckOnce_probeTimeout(t *testing.T) {
	checker := New(blockingProber{}, Config{ProbeTimeout: 10 * time.Millisecond, FailThreshold: 1}, zap.NewNop())

	var failed bool
	checker.SetMetricsRecord(func(ok bool) { failed = !ok })
	checker.CheckOnce(context.Background())

	if !failed || checker.Status() != StatusDegraded {
		t.Errorf("expected timed-out probe to degrade, got %q", checker.Status())
	}
}

func TestStart_stopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	checker := New(&stubProber{}, Config{CheckInterval: time.Millisecond}, zap.NewNop())

	done := make(chan struct{})
	go func() {
		checker.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

var _ Prober = (*jugledger.MemoryStore)(nil)

func TestMemoryStoreProbe(t *testing.T) {
	checker := New(jugledger.NewMemoryStore(), Config{}, zap.NewNop())
	checker.CheckOnce(context.Background())
	if checker.Status() != StatusHealthy {
		t.Error(errors.New("memory store probe should succeed"))
	}
}
