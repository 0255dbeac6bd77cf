package jugledger

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TailResult is the newest part of the ledger, most recent event first.
type TailResult struct {
	Lines         []Event `json:"lines"`
	TotalRows     int     `json:"totalRows"`
	RetrievedRows int     `json:"retrievedRows"`
}

// Ledger answers queries over the jug history and applies mutations to it.
// Mutations from the same process are serialised; writers in other
// processes are not coordinated with.
type Ledger struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// New creates a Ledger on top of store.
func New(store Store, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, logger: logger, now: time.Now}
}

// SetClock replaces the time source used to stamp new events.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// ListAll returns every event in storage order. An unreadable store yields
// an empty list.
func (l *Ledger) ListAll(ctx context.Context) []Event {
	events, err := l.store.Load(ctx)
	if err != nil {
		l.logger.Warn("ledger read failed; returning no data", zap.Error(err))
		return []Event{}
	}
	if events == nil {
		events = []Event{}
	}
	return events
}

// Len returns the number of persisted events.
func (l *Ledger) Len(ctx context.Context) (int, error) {
	events, err := l.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

type resolved struct {
	event Event
	at    time.Time
	pos   int
}

// ListCurrentlyFilled returns, for every jug whose latest event is a fill,
// that fill event. The result is ordered oldest fill first; equal timestamps
// keep storage order.
func (l *Ledger) ListCurrentlyFilled(ctx context.Context) []Event {
	events := l.ListAll(ctx)

	latest := make(map[string]resolved, len(events))
	for i, e := range events {
		at := sortKey(e)
		if cur, ok := latest[e.JugName]; ok && at.Before(cur.at) {
			continue
		}
		latest[e.JugName] = resolved{event: e, at: at, pos: i}
	}

	filled := make([]resolved, 0, len(latest))
	for _, r := range latest {
		if r.event.State == StateFilled {
			filled = append(filled, r)
		}
	}
	slices.SortFunc(filled, func(a, b resolved) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return cmp.Compare(a.pos, b.pos)
	})

	out := make([]Event, len(filled))
	for i, r := range filled {
		out[i] = r.event
	}
	return out
}

// Fill records a Filled event for each distinct non-blank name, all stamped
// with the same time. It returns how many names were recorded.
func (l *Ledger) Fill(ctx context.Context, names []string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	stamp := FormatTimestamp(l.now())
	added := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, dup := added[name]; dup {
			continue
		}
		added[name] = struct{}{}
		events = append(events, Event{JugName: name, State: StateFilled, DateTime: stamp})
	}
	if len(added) == 0 {
		return 0, nil
	}

	if _, err := l.write(ctx, events); err != nil {
		return 0, err
	}
	l.logger.Info("jugs filled", zap.Int("count", len(added)), zap.String("at", stamp))
	return len(added), nil
}

// Empty records an Emptied event for name.
func (l *Ledger) Empty(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "JugName", Value: name, Reason: "must not be empty"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.store.Load(ctx)
	if err != nil {
		return err
	}

	stamp := FormatTimestamp(l.now())
	events = append(events, Event{JugName: name, State: StateEmptied, DateTime: stamp})
	if _, err := l.write(ctx, events); err != nil {
		return err
	}
	l.logger.Info("jug emptied", zap.String("jug", name), zap.String("at", stamp))
	return nil
}

// ExportRaw returns the persisted ledger verbatim.
func (l *Ledger) ExportRaw(ctx context.Context) ([]byte, error) {
	return l.store.Raw(ctx)
}

// Tail returns the last n events, most recent first.
func (l *Ledger) Tail(ctx context.Context, n int) (*TailResult, error) {
	if n <= 0 {
		return nil, &ValidationError{Field: "n", Value: strconv.Itoa(n), Reason: "must be a positive integer"}
	}

	events := l.ListAll(ctx)
	start := max(len(events)-n, 0)

	lines := slices.Clone(events[start:])
	slices.Reverse(lines)
	return &TailResult{
		Lines:         lines,
		TotalRows:     len(events),
		RetrievedRows: len(lines),
	}, nil
}

// BulkReplaceTail replaces the last editedCount rows with events, which are
// given most recent first. expectedTotal is the row count the caller saw when
// it loaded the rows it edited; the write is refused when the ledger has
// drifted from it by more than editedCount rows. It returns the new row count.
func (l *Ledger) BulkReplaceTail(ctx context.Context, events []Event, expectedTotal, editedCount int) (int, error) {
	if editedCount < 0 {
		return 0, &ValidationError{Field: "editedCount", Value: strconv.Itoa(editedCount), Reason: "must not be negative"}
	}

	replacement := make([]Event, len(events))
	for i, e := range events {
		e.JugName = strings.TrimSpace(e.JugName)
		if err := validateEvent(e); err != nil {
			return 0, err
		}
		replacement[len(events)-1-i] = e
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	total := len(current)
	if diff := total - expectedTotal; diff > editedCount || -diff > editedCount {
		l.logger.Warn("bulk update rejected: ledger changed",
			zap.Int("expected", expectedTotal),
			zap.Int("actual", total),
			zap.Int("edited", editedCount),
		)
		return 0, &ConflictError{Expected: expectedTotal, Actual: total, Tolerance: editedCount}
	}

	keep := max(total-editedCount, 0)
	next := append(slices.Clone(current[:keep]), replacement...)

	n, err := l.write(ctx, next)
	if err != nil {
		return 0, err
	}
	l.logger.Info("ledger tail replaced",
		zap.Int("replaced", total-keep),
		zap.Int("inserted", len(replacement)),
		zap.Int("total", n),
	)
	return n, nil
}

func validateEvent(e Event) error {
	if e.JugName == "" {
		return &ValidationError{Field: "JugName", Value: e.JugName, Reason: "must not be empty"}
	}
	if !e.State.Valid() {
		return &ValidationError{Field: "State", Value: string(e.State), Reason: "must be Filled or Emptied"}
	}
	if !ValidTimestamp(e.DateTime) {
		return &ValidationError{Field: "DateTime", Value: e.DateTime, Reason: "must match HH:MM:SS DD.MM.YYYY"}
	}
	return nil
}

// write dedups events and persists them, returning the stored row count.
func (l *Ledger) write(ctx context.Context, events []Event) (int, error) {
	unique := dedupe(events)
	if err := l.store.Save(ctx, unique); err != nil {
		l.logger.Error("ledger write failed", zap.Error(err))
		return 0, err
	}
	return len(unique), nil
}
