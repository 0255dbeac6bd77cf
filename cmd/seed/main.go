// Command seed populates the ledger with realistic mock history for development.
//
// Running twice is safe: seeded events carry fixed timestamps, so rows that
// already exist are dropped by the ledger's duplicate check.
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed data/jugs.csv
//	STORAGE_DRIVER=postgres DATABASE_URL=postgres://... go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/jugtracker/internal/config"
	"github.com/jmerrifield20/jugtracker/internal/jugledger"
	"go.uber.org/zap"
)

func main() {
	var ledgerArg string
	if len(os.Args) > 1 {
		ledgerArg = os.Args[1]
	}
	if err := run(ledgerArg); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(ledgerArg string) error {
	cfg, err := config.Load("", ledgerArg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var store jugledger.Store
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer db.Close()

		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		fmt.Println("connected to database")
		store = jugledger.NewPostgresStore(db, zap.NewNop())
	case config.DriverCSV:
		store = jugledger.NewFileStore(cfg.LedgerPath)
		fmt.Printf("seeding %s\n", cfg.LedgerPath)
	default:
		return fmt.Errorf("nothing to seed for storage driver %q", cfg.StorageDriver)
	}

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}

	ledger := jugledger.New(store, zap.NewNop())
	before, err := ledger.Len(ctx)
	if err != nil {
		return err
	}

	if err := seed(ctx, ledger, history(seedStart)); err != nil {
		return err
	}

	after, err := ledger.Len(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nseed complete: %d rows added, %d total\n", after-before, after)
	return nil
}

// ── History ──────────────────────────────────────────────────────────────────

var seedStart = time.Date(2024, 1, 1, 7, 30, 0, 0, time.Local)

var jugs = []string{"kitchen", "garage", "office", "cellar"}

// seedStep is one mutation in the mock history.
type seedStep struct {
	At    time.Time
	State jugledger.State
	Jugs  []string
}

// history builds two weeks of activity: every morning the empty jugs are
// refilled together, and through the day jugs are emptied one at a time.
func history(start time.Time) []seedStep {
	var steps []seedStep
	filled := map[string]bool{}

	for day := 0; day < 14; day++ {
		morning := start.AddDate(0, 0, day)

		var refill []string
		for _, j := range jugs {
			if !filled[j] {
				refill = append(refill, j)
				filled[j] = true
			}
		}
		if len(refill) > 0 {
			steps = append(steps, seedStep{At: morning, State: jugledger.StateFilled, Jugs: refill})
		}

		// Empty day%len(jugs)+1 jugs, rotating which ones.
		for i := 0; i <= day%len(jugs); i++ {
			j := jugs[(day+i)%len(jugs)]
			at := morning.Add(time.Duration(2+3*i)*time.Hour + time.Duration(day*7%60)*time.Minute)
			steps = append(steps, seedStep{At: at, State: jugledger.StateEmptied, Jugs: []string{j}})
			filled[j] = false
		}
	}
	return steps
}

func seed(ctx context.Context, ledger *jugledger.Ledger, steps []seedStep) error {
	for _, s := range steps {
		at := s.At
		ledger.SetClock(func() time.Time { return at })

		switch s.State {
		case jugledger.StateFilled:
			n, err := ledger.Fill(ctx, s.Jugs)
			if err != nil {
				return fmt.Errorf("fill %v: %w", s.Jugs, err)
			}
			fmt.Printf("  ✓ %s filled %d jugs\n", jugledger.FormatTimestamp(at), n)
		case jugledger.StateEmptied:
			if err := ledger.Empty(ctx, s.Jugs[0]); err != nil {
				return fmt.Errorf("empty %s: %w", s.Jugs[0], err)
			}
			fmt.Printf("  ✓ %s emptied %s\n", jugledger.FormatTimestamp(at), s.Jugs[0])
		}
	}
	return nil
}
