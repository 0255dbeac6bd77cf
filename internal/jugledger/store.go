package jugledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Store persists the ledger as a whole. Implementations never append or
// update in place: Save replaces everything that was there before.
type Store interface {
	// Init creates an empty ledger (header only) if none exists yet.
	Init(ctx context.Context) error

	// Load returns every persisted event in storage order.
	Load(ctx context.Context) ([]Event, error)

	// Save replaces the persisted ledger with events.
	Save(ctx context.Context, events []Event) error

	// Raw returns the CSV representation of the ledger as persisted.
	Raw(ctx context.Context) ([]byte, error)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeCSV parses the CSV representation. The first row is the header and
// is skipped without being checked; rows with fewer than three columns are
// ignored.
func decodeCSV(r io.Reader) ([]Event, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var events []Event
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(rec) < 3 {
			continue
		}
		events = append(events, Event{
			JugName:  strings.TrimSpace(rec[0]),
			State:    State(rec[1]),
			DateTime: rec[2],
		})
	}
	return events, nil
}

// encodeCSV writes the header followed by one row per event.
func encodeCSV(w io.Writer, events []Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range events {
		if err := cw.Write([]string{strings.TrimSpace(e.JugName), string(e.State), e.DateTime}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderCSV(events []Event) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeCSV(&buf, events); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}
