package handler_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/jmerrifield20/jugtracker/internal/jugledger"
)

func seedEvents() []jugledger.Event {
	return []jugledger.Event{
		{JugName: "A", State: jugledger.StateFilled, DateTime: "10:00:00 01.01.2024"},
		{JugName: "B", State: jugledger.StateFilled, DateTime: "11:00:00 01.01.2024"},
		{JugName: "C", State: jugledger.StateFilled, DateTime: "12:00:00 01.01.2024"},
	}
}

func TestExportCSV(t *testing.T) {
	router := setupRouter(t, newTestLedger(seedEvents()...))

	w := doJSON(t, router, http.MethodGet, "/api/data-csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("expected attachment disposition, got %q", cd)
	}
	if !strings.HasPrefix(w.Body.String(), "JugName,State,DateTime\n") {
		t.Errorf("missing header row: %q", w.Body.String())
	}
}

func TestExportCSV_500_unreadable(t *testing.T) {
	router := setupRouter(t, brokenLedger{newTestLedger()})

	w := doJSON(t, router, http.MethodGet, "/api/data-csv", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestLastN(t *testing.T) {
	router := setupRouter(t, newTestLedger(seedEvents()...))

	w := doJSON(t, router, http.MethodGet, "/api/data-csv/last-n?n=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res jugledger.TailResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.TotalRows != 3 || res.RetrievedRows != 2 {
		t.Errorf("unexpected counts: %+v", res)
	}
	if res.Lines[0].JugName != "C" || res.Lines[1].JugName != "B" {
		t.Errorf("expected newest first, got %v", res.Lines)
	}
}

func TestLastN_defaultsToTen(t *testing.T) {
	router := setupRouter(t, newTestLedger(seedEvents()...))

	w := doJSON(t, router, http.MethodGet, "/api/data-csv/last-n", nil)
	var res jugledger.TailResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.RetrievedRows != 3 {
		t.Errorf("expected all 3 rows, got %d", res.RetrievedRows)
	}
}

func TestLastN_400(t *testing.T) {
	router := setupRouter(t, newTestLedger())

	for _, q := range []string{"abc", "0", "-3"} {
		w := doJSON(t, router, http.MethodGet, "/api/data-csv/last-n?n="+q, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("n=%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestUpdate_success(t *testing.T) {
	router := setupRouter(t, newTestLedger(seedEvents()...))

	w := doJSON(t, router, http.MethodPost, "/api/data-csv/update", map[string]any{
		"lines": []map[string]string{
			{"JugName": "C", "State": "Emptied", "DateTime": "12:00:00 01.01.2024"},
		},
		"totalRows":   3,
		"editedCount": 1,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if int(resp["newTotal"].(float64)) != 3 {
		t.Errorf("expected newTotal 3, got %v", resp["newTotal"])
	}

	w = doJSON(t, router, http.MethodGet, "/api/jugs?state=filled", nil)
	if filled := decodeEvents(t, w); len(filled) != 2 {
		t.Errorf("expected 2 filled jugs after edit, got %v", filled)
	}
}

func TestUpdate_400_invalidState(t *testing.T) {
	router := setupRouter(t, newTestLedger(seedEvents()...))

	w := doJSON(t, router, http.MethodPost, "/api/data-csv/update", map[string]any{
		"lines": []map[string]string{
			{"JugName": "C", "State": "Leaking", "DateTime": "12:00:00 01.01.2024"},
		},
		"totalRows":   3,
		"editedCount": 1,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["field"] != "State" || resp["value"] != "Leaking" {
		t.Errorf("expected field/value detail, got %v", resp)
	}
}

func TestUpdate_409_conflict(t *testing.T) {
	router := setupRouter(t, newTestLedger(seedEvents()...))

	w := doJSON(t, router, http.MethodPost, "/api/data-csv/update", map[string]any{
		"lines": []map[string]string{
			{"JugName": "C", "State": "Emptied", "DateTime": "12:00:00 01.01.2024"},
		},
		"totalRows":   0,
		"editedCount": 1,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if int(resp["actual"].(float64)) != 3 {
		t.Errorf("expected actual=3, got %v", resp["actual"])
	}
}

func TestUpdate_400_missingFields(t *testing.T) {
	router := setupRouter(t, newTestLedger(seedEvents()...))

	bodies := []map[string]any{
		{"lines": []any{}, "totalRows": 3, "editedCount": 1},
		{"lines": []map[string]string{{"JugName": "C", "State": "Filled", "DateTime": "12:00:00 01.01.2024"}}},
	}
	for i, b := range bodies {
		w := doJSON(t, router, http.MethodPost, "/api/data-csv/update", b)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %d: expected 400, got %d", i, w.Code)
		}
	}
}
