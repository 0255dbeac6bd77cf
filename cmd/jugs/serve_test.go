package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/jugtracker/internal/config"
	"github.com/jmerrifield20/jugtracker/internal/health"
	"github.com/jmerrifield20/jugtracker/internal/jugledger"
	"go.uber.org/zap"
)

func testConfig(path string) *config.Config {
	return &config.Config{
		CORSOrigins:   []string{"*"},
		LedgerPath:    path,
		StorageDriver: config.DriverCSV,
	}
}

func TestRouter_endToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "kitchen.csv")
	store := jugledger.NewFileStore(path)
	if err := store.Init(ctx); err != nil {
		t.Fatal(err)
	}
	ledger := jugledger.New(store, zap.NewNop())
	checker := health.New(store, health.Config{}, zap.NewNop())
	router := newRouter(ctx, testConfig(path), ledger, checker, zap.NewNop())

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}
	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	if w := post("/api/jugs/fill", `{"jugs":["A","B","A"]}`); w.Code != http.StatusOK {
		t.Fatalf("fill: %d %s", w.Code, w.Body.String())
	}
	if w := post("/api/jugs/empty", `{"jugName":"A"}`); w.Code != http.StatusOK {
		t.Fatalf("empty: %d %s", w.Code, w.Body.String())
	}

	var filled []jugledger.Event
	json.Unmarshal(get("/api/jugs?state=filled").Body.Bytes(), &filled)
	if len(filled) != 1 || filled[0].JugName != "B" {
		t.Errorf("expected only B filled, got %v", filled)
	}

	w := get("/api/data-csv")
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "kitchen.csv") {
		t.Errorf("expected export name from ledger path, got %q", cd)
	}
	if lines := strings.Count(w.Body.String(), "\n"); lines != 4 {
		t.Errorf("expected header + 3 rows, got %d lines", lines)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected request ID header")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}

	var h map[string]string
	json.Unmarshal(get("/health").Body.Bytes(), &h)
	if h["status"] != "ok" || h["ledger"] != health.StatusHealthy {
		t.Errorf("unexpected health %v", h)
	}

	if w := get("/metrics"); !strings.Contains(w.Body.String(), "jug_requests_total") {
		t.Error("expected request metrics to be exposed")
	}
}

func TestRouter_bodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledger := jugledger.New(jugledger.NewMemoryStore(), zap.NewNop())
	router := newRouter(ctx, testConfig("jugs.csv"), ledger, nil, zap.NewNop())

	big := `{"jugs":["` + strings.Repeat("x", 2<<20) + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/jugs/fill", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", w.Code)
	}
	if n, _ := ledger.Len(ctx); n != 0 {
		t.Errorf("oversized request must not write, got %d rows", n)
	}
}

func TestContainsWildcard(t *testing.T) {
	if !containsWildcard([]string{"http://a", " * "}) {
		t.Error("expected wildcard")
	}
	if containsWildcard([]string{"http://a"}) {
		t.Error("unexpected wildcard")
	}
}
