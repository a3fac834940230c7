package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"slabcore/internal/config"
	"slabcore/internal/harness"
	"slabcore/internal/slab"
	"slabcore/internal/store"
	"slabcore/internal/wire"
)

func newTestServer(t *testing.T) (*Handlers, string) {
	t.Helper()

	st := slab.New(slab.Config{
		AccountCapacity: 8, OrderCapacity: 8, PositionCapacity: 8,
		ReservationCapacity: 8, SliceCapacity: 8, AggressorRingSize: 8,
	})
	if err := st.Initialize([32]byte{1}, [32]byte{2}, [32]byte{3}, 500, 300, -5, 20, 1000, 2); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := st.AddInstrument([8]byte{'B', 'T', 'C'}, 1000, 100, 1, 50_000_000); err != nil {
		t.Fatalf("AddInstrument: %v", err)
	}

	dir := t.TempDir()
	s, err := store.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := harness.New(config.Config{}, logger, s)
	h.AddSlab("btc-perp", st)

	return NewHandlers(h, config.Config{}, NewHub(logger), logger), "btc-perp"
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	handlers, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	handlers.HandleHealth(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleInstrument(t *testing.T) {
	t.Parallel()
	handlers, slabID := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/slabs/"+slabID+"/instruments/0", nil)
	req.SetPathValue("slab_id", slabID)
	req.SetPathValue("idx", "0")
	handlers.HandleInstrument(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got InstrumentSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Symbol != "BTC" {
		t.Errorf("Symbol = %q, want BTC", got.Symbol)
	}
	if got.IndexPrice != 50_000_000 {
		t.Errorf("IndexPrice = %d, want 50000000", got.IndexPrice)
	}
}

func TestHandleInstrumentUnknownSlab(t *testing.T) {
	t.Parallel()
	handlers, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/slabs/nope/instruments/0", nil)
	req.SetPathValue("slab_id", "nope")
	req.SetPathValue("idx", "0")
	handlers.HandleInstrument(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400 (InvalidAccount maps to 400)", rec.Code)
	}
}

func TestHandleSlabInstructionDispatchesAndQuoteReads(t *testing.T) {
	t.Parallel()
	handlers, slabID := newTestServer(t)

	batch := wire.BatchOpenInstruction{InstrumentIdx: 0, CurrentTS: 1}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/slabs/"+slabID+"/instructions", bytes.NewReader(batch.Encode()))
	req.SetPathValue("slab_id", slabID)
	handlers.HandleSlabInstruction(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest("GET", "/api/slabs/"+slabID+"/quote?instrument_idx=0", nil)
	req2.SetPathValue("slab_id", slabID)
	handlers.HandleQuote(rec2, req2)

	if rec2.Code != 200 {
		t.Fatalf("quote status = %d, body %s", rec2.Code, rec2.Body.String())
	}
}

func TestHandlePortfolioDefaultsToEmpty(t *testing.T) {
	t.Parallel()
	handlers, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/portfolios/7", nil)
	req.SetPathValue("account_idx", "7")
	handlers.HandlePortfolio(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got PortfolioSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.AccountIdx != 7 || got.Equity != 0 {
		t.Errorf("unexpected portfolio snapshot: %+v", got)
	}
}
