package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"slabcore/internal/config"
	"slabcore/internal/errs"
	"slabcore/internal/harness"
	"slabcore/internal/wire"
)

// Handlers holds all HTTP handler dependencies.
type Handlers struct {
	h      *harness.Harness
	cfg    config.Config
	hub    *Hub
	logger *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(h *harness.Harness, cfg config.Config, hub *Hub, logger *slog.Logger) *Handlers {
	return &Handlers{
		h:      h,
		cfg:    cfg,
		hub:    hub,
		logger: logger.With("component", "api-handlers"),
	}
}

// HandleHealth returns a simple liveness response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleQuote serves GET /api/slabs/{slab_id}/quote?instrument_idx=N.
func (h *Handlers) HandleQuote(w http.ResponseWriter, r *http.Request) {
	slabID := r.PathValue("slab_id")
	idx, err := parseInstrumentIdx(r)
	if err != nil {
		writeError(w, err)
		return
	}
	qc, err := h.h.QuoteCache(slabID, idx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, NewQuoteSnapshot(slabID, idx, qc))
}

// HandleInstrument serves GET /api/slabs/{slab_id}/instruments/{idx}.
func (h *Handlers) HandleInstrument(w http.ResponseWriter, r *http.Request) {
	slabID := r.PathValue("slab_id")
	idx, err := strconv.ParseUint(r.PathValue("idx"), 10, 16)
	if err != nil {
		writeError(w, errs.New(errs.InvalidInstrument, "instrument idx must be numeric"))
		return
	}
	inst, err := h.h.Instrument(slabID, uint16(idx))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, NewInstrumentSnapshot(inst))
}

// HandlePortfolio serves GET /api/portfolios/{account_idx}.
func (h *Handlers) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.ParseUint(r.PathValue("account_idx"), 10, 32)
	if err != nil {
		writeError(w, errs.New(errs.InvalidAccount, "account_idx must be numeric"))
		return
	}
	p := h.h.Portfolio(uint32(idx))
	writeJSON(w, h.logger, http.StatusOK, PortfolioSnapshot{
		AccountIdx: uint32(idx),
		Equity:     p.Equity,
		IM:         p.IM,
		OpenHolds:  len(p.Holds),
	})
}

// HandleSlabInstruction serves POST /api/slabs/{slab_id}/instructions: the
// request body is one raw wire-encoded slab instruction.
func (h *Handlers) HandleSlabInstruction(w http.ResponseWriter, r *http.Request) {
	slabID := r.PathValue("slab_id")
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxInstructionBody))
	if err != nil {
		writeError(w, errs.New(errs.InvalidInstruction, "failed to read request body"))
		return
	}

	result, dispatchErr := h.h.DispatchSlab(slabID, raw, nowMS())
	h.hub.BroadcastEvent(NewInstructionEvent(slabID, "slab", dispatchErr))
	if dispatchErr != nil {
		writeError(w, dispatchErr)
		return
	}
	h.broadcastQuote(slabID, raw)
	writeJSON(w, h.logger, http.StatusOK, result)
}

// broadcastQuote pushes an instrument's current quote cache to dashboard
// clients after a successful Reserve, BatchOpen or single-instrument
// UpdateFunding, the instructions whose payload names an instrument.
// Commit, Cancel and the other instructions are not followed by a quote
// push, so the seqno advance of a commit is not pushed on its own.
func (h *Handlers) broadcastQuote(slabID string, raw []byte) {
	idx, ok := instructionInstrument(raw)
	if !ok {
		return
	}
	qc, err := h.h.QuoteCache(slabID, idx)
	if err != nil {
		return
	}
	h.hub.BroadcastEvent(NewQuoteUpdateEvent(slabID, idx, NewQuoteSnapshot(slabID, idx, qc)))
}

// instructionInstrument extracts the instrument_idx touched by a decoded
// slab instruction, for those variants that carry one.
func instructionInstrument(raw []byte) (uint16, bool) {
	instr, err := wire.DecodeSlab(raw)
	if err != nil {
		return 0, false
	}
	switch in := instr.(type) {
	case wire.ReserveInstruction:
		return in.InstrumentIdx, true
	case wire.BatchOpenInstruction:
		return in.InstrumentIdx, true
	case wire.UpdateFundingInstruction:
		return in.InstrumentIdx, !in.UpdateAll
	default:
		return 0, false
	}
}

// HandleRouterInstruction serves POST /api/router/instructions: the
// request body is one raw wire-encoded router instruction.
func (h *Handlers) HandleRouterInstruction(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxInstructionBody))
	if err != nil {
		writeError(w, errs.New(errs.InvalidInstruction, "failed to read request body"))
		return
	}

	callerIdx, liquidatorIdx, salt := parseRouterHeaders(r)
	result, dispatchErr := h.h.DispatchRouter(raw, callerIdx, liquidatorIdx, salt, nowMS())
	h.hub.BroadcastEvent(NewInstructionEvent("", "router", dispatchErr))
	if dispatchErr != nil {
		writeError(w, dispatchErr)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

// HandleWebSocket upgrades the connection and creates a new WebSocket client.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(req *http.Request) bool {
			return isOriginAllowed(req.Header.Get("Origin"), h.cfg.Dashboard, req.Host)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	NewClient(h.hub, conn)
}

const maxInstructionBody = 4096

func nowMS() uint64 {
	return uint64(time.Now().UnixMilli())
}

func parseInstrumentIdx(r *http.Request) (uint16, error) {
	raw := r.URL.Query().Get("instrument_idx")
	if raw == "" {
		return 0, errs.New(errs.InvalidInstrument, "instrument_idx query parameter is required")
	}
	idx, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, errs.New(errs.InvalidInstrument, "instrument_idx must be numeric")
	}
	return uint16(idx), nil
}

// parseRouterHeaders extracts the out-of-band identity fields the router
// wire payloads don't carry (see internal/router/dispatch.go) from request
// headers, the harness-only equivalent of resolving a transaction's signer
// accounts.
func parseRouterHeaders(r *http.Request) (callerIdx, liquidatorIdx uint32, salt [32]byte) {
	if v, err := strconv.ParseUint(r.Header.Get("X-Account-Idx"), 10, 32); err == nil {
		callerIdx = uint32(v)
	}
	if v, err := strconv.ParseUint(r.Header.Get("X-Liquidator-Idx"), 10, 32); err == nil {
		liquidatorIdx = uint32(v)
	}
	saltHex := r.Header.Get("X-Salt")
	if len(saltHex) == 64 {
		for i := 0; i < 32; i++ {
			b, err := strconv.ParseUint(saltHex[i*2:i*2+2], 16, 8)
			if err != nil {
				break
			}
			salt[i] = byte(b)
		}
	}
	return callerIdx, liquidatorIdx, salt
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind, _ := errs.Of(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(kind.HTTPStatus())
	json.NewEncoder(w).Encode(ErrorResponse{Kind: kind.String(), Message: err.Error()})
}

func isOriginAllowed(origin string, cfg config.DashboardConfig, reqHost string) bool {
	if origin == "" {
		// Non-browser clients often omit Origin; keep this path functional.
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	normalized := normalizeOrigin(originURL.Scheme, originURL.Host)
	if normalized == "" {
		return false
	}

	if len(cfg.AllowedOrigins) > 0 {
		for _, allowed := range cfg.AllowedOrigins {
			u, err := url.Parse(allowed)
			if err != nil {
				continue
			}
			if normalized == normalizeOrigin(u.Scheme, u.Host) {
				return true
			}
		}
		return false
	}

	host := strings.ToLower(originURL.Hostname())
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}

	reqHostname := normalizeHost(reqHost)
	return reqHostname != "" && host == reqHostname
}

func normalizeOrigin(scheme, host string) string {
	if scheme == "" || host == "" {
		return ""
	}
	return strings.ToLower(scheme) + "://" + strings.ToLower(host)
}

func normalizeHost(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(hostport)
}
