// Package api provides the HTTP surface for the trading simulation:
// session management, turn advancement, limit orders, and ledger queries.
// The engine stays pure; everything HTTP- or storage-shaped lives here.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/advisory"
	"github.com/coinsim/trade-engine/internal/engine"
	"github.com/coinsim/trade-engine/internal/feed"
	"github.com/coinsim/trade-engine/internal/fees"
	"github.com/coinsim/trade-engine/internal/metrics"
	"github.com/coinsim/trade-engine/internal/model"
	"github.com/coinsim/trade-engine/internal/store"
)

// DefaultStartingCash is the cash balance new sessions begin with.
var DefaultStartingCash = decimal.NewFromInt(10000)

// largeOrderFraction is the advisory threshold for oversized orders.
var largeOrderFraction = decimal.NewFromFloat(0.5)

// Service manages simulation sessions over HTTP. Turn processing is
// strictly sequential per the engine's single-writer model; the mutex
// serializes all session mutation (single-instance deployment).
type Service struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
	store    store.SessionStore
	hub      *WSHub // optional; nil disables broadcasts
	advisor  *advisory.Advisor
}

// sessionState pairs an engine with its bar feed and creation parameters.
type sessionState struct {
	eng          *engine.Session
	feed         feed.Feed // nil for restored sessions; turns then need inline bars
	startingCash decimal.Decimal
}

// NewService creates a session service. Pass nil for hub if WebSocket
// broadcasting is not needed.
func NewService(st store.SessionStore, hub *WSHub) *Service {
	return &Service{
		sessions: make(map[string]*sessionState),
		store:    st,
		hub:      hub,
		advisor:  advisory.NewAdvisor(largeOrderFraction),
	}
}

// --- Request/Response types ---

// WalkConfig configures a synthetic random-walk bar feed.
type WalkConfig struct {
	StartPrice float64 `json:"start_price"`
	Volatility float64 `json:"volatility"` // max fractional move per bar; 0 → 1%
	Seed       int64   `json:"seed"`
}

// CreateSessionRequest is the JSON body for POST /sessions.
// Exactly one bar source is required: an explicit bar list or a walk.
type CreateSessionRequest struct {
	StartingCash decimal.Decimal  `json:"starting_cash"` // 0 → DefaultStartingCash
	Interval     string           `json:"interval"`      // bar interval; 0 → "5m"
	Bars         []model.PriceBar `json:"bars,omitempty"`
	Walk         *WalkConfig      `json:"walk,omitempty"`
	FeeSeed      int64            `json:"fee_seed"` // gas-fee jitter seed; 0 → time-based
}

// AdvanceRequest is the JSON body for POST /sessions/{id}/turn.
type AdvanceRequest struct {
	Action model.ActionKind `json:"action"` // buy, sell, or hold
	Amount decimal.Decimal  `json:"amount"` // USD notional; ignored for hold
	Bar    *model.PriceBar  `json:"bar,omitempty"` // overrides the session feed
}

// PlaceOrderRequest is the JSON body for POST /sessions/{id}/orders.
type PlaceOrderRequest struct {
	Side        model.OrderSide `json:"side"`
	Notional    decimal.Decimal `json:"notional"`
	TargetPrice decimal.Decimal `json:"target_price"`
}

// PlaceOrderResponse returns the placed order with advisory findings the
// UI may render as warnings.
type PlaceOrderResponse struct {
	Order         model.LimitOrder   `json:"order"`
	EstimatedFees model.FeeBreakdown `json:"estimated_fees"`
	Warnings      []advisory.Warning `json:"warnings,omitempty"`
}

// SessionView is the read-only session summary returned by most endpoints.
type SessionView struct {
	ID            string          `json:"id"`
	Turn          int             `json:"turn"`
	Price         decimal.Decimal `json:"price"`
	Portfolio     model.Portfolio `json:"portfolio"`
	TotalValue    decimal.Decimal `json:"total_value"`
	MaxAffordable decimal.Decimal `json:"max_affordable"`
	PendingOrders int             `json:"pending_orders"`
}

// TurnResponse is returned by POST /sessions/{id}/turn.
type TurnResponse struct {
	Result  *engine.TurnResult `json:"result"`
	Session SessionView        `json:"session"`
}

// --- HTTP Handlers ---

// CreateSession handles POST /api/v1/sessions.
func (s *Service) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	startingCash := req.StartingCash
	if startingCash.IsZero() {
		startingCash = DefaultStartingCash
	}
	if startingCash.IsNegative() {
		writeError(w, "starting_cash must not be negative", http.StatusBadRequest)
		return
	}

	intervalName := req.Interval
	if intervalName == "" {
		intervalName = "5m"
	}
	iv, err := feed.ParseInterval(intervalName)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var barFeed feed.Feed
	switch {
	case len(req.Bars) > 0 && req.Walk != nil:
		writeError(w, "provide either bars or walk, not both", http.StatusBadRequest)
		return
	case len(req.Bars) > 0:
		barFeed = feed.NewSliceFeed(req.Bars)
	case req.Walk != nil:
		cfg := *req.Walk
		if cfg.StartPrice <= 0 {
			writeError(w, "walk.start_price must be positive", http.StatusBadRequest)
			return
		}
		if cfg.Volatility <= 0 {
			cfg.Volatility = 0.01
		}
		barFeed = feed.NewRandomWalkFeed(cfg.StartPrice, cfg.Volatility, iv,
			time.Now().UTC().Truncate(iv.Step), rand.New(rand.NewSource(cfg.Seed)))
	default:
		writeError(w, "a bar source is required: bars or walk", http.StatusBadRequest)
		return
	}

	feeSeed := req.FeeSeed
	if feeSeed == 0 {
		feeSeed = time.Now().UnixNano()
	}
	calc := fees.NewCalculator(rand.New(rand.NewSource(feeSeed)))

	id := uuid.New().String()
	state := &sessionState{
		eng:          engine.NewSession(startingCash, calc),
		feed:         barFeed,
		startingCash: startingCash,
	}

	s.mu.Lock()
	s.sessions[id] = state
	s.mu.Unlock()
	metrics.ActiveSessions.Inc()

	s.persist(r.Context(), id, state)

	slog.Info("session created",
		"id", id,
		"starting_cash", startingCash.String(),
		"interval", iv.Name,
	)

	writeJSON(w, http.StatusCreated, s.view(id, state))
}

// GetSession handles GET /api/v1/sessions/{sessionID}.
func (s *Service) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.getSession(r.Context(), id)
	if err != nil {
		writeError(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.view(id, state))
}

// ListSessions handles GET /api/v1/sessions.
func (s *Service) ListSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	// Include persisted sessions not currently resident.
	if s.store != nil {
		stored, err := s.store.List(r.Context())
		if err == nil {
			seen := make(map[string]bool, len(ids))
			for _, id := range ids {
				seen[id] = true
			}
			for _, id := range stored {
				if !seen[id] {
					ids = append(ids, id)
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// AdvanceTurn handles POST /api/v1/sessions/{sessionID}/turn.
// It advances one turn: the bar comes from the request body if supplied,
// otherwise from the session's feed.
func (s *Service) AdvanceTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var req AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Action == "" {
		req.Action = model.ActionHold
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.getSession(r.Context(), id)
	if err != nil {
		writeError(w, "session not found", http.StatusNotFound)
		return
	}

	var bar model.PriceBar
	switch {
	case req.Bar != nil:
		bar = *req.Bar
	case state.feed != nil:
		bar, err = state.feed.Next(r.Context())
		if errors.Is(err, feed.ErrExhausted) {
			writeError(w, "bar feed exhausted; supply a bar inline", http.StatusConflict)
			return
		}
		if err != nil {
			writeError(w, "bar feed failed: "+err.Error(), http.StatusBadGateway)
			return
		}
	default:
		writeError(w, "restored session has no feed; supply a bar inline", http.StatusConflict)
		return
	}

	before := len(state.eng.Ledger())
	result, err := state.eng.Advance(engine.Action{Kind: req.Action, Notional: req.Amount}, bar)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.observe(state.eng.Ledger()[before:])
	metrics.TurnsTotal.Inc()
	s.persist(r.Context(), id, state)

	slog.Info("turn advanced",
		"session", id,
		"turn", result.Turn,
		"price", result.Price.String(),
		"action", string(result.Entry.Action),
		"outcome", string(result.Entry.Outcome),
		"limit_fills", len(result.Executed),
	)

	if s.hub != nil {
		s.hub.Broadcast(WSMessage{
			Type:      "turn",
			SessionID: id,
			Turn:      result.Turn,
			Price:     result.Price.String(),
			Action:    result.Entry.Action,
			Outcome:   result.Entry.Outcome,
			Executed:  result.Executed,
		})
	}

	writeJSON(w, http.StatusOK, TurnResponse{Result: result, Session: s.view(id, state)})
}

// PlaceOrder handles POST /api/v1/sessions/{sessionID}/orders.
func (s *Service) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Side != model.Buy && req.Side != model.Sell {
		writeError(w, "side must be buy or sell", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.getSession(r.Context(), id)
	if err != nil {
		writeError(w, "session not found", http.StatusNotFound)
		return
	}

	order, err := state.eng.PlaceLimitOrder(req.Side, req.Notional, req.TargetPrice)
	if err != nil {
		s.persist(r.Context(), id, state) // the rejection is ledgered
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	price := state.eng.Price()
	warnings := s.advisor.CheckLimitOrder(req.Side, req.Notional, req.TargetPrice,
		price, state.eng.Portfolio().Value(price))

	s.persist(r.Context(), id, state)

	slog.Info("limit order placed",
		"session", id,
		"order", order.ID,
		"side", string(order.Side),
		"notional", order.Notional.String(),
		"target", order.TargetPrice.String(),
		"warnings", len(warnings),
	)

	writeJSON(w, http.StatusCreated, PlaceOrderResponse{
		Order:         order,
		EstimatedFees: advisory.EstimateFee(order.Notional, model.Maker),
		Warnings:      warnings,
	})
}

// CancelOrder handles DELETE /api/v1/sessions/{sessionID}/orders/{orderID}.
func (s *Service) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	orderID := chi.URLParam(r, "orderID")

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.getSession(r.Context(), id)
	if err != nil {
		writeError(w, "session not found", http.StatusNotFound)
		return
	}

	err = state.eng.CancelLimitOrder(orderID)
	s.persist(r.Context(), id, state) // outcome is ledgered either way
	switch {
	case errors.Is(err, engine.ErrOrderNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrOrderTerminal):
		writeError(w, err.Error(), http.StatusConflict)
	case err != nil:
		writeError(w, err.Error(), http.StatusInternalServerError)
	default:
		slog.Info("limit order cancelled", "session", id, "order", orderID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled", "order_id": orderID})
	}
}

// ListOrders handles GET /api/v1/sessions/{sessionID}/orders.
func (s *Service) ListOrders(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.getSession(r.Context(), id)
	if err != nil {
		writeError(w, "session not found", http.StatusNotFound)
		return
	}

	pending := state.eng.PendingOrders()
	if pending == nil {
		pending = []model.LimitOrder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pending": pending,
		"all":     state.eng.Orders(),
	})
}

// GetLedger handles GET /api/v1/sessions/{sessionID}/ledger.
func (s *Service) GetLedger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.getSession(r.Context(), id)
	if err != nil {
		writeError(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": state.eng.Ledger()})
}

// ResetSession handles POST /api/v1/sessions/{sessionID}/reset: a fresh
// portfolio at the original starting cash, cleared orders and ledger,
// turn 0. The bar feed keeps its position.
func (s *Service) ResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.getSession(r.Context(), id)
	if err != nil {
		writeError(w, "session not found", http.StatusNotFound)
		return
	}

	feeSeed := time.Now().UnixNano()
	state.eng = engine.NewSession(state.startingCash, fees.NewCalculator(rand.New(rand.NewSource(feeSeed))))
	s.persist(r.Context(), id, state)

	slog.Info("session reset", "id", id, "starting_cash", state.startingCash.String())
	writeJSON(w, http.StatusOK, s.view(id, state))
}

// --- Helpers ---

// getSession returns the resident session, falling back to the snapshot
// store. Restored sessions have no feed; callers must supply bars inline.
// Caller must hold s.mu.
func (s *Service) getSession(ctx context.Context, id string) (*sessionState, error) {
	if state, ok := s.sessions[id]; ok {
		return state, nil
	}
	if s.store == nil {
		return nil, store.ErrNotFound
	}

	snap, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	calc := fees.NewCalculator(rand.New(rand.NewSource(time.Now().UnixNano())))
	state := &sessionState{
		eng:          engine.Restore(snap, calc),
		startingCash: startingCashOf(snap),
	}
	s.sessions[id] = state
	metrics.ActiveSessions.Inc()
	slog.Info("session restored from store", "id", id, "turn", snap.Turn)
	return state, nil
}

// startingCashOf recovers the starting cash from the oldest ledger state,
// or the current balance for a session that never traded.
func startingCashOf(snap model.Snapshot) decimal.Decimal {
	if len(snap.Ledger) == 0 {
		return snap.Portfolio.Cash
	}
	first := snap.Ledger[0]
	// First entry carries the balance after the first action; undo it.
	switch {
	case first.Outcome != model.OutcomeSuccess:
		return first.Cash
	case first.Action == model.ActionBuy:
		return first.Cash.Add(first.Notional).Add(first.Fees.TotalFee)
	case first.Action == model.ActionSell:
		return first.Cash.Sub(first.Notional.Sub(first.Fees.TotalFee))
	default:
		return first.Cash
	}
}

// persist write-throughs the session snapshot; storage failures are logged
// but never fail the request.
func (s *Service) persist(ctx context.Context, id string, state *sessionState) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, id, state.eng.Snapshot()); err != nil {
		slog.Error("snapshot save failed", "session", id, "err", err)
	}
}

// observe records metrics for ledger entries appended during one call.
func (s *Service) observe(entries []model.LedgerEntry) {
	for _, e := range entries {
		metrics.ActionsTotal.WithLabelValues(string(e.Action), string(e.Outcome)).Inc()
		if e.Outcome == model.OutcomeRejected {
			metrics.RejectionsTotal.WithLabelValues(string(e.Reason)).Inc()
			continue
		}
		if e.Action == model.ActionLimitExecuted {
			metrics.LimitTriggersTotal.Inc()
		}
		if e.Fees.TotalFee.IsPositive() {
			metrics.GasFee.Observe(e.Fees.GasFee.InexactFloat64())
		}
	}
}

// view builds the read-only session summary.
func (s *Service) view(id string, state *sessionState) SessionView {
	p := state.eng.Portfolio()
	price := state.eng.Price()
	return SessionView{
		ID:            id,
		Turn:          state.eng.Turn(),
		Price:         price,
		Portfolio:     p,
		TotalValue:    p.Value(price),
		MaxAffordable: advisory.MaxAffordable(p.Cash),
		PendingOrders: len(state.eng.PendingOrders()),
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
