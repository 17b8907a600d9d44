// Package handlers provides HTTP handlers for the trade ledger API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"condorledger/internal/domain"
	"condorledger/internal/modules/ledger"
	"condorledger/internal/modules/pnl"
)

// LedgerHandlers contains HTTP handlers for the trade ledger API
type LedgerHandlers struct {
	service *ledger.Service
	log     zerolog.Logger
}

// NewLedgerHandlers creates a new ledger handlers instance
func NewLedgerHandlers(service *ledger.Service, log zerolog.Logger) *LedgerHandlers {
	return &LedgerHandlers{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// resolveUser extracts the caller identity from the X-User-Email header and
// cross-checks it against the userEmail query parameter when present. The two
// naming the same user is an ownership invariant, not a convenience.
func (h *LedgerHandlers) resolveUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := strings.ToLower(strings.TrimSpace(r.Header.Get("X-User-Email")))
	if header == "" {
		h.writeError(w, http.StatusUnauthorized, "X-User-Email header is required")
		return "", false
	}

	if param := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("userEmail"))); param != "" && param != header {
		h.writeError(w, http.StatusForbidden, "userEmail does not match authenticated user")
		return "", false
	}

	return header, true
}

// HandleList returns all trades for the calling user, oldest first
// GET /api/trades?userEmail=...
func (h *LedgerHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	email, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	trades, err := h.service.ListForUser(email)
	if err != nil {
		h.log.Error().Err(err).Str("user", email).Msg("Failed to list trades")
		h.writeError(w, http.StatusInternalServerError, "Failed to list trades")
		return
	}
	if trades == nil {
		trades = []*domain.Trade{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"items": trades})
}

// HandleCreate logs a new trade for the calling user
// POST /api/trades
func (h *LedgerHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	email, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	var trade domain.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	trade.UserEmail = email

	created, err := h.service.Create(&trade)
	if err != nil {
		h.log.Warn().Err(err).Str("user", email).Msg("Trade rejected")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, created)
}

// HandleUpdate replaces a trade the calling user owns
// PUT /api/trades/{id}
func (h *LedgerHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	email, ok := h.resolveUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var trade domain.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	trade.UserEmail = email

	updated, err := h.service.Update(id, email, &trade)
	if err != nil {
		status := http.StatusBadRequest
		msg := err.Error()
		switch {
		case strings.Contains(msg, "not found"):
			status = http.StatusNotFound
		case strings.Contains(msg, "does not belong"):
			status = http.StatusForbidden
		}
		h.log.Warn().Err(err).Str("id", id).Str("user", email).Msg("Trade update rejected")
		h.writeError(w, status, msg)
		return
	}

	h.writeJSON(w, http.StatusOK, updated)
}

// HandleDelete removes a trade the calling user owns
// DELETE /api/trades/{id}
func (h *LedgerHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	email, ok := h.resolveUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	removed, err := h.service.Delete(id, email)
	if err != nil {
		if strings.Contains(err.Error(), "does not belong") {
			h.writeError(w, http.StatusForbidden, err.Error())
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete trade")
		h.writeError(w, http.StatusInternalServerError, "Failed to delete trade")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"success": removed})
}

// HandleStats returns aggregate ledger statistics for the calling user
// GET /api/trades/stats
func (h *LedgerHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	email, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.StatsForUser(email)
	if err != nil {
		h.log.Error().Err(err).Str("user", email).Msg("Failed to compute stats")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// previewCloseRequest is the wire shape of a close preview
type previewCloseRequest struct {
	SellPut         float64  `json:"sellPut"`
	SellCall        float64  `json:"sellCall"`
	EntryPremium    float64  `json:"entryPremium"`
	Contracts       int      `json:"contracts"`
	FeePerContract  float64  `json:"feePerContract"`
	SpreadWidth     float64  `json:"spreadWidth"`
	Optimization    string   `json:"optimization"`
	ClosingPremium  float64  `json:"closingPremium"`
	SettlementPrice *float64 `json:"settlementPrice"`
}

// HandlePreviewClose computes a close result without persisting anything
// POST /api/trades/preview-close
func (h *LedgerHandlers) HandlePreviewClose(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.resolveUser(w, r); !ok {
		return
	}

	var req previewCloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := pnl.Calculate(pnl.CloseInput{
		SellPut:         req.SellPut,
		SellCall:        req.SellCall,
		EntryPremium:    req.EntryPremium,
		Contracts:       req.Contracts,
		FeePerContract:  req.FeePerContract,
		SpreadWidth:     req.SpreadWidth,
		Optimization:    pnl.Optimization(req.Optimization),
		ClosingPremium:  req.ClosingPremium,
		SettlementPrice: req.SettlementPrice,
	})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// writeJSON writes a JSON response
func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
