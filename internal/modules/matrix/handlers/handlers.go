// Package handlers provides HTTP handlers for the sizing matrix API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"condorledger/internal/domain"
	"condorledger/internal/modules/matrix"
)

// Defaults carries the trading defaults applied when a request omits them
type Defaults struct {
	Premium     float64
	Fee         float64
	SpreadWidth float64
}

// MatrixHandlers contains HTTP handlers for the sizing matrix API
type MatrixHandlers struct {
	engine   *matrix.Engine
	defaults Defaults
	log      zerolog.Logger
}

// NewMatrixHandlers creates a new matrix handlers instance
func NewMatrixHandlers(engine *matrix.Engine, defaults Defaults, log zerolog.Logger) *MatrixHandlers {
	return &MatrixHandlers{
		engine:   engine,
		defaults: defaults,
		log:      log.With().Str("handler", "matrix").Logger(),
	}
}

// calculateRequest is the wire shape of a sizing request. Override keys are
// numeric levels serialized as strings.
type calculateRequest struct {
	Tier           string                          `json:"tier"`
	Capital        float64                         `json:"capital"`
	Matrix         string                          `json:"matrix"`
	DefaultPremium float64                         `json:"defaultPremium"`
	FeePerContract *float64                        `json:"feePerContract"`
	Overrides      map[string]matrix.LevelOverride `json:"overrides"`
}

// HandleCalculate runs one sizing pass
// POST /api/matrix/calculate
func (h *MatrixHandlers) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	in := matrix.Input{
		Tier:           req.Tier,
		Capital:        req.Capital,
		Matrix:         domain.MatrixName(req.Matrix),
		DefaultPremium: req.DefaultPremium,
		FeePerContract: h.defaults.Fee,
		SpreadWidth:    h.defaults.SpreadWidth,
	}
	if in.Matrix == "" {
		in.Matrix = domain.MatrixStandard
	}
	if in.DefaultPremium == 0 {
		in.DefaultPremium = h.defaults.Premium
	}
	if req.FeePerContract != nil {
		in.FeePerContract = *req.FeePerContract
	}

	if len(req.Overrides) > 0 {
		in.Overrides = make(map[int]matrix.LevelOverride, len(req.Overrides))
		for key, ov := range req.Overrides {
			level, err := strconv.Atoi(key)
			if err != nil || level < 1 {
				h.writeError(w, http.StatusBadRequest, "Override keys must be numeric levels")
				return
			}
			in.Overrides[level] = ov
		}
	}

	result, err := h.engine.Calculate(in)
	if err != nil {
		h.log.Warn().Err(err).Str("tier", req.Tier).Msg("Sizing calculation rejected")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetTables returns the configured capital tiers and topologies
// GET /api/matrix/tables
func (h *MatrixHandlers) HandleGetTables(w http.ResponseWriter, r *http.Request) {
	tables := h.engine.Tables()

	tiers := make([]map[string]interface{}, 0)
	for _, label := range tables.TierLabels() {
		capital, err := domain.ParseMoney(label)
		if err != nil {
			continue
		}
		schedule, err := tables.Schedule(label, domain.MatrixStandard)
		if err != nil {
			continue
		}
		levels := make(map[string]int, len(schedule))
		for level, count := range schedule {
			levels[domain.LevelLabel(level)] = count
		}
		tiers = append(tiers, map[string]interface{}{
			"label":   label,
			"capital": capital,
			"levels":  levels,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tiers":      tiers,
		"topologies": []string{string(domain.MatrixStandard), string(domain.MatrixStacked), string(domain.MatrixShifted)},
	})
}

// writeJSON writes a JSON response
func (h *MatrixHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *MatrixHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
