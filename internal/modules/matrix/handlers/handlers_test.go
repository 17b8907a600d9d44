package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condorledger/internal/modules/matrix"
)

func setupMatrixRouter(t *testing.T) *chi.Mux {
	t.Helper()
	tables, err := matrix.LoadTables("")
	require.NoError(t, err)
	engine := matrix.NewEngine(tables, zerolog.Nop())

	h := NewMatrixHandlers(engine, Defaults{
		Premium:     1.75,
		Fee:         6.56,
		SpreadWidth: 5,
	}, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postCalculate(t *testing.T, r http.Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/matrix/calculate", &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleCalculateReferenceTier(t *testing.T) {
	r := setupMatrixRouter(t)

	rec := postCalculate(t, r, map[string]interface{}{
		"tier":   "$26,350",
		"matrix": "standard",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result matrix.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 26350.0, result.Capital)
	require.Len(t, result.Levels, 4)
	assert.Equal(t, 1, result.Levels[0].Contracts)
	assert.Equal(t, 5, result.Levels[1].Contracts)
	assert.Equal(t, 17, result.Levels[2].Contracts)
	assert.Equal(t, 53, result.Levels[3].Contracts)
}

func TestHandleCalculateAppliesOverrides(t *testing.T) {
	r := setupMatrixRouter(t)

	qty := 9
	rec := postCalculate(t, r, map[string]interface{}{
		"tier": "$26,350",
		"overrides": map[string]interface{}{
			"2": map[string]interface{}{"customQuantity": qty},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result matrix.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 9, result.Levels[1].BaseContracts)
}

func TestHandleCalculateRejectsBadOverrideKey(t *testing.T) {
	r := setupMatrixRouter(t)

	rec := postCalculate(t, r, map[string]interface{}{
		"tier": "$26,350",
		"overrides": map[string]interface{}{
			"not-a-level": map[string]interface{}{},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCalculateRejectsUnknownTier(t *testing.T) {
	r := setupMatrixRouter(t)

	rec := postCalculate(t, r, map[string]interface{}{"tier": "$1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCalculateRejectsInvalidBody(t *testing.T) {
	r := setupMatrixRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/matrix/calculate", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetTables(t *testing.T) {
	r := setupMatrixRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/matrix/tables", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tiers []struct {
			Label   string         `json:"label"`
			Capital float64        `json:"capital"`
			Levels  map[string]int `json:"levels"`
		} `json:"tiers"`
		Topologies []string `json:"topologies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Tiers)
	assert.Contains(t, body.Topologies, "standard")
	assert.Contains(t, body.Topologies, "stacked")
	assert.Contains(t, body.Topologies, "shifted")

	var found bool
	for _, tier := range body.Tiers {
		if tier.Label == "$26,350" {
			found = true
			assert.Equal(t, 26350.0, tier.Capital)
			assert.Equal(t, 1, tier.Levels["Level 2"])
			assert.Equal(t, 53, tier.Levels["Level 5"])
		}
	}
	assert.True(t, found, "reference tier missing from tables response")
}
