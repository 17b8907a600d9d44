package matrix

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condorledger/internal/domain"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	tables, err := LoadTables("")
	require.NoError(t, err)
	return NewEngine(tables, zerolog.Nop())
}

func referenceInput() Input {
	return Input{
		Tier:           "$26,350",
		Matrix:         domain.MatrixStandard,
		DefaultPremium: 1.75,
		FeePerContract: 6.56,
		SpreadWidth:    5,
	}
}

func TestCalculateReferenceTier(t *testing.T) {
	engine := testEngine(t)

	result, err := engine.Calculate(referenceInput())
	require.NoError(t, err)
	require.Len(t, result.Levels, 4)

	// At the reference premium no scaling occurs and the table counts pass
	// through unchanged.
	expected := map[int]int{2: 1, 3: 5, 4: 17, 5: 53}
	for _, row := range result.Levels {
		assert.Equal(t, expected[row.Level], row.Contracts, "level %d", row.Level)
		assert.Equal(t, expected[row.Level], row.BaseContracts, "level %d", row.Level)
		assert.False(t, row.InsufficientBP, "level %d", row.Level)
		assert.Equal(t, 325.0, row.MaxLossPerContract)
	}

	// No custom premiums, so the full capital is usable
	assert.Equal(t, 26350.0, result.UsableCapital)
}

func TestCalculateBookkeepingPerLevel(t *testing.T) {
	engine := testEngine(t)

	result, err := engine.Calculate(referenceInput())
	require.NoError(t, err)

	remaining := result.UsableCapital
	for _, row := range result.Levels {
		expectedLoss := float64(row.Contracts)*row.MaxLossPerContract + row.Fees
		assert.InDelta(t, expectedLoss, row.PotentialLoss, 1e-9, "level %d", row.Level)
		assert.InDelta(t, remaining-expectedLoss, row.RemainingCapital, 1e-9, "level %d", row.Level)
		remaining = row.RemainingCapital
	}
}

func TestCalculateStackedMergesLevelTwo(t *testing.T) {
	engine := testEngine(t)

	in := referenceInput()
	in.Matrix = domain.MatrixStacked
	result, err := engine.Calculate(in)
	require.NoError(t, err)

	byLevel := map[int]LevelResult{}
	for _, row := range result.Levels {
		byLevel[row.Level] = row
	}
	assert.Equal(t, 0, byLevel[2].Contracts)
	assert.Equal(t, 6, byLevel[3].Contracts) // 1 + 5
	assert.Equal(t, 17, byLevel[4].Contracts)
}

func TestCalculateShiftedRenumbersDown(t *testing.T) {
	engine := testEngine(t)

	in := referenceInput()
	in.Matrix = domain.MatrixShifted
	result, err := engine.Calculate(in)
	require.NoError(t, err)

	byLevel := map[int]LevelResult{}
	for _, row := range result.Levels {
		byLevel[row.Level] = row
	}
	assert.Equal(t, 5, byLevel[2].Contracts)
	assert.Equal(t, 17, byLevel[3].Contracts)
	assert.Equal(t, 53, byLevel[4].Contracts)
	assert.Equal(t, 0, byLevel[5].Contracts)
}

func TestCalculateCustomPremiumReservesBuffer(t *testing.T) {
	engine := testEngine(t)

	in := referenceInput()
	premium := 2.10
	in.Overrides = map[int]LevelOverride{
		3: {Premium: &premium},
	}

	result, err := engine.Calculate(in)
	require.NoError(t, err)

	assert.InDelta(t, 26350*0.98, result.UsableCapital, 1e-9)

	// Level 3 scales its base count off the reference premium twice:
	// once by premium ratio, once by max-loss ratio.
	var level3 LevelResult
	for _, row := range result.Levels {
		if row.Level == 3 {
			level3 = row
		}
	}
	scaled := int(math.Round(5 * 1.75 / 2.10))
	scaled = int(math.Round(float64(scaled) * (500 - 210) / (500 - 175)))
	assert.Equal(t, scaled, level3.AdjustedContracts)
}

func TestCalculateCustomQuantitySkipsScaling(t *testing.T) {
	engine := testEngine(t)

	in := referenceInput()
	qty := 9
	in.Overrides = map[int]LevelOverride{
		4: {CustomQuantity: &qty},
	}

	result, err := engine.Calculate(in)
	require.NoError(t, err)

	for _, row := range result.Levels {
		if row.Level == 4 {
			assert.Equal(t, 9, row.BaseContracts)
			assert.Equal(t, 9, row.Contracts)
		}
	}
}

func TestCalculateClosedEarlyProfitReturnsToBuyingPower(t *testing.T) {
	engine := testEngine(t)

	in := referenceInput()
	in.Overrides = map[int]LevelOverride{
		2: {ClosedEarly: true, ClosingPremium: 0.25},
	}

	result, err := engine.Calculate(in)
	require.NoError(t, err)

	level2 := result.Levels[0]
	require.NotNil(t, level2.ActualPnL)

	// 1 contract: (1.75-0.25)*100 minus opening and closing commission
	expected := 150.0 - 6.56 - 6.56
	assert.InDelta(t, expected, *level2.ActualPnL, 1e-9)

	// A realized win adds back to remaining capital and accrues no loss
	assert.InDelta(t, result.UsableCapital+expected, level2.RemainingCapital, 1e-9)
	assert.Equal(t, 0.0, level2.CumulativeMaxLoss)
}

func TestCalculateClosedEarlyLossAccrues(t *testing.T) {
	engine := testEngine(t)

	in := referenceInput()
	in.Overrides = map[int]LevelOverride{
		2: {ClosedEarly: true, ClosingPremium: 3.00},
	}

	result, err := engine.Calculate(in)
	require.NoError(t, err)

	level2 := result.Levels[0]
	require.NotNil(t, level2.ActualPnL)
	expected := (1.75-3.00)*100 - 6.56 - 6.56
	assert.InDelta(t, expected, *level2.ActualPnL, 1e-9)
	assert.InDelta(t, -expected, level2.CumulativeMaxLoss, 1e-9)
	assert.InDelta(t, result.UsableCapital+expected, level2.RemainingCapital, 1e-9)
}

func TestCalculateInsufficientBuyingPower(t *testing.T) {
	engine := testEngine(t)

	in := referenceInput()
	in.Capital = 2000 // Not enough for the later levels
	result, err := engine.Calculate(in)
	require.NoError(t, err)

	last := result.Levels[len(result.Levels)-1]
	assert.True(t, last.InsufficientBP)
	assert.Less(t, last.Contracts, last.AdjustedContracts)
	assert.GreaterOrEqual(t, last.Contracts, 0)
}

func TestCalculateRejectsBadInputs(t *testing.T) {
	engine := testEngine(t)

	bad := referenceInput()
	bad.DefaultPremium = 0
	_, err := engine.Calculate(bad)
	assert.Error(t, err)

	bad = referenceInput()
	bad.SpreadWidth = 0
	_, err = engine.Calculate(bad)
	assert.Error(t, err)

	bad = referenceInput()
	bad.Tier = "$999,999"
	_, err = engine.Calculate(bad)
	assert.Error(t, err)
}

func TestCalculateBookkeepingProperty(t *testing.T) {
	engine := testEngine(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("capital bookkeeping holds for any premium and fee", prop.ForAll(
		func(premium float64, fee float64, capital float64) bool {
			in := Input{
				Tier:           "$26,350",
				Capital:        capital,
				Matrix:         domain.MatrixStandard,
				DefaultPremium: premium,
				FeePerContract: fee,
				SpreadWidth:    5,
			}

			result, err := engine.Calculate(in)
			if err != nil {
				return false
			}

			remaining := result.UsableCapital
			for _, row := range result.Levels {
				affordable := int(math.Floor(remaining / (row.MaxLossPerContract + fee)))
				if row.Contracts > affordable {
					return false
				}
				if math.Abs(row.RemainingCapital-(remaining-row.PotentialLoss)) > 1e-6 {
					return false
				}
				remaining = row.RemainingCapital
			}
			return true
		},
		gen.Float64Range(0.5, 4.5),
		gen.Float64Range(0, 10),
		gen.Float64Range(5000, 100000),
	))

	properties.TestingRun(t)
}
