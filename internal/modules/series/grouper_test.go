package series

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condorledger/internal/domain"
)

// deterministicGrouper mints predictable ids so assertions can name them
func deterministicGrouper() *Grouper {
	n := 0
	return &Grouper{newID: func() string {
		n++
		return fmt.Sprintf("series-%d", n)
	}}
}

func tradeOn(day string, level int) *domain.Trade {
	date, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return &domain.Trade{
		ID:        fmt.Sprintf("%s-L%d", day, level),
		UserEmail: "trader@example.com",
		Level:     domain.LevelLabel(level),
		TradeDate: date,
	}
}

func TestAssignConsecutiveEscalationSharesID(t *testing.T) {
	g := deterministicGrouper()

	trades := []*domain.Trade{
		tradeOn("2024-01-01", 2),
		tradeOn("2024-01-02", 3),
	}

	changed := g.Assign(trades)
	assert.Len(t, changed, 2)
	assert.Equal(t, trades[0].SeriesID, trades[1].SeriesID)
	assert.NotEmpty(t, trades[0].SeriesID)
}

func TestAssignTwoDayGapBreaksChain(t *testing.T) {
	g := deterministicGrouper()

	trades := []*domain.Trade{
		tradeOn("2024-01-01", 2),
		tradeOn("2024-01-03", 3),
	}

	g.Assign(trades)
	assert.NotEqual(t, trades[0].SeriesID, trades[1].SeriesID)
	assert.NotEmpty(t, trades[0].SeriesID)
	assert.NotEmpty(t, trades[1].SeriesID)
}

func TestAssignSameDayOrLevelSkipBreaksChain(t *testing.T) {
	g := deterministicGrouper()

	// Next day but two levels up: not an escalation
	trades := []*domain.Trade{
		tradeOn("2024-01-01", 2),
		tradeOn("2024-01-02", 4),
	}
	g.Assign(trades)
	assert.NotEqual(t, trades[0].SeriesID, trades[1].SeriesID)

	// Same day, next level: not an escalation either
	trades = []*domain.Trade{
		tradeOn("2024-02-01", 2),
		tradeOn("2024-02-01", 3),
	}
	g.Assign(trades)
	assert.NotEqual(t, trades[0].SeriesID, trades[1].SeriesID)
}

func TestAssignLongChain(t *testing.T) {
	g := deterministicGrouper()

	trades := []*domain.Trade{
		tradeOn("2024-01-01", 2),
		tradeOn("2024-01-02", 3),
		tradeOn("2024-01-03", 4),
		tradeOn("2024-01-04", 5),
	}

	g.Assign(trades)
	for i := 1; i < len(trades); i++ {
		assert.Equal(t, trades[0].SeriesID, trades[i].SeriesID, "trade %d", i)
	}
}

func TestAssignUnsortedInput(t *testing.T) {
	g := deterministicGrouper()

	// Assignment sorts by (day, level) internally
	trades := []*domain.Trade{
		tradeOn("2024-01-02", 3),
		tradeOn("2024-01-01", 2),
	}

	g.Assign(trades)
	assert.Equal(t, trades[0].SeriesID, trades[1].SeriesID)
}

func TestAssignIdempotent(t *testing.T) {
	g := deterministicGrouper()

	trades := []*domain.Trade{
		tradeOn("2024-01-01", 2),
		tradeOn("2024-01-02", 3),
		tradeOn("2024-01-05", 2),
	}

	first := g.Assign(trades)
	require.NotEmpty(t, first)

	snapshot := make(map[string]string, len(trades))
	for _, tr := range trades {
		snapshot[tr.ID] = tr.SeriesID
	}

	// Second pass on an already-tagged ledger must not churn
	second := g.Assign(trades)
	assert.Empty(t, second)
	for _, tr := range trades {
		assert.Equal(t, snapshot[tr.ID], tr.SeriesID)
	}
}

func TestAssignAdoptsExistingID(t *testing.T) {
	g := deterministicGrouper()

	first := tradeOn("2024-01-01", 2)
	first.SeriesID = "existing-series"
	second := tradeOn("2024-01-02", 3)

	changed := g.Assign([]*domain.Trade{first, second})
	require.Len(t, changed, 1)
	assert.Equal(t, "existing-series", second.SeriesID)
}

func TestAssignEmpty(t *testing.T) {
	g := deterministicGrouper()
	assert.Nil(t, g.Assign(nil))
}

func TestRollups(t *testing.T) {
	a1 := tradeOn("2024-01-01", 2)
	a2 := tradeOn("2024-01-02", 3)
	b := tradeOn("2024-02-01", 2)
	a1.SeriesID, a2.SeriesID = "series-a", "series-a"
	b.SeriesID = "series-b"

	pnl := -325.0
	a1.Status = domain.TradeStatusClosed
	a1.PnL = &pnl
	a2.Status = domain.TradeStatusOpen
	b.Status = domain.TradeStatusOpen

	rollups := Rollups([]*domain.Trade{a1, a2, b})
	require.Len(t, rollups, 2)

	assert.Equal(t, "series-a", rollups[0].SeriesID)
	assert.Equal(t, 2, rollups[0].TradeCount)
	assert.Equal(t, 1, rollups[0].OpenCount)
	assert.Equal(t, -325.0, rollups[0].RealizedPnL)
	assert.Equal(t, "2024-01-01", rollups[0].FirstDay)
	assert.Equal(t, "2024-01-02", rollups[0].LastDay)
	assert.Equal(t, []string{"Level 2", "Level 3"}, rollups[0].Levels)

	assert.Equal(t, "series-b", rollups[1].SeriesID)
	assert.Equal(t, 1, rollups[1].TradeCount)
}

func TestRollupsSkipsUntagged(t *testing.T) {
	tagged := tradeOn("2024-01-01", 2)
	tagged.SeriesID = "series-a"
	untagged := tradeOn("2024-01-02", 3)

	rollups := Rollups([]*domain.Trade{tagged, untagged})
	require.Len(t, rollups, 1)
	assert.Equal(t, "series-a", rollups[0].SeriesID)
}
