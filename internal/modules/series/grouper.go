// Package series reconstructs escalation series from logged trades. Two
// trades chain when the later one is exactly one calendar day after the
// earlier one and exactly one level higher.
package series

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"condorledger/internal/domain"
)

// Grouper assigns shared series identifiers to chains of escalating trades
type Grouper struct {
	newID func() string
}

// NewGrouper creates a grouper minting random identifiers
func NewGrouper() *Grouper {
	return &Grouper{newID: uuid.NewString}
}

// Assign walks the trades in (day, level) order and links escalations.
// Trades are mutated in place; the returned slice holds the trades whose
// series id changed and need to be persisted.
//
// This is a greedy single forward pass over the sorted sequence: each trade
// is only compared to its immediate predecessor. Series are a display
// aggregation, so a full graph reconciliation is not warranted; re-running
// on a consistently tagged ledger changes nothing.
func (g *Grouper) Assign(trades []*domain.Trade) []*domain.Trade {
	if len(trades) == 0 {
		return nil
	}

	sorted := make([]*domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := sorted[i].TradeDay(), sorted[j].TradeDay()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return sorted[i].LevelNumber() < sorted[j].LevelNumber()
	})

	var changed []*domain.Trade
	assign := func(t *domain.Trade, id string) {
		if t.SeriesID != id {
			t.SeriesID = id
			changed = append(changed, t)
		}
	}

	if sorted[0].SeriesID == "" {
		assign(sorted[0], g.newID())
	}

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]

		if isEscalation(prev, cur) {
			if prev.SeriesID != "" {
				assign(cur, prev.SeriesID)
			} else {
				id := g.newID()
				assign(prev, id)
				assign(cur, id)
			}
			continue
		}

		if cur.SeriesID == "" {
			assign(cur, g.newID())
		}
	}

	return changed
}

// isEscalation reports whether cur escalates prev: one calendar day later
// (UTC) and exactly one level higher.
func isEscalation(prev, cur *domain.Trade) bool {
	if cur.LevelNumber() != prev.LevelNumber()+1 {
		return false
	}
	return cur.TradeDay().Equal(prev.TradeDay().Add(24 * time.Hour))
}

// Rollup aggregates one series for display
type Rollup struct {
	SeriesID    string   `json:"seriesId"`
	TradeCount  int      `json:"tradeCount"`
	OpenCount   int      `json:"openCount"`
	RealizedPnL float64  `json:"realizedPnl"`
	FirstDay    string   `json:"firstDay"`
	LastDay     string   `json:"lastDay"`
	Levels      []string `json:"levels"`
}

// Rollups computes per-series aggregates over the given trades.
// Only cached realized results contribute to RealizedPnL.
func Rollups(trades []*domain.Trade) []Rollup {
	byID := make(map[string]*Rollup)
	order := make([]string, 0)

	for _, t := range trades {
		if t.SeriesID == "" {
			continue
		}
		r, ok := byID[t.SeriesID]
		if !ok {
			r = &Rollup{SeriesID: t.SeriesID}
			byID[t.SeriesID] = r
			order = append(order, t.SeriesID)
		}
		r.TradeCount++
		if t.Status == domain.TradeStatusOpen {
			r.OpenCount++
		}
		if t.PnL != nil {
			r.RealizedPnL += *t.PnL
		}
		day := t.TradeDay().Format("2006-01-02")
		if r.FirstDay == "" || day < r.FirstDay {
			r.FirstDay = day
		}
		if day > r.LastDay {
			r.LastDay = day
		}
		r.Levels = append(r.Levels, t.Level)
	}

	out := make([]Rollup, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstDay < out[j].FirstDay })
	return out
}
