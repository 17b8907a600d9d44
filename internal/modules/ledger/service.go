package ledger

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"condorledger/internal/domain"
	"condorledger/internal/modules/pnl"
	"condorledger/internal/modules/series"
)

// Service orchestrates trade persistence, close-time P&L computation and
// series grouping. It is the single authoritative implementation of the
// ledger statistics.
type Service struct {
	repo    *Repository
	grouper *series.Grouper
	log     zerolog.Logger
}

// NewService creates a new ledger service
func NewService(repo *Repository, grouper *series.Grouper, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		grouper: grouper,
		log:     log.With().Str("service", "ledger").Logger(),
	}
}

// ListForUser returns a user's trades with series assignments refreshed.
// Changed assignments are persisted so identifiers survive restarts.
func (s *Service) ListForUser(userEmail string) ([]*domain.Trade, error) {
	trades, err := s.repo.ListByUser(userEmail)
	if err != nil {
		return nil, err
	}

	changed := s.grouper.Assign(trades)
	if len(changed) > 0 {
		if err := s.repo.UpdateSeriesIDs(changed); err != nil {
			// Grouping is a display aggregation; stale ids are tolerable
			s.log.Warn().Err(err).Msg("Failed to persist series assignments")
		}
	}

	return trades, nil
}

// Create validates, prices and persists a new trade
func (s *Service) Create(trade *domain.Trade) (*domain.Trade, error) {
	trade.ID = ""
	if trade.Status == "" {
		trade.Status = domain.TradeStatusOpen
	}
	if trade.TradeType == "" {
		trade.TradeType = domain.TradeTypeIronCondor
	}
	if trade.EntryDate.IsZero() {
		trade.EntryDate = trade.TradeDate
	}

	if err := s.applyCloseTerms(trade); err != nil {
		return nil, err
	}
	if err := s.repo.Create(trade); err != nil {
		return nil, err
	}

	return trade, nil
}

// Update replaces an existing trade owned by the given user.
// Re-editing a closed trade is permitted, including reverting exit terms,
// which reopens the position and discards the cached result.
func (s *Service) Update(id, userEmail string, trade *domain.Trade) (*domain.Trade, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("trade %s not found", id)
	}
	if existing.UserEmail != trade.UserEmail || trade.UserEmail != userEmail {
		return nil, fmt.Errorf("trade %s does not belong to %s", id, userEmail)
	}

	trade.ID = id
	if err := s.applyCloseTerms(trade); err != nil {
		return nil, err
	}
	if err := s.repo.Update(trade); err != nil {
		return nil, err
	}

	return trade, nil
}

// Delete removes a trade owned by the given user
func (s *Service) Delete(id, userEmail string) (bool, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	if existing.UserEmail != userEmail {
		return false, fmt.Errorf("trade %s does not belong to %s", id, userEmail)
	}

	return s.repo.Delete(id)
}

// applyCloseTerms derives the cached realized result from a trade's exit
// terms. SPX settlement takes precedence over an exit premium when both are
// present. Open trades carry no cached result.
func (s *Service) applyCloseTerms(t *domain.Trade) error {
	if t.Status != domain.TradeStatusClosed {
		t.PnL = nil
		t.IsMaxProfit = false
		t.ExitDate = nil
		return nil
	}

	width := t.Strikes.PutWidth()

	switch {
	case t.SPXClosePrice != nil:
		result, err := pnl.Calculate(pnl.CloseInput{
			SellPut:         t.Strikes.SellPut,
			SellCall:        t.Strikes.SellCall,
			EntryPremium:    t.EntryPremium,
			Contracts:       t.ContractQuantity,
			FeePerContract:  t.Fees,
			SpreadWidth:     width,
			Optimization:    pnl.OptimizationNone,
			SettlementPrice: t.SPXClosePrice,
		})
		if err != nil {
			return fmt.Errorf("failed to compute settlement result: %w", err)
		}
		net := pnl.Round2(result.NetPnL)
		t.PnL = &net
		t.IsMaxProfit = result.IsMaxProfit

	case t.ExitPremium != nil:
		_, net := pnl.ExitPnL(t.EntryPremium, *t.ExitPremium, t.ContractQuantity, t.Fees)
		rounded := pnl.Round2(net)
		t.PnL = &rounded
		t.IsMaxProfit = false

	default:
		return fmt.Errorf("a closed trade needs an exit premium or a settlement price")
	}

	if t.ExitDate == nil {
		now := time.Now().UTC()
		t.ExitDate = &now
	}

	return nil
}

// Stats aggregates a user's ledger for display
type Stats struct {
	TotalTrades  int     `json:"totalTrades"`
	OpenTrades   int     `json:"openTrades"`
	ClosedTrades int     `json:"closedTrades"`
	RealizedPnL  float64 `json:"realizedPnl"`
	WinCount     int     `json:"winCount"`
	LossCount    int     `json:"lossCount"`
	WinRate      float64 `json:"winRate"` // Wins over closed trades
	MeanTradePnL float64 `json:"meanTradePnl"`
	OpenRisk     float64 `json:"openRisk"` // Worst case across open positions

	Series []series.Rollup `json:"series"`
}

// StatsForUser computes ledger rollups over a user's trades
func (s *Service) StatsForUser(userEmail string) (*Stats, error) {
	trades, err := s.ListForUser(userEmail)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalTrades: len(trades)}
	var realized []float64

	for _, t := range trades {
		switch t.Status {
		case domain.TradeStatusOpen:
			stats.OpenTrades++
			maxLoss := t.Strikes.PutWidth()*100 - t.EntryPremium*100
			stats.OpenRisk += float64(t.ContractQuantity)*maxLoss + float64(t.ContractQuantity)*t.Fees
		case domain.TradeStatusClosed:
			stats.ClosedTrades++
			if t.PnL != nil {
				realized = append(realized, *t.PnL)
				stats.RealizedPnL += *t.PnL
				if *t.PnL >= 0 {
					stats.WinCount++
				} else {
					stats.LossCount++
				}
			}
		}
	}

	if stats.ClosedTrades > 0 {
		stats.WinRate = float64(stats.WinCount) / float64(stats.ClosedTrades)
	}
	if len(realized) > 0 {
		stats.MeanTradePnL = pnl.Round2(stat.Mean(realized, nil))
	}
	stats.RealizedPnL = pnl.Round2(stats.RealizedPnL)
	stats.Series = series.Rollups(trades)

	return stats, nil
}
