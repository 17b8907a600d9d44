// Package ledger owns persistence and orchestration for logged trades.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"condorledger/internal/database"
	"condorledger/internal/domain"
)

// tradesColumns is the list of columns for the trades table.
// Used to avoid SELECT * which can break when schema changes.
// Column order must match the scan functions below.
const tradesColumns = `id, user_id, user_email, trade_type, level, matrix, buying_power,
	sell_put, buy_put, sell_call, buy_call,
	contract_quantity, entry_premium, fees, status,
	trade_date, entry_date, exit_date, exit_premium, spx_close_price,
	pnl, is_max_profit, series_id, notes`

// Repository handles trade database operations
type Repository struct {
	db  *sql.DB // ledger.db - trades table
	log zerolog.Logger
}

// NewRepository creates a new trade repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// Create inserts a new trade record, assigning an id when absent.
// The created trade is returned with its server-assigned id.
func (r *Repository) Create(trade *domain.Trade) error {
	if err := trade.Validate(); err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	now := time.Now().Unix()

	query := `
		INSERT INTO trades
		(id, user_id, user_email, trade_type, level, matrix, buying_power,
		 sell_put, buy_put, sell_call, buy_call,
		 contract_quantity, entry_premium, fees, status,
		 trade_date, entry_date, exit_date, exit_premium, spx_close_price,
		 pnl, is_max_profit, series_id, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		trade.ID,
		nullString(trade.UserID),
		strings.ToLower(strings.TrimSpace(trade.UserEmail)),
		string(trade.TradeType),
		trade.Level,
		string(trade.Matrix),
		nullString(trade.BuyingPower),
		trade.Strikes.SellPut,
		trade.Strikes.BuyPut,
		trade.Strikes.SellCall,
		trade.Strikes.BuyCall,
		trade.ContractQuantity,
		trade.EntryPremium,
		trade.Fees,
		string(trade.Status),
		trade.TradeDate.Unix(),
		trade.EntryDate.Unix(),
		nullTimePtr(trade.ExitDate),
		nullFloat64Ptr(trade.ExitPremium),
		nullFloat64Ptr(trade.SPXClosePrice),
		nullFloat64Ptr(trade.PnL),
		boolToInt(trade.IsMaxProfit),
		nullString(trade.SeriesID),
		nullString(trade.Notes),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	r.log.Info().
		Str("id", trade.ID).
		Str("user", trade.UserEmail).
		Str("level", trade.Level).
		Msg("Trade created")

	return nil
}

// GetByID retrieves a trade by id. Returns nil when not found.
func (r *Repository) GetByID(id string) (*domain.Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE id = ?"

	trade, err := scanTrade(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade by id: %w", err)
	}

	return trade, nil
}

// ListByUser retrieves all trades for a user, oldest trade date first
func (r *Repository) ListByUser(userEmail string) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradesColumns + ` FROM trades
		WHERE user_email = ?
		ORDER BY trade_date ASC, level ASC
	`

	rows, err := r.db.Query(query, strings.ToLower(strings.TrimSpace(userEmail)))
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		trade, err := scanTradeFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// Update replaces a trade record's mutable fields
func (r *Repository) Update(trade *domain.Trade) error {
	if err := trade.Validate(); err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}

	query := `
		UPDATE trades SET
			user_id = ?, trade_type = ?, level = ?, matrix = ?, buying_power = ?,
			sell_put = ?, buy_put = ?, sell_call = ?, buy_call = ?,
			contract_quantity = ?, entry_premium = ?, fees = ?, status = ?,
			trade_date = ?, entry_date = ?, exit_date = ?, exit_premium = ?,
			spx_close_price = ?, pnl = ?, is_max_profit = ?, series_id = ?,
			notes = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		nullString(trade.UserID),
		string(trade.TradeType),
		trade.Level,
		string(trade.Matrix),
		nullString(trade.BuyingPower),
		trade.Strikes.SellPut,
		trade.Strikes.BuyPut,
		trade.Strikes.SellCall,
		trade.Strikes.BuyCall,
		trade.ContractQuantity,
		trade.EntryPremium,
		trade.Fees,
		string(trade.Status),
		trade.TradeDate.Unix(),
		trade.EntryDate.Unix(),
		nullTimePtr(trade.ExitDate),
		nullFloat64Ptr(trade.ExitPremium),
		nullFloat64Ptr(trade.SPXClosePrice),
		nullFloat64Ptr(trade.PnL),
		boolToInt(trade.IsMaxProfit),
		nullString(trade.SeriesID),
		nullString(trade.Notes),
		time.Now().Unix(),
		trade.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("trade %s not found", trade.ID)
	}

	return nil
}

// Delete removes a trade. Returns whether a row was removed.
func (r *Repository) Delete(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM trades WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete trade: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// UpdateSeriesIDs persists series assignments for the given trades in a
// single transaction. Used after a grouping pass re-links escalations.
func (r *Repository) UpdateSeriesIDs(trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		now := time.Now().Unix()
		for _, t := range trades {
			if _, err := tx.Exec(
				"UPDATE trades SET series_id = ?, updated_at = ? WHERE id = ?",
				nullString(t.SeriesID), now, t.ID,
			); err != nil {
				return fmt.Errorf("failed to update series for trade %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Debug().Int("trades", len(trades)).Msg("Series assignments persisted")
	return nil
}

// scanner abstracts sql.Row and sql.Rows for the scan helpers
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row scanner) (*domain.Trade, error) {
	var t domain.Trade
	var userID, buyingPower, seriesID, notes sql.NullString
	var tradeDate, entryDate int64
	var exitDate sql.NullInt64
	var exitPremium, spxClose, pnl sql.NullFloat64
	var isMaxProfit int
	var tradeType, matrix, status string

	err := row.Scan(
		&t.ID, &userID, &t.UserEmail, &tradeType, &t.Level, &matrix, &buyingPower,
		&t.Strikes.SellPut, &t.Strikes.BuyPut, &t.Strikes.SellCall, &t.Strikes.BuyCall,
		&t.ContractQuantity, &t.EntryPremium, &t.Fees, &status,
		&tradeDate, &entryDate, &exitDate, &exitPremium, &spxClose,
		&pnl, &isMaxProfit, &seriesID, &notes,
	)
	if err != nil {
		return nil, err
	}

	t.UserID = userID.String
	t.TradeType = domain.TradeType(tradeType)
	t.Matrix = domain.MatrixName(matrix)
	t.BuyingPower = buyingPower.String
	t.Status = domain.TradeStatus(status)
	t.TradeDate = time.Unix(tradeDate, 0).UTC()
	t.EntryDate = time.Unix(entryDate, 0).UTC()
	if exitDate.Valid {
		exit := time.Unix(exitDate.Int64, 0).UTC()
		t.ExitDate = &exit
	}
	if exitPremium.Valid {
		t.ExitPremium = &exitPremium.Float64
	}
	if spxClose.Valid {
		t.SPXClosePrice = &spxClose.Float64
	}
	if pnl.Valid {
		t.PnL = &pnl.Float64
	}
	t.IsMaxProfit = isMaxProfit != 0
	t.SeriesID = seriesID.String
	t.Notes = notes.String

	return &t, nil
}

func scanTradeFromRows(rows *sql.Rows) (*domain.Trade, error) {
	return scanTrade(rows)
}

// Null helpers for optional columns

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat64Ptr(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
