// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TradeType represents the options strategy of a trade
type TradeType string

const (
	// TradeTypeIronCondor is the only strategy the program trades
	TradeTypeIronCondor TradeType = "IRON_CONDOR"
)

// TradeStatus represents the lifecycle state of a trade
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

// MatrixName selects a reference table topology
type MatrixName string

const (
	MatrixStandard MatrixName = "standard"
	MatrixStacked  MatrixName = "stacked"
	MatrixShifted  MatrixName = "shifted"
)

// Strikes holds the four legs of an iron condor
type Strikes struct {
	SellPut  float64 `json:"sellPut"`
	BuyPut   float64 `json:"buyPut"`
	SellCall float64 `json:"sellCall"`
	BuyCall  float64 `json:"buyCall"`
}

// PutWidth returns the put-side spread width in index points
func (s Strikes) PutWidth() float64 {
	return s.SellPut - s.BuyPut
}

// CallWidth returns the call-side spread width in index points
func (s Strikes) CallWidth() float64 {
	return s.BuyCall - s.SellCall
}

// Validate checks the strike ordering invariant and equal spread widths
func (s Strikes) Validate() error {
	if !(s.BuyPut < s.SellPut && s.SellPut < s.SellCall && s.SellCall < s.BuyCall) {
		return fmt.Errorf("strikes must satisfy buyPut < sellPut < sellCall < buyCall, got %v < %v < %v < %v",
			s.BuyPut, s.SellPut, s.SellCall, s.BuyCall)
	}
	if s.PutWidth() != s.CallWidth() {
		return fmt.Errorf("spread widths must match: put width %v, call width %v", s.PutWidth(), s.CallWidth())
	}
	return nil
}

// Trade represents a single logged iron condor position
type Trade struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`

	TradeType   TradeType  `json:"tradeType"`
	Level       string     `json:"level"`       // "Level N", N >= 1
	Matrix      MatrixName `json:"matrix"`      // standard | stacked | shifted
	BuyingPower string     `json:"buyingPower"` // Capital-tier label, e.g. "$26,350"

	Strikes          Strikes `json:"strikes"`
	ContractQuantity int     `json:"contractQuantity"`
	EntryPremium     float64 `json:"entryPremium"` // Credit received per contract
	Fees             float64 `json:"fees"`         // Commission per contract

	Status        TradeStatus `json:"status"`
	TradeDate     time.Time   `json:"tradeDate"`
	EntryDate     time.Time   `json:"entryDate"`
	ExitDate      *time.Time  `json:"exitDate,omitempty"`
	ExitPremium   *float64    `json:"exitPremium,omitempty"`   // Debit paid to close
	SPXClosePrice *float64    `json:"spxClosePrice,omitempty"` // Settlement value; takes precedence over exitPremium
	PnL           *float64    `json:"pnl,omitempty"`           // Cached at close time, derived
	IsMaxProfit   bool        `json:"isMaxProfit"`

	SeriesID string `json:"seriesId,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Validate checks the invariants a trade record must satisfy before persistence
func (t *Trade) Validate() error {
	if t.UserEmail == "" {
		return fmt.Errorf("user email is required")
	}
	if t.TradeType != TradeTypeIronCondor {
		return fmt.Errorf("unsupported trade type: %s", t.TradeType)
	}
	if _, err := ParseLevel(t.Level); err != nil {
		return err
	}
	switch t.Matrix {
	case MatrixStandard, MatrixStacked, MatrixShifted:
	default:
		return fmt.Errorf("unknown matrix: %s", t.Matrix)
	}
	if err := t.Strikes.Validate(); err != nil {
		return err
	}
	if t.ContractQuantity < 1 {
		return fmt.Errorf("contract quantity must be at least 1, got %d", t.ContractQuantity)
	}
	if t.EntryPremium <= 0 {
		return fmt.Errorf("entry premium must be positive, got %v", t.EntryPremium)
	}
	if t.Fees < 0 {
		return fmt.Errorf("fees must not be negative, got %v", t.Fees)
	}
	switch t.Status {
	case TradeStatusOpen, TradeStatusClosed:
	default:
		return fmt.Errorf("unknown status: %s", t.Status)
	}
	if t.TradeDate.IsZero() {
		return fmt.Errorf("trade date is required")
	}
	return nil
}

// LevelNumber returns the numeric tier of the trade's level label
func (t *Trade) LevelNumber() int {
	n, err := ParseLevel(t.Level)
	if err != nil {
		return 0
	}
	return n
}

// TradeDay returns the trade date normalized to midnight UTC.
// Series grouping compares calendar days, not instants.
func (t *Trade) TradeDay() time.Time {
	d := t.TradeDate.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseLevel extracts the numeric tier from a "Level N" label
func ParseLevel(label string) (int, error) {
	trimmed := strings.TrimSpace(label)
	rest, ok := strings.CutPrefix(trimmed, "Level ")
	if !ok {
		return 0, fmt.Errorf("invalid level label: %q", label)
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid level label: %q", label)
	}
	return n, nil
}

// LevelLabel formats a numeric tier as a "Level N" label
func LevelLabel(n int) string {
	return fmt.Sprintf("Level %d", n)
}

// ParseMoney parses a capital-tier label such as "$26,350" into a number.
// Plain numeric strings are accepted as well.
func ParseMoney(label string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(label)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount: %q", label)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", label, err)
	}
	return v, nil
}

// ParseOptionalNumber mediates between free-text numeric entry and blank state.
// Empty or whitespace input is a valid blank, anything else must parse.
func ParseOptionalNumber(input string) (*float64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", input, err)
	}
	return &v, nil
}
