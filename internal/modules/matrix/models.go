package matrix

import "condorledger/internal/domain"

// ReferencePremium is the credit the reference tables were built around.
// Contract counts for other premiums are scaled off this value.
const ReferencePremium = 1.75

// Input describes one sizing calculation pass
type Input struct {
	// Tier is the capital-tier label, e.g. "$26,350". Used for table lookup
	// and parsed into the capital amount when Capital is zero.
	Tier    string
	Capital float64

	Matrix         domain.MatrixName
	DefaultPremium float64
	FeePerContract float64
	SpreadWidth    float64

	// Per-level adjustments, keyed by numeric level
	Overrides map[int]LevelOverride
}

// LevelOverride carries the optional per-level adjustments
type LevelOverride struct {
	Premium        *float64 `json:"premium,omitempty"`
	CustomQuantity *int     `json:"customQuantity,omitempty"`
	ClosedEarly    bool     `json:"closedEarly"`
	ClosingPremium float64  `json:"closingPremium"`
}

// LevelResult is one row of the sizing matrix, recomputed on every pass
type LevelResult struct {
	Level int    `json:"level"`
	Label string `json:"label"`

	Premium            float64 `json:"premium"`
	MaxLossPerContract float64 `json:"maxLossPerContract"`

	BaseContracts     int  `json:"baseContracts"`     // Reference table or custom quantity
	AdjustedContracts int  `json:"adjustedContracts"` // After premium-ratio scaling
	Contracts         int  `json:"contracts"`         // Final, capped by affordable buying power
	InsufficientBP    bool `json:"insufficientBP"`

	GrossProfit float64 `json:"grossProfit"`
	Fees        float64 `json:"fees"`
	NetProfit   float64 `json:"netProfit"`

	ClosedEarly bool     `json:"closedEarly"`
	ActualPnL   *float64 `json:"actualPnl,omitempty"` // Realized result when closed early

	// LevelExitProfit is what this level nets after absorbing all prior
	// levels' worst-case losses.
	LevelExitProfit   float64 `json:"levelExitProfit"`
	PotentialLoss     float64 `json:"potentialLoss"`
	CumulativeMaxLoss float64 `json:"cumulativeMaxLoss"`
	RemainingCapital  float64 `json:"remainingCapital"`
}

// Result is the full output of a calculation pass, levels in ascending order
type Result struct {
	Tier          string        `json:"tier"`
	Capital       float64       `json:"capital"`
	UsableCapital float64       `json:"usableCapital"`
	Matrix        string        `json:"matrix"`
	Levels        []LevelResult `json:"levels"`
}
