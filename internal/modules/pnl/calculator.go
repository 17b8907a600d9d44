// Package pnl computes realized results for individual iron condor
// positions, either from an early-closure (optimization) premium or from the
// index settlement price at expiration.
package pnl

import (
	"fmt"
	"math"
)

// Optimization identifies which side of the condor was bought back early
type Optimization string

const (
	OptimizationNone     Optimization = "No Optimization"
	OptimizationFullIC   Optimization = "FULL IC"
	OptimizationPutOnly  Optimization = "PUT ONLY"
	OptimizationCallOnly Optimization = "CALL ONLY"
)

// CloseInput describes one position being closed
type CloseInput struct {
	SellPut        float64
	SellCall       float64
	EntryPremium   float64
	Contracts      int
	FeePerContract float64
	SpreadWidth    float64

	// Early-closure path: an optimization other than "No Optimization"
	// with a positive closing premium
	Optimization   Optimization
	ClosingPremium float64

	// Expiration path: settlement value of the index
	SettlementPrice *float64
}

// CloseResult is the realized outcome of a closed position
type CloseResult struct {
	GrossPnL        float64 `json:"grossPnl"`
	OptimizationFee float64 `json:"optimizationFee"` // Per contract
	TotalFees       float64 `json:"totalFees"`
	NetPnL          float64 `json:"netPnl"`
	IsMaxProfit     bool    `json:"isMaxProfit"`
}

// Calculate computes the realized result for one position.
// An optimization with a positive closing premium wins over the settlement
// path; otherwise the settlement price is required.
func Calculate(in CloseInput) (CloseResult, error) {
	if in.Contracts < 1 {
		return CloseResult{}, fmt.Errorf("contracts must be at least 1, got %d", in.Contracts)
	}
	if in.EntryPremium <= 0 {
		return CloseResult{}, fmt.Errorf("entry premium must be positive, got %v", in.EntryPremium)
	}
	if in.SpreadWidth <= 0 {
		return CloseResult{}, fmt.Errorf("spread width must be positive, got %v", in.SpreadWidth)
	}
	if in.FeePerContract < 0 {
		return CloseResult{}, fmt.Errorf("fee per contract must not be negative, got %v", in.FeePerContract)
	}

	contracts := float64(in.Contracts)
	result := CloseResult{}

	if in.Optimization != "" && in.Optimization != OptimizationNone && in.ClosingPremium > 0 {
		// Bought back before expiration
		result.GrossPnL = (in.EntryPremium - in.ClosingPremium) * contracts * 100

		switch in.Optimization {
		case OptimizationFullIC:
			result.OptimizationFee = in.FeePerContract
		case OptimizationPutOnly, OptimizationCallOnly:
			result.OptimizationFee = in.FeePerContract / 2
		default:
			return CloseResult{}, fmt.Errorf("unknown optimization: %q", in.Optimization)
		}
	} else {
		if in.SettlementPrice == nil {
			return CloseResult{}, fmt.Errorf("settlement price is required to close at expiration")
		}
		settlement := *in.SettlementPrice

		lower := in.SellPut - in.SpreadWidth
		upper := in.SellCall + in.SpreadWidth
		if settlement >= lower && settlement <= upper {
			putLoss := clamp(in.SellPut-settlement, 0, in.SpreadWidth)
			callLoss := clamp(settlement-in.SellCall, 0, in.SpreadWidth)
			result.GrossPnL = (in.EntryPremium - (putLoss + callLoss)) * contracts * 100
		} else {
			// Beyond either long strike: full max loss
			result.GrossPnL = (in.EntryPremium - in.SpreadWidth) * contracts * 100
		}

		// Landing on a short strike counts as a full win
		result.IsMaxProfit = settlement >= in.SellPut && settlement <= in.SellCall
	}

	result.TotalFees = (in.FeePerContract + result.OptimizationFee) * contracts
	result.NetPnL = result.GrossPnL - result.TotalFees

	return result, nil
}

// ExitPnL computes the result of closing a position at a plain exit premium,
// outside the optimization flow. Only the opening commission applies.
// Returns gross and net amounts.
func ExitPnL(entryPremium, exitPremium float64, contracts int, feePerContract float64) (gross, net float64) {
	gross = (entryPremium - exitPremium) * float64(contracts) * 100
	net = gross - feePerContract*float64(contracts)
	return gross, net
}

// Round2 rounds a monetary amount to cents
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
