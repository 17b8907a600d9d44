// Package matrix implements the position-sizing engine for tiered iron
// condor programs. Given a capital tier, a topology and per-level overrides
// it produces contract counts and risk bookkeeping, level by level.
package matrix

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"condorledger/internal/domain"
)

// customPremiumBuffer is held back from total capital whenever any level
// trades at a premium other than the default.
const customPremiumBuffer = 0.02

// Engine computes sizing matrices against the reference tables
type Engine struct {
	tables *Tables
	log    zerolog.Logger
}

// NewEngine creates a new sizing engine
func NewEngine(tables *Tables, log zerolog.Logger) *Engine {
	return &Engine{
		tables: tables,
		log:    log.With().Str("component", "matrix_engine").Logger(),
	}
}

// Tables exposes the reference tables backing this engine
func (e *Engine) Tables() *Tables {
	return e.tables
}

// Calculate runs one sizing pass and returns level results in ascending
// level order. The input is not mutated; results are ephemeral.
func (e *Engine) Calculate(in Input) (*Result, error) {
	if in.DefaultPremium <= 0 {
		return nil, fmt.Errorf("default premium must be positive, got %v", in.DefaultPremium)
	}
	if in.SpreadWidth <= 0 {
		return nil, fmt.Errorf("spread width must be positive, got %v", in.SpreadWidth)
	}
	if in.FeePerContract < 0 {
		return nil, fmt.Errorf("fee per contract must not be negative, got %v", in.FeePerContract)
	}

	capital := in.Capital
	if capital == 0 && in.Tier != "" {
		parsed, err := domain.ParseMoney(in.Tier)
		if err != nil {
			return nil, err
		}
		capital = parsed
	}
	if capital <= 0 {
		return nil, fmt.Errorf("capital must be positive, got %v", capital)
	}

	schedule, err := e.tables.Schedule(in.Tier, in.Matrix)
	if err != nil {
		return nil, err
	}

	// Custom-quantity overrides may introduce levels the table doesn't carry
	for level := range in.Overrides {
		if _, ok := schedule[level]; !ok {
			schedule[level] = 0
		}
	}
	levels := Levels(schedule)
	if len(levels) == 0 {
		return nil, fmt.Errorf("no levels to size for tier %q", in.Tier)
	}

	customPremiums := false
	for _, ov := range in.Overrides {
		if ov.Premium != nil && *ov.Premium != in.DefaultPremium {
			customPremiums = true
			break
		}
	}

	// Reserve a buffer when custom premiums are in play; scaling by premium
	// ratios can otherwise size the final level right up to the edge.
	usable := capital
	if customPremiums {
		usable = capital * (1 - customPremiumBuffer)
	}

	refMaxLoss := in.SpreadWidth*100 - ReferencePremium*100

	result := &Result{
		Tier:          in.Tier,
		Capital:       capital,
		UsableCapital: usable,
		Matrix:        string(in.Matrix),
		Levels:        make([]LevelResult, 0, len(levels)),
	}

	remaining := usable
	cumulativeLoss := 0.0

	for i, level := range levels {
		override := in.Overrides[level]
		lastLevel := i == len(levels)-1

		premium := in.DefaultPremium
		if override.Premium != nil {
			premium = *override.Premium
		}
		if premium <= 0 {
			return nil, fmt.Errorf("level %d premium must be positive, got %v", level, premium)
		}
		maxLoss := in.SpreadWidth*100 - premium*100

		// Base count from custom quantity or reference table; without a
		// custom quantity the base is scaled to compensate for premium size,
		// rounding to nearest after each step.
		base := schedule[level]
		adjusted := base
		if override.CustomQuantity != nil {
			base = *override.CustomQuantity
			adjusted = base
		} else if premium != ReferencePremium {
			adjusted = int(math.Round(float64(base) * ReferencePremium / premium))
			adjusted = int(math.Round(float64(adjusted) * maxLoss / refMaxLoss))
		}

		affordable := int(math.Floor(remaining / (maxLoss + in.FeePerContract)))
		if affordable < 0 {
			affordable = 0
		}

		insufficient := adjusted > affordable
		contracts := adjusted
		if contracts > affordable {
			contracts = affordable
		}

		// On the final level under custom premiums the whole ladder must
		// stay profitable: a win here has to cover every prior level's
		// worst case. Unprofitable per-contract premiums cannot be forced.
		if lastLevel && customPremiums {
			perContract := premium*100 - in.FeePerContract
			if perContract > 0 {
				needed := int(math.Ceil((cumulativeLoss + 1) / perContract))
				if needed > contracts {
					contracts = needed
					if contracts > affordable {
						contracts = affordable
					}
				}
			}
		}

		gross := float64(contracts) * premium * 100
		fees := float64(contracts) * in.FeePerContract
		net := gross - fees
		potentialLoss := float64(contracts)*maxLoss + fees

		row := LevelResult{
			Level:              level,
			Label:              domain.LevelLabel(level),
			Premium:            premium,
			MaxLossPerContract: maxLoss,
			BaseContracts:      base,
			AdjustedContracts:  adjusted,
			Contracts:          contracts,
			InsufficientBP:     insufficient,
			GrossProfit:        gross,
			Fees:               fees,
			NetProfit:          net,
			ClosedEarly:        override.ClosedEarly,
			PotentialLoss:      potentialLoss,
		}

		exitBase := net
		if override.ClosedEarly {
			// Closing costs the same commission again
			closingFees := float64(contracts) * in.FeePerContract
			actual := (premium-override.ClosingPremium)*float64(contracts)*100 - fees - closingFees
			row.ActualPnL = &actual
			exitBase = actual
		}

		// Net result if this level wins after absorbing all prior
		// worst-case losses
		row.LevelExitProfit = exitBase - cumulativeLoss

		if override.ClosedEarly {
			actual := *row.ActualPnL
			if actual >= 0 {
				// Realized profit returns to buying power; no loss accrues
				remaining += actual
			} else {
				cumulativeLoss += -actual
				remaining -= -actual
			}
		} else {
			remaining -= potentialLoss
			cumulativeLoss += potentialLoss
		}

		row.CumulativeMaxLoss = cumulativeLoss
		row.RemainingCapital = remaining
		result.Levels = append(result.Levels, row)
	}

	e.log.Debug().
		Str("tier", in.Tier).
		Str("matrix", string(in.Matrix)).
		Int("levels", len(result.Levels)).
		Float64("remaining_capital", remaining).
		Msg("Sizing pass complete")

	return result, nil
}
