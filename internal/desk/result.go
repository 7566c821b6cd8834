package desk

import (
	"fmt"

	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
)

// Outcome classifies a trade attempt for display and ledger recording.
type Outcome string

const (
	OutcomeFilled    Outcome = "FILLED"
	OutcomePartial   Outcome = "PARTIAL"
	OutcomeFailed    Outcome = "FAILED"
	OutcomeUncertain Outcome = "UNCERTAIN"
)

// Report is the normalized outcome of a lock/execute or quote execution
// attempt. A partial fill is a success with a warning, never an error.
type Report struct {
	Outcome      Outcome
	Confirmation string
	Transaction  string
	Filled       []models.LockedPrice
	Busted       []string
	Warning      string
	Err          error
}

// Success reports whether the trade was confirmed for at least some items.
func (r Report) Success() bool {
	return r.Outcome == OutcomeFilled || r.Outcome == OutcomePartial
}

// NewReport builds a report from a confirmed trade result and the prices
// that were locked for it.
func NewReport(locked []models.LockedPrice, result *models.TradeResult) Report {
	report := Report{
		Outcome:      OutcomeFilled,
		Confirmation: result.ConfirmationNumber,
		Transaction:  result.TransactionID,
		Filled:       FilledLines(locked, result.Busted),
		Busted:       result.Busted,
	}
	if result.Partial() {
		report.Outcome = OutcomePartial
		report.Warning = fmt.Sprintf("%d of %d items could not be filled and were removed from the trade", len(result.Busted), len(locked))
	}
	return report
}

// FailureReport builds a report from a failed or uncertain attempt.
func FailureReport(err error) Report {
	outcome := OutcomeFailed
	if errors.Is(err, errors.ErrExecuteUncertain) {
		outcome = OutcomeUncertain
	}
	return Report{
		Outcome: outcome,
		Err:     err,
	}
}

// FilledLines returns the locked prices minus the busted SKUs. Busted items
// are always a subset of the locked items.
func FilledLines(locked []models.LockedPrice, busted []string) []models.LockedPrice {
	if len(busted) == 0 {
		out := make([]models.LockedPrice, len(locked))
		copy(out, locked)
		return out
	}

	bustedSet := make(map[string]bool, len(busted))
	for _, sku := range busted {
		bustedSet[sku] = true
	}

	var out []models.LockedPrice
	for _, p := range locked {
		if !bustedSet[p.SKU] {
			out = append(out, p)
		}
	}
	return out
}
