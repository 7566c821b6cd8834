package desk

import (
	"testing"
	"time"

	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
)

func TestNewReportFullFill(t *testing.T) {
	locked := []models.LockedPrice{
		{SKU: "AGE-1OZ", Quantity: 2, UnitPrice: 2000, Extended: 4000},
	}
	result := &models.TradeResult{TransactionID: "t-1", ConfirmationNumber: "C-1"}

	report := NewReport(locked, result)
	if report.Outcome != OutcomeFilled {
		t.Errorf("expected FILLED, got %s", report.Outcome)
	}
	if !report.Success() {
		t.Error("full fill is a success")
	}
	if report.Warning != "" {
		t.Errorf("no warning expected, got %q", report.Warning)
	}
}

func TestNewReportPartialFillIsSuccessWithWarning(t *testing.T) {
	locked := []models.LockedPrice{
		{SKU: "AGE-1OZ", Quantity: 1, UnitPrice: 2000, Extended: 2000},
		{SKU: "ASE-1OZ", Quantity: 5, UnitPrice: 30, Extended: 150},
	}
	result := &models.TradeResult{
		ConfirmationNumber: "C-2",
		Busted:             []string{"ASE-1OZ"},
	}

	report := NewReport(locked, result)
	if report.Outcome != OutcomePartial {
		t.Errorf("expected PARTIAL, got %s", report.Outcome)
	}
	if !report.Success() {
		t.Error("partial fill is still a success")
	}
	if report.Warning == "" {
		t.Error("partial fill must carry a warning")
	}
	if len(report.Filled) != 1 || report.Filled[0].SKU != "AGE-1OZ" {
		t.Errorf("unexpected filled lines: %+v", report.Filled)
	}
}

func TestFailureReportClassifiesUncertain(t *testing.T) {
	report := FailureReport(errors.Wrap(errors.ErrExecuteUncertain, "t-9"))
	if report.Outcome != OutcomeUncertain {
		t.Errorf("expected UNCERTAIN, got %s", report.Outcome)
	}
	if report.Success() {
		t.Error("uncertain is not a success")
	}

	report = FailureReport(errors.ErrMarketClosed)
	if report.Outcome != OutcomeFailed {
		t.Errorf("expected FAILED, got %s", report.Outcome)
	}
}

func TestFilledLinesSubtraction(t *testing.T) {
	locked := []models.LockedPrice{
		{SKU: "A"}, {SKU: "B"}, {SKU: "C"},
	}
	filled := FilledLines(locked, []string{"B"})
	if len(filled) != 2 || filled[0].SKU != "A" || filled[1].SKU != "C" {
		t.Errorf("unexpected filled lines: %+v", filled)
	}

	// No busted items: a copy, not the original slice.
	all := FilledLines(locked, nil)
	all[0].SKU = "mutated"
	if locked[0].SKU != "A" {
		t.Error("FilledLines must not alias the input")
	}
}

func TestRemainingClampsToZero(t *testing.T) {
	now := time.Now()
	if got := Remaining(now, now.Add(15*time.Second)); got != 15*time.Second {
		t.Errorf("expected 15s, got %s", got)
	}
	if got := Remaining(now, now.Add(-time.Second)); got != 0 {
		t.Errorf("expected 0 after expiry, got %s", got)
	}
	if got := Remaining(now, now); got != 0 {
		t.Errorf("expected 0 at the boundary, got %s", got)
	}
}
