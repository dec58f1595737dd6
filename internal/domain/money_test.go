package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundToCents(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"5.005", "5.01"},
		{"5.004", "5.00"},
		{"5.015", "5.02"},
		{"0.125", "0.13"},
		{"100", "100.00"},
		{"7500.00", "7500.00"},
	}

	for _, c := range cases {
		got := RoundToCents(decimal.RequireFromString(c.in))
		if got.StringFixed(2) != c.expected {
			t.Errorf("RoundToCents(%s): expected %s, got %s", c.in, c.expected, got.StringFixed(2))
		}
	}
}

func TestApplyPercent(t *testing.T) {
	cases := []struct {
		amount   string
		percent  string
		expected string
	}{
		{"7500.00", "5", "375.00"},
		{"100.10", "5", "5.01"},    // 5.005 rounds up
		{"333.33", "50", "166.67"}, // 166.665 rounds up
		{"1000.00", "0", "0.00"},
		{"1000.00", "100", "1000.00"},
	}

	for _, c := range cases {
		got := ApplyPercent(decimal.RequireFromString(c.amount), decimal.RequireFromString(c.percent))
		if got.StringFixed(2) != c.expected {
			t.Errorf("ApplyPercent(%s, %s%%): expected %s, got %s", c.amount, c.percent, c.expected, got.StringFixed(2))
		}
	}
}

func TestApplyPercent_ComplementIsExact(t *testing.T) {
	// The business share is the exact complement of the rounded investor
	// share, so the two always sum to the original amount.
	interest := decimal.RequireFromString("100.01")
	investor := ApplyPercent(interest, decimal.RequireFromString("33"))
	business := interest.Sub(investor)

	if !investor.Add(business).Equal(interest) {
		t.Errorf("Shares must sum to total: %s + %s != %s", investor, business, interest)
	}
}

func TestParseAmount(t *testing.T) {
	if _, err := ParseAmount("125.50"); err != nil {
		t.Fatalf("Expected valid amount, got %v", err)
	}
	if _, err := ParseAmount("not-a-number"); err != ErrAmountInvalid {
		t.Errorf("Expected ErrAmountInvalid, got %v", err)
	}
}
