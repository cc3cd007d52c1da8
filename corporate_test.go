package folio

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFoldCorporateActions(t *testing.T) {
	p := Position{Code: "AAPL", Shares: D(10), AvgCost: D(400)}
	tests := []struct {
		name         string
		actions      []CorporateAction
		shares, avg  string
		wantRealized string
	}{
		{"split", []CorporateAction{Split{Ratio: D(4)}}, "40", "100", "0"},
		{"reverse split", []CorporateAction{Split{Ratio: D(0.5)}}, "5", "800", "0"},
		{"stock dividend", []CorporateAction{StockDividend{Fraction: D(0.25)}}, "12.5", "320", "0"},
		{"spinoff", []CorporateAction{SpinOff{AllocatedFraction: D(0.15)}}, "10", "340", "0"},
		{"cash merger", []CorporateAction{Merger{CashPerShare: Optional(450)}}, "0", "0", "500"},
		{"share merger", []CorporateAction{Merger{}}, "0", "0", "0"},
		{"split then spinoff", []CorporateAction{Split{Ratio: D(2)}, SpinOff{AllocatedFraction: D(0.5)}}, "20", "100", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, realized, err := FoldCorporateActions(p, tt.actions...)
			if err != nil {
				t.Fatalf("FoldCorporateActions() error = %v", err)
			}
			if !got.Shares.Equal(decimal.RequireFromString(tt.shares)) || !got.AvgCost.Equal(decimal.RequireFromString(tt.avg)) {
				t.Errorf("FoldCorporateActions() = %s @ %s, want %s @ %s", got.Shares, got.AvgCost, tt.shares, tt.avg)
			}
			if !realized.Equal(decimal.RequireFromString(tt.wantRealized)) {
				t.Errorf("realized = %s, want %s", realized, tt.wantRealized)
			}
		})
	}
}

func TestFoldCorporateActionsErrors(t *testing.T) {
	p := Position{Code: "AAPL", Shares: D(10), AvgCost: D(400)}
	for _, a := range []CorporateAction{
		Split{Ratio: D(0)},
		StockDividend{Fraction: D(-0.1)},
		SpinOff{AllocatedFraction: D(1.5)},
	} {
		got, _, err := FoldCorporateActions(p, a)
		if err == nil {
			t.Errorf("FoldCorporateActions(%s) expected an error", a)
		}
		if got != p {
			t.Errorf("FoldCorporateActions(%s) changed the position to %+v", a, got)
		}
	}
}

func TestParseCorporateAction(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"split:2", "split:2"},
		{"stock-dividend:0.1", "stock-dividend:0.1"},
		{"spin-off:0.15", "spinoff:0.15"},
		{"merger", "merger"},
		{" merger:12.5 ", "merger:12.5"},
	}
	for _, tt := range tests {
		a, err := ParseCorporateAction(tt.in)
		if err != nil {
			t.Errorf("ParseCorporateAction(%q) error = %v", tt.in, err)
			continue
		}
		if a.String() != tt.want {
			t.Errorf("ParseCorporateAction(%q) = %s, want %s", tt.in, a, tt.want)
		}
	}
	for _, bad := range []string{"split", "split:x", "dividend:2", ""} {
		if _, err := ParseCorporateAction(bad); err == nil {
			t.Errorf("ParseCorporateAction(%q) expected an error", bad)
		}
	}
}
