package folio

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCashMirror(t *testing.T) {
	none := decimal.NullDecimal{}
	tests := []struct {
		name     string
		action   Action
		quantity float64
		price    decimal.NullDecimal
		amount   decimal.NullDecimal
		fee      float64
		want     Action
		value    string
		ok       bool
	}{
		{"buy", Buy, 100, Optional(10), none, 2, Sell, "1002", true},
		{"sell", Sell, 60, Optional(11), none, 1, Buy, "659", true},
		{"sell under fee", Sell, 1, Optional(0.5), none, 1, "", "0", false},
		{"dividend amount", Dividend, 0, none, Optional(12.5), 0, Buy, "12.5", true},
		{"dividend per share", Dividend, 40, Optional(0.25), none, 0, Buy, "10", true},
		{"fee", Fee, 0, none, none, 3, Sell, "3", true},
		{"fee amount", Fee, 0, none, Optional(4), 0, Sell, "4", true},
		{"adjust in", Adjust, 0, none, Optional(250), 0, Buy, "250", true},
		{"adjust out", Adjust, 0, none, Optional(-250), 0, Sell, "250", true},
		{"adjust shares only", Adjust, 5, none, none, 0, "", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, value, ok := CashMirror(tt.action, D(tt.quantity), tt.price, tt.amount, D(tt.fee))
			if ok != tt.ok {
				t.Fatalf("CashMirror() ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want || !value.Equal(decimal.RequireFromString(tt.value)) {
				t.Errorf("CashMirror() = %s %s, want %s %s", got, value, tt.want, tt.value)
			}
		})
	}
}

func TestMirrorOf(t *testing.T) {
	buy := Transaction{ID: 7, GroupID: 7, Code: "MCD", Action: Buy, Quantity: D(100), Price: Optional(10), Fee: D(2)}
	m := mirrorOf(buy, "CASH")
	if m == nil {
		t.Fatal("mirrorOf(buy) = nil")
	}
	if m.Code != "CASH" || m.Action != Sell || m.GroupID != 7 {
		t.Errorf("mirrorOf(buy) = %s %s group %d, want CASH SELL group 7", m.Code, m.Action, m.GroupID)
	}
	if !m.Quantity.Equal(D(-1002)) || !m.Amount.Decimal.Equal(D(1002)) {
		t.Errorf("mirrorOf(buy) quantity %s amount %s, want -1002 and 1002", m.Quantity, m.Amount.Decimal)
	}
	if !m.IsMirror() {
		t.Error("mirror row is not flagged as a mirror")
	}

	split := Transaction{ID: 8, GroupID: 8, Code: "MCD", Action: Adjust, Quantity: D(40)}
	if m := mirrorOf(split, "CASH"); m != nil {
		t.Errorf("mirrorOf(share adjustment) = %+v, want nil", m)
	}
}
