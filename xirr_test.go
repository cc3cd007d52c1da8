package folio

import (
	"errors"
	"math"
	"testing"

	"github.com/etnz/folio/date"
)

func TestXIRR(t *testing.T) {
	tests := []struct {
		name  string
		flows []CashFlow
		want  float64
	}{
		{
			name: "one year",
			flows: []CashFlow{
				{date.New(2024, 1, 1), -1000},
				{date.New(2024, 12, 31), 1100},
			},
			want: 0.10,
		},
		{
			name: "loss",
			flows: []CashFlow{
				{date.New(2023, 1, 1), -1000},
				{date.New(2024, 1, 1), 800},
			},
			want: -0.20,
		},
		{
			name: "unordered",
			flows: []CashFlow{
				{date.New(2024, 12, 31), 1100},
				{date.New(2024, 1, 1), -1000},
			},
			want: 0.10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := XIRR(tt.flows)
			if err != nil {
				t.Fatalf("XIRR() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("XIRR() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestXIRRErrors(t *testing.T) {
	if _, err := XIRR([]CashFlow{{date.New(2024, 1, 1), -1000}}); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("XIRR(one flow) error = %v, want %v", err, ErrInsufficientData)
	}
	same := []CashFlow{{date.New(2024, 1, 1), -1000}, {date.New(2024, 1, 1), 1100}}
	if _, err := XIRR(same); !errors.Is(err, ErrNoSolution) {
		t.Errorf("XIRR(same day) error = %v, want %v", err, ErrNoSolution)
	}
}

func TestTransactionFlows(t *testing.T) {
	d1, d2 := date.New(2024, 1, 1), date.New(2024, 6, 1)
	txs := []Transaction{
		{ID: 1, GroupID: 1, Code: "MCD", Date: d1, Action: Buy, Quantity: D(100), Price: Optional(10), Fee: D(2)},
		{ID: 2, GroupID: 1, Code: "CASH", Date: d1, Action: Sell, Quantity: D(-1002), Price: Optional(1), Amount: Optional(1002)},
		{ID: 3, GroupID: 3, Code: "MCD", Date: d2, Action: Sell, Quantity: D(-60), Price: Optional(11), Fee: D(1)},
		{ID: 4, GroupID: 4, Code: "MCD", Date: d2, Action: Dividend, Amount: Optional(12)},
		{ID: 5, GroupID: 5, Code: "MCD", Date: d2, Action: Adjust, Quantity: D(40)},
		{ID: 6, GroupID: 6, Code: "MCD", Date: d2, Action: Fee, Amount: Optional(3)},
	}
	got := TransactionFlows(txs)
	want := []float64{-1002, 659, 12, -3}
	if len(got) != len(want) {
		t.Fatalf("TransactionFlows() = %v, want amounts %v", got, want)
	}
	for i, f := range got {
		if f.Amount != want[i] {
			t.Errorf("flow %d = %v, want %v", i, f.Amount, want[i])
		}
	}
}
