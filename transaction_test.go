package folio

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

func TestTransactionInputValidate(t *testing.T) {
	today := date.New(2025, 3, 14)
	none := decimal.NullDecimal{}
	tests := []struct {
		name  string
		in    TransactionInput
		field string // empty when valid
	}{
		{"buy", TransactionInput{Code: "MCD", Action: Buy, Quantity: D(10), Price: Optional(100)}, ""},
		{"buy from amount", TransactionInput{Code: "MCD", Action: Buy, Quantity: D(10), Amount: Optional(1000)}, ""},
		{"buy without price", TransactionInput{Code: "MCD", Action: Buy, Quantity: D(10)}, "price"},
		{"sell nothing", TransactionInput{Code: "MCD", Action: Sell, Price: Optional(100)}, "quantity"},
		{"negative fee", TransactionInput{Code: "MCD", Action: Buy, Quantity: D(1), Price: Optional(1), Fee: D(-1)}, "fee"},
		{"negative price", TransactionInput{Code: "MCD", Action: Sell, Quantity: D(1), Price: Optional(-1)}, "price"},
		{"dividend", TransactionInput{Code: "MCD", Action: Dividend, Amount: Optional(5)}, ""},
		{"empty dividend", TransactionInput{Code: "MCD", Action: Dividend, Amount: none}, "amount"},
		{"fee", TransactionInput{Code: "MCD", Action: Fee, Fee: D(3)}, ""},
		{"empty fee", TransactionInput{Code: "MCD", Action: Fee}, "fee"},
		{"adjust", TransactionInput{Code: "CASH", Action: Adjust, Amount: Optional(-50)}, ""},
		{"empty adjust", TransactionInput{Code: "CASH", Action: Adjust, Amount: Optional(0)}, "amount"},
		{"no code", TransactionInput{Action: Buy, Quantity: D(1), Price: Optional(1)}, "Code"},
		{"unknown action", TransactionInput{Code: "MCD", Action: "GIFT"}, "Action"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			err := in.Validate(today)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if in.Date != today {
					t.Errorf("Validate() date = %s, want %s", in.Date, today)
				}
				return
			}
			var v *ValidationError
			if !errors.As(err, &v) {
				t.Fatalf("Validate() error = %v, want a ValidationError", err)
			}
			if v.Field != tt.field {
				t.Errorf("Validate() field = %q, want %q", v.Field, tt.field)
			}
		})
	}
}

func TestTransactionInputValidateNormalizes(t *testing.T) {
	in := TransactionInput{Code: "MCD", Date: date.New(2025, 1, 2), Action: Sell, Quantity: D(-10), Amount: Optional(1250)}
	if err := in.Validate(date.New(2025, 3, 14)); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !in.Quantity.Equal(D(10)) {
		t.Errorf("quantity = %s, want 10", in.Quantity)
	}
	if !in.Price.Valid || !in.Price.Decimal.Equal(D(125)) {
		t.Errorf("price = %v, want 125", in.Price)
	}
	if in.Date != date.New(2025, 1, 2) {
		t.Errorf("date = %s, want 2025-01-02", in.Date)
	}
}

func TestTransactionJSON(t *testing.T) {
	tr := Transaction{
		ID: 3, GroupID: 3, Code: "MCD", Date: date.New(2025, 3, 14), Action: Sell,
		Quantity: D(-60), Price: Optional(11), Fee: D(1), RealizedPnL: Optional(57.8),
	}
	b, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got Transaction
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal(%s) error = %v", b, err)
	}
	if got.ID != 3 || got.GroupID != 3 || got.Action != Sell || got.Amount.Valid {
		t.Errorf("Unmarshal() = %+v", got)
	}
	if !got.Quantity.Equal(tr.Quantity) || !got.RealizedPnL.Decimal.Equal(D(57.8)) || !got.Fee.Equal(D(1)) {
		t.Errorf("Unmarshal() = %+v, want %+v", got, tr)
	}
}
