package renderer

import (
	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
)

// TransactionLog is the rendering view of ledger rows.
type TransactionLog struct {
	Title string
	Rows  []TransactionRow
}

type TransactionRow struct {
	ID       uint64
	Group    uint64
	Mirror   bool
	Date     date.Date
	Action   folio.Action
	Code     string
	Quantity folio.Quantity
	Price    string
	Amount   folio.Money
	Fee      folio.Money
	Realized string
	Notes    string
}

// NewTransactionLog builds the view of txs valued in currency.
func NewTransactionLog(title string, txs []folio.Transaction, currency string) *TransactionLog {
	l := &TransactionLog{Title: title}
	for _, t := range txs {
		row := TransactionRow{
			ID:       t.ID,
			Group:    t.GroupID,
			Mirror:   t.IsMirror(),
			Date:     t.Date,
			Action:   t.Action,
			Code:     t.Code,
			Quantity: folio.Q(t.Quantity),
			Amount:   folio.M(t.Gross(), currency),
			Fee:      folio.M(t.Fee, currency),
			Notes:    t.Notes,
		}
		if t.Price.Valid {
			row.Price = folio.M(t.Price.Decimal, currency).String()
		}
		if t.RealizedPnL.Valid {
			row.Realized = folio.M(t.RealizedPnL.Decimal, currency).SignedString()
		}
		l.Rows = append(l.Rows, row)
	}
	return l
}

// RenderTransactions renders a transaction log.
func RenderTransactions(l *TransactionLog) string {
	return renderTemplate("transactions", "transactions.md", nil, l)
}
