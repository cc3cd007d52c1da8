package renderer

import (
	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
)

// Holding is the rendering view of a folio.Portfolio. Numbers use the
// presentation types so templates can call String and SignedString.
type Holding struct {
	Date        date.Date
	Currency    string
	Positions   []HoldingPosition
	Cash        folio.Money
	MarketValue folio.Money
	Total       folio.Money
	Unrealized  folio.Money
	Realized    folio.Money
}

// HoldingPosition is one row of the holding table.
type HoldingPosition struct {
	Code        string
	Category    string
	Shares      folio.Quantity
	AvgCost     folio.Money
	Price       folio.Money
	PriceDate   date.Date
	Stale       bool // price is the average cost, no close was known
	MarketValue folio.Money
	Unrealized  folio.Money
	Rate        folio.Percent
	Weight      folio.Percent
}

// NewHolding builds the view of p.
func NewHolding(p folio.Portfolio) *Holding {
	cur := p.Currency
	h := &Holding{
		Date:        p.Date,
		Currency:    cur,
		Cash:        folio.M(p.Cash, cur),
		MarketValue: folio.M(p.MarketValue, cur),
		Total:       folio.M(p.Total(), cur),
		Unrealized:  folio.M(p.Unrealized, cur),
		Realized:    folio.M(p.Realized, cur),
	}
	total := p.Total()
	for _, x := range p.Holdings {
		var weight folio.Percent
		if total.IsPositive() {
			w, _ := x.MarketValue.Div(total).Float64()
			weight = folio.Ratio(w)
		}
		h.Positions = append(h.Positions, HoldingPosition{
			Code:        x.Code,
			Category:    x.CategoryID,
			Shares:      folio.Q(x.Shares),
			AvgCost:     folio.M(x.AvgCost, cur),
			Price:       folio.M(x.Price, cur),
			PriceDate:   x.PriceDate,
			Stale:       x.PriceFallback,
			MarketValue: folio.M(x.MarketValue, cur),
			Unrealized:  folio.M(x.Unrealized, cur),
			Rate:        folio.Ratio(x.UnrealizedRate),
			Weight:      weight,
		})
	}
	return h
}

// RenderHolding renders the holding report.
func RenderHolding(h *Holding) string {
	partials := map[string]string{
		"holding_title":     "holding_title.md",
		"holding_positions": "holding_positions.md",
		"holding_summary":   "holding_summary.md",
	}
	return renderTemplate("holding", "holding.md", partials, h)
}
