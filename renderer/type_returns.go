package renderer

import (
	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
)

// Returns is the rendering view of annualized returns.
type Returns struct {
	AsOf date.Date
	Rows []ReturnRow
}

type ReturnRow struct {
	Code      string
	Rate      string
	Method    string
	Reason    string
	Flows     int
	PriceDate date.Date
}

// NewReturns builds the view of rs.
func NewReturns(asOf date.Date, rs []folio.Return) *Returns {
	v := &Returns{AsOf: asOf}
	for _, r := range rs {
		row := ReturnRow{Code: r.Code, Method: r.Method, Reason: r.Reason, Flows: len(r.Flows), PriceDate: r.PriceDate}
		if r.Valid {
			row.Rate = folio.Ratio(r.Rate).SignedString()
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

// RenderReturns renders the returns table.
func RenderReturns(r *Returns) string {
	return renderTemplate("returns", "returns.md", nil, r)
}
