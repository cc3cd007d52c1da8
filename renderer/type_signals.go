package renderer

import (
	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
)

// SignalList is the rendering view of persisted signals.
type SignalList struct {
	Title   string
	Signals []SignalRow
}

type SignalRow struct {
	ID      uint64
	Date    date.Date
	Level   folio.Level
	Type    folio.SignalType
	Scope   folio.ScopeType
	Targets []string
	Message string
}

// NewSignalList builds the view of signals.
func NewSignalList(title string, signals []folio.Signal) *SignalList {
	l := &SignalList{Title: title}
	for _, s := range signals {
		row := SignalRow{ID: s.ID, Date: s.Date, Level: s.Level, Type: s.Type, Message: s.Message}
		if s.Scope != nil {
			row.Scope, row.Targets = folio.EncodeScope(s.Scope)
		}
		l.Signals = append(l.Signals, row)
	}
	return l
}

// RenderSignals renders a signal list.
func RenderSignals(l *SignalList) string {
	return renderTemplate("signals", "signals.md", nil, l)
}

// StatusReport is the rendering view of a signal evaluation.
type StatusReport struct {
	Date       date.Date
	Statuses   []StatusRow
	Recorded   []SignalRow
	Suppressed int
	Errors     []string
}

type StatusRow struct {
	Code      string
	Shares    folio.Quantity
	AvgCost   folio.Money
	Price     folio.Money
	PriceDate date.Date
	Stale     bool
	Rate      folio.Percent
	Status    folio.Status
}

// NewStatusReport builds the view of an evaluation. Statuses alone can be
// rendered by passing an Evaluation without recorded signals.
func NewStatusReport(e folio.Evaluation, currency string) *StatusReport {
	r := &StatusReport{Date: e.Date, Suppressed: e.Suppressed}
	for _, st := range e.Statuses {
		r.Statuses = append(r.Statuses, StatusRow{
			Code:      st.Position.Code,
			Shares:    folio.Q(st.Position.Shares),
			AvgCost:   folio.M(st.Position.AvgCost, currency),
			Price:     folio.M(st.Price, currency),
			PriceDate: st.PriceDate,
			Stale:     st.PriceFallback,
			Rate:      folio.Ratio(st.ReturnRate),
			Status:    st.Status,
		})
	}
	r.Recorded = NewSignalList("", e.Recorded).Signals
	if e.Err != nil {
		r.Errors = append(r.Errors, e.Err.Error())
	}
	return r
}

// RenderStatus renders position statuses and the signals an evaluation
// recorded.
func RenderStatus(r *StatusReport) string {
	partials := map[string]string{
		"status_positions": "status_positions.md",
		"status_signals":   "status_signals.md",
	}
	return renderTemplate("status", "status.md", partials, r)
}
