package folio

import (
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// Status is the real-time classification of a position.
type Status string

const (
	StatusNormal   Status = "NORMAL"
	StatusStopGain Status = "STOP_GAIN"
	StatusStopLoss Status = "STOP_LOSS"
)

// Classify compares a return rate with the stop thresholds, both boundaries
// inclusive.
func Classify(returnRate, stopGainPct, stopLossPct float64) Status {
	switch {
	case returnRate >= stopGainPct:
		return StatusStopGain
	case returnRate <= -stopLossPct:
		return StatusStopLoss
	default:
		return StatusNormal
	}
}

// PositionStatus is the classification of one position on one day.
type PositionStatus struct {
	Position   Position
	Price      decimal.Decimal
	PriceDate  date.Date
	ReturnRate float64
	Status     Status
	// PriceFallback is set when no bar exists on or before the day and the
	// average cost stood in for the price.
	PriceFallback bool
}

// ClassifyPosition classifies p on a day given the latest close on or
// before that day. ok is false for positions excluded from
// classification: no shares or a non positive average cost.
func ClassifyPosition(p Position, close decimal.Decimal, closeDate date.Date, found bool, s Settings) (PositionStatus, bool) {
	if !p.Held() || !p.AvgCost.IsPositive() {
		return PositionStatus{}, false
	}
	st := PositionStatus{Position: p, Price: close, PriceDate: closeDate}
	if !found {
		st.Price, st.PriceDate, st.PriceFallback = p.AvgCost, date.Date{}, true
	}
	st.ReturnRate = st.Price.Sub(p.AvgCost).Div(p.AvgCost).InexactFloat64()
	st.Status = Classify(st.ReturnRate, s.StopGainPct, s.StopLossPct)
	return st, true
}
