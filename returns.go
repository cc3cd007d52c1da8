package folio

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/etnz/folio/date"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

// Reason codes of a return without a rate.
const (
	ReasonNoPosition         = "no_position"
	ReasonInsufficientBase   = "insufficient_base"
	ReasonNoPrice            = "no_price"
	ReasonInvalidHoldingDays = "invalid_holding_days"
	ReasonNotConverged       = "not_converged"
	ReasonNoSolution         = "no_solution"
	ReasonError              = "error"
)

// Methods used to compute a return.
const (
	MethodXIRR       = "xirr"
	MethodAnnualized = "annualized"
)

// Return is the money-weighted annualized return of an instrument.
type Return struct {
	Code string
	AsOf date.Date
	// Rate is meaningful only when Valid is set, Reason tells why otherwise.
	Rate   float64
	Valid  bool
	Method string
	Reason string
	Flows  []CashFlow
	// PriceDate is the day of the close used to value the held shares.
	PriceDate date.Date
	Err       error
}

// ReturnSolver computes annualized returns from the ledger.
type ReturnSolver struct {
	store Store
}

// NewReturnSolver returns a ReturnSolver over store.
func NewReturnSolver(store Store) *ReturnSolver { return &ReturnSolver{store: store} }

// Compute returns the annualized return of code as of a day.
//
// With at least two cash flows, held shares valued at the latest close
// included, it solves XIRR. Otherwise it annualizes the price change
// since the opening date. Failures are reported in the result.
func (s *ReturnSolver) Compute(ctx context.Context, code string, asOf date.Date) Return {
	var r Return
	err := s.store.View(ctx, func(tx Tx) error {
		pos, found, err := tx.Position(code)
		if err != nil {
			return fmt.Errorf("cannot read position %q: %w", code, err)
		}
		txs, err := tx.Transactions(code, asOf)
		if err != nil {
			return fmt.Errorf("cannot list transactions of %q: %w", code, err)
		}
		day, price, priced, err := tx.Close(code, asOf)
		if err != nil {
			return fmt.Errorf("cannot read close of %q: %w", code, err)
		}
		if !found {
			pos = Position{Code: code}
		}
		r = ComputeReturn(pos, txs, price, day, priced, asOf)
		return nil
	})
	if err != nil {
		return Return{Code: code, AsOf: asOf, Reason: ReasonError, Err: err}
	}
	return r
}

// Batch computes the return of every code. A failed item carries its
// error and the batch goes on.
func (s *ReturnSolver) Batch(ctx context.Context, codes []string, asOf date.Date) []Return {
	out := make([]Return, 0, len(codes))
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			out = append(out, Return{Code: code, AsOf: asOf, Reason: ReasonError, Err: err})
			continue
		}
		r := s.Compute(ctx, code, asOf)
		if r.Err != nil {
			log.Warn().Err(r.Err).Str("code", code).Msg("return computation failed")
		}
		out = append(out, r)
	}
	return out
}

// ComputeReturn is Compute on already loaded data: the position, its
// transactions up to asOf and the latest close on or before asOf.
func ComputeReturn(pos Position, txs []Transaction, price decimal.Decimal, priceDate date.Date, priced bool, asOf date.Date) Return {
	r := Return{Code: pos.Code, AsOf: asOf}
	flows := TransactionFlows(txs)
	if pos.Held() {
		if !priced {
			if len(flows) >= 2 {
				r.Reason = ReasonNoPrice
				return r
			}
			return annualize(r, pos, price, priced, asOf)
		}
		r.PriceDate = priceDate
		flows = append(flows, CashFlow{Date: asOf, Amount: pos.Shares.Mul(price).InexactFloat64()})
	}
	if len(flows) < 2 {
		return annualize(r, pos, price, priced, asOf)
	}

	r.Flows, r.Method = flows, MethodXIRR
	rate, err := XIRR(flows)
	switch {
	case errors.Is(err, ErrNotConverged):
		r.Reason, r.Err = ReasonNotConverged, err
		log.Debug().Str("code", pos.Code).Int("flows", len(flows)).Msg("xirr did not converge")
	case errors.Is(err, ErrNoSolution):
		r.Reason, r.Err = ReasonNoSolution, err
		log.Debug().Str("code", pos.Code).Int("flows", len(flows)).Msg("xirr has no solution")
	case err != nil:
		r.Reason, r.Err = ReasonError, err
	default:
		r.Rate, r.Valid = rate, true
	}
	return r
}

// annualize is the fallback: (price/avg)^(365/days) − 1 over the days
// held since the opening date.
func annualize(r Return, pos Position, price decimal.Decimal, priced bool, asOf date.Date) Return {
	r.Method = MethodAnnualized
	switch {
	case !pos.Held():
		r.Reason = ReasonNoPosition
		return r
	case pos.OpeningDate.IsZero() || !pos.AvgCost.IsPositive():
		r.Reason = ReasonInsufficientBase
		return r
	case !priced:
		r.Reason = ReasonNoPrice
		return r
	}
	days := asOf.DaysSince(pos.OpeningDate)
	if days <= 0 {
		r.Reason = ReasonInvalidHoldingDays
		return r
	}
	ratio := price.Div(pos.AvgCost).InexactFloat64()
	r.Rate = math.Pow(ratio, 365/float64(days)) - 1
	if math.IsNaN(r.Rate) || math.IsInf(r.Rate, 0) {
		r.Rate, r.Reason = 0, ReasonNoSolution
		return r
	}
	r.Valid = true
	return r
}
