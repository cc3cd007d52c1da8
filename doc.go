// Package folio keeps a personal investment portfolio under the
// weighted-average cost method.
//
// The package is organized around three engines sharing one Store:
//   - Ledger records BUY, SELL, DIV, FEE and ADJ transactions, keeps one
//     average-cost Position per instrument and mirrors every transaction
//     into the cash balance, in a single unit of work.
//   - SignalEngine classifies positions against stop-gain and stop-loss
//     thresholds, detects nine-bar structural turning points, flags
//     overweight categories and matches signals to instruments through
//     their Scope.
//   - ReturnSolver derives a money-weighted annualized return (XIRR) from
//     the cash flows of an instrument, with a simple annualized fallback.
//
// All amounts are computed on decimal.Decimal at full precision. Rounding
// to ShareDigits and to the currency fraction happens only when values
// are displayed or exported.
package folio

import "github.com/shopspring/decimal"

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
