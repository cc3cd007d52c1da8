package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// Quote is the latest traded price of a symbol, delayed by the provider.
type Quote struct {
	Symbol string
	Date   date.Date
	Close  decimal.Decimal
}

// Latest returns the latest quote of symbol from the real-time endpoint.
//
// The endpoint reports missing values as the string "NA" and sometimes
// sends numbers as strings: both are handled.
func (c *Client) Latest(ctx context.Context, symbol string) (Quote, error) {
	var content any
	if err := c.get(ctx, "/real-time/"+url.PathEscape(symbol), nil, &content); err != nil {
		return Quote{}, fmt.Errorf("failed to fetch quote of %s: %w", symbol, err)
	}
	close, err := number(content, "$.close")
	if err != nil {
		return Quote{}, fmt.Errorf("invalid quote of %s: %w", symbol, err)
	}
	if !close.IsPositive() {
		// before the first trade of the day
		if close, err = number(content, "$.previousClose"); err != nil {
			return Quote{}, fmt.Errorf("invalid quote of %s: %w", symbol, err)
		}
	}
	ts, err := number(content, "$.timestamp")
	if err != nil {
		return Quote{}, fmt.Errorf("invalid quote of %s: %w", symbol, err)
	}
	return Quote{Symbol: symbol, Date: date.Of(time.Unix(ts.IntPart(), 0).UTC()), Close: close}, nil
}

// number reads the value at path in v as a decimal.
func number(v any, path string) (decimal.Decimal, error) {
	val, err := jsonpath.Get(path, v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	// jsonpath returns a list for filters, keep the first answer
	if list, ok := val.([]any); ok && len(list) > 0 {
		val = list[0]
	}
	switch x := val.(type) {
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		x = strings.TrimSpace(x)
		if x == "" || strings.EqualFold(x, "NA") {
			return decimal.Zero, nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(x, ",", "."), 64)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%s is not a number: %q", path, x)
		}
		return decimal.NewFromFloat(f), nil
	case nil:
		return decimal.Zero, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%s is not a number: %v", path, val)
	}
}
