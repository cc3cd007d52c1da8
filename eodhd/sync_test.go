package eodhd

import (
	"context"
	"errors"
	"testing"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves a fixed bar list and records the requested ranges.
type fakeProvider struct {
	bars     map[string][]Bar
	splits   map[string][]Split
	requests map[string]date.Date
}

func (f *fakeProvider) Bars(_ context.Context, symbol string, from, to date.Date) ([]Bar, error) {
	f.requests[symbol] = from
	bars, ok := f.bars[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return bars, nil
}

func (f *fakeProvider) Splits(_ context.Context, symbol string, from, to date.Date) ([]Split, error) {
	return f.splits[symbol], nil
}

func bar(d date.Date, close string) Bar {
	return Bar{Date: d, Close: decimal.RequireFromString(close)}
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	d := date.New(2024, 3, 1)
	require.NoError(t, s.Update(ctx, func(tx folio.Tx) error {
		for _, i := range []folio.Instrument{
			{Code: "MCD", Symbol: "MCD.US", Type: folio.Stock, Active: true},
			{Code: "KO", Symbol: "KO.US", Type: folio.Stock, Active: true},
			{Code: "OLD", Type: folio.Stock, Active: false},
			{Code: "CASH", Type: folio.Cash, Active: true},
			{Code: "ERR", Type: folio.Stock, Active: true},
		} {
			if err := tx.SaveInstrument(i); err != nil {
				return err
			}
		}
		if err := tx.SavePosition(folio.Position{Code: "KO", Shares: decimal.NewFromInt(1), AvgCost: decimal.NewFromInt(50), OpeningDate: d.Add(-2)}); err != nil {
			return err
		}
		return tx.SaveBar(folio.Bar{Code: "MCD", Date: d.Add(-1), Close: decimal.NewFromInt(10)})
	}))

	p := &fakeProvider{
		bars: map[string][]Bar{
			"MCD.US": {bar(d.Add(-1), "10"), bar(d, "11"), bar(d.Add(1), "12")},
			"KO.US":  {bar(d.Add(-2), "50"), bar(d, "0")},
		},
		splits:   map[string][]Split{"KO.US": {{Date: d, Ratio: decimal.NewFromInt(2)}}},
		requests: map[string]date.Date{},
	}

	report, err := Sync(ctx, s, p, d)
	require.Error(t, err, "ERR has no bars at the provider")
	assert.Contains(t, err.Error(), "ERR")

	assert.Equal(t, d, p.requests["MCD.US"], "starts after the last stored bar")
	assert.Equal(t, d.Add(-2), p.requests["KO.US"], "starts at the opening date")
	assert.NotContains(t, p.requests, "OLD")
	assert.NotContains(t, p.requests, "CASH")

	assert.Equal(t, map[string]int{"MCD": 1, "KO": 1}, report.Saved)
	require.Len(t, report.Splits, 1)
	assert.Equal(t, "KO", report.Splits[0].Code)

	require.NoError(t, s.View(ctx, func(tx folio.Tx) error {
		on, c, ok, err := tx.Close("MCD", d.Add(5))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, d, on, "bars after the sync day are ignored")
		assert.True(t, decimal.NewFromInt(11).Equal(c))
		return nil
	}))
}
