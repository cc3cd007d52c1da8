package eodhd

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

// Provider is the subset of Client used by Sync.
type Provider interface {
	Bars(ctx context.Context, symbol string, from, to date.Date) ([]Bar, error)
	Splits(ctx context.Context, symbol string, from, to date.Date) ([]Split, error)
}

// SplitEvent is a provider split of a stored instrument. Sync reports
// them, applying them to positions is left to the caller.
type SplitEvent struct {
	Code string
	Split
}

// SyncReport sums up a Sync run.
type SyncReport struct {
	// Saved counts the new bars per instrument code.
	Saved  map[string]int
	Splits []SplitEvent
}

// defaultHistory is how far back an instrument without bars nor
// transactions is fetched.
const defaultHistory = 365

// Sync fetches the bars missing up to to for the given instruments, or
// every active non cash instrument when codes is empty. Each instrument
// starts the day after its last stored bar, or at the first day it was
// held. Failures are joined and do not stop the other instruments.
func Sync(ctx context.Context, s folio.Store, p Provider, to date.Date, codes ...string) (SyncReport, error) {
	report := SyncReport{Saved: make(map[string]int)}

	var instruments []folio.Instrument
	err := s.View(ctx, func(tx folio.Tx) error {
		if len(codes) == 0 {
			all, err := tx.ActiveInstruments()
			instruments = all
			return err
		}
		for _, code := range codes {
			i, ok, err := tx.Instrument(code)
			if err != nil {
				return err
			}
			if !ok {
				return &folio.NotFoundError{Kind: "instrument", IDs: []string{code}}
			}
			instruments = append(instruments, i)
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	var errs []error
	for _, i := range instruments {
		if i.Type == folio.Cash {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		n, splits, err := syncInstrument(ctx, s, p, i, to)
		if err != nil {
			log.Warn().Str("code", i.Code).Err(err).Msg("sync failed")
			errs = append(errs, fmt.Errorf("%s: %w", i.Code, err))
			continue
		}
		if n > 0 {
			report.Saved[i.Code] = n
		}
		report.Splits = append(report.Splits, splits...)
	}
	return report, errors.Join(errs...)
}

func syncInstrument(ctx context.Context, s folio.Store, p Provider, i folio.Instrument, to date.Date) (int, []SplitEvent, error) {
	from, err := syncStart(ctx, s, i.Code, to)
	if err != nil {
		return 0, nil, err
	}
	if from.After(to) {
		return 0, nil, nil
	}

	symbol := i.ProviderSymbol()
	bars, err := p.Bars(ctx, symbol, from, to)
	if err != nil {
		return 0, nil, err
	}
	splits, err := p.Splits(ctx, symbol, from, to)
	if err != nil {
		return 0, nil, err
	}

	saved := 0
	err = s.Update(ctx, func(tx folio.Tx) error {
		saved = 0
		for _, b := range bars {
			if b.Date.IsZero() || !b.Close.IsPositive() || b.Date.Before(from) || b.Date.After(to) {
				continue
			}
			bar := folio.Bar{
				Code:   i.Code,
				Date:   b.Date,
				Close:  b.Close,
				Open:   nonZero(b.Open),
				High:   nonZero(b.High),
				Low:    nonZero(b.Low),
				Volume: b.Volume,
			}
			if err := tx.SaveBar(bar); err != nil {
				return err
			}
			saved++
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	log.Info().Str("code", i.Code).Str("symbol", symbol).Str("from", from.String()).Int("bars", saved).Msg("synced")

	events := make([]SplitEvent, 0, len(splits))
	for _, sp := range splits {
		events = append(events, SplitEvent{Code: i.Code, Split: sp})
	}
	return saved, events, nil
}

// syncStart returns the first day to fetch for code.
func syncStart(ctx context.Context, s folio.Store, code string, to date.Date) (from date.Date, err error) {
	err = s.View(ctx, func(tx folio.Tx) error {
		last, _, found, err := tx.Close(code, to)
		if err != nil {
			return err
		}
		if found {
			from = last.Add(1)
			return nil
		}
		p, ok, err := tx.Position(code)
		if err != nil {
			return err
		}
		if ok && !p.OpeningDate.IsZero() {
			from = p.OpeningDate
			return nil
		}
		txs, err := tx.Transactions(code, date.Date{})
		if err != nil {
			return err
		}
		if len(txs) > 0 {
			from = txs[0].Date
			return nil
		}
		from = to.Add(-defaultHistory)
		return nil
	})
	return from, err
}

func nonZero(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: !d.IsZero()}
}
