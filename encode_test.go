package folio_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupRestore(t *testing.T) {
	ctx := context.Background()
	src := openStore(t, stock("MCD", "food"))
	l := folio.NewLedger(src, folio.DefaultSettings())
	deposit(t, l, date.New(2025, 1, 1), 1000)
	r := l.Submit(ctx, folio.TransactionInput{Code: "MCD", Date: date.New(2025, 1, 2), Action: folio.Buy, Quantity: folio.D(5), Price: folio.Optional(100), Fee: folio.D(1)})
	require.Equal(t, folio.OK, r.Outcome, r.Reason)
	saveBars(t, src, "MCD", date.New(2025, 1, 2), 100, 101.5)
	e := folio.NewSignalEngine(src, folio.DefaultSettings())
	_, err := e.CreateManual(ctx, folio.ManualSignal{Date: date.New(2025, 1, 3), Level: folio.Low, Type: "NOTE", ScopeType: folio.ScopeMultiCategory, ScopeData: []string{"food", "tech"}})
	require.NoError(t, err)
	require.NoError(t, src.Update(ctx, func(tx folio.Tx) error {
		if err := tx.Watch(folio.WatchEntry{Code: "MCD", AddedOn: date.New(2025, 1, 3)}); err != nil {
			return err
		}
		return tx.SetSetting(folio.KeyStopGainPct, "0.25")
	}))

	want, err := folio.Export(ctx, src)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, folio.EncodeBackup(&buf, want))
	assert.Contains(t, buf.String(), `{"kind":"setting","data":{"key":"stop_gain_pct","value":"0.25"}}`)

	b, err := folio.DecodeBackup(&buf)
	require.NoError(t, err)
	dst := openStore(t, stock("KO", "food"))
	require.NoError(t, folio.Restore(ctx, dst, b))

	got, err := folio.Export(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, want.Settings, got.Settings)
	assert.Equal(t, want.Watchlist, got.Watchlist)
	assert.Equal(t, codes(want.Instruments), codes(got.Instruments))
	require.Len(t, got.Transactions, len(want.Transactions))
	for i := range want.Transactions {
		assert.Equal(t, want.Transactions[i].ID, got.Transactions[i].ID)
		assert.Equal(t, want.Transactions[i].GroupID, got.Transactions[i].GroupID)
		assert.True(t, want.Transactions[i].Quantity.Equal(got.Transactions[i].Quantity))
	}
	require.Len(t, got.Signals, 1)
	assert.Equal(t, folio.MultiCategoryScope{"food", "tech"}, got.Signals[0].Scope)
	require.Len(t, got.Bars, 2)
	assert.True(t, folio.D(101.5).Equal(got.Bars[1].Close))

	// identifiers continue after the restored ones
	r = folio.NewLedger(dst, folio.DefaultSettings()).Submit(ctx, folio.TransactionInput{Code: "MCD", Date: date.New(2025, 1, 6), Action: folio.Dividend, Amount: folio.Optional(2)})
	require.Equal(t, folio.OK, r.Outcome, r.Reason)
	assert.Greater(t, r.Transaction.ID, want.Transactions[len(want.Transactions)-1].ID)
}

func codes(instruments []folio.Instrument) []string {
	out := make([]string, len(instruments))
	for i, ins := range instruments {
		out[i] = ins.Code
	}
	return out
}

func TestDecodeBackupErrors(t *testing.T) {
	for _, in := range []string{
		`{"kind":"planet","data":{}}`,
		`{"kind":"setting","data":{"key":"a","value":"b","extra":1}}`,
		`not json`,
	} {
		_, err := folio.DecodeBackup(strings.NewReader(in))
		assert.Error(t, err, in)
	}
}

func TestDecodeInputs(t *testing.T) {
	in := `# opening trades
{"date":"2024-01-02","action":"BUY","code":"AAPL","quantity":10,"price":185.5,"fee":1}

{"action":"dividend","code":"AAPL","amount":"2.4"}
`
	inputs, err := folio.DecodeInputs(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, date.New(2024, 1, 2), inputs[0].Date)
	assert.Equal(t, folio.Buy, inputs[0].Action)
	assert.True(t, folio.D(185.5).Equal(inputs[0].Price.Decimal))
	assert.Equal(t, folio.Dividend, inputs[1].Action)
	assert.True(t, inputs[1].Date.IsZero())
	assert.True(t, folio.D(2.4).Equal(inputs[1].Amount.Decimal))

	_, err = folio.DecodeInputs(strings.NewReader(`{"code":"AAPL","action":"BUY","shares":3}`))
	assert.ErrorContains(t, err, "line 1")
	_, err = folio.DecodeInputs(strings.NewReader(`{"code":"AAPL","action":"GIFT"}`))
	assert.Error(t, err)
}
