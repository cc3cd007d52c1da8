package folio_test

import (
	"context"
	"strings"
	"testing"

	"github.com/etnz/folio"
	"github.com/etnz/folio/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
categories:
  - id: tech
    name: Technology
    target: 0.4
instruments:
  - code: AAPL
    name: Apple Inc.
    category: tech
    symbol: AAPL.US
  - code: VWCE
    type: FUND
  - code: OLD
    active: false
`

func TestDecodeCatalog(t *testing.T) {
	c, err := folio.DecodeCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)
	require.Len(t, c.Categories, 1)
	assert.True(t, folio.D(0.4).Equal(c.Categories[0].TargetWeight))
	require.Len(t, c.Instruments, 3)
	assert.Equal(t, folio.Instrument{Code: "AAPL", Name: "Apple Inc.", Type: folio.Stock, CategoryID: "tech", Symbol: "AAPL.US", Active: true}, c.Instruments[0])
	assert.Equal(t, folio.Fund, c.Instruments[1].Type)
	assert.Equal(t, "VWCE", c.Instruments[1].ProviderSymbol())
	assert.False(t, c.Instruments[2].Active)

	_, err = folio.DecodeCatalog(strings.NewReader("instruments:\n  - code: X\n    isin: US0000000000\n"))
	assert.Error(t, err)

	c, err = folio.DecodeCatalog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, c.Instruments)
}

func TestCatalogSave(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	c, err := folio.DecodeCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, s))

	// categories already stored can be referenced
	more := folio.Catalog{Instruments: []folio.Instrument{{Code: "MSFT", CategoryID: "tech", Active: true}}}
	require.NoError(t, more.Save(ctx, s))

	err = s.View(ctx, func(tx folio.Tx) error {
		active, err := tx.ActiveInstruments()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"AAPL", "MSFT", "VWCE"}, codes(active))
		return nil
	})
	require.NoError(t, err)

	bad := folio.Catalog{Instruments: []folio.Instrument{{Code: "NVDA", CategoryID: "chips"}}}
	var notFound *folio.NotFoundError
	require.ErrorAs(t, bad.Save(ctx, s), &notFound)
	assert.Equal(t, []string{"chips"}, notFound.IDs)

	invalid := folio.Catalog{Categories: []folio.Category{{ID: "heavy", TargetWeight: folio.D(1.5)}}}
	assert.Error(t, invalid.Save(ctx, s))

	err = s.View(ctx, func(tx folio.Tx) error {
		_, found, err := tx.Instrument("NVDA")
		require.NoError(t, err)
		assert.False(t, found)
		_, found, err = tx.Category("heavy")
		require.NoError(t, err)
		assert.False(t, found)
		return nil
	})
	require.NoError(t, err)
}
