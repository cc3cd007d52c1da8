package folio

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/phuslu/log"
	"gopkg.in/yaml.v3"
)

// Catalog is a set of categories and instruments maintained as a YAML
// document:
//
//	categories:
//	  - id: tech
//	    name: Technology
//	    target: 0.4
//	instruments:
//	  - code: AAPL
//	    name: Apple Inc.
//	    type: STOCK
//	    category: tech
//	    symbol: AAPL.US
//
// Instruments are active unless they say "active: false".
type Catalog struct {
	Categories  []Category   `yaml:"categories"`
	Instruments []Instrument `yaml:"instruments"`
}

// catalogInstrument defaults Active to true.
type catalogInstrument struct {
	Code       string         `yaml:"code"`
	Name       string         `yaml:"name"`
	Type       InstrumentType `yaml:"type"`
	CategoryID string         `yaml:"category"`
	Symbol     string         `yaml:"symbol"`
	Active     *bool          `yaml:"active"`
}

// DecodeCatalog reads a YAML catalog. Unknown fields are rejected.
func DecodeCatalog(r io.Reader) (Catalog, error) {
	var doc struct {
		Categories  []Category          `yaml:"categories"`
		Instruments []catalogInstrument `yaml:"instruments"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("cannot decode catalog: %w", err)
	}
	c := Catalog{Categories: doc.Categories}
	for _, i := range doc.Instruments {
		ins := Instrument{Code: i.Code, Name: i.Name, Type: i.Type, CategoryID: i.CategoryID, Symbol: i.Symbol, Active: true}
		if ins.Type == "" {
			ins.Type = Stock
		}
		if i.Active != nil {
			ins.Active = *i.Active
		}
		c.Instruments = append(c.Instruments, ins)
	}
	return c, nil
}

// Save validates every entry and stores the catalog in one unit of work.
// Instruments may reference categories defined in the catalog or already
// stored.
func (c Catalog) Save(ctx context.Context, s Store) error {
	var errs []error
	for _, cat := range c.Categories {
		if err := ValidateCategory(cat); err != nil {
			errs = append(errs, fmt.Errorf("category %q: %w", cat.ID, err))
		}
	}
	for _, i := range c.Instruments {
		if err := ValidateInstrument(i); err != nil {
			errs = append(errs, fmt.Errorf("instrument %q: %w", i.Code, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	err := s.Update(ctx, func(tx Tx) error {
		defined := make(map[string]bool)
		for _, cat := range c.Categories {
			if err := tx.SaveCategory(cat); err != nil {
				return err
			}
			defined[cat.ID] = true
		}
		var missing []string
		for _, i := range c.Instruments {
			if i.CategoryID != "" && !defined[i.CategoryID] {
				_, found, err := tx.Category(i.CategoryID)
				if err != nil {
					return err
				}
				if !found {
					missing = append(missing, i.CategoryID)
					continue
				}
				defined[i.CategoryID] = true
			}
			if err := tx.SaveInstrument(i); err != nil {
				return err
			}
		}
		if len(missing) > 0 {
			return &NotFoundError{Kind: "category", IDs: missing}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Int("categories", len(c.Categories)).Int("instruments", len(c.Instruments)).Msg("catalog saved")
	return nil
}
