package folio

import (
	"fmt"

	"github.com/etnz/folio/date"
	"github.com/phuslu/log"
	"gonum.org/v1/gonum/floats"
)

// CategoryWeights returns the share of each category in the total value
// of the portfolio, cash included. Holdings without a category are not
// reported but count in the total.
func CategoryWeights(p Portfolio) map[string]float64 {
	ids := make([]string, 0)
	index := make(map[string]int)
	var values []float64
	other := 0.0
	for _, h := range p.Holdings {
		v := h.MarketValue.InexactFloat64()
		if h.CategoryID == "" {
			other += v
			continue
		}
		i, ok := index[h.CategoryID]
		if !ok {
			i = len(ids)
			index[h.CategoryID] = i
			ids = append(ids, h.CategoryID)
			values = append(values, 0)
		}
		values[i] += v
	}
	weights := make(map[string]float64, len(ids))
	total := floats.Sum(values) + other + p.Cash.InexactFloat64()
	if total <= 0 {
		return weights
	}
	floats.Scale(1/total, values)
	for i, id := range ids {
		weights[id] = values[i]
	}
	return weights
}

// recordOverweight records an OVERWEIGHT signal for each category whose
// weight exceeds its target by more than the overweight band, once per
// category and day.
func (e *SignalEngine) recordOverweight(tx Tx, on date.Date) ([]Signal, error) {
	categories, err := tx.Categories()
	if err != nil {
		return nil, fmt.Errorf("cannot list categories: %w", err)
	}
	var targeted []Category
	for _, c := range categories {
		if c.TargetWeight.IsPositive() {
			targeted = append(targeted, c)
		}
	}
	if len(targeted) == 0 {
		return nil, nil
	}
	p, err := valuate(tx, e.settings, on)
	if err != nil {
		return nil, err
	}
	weights := CategoryWeights(p)
	existing, err := tx.Signals(SignalFilter{Types: []SignalType{Overweight}, From: on, To: on})
	if err != nil {
		return nil, fmt.Errorf("cannot list signals: %w", err)
	}
	recorded := make(map[string]bool)
	for _, s := range existing {
		recorded[s.CategoryID()] = true
	}

	var out []Signal
	for _, c := range targeted {
		w, target := weights[c.ID], c.TargetWeight.InexactFloat64()
		if w <= target+e.settings.OverweightBand || recorded[c.ID] {
			continue
		}
		s := Signal{
			Date:    on,
			Level:   Medium,
			Type:    Overweight,
			Scope:   CategoryScope(c.ID),
			Message: fmt.Sprintf("category weight %s above target %s", Ratio(w), Ratio(target)),
		}
		if err := tx.InsertSignal(&s); err != nil {
			return nil, fmt.Errorf("cannot insert signal: %w", err)
		}
		log.Info().Str("category", c.ID).Float64("weight", w).Msg("overweight recorded")
		out = append(out, s)
	}
	return out, nil
}
