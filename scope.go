package folio

import (
	"fmt"
	"slices"
)

// ScopeType is the persisted discriminator of a Scope.
type ScopeType string

const (
	ScopeInstrument      ScopeType = "INSTRUMENT"
	ScopeCategory        ScopeType = "CATEGORY"
	ScopeMultiInstrument ScopeType = "MULTI_INSTRUMENT"
	ScopeMultiCategory   ScopeType = "MULTI_CATEGORY"
	ScopeAllInstruments  ScopeType = "ALL_INSTRUMENTS"
	ScopeAllCategories   ScopeType = "ALL_CATEGORIES"
)

// Scope is the targeting rule of a signal. It is one of InstrumentScope,
// CategoryScope, MultiInstrumentScope, MultiCategoryScope,
// AllInstrumentsScope or AllCategoriesScope.
type Scope interface {
	Type() ScopeType
	// Matches reports whether the scope applies to the instrument.
	Matches(i Instrument) bool
	scope()
}

// InstrumentScope targets one instrument code.
type InstrumentScope string

// CategoryScope targets every instrument of one category.
type CategoryScope string

// MultiInstrumentScope targets a list of instrument codes.
type MultiInstrumentScope []string

// MultiCategoryScope targets a list of category ids.
type MultiCategoryScope []string

// AllInstrumentsScope targets every active instrument.
type AllInstrumentsScope struct{}

// AllCategoriesScope targets every instrument that belongs to a category.
type AllCategoriesScope struct{}

func (InstrumentScope) Type() ScopeType      { return ScopeInstrument }
func (CategoryScope) Type() ScopeType        { return ScopeCategory }
func (MultiInstrumentScope) Type() ScopeType { return ScopeMultiInstrument }
func (MultiCategoryScope) Type() ScopeType   { return ScopeMultiCategory }
func (AllInstrumentsScope) Type() ScopeType  { return ScopeAllInstruments }
func (AllCategoriesScope) Type() ScopeType   { return ScopeAllCategories }

func (s InstrumentScope) Matches(i Instrument) bool      { return string(s) == i.Code }
func (s MultiInstrumentScope) Matches(i Instrument) bool { return slices.Contains(s, i.Code) }
func (AllInstrumentsScope) Matches(i Instrument) bool    { return i.Active }

func (s CategoryScope) Matches(i Instrument) bool {
	return i.CategoryID != "" && string(s) == i.CategoryID
}

func (s MultiCategoryScope) Matches(i Instrument) bool {
	return i.CategoryID != "" && slices.Contains(s, i.CategoryID)
}

func (AllCategoriesScope) Matches(i Instrument) bool { return i.CategoryID != "" }

func (InstrumentScope) scope()      {}
func (CategoryScope) scope()        {}
func (MultiInstrumentScope) scope() {}
func (MultiCategoryScope) scope()   {}
func (AllInstrumentsScope) scope()  {}
func (AllCategoriesScope) scope()   {}

// EncodeScope flattens s into its persisted (scope_type, scope_data) shape.
func EncodeScope(s Scope) (ScopeType, []string) {
	switch s := s.(type) {
	case InstrumentScope:
		return ScopeInstrument, []string{string(s)}
	case CategoryScope:
		return ScopeCategory, []string{string(s)}
	case MultiInstrumentScope:
		return ScopeMultiInstrument, slices.Clone(s)
	case MultiCategoryScope:
		return ScopeMultiCategory, slices.Clone(s)
	case AllInstrumentsScope:
		return ScopeAllInstruments, nil
	case AllCategoriesScope:
		return ScopeAllCategories, nil
	default:
		panic(fmt.Sprintf("unknown scope %T", s))
	}
}

// DecodeScope rebuilds a Scope from its persisted shape.
func DecodeScope(typ ScopeType, data []string) (Scope, error) {
	switch typ {
	case ScopeInstrument, ScopeCategory:
		if len(data) != 1 || data[0] == "" {
			return nil, invalid("scope_data", "%s scope requires exactly one identifier, got %d", typ, len(data))
		}
		if typ == ScopeInstrument {
			return InstrumentScope(data[0]), nil
		}
		return CategoryScope(data[0]), nil
	case ScopeMultiInstrument, ScopeMultiCategory:
		if len(data) == 0 {
			return nil, invalid("scope_data", "%s scope requires at least one identifier", typ)
		}
		if typ == ScopeMultiInstrument {
			return MultiInstrumentScope(slices.Clone(data)), nil
		}
		return MultiCategoryScope(slices.Clone(data)), nil
	case ScopeAllInstruments:
		return AllInstrumentsScope{}, nil
	case ScopeAllCategories:
		return AllCategoriesScope{}, nil
	default:
		return nil, invalid("scope_type", "unknown scope type %q", typ)
	}
}

// MatchScope returns the signals whose scope applies to the instrument,
// in input order. Each signal matches at most once.
func MatchScope(signals []Signal, i Instrument) []Signal {
	var matched []Signal
	for _, s := range signals {
		if s.Scope != nil && s.Scope.Matches(i) {
			matched = append(matched, s)
		}
	}
	return matched
}

// referenced returns the instrument codes and category ids named by s.
func referenced(s Scope) (codes, categories []string) {
	switch s := s.(type) {
	case InstrumentScope:
		return []string{string(s)}, nil
	case MultiInstrumentScope:
		return s, nil
	case CategoryScope:
		return nil, []string{string(s)}
	case MultiCategoryScope:
		return nil, s
	}
	return nil, nil
}
