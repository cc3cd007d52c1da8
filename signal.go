package folio

import (
	"fmt"

	"github.com/etnz/folio/date"
)

// Level is the severity of a signal.
type Level string

const (
	High   Level = "HIGH"
	Medium Level = "MEDIUM"
	Low    Level = "LOW"
	Info   Level = "INFO"
)

// Valid reports whether l is a known level.
func (l Level) Valid() bool { return l == High || l == Medium || l == Low || l == Info }

// SignalType identifies what raised a signal. Types other than the
// predefined ones are free-form labels of manual signals.
type SignalType string

const (
	StopGain      SignalType = "STOP_GAIN"
	StopLoss      SignalType = "STOP_LOSS"
	BuyStructure  SignalType = "BUY_STRUCTURE"
	SellStructure SignalType = "SELL_STRUCTURE"
	Overweight    SignalType = "OVERWEIGHT"
)

// DerivedTypes are the signal types recomputed by a rebuild.
var DerivedTypes = []SignalType{StopGain, StopLoss, BuyStructure, SellStructure}

// Signal is one persisted alert row.
type Signal struct {
	ID      uint64     `json:"id"`
	Date    date.Date  `json:"date"`
	Level   Level      `json:"level"`
	Type    SignalType `json:"type"`
	Scope   Scope      `json:"-"`
	Message string     `json:"message,omitempty"`
}

// Code returns the single instrument of an INSTRUMENT scope with one element.
func (s Signal) Code() string {
	if sc, ok := s.Scope.(InstrumentScope); ok {
		return string(sc)
	}
	return ""
}

// CategoryID returns the single category of a CATEGORY scope with one element.
func (s Signal) CategoryID() string {
	if sc, ok := s.Scope.(CategoryScope); ok {
		return string(sc)
	}
	return ""
}

// MarshalJSON writes the signal with its scope flattened into scope_type
// and scope_data, plus the single valued code or category.
func (s Signal) MarshalJSON() ([]byte, error) {
	if s.Scope == nil {
		return nil, fmt.Errorf("signal %d: %w", s.ID, ErrNoScope)
	}
	typ, data := EncodeScope(s.Scope)
	var w jsonObjectWriter
	w.Append("id", s.ID)
	w.Append("date", s.Date)
	w.Append("level", s.Level)
	w.Append("type", s.Type)
	w.Append("scope_type", typ)
	w.Optional("scope_data", data)
	w.Optional("code", s.Code())
	w.Optional("category", s.CategoryID())
	w.Optional("message", s.Message)
	return w.MarshalJSON()
}

// UnmarshalJSON reads what MarshalJSON writes.
func (s *Signal) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID        uint64     `json:"id"`
		Date      date.Date  `json:"date"`
		Level     Level      `json:"level"`
		Type      SignalType `json:"type"`
		ScopeType ScopeType  `json:"scope_type"`
		ScopeData []string   `json:"scope_data"`
		Code      string     `json:"code"`
		Category  string     `json:"category"`
		Message   string     `json:"message"`
	}
	if err := decodeStrict(b, &raw); err != nil {
		return err
	}
	scope, err := DecodeScope(raw.ScopeType, raw.ScopeData)
	if err != nil {
		return err
	}
	*s = Signal{ID: raw.ID, Date: raw.Date, Level: raw.Level, Type: raw.Type, Scope: scope, Message: raw.Message}
	return nil
}
