package folio

import (
	"fmt"
	"strings"
)

// Action is the kind of a ledger transaction.
type Action string

const (
	Buy      Action = "BUY"
	Sell     Action = "SELL"
	Dividend Action = "DIV"
	Fee      Action = "FEE"
	Adjust   Action = "ADJ"
)

// Actions lists every valid action.
var Actions = []Action{Buy, Sell, Dividend, Fee, Adjust}

// ParseAction parses an action name, case insensitive. "dividend" and
// "adjust" are accepted as long forms.
func ParseAction(s string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	case "DIV", "DIVIDEND":
		return Dividend, nil
	case "FEE":
		return Fee, nil
	case "ADJ", "ADJUST":
		return Adjust, nil
	default:
		return "", invalid("action", "unknown action %q", s)
	}
}

func (a Action) String() string { return string(a) }

// Valid reports whether a is one of Actions.
func (a Action) Valid() bool {
	switch a {
	case Buy, Sell, Dividend, Fee, Adjust:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return fmt.Errorf("cannot decode action: %w", err)
	}
	*a = v
	return nil
}
