package folio

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Settings are the tunables of the ledger and signal engines.
type Settings struct {
	StopGainPct    float64
	StopLossPct    float64
	OverweightBand float64
	// CashCode is the instrument code holding the cash balance.
	CashCode string
	Currency string
	// LookbackDays is the stop-gain/stop-loss de-duplication window, in calendar days.
	LookbackDays int
	// StructureWindow is the structural de-duplication window, in trading days.
	StructureWindow int
	// EnforceCashBalance rejects trades whose cash mirror would overdraw cash.
	// Off by default: a negative balance is allowed.
	EnforceCashBalance bool
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		StopGainPct:        0.20,
		StopLossPct:        0.10,
		OverweightBand:     0.05,
		CashCode:           "CASH",
		Currency:           "USD",
		LookbackDays:       30,
		StructureWindow:    9,
		EnforceCashBalance: false,
	}
}

// Setting keys as stored in the configuration table.
const (
	KeyStopGainPct        = "stop_gain_pct"
	KeyStopLossPct        = "stop_loss_pct"
	KeyOverweightBand     = "overweight_band"
	KeyCashCode           = "cash_code"
	KeyCurrency           = "currency"
	KeyLookbackDays       = "lookback_days"
	KeyStructureWindow    = "structure_window"
	KeyEnforceCashBalance = "enforce_cash_balance"
)

// SettingKeys lists the keys accepted by Settings.Set.
var SettingKeys = []string{
	KeyStopGainPct, KeyStopLossPct, KeyOverweightBand, KeyCashCode, KeyCurrency,
	KeyLookbackDays, KeyStructureWindow, KeyEnforceCashBalance,
}

// Set parses value into the setting named key.
func (s *Settings) Set(key, value string) error {
	var err error
	switch key {
	case KeyStopGainPct:
		s.StopGainPct, err = parseRate(value)
	case KeyStopLossPct:
		s.StopLossPct, err = parseRate(value)
	case KeyOverweightBand:
		s.OverweightBand, err = parseRate(value)
	case KeyCashCode:
		if value == "" {
			err = fmt.Errorf("cash code must not be empty")
		}
		s.CashCode = value
	case KeyCurrency:
		s.Currency = value
	case KeyLookbackDays:
		s.LookbackDays, err = parsePositive(value)
	case KeyStructureWindow:
		s.StructureWindow, err = parsePositive(value)
	case KeyEnforceCashBalance:
		s.EnforceCashBalance, err = strconv.ParseBool(value)
	default:
		return invalid("setting", "unknown key %q", key)
	}
	if err != nil {
		return invalid(key, "%v", err)
	}
	return nil
}

// Apply sets every key of kv, in key order.
func (s *Settings) Apply(kv map[string]string) error {
	for _, k := range slices.Sorted(maps.Keys(kv)) {
		if err := s.Set(k, kv[k]); err != nil {
			return err
		}
	}
	return nil
}

// Map returns the settings as key/value strings.
func (s Settings) Map() map[string]string {
	return map[string]string{
		KeyStopGainPct:        strconv.FormatFloat(s.StopGainPct, 'f', -1, 64),
		KeyStopLossPct:        strconv.FormatFloat(s.StopLossPct, 'f', -1, 64),
		KeyOverweightBand:     strconv.FormatFloat(s.OverweightBand, 'f', -1, 64),
		KeyCashCode:           s.CashCode,
		KeyCurrency:           s.Currency,
		KeyLookbackDays:       strconv.Itoa(s.LookbackDays),
		KeyStructureWindow:    strconv.Itoa(s.StructureWindow),
		KeyEnforceCashBalance: strconv.FormatBool(s.EnforceCashBalance),
	}
}

func parseRate(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("must not be negative, got %v", f)
	}
	return f, nil
}

func parsePositive(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
