package folio

import "fmt"

// Percent is a ratio expressed in percent (12.5 means 12.5%).
type Percent float64

// Ratio converts a fraction (0.125) into a Percent.
func Ratio(r float64) Percent { return Percent(r * 100) }

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" || res == "-0.00%" {
		return "-"
	}
	return res
}
