package folio

// Structural turning points are counted against the close four bars
// earlier, nine bars in a row.
const (
	structureLookback = 4
	structureCount    = 9
	// StructureMinBars is the shortest series that can produce a signal.
	StructureMinBars = structureLookback + structureCount
)

// StructureEvent is a turning point found at Index of a close series.
type StructureEvent struct {
	Index int
	Type  SignalType
}

// ScanStructure walks closes forward and returns every structural turning
// point. A close strictly below the close four bars earlier extends the
// down count and resets the up count, and symmetrically. An unchanged
// close resets both. BUY_STRUCTURE fires when the down count steps from 8
// to 9, SELL_STRUCTURE when the up count does.
func ScanStructure(closes []float64) []StructureEvent {
	if len(closes) < StructureMinBars {
		return nil
	}
	var events []StructureEvent
	down, up := 0, 0
	for i := structureLookback; i < len(closes); i++ {
		prevDown, prevUp := down, up
		switch c, ref := closes[i], closes[i-structureLookback]; {
		case c < ref:
			down, up = down+1, 0
		case c > ref:
			up, down = up+1, 0
		default:
			down, up = 0, 0
		}
		if down == structureCount && prevDown == structureCount-1 {
			events = append(events, StructureEvent{Index: i, Type: BuyStructure})
		}
		if up == structureCount && prevUp == structureCount-1 {
			events = append(events, StructureEvent{Index: i, Type: SellStructure})
		}
	}
	return events
}

// DetectStructure returns the structural signal firing on the last close
// of the series, if any. Fewer than StructureMinBars closes never fire.
func DetectStructure(closes []float64) (SignalType, bool) {
	events := ScanStructure(closes)
	if n := len(events); n > 0 && events[n-1].Index == len(closes)-1 {
		return events[n-1].Type, true
	}
	return "", false
}
