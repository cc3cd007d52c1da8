package folio

import "testing"

// falling returns n closes decreasing by one from start.
func falling(start float64, n int) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = start - float64(i)
	}
	return c
}

func TestDetectStructure(t *testing.T) {
	closes := falling(100, StructureMinBars)
	if typ, ok := DetectStructure(closes[:StructureMinBars-1]); ok {
		t.Errorf("DetectStructure(12 closes) = %s, want none", typ)
	}
	typ, ok := DetectStructure(closes)
	if !ok || typ != BuyStructure {
		t.Errorf("DetectStructure(13 falling closes) = %s, %v, want %s", typ, ok, BuyStructure)
	}

	// the tenth close in a row does not fire again
	if typ, ok := DetectStructure(falling(100, StructureMinBars+1)); ok {
		t.Errorf("DetectStructure(14 falling closes) = %s, want none", typ)
	}

	rising := make([]float64, StructureMinBars)
	for i := range rising {
		rising[i] = float64(i)
	}
	if typ, ok := DetectStructure(rising); !ok || typ != SellStructure {
		t.Errorf("DetectStructure(13 rising closes) = %s, %v, want %s", typ, ok, SellStructure)
	}
}

func TestScanStructureEqualCloseResets(t *testing.T) {
	closes := falling(100, 20)
	// close 8 equals the close four bars earlier
	closes[8] = closes[4]
	if events := ScanStructure(closes[:StructureMinBars]); len(events) != 0 {
		t.Errorf("ScanStructure() = %v, want no event", events)
	}

	// the count restarts at close 9 and reaches nine at close 17
	events := ScanStructure(closes)
	if len(events) != 1 || events[0].Index != 17 || events[0].Type != BuyStructure {
		t.Errorf("ScanStructure() = %v, want BUY_STRUCTURE at 17", events)
	}
}
