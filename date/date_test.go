package date

import "testing"

func TestParseFrom(t *testing.T) {
	today := New(2025, 8, 15)
	tests := []struct {
		in   string
		want Date
	}{
		{"2025-7-1", New(2025, 7, 1)},
		{"2024-02-29", New(2024, 2, 29)},
		{"0d", today},
		{"-1d", New(2025, 8, 14)},
		{"+2w", New(2025, 8, 29)},
		{"-1m", New(2025, 7, 15)},
		{"-1y", New(2024, 8, 15)},
		{"3", New(2025, 8, 3)},
		{"2-10", New(2025, 2, 10)},
		{"0", New(2025, 7, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFrom(tt.in, today)
			if err != nil {
				t.Fatalf("ParseFrom(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFrom(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseFrom("yesterday", today); err == nil {
		t.Errorf("ParseFrom(%q) expected an error", "yesterday")
	}
}

func TestCompareAndDays(t *testing.T) {
	a, b := New(2024, 12, 31), New(2025, 1, 1)
	if !a.Before(b) || !b.After(a) || a.Compare(a) != 0 {
		t.Errorf("Compare(%v, %v) ordering is wrong", a, b)
	}
	if got := New(2025, 3, 1).DaysSince(New(2024, 3, 1)); got != 365 {
		t.Errorf("DaysSince() = %d, want 365", got)
	}
	if got := New(2024, 3, 1).Add(-1); got != New(2024, 2, 29) {
		t.Errorf("Add(-1) = %v, want 2024-02-29", got)
	}
	if got := NewRange(b, a).Len(); got != 2 {
		t.Errorf("Range.Len() = %d, want 2", got)
	}
}

func TestJSON(t *testing.T) {
	d := New(2025, 7, 1)
	b, err := d.MarshalJSON()
	if err != nil || string(b) != `"2025-07-01"` {
		t.Fatalf("MarshalJSON() = %s, %v", b, err)
	}
	var got Date
	if err := got.UnmarshalJSON([]byte(`"2025-7-1"`)); err != nil || got != d {
		t.Errorf("UnmarshalJSON() = %v, %v want %v", got, err, d)
	}
	if err := got.UnmarshalJSON([]byte(`""`)); err != nil || !got.IsZero() {
		t.Errorf("UnmarshalJSON(\"\") = %v, %v want zero", got, err)
	}
}
