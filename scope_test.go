package folio

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/etnz/folio/date"
)

func TestScopeMatches(t *testing.T) {
	mcd := Instrument{Code: "MCD", CategoryID: "food", Active: true}
	old := Instrument{Code: "OLD", CategoryID: "tech"}
	bare := Instrument{Code: "BARE", Active: true}

	tests := []struct {
		scope Scope
		want  []bool // mcd, old, bare
	}{
		{InstrumentScope("MCD"), []bool{true, false, false}},
		{MultiInstrumentScope{"OLD", "BARE"}, []bool{false, true, true}},
		{CategoryScope("food"), []bool{true, false, false}},
		{MultiCategoryScope{"food", "tech"}, []bool{true, true, false}},
		{AllInstrumentsScope{}, []bool{true, false, true}},
		{AllCategoriesScope{}, []bool{true, true, false}},
	}
	for _, tt := range tests {
		for i, ins := range []Instrument{mcd, old, bare} {
			if got := tt.scope.Matches(ins); got != tt.want[i] {
				t.Errorf("%s.Matches(%s) = %v, want %v", tt.scope.Type(), ins.Code, got, tt.want[i])
			}
		}
	}
}

func TestMatchScope(t *testing.T) {
	signals := []Signal{
		{ID: 1, Scope: InstrumentScope("KO")},
		{ID: 2, Scope: CategoryScope("food")},
		{ID: 3, Scope: AllInstrumentsScope{}},
		{ID: 4, Scope: MultiInstrumentScope{"MCD", "MCD"}},
	}
	got := MatchScope(signals, Instrument{Code: "MCD", CategoryID: "food", Active: true})
	if len(got) != 3 || got[0].ID != 2 || got[1].ID != 3 || got[2].ID != 4 {
		t.Errorf("MatchScope() = %v, want signals 2, 3 and 4", got)
	}
}

func TestDecodeScope(t *testing.T) {
	for _, bad := range []struct {
		typ  ScopeType
		data []string
	}{
		{ScopeInstrument, nil},
		{ScopeInstrument, []string{"A", "B"}},
		{ScopeCategory, []string{""}},
		{ScopeMultiCategory, nil},
		{"EVERYTHING", nil},
	} {
		if _, err := DecodeScope(bad.typ, bad.data); err == nil {
			t.Errorf("DecodeScope(%s, %v) expected an error", bad.typ, bad.data)
		}
	}
}

func TestSignalJSON(t *testing.T) {
	s := Signal{ID: 3, Date: date.New(2025, 3, 14), Level: High, Type: StopLoss, Scope: InstrumentScope("MCD"), Message: "down"}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"id":3,"date":"2025-03-14","level":"HIGH","type":"STOP_LOSS","scope_type":"INSTRUMENT","scope_data":["MCD"],"code":"MCD","message":"down"}`
	if string(b) != want {
		t.Errorf("Marshal() = %s, want %s", b, want)
	}

	var got Signal
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Scope != InstrumentScope("MCD") || got.Date != s.Date || got.Message != "down" {
		t.Errorf("Unmarshal() = %+v", got)
	}

	b, _ = json.Marshal(Signal{ID: 4, Date: s.Date, Level: Info, Type: "NOTE", Scope: AllCategoriesScope{}})
	want = `{"id":4,"date":"2025-03-14","level":"INFO","type":"NOTE","scope_type":"ALL_CATEGORIES"}`
	if string(b) != want {
		t.Errorf("Marshal() = %s, want %s", b, want)
	}

	if _, err := json.Marshal(Signal{ID: 5, Date: s.Date, Level: Info, Type: "NOTE"}); !errors.Is(err, ErrNoScope) {
		t.Errorf("Marshal() of a signal without scope: error = %v, want %v", err, ErrNoScope)
	}
}
