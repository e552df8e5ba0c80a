package emotion

import "testing"

func TestParseFilterNormalizesAndDropsUnknown(t *testing.T) {
	t.Parallel()

	f := ParseFilter(" Anger, joy ,bogus,JOY")
	if !f.Active() {
		t.Fatalf("filter should be active")
	}
	got := f.Labels()
	if len(got) != 2 || got[0] != Joy || got[1] != Anger {
		t.Fatalf("labels got %v want [joy anger]", got)
	}
	if f.Allows(Fear) {
		t.Fatalf("fear should not be allowed")
	}
}

func TestParseFilterOnlyUnknownStaysRestrictive(t *testing.T) {
	t.Parallel()

	f := ParseFilter("bogus,nope")
	if !f.Active() {
		t.Fatalf("filter with only unknown labels must stay active")
	}
	if got := len(f.Labels()); got != 0 {
		t.Fatalf("labels count got %d want 0", got)
	}
	for _, l := range Labels() {
		if f.Allows(l) {
			t.Fatalf("label %s should not be allowed", l)
		}
	}
	if got, want := f.String(), "none"; got != want {
		t.Fatalf("String got %q want %q", got, want)
	}
}

func TestParseFilterBlankSelectsAll(t *testing.T) {
	t.Parallel()

	f := ParseFilter("  ")
	if f.Active() {
		t.Fatalf("blank filter should be inactive")
	}
	if got, want := len(f.Labels()), 6; got != want {
		t.Fatalf("labels count got %d want %d", got, want)
	}
	if f.Allows(Label("bogus")) {
		t.Fatalf("unknown label must never be allowed")
	}
}

func TestParseFilterOnlySeparatorsSelectsAll(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{",", " , ,", ",\t,"} {
		f := ParseFilter(raw)
		if f.Active() {
			t.Fatalf("ParseFilter(%q) should be inactive", raw)
		}
		if got, want := len(f.Labels()), 6; got != want {
			t.Fatalf("ParseFilter(%q) labels count got %d want %d", raw, got, want)
		}
	}
}

func TestNewFilterWithoutLabelsSelectsNothing(t *testing.T) {
	t.Parallel()

	f := NewFilter()
	if !f.Active() || len(f.Labels()) != 0 {
		t.Fatalf("NewFilter() got active=%v labels=%v", f.Active(), f.Labels())
	}
}

func TestDominantBreaksTiesByFixedOrder(t *testing.T) {
	t.Parallel()

	s := Scores{Fear: 0.4, Joy: 0.4, Anger: 0.2}
	if got, want := s.Dominant(), Joy; got != want {
		t.Fatalf("Dominant got %s want %s", got, want)
	}
	if got := (Scores{}).Dominant(); got != "" {
		t.Fatalf("empty Dominant got %q want empty", got)
	}
}

func TestScoresFromListIgnoresUnknownLabels(t *testing.T) {
	t.Parallel()

	s := ScoresFromList([]Score{{Label: "JOY", Score: 0.9}, {Label: "neutral", Score: 0.5}})
	if len(s) != 1 || s[Joy] != 0.9 {
		t.Fatalf("scores got %v", s)
	}
	ordered := s.Ordered()
	if len(ordered) != 6 || ordered[1].Label != Joy || ordered[0].Score != 0 {
		t.Fatalf("ordered got %v", ordered)
	}
}
