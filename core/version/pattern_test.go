package version

import "testing"

func TestMatchesExact(t *testing.T) {
	if !Matches("2.3.1", "2.3.1") {
		t.Fatal("expected exact match")
	}
	if Matches("2.3.1", "2.3.2") {
		t.Fatal("expected exact mismatch")
	}
}

func TestMatchesMinorWildcard(t *testing.T) {
	if !Matches("2.3", "2.3.9") {
		t.Fatal("expected 2.3 to match 2.3.9")
	}
	if Matches("2.3", "2.4.0") {
		t.Fatal("expected 2.3 to not match 2.4.0")
	}
}

func TestMatchesMajorWildcard(t *testing.T) {
	if !Matches("2.x", "2.9.9") {
		t.Fatal("expected 2.x to match 2.9.9")
	}
	if Matches("2.x", "3.0.0") {
		t.Fatal("expected 2.x to not match 3.0.0")
	}
}

func TestMatchesRange(t *testing.T) {
	if !Matches("1-3", "2.0.0") {
		t.Fatal("expected 1-3 to match major 2")
	}
	if Matches("1-3", "4.0.0") {
		t.Fatal("expected 1-3 to not match major 4")
	}
}

func TestMatchesPlus(t *testing.T) {
	if !Matches("2+", "5.0.0") {
		t.Fatal("expected 2+ to match major 5")
	}
	if Matches("2+", "1.9.9") {
		t.Fatal("expected 2+ to not match major 1")
	}
}

func TestSelectAdapterPrecedence(t *testing.T) {
	adapters := map[string]string{
		"1.x": "P1",
		"2.x": "P2",
	}

	id, ok := SelectAdapter("1.4.2", adapters)
	if !ok || id != "P1" {
		t.Fatalf("want P1, got %q ok=%v", id, ok)
	}

	id, ok = SelectAdapter("2.0.0", adapters)
	if !ok || id != "P2" {
		t.Fatalf("want P2, got %q ok=%v", id, ok)
	}
}

func TestSelectAdapterExactBeatsWildcard(t *testing.T) {
	adapters := map[string]string{
		"2.x":   "generic",
		"2.3.1": "specific",
		"2.3":   "mid",
	}

	id, ok := SelectAdapter("2.3.1", adapters)
	if !ok || id != "specific" {
		t.Fatalf("want specific, got %q ok=%v", id, ok)
	}
}

func TestSelectAdapterNoMatch(t *testing.T) {
	_, ok := SelectAdapter("5.0.0", map[string]string{"1.x": "P1"})
	if ok {
		t.Fatal("expected no match")
	}
}
