package perturb

import "testing"

// TestLevelProbabilities verifies the named level table.
func TestLevelProbabilities(t *testing.T) {
	cases := map[string]float64{"light": 0.1, "Medium": 0.2, " severe ": 0.4}
	for name, want := range cases {
		sev, ok := Level(name)
		if !ok {
			t.Fatalf("expected %q to be known", name)
		}
		if sev.Probability() != want {
			t.Fatalf("%q: expected %v, got %v", name, want, sev.Probability())
		}
	}
}

// TestLevelFallsBackToMedium verifies unknown names use the default level.
func TestLevelFallsBackToMedium(t *testing.T) {
	sev, ok := Level("extreme")
	if ok {
		t.Fatalf("expected unknown level")
	}
	if sev.Label() != LevelMedium || sev.Probability() != 0.2 {
		t.Fatalf("expected medium fallback, got %s (%v)", sev.Label(), sev.Probability())
	}
}

// TestParseSeverity verifies names and numeric probabilities.
func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity("0.25")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sev.Probability() != 0.25 || sev.Label() != "0.25" {
		t.Fatalf("unexpected severity %s (%v)", sev.Label(), sev.Probability())
	}
	if _, err := ParseSeverity("1.5"); err == nil {
		t.Fatalf("expected range error")
	}
	sev, err = ParseSeverity("bogus")
	if err != nil || sev.Label() != LevelMedium {
		t.Fatalf("expected medium fallback, got %s (%v)", sev.Label(), err)
	}
	if IsKnownLevel("bogus") || !IsKnownLevel("light") || !IsKnownLevel("0.3") {
		t.Fatalf("unexpected IsKnownLevel result")
	}
}

// TestSeverityTextRoundTrip verifies labels survive text encoding.
func TestSeverityTextRoundTrip(t *testing.T) {
	sev, _ := Level(LevelSevere)
	text, err := sev.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Severity
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != sev {
		t.Fatalf("expected %v, got %v", sev, decoded)
	}
}
