package utils

import (
	"strings"
	"testing"
)

func TestFormatISODuration(t *testing.T) {
	cases := []struct{ in, want string }{
		{"PT2H30M", "2 hours 30 minutes"},
		{"PT1H1M", "1 hour 1 minute"},
		{"PT45M", "45 minutes"},
		{"PT3H", "3 hours"},
		{" pt2h5m ", "2 hours 5 minutes"},
	}
	for _, tc := range cases {
		if got := FormatISODuration(tc.in); got != tc.want {
			t.Errorf("FormatISODuration(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	// Anything the parser can't place is passed through for the prompt to use as-is.
	for _, raw := range []string{"", "2h30m", "PT", "P1DT2H"} {
		if got := FormatISODuration(raw); got != strings.TrimSpace(raw) && got != raw {
			t.Errorf("FormatISODuration(%q) = %q, want input unchanged", raw, got)
		}
	}
}

func TestFormatClock12(t *testing.T) {
	cases := []struct{ in, want string }{
		{"14:30", "2:30 PM"},
		{"00:05", "12:05 AM"},
		{"12:00", "12:00 PM"},
		{"09:07", "9:07 AM"},
		{"23:59", "11:59 PM"},
		{"2026-10-01T14:30:00", "2:30 PM"},
		{"2026-10-01T06:15:00", "6:15 AM"},
	}
	for _, tc := range cases {
		if got := FormatClock12(tc.in); got != tc.want {
			t.Errorf("FormatClock12(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := FormatClock12("25:00"); got != "25:00" {
		t.Errorf("FormatClock12(25:00) = %q, want input unchanged", got)
	}
	if got := FormatClock12("noonish"); got != "noonish" {
		t.Errorf("FormatClock12(noonish) = %q, want input unchanged", got)
	}
}

func TestSpellPhonetic(t *testing.T) {
	got := SpellPhonetic("Q4X")
	want := "Q as in Quebec, 4, X as in X-ray"
	if got != want {
		t.Fatalf("SpellPhonetic(Q4X) = %q, want %q", got, want)
	}
	// Lowercase input is spelled the same way the booking system prints it.
	if got := SpellPhonetic("ab2"); !strings.Contains(got, "A as in Alpha") || !strings.Contains(got, "B as in Bravo") {
		t.Errorf("SpellPhonetic(ab2) = %q", got)
	}
	// Characters outside the code alphabet are dropped, not read as noise.
	if got := SpellPhonetic("Q-4 X"); got != want {
		t.Errorf("SpellPhonetic with separators = %q, want %q", got, want)
	}
	if got := SpellPhonetic(""); got != "" {
		t.Errorf("SpellPhonetic(empty) = %q, want empty", got)
	}
}
