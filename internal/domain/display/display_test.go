package display

import (
	"math"
	"testing"
	"time"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1234567.89, "1 234 567 ₸"},
		{999, "999 ₸"},
		{0, "0 ₸"},
		{1000, "1 000 ₸"},
		{math.NaN(), Absent},
	}
	for _, tt := range tests {
		if got := Currency(tt.in); got != tt.want {
			t.Fatalf("Currency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	d := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	if got := Date(d); got != "07.03.2024" {
		t.Fatalf("Date = %q, want 07.03.2024", got)
	}
	if got := Date(time.Time{}); got != Absent {
		t.Fatalf("Date(zero) = %q, want %q", got, Absent)
	}
}

func TestSimilarityLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.95, LevelVeryHigh},
		{0.8, LevelVeryHigh},
		{0.75, LevelHigh},
		{0.6, LevelMedium},
		{0.5, LevelMedium},
		{0.49, LevelLow},
	}
	for _, tt := range tests {
		if got := SimilarityLevel(tt.score); got != tt.want {
			t.Fatalf("SimilarityLevel(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("короткий", 80); got != "короткий" {
		t.Fatalf("Truncate short = %q", got)
	}
	if got := Truncate("бензин аи 92", 6); got != "бензин..." {
		t.Fatalf("Truncate = %q, want %q", got, "бензин...")
	}
	if got := Truncate("x", 0); got != "" {
		t.Fatalf("Truncate(max=0) = %q, want empty", got)
	}
}
