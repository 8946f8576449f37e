// Package display formats record fields for presentation: currency and
// date rendering, similarity levels, and preview truncation. These mirror
// what the result cards show; the raw values stay untouched on the record.
package display

import (
	"math"
	"strconv"
	"time"
)

// Absent is the placeholder shown for missing values.
const Absent = "Не указано"

// Similarity level labels, thresholds matching the result card legend.
const (
	LevelVeryHigh = "Очень высокая"
	LevelHigh     = "Высокая"
	LevelMedium   = "Средняя"
	LevelLow      = "Низкая"
)

// Currency renders an amount in tenge with space-grouped thousands,
// truncating fractional tiyn. NaN marks an absent amount.
func Currency(amount float64) string {
	if math.IsNaN(amount) {
		return Absent
	}
	return groupThousands(int64(amount)) + " ₸"
}

// Date renders a publish date as dd.mm.yyyy. The zero time is absent.
func Date(t time.Time) string {
	if t.IsZero() {
		return Absent
	}
	return t.Format("02.01.2006")
}

// SimilarityLevel maps a similarity score to its display label.
func SimilarityLevel(score float64) string {
	switch {
	case score >= 0.8:
		return LevelVeryHigh
	case score >= 0.7:
		return LevelHigh
	case score >= 0.5:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Truncate shortens s to at most max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func groupThousands(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
