// Package common provides shared utilities across the application.
package common

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	intPattern   = regexp.MustCompile(`[-+]?\d+`)
	floatPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)
)

// placeholders are the cell values upstream sources use for "no value".
var placeholders = map[string]bool{
	"":   true,
	"-":  true,
	"--": true,
	"—":  true,
	"–":  true,
	"─":  true,
}

// cleanNumeric strips whitespace and thousands separators. Returns ""
// for placeholder cells so callers report the field as absent.
func cleanNumeric(text string) string {
	s := strings.TrimSpace(text)
	if placeholders[s] {
		return ""
	}
	return strings.ReplaceAll(s, ",", "")
}

// ParseInt extracts the first signed integer from locale-formatted text.
// Malformed or placeholder input returns (0, false), never an error.
func ParseInt(text string) (int64, bool) {
	s := cleanNumeric(text)
	if s == "" {
		return 0, false
	}
	m := intPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(m, "+"), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseFloat extracts the first signed decimal from locale-formatted text.
// Malformed or placeholder input returns (0, false), never an error.
func ParseFloat(text string) (float64, bool) {
	s := cleanNumeric(text)
	if s == "" {
		return 0, false
	}
	m := floatPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimPrefix(m, "+"), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// RoundLots converts a share count to board lots (1 lot = 1000 shares),
// rounding half away from zero. Net flows near a .5 lot boundary must
// round outward symmetrically for positive and negative values, so
// banker's rounding is deliberately not used.
func RoundLots(shares int64) int64 {
	lots := shares / 1000
	rem := shares % 1000
	if rem >= 500 {
		lots++
	} else if rem <= -500 {
		lots--
	}
	return lots
}

// FormatSigned renders a number with an explicit leading "+" for positive
// values and trailing fractional zeros trimmed. digits caps the fractional
// precision. No thousands grouping is applied; see GroupThousands.
func FormatSigned(v float64, digits int) string {
	s := strconv.FormatFloat(v, 'f', digits, 64)
	s = trimFraction(s)
	if v > 0 {
		return "+" + s
	}
	return s
}

// FormatNumber renders an unsigned display number with trailing fractional
// zeros trimmed. Whole numbers render without a decimal point.
func FormatNumber(v float64, digits int) string {
	return trimFraction(strconv.FormatFloat(v, 'f', digits, 64))
}

func trimFraction(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// GroupThousands inserts comma separators into the integer part of an
// already-formatted numeric string, preserving any sign and fraction.
func GroupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		sign, s = s[:1], s[1:]
	}
	intPart, frac := s, ""
	if i := strings.Index(s, "."); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}
	var b strings.Builder
	pre := len(intPart) % 3
	if pre > 0 {
		b.WriteString(intPart[:pre])
	}
	for i := pre; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}

// GroupedSignedInt renders an integer with explicit sign and thousands
// separators, the display form used for net flows and position counts.
func GroupedSignedInt(n int64) string {
	return GroupThousands(FormatSigned(float64(n), 0))
}

// GroupedInt renders an unsigned integer display string with thousands
// separators.
func GroupedInt(n int64) string {
	return GroupThousands(strconv.FormatInt(n, 10))
}
