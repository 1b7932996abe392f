package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TaipeiZone is the exchange's local time zone (UTC+8, no DST).
var TaipeiZone = time.FixedZone("Asia/Taipei", 8*60*60)

// ROCToISO converts a Republic of China era date such as "114/12/30" to
// ISO form ("2025-12-30"). Returns false for text that does not parse as
// a plausible calendar date; callers discard such rows.
func ROCToISO(roc string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(roc), "/")
	if len(parts) != 3 {
		return "", false
	}
	y, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	m, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	d, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if y <= 0 || m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y+1911, m, d), true
}

// YMDToROC converts a compact Gregorian date ("20251230") to the ROC
// encoding TWSE uses in row data ("114/12/30").
func YMDToROC(ymd string) (string, bool) {
	t, err := time.Parse("20060102", strings.TrimSpace(ymd))
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%d/%02d/%02d", t.Year()-1911, int(t.Month()), t.Day()), true
}

// YMDToISO converts "20251230" to "2025-12-30".
func YMDToISO(ymd string) (string, bool) {
	t, err := time.Parse("20060102", strings.TrimSpace(ymd))
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}
