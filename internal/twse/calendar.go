package twse

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// TradingDay is a calendar date confirmed (or assumed, in degraded mode) to
// have market activity.
type TradingDay struct {
	Time time.Time
}

// YMD returns the compact Gregorian form used in API query parameters.
func (d TradingDay) YMD() string { return d.Time.Format("20060102") }

// ISO returns the ISO date form used in the snapshot document.
func (d TradingDay) ISO() string { return d.Time.Format("2006-01-02") }

// ROC returns the era-offset locale encoding used in API row data.
func (d TradingDay) ROC() string {
	return fmt.Sprintf("%d/%02d/%02d", d.Time.Year()-1911, int(d.Time.Month()), d.Time.Day())
}

// CalendarResult holds the two resolved trading days. Degraded is set when
// no trading day was confirmed within the lookback window and the dates are
// unverified fallbacks; downstream records for those dates will simply come
// back absent.
type CalendarResult struct {
	Latest   TradingDay
	Previous TradingDay
	Degraded bool
}

// IsTradingDay probes the market-activity source for the given date. Any
// probe failure (transport error, malformed response, error stat, empty
// dataset) counts as "not a trading day".
func (c *Client) IsTradingDay(ctx context.Context, day time.Time) bool {
	params := url.Values{}
	params.Set("type", "ALLBUT0999")
	params.Set("date", ymd(day))

	var resp miIndexResponse
	if err := c.getJSON(ctx, "/exchangeReport/MI_INDEX", params, &resp); err != nil {
		if c.logger != nil {
			c.logger.Debug().Err(err).Str("date", ymd(day)).Msg("Trading-day probe failed")
		}
		return false
	}
	return statOK(resp.Stat) && resp.hasData()
}

// ResolveTradingDays determines the most recent trading day and the one
// before it, scanning backward from today within maxLookback days. The
// previous day is confirmed independently, scanning up to maxLookback+2
// days back from the latest. If nothing within the window is confirmed the
// result falls back to today / the day before, flagged Degraded.
func (c *Client) ResolveTradingDays(ctx context.Context, today time.Time, maxLookback int) CalendarResult {
	var result CalendarResult

	latestFound := false
	for i := 0; i < maxLookback; i++ {
		d := today.AddDate(0, 0, -i)
		if c.IsTradingDay(ctx, d) {
			result.Latest = TradingDay{Time: d}
			latestFound = true
			break
		}
	}
	if !latestFound {
		result.Latest = TradingDay{Time: today}
		result.Degraded = true
	}

	prevFound := false
	for i := 1; i <= maxLookback+2; i++ {
		d := result.Latest.Time.AddDate(0, 0, -i)
		if c.IsTradingDay(ctx, d) {
			result.Previous = TradingDay{Time: d}
			prevFound = true
			break
		}
	}
	if !prevFound {
		result.Previous = TradingDay{Time: result.Latest.Time.AddDate(0, 0, -1)}
		result.Degraded = true
	}

	if c.logger != nil {
		c.logger.Info().
			Str("latest", result.Latest.ISO()).
			Str("previous", result.Previous.ISO()).
			Bool("degraded", result.Degraded).
			Msg("Resolved trading days")
	}
	return result
}
