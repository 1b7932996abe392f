package twse

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ternarybob/marketsnap/internal/common"
)

// Quote holds a security's closing data for one trading day. Each field is
// optional: nil means the source had no value for that period.
type Quote struct {
	Ticker    string
	Close     *float64
	Change    *float64
	ChangePct *float64
}

type quoteRow struct {
	iso    string
	close  *float64
	change *float64
}

// findField returns the index of the first field matching any of the given
// substrings, or -1. Header text drifts across revisions so lookup is by
// keyword, not position.
func findField(fields []string, keywords ...string) int {
	for _, kw := range keywords {
		for i, f := range fields {
			if strings.Contains(f, kw) {
				return i
			}
		}
	}
	return -1
}

// monthRows fetches one calendar month of daily rows for a ticker and
// returns them chronologically sorted. Rows whose date fails conversion are
// discarded, not treated as errors.
func (c *Client) monthRows(ctx context.Context, ticker, anyDayYMD string) ([]quoteRow, error) {
	params := url.Values{}
	params.Set("date", anyDayYMD)
	params.Set("stockNo", ticker)

	var resp stockDayResponse
	if err := c.getJSON(ctx, "/exchangeReport/STOCK_DAY", params, &resp); err != nil {
		return nil, err
	}
	if !statOK(resp.Stat) {
		return nil, fmt.Errorf("STOCK_DAY stat=%s", resp.Stat)
	}

	dateIdx := findField(resp.Fields, "日期")
	closeIdx := findField(resp.Fields, "收盤")
	changeIdx := findField(resp.Fields, "漲跌")
	if dateIdx < 0 {
		dateIdx = 0
	}
	if closeIdx < 0 {
		closeIdx = 6
	}
	if changeIdx < 0 {
		changeIdx = 7
	}

	rows := make([]quoteRow, 0, len(resp.Data))
	for _, raw := range resp.Data {
		if dateIdx >= len(raw) {
			continue
		}
		iso, ok := common.ROCToISO(raw[dateIdx])
		if !ok {
			continue
		}
		row := quoteRow{iso: iso}
		if closeIdx < len(raw) {
			if v, ok := common.ParseFloat(raw[closeIdx]); ok {
				row.close = &v
			}
		}
		if changeIdx < len(raw) {
			if v, ok := common.ParseFloat(raw[changeIdx]); ok {
				row.change = &v
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].iso < rows[j].iso })
	return rows, nil
}

// Quote retrieves close, change and derived percent change for a ticker on
// a trading day. The percent change is computed from the adjacent earlier
// row's close (re-fetching the prior month when the day is the first row of
// its month), and left absent when that close is unavailable or zero.
func (c *Client) Quote(ctx context.Context, ticker string, day TradingDay) (Quote, error) {
	q := Quote{Ticker: ticker}

	rows, err := c.monthRows(ctx, ticker, day.YMD())
	if err != nil {
		return q, err
	}
	if len(rows) == 0 {
		return q, fmt.Errorf("STOCK_DAY empty data for %s", ticker)
	}

	idx := -1
	for i, row := range rows {
		if row.iso == day.ISO() {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Source lag: settle for the last available row in the month.
		idx = len(rows) - 1
		if c.logger != nil {
			c.logger.Warn().
				Str("ticker", ticker).
				Str("want", day.ISO()).
				Str("got", rows[idx].iso).
				Msg("Trading day missing from month data, using last row")
		}
	}

	q.Close = rows[idx].close
	q.Change = rows[idx].change

	var prevClose *float64
	if idx > 0 {
		prevClose = rows[idx-1].close
	} else {
		prevClose = c.priorMonthClose(ctx, ticker, day)
	}

	if q.Close != nil && prevClose != nil && *prevClose != 0 {
		pct := (*q.Close - *prevClose) / *prevClose * 100
		q.ChangePct = &pct
	}
	return q, nil
}

// priorMonthClose fetches the previous calendar month and returns its
// chronologically last close, or nil when unavailable.
func (c *Client) priorMonthClose(ctx context.Context, ticker string, day TradingDay) *float64 {
	first := day.Time.AddDate(0, 0, -day.Time.Day()+1)
	prior := first.AddDate(0, 0, -1) // last day of the prior month
	rows, err := c.monthRows(ctx, ticker, ymd(prior))
	if err != nil || len(rows) == 0 {
		return nil
	}
	return rows[len(rows)-1].close
}
