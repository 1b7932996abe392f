package twse

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ternarybob/marketsnap/internal/common"
)

// FlowMap holds foreign-investor net flow in board lots, keyed by ticker,
// for a single trading day.
type FlowMap map[string]int64

// Lots returns the net lots for a ticker. The second result is false when
// the market-wide dataset had no row for the ticker.
func (m FlowMap) Lots(ticker string) (int64, bool) {
	v, ok := m[ticker]
	return v, ok
}

// ForeignFlows fetches the market-wide institutional flow dataset for one
// date and returns foreign net flow per ticker, rounded from shares to
// board lots. A missing dataset (holiday, source outage) is an error the
// caller records per-date; it is never fatal.
func (c *Client) ForeignFlows(ctx context.Context, day TradingDay) (FlowMap, error) {
	params := url.Values{}
	params.Set("date", day.YMD())
	params.Set("selectType", "ALL")

	var resp t86Response
	if err := c.getJSON(ctx, "/fund/T86", params, &resp); err != nil {
		return nil, err
	}
	if !statOK(resp.Stat) {
		return nil, fmt.Errorf("T86 stat=%s", resp.Stat)
	}

	// Column names have drifted between 外陸資 and 外資 revisions.
	codeIdx := findField(resp.Fields, "證券代號")
	buyIdx := findField(resp.Fields, "外陸資買進股數", "外資買進股數")
	sellIdx := findField(resp.Fields, "外陸資賣出股數", "外資賣出股數")
	netIdx := findField(resp.Fields, "外陸資買賣超股數", "外資買賣超股數")
	if codeIdx < 0 || buyIdx < 0 || sellIdx < 0 {
		return nil, fmt.Errorf("T86 fields not found")
	}

	flows := make(FlowMap, len(resp.Data))
	for _, row := range resp.Data {
		if codeIdx >= len(row) {
			continue
		}
		code := trimCell(row[codeIdx])
		if code == "" {
			continue
		}

		var netShares int64
		if netIdx >= 0 && netIdx < len(row) {
			if v, ok := common.ParseInt(row[netIdx]); ok {
				netShares = v
				flows[code] = common.RoundLots(netShares)
				continue
			}
		}
		// Net column absent: derive from buy/sell when both parse.
		buy, okBuy := parseCell(row, buyIdx)
		sell, okSell := parseCell(row, sellIdx)
		if okBuy && okSell {
			flows[code] = common.RoundLots(buy - sell)
		}
	}
	return flows, nil
}

func parseCell(row []string, idx int) (int64, bool) {
	if idx < 0 || idx >= len(row) {
		return 0, false
	}
	return common.ParseInt(row[idx])
}

func trimCell(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '　' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
