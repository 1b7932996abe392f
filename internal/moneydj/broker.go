package moneydj

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/marketsnap/internal/common"
)

// brokerHeaderKeywords identify the broker net-value ranking table.
var brokerHeaderKeywords = []string{"券商", "買進", "賣出", "差額"}

// BrokerRanking extracts the broker net-value ranking and filters it to the
// watched brokers, preserving the watch-list order. Failures degrade to an
// error string inside the result; recovered partial rows are kept.
func (s *Service) BrokerRanking(ctx context.Context, watch []string) *BrokerRanking {
	result := &BrokerRanking{Strategy: StrategyNone}

	html, err := s.fetcher.GetText(ctx, s.config.BrokerURL)
	if err != nil {
		result.Err = fmt.Sprintf("broker ranking fetch failed: %v", err)
		return result
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		result.Err = fmt.Sprintf("broker ranking parse failed: %v", err)
		return result
	}

	rows, strategy := s.structuredBrokerRows(doc)
	if len(rows) == 0 {
		rows = s.brokerRowsFromText(doc.Text())
		strategy = StrategyTextFallback
	}
	if len(rows) == 0 {
		result.Err = "broker ranking table not found (page layout may have changed)"
		return result
	}
	result.Strategy = strategy
	if strategy != StrategyHeaderKeywords && s.logger != nil {
		s.logger.Warn().Str("strategy", string(strategy)).Msg("Broker ranking parsed via fallback strategy")
	}

	rows = dedupBrokerRows(rows)

	picked := make([]BrokerRow, 0, len(watch))
	for _, want := range watch {
		for _, row := range rows {
			if strings.Contains(row.Broker, want) {
				picked = append(picked, row)
				break
			}
		}
	}
	if len(picked) == 0 {
		// Keep what was recovered, truncated to the watch-list size.
		if len(rows) > len(watch) {
			rows = rows[:len(watch)]
		}
		result.Rows = rows
		result.Err = "broker ranking parsed but no watched brokers matched (names may have changed)"
		return result
	}

	result.Rows = picked
	return result
}

// structuredBrokerRows tries header-keyword table discovery first, then the
// positional strategy (rows with exactly four cells anywhere on the page).
func (s *Service) structuredBrokerRows(doc *goquery.Document) ([]BrokerRow, Strategy) {
	if table := findTableByHeaders(doc, brokerHeaderKeywords); table != nil {
		var rows []BrokerRow
		table.Find("tr").Each(func(i int, tr *goquery.Selection) {
			if row, ok := s.brokerRowFromCells(cellTexts(tr)); ok {
				rows = append(rows, row)
			}
		})
		if len(rows) > 0 {
			return rows, StrategyHeaderKeywords
		}
	}

	var rows []BrokerRow
	for _, cells := range rowsWithCellCount(doc, 4) {
		if row, ok := s.brokerRowFromCells(cells); ok {
			rows = append(rows, row)
		}
	}
	if len(rows) > 0 {
		return rows, StrategyColumnCount
	}
	return nil, StrategyNone
}

// brokerRowFromCells validates and parses one candidate data row. The name
// must pass the anti-garbage filter and the net amount must parse; the net
// is taken from the page, never derived from buy/sell.
func (s *Service) brokerRowFromCells(cells []string) (BrokerRow, bool) {
	if len(cells) < 4 {
		return BrokerRow{}, false
	}
	name := cells[0]
	if !validName(name, s.config.MaxNameLen) {
		return BrokerRow{}, false
	}
	net, ok := common.ParseInt(cells[3])
	if !ok {
		return BrokerRow{}, false
	}
	buy, _ := common.ParseInt(cells[1])
	sell, _ := common.ParseInt(cells[2])
	return BrokerRow{Broker: name, Buy: buy, Sell: sell, Net: net}, true
}

// brokerRowsFromText re-parses the page's flattened text: locate the header
// token, then chunk the remaining whitespace-delimited tokens into
// four-field records, resynchronizing on tokens that fail to parse. Used
// only when the structured parse fails entirely.
func (s *Service) brokerRowsFromText(text string) []BrokerRow {
	tokens := strings.Fields(text)
	start := -1
	for i, tok := range tokens {
		if strings.Contains(tok, "券商名稱") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var rows []BrokerRow
	for i := start; i+4 <= len(tokens); {
		name := tokens[i]
		buy, okBuy := common.ParseInt(tokens[i+1])
		sell, okSell := common.ParseInt(tokens[i+2])
		net, okNet := common.ParseInt(tokens[i+3])
		if validName(name, s.config.MaxNameLen) && okBuy && okSell && okNet {
			rows = append(rows, BrokerRow{Broker: name, Buy: buy, Sell: sell, Net: net})
			i += 4
			continue
		}
		i++
	}
	return rows
}

// dedupBrokerRows collapses identical (name, buy, sell, net) tuples that
// appear across repeated table fragments.
func dedupBrokerRows(rows []BrokerRow) []BrokerRow {
	seen := make(map[BrokerRow]bool, len(rows))
	out := rows[:0]
	for _, row := range rows {
		if seen[row] {
			continue
		}
		seen[row] = true
		out = append(out, row)
	}
	return out
}
