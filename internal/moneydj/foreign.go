package moneydj

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/marketsnap/internal/common"
)

// foreignHeaderKeywords identify the foreign-investor dual ranking table.
var foreignHeaderKeywords = []string{"名次", "股票名稱", "超張數"}

var dateHintPattern = regexp.MustCompile(`日期[:：]\s*(\d{1,2}/\d{1,2})`)

// foreignRecordWidth is the cell count of the dual buy/sell ranking layout:
// five fields for the buy side followed by five for the sell side.
const foreignRecordWidth = 10

// ForeignRanking extracts the foreign-investor net-volume ranking: two
// independent ordered sequences (net buy, net sell), each truncated to the
// configured limit.
func (s *Service) ForeignRanking(ctx context.Context) *ForeignRanking {
	result := &ForeignRanking{Strategy: StrategyNone}

	html, err := s.fetcher.GetText(ctx, s.config.ForeignURL)
	if err != nil {
		result.Err = fmt.Sprintf("foreign ranking fetch failed: %v", err)
		return result
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		result.Err = fmt.Sprintf("foreign ranking parse failed: %v", err)
		return result
	}

	flat := doc.Text()
	if m := dateHintPattern.FindStringSubmatch(flat); m != nil {
		result.Date = m[1]
	}

	cellRows, strategy := s.structuredForeignRows(doc)
	buy, sell := s.foreignSides(cellRows)
	if len(buy) == 0 && len(sell) == 0 {
		buy, sell = s.foreignRowsFromText(flat)
		strategy = StrategyTextFallback
	}
	if len(buy) == 0 && len(sell) == 0 {
		result.Err = "foreign ranking table not found (page layout may have changed)"
		return result
	}
	result.Strategy = strategy
	if strategy != StrategyHeaderKeywords && s.logger != nil {
		s.logger.Warn().Str("strategy", string(strategy)).Msg("Foreign ranking parsed via fallback strategy")
	}

	limit := s.config.ForeignLimit
	result.Buy = truncateForeign(dedupForeignRows(buy), limit)
	result.Sell = truncateForeign(dedupForeignRows(sell), limit)
	return result
}

// structuredForeignRows tries header-keyword discovery, then falls back to
// accepting any row with exactly the dual-layout cell count anywhere.
func (s *Service) structuredForeignRows(doc *goquery.Document) ([][]string, Strategy) {
	if table := findTableByHeaders(doc, foreignHeaderKeywords); table != nil {
		var rows [][]string
		table.Find("tr").Each(func(i int, tr *goquery.Selection) {
			cells := cellTexts(tr)
			if len(cells) >= foreignRecordWidth {
				rows = append(rows, cells)
			}
		})
		if len(rows) > 0 {
			return rows, StrategyHeaderKeywords
		}
	}

	if rows := rowsWithCellCount(doc, foreignRecordWidth); len(rows) > 0 {
		return rows, StrategyColumnCount
	}
	return nil, StrategyNone
}

// foreignSides splits dual-layout rows into buy and sell sequences. Each
// side is parsed independently: one side of a row can validate while the
// other is blank padding.
func (s *Service) foreignSides(cellRows [][]string) (buy, sell []ForeignRow) {
	for _, cells := range cellRows {
		if len(cells) < foreignRecordWidth {
			continue
		}
		if row, ok := s.foreignRowFromCells(cells[0:5]); ok {
			buy = append(buy, row)
		}
		if row, ok := s.foreignRowFromCells(cells[5:10]); ok {
			sell = append(sell, row)
		}
	}
	return buy, sell
}

// foreignRowFromCells parses one side of a dual-layout row: rank, combined
// code+name, net lots, close, change. The rank must be the page's own
// ordinal and the name must pass the anti-garbage filter.
func (s *Service) foreignRowFromCells(cells []string) (ForeignRow, bool) {
	if len(cells) < 5 {
		return ForeignRow{}, false
	}
	if !isOrdinal(cells[0]) {
		return ForeignRow{}, false
	}
	rank, err := strconv.Atoi(strings.TrimSpace(cells[0]))
	if err != nil {
		return ForeignRow{}, false
	}
	code, name := splitCodeName(cells[1])
	if !validName(name, s.config.MaxNameLen) {
		return ForeignRow{}, false
	}
	lots, ok := common.ParseFloat(cells[2])
	if !ok {
		return ForeignRow{}, false
	}
	closePrice, _ := common.ParseFloat(cells[3])
	change, _ := common.ParseFloat(cells[4])
	return ForeignRow{
		Rank:    rank,
		Code:    code,
		Name:    name,
		NetLots: lots,
		Close:   closePrice,
		Change:  change,
	}, true
}

// foreignRowsFromText re-parses the flattened page text, chunking tokens
// after the header into ten-field records with resynchronization.
func (s *Service) foreignRowsFromText(text string) (buy, sell []ForeignRow) {
	tokens := strings.Fields(text)
	start := -1
	for i, tok := range tokens {
		if strings.Contains(tok, "名次") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, nil
	}

	for i := start; i+foreignRecordWidth <= len(tokens); {
		chunk := tokens[i : i+foreignRecordWidth]
		b, okB := s.foreignRowFromCells(chunk[0:5])
		se, okS := s.foreignRowFromCells(chunk[5:10])
		if okB && okS {
			buy = append(buy, b)
			sell = append(sell, se)
			i += foreignRecordWidth
			continue
		}
		i++
	}
	return buy, sell
}

func dedupForeignRows(rows []ForeignRow) []ForeignRow {
	seen := make(map[ForeignRow]bool, len(rows))
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

func truncateForeign(rows []ForeignRow, limit int) []ForeignRow {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
