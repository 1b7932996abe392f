package moneydj

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// findTableByHeaders returns the first table whose header text contains all
// of the required keywords, or nil. Header cells are taken from th elements,
// falling back to the first row's cells for th-less layouts.
func findTableByHeaders(doc *goquery.Document, keywords []string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		header := normalizeSpace(table.Find("th").Text())
		if header == "" {
			header = normalizeSpace(table.Find("tr").First().Text())
		}
		for _, kw := range keywords {
			if !strings.Contains(header, kw) {
				return true // keep scanning
			}
		}
		found = table
		return false
	})
	return found
}

// cellTexts returns the normalized text of every cell in a row.
func cellTexts(row *goquery.Selection) []string {
	var cells []string
	row.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		cells = append(cells, normalizeSpace(cell.Text()))
	})
	return cells
}

// rowsWithCellCount scans every row of every table for rows with exactly n
// cells. Positional fallback for pages whose headers no longer match.
func rowsWithCellCount(doc *goquery.Document, n int) [][]string {
	var rows [][]string
	doc.Find("table tr").Each(func(i int, tr *goquery.Selection) {
		cells := cellTexts(tr)
		if len(cells) == n {
			rows = append(rows, cells)
		}
	})
	return rows
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// validName rejects garbage name cells: empty text, text over the length
// cap, or text without a single ideographic character. Guards against a
// parse error capturing an unrelated paragraph as a name.
func validName(name string, maxLen int) bool {
	if name == "" || utf8.RuneCountInString(name) > maxLen {
		return false
	}
	return hasHan(name)
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

var codeNamePattern = regexp.MustCompile(`^(\d{4,6})\s*(.+)$`)

// splitCodeName splits a combined "code + name" cell on a leading run of
// 4-6 digits. Without leading digits the whole cell is the name and the
// code is absent.
func splitCodeName(cell string) (code, name string) {
	cell = strings.TrimSpace(cell)
	if m := codeNamePattern.FindStringSubmatch(cell); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	return "", cell
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

func isOrdinal(s string) bool {
	return digitsOnly.MatchString(strings.TrimSpace(s))
}
