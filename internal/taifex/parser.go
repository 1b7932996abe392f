package taifex

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/marketsnap/internal/common"
)

// allContractsMarker tags the summary row aggregating all expiry months of
// one product. Depending on layout it renders as one token or as two
// adjacent cells, so matching happens on space-stripped text.
const allContractsMarker = "所有契約"

// Side is one long/short pair of a concentration disclosure. Net is always
// derived as long - short, never fetched.
type Side struct {
	Long  int64
	Short int64
	Net   int64
}

// Position is the large-trader position structure for one product.
type Position struct {
	Top5         Side
	Top10        Side
	OpenInterest int64
}

// FieldOrder maps the ordered integers extracted from the all-contracts row
// onto the five position figures. Negative indexes count from the end.
// Labeled-column positions have drifted across site revisions while the
// order of these figures has stayed stable, which is why the mapping is
// positional and configurable.
type FieldOrder struct {
	Top5Long     int
	Top5Short    int
	Top10Long    int
	Top10Short   int
	OpenInterest int
}

// DefaultFieldOrder is the observed-stable ordering: the first four
// integers are top5 long/short and top10 long/short, the last one is open
// interest.
var DefaultFieldOrder = FieldOrder{Top5Long: 0, Top5Short: 1, Top10Long: 2, Top10Short: 3, OpenInterest: -1}

// FieldOrderFromSlice builds a FieldOrder from the five-element
// configuration form.
func FieldOrderFromSlice(order []int) FieldOrder {
	if len(order) != 5 {
		return DefaultFieldOrder
	}
	return FieldOrder{
		Top5Long:     order[0],
		Top5Short:    order[1],
		Top10Long:    order[2],
		Top10Short:   order[3],
		OpenInterest: order[4],
	}
}

var integerPattern = regexp.MustCompile(`-?\d[\d,]*`)

// parsePositions locates the all-contracts summary row for the product
// keyword and maps its ordered integers onto the position structure.
func parsePositions(doc *goquery.Document, keyword string, order FieldOrder) (*Position, error) {
	flat := doc.Text()
	if strings.Contains(flat, "查無資料") {
		return nil, fmt.Errorf("no data for %s (查無資料)", keyword)
	}

	row := findSummaryRow(doc, keyword)
	if row == "" {
		return nil, fmt.Errorf("all-contracts row not found for %s", keyword)
	}

	nums := extractIntegers(row)
	if len(nums) < 5 {
		return nil, fmt.Errorf("all-contracts row for %s has %d integer fields, need 5", keyword, len(nums))
	}

	pick := func(idx int) (int64, error) {
		if idx < 0 {
			idx = len(nums) + idx
		}
		if idx < 0 || idx >= len(nums) {
			return 0, fmt.Errorf("field index %d out of range (%d integers)", idx, len(nums))
		}
		return nums[idx], nil
	}

	var pos Position
	var err error
	if pos.Top5.Long, err = pick(order.Top5Long); err != nil {
		return nil, err
	}
	if pos.Top5.Short, err = pick(order.Top5Short); err != nil {
		return nil, err
	}
	if pos.Top10.Long, err = pick(order.Top10Long); err != nil {
		return nil, err
	}
	if pos.Top10.Short, err = pick(order.Top10Short); err != nil {
		return nil, err
	}
	if pos.OpenInterest, err = pick(order.OpenInterest); err != nil {
		return nil, err
	}
	pos.Top5.Net = pos.Top5.Long - pos.Top5.Short
	pos.Top10.Net = pos.Top10.Long - pos.Top10.Short
	return &pos, nil
}

// findSummaryRow scans all table rows for one whose concatenated cell text
// carries both the product keyword and the all-contracts marker.
func findSummaryRow(doc *goquery.Document, keyword string) string {
	var found string
	doc.Find("tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		var cells []string
		tr.Find("th, td").Each(func(j int, cell *goquery.Selection) {
			cells = append(cells, normalizeSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return true
		}
		joined := strings.Join(cells, " ")
		squashed := strings.ReplaceAll(joined, " ", "")
		if strings.Contains(squashed, keyword) && strings.Contains(squashed, allContractsMarker) {
			found = joined
			return false
		}
		return true
	})
	return found
}

// extractIntegers returns every integer-looking substring of the row, in
// order.
func extractIntegers(row string) []int64 {
	var nums []int64
	for _, m := range integerPattern.FindAllString(row, -1) {
		if v, ok := common.ParseInt(m); ok {
			nums = append(nums, v)
		}
	}
	return nums
}
