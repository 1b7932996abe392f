package taifex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summaryResultPage = `<html><body><table>
<tr><th>商品名稱</th><th>月份</th><th>前五大買方</th><th>前五大賣方</th><th>前十大買方</th><th>前十大賣方</th><th>未沖銷量</th></tr>
<tr><td>台積電期貨</td><td>202601</td><td>900</td><td>200</td><td>1,100</td><td>250</td><td>30,000</td></tr>
<tr><td>台積電期貨</td><td>所有 契約</td><td>1,420</td><td>320</td><td>1,800</td><td>400</td><td>50,000</td></tr>
</table></body></html>`

func TestParsePositionsSummaryRow(t *testing.T) {
	doc := parseDoc(t, summaryResultPage)

	pos, err := parsePositions(doc, "台積電", DefaultFieldOrder)
	require.NoError(t, err)

	assert.Equal(t, Side{Long: 1420, Short: 320, Net: 1100}, pos.Top5)
	assert.Equal(t, Side{Long: 1800, Short: 400, Net: 1400}, pos.Top10)
	assert.Equal(t, int64(50000), pos.OpenInterest)
}

// The marker can render split across adjacent cells; matching on
// space-squashed text still finds the row.
func TestParsePositionsSplitMarkerCells(t *testing.T) {
	doc := parseDoc(t, `<table><tr>
	  <td>台積電期貨</td><td>所有</td><td>契約</td>
	  <td>1420</td><td>320</td><td>1800</td><td>400</td><td>50000</td>
	</tr></table>`)

	pos, err := parsePositions(doc, "台積電", DefaultFieldOrder)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), pos.Top5.Net)
	assert.Equal(t, int64(50000), pos.OpenInterest)
}

func TestParsePositionsNoData(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>查無資料</p></body></html>`)

	_, err := parsePositions(doc, "台積電", DefaultFieldOrder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "查無資料")
}

func TestParsePositionsRowMissing(t *testing.T) {
	doc := parseDoc(t, `<table><tr><td>鴻海期貨</td><td>所有契約</td><td>10</td><td>2</td><td>12</td><td>3</td><td>99</td></tr></table>`)

	_, err := parsePositions(doc, "台積電", DefaultFieldOrder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all-contracts row not found")
}

func TestParsePositionsTooFewIntegers(t *testing.T) {
	doc := parseDoc(t, `<table><tr><td>台積電期貨</td><td>所有契約</td><td>1420</td><td>320</td><td>-</td></tr></table>`)

	_, err := parsePositions(doc, "台積電", DefaultFieldOrder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need 5")
}

// A configured order can skip percentage columns that sit between the
// position figures and the trailing open interest.
func TestParsePositionsConfiguredOrder(t *testing.T) {
	doc := parseDoc(t, `<table><tr>
	  <td>台積電期貨</td><td>所有契約</td>
	  <td>1420</td><td>12</td><td>320</td><td>3</td><td>1800</td><td>15</td><td>400</td><td>4</td><td>50000</td>
	</tr></table>`)

	order := FieldOrderFromSlice([]int{0, 2, 4, 6, -1})
	pos, err := parsePositions(doc, "台積電", order)
	require.NoError(t, err)
	assert.Equal(t, Side{Long: 1420, Short: 320, Net: 1100}, pos.Top5)
	assert.Equal(t, Side{Long: 1800, Short: 400, Net: 1400}, pos.Top10)
	assert.Equal(t, int64(50000), pos.OpenInterest)
}

func TestFieldOrderFromSliceBadLength(t *testing.T) {
	assert.Equal(t, DefaultFieldOrder, FieldOrderFromSlice(nil))
	assert.Equal(t, DefaultFieldOrder, FieldOrderFromSlice([]int{0, 1, 2}))
}
