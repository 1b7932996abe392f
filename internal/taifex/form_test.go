package taifex

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const queryFormPage = `<html><body>
<form action="largeTraderFutQry" method="post">
  <input type="hidden" name="queryType" value="2">
  <input type="hidden" name="marketCode" value="0">
  <input type="submit" value="送出查詢">
  <select name="commodity_id">
    <option value="">請選擇</option>
    <option value="TXF">臺股期貨</option>
    <option value="CDF" selected>台積電期貨</option>
    <option value="DHF">鴻海期貨</option>
    <option value="OCD">台積電 選擇權</option>
  </select>
</form>
</body></html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestDiscoverFormResolvesActionAndPayload(t *testing.T) {
	doc := parseDoc(t, queryFormPage)

	form, err := discoverForm(doc, "https://www.taifex.com.tw/cht/3/largeTraderFutQry")
	require.NoError(t, err)

	assert.Equal(t, "https://www.taifex.com.tw/cht/3/largeTraderFutQry", form.Action)
	assert.Equal(t, "POST", form.Method)
	assert.Equal(t, "2", form.Payload.Get("queryType"))
	assert.Equal(t, "0", form.Payload.Get("marketCode"))
	// Selection fields default to their selected option.
	assert.Equal(t, "CDF", form.Payload.Get("commodity_id"))
	require.Len(t, form.Selects, 1)
	assert.Len(t, form.Selects[0].Options, 5)
}

func TestDiscoverFormRelativeAction(t *testing.T) {
	doc := parseDoc(t, `<form action="/cht/3/query" method="get"><input name="a" value="1"></form>`)

	form, err := discoverForm(doc, "https://www.taifex.com.tw/cht/3/largeTraderFutQry")
	require.NoError(t, err)
	assert.Equal(t, "https://www.taifex.com.tw/cht/3/query", form.Action)
	assert.Equal(t, "GET", form.Method)
}

func TestDiscoverFormMissing(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>maintenance</p></body></html>`)

	_, err := discoverForm(doc, "https://www.taifex.com.tw/cht/3/largeTraderFutQry")
	assert.Error(t, err)
}

func TestMatchSecurityPrefersFuturesMarker(t *testing.T) {
	doc := parseDoc(t, queryFormPage)
	form, err := discoverForm(doc, "https://www.taifex.com.tw/cht/3/largeTraderFutQry")
	require.NoError(t, err)

	match := form.MatchSecurity("台積電")
	require.NotNil(t, match)
	assert.Equal(t, "CDF", match.Value)
	assert.Equal(t, "台積電期貨", match.Text)
	assert.False(t, match.Relaxed)
}

func TestMatchSecurityRelaxedFallback(t *testing.T) {
	doc := parseDoc(t, `<form action="q">
	  <select name="commodity_id">
	    <option value="X1">台積電 商品</option>
	  </select>
	</form>`)
	form, err := discoverForm(doc, "https://example.test/q")
	require.NoError(t, err)

	match := form.MatchSecurity("台積電")
	require.NotNil(t, match)
	assert.True(t, match.Relaxed)
	assert.Equal(t, "X1", match.Value)

	assert.Nil(t, form.MatchSecurity("緯創"))
}

func TestDistinctMatches(t *testing.T) {
	doc := parseDoc(t, queryFormPage)
	form, err := discoverForm(doc, "https://www.taifex.com.tw/cht/3/largeTraderFutQry")
	require.NoError(t, err)

	assert.Equal(t, 2, form.DistinctMatches([]string{"台積電", "鴻海", "緯創", "廣達"}))
	assert.Equal(t, 0, form.DistinctMatches([]string{"緯創"}))
}
