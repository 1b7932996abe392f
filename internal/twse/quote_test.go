package twse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stockDayFields = []string{
	"日期", "成交股數", "成交金額", "開盤價", "最高價", "最低價", "收盤價", "漲跌價差", "成交筆數",
}

func stockDayRow(rocDate, close, change string) []string {
	return []string{rocDate, "35,000,000", "34,000,000,000", close, close, close, close, change, "55,000"}
}

// quoteFixtureServer serves a December month with two rows and a November
// month whose last close is 980.
func quoteFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exchangeReport/STOCK_DAY" {
			http.NotFound(w, r)
			return
		}
		date := r.URL.Query().Get("date")
		var data [][]string
		switch {
		case strings.HasPrefix(date, "202512"):
			data = [][]string{
				// Deliberately unsorted plus one unparseable date row
				stockDayRow("114/12/30", "1,020.00", "+20.00"),
				{"合計", "", ""},
				stockDayRow("114/12/29", "1,000.00", "+20.00"),
			}
		case strings.HasPrefix(date, "202511"):
			data = [][]string{
				stockDayRow("114/11/27", "975.00", "-5.00"),
				stockDayRow("114/11/28", "980.00", "+5.00"),
			}
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{"stat": "很抱歉，沒有符合條件的資料!"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"stat":   "OK",
			"title":  "114年12月 2330 台積電 各日成交資訊",
			"fields": stockDayFields,
			"data":   data,
		})
	}))
}

func TestQuoteComputesDerivedPercentChange(t *testing.T) {
	srv := quoteFixtureServer(t)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	day := TradingDay{Time: time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)}

	q, err := c.Quote(context.Background(), "2330", day)
	require.NoError(t, err)

	require.NotNil(t, q.Close)
	require.NotNil(t, q.Change)
	require.NotNil(t, q.ChangePct)
	assert.Equal(t, 1020.0, *q.Close)
	assert.Equal(t, 20.0, *q.Change)
	assert.InDelta(t, 2.0, *q.ChangePct, 1e-9) // previous close 1000
}

func TestQuoteIdempotence(t *testing.T) {
	srv := quoteFixtureServer(t)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	day := TradingDay{Time: time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)}

	first, err := c.Quote(context.Background(), "2330", day)
	require.NoError(t, err)
	second, err := c.Quote(context.Background(), "2330", day)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestQuoteCrossesMonthBoundaryForPreviousClose(t *testing.T) {
	srv := quoteFixtureServer(t)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	// 114/12/29 is the first row of its month; the previous close must come
	// from November's last row (980).
	day := TradingDay{Time: time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)}

	q, err := c.Quote(context.Background(), "2330", day)
	require.NoError(t, err)

	require.NotNil(t, q.Close)
	require.NotNil(t, q.ChangePct)
	assert.Equal(t, 1000.0, *q.Close)
	assert.InDelta(t, (1000.0-980.0)/980.0*100, *q.ChangePct, 1e-9)
}

func TestQuoteFallsBackToLastRowWhenDayMissing(t *testing.T) {
	srv := quoteFixtureServer(t)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	// 2025-12-31 has no row; the chronologically last row (12/30) is used.
	day := TradingDay{Time: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)}

	q, err := c.Quote(context.Background(), "2330", day)
	require.NoError(t, err)
	require.NotNil(t, q.Close)
	assert.Equal(t, 1020.0, *q.Close)
}

func TestQuoteErrorsOnMissingDataset(t *testing.T) {
	srv := quoteFixtureServer(t)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	day := TradingDay{Time: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}

	_, err := c.Quote(context.Background(), "2330", day)
	assert.Error(t, err)
}
