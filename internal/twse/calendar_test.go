package twse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/marketsnap/internal/httpclient"
)

// weekdayProbeServer reports weekdays as trading days and weekends as
// "no data", mimicking the market-activity probe source.
func weekdayProbeServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exchangeReport/MI_INDEX" {
			http.NotFound(w, r)
			return
		}
		day, err := time.Parse("20060102", r.URL.Query().Get("date"))
		if err != nil {
			http.Error(w, "bad date", http.StatusBadRequest)
			return
		}
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"stat": "很抱歉，沒有符合條件的資料!",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"stat":   "OK",
			"tables": []map[string]interface{}{{"title": "大盤統計資訊"}},
		})
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	fetcher := httpclient.New("test-agent/1.0", 5*time.Second)
	return NewClient(fetcher, WithBaseURL(baseURL), WithRateLimit(1000))
}

func TestResolveTradingDaysFromMonday(t *testing.T) {
	srv := weekdayProbeServer(t)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	monday := time.Date(2025, 12, 29, 16, 0, 0, 0, time.UTC) // a Monday

	result := c.ResolveTradingDays(context.Background(), monday, 20)

	assert.False(t, result.Degraded)
	assert.Equal(t, "2025-12-29", result.Latest.ISO())
	assert.Equal(t, "2025-12-26", result.Previous.ISO()) // preceding Friday
	assert.True(t, result.Previous.Time.Before(result.Latest.Time))
}

func TestResolveTradingDaysFromSunday(t *testing.T) {
	srv := weekdayProbeServer(t)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	sunday := time.Date(2025, 12, 28, 10, 0, 0, 0, time.UTC)

	result := c.ResolveTradingDays(context.Background(), sunday, 20)

	assert.False(t, result.Degraded)
	assert.Equal(t, "2025-12-26", result.Latest.ISO())   // Friday
	assert.Equal(t, "2025-12-25", result.Previous.ISO()) // Thursday
}

func TestResolveTradingDaysDegradedFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every probe fails; no date can be confirmed.
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	today := time.Date(2025, 12, 29, 16, 0, 0, 0, time.UTC)

	result := c.ResolveTradingDays(context.Background(), today, 3)

	assert.True(t, result.Degraded)
	assert.Equal(t, "2025-12-29", result.Latest.ISO())
	assert.Equal(t, "2025-12-28", result.Previous.ISO())
}

func TestIsTradingDayTreatsMalformedResponseAsNonTrading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	assert.False(t, c.IsTradingDay(context.Background(), time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)))
}

func TestTradingDayEncodings(t *testing.T) {
	d := TradingDay{Time: time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)}
	require.Equal(t, "20251230", d.YMD())
	require.Equal(t, "2025-12-30", d.ISO())
	require.Equal(t, "114/12/30", d.ROC())
}
