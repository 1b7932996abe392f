package moneydj

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/marketsnap/internal/common"
	"github.com/ternarybob/marketsnap/internal/httpclient"
)

func newForeignService(t *testing.T, foreignURL string, limit int) *Service {
	t.Helper()
	cfg := common.NewDefaultConfig().MoneyDJ
	cfg.ForeignURL = foreignURL
	if limit > 0 {
		cfg.ForeignLimit = limit
	}
	return NewService(httpclient.New("test-agent/1.0", 5*time.Second), cfg, nil)
}

const foreignTableHTML = `<html><body>
<p>外資買賣超排行 日期：12/30</p>
<table>
<tr><th>名次</th><th>股票名稱</th><th>買超張數</th><th>收盤價</th><th>漲跌</th><th>名次</th><th>股票名稱</th><th>賣超張數</th><th>收盤價</th><th>漲跌</th></tr>
<tr><td>1</td><td>2330台積電</td><td>12,345</td><td>1,020</td><td>+20</td><td>1</td><td>2603長榮</td><td>8,000</td><td>180</td><td>-2.5</td></tr>
<tr><td>2</td><td>鴻海</td><td>5,000</td><td>210.5</td><td>+1.5</td><td>2</td><td>2882國泰金</td><td>3,000</td><td>66</td><td>-0.4</td></tr>
</table>
</body></html>`

func TestForeignRankingHeaderDiscovery(t *testing.T) {
	srv := serveHTML(t, foreignTableHTML)
	defer srv.Close()

	s := newForeignService(t, srv.URL, 0)
	result := s.ForeignRanking(context.Background())

	require.Empty(t, result.Err)
	assert.Equal(t, StrategyHeaderKeywords, result.Strategy)
	assert.Equal(t, "12/30", result.Date)

	require.Len(t, result.Buy, 2)
	require.Len(t, result.Sell, 2)

	assert.Equal(t, 1, result.Buy[0].Rank)
	assert.Equal(t, "2330", result.Buy[0].Code)
	assert.Equal(t, "台積電", result.Buy[0].Name)
	assert.Equal(t, 12345.0, result.Buy[0].NetLots)
	assert.Equal(t, 1020.0, result.Buy[0].Close)
	assert.Equal(t, 20.0, result.Buy[0].Change)

	// No leading digit run: whole cell is the name, code absent
	assert.Equal(t, "", result.Buy[1].Code)
	assert.Equal(t, "鴻海", result.Buy[1].Name)

	assert.Equal(t, "2603", result.Sell[0].Code)
	assert.Equal(t, "長榮", result.Sell[0].Name)
	assert.Equal(t, -2.5, result.Sell[0].Change)
}

func TestForeignRankingTruncatesToLimit(t *testing.T) {
	srv := serveHTML(t, foreignTableHTML)
	defer srv.Close()

	s := newForeignService(t, srv.URL, 1)
	result := s.ForeignRanking(context.Background())

	require.Empty(t, result.Err)
	assert.Len(t, result.Buy, 1)
	assert.Len(t, result.Sell, 1)
	assert.Equal(t, 1, result.Buy[0].Rank)
}

func TestForeignRankingColumnCountFallback(t *testing.T) {
	html := `<table>
<tr><td>1</td><td>2330台積電</td><td>12,345</td><td>1,020</td><td>+20</td><td>1</td><td>2603長榮</td><td>8,000</td><td>180</td><td>-2.5</td></tr>
</table>`
	srv := serveHTML(t, html)
	defer srv.Close()

	s := newForeignService(t, srv.URL, 0)
	result := s.ForeignRanking(context.Background())

	require.Empty(t, result.Err)
	assert.Equal(t, StrategyColumnCount, result.Strategy)
	require.Len(t, result.Buy, 1)
	assert.Equal(t, "台積電", result.Buy[0].Name)
}

func TestForeignRankingTextFallback(t *testing.T) {
	html := `<html><body><p>名次 股票名稱 買超張數 收盤價 漲跌 名次 股票名稱 賣超張數 收盤價 漲跌
1 2330台積電 12,345 1,020 +20 1 2603長榮 8,000 180 -2.5</p></body></html>`
	srv := serveHTML(t, html)
	defer srv.Close()

	s := newForeignService(t, srv.URL, 0)
	result := s.ForeignRanking(context.Background())

	require.Empty(t, result.Err)
	assert.Equal(t, StrategyTextFallback, result.Strategy)
	require.Len(t, result.Buy, 1)
	require.Len(t, result.Sell, 1)
	assert.Equal(t, "台積電", result.Buy[0].Name)
	assert.Equal(t, "長榮", result.Sell[0].Name)
}

func TestForeignRankingEmptyPage(t *testing.T) {
	srv := serveHTML(t, `<html><body>查無資料</body></html>`)
	defer srv.Close()

	s := newForeignService(t, srv.URL, 0)
	result := s.ForeignRanking(context.Background())

	assert.NotEmpty(t, result.Err)
	assert.Empty(t, result.Buy)
	assert.Empty(t, result.Sell)
}

func TestSplitCodeName(t *testing.T) {
	tests := []struct {
		input    string
		wantCode string
		wantName string
	}{
		{"2330台積電", "2330", "台積電"},
		{"2330 台積電", "2330", "台積電"},
		{"911608明輝-DR", "911608", "明輝-DR"},
		{"鴻海", "", "鴻海"},
		{"台積電2330", "", "台積電2330"},
	}
	for _, tt := range tests {
		code, name := splitCodeName(tt.input)
		if code != tt.wantCode || name != tt.wantName {
			t.Errorf("splitCodeName(%q) = (%q, %q), want (%q, %q)", tt.input, code, name, tt.wantCode, tt.wantName)
		}
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, validName("台積電", 24))
	assert.False(t, validName("", 24))
	assert.False(t, validName("TSMC", 24)) // no ideographic character
	long := ""
	for i := 0; i < 30; i++ {
		long += "電"
	}
	assert.False(t, validName(long, 24))
}
