package common

import "time"

// DefaultUserAgent is sent on every upstream request. Some of the broker
// pages refuse requests without a browser-like user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// NewDefaultConfig creates a configuration with sensible defaults.
// The security and broker watch lists mirror the published report page.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "production",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Client: ClientConfig{
			UserAgent:    DefaultUserAgent,
			Timeout:      30 * time.Second,
			RequestDelay: 500 * time.Millisecond,
		},
		TWSE: TWSEConfig{
			BaseURL:     "https://www.twse.com.tw",
			RateLimit:   2,
			MaxLookback: 20,
		},
		MoneyDJ: MoneyDJConfig{
			BrokerURL:    "https://fubon-ebrokerdj.fbs.com.tw/Z/ZG/ZGB/ZGB.djhtm",
			ForeignURL:   "https://fubon-ebrokerdj.fbs.com.tw/z/zg/zgk/zgk_d.djhtm",
			ForeignLimit: 30,
			MaxNameLen:   24,
		},
		Taifex: TaifexConfig{
			QueryURL:   "https://www.taifex.com.tw/cht/3/largeTraderFutQry",
			QueryDelay: time.Second,
			FieldOrder: []int{0, 1, 2, 3, -1},
		},
		Snapshot: SnapshotConfig{
			OutputPath: "data.json",
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "30 14 * * 1-5",
		},
		Securities: []SecurityConfig{
			{Ticker: "2330", Name: "台積電", Keyword: "台積電"},
			{Ticker: "2317", Name: "鴻海", Keyword: "鴻海"},
			{Ticker: "3231", Name: "緯創", Keyword: "緯創"},
			{Ticker: "2382", Name: "廣達", Keyword: "廣達"},
		},
		Brokers: []string{
			"摩根大通",
			"台灣摩根士丹利",
			"新加坡商瑞銀",
			"美林",
			"花旗環球",
			"美商高盛",
		},
	}
}
