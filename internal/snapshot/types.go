// Package snapshot assembles one run's extraction results into the output
// document and writes it atomically. Every numeric display field is a
// pre-formatted string so downstream renderers need no formatting logic,
// and every source subtree carries its own error annotation.
package snapshot

// Snapshot is the output document. Top-level keys are a stable contract;
// consumers key on them directly.
type Snapshot struct {
	GeneratedAt         string                 `json:"generated_at"`
	RunID               string                 `json:"run_id"`
	LatestTradingDay    string                 `json:"latest_trading_day"`
	PrevTradingDay      string                 `json:"prev_trading_day"`
	LatestTradingDayYMD string                 `json:"latest_trading_day_ymd"`
	PrevTradingDayYMD   string                 `json:"prev_trading_day_ymd"`
	Stocks              map[string]*StockEntry `json:"stocks"`
	LargeTrader         *LargeTraderSection    `json:"taifex_large_trader"`
	BrokerRanking       *BrokerSection         `json:"fubon_zgb"`
	ForeignRanking      *ForeignSection        `json:"fubon_zgk_d"`
}

// StockEntry is one security's quote and foreign flow. Err is null when
// both sources delivered; absent fields inside Price and ForeignNet stay
// null independently.
type StockEntry struct {
	Ticker     string   `json:"ticker"`
	Name       string   `json:"name"`
	Price      Price    `json:"price"`
	ForeignNet FlowPair `json:"foreign_net_shares"`
	Err        *string  `json:"error"`
}

// Price holds the formatted closing figures. Close renders without
// grouping ("1020"); Change and ChangePct carry an explicit sign.
type Price struct {
	Close     *string `json:"close"`
	Change    *string `json:"change"`
	ChangePct *string `json:"change_pct"`
}

// FlowPair is the foreign net flow for the latest (D0) and previous (D1)
// trading day, in board lots, grouped and signed.
type FlowPair struct {
	D0 *string `json:"D0"`
	D1 *string `json:"D1"`
}

// LargeTraderSection is the derivatives position structure per security.
type LargeTraderSection struct {
	Date     string                       `json:"date"`
	ByTicker map[string]*LargeTraderEntry `json:"by_ticker"`
	Err      *string                      `json:"error"`
}

// LargeTraderEntry is one product's concentration figures, or an
// explanatory error when the figures are absent.
type LargeTraderEntry struct {
	Product      string    `json:"product"`
	Top5         *SideView `json:"top5"`
	Top10        *SideView `json:"top10"`
	OpenInterest *string   `json:"open_interest"`
	Err          *string   `json:"error"`
}

// SideView is a formatted long/short/net triple.
type SideView struct {
	Long  string `json:"long"`
	Short string `json:"short"`
	Net   string `json:"net"`
}

// BrokerSection is the broker net-value ranking subtree. Rows is always a
// sequence, empty on total failure.
type BrokerSection struct {
	Date     string          `json:"date"`
	Rows     []BrokerRowView `json:"rows"`
	Strategy string          `json:"strategy"`
	Err      *string         `json:"error"`
}

// BrokerRowView is one formatted broker ranking row.
type BrokerRowView struct {
	Broker string `json:"broker"`
	Buy    string `json:"buy"`
	Sell   string `json:"sell"`
	Net    string `json:"net"`
}

// ForeignSection is the foreign-investor ranking subtree with its two
// independent ordered sequences.
type ForeignSection struct {
	Date     string           `json:"date"`
	Buy      []ForeignRowView `json:"buy"`
	Sell     []ForeignRowView `json:"sell"`
	Strategy string           `json:"strategy"`
	Err      *string          `json:"error"`
}

// ForeignRowView is one formatted foreign ranking row. Rank is the page's
// own ordinal.
type ForeignRowView struct {
	Rank    int    `json:"rank"`
	Code    string `json:"code,omitempty"`
	Name    string `json:"name"`
	NetLots string `json:"net_lots"`
	Close   string `json:"close,omitempty"`
	Change  string `json:"change,omitempty"`
}

func errString(err string) *string {
	if err == "" {
		return nil
	}
	return &err
}
