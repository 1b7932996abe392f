// Package moneydj extracts broker net-value and foreign-investor net-volume
// rankings from broker HTML pages whose table structure is discovered at
// run time.
package moneydj

// Strategy identifies which parsing strategy produced a result. The text
// fallback is tagged so consumers can treat its output as lower-confidence.
type Strategy string

const (
	StrategyHeaderKeywords Strategy = "header-keywords"
	StrategyColumnCount    Strategy = "column-count"
	StrategyTextFallback   Strategy = "text-fallback"
	StrategyNone           Strategy = "none"
)

// BrokerRow is one broker net-value ranking entry. Net comes from the page
// and is never recomputed; some revisions publish only the net.
type BrokerRow struct {
	Broker string
	Buy    int64
	Sell   int64
	Net    int64
}

// BrokerRanking is the broker ranking extraction result. Err is a
// per-source error string; partial rows recovered before a failure are
// kept alongside it.
type BrokerRanking struct {
	Rows     []BrokerRow
	Strategy Strategy
	Err      string
}

// ForeignRow is one foreign-investor ranking entry. Rank is the page's own
// ordinal, never reassigned. Code is empty when the name cell had no
// leading digit run.
type ForeignRow struct {
	Rank    int
	Code    string
	Name    string
	NetLots float64
	Close   float64
	Change  float64
}

// ForeignRanking holds the two independent ordered sequences: net-positive
// (Buy) and net-negative (Sell) rankings.
type ForeignRanking struct {
	Date     string // the page's own date hint, e.g. "12/30"
	Buy      []ForeignRow
	Sell     []ForeignRow
	Strategy Strategy
	Err      string
}
