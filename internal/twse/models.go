package twse

import "encoding/json"

// stockDayResponse mirrors the exchangeReport/STOCK_DAY monthly time series.
// Row layout: date, traded shares, traded value, open, high, low, close,
// price change, transactions (column order discovered via fields where
// possible).
type stockDayResponse struct {
	Stat   string     `json:"stat"`
	Date   string     `json:"date"`
	Title  string     `json:"title"`
	Fields []string   `json:"fields"`
	Data   [][]string `json:"data"`
}

// t86Response mirrors the fund/T86 institutional flow dataset: one row per
// listed security with buy/sell/net share counts per investor class.
type t86Response struct {
	Stat   string     `json:"stat"`
	Date   string     `json:"date"`
	Title  string     `json:"title"`
	Fields []string   `json:"fields"`
	Data   [][]string `json:"data"`
}

// miIndexResponse mirrors exchangeReport/MI_INDEX, used only as a
// trading-day membership probe. The payload shape has drifted between a
// flat data array and a tables array, so both are accepted.
type miIndexResponse struct {
	Stat   string            `json:"stat"`
	Date   string            `json:"date"`
	Tables []json.RawMessage `json:"tables"`
	Data   [][]string        `json:"data"`
}

func (r *miIndexResponse) hasData() bool {
	return len(r.Tables) > 0 || len(r.Data) > 0
}
