package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketsnap/internal/common"
	"github.com/ternarybob/marketsnap/internal/moneydj"
	"github.com/ternarybob/marketsnap/internal/taifex"
	"github.com/ternarybob/marketsnap/internal/twse"
)

// MarketSource is the exchange-facing extraction surface the assembler
// consumes: trading-day resolution, quotes, and institutional flow.
type MarketSource interface {
	ResolveTradingDays(ctx context.Context, today time.Time, maxLookback int) twse.CalendarResult
	Quote(ctx context.Context, ticker string, day twse.TradingDay) (twse.Quote, error)
	ForeignFlows(ctx context.Context, day twse.TradingDay) (twse.FlowMap, error)
}

// RankingSource produces the broker and foreign-investor rankings.
type RankingSource interface {
	BrokerRanking(ctx context.Context, watch []string) *moneydj.BrokerRanking
	ForeignRanking(ctx context.Context) *moneydj.ForeignRanking
}

// PositionSource produces the derivatives position structures.
type PositionSource interface {
	Positions(ctx context.Context, securities []common.Security) *taifex.Result
}

// Assembler runs the five sources sequentially and builds the snapshot.
// Sources degrade independently: a failed source contributes its error
// annotation and whatever partial rows it recovered, never an abort.
type Assembler struct {
	market     MarketSource
	rankings   RankingSource
	positions  PositionSource
	securities []common.Security
	brokers    []string
	lookback   int
	delay      time.Duration
	logger     arbor.ILogger
	now        func() time.Time
	sleep      func(time.Duration)
}

// NewAssembler wires the three extraction services to the configured
// security and broker lists.
func NewAssembler(market MarketSource, rankings RankingSource, positions PositionSource, config *common.Config, logger arbor.ILogger) *Assembler {
	return &Assembler{
		market:     market,
		rankings:   rankings,
		positions:  positions,
		securities: config.SecurityList(),
		brokers:    append([]string(nil), config.Brokers...),
		lookback:   config.TWSE.MaxLookback,
		delay:      config.Client.RequestDelay,
		logger:     logger,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// Build runs one full extraction pass. It always returns a well-formed
// snapshot; degradation shows up as error annotations inside it.
func (a *Assembler) Build(ctx context.Context) *Snapshot {
	started := a.now().In(common.TaipeiZone)
	runID := common.NewRunID()
	if a.logger != nil {
		a.logger.Info().Str("run_id", runID).Msg("Building snapshot")
	}

	cal := a.market.ResolveTradingDays(ctx, started, a.lookback)
	if cal.Degraded && a.logger != nil {
		a.logger.Warn().Str("latest", cal.Latest.ISO()).
			Msg("No trading day confirmed within lookback window, using calendar fallback")
	}

	snap := &Snapshot{
		GeneratedAt:         started.Format(time.RFC3339),
		RunID:               runID,
		LatestTradingDay:    cal.Latest.ISO(),
		PrevTradingDay:      cal.Previous.ISO(),
		LatestTradingDayYMD: cal.Latest.YMD(),
		PrevTradingDayYMD:   cal.Previous.YMD(),
		Stocks:              make(map[string]*StockEntry, len(a.securities)),
	}

	a.buildStocks(ctx, snap, cal)
	a.pause()
	snap.BrokerRanking = a.buildBrokerSection(ctx, cal.Latest)
	a.pause()
	snap.ForeignRanking = a.buildForeignSection(ctx, cal.Latest)
	a.pause()
	snap.LargeTrader = a.buildLargeTraderSection(ctx, cal.Latest)

	if a.logger != nil {
		a.logger.Info().Str("run_id", runID).Str("trading_day", cal.Latest.ISO()).
			Msg("Snapshot assembled")
	}
	return snap
}

// buildStocks fills the per-security quote and flow entries. The flow
// dataset is market-wide, fetched once per date and shared across
// securities.
func (a *Assembler) buildStocks(ctx context.Context, snap *Snapshot, cal twse.CalendarResult) {
	flowLatest, errLatest := a.market.ForeignFlows(ctx, cal.Latest)
	a.pause()
	flowPrev, errPrev := a.market.ForeignFlows(ctx, cal.Previous)

	for i, sec := range a.securities {
		if i > 0 {
			a.pause()
		}
		entry := &StockEntry{Ticker: sec.Ticker, Name: sec.Name}
		var problems []string

		quote, err := a.market.Quote(ctx, sec.Ticker, cal.Latest)
		if err != nil {
			problems = append(problems, fmt.Sprintf("quote: %v", err))
			if a.logger != nil {
				a.logger.Warn().Err(err).Str("ticker", sec.Ticker).Msg("Quote extraction failed")
			}
		} else {
			entry.Price = formatPrice(quote)
		}

		entry.ForeignNet.D0 = flowDisplay(flowLatest, sec.Ticker)
		entry.ForeignNet.D1 = flowDisplay(flowPrev, sec.Ticker)
		if errLatest != nil {
			problems = append(problems, fmt.Sprintf("flow D0: %v", errLatest))
		}
		if errPrev != nil {
			problems = append(problems, fmt.Sprintf("flow D1: %v", errPrev))
		}

		entry.Err = errString(strings.Join(problems, "; "))
		snap.Stocks[sec.Ticker] = entry
	}
}

func (a *Assembler) buildBrokerSection(ctx context.Context, day twse.TradingDay) *BrokerSection {
	ranking := a.rankings.BrokerRanking(ctx, a.brokers)
	section := &BrokerSection{
		Date:     day.ISO(),
		Rows:     make([]BrokerRowView, 0, len(ranking.Rows)),
		Strategy: string(ranking.Strategy),
		Err:      errString(ranking.Err),
	}
	for _, row := range ranking.Rows {
		section.Rows = append(section.Rows, BrokerRowView{
			Broker: row.Broker,
			Buy:    common.GroupedInt(row.Buy),
			Sell:   common.GroupedInt(row.Sell),
			Net:    common.GroupedSignedInt(row.Net),
		})
	}
	return section
}

func (a *Assembler) buildForeignSection(ctx context.Context, day twse.TradingDay) *ForeignSection {
	ranking := a.rankings.ForeignRanking(ctx)
	date := ranking.Date
	if date == "" {
		date = day.ISO()
	}
	return &ForeignSection{
		Date:     date,
		Buy:      foreignViews(ranking.Buy),
		Sell:     foreignViews(ranking.Sell),
		Strategy: string(ranking.Strategy),
		Err:      errString(ranking.Err),
	}
}

func (a *Assembler) buildLargeTraderSection(ctx context.Context, day twse.TradingDay) *LargeTraderSection {
	result := a.positions.Positions(ctx, a.securities)
	section := &LargeTraderSection{
		Date:     day.ISO(),
		ByTicker: make(map[string]*LargeTraderEntry, len(result.ByTicker)),
		Err:      errString(result.Err),
	}
	for ticker, sr := range result.ByTicker {
		entry := &LargeTraderEntry{Product: sr.Product, Err: errString(sr.Err)}
		if sr.Position != nil {
			entry.Top5 = sideView(sr.Position.Top5)
			entry.Top10 = sideView(sr.Position.Top10)
			oi := common.GroupedInt(sr.Position.OpenInterest)
			entry.OpenInterest = &oi
		}
		section.ByTicker[ticker] = entry
	}
	return section
}

func (a *Assembler) pause() {
	if a.delay > 0 {
		a.sleep(a.delay)
	}
}

// formatPrice renders the quote's optional figures. Close stays ungrouped
// so it round-trips through numeric parsing; the signed figures trim
// trailing zeros.
func formatPrice(quote twse.Quote) Price {
	var price Price
	if quote.Close != nil {
		s := common.FormatNumber(*quote.Close, 2)
		price.Close = &s
	}
	if quote.Change != nil {
		s := common.FormatSigned(*quote.Change, 2)
		price.Change = &s
	}
	if quote.ChangePct != nil {
		s := common.FormatSigned(*quote.ChangePct, 2)
		price.ChangePct = &s
	}
	return price
}

func flowDisplay(flows twse.FlowMap, ticker string) *string {
	if flows == nil {
		return nil
	}
	lots, ok := flows.Lots(ticker)
	if !ok {
		return nil
	}
	s := common.GroupedSignedInt(lots)
	return &s
}

func foreignViews(rows []moneydj.ForeignRow) []ForeignRowView {
	views := make([]ForeignRowView, 0, len(rows))
	for _, row := range rows {
		view := ForeignRowView{
			Rank:    row.Rank,
			Code:    row.Code,
			Name:    row.Name,
			NetLots: common.GroupThousands(common.FormatSigned(row.NetLots, 0)),
		}
		if row.Close != 0 {
			view.Close = common.FormatNumber(row.Close, 2)
		}
		if row.Change != 0 {
			view.Change = common.FormatSigned(row.Change, 2)
		}
		views = append(views, view)
	}
	return views
}

func sideView(side taifex.Side) *SideView {
	return &SideView{
		Long:  common.GroupedInt(side.Long),
		Short: common.GroupedInt(side.Short),
		Net:   common.GroupedSignedInt(side.Net),
	}
}
