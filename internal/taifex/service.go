package taifex

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketsnap/internal/common"
	"github.com/ternarybob/marketsnap/internal/httpclient"
)

// Service runs the discover-then-bind query cycle against the large-trader
// query form, one pass per security.
type Service struct {
	fetcher  *httpclient.Client
	logger   arbor.ILogger
	queryURL string
	delay    time.Duration
	order    FieldOrder
	sleep    func(time.Duration)
}

// NewService creates the derivatives extractor.
func NewService(fetcher *httpclient.Client, config common.TaifexConfig, logger arbor.ILogger) *Service {
	return &Service{
		fetcher:  fetcher,
		logger:   logger,
		queryURL: config.QueryURL,
		delay:    config.QueryDelay,
		order:    FieldOrderFromSlice(config.FieldOrder),
		sleep:    time.Sleep,
	}
}

// SecurityResult is one security's outcome: either a parsed position
// structure or an explanatory error, never both.
type SecurityResult struct {
	Product  string
	Position *Position
	Err      string
}

// Result carries every security's outcome. Err summarizes the first
// failure encountered; securities that succeeded are present regardless.
type Result struct {
	ByTicker map[string]*SecurityResult
	Err      string
}

// Positions queries the position structure for every configured security.
// A per-security failure never aborts the remaining securities.
func (s *Service) Positions(ctx context.Context, securities []common.Security) *Result {
	result := &Result{ByTicker: make(map[string]*SecurityResult, len(securities))}

	html, err := s.fetcher.GetText(ctx, s.queryURL)
	if err != nil {
		s.failAll(result, securities, fmt.Sprintf("query page fetch failed: %v", err))
		return result
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.failAll(result, securities, fmt.Sprintf("query page parse failed: %v", err))
		return result
	}

	keywords := make([]string, 0, len(securities))
	for _, sec := range securities {
		keywords = append(keywords, sec.Keyword)
	}

	form, formErr := discoverForm(doc, s.queryURL)
	if formErr != nil || form.DistinctMatches(keywords) < 2 {
		// Undiscoverable form. Some deployments pre-render results into the
		// initial page, so try parsing it directly before giving up.
		if s.logger != nil {
			s.logger.Warn().Msg("Query form undiscoverable, parsing initial page for summary rows")
		}
		s.parsePrerendered(doc, securities, result)
		return result
	}

	for i, sec := range securities {
		if i > 0 && s.delay > 0 {
			s.sleep(s.delay)
		}
		sr := s.querySecurity(ctx, form, sec)
		result.ByTicker[sec.Ticker] = sr
		if sr.Err != "" && result.Err == "" {
			result.Err = fmt.Sprintf("%s: %s", sec.Keyword, sr.Err)
		}
	}
	return result
}

// querySecurity binds the security's option into a clone of the base
// payload, submits the form, and parses the response.
func (s *Service) querySecurity(ctx context.Context, form *FormSpec, sec common.Security) *SecurityResult {
	sr := &SecurityResult{Product: sec.Keyword}

	match := form.MatchSecurity(sec.Keyword)
	if match == nil {
		sr.Err = "no selection option matched the security keyword"
		return sr
	}
	sr.Product = match.Text
	if match.Relaxed && s.logger != nil {
		s.logger.Warn().Str("keyword", sec.Keyword).Str("option", match.Text).
			Msg("Accepted option without futures marker (relaxed match)")
	}

	payload := url.Values{}
	for k, vs := range form.Payload {
		payload[k] = append([]string(nil), vs...)
	}
	payload.Set(match.Field, match.Value)

	html, err := s.submit(ctx, form, payload)
	if err != nil {
		sr.Err = fmt.Sprintf("query failed: %v", err)
		return sr
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		sr.Err = fmt.Sprintf("result parse failed: %v", err)
		return sr
	}

	pos, err := parsePositions(doc, sec.Keyword, s.order)
	if err != nil {
		sr.Err = err.Error()
		return sr
	}
	sr.Position = pos
	return sr
}

// submit sends the payload using the form's declared method and action URL.
func (s *Service) submit(ctx context.Context, form *FormSpec, payload url.Values) (string, error) {
	if form.Method == "GET" {
		sep := "?"
		if strings.Contains(form.Action, "?") {
			sep = "&"
		}
		return s.fetcher.GetText(ctx, form.Action+sep+payload.Encode())
	}
	return s.fetcher.PostForm(ctx, form.Action, payload)
}

// parsePrerendered extracts summary rows straight from the initial page.
func (s *Service) parsePrerendered(doc *goquery.Document, securities []common.Security, result *Result) {
	for _, sec := range securities {
		sr := &SecurityResult{Product: sec.Keyword}
		pos, err := parsePositions(doc, sec.Keyword, s.order)
		if err != nil {
			sr.Err = fmt.Sprintf("form undiscoverable; %v", err)
		} else {
			sr.Position = pos
		}
		result.ByTicker[sec.Ticker] = sr
		if sr.Err != "" && result.Err == "" {
			result.Err = fmt.Sprintf("%s: %s", sec.Keyword, sr.Err)
		}
	}
}

func (s *Service) failAll(result *Result, securities []common.Security, msg string) {
	result.Err = msg
	for _, sec := range securities {
		result.ByTicker[sec.Ticker] = &SecurityResult{Product: sec.Keyword, Err: msg}
	}
}
