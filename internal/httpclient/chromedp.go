package httpclient

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// ChromeRenderer fetches pages through headless Chrome. It exists only as a
// fallback for upstreams that refuse the plain HTTP client.
type ChromeRenderer struct {
	userAgent string
	waitTime  time.Duration
	logger    arbor.ILogger
}

// NewChromeRenderer creates a renderer with the given user agent.
func NewChromeRenderer(userAgent string, waitTime time.Duration, logger arbor.ILogger) *ChromeRenderer {
	if waitTime <= 0 {
		waitTime = 3 * time.Second
	}
	return &ChromeRenderer{
		userAgent: userAgent,
		waitTime:  waitTime,
		logger:    logger,
	}
}

// Render navigates to the URL in a fresh browser context and returns the
// rendered document HTML.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserAgent(r.userAgent),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocatorCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx,
		chromedp.WithLogf(func(s string, i ...interface{}) {
			if r.logger != nil {
				r.logger.Debug().Msgf("chromedp: "+s, i...)
			}
		}))
	defer browserCancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(r.waitTime),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
