package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/sites"
)

// consentTimeout bounds the cookie-banner dismissal attempt.
const consentTimeout = 3 * time.Second

// Static assets the pipeline never reads. Cover URLs come from DOM
// attributes, not from loaded bytes, so image loads are pure overhead.
var blockedURLPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.otf",
	"*.mp4", "*.webm", "*.mp3",
}

// session is one leased tab. It is single-use: Render once, then Close.
type session struct {
	browser *Browser
	ctx     context.Context
	cancel  context.CancelFunc
	ua      string
}

// Render navigates to the product page and returns the serialized DOM
// together with the fragments computed inside the page. A navigation
// that times out on a page which still produced content is not an
// error; a timeout on an empty document is.
func (s *session) Render(ctx context.Context, p *sites.Profile, pageURL string) (*domain.RenderedPage, error) {
	stop := context.AfterFunc(ctx, s.cancel)
	defer stop()

	navTimedOut, err := s.navigate(pageURL)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.dismissConsent(p)
	s.awaitContent(p)

	page, err := s.harvest(p, navTimedOut)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *session) Close() error {
	s.cancel()
	return nil
}

// navigate drives the tab to the page. The bool result reports an
// absorbed navigation timeout: the page kept loading past the deadline
// but the tab is still usable.
func (s *session) navigate(pageURL string) (bool, error) {
	navCtx, cancel := context.WithTimeout(s.ctx, s.browser.opts.NavTimeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		network.Enable(),
		network.SetBlockedURLs(blockedURLPatterns),
		emulation.SetUserAgentOverride(s.ua),
		chromedp.Navigate(pageURL),
	)
	switch {
	case err == nil:
		return false, nil
	case isLaunchFailure(err):
		return false, fmt.Errorf("%w: %v", domain.ErrRendererUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded) && s.ctx.Err() == nil:
		s.browser.log.Debug("navigation deadline hit, harvesting partial page",
			zap.String("url", pageURL))
		return true, nil
	default:
		return false, fmt.Errorf("%w: %v", domain.ErrNavigationError, err)
	}
}

// dismissConsent clicks the site's known consent buttons, falling back
// to a text scan over clickable elements. Best effort only.
func (s *session) dismissConsent(p *sites.Profile) {
	consentCtx, cancel := context.WithTimeout(s.ctx, consentTimeout)
	defer cancel()

	var clicked string
	err := chromedp.Run(consentCtx,
		chromedp.Evaluate(consentScript(p.ConsentSelectors), &clicked),
	)
	if err != nil {
		s.browser.log.Debug("consent dismissal skipped", zap.Error(err))
		return
	}
	if clicked != "" {
		s.browser.log.Debug("consent layer dismissed", zap.String("via", clicked))
	}
}

// awaitContent waits, bounded, for the site's content selector. Pages
// that never show it are still harvested.
func (s *session) awaitContent(p *sites.Profile) {
	if p.Selectors.ContentWait == "" || s.browser.opts.RenderWait <= 0 {
		return
	}
	waitCtx, cancel := context.WithTimeout(s.ctx, s.browser.opts.RenderWait)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(p.Selectors.ContentWait, chromedp.ByQuery)); err != nil {
		s.browser.log.Debug("content selector never became visible",
			zap.String("selector", p.Selectors.ContentWait))
	}
}

// harvest serializes the DOM and runs the in-page probes. Each probe is
// independent: a failing one leaves its fragment empty.
func (s *session) harvest(p *sites.Profile, navTimedOut bool) (*domain.RenderedPage, error) {
	harvestCtx, cancel := context.WithTimeout(s.ctx, s.browser.opts.NavTimeout)
	defer cancel()

	page := &domain.RenderedPage{}
	if err := chromedp.Run(harvestCtx, chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery)); err != nil {
		if navTimedOut {
			return nil, fmt.Errorf("%w: no document after navigation deadline", domain.ErrNavigationTimeout)
		}
		return nil, fmt.Errorf("%w: serialize dom: %v", domain.ErrNavigationError, err)
	}

	if navTimedOut {
		var bodyLen int
		if err := chromedp.Run(harvestCtx, chromedp.Evaluate(bodyTextLengthScript, &bodyLen)); err != nil || bodyLen == 0 {
			return nil, fmt.Errorf("%w: empty document after navigation deadline", domain.ErrNavigationTimeout)
		}
	}

	if err := chromedp.Run(harvestCtx, chromedp.Evaluate(structuredDataScript, &page.StructuredData)); err != nil {
		s.browser.log.Debug("structured data probe failed", zap.Error(err))
		page.StructuredData = nil
	}

	if len(p.DataMarkers) > 0 {
		if err := chromedp.Run(harvestCtx, chromedp.Evaluate(dataAttributesScript(p.DataMarkers), &page.DataAttributes)); err != nil {
			s.browser.log.Debug("data attribute probe failed", zap.Error(err))
			page.DataAttributes = nil
		}
	}

	var author authorProbe
	if err := chromedp.Run(harvestCtx, chromedp.Evaluate(authorScript(p.Selectors.AuthorLink, p.Selectors.Description), &author)); err != nil {
		s.browser.log.Debug("author probe failed", zap.Error(err))
	} else if author.Value != "" {
		page.ComputedAuthor = &domain.ComputedAuthor{Value: author.Value, Source: author.Source}
	}

	return page, nil
}
