package momondo

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"travel-scout/config"
	"travel-scout/models"
	"travel-scout/utils"

	"github.com/PuerkitoBio/goquery"
)

// Scraper turns flight search parameters into a resolved booking URL by driving
// a browser through LOADING, SETTLING, SORTING, EXTRACTING and RESOLVING.
type Scraper struct {
	cfg      config.ScraperConfig
	launcher Launcher
	logger   *utils.Logger
}

// NewScraper creates a Scraper
func NewScraper(cfg config.ScraperConfig, launcher Launcher, logger *utils.Logger) *Scraper {
	return &Scraper{cfg: cfg, launcher: launcher, logger: logger}
}

// Scrape runs one lookup. The browser session is closed exactly once on every path.
func (s *Scraper) Scrape(ctx context.Context, params models.FlightSearchParams) (res Result) {
	start := time.Now()
	target, err := BuildSearchURL(s.cfg.BaseURL, s.cfg.QuerySuffix, params)
	defer func() {
		res.TargetURL = target
		res.Duration = time.Since(start)
	}()
	if err != nil {
		return failed(StateLoading, ErrNavigation, err)
	}

	log := s.logger.With("route", params.Origin+"-"+params.Destination)

	browser, err := s.launcher.Launch(ctx)
	if err != nil {
		log.Error("Browser launch failed: %v", err)
		return failed(StateLoading, ErrBrowserLaunch, err)
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			log.Warn("Browser close failed: %v", cerr)
		}
	}()

	// LOADING
	log.Info("Navigating to: %s", target)
	if r, ok := s.load(ctx, browser, target); !ok {
		return r
	}

	// SETTLING
	if err := s.settle(ctx, browser); err != nil {
		return cancelled(StateSettling, err)
	}

	// SORTING
	if err := s.sort(ctx, browser, log); err != nil {
		return cancelled(StateSorting, err)
	}

	// EXTRACTING
	href, err := s.extract(ctx, browser)
	switch {
	case errors.Is(err, utils.ErrPollTimeout):
		log.Info("No booking link found")
		return Result{Status: StatusNotFound}
	case errors.Is(err, ErrExtraction):
		return failed(StateExtracting, err, nil)
	case err != nil:
		return cancelled(StateExtracting, err)
	}
	log.Debug("Found booking link: %s", href)

	// RESOLVING
	link, err := absoluteLink(s.cfg.BaseURL, href)
	if err != nil {
		return failed(StateResolving, ErrRedirectResolution, err)
	}
	final, err := s.resolve(ctx, browser, link)
	if err != nil {
		log.Warn("Redirect resolution failed for %s: %v", link, err)
		if ctx.Err() != nil {
			return cancelled(StateResolving, ctx.Err())
		}
		return failed(StateResolving, ErrRedirectResolution, err)
	}

	log.Info("Resolved booking URL: %s", final)
	return Result{Status: StatusResolved, ExtractedHref: href, BookingURL: final}
}

func (s *Scraper) load(ctx context.Context, browser Browser, target string) (Result, bool) {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	err := browser.Navigate(navCtx, target)
	switch {
	case err == nil:
		return Result{}, true
	case ctx.Err() != nil:
		return cancelled(StateLoading, ctx.Err()), false
	case errors.Is(err, context.DeadlineExceeded) || navCtx.Err() != nil:
		return failed(StateLoading, ErrNavigationTimeout, err), false
	default:
		return failed(StateLoading, ErrNavigation, err), false
	}
}

// settle waits for client-side rendering. With a marker selector configured it
// returns as soon as the marker appears; otherwise it waits the full dwell.
func (s *Scraper) settle(ctx context.Context, browser Browser) error {
	if s.cfg.SettleMarker == "" {
		return utils.Sleep(ctx, s.cfg.SettleDwell)
	}
	err := utils.Poll(ctx, s.cfg.ExtractPollInterval, s.cfg.SettleDwell, func(pctx context.Context) (bool, error) {
		html, err := browser.HTML(pctx)
		if err != nil {
			return false, nil
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return false, nil
		}
		return doc.Find(s.cfg.SettleMarker).Length() > 0, nil
	})
	if errors.Is(err, utils.ErrPollTimeout) {
		return nil
	}
	return err
}

// sort applies the cheapest-first ordering. A missing control is not an error;
// only cancellation of ctx is returned.
func (s *Scraper) sort(ctx context.Context, browser Browser, log *utils.Logger) error {
	if s.cfg.SortSelector == "" {
		return nil
	}
	sortCtx, cancel := context.WithTimeout(ctx, s.cfg.SortTimeout)
	err := browser.Click(sortCtx, s.cfg.SortSelector)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("Sort control unavailable, keeping default order: %v", err)
		return nil
	}
	return utils.Sleep(ctx, s.cfg.SortDwell)
}

// extract polls the rendered page for the first booking anchor in document order.
// It returns ErrPollTimeout when anchors never appeared and ErrExtraction when the
// page could never be read at all.
func (s *Scraper) extract(ctx context.Context, browser Browser) (string, error) {
	var (
		href     string
		readOnce bool
		lastErr  error
	)
	err := utils.Poll(ctx, s.cfg.ExtractPollInterval, s.cfg.ExtractTimeout, func(pctx context.Context) (bool, error) {
		html, err := browser.HTML(pctx)
		if err != nil {
			lastErr = err
			return false, nil
		}
		readOnce = true
		h, ok, err := FindBookingHref(html, s.cfg.BookingPathPrefix)
		if err != nil {
			lastErr = err
			return false, nil
		}
		href = h
		return ok, nil
	})
	if errors.Is(err, utils.ErrPollTimeout) && !readOnce && lastErr != nil {
		return "", errors.Join(ErrExtraction, lastErr)
	}
	if err != nil {
		return "", err
	}
	return href, nil
}

func (s *Scraper) resolve(ctx context.Context, browser Browser, link string) (string, error) {
	resolveCtx, cancel := context.WithTimeout(ctx, s.cfg.RedirectTimeout)
	defer cancel()

	final, err := browser.ResolveRedirect(resolveCtx, link)
	if err != nil {
		return "", err
	}
	final = strings.TrimSpace(final)
	if final == "" || final == "about:blank" {
		return "", errors.New("empty landing url")
	}
	return final, nil
}

// FindBookingHref returns the href of the first anchor whose path starts with prefix
func FindBookingHref(html, prefix string) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false, err
	}
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if matchesPrefix(href, prefix) {
			found = href
			return false
		}
		return true
	})
	return found, found != "", nil
}

func matchesPrefix(href, prefix string) bool {
	if href == "" {
		return false
	}
	if strings.HasPrefix(href, prefix) {
		return true
	}
	u, err := url.Parse(href)
	if err != nil || !u.IsAbs() {
		return false
	}
	return strings.HasPrefix(u.RequestURI(), prefix)
}
