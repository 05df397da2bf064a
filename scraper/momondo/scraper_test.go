package momondo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"travel-scout/config"
	"travel-scout/models"
	"travel-scout/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	emptyPage  = `<html><body><div class="results"></div></body></html>`
	bookedPage = `<html><body>
		<a href="/flight-details/1">details</a>
		<a href="/book/flight?code=first">Book</a>
		<a href="/book/flight?code=second">Book</a>
	</body></html>`
)

type fakeBrowser struct {
	mu sync.Mutex

	blockNavigate bool
	navigateErr   error
	clickErr      error
	pages         []string
	htmlErr       error
	landing       string
	resolveErr    error

	navigated  []string
	clicked    []string
	resolved   []string
	htmlCalls  int
	closeCount int
}

func (b *fakeBrowser) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	b.navigated = append(b.navigated, url)
	block := b.blockNavigate
	b.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return b.navigateErr
}

func (b *fakeBrowser) Click(_ context.Context, selector string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clicked = append(b.clicked, selector)
	return b.clickErr
}

func (b *fakeBrowser) HTML(_ context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.htmlCalls++
	if b.htmlErr != nil {
		return "", b.htmlErr
	}
	if len(b.pages) == 0 {
		return emptyPage, nil
	}
	page := b.pages[0]
	if len(b.pages) > 1 {
		b.pages = b.pages[1:]
	}
	return page, nil
}

func (b *fakeBrowser) ResolveRedirect(_ context.Context, url string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resolved = append(b.resolved, url)
	if b.resolveErr != nil {
		return "", b.resolveErr
	}
	return b.landing, nil
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeCount++
	return nil
}

type fakeLauncher struct {
	browser *fakeBrowser
	err     error
}

func (l *fakeLauncher) Launch(_ context.Context) (Browser, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.browser, nil
}

func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{
		BaseURL:             "https://www.momondo.com",
		QuerySuffix:         "ucs=ffm4n7&sort=bestflight_a",
		BookingPathPrefix:   "/book/flight",
		SortSelector:        `div[aria-label="Cheapest"]`,
		NavigationTimeout:   50 * time.Millisecond,
		SortTimeout:         20 * time.Millisecond,
		ExtractTimeout:      60 * time.Millisecond,
		ExtractPollInterval: 5 * time.Millisecond,
		RedirectTimeout:     50 * time.Millisecond,
	}
}

func testParams() models.FlightSearchParams {
	return models.FlightSearchParams{
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureDate: "2025-05-10",
		ReturnDate:    "2025-05-17",
		Passengers:    models.DefaultPassengers(),
	}
}

func newTestScraper(b *fakeBrowser) *Scraper {
	return NewScraper(testScraperConfig(), &fakeLauncher{browser: b}, utils.NewNopLogger())
}

func assertFailedIn(t *testing.T, res Result, state State, kind error) {
	t.Helper()
	assert.Equal(t, StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, kind)
	var stepErr *StepError
	require.True(t, errors.As(res.Err, &stepErr))
	assert.Equal(t, state, stepErr.State)
}

func TestScrape_Resolved(t *testing.T) {
	b := &fakeBrowser{pages: []string{bookedPage}, landing: "https://airline.example/checkout?fare=1"}
	res := newTestScraper(b).Scrape(context.Background(), testParams())

	assert.Equal(t, StatusResolved, res.Status)
	assert.True(t, res.Found())
	assert.NoError(t, res.Err)
	assert.Equal(t, "https://airline.example/checkout?fare=1", res.BookingURL)
	assert.Equal(t, "/book/flight?code=first", res.ExtractedHref)
	assert.Equal(t, "https://www.momondo.com/flight-search/JFK-LAX/2025-05-10/2025-05-17/1adults?ucs=ffm4n7&sort=bestflight_a", res.TargetURL)
	assert.Equal(t, []string{res.TargetURL}, b.navigated)
	assert.Equal(t, []string{`div[aria-label="Cheapest"]`}, b.clicked)
	assert.Equal(t, []string{"https://www.momondo.com/book/flight?code=first"}, b.resolved)
	assert.Equal(t, 1, b.closeCount)
}

func TestScrape_AnchorsAppearLate(t *testing.T) {
	b := &fakeBrowser{pages: []string{emptyPage, emptyPage, bookedPage}, landing: "https://airline.example/"}
	res := newTestScraper(b).Scrape(context.Background(), testParams())

	assert.Equal(t, StatusResolved, res.Status)
	assert.GreaterOrEqual(t, b.htmlCalls, 3)
	assert.Equal(t, 1, b.closeCount)
}

func TestScrape_NotFound(t *testing.T) {
	b := &fakeBrowser{pages: []string{emptyPage}}
	res := newTestScraper(b).Scrape(context.Background(), testParams())

	assert.Equal(t, StatusNotFound, res.Status)
	assert.NoError(t, res.Err)
	assert.Empty(t, res.BookingURL)
	assert.Empty(t, b.resolved)
	assert.Equal(t, 1, b.closeCount)
}

func TestScrape_NavigationTimeout(t *testing.T) {
	b := &fakeBrowser{blockNavigate: true}
	res := newTestScraper(b).Scrape(context.Background(), testParams())

	assertFailedIn(t, res, StateLoading, ErrNavigationTimeout)
	assert.Zero(t, b.htmlCalls)
	assert.Equal(t, 1, b.closeCount)
}

func TestScrape_NavigationError(t *testing.T) {
	b := &fakeBrowser{navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	res := newTestScraper(b).Scrape(context.Background(), testParams())

	assertFailedIn(t, res, StateLoading, ErrNavigation)
	assert.Equal(t, 1, b.closeCount)
}

func TestScrape_LaunchFailure(t *testing.T) {
	s := NewScraper(testScraperConfig(), &fakeLauncher{err: errors.New("chrome not found")}, utils.NewNopLogger())
	res := s.Scrape(context.Background(), testParams())

	assertFailedIn(t, res, StateLoading, ErrBrowserLaunch)
	assert.NotEmpty(t, res.TargetURL)
}

func TestScrape_SortFailureIsIgnored(t *testing.T) {
	b := &fakeBrowser{
		clickErr: errors.New("no node matched selector"),
		pages:    []string{bookedPage},
		landing:  "https://airline.example/",
	}
	res := newTestScraper(b).Scrape(context.Background(), testParams())

	assert.Equal(t, StatusResolved, res.Status)
	assert.Len(t, b.clicked, 1)
	assert.Equal(t, 1, b.closeCount)
}

func TestScrape_RedirectFailure(t *testing.T) {
	b := &fakeBrowser{pages: []string{bookedPage}, resolveErr: errors.New("tab crashed")}
	res := newTestScraper(b).Scrape(context.Background(), testParams())

	assertFailedIn(t, res, StateResolving, ErrRedirectResolution)
	assert.Equal(t, 1, b.closeCount)
}

func TestScrape_BlankLandingIsFailure(t *testing.T) {
	b := &fakeBrowser{pages: []string{bookedPage}, landing: "about:blank"}
	res := newTestScraper(b).Scrape(context.Background(), testParams())

	assertFailedIn(t, res, StateResolving, ErrRedirectResolution)
}

func TestScrape_UnreadablePage(t *testing.T) {
	b := &fakeBrowser{htmlErr: errors.New("target closed")}
	res := newTestScraper(b).Scrape(context.Background(), testParams())

	assertFailedIn(t, res, StateExtracting, ErrExtraction)
	assert.Equal(t, 1, b.closeCount)
}

func TestScrape_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &fakeBrowser{}
	res := newTestScraper(b).Scrape(ctx, testParams())

	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 1, b.closeCount)
}

func TestFindBookingHref(t *testing.T) {
	href, ok, err := FindBookingHref(bookedPage, "/book/flight")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/book/flight?code=first", href)

	href, ok, err = FindBookingHref(`<a href="https://www.momondo.com/book/flight?code=abs">x</a>`, "/book/flight")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://www.momondo.com/book/flight?code=abs", href)

	_, ok, err = FindBookingHref(emptyPage, "/book/flight")
	require.NoError(t, err)
	assert.False(t, ok)
}
