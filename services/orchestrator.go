package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"travel-scout/config"
	"travel-scout/metrics"
	"travel-scout/models"
	"travel-scout/scraper/momondo"
	"travel-scout/utils"

	"github.com/google/uuid"
)

var (
	// ErrCollaborator marks a failure of an external collaborator that could not be recovered locally
	ErrCollaborator = errors.New("upstream collaborator failed")
	// ErrTextAnalysisUnavailable is returned when structured extraction is requested without a configured analyzer
	ErrTextAnalysisUnavailable = errors.New("missing API key configuration")
	// ErrHistoryUnavailable is returned when lookup history is requested without a database
	ErrHistoryUnavailable = errors.New("lookup history is not configured")
)

const (
	flightExtractionMaxTokens = 500
	recommendZoom             = 15
	defaultCurrency           = "USD"
	widenFactor               = 2
	maxLookupLimit            = 100
	noListingsMessage         = "No Airbnb listings found in this area matching your price range. Try expanding your search criteria."
	accommodationFailure      = "Failed to search for Airbnb listings"
)

// ListingSource is the listing search and review provider
type ListingSource interface {
	Search(ctx context.Context, q models.SearchQuery) ([]models.RawListing, error)
	Reviews(ctx context.Context, roomURL string) ([]models.ReviewComment, error)
}

// FlightScraper resolves flight search parameters into a booking link
type FlightScraper interface {
	Scrape(ctx context.Context, params models.FlightSearchParams) momondo.Result
}

// History persists flight lookups and recommendation results
type History interface {
	SaveFlightLookup(ctx context.Context, lookup models.FlightLookup) error
	RecentLookups(ctx context.Context, limit int) ([]models.FlightLookup, error)
	SaveRecommendations(ctx context.Context, requestID string, ranked []models.RankedListing) error
}

// Dependencies are the collaborators an Orchestrator coordinates. Analyzer and
// History may be nil; Now defaults to time.Now.
type Dependencies struct {
	Listings ListingSource
	Signals  *ReviewSignalExtractor
	Scraper  FlightScraper
	Analyzer TextAnalyzer
	History  History
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Orchestrator implements the search, ranking and flight operations behind the HTTP and CLI surfaces
type Orchestrator struct {
	cfg      config.RankingConfig
	listings ListingSource
	filter   *FilterPipeline
	signals  *ReviewSignalExtractor
	scraper  FlightScraper
	analyzer TextAnalyzer
	history  History
	metrics  *metrics.Metrics
	logger   *utils.Logger
	now      func() time.Time
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(cfg config.RankingConfig, filter *FilterPipeline, deps Dependencies, logger *utils.Logger) *Orchestrator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		cfg:      cfg,
		listings: deps.Listings,
		filter:   filter,
		signals:  deps.Signals,
		scraper:  deps.Scraper,
		analyzer: deps.Analyzer,
		history:  deps.History,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      now,
	}
}

func collaboratorError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrCollaborator, err)
}

// ===== Listing search =====

// SearchRequest selects listings by area, dates and optional category
type SearchRequest struct {
	CheckIn  string
	CheckOut string
	Box      models.BoundingBox
	Zoom     int
	Currency string
	Category string
	// Preset names the rating floor; empty uses the configured search preset
	Preset string
}

// Search returns listings above the rating floor, optionally restricted to a category
func (o *Orchestrator) Search(ctx context.Context, req SearchRequest) ([]models.Listing, error) {
	if strings.TrimSpace(req.CheckIn) == "" || strings.TrimSpace(req.CheckOut) == "" {
		return nil, models.NewInputError("Missing check-in or check-out dates")
	}
	raw, err := o.listings.Search(ctx, searchQuery(req.CheckIn, req.CheckOut, req.Box, req.Zoom, req.Currency))
	if err != nil {
		return nil, collaboratorError("listing search", err)
	}

	preset := req.Preset
	if preset == "" {
		preset = o.cfg.SearchPreset
	}
	floor := o.cfg.MinRating(preset)
	return o.filter.Filter(raw, Criteria{MinRating: &floor, Category: req.Category}), nil
}

func searchQuery(checkIn, checkOut string, box models.BoundingBox, zoom int, currency string) models.SearchQuery {
	if currency == "" {
		currency = defaultCurrency
	}
	return models.SearchQuery{
		CheckIn:  strings.TrimSpace(checkIn),
		CheckOut: strings.TrimSpace(checkOut),
		Box:      box,
		Zoom:     zoom,
		Currency: currency,
	}
}

// Reviews analyses every non-empty review of one listing
func (o *Orchestrator) Reviews(ctx context.Context, roomURL string) ([]models.ReviewAnalysis, error) {
	roomURL = strings.TrimSpace(roomURL)
	if roomURL == "" {
		return nil, models.NewInputError("Missing room_url parameter")
	}
	comments, err := o.listings.Reviews(ctx, roomURL)
	if err != nil {
		return nil, collaboratorError("review fetch", err)
	}

	out := make([]models.ReviewAnalysis, 0, len(comments))
	for _, c := range comments {
		text := strings.TrimSpace(c.Comments)
		if text == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := o.signals.Extract(ctx, text)
		out = append(out, models.ReviewAnalysis{Comment: text, Sentiment: s.Sentiment, Keywords: s.Keywords})
	}
	return out, nil
}

// ===== Ranking =====

// RecommendRequest selects and ranks listings against user preferences.
// A nil PriceRange or empty Keywords take the configured defaults.
type RecommendRequest struct {
	CheckIn    string
	CheckOut   string
	Box        models.BoundingBox
	Zoom       int
	Currency   string
	PriceRange *models.PriceRange
	Keywords   []string
}

// Preferences resolves the effective price range and keywords of req
func (o *Orchestrator) Preferences(req RecommendRequest) models.UserPreferences {
	pr := models.PriceRange{Min: o.cfg.DefaultMinPrice, Max: o.cfg.DefaultMaxPrice}
	if req.PriceRange != nil {
		pr = *req.PriceRange
	}
	keywords := NormalizeKeywords(req.Keywords)
	if len(keywords) == 0 {
		keywords = NormalizeKeywords(o.cfg.DefaultKeywords)
	}
	return models.UserPreferences{PriceRange: pr, Keywords: keywords}
}

// NormalizeKeywords lowercases, trims and drops empty keywords. Items may themselves be comma-separated.
func NormalizeKeywords(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, k := range strings.Split(item, ",") {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				out = append(out, k)
			}
		}
	}
	return out
}

// Recommend filters listings by price, scores the first candidates by their reviews
// and returns the best few
func (o *Orchestrator) Recommend(ctx context.Context, req RecommendRequest) (models.Recommendation, error) {
	if strings.TrimSpace(req.CheckIn) == "" || strings.TrimSpace(req.CheckOut) == "" {
		return models.Recommendation{}, models.NewInputError("Missing check-in or check-out dates")
	}
	prefs := o.Preferences(req)
	rec := models.Recommendation{Results: []models.RecommendedListing{}, UserPreferences: prefs}

	zoom := req.Zoom
	if zoom == 0 {
		zoom = recommendZoom
	}
	raw, err := o.listings.Search(ctx, searchQuery(req.CheckIn, req.CheckOut, req.Box, zoom, req.Currency))
	if err != nil {
		return models.Recommendation{}, collaboratorError("listing search", err)
	}

	candidates := o.filter.Filter(raw, Criteria{PriceRange: &prefs.PriceRange})
	o.logger.Info("After price filtering: %d listings remain", len(candidates))
	if len(candidates) == 0 {
		rec.Message = noListingsMessage
		return rec, nil
	}
	if len(candidates) > o.cfg.MaxCandidates {
		candidates = candidates[:o.cfg.MaxCandidates]
	}

	ranked := make([]models.RankedListing, 0, len(candidates))
	for _, l := range candidates {
		if err := ctx.Err(); err != nil {
			return models.Recommendation{}, err
		}
		ranked = append(ranked, o.scoreListing(ctx, l, prefs.Keywords))
	}

	top := Rank(ranked, o.cfg.TopN)
	for _, r := range top {
		rec.Results = append(rec.Results, toRecommended(r))
	}

	if o.history != nil {
		if err := o.history.SaveRecommendations(ctx, uuid.NewString(), top); err != nil {
			o.logger.Warn("Failed to store recommendations: %v", err)
		}
	}
	return rec, nil
}

// scoreListing never fails; a listing whose reviews cannot be read gets the error score
func (o *Orchestrator) scoreListing(ctx context.Context, l models.Listing, keywords []string) models.RankedListing {
	comments, err := o.listings.Reviews(ctx, l.URL)
	if err != nil {
		o.logger.Warn("Error retrieving reviews for listing %s: %v", l.ID, err)
		o.metrics.ListingScored(true)
		return Errored(l, fmt.Errorf("reviews unavailable: %w", err))
	}

	if len(comments) > o.cfg.ReviewsPerListing {
		comments = comments[:o.cfg.ReviewsPerListing]
	}
	signals := make([]models.ReviewSignal, 0, len(comments))
	for _, c := range comments {
		if strings.TrimSpace(c.Comments) == "" {
			continue
		}
		signals = append(signals, o.signals.Extract(ctx, c.Comments))
	}

	b := Tally(signals, keywords)
	o.metrics.ListingScored(false)
	o.logger.Debug("Listing %s: sentiment=%d keywords=%d reviews=%d", l.ID, b.SentimentScore, b.KeywordMatches, b.ReviewCount)
	return Scored(l, b)
}

func toRecommended(r models.RankedListing) models.RecommendedListing {
	out := models.RecommendedListing{
		ID:           r.Listing.ID,
		Name:         r.Listing.Name,
		URL:          r.Listing.URL,
		Rating:       r.Listing.Rating,
		ImageURLs:    []string{},
		Score:        r.Score,
		MatchReasons: r.Breakdown,
		Error:        r.Error,
	}
	if amount, ok := r.Listing.PriceAmount(); ok {
		out.Price = &amount
	}
	if len(r.Listing.ImageURLs) > 0 {
		out.ImageURLs = r.Listing.ImageURLs[:1]
	}
	return out
}

// ===== Flights =====

// SearchFlight validates params and runs one scrape. The outcome is recorded in history when configured.
func (o *Orchestrator) SearchFlight(ctx context.Context, params models.FlightSearchParams) (momondo.Result, error) {
	if err := params.Validate(); err != nil {
		return momondo.Result{}, err
	}
	res := o.scraper.Scrape(ctx, params)
	o.metrics.ObserveScrape(string(res.Status), res.Duration)
	if res.Status == momondo.StatusFailed {
		o.logger.Warn("Flight lookup %s-%s failed: %v", params.Origin, params.Destination, res.Err)
	}
	o.recordLookup(ctx, params, res)
	return res, nil
}

func (o *Orchestrator) recordLookup(ctx context.Context, params models.FlightSearchParams, res momondo.Result) {
	if o.history == nil {
		return
	}
	lookup := models.FlightLookup{
		ID:         uuid.NewString(),
		Params:     params,
		TargetURL:  res.TargetURL,
		Outcome:    string(res.Status),
		BookingURL: res.BookingURL,
		Duration:   res.Duration,
		CreatedAt:  o.now().UTC(),
	}
	if res.Err != nil {
		lookup.Reason = res.Err.Error()
	}
	if err := o.history.SaveFlightLookup(context.WithoutCancel(ctx), lookup); err != nil {
		o.logger.Warn("Failed to store flight lookup: %v", err)
	}
}

// RecentLookups returns the most recent flight lookups, newest first
func (o *Orchestrator) RecentLookups(ctx context.Context, limit int) ([]models.FlightLookup, error) {
	if o.history == nil {
		return nil, ErrHistoryUnavailable
	}
	if limit <= 0 || limit > maxLookupLimit {
		limit = maxLookupLimit
	}
	return o.history.RecentLookups(ctx, limit)
}

// ParseFlightQuery extracts flight parameters from a natural-language query
func (o *Orchestrator) ParseFlightQuery(ctx context.Context, query string) (models.FlightSearchParams, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.FlightSearchParams{}, models.NewInputError("Missing query parameter")
	}
	if o.analyzer == nil {
		return models.FlightSearchParams{}, ErrTextAnalysisUnavailable
	}

	reply, err := o.analyzer.Complete(ctx, flightSystemPrompt(o.now()),
		"Extract flight search parameters from this query: "+query, flightExtractionMaxTokens)
	if err != nil {
		return models.FlightSearchParams{}, collaboratorError("flight parameter extraction", err)
	}
	o.logger.Debug("Extracted flight parameters: %s", reply)

	var req models.FlightRequest
	if err := json.Unmarshal([]byte(jsonObject(reply)), &req); err != nil {
		return models.FlightSearchParams{}, collaboratorError("flight parameter extraction", fmt.Errorf("failed to parse AI response: %w", err))
	}
	return req.Params()
}

// jsonObject trims code fences and prose around the first JSON object in s
func jsonObject(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func flightSystemPrompt(today time.Time) string {
	return `Extract flight search parameters from the user's natural language query.
Return a JSON object with the following fields (all lowercase):
- leaving_airport: Airport code (3 letters, e.g., "JFK")
- destination_airport: Airport code (3 letters, e.g., "LAX")
- departure_date: In YYYY-MM-DD format
- return_date: In YYYY-MM-DD format
- num_adults: Integer (default to 1 if not specified)
- num_seniors: Integer (default to 0 if not specified)
- num_students: Integer (default to 0 if not specified)
- children_ages: Array of integers representing ages 2-17 (default to empty array if not specified)
- infants_on_seat: Integer (default to 0 if not specified)
- infants_on_lap: Integer (default to 0 if not specified)

If information is missing or unclear, make a reasonable assumption based on the query context.
Only return the JSON object with no additional text.

If the user provides city names instead of airport codes, use these common mappings:
- New York: JFK (or LGA or EWR if context suggests)
- Los Angeles: LAX
- Chicago: ORD
- London: LHR
- Paris: CDG
- Istanbul: IST
- Miami: MIA
- San Francisco: SFO
- Tokyo: NRT
- Dubai: DXB

For dates specified as "next week", "next month", etc., calculate the actual dates based on today's date (it is ` +
		today.Format("2006-01-02") + `).`
}

// FlightOutcome is a scrape together with the parameters it ran on
type FlightOutcome struct {
	Params models.FlightSearchParams
	Result momondo.Result
}

// AIFlightSearch parses a natural-language query and runs the flight lookup
func (o *Orchestrator) AIFlightSearch(ctx context.Context, query string) (FlightOutcome, error) {
	params, err := o.ParseFlightQuery(ctx, query)
	if err != nil {
		return FlightOutcome{}, err
	}
	res, err := o.SearchFlight(ctx, params)
	if err != nil {
		return FlightOutcome{}, err
	}
	return FlightOutcome{Params: params, Result: res}, nil
}

// ===== Integrated search =====

// IntegratedRequest is a natural-language trip query plus accommodation preferences
type IntegratedRequest struct {
	Query      string
	PriceRange *models.PriceRange
	Keywords   []string
}

// Accommodations is the ranking part of an integrated result. Error is set when the
// listing search failed; the flight part is still returned.
type Accommodations struct {
	models.Recommendation
	Error string `json:"error,omitempty"`
}

// IntegratedResult combines a flight lookup with accommodation recommendations at the destination
type IntegratedResult struct {
	Flight         FlightOutcome
	Destination    Destination
	Accommodations Accommodations
}

// IntegratedSearch parses the query, looks up the flight and recommends listings near
// the destination airport. An empty first ranking is retried once over a wider area.
// A failed flight lookup does not abort the accommodation search.
func (o *Orchestrator) IntegratedSearch(ctx context.Context, req IntegratedRequest) (IntegratedResult, error) {
	params, err := o.ParseFlightQuery(ctx, req.Query)
	if err != nil {
		return IntegratedResult{}, err
	}
	res, err := o.SearchFlight(ctx, params)
	if err != nil {
		return IntegratedResult{}, err
	}

	dest, known := LookupDestination(params.Destination)
	if !known {
		o.logger.Warn("No coordinates found for airport %s, using default", params.Destination)
	}

	rreq := RecommendRequest{
		CheckIn:    params.DepartureDate,
		CheckOut:   params.ReturnDate,
		Box:        dest.Box,
		Zoom:       recommendZoom,
		Currency:   defaultCurrency,
		PriceRange: req.PriceRange,
		Keywords:   req.Keywords,
	}
	rec, err := o.Recommend(ctx, rreq)
	if err == nil && len(rec.Results) == 0 {
		o.logger.Info("No listings near %s, retrying with a wider area", dest.AirportCode)
		rreq.Box = dest.Box.Widen(widenFactor)
		rec, err = o.Recommend(ctx, rreq)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return IntegratedResult{}, ctxErr
	}

	acc := Accommodations{Recommendation: rec}
	if err != nil {
		o.logger.Error("Accommodation search failed: %v", err)
		acc = Accommodations{
			Recommendation: models.Recommendation{
				Results:         []models.RecommendedListing{},
				UserPreferences: o.Preferences(rreq),
				Message:         accommodationFailure,
			},
			Error: err.Error(),
		}
	}

	return IntegratedResult{
		Flight:         FlightOutcome{Params: params, Result: res},
		Destination:    dest,
		Accommodations: acc,
	}, nil
}
