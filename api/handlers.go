package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"travel-scout/models"
	"travel-scout/providers"
	"travel-scout/scraper/momondo"
	"travel-scout/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultSearchZoom  = 2
	defaultLookupLimit = 20
	noBookingMessage   = "No booking links found"
)

func (s *Server) hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "travel-scout"})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// ===== Listings =====

func (s *Server) search(c *gin.Context) {
	box, err := boxQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	zoom, err := intQuery(c, "zoom", defaultSearchZoom)
	if err != nil {
		s.fail(c, err)
		return
	}

	listings, err := s.service.Search(c.Request.Context(), services.SearchRequest{
		CheckIn:  c.Query("check_in"),
		CheckOut: c.Query("check_out"),
		Box:      box,
		Zoom:     zoom,
		Currency: c.DefaultQuery("currency", "USD"),
		Category: c.Query("category"),
		Preset:   c.Query("preset"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (s *Server) reviews(c *gin.Context) {
	analyses, err := s.service.Reviews(c.Request.Context(), c.Query("room_url"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analyses)
}

func (s *Server) recommend(c *gin.Context) {
	box, err := boxQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	zoom, err := intQuery(c, "zoom", 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	pr, err := priceRangeQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	var keywords []string
	if k := c.Query("keywords"); k != "" {
		keywords = []string{k}
	}

	rec, err := s.service.Recommend(c.Request.Context(), services.RecommendRequest{
		CheckIn:    c.Query("check_in"),
		CheckOut:   c.Query("check_out"),
		Box:        box,
		Zoom:       zoom,
		Currency:   c.DefaultQuery("currency", "USD"),
		PriceRange: pr,
		Keywords:   keywords,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ===== Flights =====

func (s *Server) searchFlights(c *gin.Context) {
	var req models.FlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, models.NewInputError("Invalid request body: %v", err))
		return
	}
	params, err := req.Params()
	if err != nil {
		s.fail(c, err)
		return
	}

	res, err := s.service.SearchFlight(c.Request.Context(), params)
	if err != nil {
		s.fail(c, err)
		return
	}
	status, body := flightBody(res)
	c.JSON(status, body)
}

type queryBody struct {
	Query string `json:"query"`
}

func (s *Server) aiFlightSearch(c *gin.Context) {
	var req queryBody
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, models.NewInputError("Invalid request body: %v", err))
		return
	}

	out, err := s.service.AIFlightSearch(c.Request.Context(), req.Query)
	if err != nil {
		s.fail(c, err)
		return
	}
	status, body := flightBody(out.Result)
	body["extracted_params"] = out.Params
	c.JSON(status, body)
}

// flightBody maps a scrape outcome to its status code and response body
func flightBody(res momondo.Result) (int, gin.H) {
	switch res.Status {
	case momondo.StatusResolved:
		return http.StatusOK, gin.H{"success": true, "booking_url": res.BookingURL}
	case momondo.StatusNotFound:
		return http.StatusNotFound, gin.H{"success": false, "message": noBookingMessage}
	default:
		reason := "flight lookup failed"
		if res.Err != nil {
			reason = res.Err.Error()
		}
		return http.StatusBadGateway, gin.H{"success": false, "error": reason}
	}
}

type integratedBody struct {
	Query    string          `json:"query"`
	MinPrice *float64        `json:"min_price"`
	MaxPrice *float64        `json:"max_price"`
	Keywords json.RawMessage `json:"keywords"`
}

type flightView struct {
	Success    bool                      `json:"success"`
	BookingURL *string                   `json:"booking_url"`
	Params     models.FlightSearchParams `json:"params"`
}

type integratedView struct {
	Flight         flightView              `json:"flight"`
	Destination    services.Destination    `json:"destination"`
	Accommodations services.Accommodations `json:"accommodations"`
}

func (s *Server) integratedSearch(c *gin.Context) {
	var body integratedBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, models.NewInputError("Invalid request body: %v", err))
		return
	}
	keywords, err := decodeKeywords(body.Keywords)
	if err != nil {
		s.fail(c, err)
		return
	}

	req := services.IntegratedRequest{Query: body.Query, Keywords: keywords}
	if body.MinPrice != nil || body.MaxPrice != nil {
		pr := models.PriceRange{Min: 0, Max: 1000}
		if body.MinPrice != nil {
			pr.Min = *body.MinPrice
		}
		if body.MaxPrice != nil {
			pr.Max = *body.MaxPrice
		}
		req.PriceRange = &pr
	}

	out, err := s.service.IntegratedSearch(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}

	view := integratedView{
		Flight: flightView{
			Success: out.Flight.Result.Found(),
			Params:  out.Flight.Params,
		},
		Destination:    out.Destination,
		Accommodations: out.Accommodations,
	}
	if view.Flight.Success {
		url := out.Flight.Result.BookingURL
		view.Flight.BookingURL = &url
	}
	c.JSON(http.StatusOK, view)
}

// decodeKeywords accepts either a comma-separated string or a JSON array of strings
func decodeKeywords(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err != nil {
		return nil, models.NewInputError("keywords must be a string or a list of strings")
	}
	return []string{joined}, nil
}

type lookupView struct {
	ID         string                    `json:"id"`
	Params     models.FlightSearchParams `json:"params"`
	TargetURL  string                    `json:"target_url"`
	Outcome    string                    `json:"outcome"`
	BookingURL string                    `json:"booking_url,omitempty"`
	Reason     string                    `json:"reason,omitempty"`
	DurationMS int64                     `json:"duration_ms"`
	CreatedAt  time.Time                 `json:"created_at"`
}

func (s *Server) flightLookups(c *gin.Context) {
	limit, err := intQuery(c, "limit", defaultLookupLimit)
	if err != nil {
		s.fail(c, err)
		return
	}
	lookups, err := s.service.RecentLookups(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}

	views := make([]lookupView, 0, len(lookups))
	for _, l := range lookups {
		views = append(views, lookupView{
			ID:         l.ID,
			Params:     l.Params,
			TargetURL:  l.TargetURL,
			Outcome:    l.Outcome,
			BookingURL: l.BookingURL,
			Reason:     l.Reason,
			DurationMS: l.Duration.Milliseconds(),
			CreatedAt:  l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"lookups": views})
}

// ===== Query parsing =====

// boxQuery reads the bounding box, defaulting each corner to central New York
func boxQuery(c *gin.Context) (models.BoundingBox, error) {
	box := services.DefaultBox()
	fields := []struct {
		name string
		dst  *float64
	}{
		{"ne_lat", &box.NELat},
		{"ne_long", &box.NELong},
		{"sw_lat", &box.SWLat},
		{"sw_long", &box.SWLong},
	}
	for _, f := range fields {
		raw, ok := c.GetQuery(f.name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return models.BoundingBox{}, models.NewInputError("Invalid %s parameter", f.name)
		}
		*f.dst = v
	}
	return box, nil
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewInputError("Invalid %s parameter", name)
	}
	return v, nil
}

// priceRangeQuery returns nil when neither bound is given
func priceRangeQuery(c *gin.Context) (*models.PriceRange, error) {
	minRaw := strings.TrimSpace(c.Query("min_price"))
	maxRaw := strings.TrimSpace(c.Query("max_price"))
	if minRaw == "" && maxRaw == "" {
		return nil, nil
	}
	pr := models.PriceRange{Min: 0, Max: 1000}
	if minRaw != "" {
		v, err := strconv.ParseFloat(minRaw, 64)
		if err != nil {
			return nil, models.NewInputError("Invalid min_price parameter")
		}
		pr.Min = v
	}
	if maxRaw != "" {
		v, err := strconv.ParseFloat(maxRaw, 64)
		if err != nil {
			return nil, models.NewInputError("Invalid max_price parameter")
		}
		pr.Max = v
	}
	return &pr, nil
}

// ===== Errors =====

// errorStatus maps an operation error to its HTTP status
func errorStatus(err error) int {
	switch {
	case models.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrHistoryUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrTextAnalysisUnavailable):
		return http.StatusInternalServerError
	case errors.Is(err, services.ErrCollaborator), errors.Is(err, providers.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		requestLogger(c, s.logger).Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	msg := err.Error()
	var ie *models.InputError
	if errors.As(err, &ie) {
		msg = ie.Msg
	}
	c.JSON(status, gin.H{"error": msg})
}
