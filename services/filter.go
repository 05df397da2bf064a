package services

import (
	"strings"

	"travel-scout/models"
	"travel-scout/utils"
)

// Criteria selects which listings survive filtering. Nil and empty fields are inactive.
type Criteria struct {
	MinRating  *float64
	PriceRange *models.PriceRange
	Category   string
}

// Matches reports whether l passes every active predicate. A listing without a
// rating or price fails the corresponding active predicate.
func (c Criteria) Matches(l models.Listing) bool {
	if c.MinRating != nil {
		if l.Rating == nil || *l.Rating < *c.MinRating {
			return false
		}
	}
	if c.PriceRange != nil {
		amount, ok := l.PriceAmount()
		if !ok || !c.PriceRange.Contains(amount) {
			return false
		}
	}
	if c.Category != "" && l.RoomType != c.Category {
		return false
	}
	return true
}

// FilterPipeline reshapes raw provider records into public listings and drops
// the ones that fail the requested criteria
type FilterPipeline struct {
	roomURLPrefix string
	logger        *utils.Logger
}

// NewFilterPipeline creates a FilterPipeline. Listing URLs are roomURLPrefix followed by the room id.
func NewFilterPipeline(roomURLPrefix string, logger *utils.Logger) *FilterPipeline {
	return &FilterPipeline{roomURLPrefix: roomURLPrefix, logger: logger}
}

// Reshape converts one raw record into a Listing
func (p *FilterPipeline) Reshape(r models.RawListing) models.Listing {
	id := strings.TrimSpace(string(r.RoomID))
	l := models.Listing{
		ID:        id,
		Name:      strings.TrimSpace(r.Name),
		URL:       p.roomURLPrefix + id,
		RoomType:  strings.TrimSpace(r.Category),
		ImageURLs: []string{},
	}
	if r.Rating != nil && r.Rating.Value != nil {
		v := float64(*r.Rating.Value)
		l.Rating = &v
	}
	if r.Price != nil && r.Price.Total != nil && r.Price.Total.Amount != nil {
		l.Price = &models.Money{
			Amount:   float64(*r.Price.Total.Amount),
			Currency: r.Price.Total.Currency,
		}
	}
	for _, img := range r.Images {
		if u := strings.TrimSpace(img.URL); u != "" {
			l.ImageURLs = append(l.ImageURLs, u)
		}
	}
	return l
}

// Filter reshapes raw records and applies c
func (p *FilterPipeline) Filter(raw []models.RawListing, c Criteria) []models.Listing {
	listings := make([]models.Listing, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(string(r.RoomID)) == "" {
			p.logger.Debug("Skipping listing without room id: %s", r.Name)
			continue
		}
		listings = append(listings, p.Reshape(r))
	}
	kept := p.Apply(listings, c)
	p.logger.Info("Filtered %d listings from %d raw records", len(kept), len(raw))
	return kept
}

// Apply filters already-reshaped listings and drops repeated URLs, first occurrence
// winning. Applying the same criteria twice yields the same result.
func (p *FilterPipeline) Apply(listings []models.Listing, c Criteria) []models.Listing {
	tracker := utils.NewURLTracker()
	kept := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if !c.Matches(l) {
			continue
		}
		if !tracker.Add(l.URL) {
			p.logger.Debug("Skipping duplicate: %s", l.URL)
			continue
		}
		kept = append(kept, l)
	}
	return kept
}
