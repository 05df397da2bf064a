package models

// ScoreBreakdown is the diagnostic part of a ranked listing
type ScoreBreakdown struct {
	SentimentScore int `json:"sentiment_score"`
	KeywordMatches int `json:"keyword_matches"`
	ReviewCount    int `json:"-"`
}

// RankedListing is a listing with its score. Created per ranking request and discarded after.
type RankedListing struct {
	Listing   Listing        `json:"listing"`
	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"match_reasons"`
	Error     string         `json:"error,omitempty"`
}

// PriceRange is an inclusive [Min, Max] bound
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether amount lies within the range
func (r PriceRange) Contains(amount float64) bool {
	return amount >= r.Min && amount <= r.Max
}

// UserPreferences echoes what a recommendation was computed against
type UserPreferences struct {
	PriceRange PriceRange `json:"price_range"`
	Keywords   []string   `json:"keywords"`
}

// RecommendedListing is the public shape of one ranked result
type RecommendedListing struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	URL          string         `json:"url"`
	Price        *float64       `json:"price"`
	Rating       *float64       `json:"rating"`
	ImageURLs    []string       `json:"image_urls"`
	Score        float64        `json:"score"`
	MatchReasons ScoreBreakdown `json:"match_reasons"`
	Error        string         `json:"error,omitempty"`
}

// Recommendation is the result of one ranking request
type Recommendation struct {
	Results         []RecommendedListing `json:"results"`
	UserPreferences UserPreferences      `json:"user_preferences"`
	Message         string               `json:"message,omitempty"`
}
