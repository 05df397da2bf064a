package services

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"travel-scout/models"
	"travel-scout/scraper/momondo"

	"github.com/stretchr/testify/assert"
)

func TestPrintRecommendations(t *testing.T) {
	price, rating := 120.0, 4.8
	rec := models.Recommendation{
		Results: []models.RecommendedListing{
			{ID: "1", Name: "Sunny loft", URL: roomPrefix + "1", Price: &price, Rating: &rating, Score: 25,
				MatchReasons: models.ScoreBreakdown{SentimentScore: 3, KeywordMatches: 2}},
			{ID: "2", Name: "Broken", URL: roomPrefix + "2", Score: ErrorScore, Error: "reviews unavailable"},
		},
		UserPreferences: models.UserPreferences{PriceRange: models.PriceRange{Max: 1000}, Keywords: []string{"clean"}},
	}

	var buf bytes.Buffer
	PrintRecommendations(&buf, rec)
	out := buf.String()

	assert.Contains(t, out, "Sunny loft")
	assert.Contains(t, out, "$120.00")
	assert.Contains(t, out, "25.0")
	assert.Contains(t, out, "reviews unavailable")
	assert.Contains(t, out, "2 RESULTS")
}

func TestPrintRecommendationsEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintRecommendations(&buf, models.Recommendation{Message: noListingsMessage})
	assert.Contains(t, buf.String(), "Try expanding your search criteria")
}

func TestPrintFlightResult(t *testing.T) {
	var buf bytes.Buffer
	PrintFlightResult(&buf, validParams(), momondo.Result{
		Status:   momondo.StatusFailed,
		Err:      errors.New("loading: navigation timed out"),
		Duration: 45 * time.Second,
	})
	out := buf.String()
	assert.Contains(t, out, "JFK → CDG")
	assert.Contains(t, out, "1adults")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "navigation timed out")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
