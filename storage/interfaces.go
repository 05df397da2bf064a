package storage

import (
	"context"

	"travel-scout/models"
)

// LookupStore persists flight lookup history
type LookupStore interface {
	SaveFlightLookup(ctx context.Context, lookup models.FlightLookup) error
	RecentLookups(ctx context.Context, limit int) ([]models.FlightLookup, error)
	Close()
}

// RecommendationStore persists the ranked results of recommendation requests
type RecommendationStore interface {
	SaveRecommendations(ctx context.Context, requestID string, ranked []models.RankedListing) error
	Close()
}

// RankingExporter writes ranked listings to a file
type RankingExporter interface {
	WriteRanked(ranked []models.RecommendedListing) error
}

var (
	_ LookupStore         = (*PostgresWriter)(nil)
	_ RecommendationStore = (*PostgresWriter)(nil)
	_ RankingExporter     = (*CSVWriter)(nil)
)
