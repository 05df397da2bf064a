package services

import (
	"sort"
	"strings"

	"travel-scout/models"
)

// ErrorScore is assigned to listings whose processing failed. They stay in the result.
const ErrorScore = -100.0

const (
	sentimentWeight = 5.0
	keywordWeight   = 10.0
)

// Score combines a breakdown into a ranking score:
// (sentiment_score / review_count) * 5 + keyword_matches * 10, or 0 without reviews.
func Score(b models.ScoreBreakdown) float64 {
	if b.ReviewCount <= 0 {
		return 0
	}
	return float64(b.SentimentScore)/float64(b.ReviewCount)*sentimentWeight +
		float64(b.KeywordMatches)*keywordWeight
}

// CountKeywordMatches counts the user keywords that match at least one extracted
// keyword, where a match is case-insensitive containment in either direction
func CountKeywordMatches(userKeywords, extracted []string) int {
	matches := 0
	for _, uk := range userKeywords {
		uk = strings.ToLower(strings.TrimSpace(uk))
		if uk == "" {
			continue
		}
		for _, ek := range extracted {
			ek = strings.ToLower(strings.TrimSpace(ek))
			if ek == "" {
				continue
			}
			if strings.Contains(uk, ek) || strings.Contains(ek, uk) {
				matches++
				break
			}
		}
	}
	return matches
}

// Tally folds per-review signals into a breakdown
func Tally(signals []models.ReviewSignal, userKeywords []string) models.ScoreBreakdown {
	var b models.ScoreBreakdown
	for _, s := range signals {
		b.ReviewCount++
		b.SentimentScore += s.Sentiment.Contribution()
		b.KeywordMatches += CountKeywordMatches(userKeywords, s.Keywords)
	}
	return b
}

// Scored builds a ranked listing from its breakdown
func Scored(l models.Listing, b models.ScoreBreakdown) models.RankedListing {
	return models.RankedListing{Listing: l, Score: Score(b), Breakdown: b}
}

// Errored builds the ranked form of a listing that could not be processed
func Errored(l models.Listing, err error) models.RankedListing {
	return models.RankedListing{Listing: l, Score: ErrorScore, Error: err.Error()}
}

// Rank orders listings by score, highest first, keeping input order between equal
// scores, and returns at most topN of them. It does not modify ranked.
func Rank(ranked []models.RankedListing, topN int) []models.RankedListing {
	out := make([]models.RankedListing, len(ranked))
	copy(out, ranked)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if topN >= 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
