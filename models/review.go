package models

import "strings"

// ReviewComment is one review's free text. It belongs to a listing and is not persisted.
type ReviewComment struct {
	Comments string `json:"comments"`
}

// SentimentLabel is the closed set of sentiment values
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "POSITIVE"
	SentimentNegative SentimentLabel = "NEGATIVE"
	SentimentNeutral  SentimentLabel = "NEUTRAL"
)

// ParseSentiment normalizes free-form collaborator output into a label.
// Anything unrecognized becomes NEUTRAL.
func ParseSentiment(raw string) SentimentLabel {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(upper, string(SentimentPositive)):
		return SentimentPositive
	case strings.Contains(upper, string(SentimentNegative)):
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Contribution is the label's share of a listing's sentiment score
func (s SentimentLabel) Contribution() int {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentNegative:
		return -1
	default:
		return 0
	}
}

// ReviewSignal is what one review contributes to ranking
type ReviewSignal struct {
	Sentiment SentimentLabel `json:"sentiment"`
	Keywords  []string       `json:"keywords"`
	// Degraded is set when any part of the signal came from a fallback
	Degraded bool `json:"-"`
}

// ReviewAnalysis pairs a comment with its signal for the reviews endpoint
type ReviewAnalysis struct {
	Comment   string         `json:"comment"`
	Sentiment SentimentLabel `json:"sentiment"`
	Keywords  []string       `json:"keywords"`
}
