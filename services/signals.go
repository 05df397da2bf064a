package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"travel-scout/metrics"
	"travel-scout/models"
	"travel-scout/utils"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

const (
	maxKeywords        = 5
	sentimentMaxTokens = 10
	keywordMaxTokens   = 100
)

// fallbackVocabulary is matched against review text when remote keyword extraction fails.
// Order matters: matches are reported in this order.
var fallbackVocabulary = []string{
	"clean", "spacious", "comfortable", "quiet", "view", "location", "convenient",
	"modern", "cozy", "pool", "beach", "kitchen", "bathroom", "bedroom", "host",
	"communication", "check-in", "parking", "wifi", "amenities", "restaurants",
	"transportation", "downtown", "private", "safe", "value", "price", "luxury",
}

// TextAnalyzer is the language-model collaborator. system may be empty.
type TextAnalyzer interface {
	Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// SignalCache stores review signals by review text
type SignalCache interface {
	GetSignal(ctx context.Context, text string) (models.ReviewSignal, bool, error)
	SetSignal(ctx context.Context, text string, signal models.ReviewSignal) error
}

// ReviewSignalExtractor turns review text into a sentiment label and keywords.
// It never fails: collaborator errors degrade to NEUTRAL and the local vocabulary.
type ReviewSignalExtractor struct {
	analyzer TextAnalyzer
	cache    SignalCache
	matcher  *ahocorasick.Matcher
	metrics  *metrics.Metrics
	logger   *utils.Logger
}

// NewReviewSignalExtractor creates an extractor. analyzer and cache may be nil.
func NewReviewSignalExtractor(analyzer TextAnalyzer, cache SignalCache, m *metrics.Metrics, logger *utils.Logger) *ReviewSignalExtractor {
	return &ReviewSignalExtractor{
		analyzer: analyzer,
		cache:    cache,
		matcher:  ahocorasick.NewStringMatcher(fallbackVocabulary),
		metrics:  m,
		logger:   logger,
	}
}

// Extract computes the signal for one review
func (e *ReviewSignalExtractor) Extract(ctx context.Context, text string) models.ReviewSignal {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ReviewSignal{Sentiment: models.SentimentNeutral, Keywords: []string{}}
	}

	if e.cache != nil {
		cached, ok, err := e.cache.GetSignal(ctx, text)
		if err != nil {
			e.logger.Debug("Signal cache read failed: %v", err)
		}
		e.metrics.SignalCacheLookup(ok)
		if ok {
			return cached
		}
	}

	signal := e.extract(ctx, text)
	if !signal.Degraded && e.cache != nil {
		if err := e.cache.SetSignal(ctx, text, signal); err != nil {
			e.logger.Debug("Signal cache write failed: %v", err)
		}
	}
	return signal
}

func (e *ReviewSignalExtractor) extract(ctx context.Context, text string) models.ReviewSignal {
	if e.analyzer == nil {
		e.metrics.SignalFallback("unconfigured")
		return models.ReviewSignal{
			Sentiment: models.SentimentNeutral,
			Keywords:  e.LocalKeywords(text),
			Degraded:  true,
		}
	}

	raw, err := e.analyzer.Complete(ctx, "", sentimentPrompt(text), sentimentMaxTokens)
	if err != nil {
		e.logger.Warn("Sentiment analysis failed, using NEUTRAL: %v", err)
		e.metrics.SignalFallback("sentiment")
		return models.ReviewSignal{Sentiment: models.SentimentNeutral, Keywords: []string{}, Degraded: true}
	}
	sentiment := models.ParseSentiment(raw)

	raw, err = e.analyzer.Complete(ctx, "", keywordPrompt(text), keywordMaxTokens)
	if err != nil {
		e.logger.Warn("Keyword extraction failed, using local vocabulary: %v", err)
		e.metrics.SignalFallback("keywords")
		return models.ReviewSignal{Sentiment: sentiment, Keywords: e.LocalKeywords(text), Degraded: true}
	}
	return models.ReviewSignal{Sentiment: sentiment, Keywords: ParseKeywords(raw)}
}

// LocalKeywords returns up to five vocabulary words found in text, in vocabulary order
func (e *ReviewSignalExtractor) LocalKeywords(text string) []string {
	hits := e.matcher.Match([]byte(strings.ToLower(text)))
	sort.Ints(hits)
	out := make([]string, 0, maxKeywords)
	last := -1
	for _, idx := range hits {
		if idx == last {
			continue
		}
		last = idx
		out = append(out, fallbackVocabulary[idx])
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// ParseKeywords splits a comma-separated collaborator reply into at most five keywords
func ParseKeywords(raw string) []string {
	out := make([]string, 0, maxKeywords)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

func sentimentPrompt(text string) string {
	return fmt.Sprintf("Analyze the sentiment of this Airbnb review. Respond with exactly one word - either POSITIVE, NEGATIVE, or NEUTRAL: \"%s\"", text)
}

func keywordPrompt(text string) string {
	return fmt.Sprintf("Extract 3-5 keywords from this Airbnb review about the location, amenities, or experience. Return ONLY the keywords separated by commas with no other text or explanation: \"%s\"", text)
}
