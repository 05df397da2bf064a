package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"travel-scout/models"
	"travel-scout/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAnalyzer answers sentiment and keyword prompts from fixed replies
type scriptedAnalyzer struct {
	mu           sync.Mutex
	sentiment    string
	sentimentErr error
	keywords     string
	keywordErr   error
	calls        []string
}

func (a *scriptedAnalyzer) Complete(_ context.Context, _, prompt string, _ int) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case strings.HasPrefix(prompt, "Analyze the sentiment"):
		a.calls = append(a.calls, "sentiment")
		return a.sentiment, a.sentimentErr
	case strings.HasPrefix(prompt, "Extract 3-5 keywords"):
		a.calls = append(a.calls, "keywords")
		return a.keywords, a.keywordErr
	}
	return "", errors.New("unexpected prompt")
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]models.ReviewSignal
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]models.ReviewSignal)}
}

func (c *memoryCache) GetSignal(_ context.Context, text string) (models.ReviewSignal, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[text]
	return s, ok, nil
}

func (c *memoryCache) SetSignal(_ context.Context, text string, s models.ReviewSignal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[text] = s
	c.sets++
	return nil
}

func TestReviewSignalExtractor_Remote(t *testing.T) {
	a := &scriptedAnalyzer{sentiment: " positive.\n", keywords: "clean, , great view,quiet,host,wifi,parking"}
	e := NewReviewSignalExtractor(a, nil, nil, utils.NewNopLogger())

	s := e.Extract(context.Background(), "Lovely clean flat with a view")
	assert.Equal(t, models.SentimentPositive, s.Sentiment)
	assert.Equal(t, []string{"clean", "great view", "quiet", "host", "wifi"}, s.Keywords)
	assert.False(t, s.Degraded)
	assert.Equal(t, []string{"sentiment", "keywords"}, a.calls)
}

func TestReviewSignalExtractor_SentimentFailure(t *testing.T) {
	a := &scriptedAnalyzer{sentimentErr: errors.New("503")}
	e := NewReviewSignalExtractor(a, nil, nil, utils.NewNopLogger())

	s := e.Extract(context.Background(), "Clean and quiet")
	assert.Equal(t, models.SentimentNeutral, s.Sentiment)
	assert.Empty(t, s.Keywords)
	assert.True(t, s.Degraded)
	assert.Equal(t, []string{"sentiment"}, a.calls, "keyword call is skipped")
}

func TestReviewSignalExtractor_KeywordFailureUsesVocabulary(t *testing.T) {
	a := &scriptedAnalyzer{sentiment: "NEGATIVE", keywordErr: errors.New("timeout")}
	e := NewReviewSignalExtractor(a, nil, nil, utils.NewNopLogger())

	s := e.Extract(context.Background(), "Noisy, but the Kitchen was CLEAN and parking easy")
	assert.Equal(t, models.SentimentNegative, s.Sentiment)
	assert.Equal(t, []string{"clean", "kitchen", "parking"}, s.Keywords)
	assert.True(t, s.Degraded)
}

func TestReviewSignalExtractor_Unconfigured(t *testing.T) {
	e := NewReviewSignalExtractor(nil, nil, nil, utils.NewNopLogger())

	s := e.Extract(context.Background(), "great location, clean, quiet and spacious")
	assert.Equal(t, models.SentimentNeutral, s.Sentiment)
	assert.Equal(t, []string{"clean", "spacious", "quiet", "location"}, s.Keywords)
	assert.True(t, s.Degraded)
}

func TestReviewSignalExtractor_Cache(t *testing.T) {
	a := &scriptedAnalyzer{sentiment: "POSITIVE", keywords: "cozy"}
	cache := newMemoryCache()
	e := NewReviewSignalExtractor(a, cache, nil, utils.NewNopLogger())

	first := e.Extract(context.Background(), "Cozy little place")
	second := e.Extract(context.Background(), "Cozy little place")
	assert.Equal(t, first, second)
	assert.Len(t, a.calls, 2, "second extraction is served from cache")
	assert.Equal(t, 1, cache.sets)

	a.keywordErr = errors.New("down")
	e.Extract(context.Background(), "Another review")
	assert.Equal(t, 1, cache.sets, "degraded signals are not cached")
}

func TestReviewSignalExtractor_EmptyText(t *testing.T) {
	a := &scriptedAnalyzer{}
	e := NewReviewSignalExtractor(a, nil, nil, utils.NewNopLogger())

	s := e.Extract(context.Background(), "   ")
	assert.Equal(t, models.SentimentNeutral, s.Sentiment)
	assert.Empty(t, a.calls)
}

func TestLocalKeywords_CapsAtFive(t *testing.T) {
	e := NewReviewSignalExtractor(nil, nil, nil, utils.NewNopLogger())
	got := e.LocalKeywords("luxury pool, beach, modern, cozy, quiet, clean, spacious, comfortable")
	require.Len(t, got, 5)
	assert.Equal(t, []string{"clean", "spacious", "comfortable", "quiet", "modern"}, got)
}

func TestParseKeywords(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseKeywords(" a ,b,,"))
	assert.Empty(t, ParseKeywords(""))
}
