package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"travel-scout/config"
	"travel-scout/models"
	"travel-scout/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestListingsClient(baseURL string) *ListingsClient {
	return NewListingsClient(config.ListingsConfig{
		BaseURL:        baseURL,
		Timeout:        2 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	}, utils.NewNopLogger())
}

func TestListingsClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2025-06-01", q.Get("check_in"))
		assert.Equal(t, "2025-06-04", q.Get("check_out"))
		assert.Equal(t, "40.7808", q.Get("ne_lat"))
		assert.Equal(t, "-74.0005", q.Get("sw_long"))
		assert.Equal(t, "15", q.Get("zoom"))
		assert.Equal(t, "USD", q.Get("currency"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"room_id": 1, "name": "Loft", "rating": {"value": "4.9"}, "price": {"total": {"amount": 99}}}]`))
	}))
	defer server.Close()

	c := newTestListingsClient(server.URL + "/")
	got, err := c.Search(context.Background(), models.SearchQuery{
		CheckIn:  "2025-06-01",
		CheckOut: "2025-06-04",
		Box:      models.BoundingBox{NELat: 40.7808, NELong: -73.9653, SWLat: 40.7308, SWLong: -74.0005},
		Zoom:     15,
		Currency: "USD",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.FlexString("1"), got[0].RoomID)
	require.NotNil(t, got[0].Rating.Value)
	assert.InDelta(t, 4.9, float64(*got[0].Rating.Value), 1e-9)
}

func TestListingsClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"comments": "Great stay"}, {"comments": ""}]`))
	}))
	defer server.Close()

	got, err := newTestListingsClient(server.URL).Reviews(context.Background(), "https://www.airbnb.com/rooms/1")
	require.NoError(t, err)
	assert.Equal(t, []models.ReviewComment{{Comments: "Great stay"}, {Comments: ""}}, got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestListingsClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestListingsClient(server.URL).Reviews(context.Background(), "https://www.airbnb.com/rooms/1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestListingsClient_ExhaustedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestListingsClient(server.URL).Search(context.Background(), models.SearchQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
}

func TestListingsClient_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := newTestListingsClient(server.URL).Search(context.Background(), models.SearchQuery{})
	assert.ErrorIs(t, err, ErrUpstream)
}
