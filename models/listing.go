package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RawListing is a listing record exactly as the search provider returns it
type RawListing struct {
	RoomID   FlexString `json:"room_id"`
	Name     string     `json:"name"`
	Rating   *RawRating `json:"rating,omitempty"`
	Price    *RawPrice  `json:"price,omitempty"`
	Category string     `json:"category"`
	Images   []RawImage `json:"images"`
}

// RawRating holds the provider's rating block
type RawRating struct {
	Value       *FlexFloat `json:"value"`
	ReviewCount FlexString `json:"reviewCount,omitempty"`
}

// RawPrice holds the provider's price breakdown; only the total is used
type RawPrice struct {
	Total *RawAmount `json:"total"`
}

// RawAmount is a currency-tagged amount
type RawAmount struct {
	Amount   *FlexFloat `json:"amount"`
	Currency string     `json:"currency"`
}

// RawImage is one entry of the provider's image list
type RawImage struct {
	URL string `json:"url"`
}

// Money is a currency-tagged decimal amount
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
}

// Listing is the cleaned public listing. It is never mutated after construction.
type Listing struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	URL       string   `json:"url"`
	Rating    *float64 `json:"rating"`
	Price     *Money   `json:"price"`
	RoomType  string   `json:"room_type"`
	ImageURLs []string `json:"image_urls"`
}

// PriceAmount returns the listing price and whether one is present
func (l Listing) PriceAmount() (float64, bool) {
	if l.Price == nil {
		return 0, false
	}
	return l.Price.Amount, true
}

// FlexFloat decodes a JSON number or numeric string
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*f = FlexFloat(v)
	return nil
}

// FlexString decodes a JSON string or number into its string form
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(string(data))
	return nil
}

// BoundingBox is the NE/SW rectangle constraining a geographic search
type BoundingBox struct {
	NELat  float64 `json:"ne_lat"`
	NELong float64 `json:"ne_long"`
	SWLat  float64 `json:"sw_lat"`
	SWLong float64 `json:"sw_long"`
}

// Widen returns a box around the same centre whose half-sides are factor times the old full sides
func (b BoundingBox) Widen(factor float64) BoundingBox {
	centerLat := (b.NELat + b.SWLat) / 2
	centerLong := (b.NELong + b.SWLong) / 2
	latRadius := abs(b.NELat-b.SWLat) * factor
	longRadius := abs(b.NELong-b.SWLong) * factor
	return BoundingBox{
		NELat:  centerLat + latRadius,
		NELong: centerLong + longRadius,
		SWLat:  centerLat - latRadius,
		SWLong: centerLong - longRadius,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// SearchQuery is what the listing search provider needs
type SearchQuery struct {
	CheckIn  string
	CheckOut string
	Box      BoundingBox
	Zoom     int
	Currency string
}
