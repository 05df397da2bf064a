package momondo

import (
	"testing"

	"travel-scout/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassengerSegment(t *testing.T) {
	tests := []struct {
		name string
		pax  models.Passengers
		want string
	}{
		{name: "default party", pax: models.DefaultPassengers(), want: "1adults"},
		{
			name: "full party",
			pax: models.Passengers{
				Adults:        2,
				Seniors:       1,
				ChildrenAges:  []int{11, 17},
				InfantsOnSeat: 1,
				InfantsOnLap:  1,
			},
			want: "2adults/1seniors/children-1S-1L-11-17",
		},
		{name: "students only after adults", pax: models.Passengers{Adults: 1, Students: 2}, want: "1adults/2students"},
		{name: "zero adults still emitted", pax: models.Passengers{Seniors: 1}, want: "0adults/1seniors"},
		{name: "lap infant only", pax: models.Passengers{Adults: 1, InfantsOnLap: 1}, want: "1adults/children-1L"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PassengerSegment(tt.pax))
		})
	}
}

func TestBuildSearchURL(t *testing.T) {
	params := models.FlightSearchParams{
		Origin:        "jfk",
		Destination:   "LAX",
		DepartureDate: "2025-05-10",
		ReturnDate:    "2025-05-17",
		Passengers:    models.DefaultPassengers(),
	}

	got, err := BuildSearchURL("https://www.momondo.com/", "ucs=ffm4n7&sort=bestflight_a", params)
	require.NoError(t, err)
	assert.Equal(t, "https://www.momondo.com/flight-search/JFK-LAX/2025-05-10/2025-05-17/1adults?ucs=ffm4n7&sort=bestflight_a", got)

	got, err = BuildSearchURL("https://www.momondo.com", "", params)
	require.NoError(t, err)
	assert.Equal(t, "https://www.momondo.com/flight-search/JFK-LAX/2025-05-10/2025-05-17/1adults", got)

	_, err = BuildSearchURL("not a url", "", params)
	assert.Error(t, err)
}

func TestAbsoluteLink(t *testing.T) {
	got, err := absoluteLink("https://www.momondo.com", "/book/flight?code=abc")
	require.NoError(t, err)
	assert.Equal(t, "https://www.momondo.com/book/flight?code=abc", got)

	got, err = absoluteLink("https://www.momondo.com", "https://other.example/book/flight?x=1")
	require.NoError(t, err)
	assert.Equal(t, "https://other.example/book/flight?x=1", got)
}
