package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func baseRequest() FlightRequest {
	return FlightRequest{
		Origin:        "jfk",
		Destination:   "cdg",
		DepartureDate: "2025-05-10",
		ReturnDate:    "2025-05-17",
	}
}

func TestParamsDefaults(t *testing.T) {
	p, err := baseRequest().Params()
	require.NoError(t, err)
	assert.Equal(t, "JFK", p.Origin)
	assert.Equal(t, "CDG", p.Destination)
	assert.Equal(t, 1, p.Adults)
	assert.Equal(t, []int{}, p.ChildrenAges)
}

func TestParamsRequireAnAdult(t *testing.T) {
	req := baseRequest()
	req.Adults = intPtr(0)

	_, err := req.Params()
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.Equal(t, "Invalid parameters: num_adults", err.Error())
}

func TestParamsMissingFields(t *testing.T) {
	_, err := FlightRequest{Origin: "JFK"}.Params()
	require.Error(t, err)
	assert.Equal(t, "Missing required parameters: destination_airport, departure_date, return_date", err.Error())
}

func TestParamsRejectsChildAgeOutOfRange(t *testing.T) {
	req := baseRequest()
	req.ChildrenAges = []int{1}

	_, err := req.Params()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "children_ages")
}
