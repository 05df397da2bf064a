package cmd

import (
	"bytes"
	"testing"

	"travel-scout/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "travel-scout version dev\n", out.String())
}

func TestFlightRequestFromFlags(t *testing.T) {
	flags := models.FlightSearchParams{
		Origin:        "jfk",
		Destination:   " cdg ",
		DepartureDate: "2025-05-10",
		ReturnDate:    "2025-05-17",
		Passengers:    models.Passengers{Adults: 2, Students: 1},
	}

	p, err := flightRequest(flags).Params()
	require.NoError(t, err)
	assert.Equal(t, "JFK", p.Origin)
	assert.Equal(t, "CDG", p.Destination)
	assert.Equal(t, 2, p.Adults)
	assert.Equal(t, 1, p.Students)
	assert.Equal(t, []int{}, p.ChildrenAges)
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "flight", "recommend", "version"} {
		assert.True(t, names[want], want)
	}
}
