package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"travel-scout/models"
	"travel-scout/scraper/momondo"

	"github.com/jedib0t/go-pretty/v6/table"
)

// PrintRecommendations renders ranked listings as a table on w
func PrintRecommendations(w io.Writer, rec models.Recommendation) {
	prefs := rec.UserPreferences
	fmt.Fprintf(w, "\n RECOMMENDED STAYS  $%.2f - $%.2f  [%s]\n",
		prefs.PriceRange.Min, prefs.PriceRange.Max, strings.Join(prefs.Keywords, ", "))

	if len(rec.Results) == 0 {
		fmt.Fprintf(w, "  %s\n\n", rec.Message)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Name", "Price", "Rating", "Score", "Sentiment", "Keywords", "URL"})
	for i, r := range rec.Results {
		t.AppendRow(table.Row{
			i + 1,
			truncate(r.Name, 35),
			formatPrice(r.Price),
			formatRating(r.Rating),
			fmt.Sprintf("%.1f", r.Score),
			r.MatchReasons.SentimentScore,
			r.MatchReasons.KeywordMatches,
			r.URL,
		})
		if r.Error != "" {
			t.AppendRow(table.Row{"", "  error: " + truncate(r.Error, 60)})
		}
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d results", len(rec.Results))})
	t.Render()
}

// PrintFlightResult renders one scrape outcome on w
func PrintFlightResult(w io.Writer, params models.FlightSearchParams, res momondo.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendRow(table.Row{"Route", params.Origin + " → " + params.Destination})
	t.AppendRow(table.Row{"Dates", params.DepartureDate + " / " + params.ReturnDate})
	t.AppendRow(table.Row{"Passengers", momondo.PassengerSegment(params.Passengers)})
	t.AppendRow(table.Row{"Status", string(res.Status)})
	if res.BookingURL != "" {
		t.AppendRow(table.Row{"Booking URL", res.BookingURL})
	}
	if res.Err != nil {
		t.AppendRow(table.Row{"Reason", res.Err.Error()})
	}
	t.AppendRow(table.Row{"Took", res.Duration.Round(time.Millisecond).String()})
	t.Render()
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *p)
}

func formatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *r)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
