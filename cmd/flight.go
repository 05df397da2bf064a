package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"travel-scout/models"
	"travel-scout/scraper/momondo"
	"travel-scout/services"

	"github.com/spf13/cobra"
)

// errNoBookingLink makes the flight command exit non-zero when nothing was resolved
var errNoBookingLink = errors.New("no booking link resolved")

func flightCommand() *cobra.Command {
	var (
		query  string
		params models.FlightSearchParams
	)

	cmd := &cobra.Command{
		Use:   "flight",
		Short: "Resolve one flight search into a booking link",
		Example: `  travel-scout flight --from JFK --to CDG --depart 2025-05-10 --return 2025-05-17
  travel-scout flight --query "New York to Paris next Friday for a week, two adults"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			var out services.FlightOutcome
			if query != "" {
				out, err = a.orchestrator.AIFlightSearch(ctx, query)
			} else {
				req := flightRequest(params)
				var p models.FlightSearchParams
				if p, err = req.Params(); err == nil {
					out.Params = p
					out.Result, err = a.orchestrator.SearchFlight(ctx, p)
				}
			}
			if err != nil {
				return err
			}

			services.PrintFlightResult(cmd.OutOrStdout(), out.Params, out.Result)
			if out.Result.Status != momondo.StatusResolved {
				return errNoBookingLink
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&query, "query", "q", "", "natural-language trip description (needs ANTHROPIC_API_KEY)")
	f.StringVar(&params.Origin, "from", "", "origin airport code")
	f.StringVar(&params.Destination, "to", "", "destination airport code")
	f.StringVar(&params.DepartureDate, "depart", "", "departure date (YYYY-MM-DD)")
	f.StringVar(&params.ReturnDate, "return", "", "return date (YYYY-MM-DD)")
	f.IntVar(&params.Adults, "adults", 1, "number of adults")
	f.IntVar(&params.Seniors, "seniors", 0, "number of seniors")
	f.IntVar(&params.Students, "students", 0, "number of students")
	f.IntSliceVar(&params.ChildrenAges, "children-ages", nil, "ages of children, 2-17")
	f.IntVar(&params.InfantsOnSeat, "infants-seat", 0, "infants with their own seat")
	f.IntVar(&params.InfantsOnLap, "infants-lap", 0, "infants on lap")
	return cmd
}

// flightRequest routes flag values through the same normalization as HTTP bodies
func flightRequest(p models.FlightSearchParams) models.FlightRequest {
	return models.FlightRequest{
		Origin:        p.Origin,
		Destination:   p.Destination,
		DepartureDate: p.DepartureDate,
		ReturnDate:    p.ReturnDate,
		Adults:        &p.Adults,
		Seniors:       &p.Seniors,
		Students:      &p.Students,
		ChildrenAges:  p.ChildrenAges,
		InfantsOnSeat: &p.InfantsOnSeat,
		InfantsOnLap:  &p.InfantsOnLap,
	}
}
