package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"travel-scout/models"
	"travel-scout/services"
	"travel-scout/storage"

	"github.com/spf13/cobra"
)

func recommendCommand() *cobra.Command {
	var (
		req      services.RecommendRequest
		airport  string
		minPrice float64
		maxPrice float64
		keywords []string
		csvPath  string
	)

	cmd := &cobra.Command{
		Use:     "recommend",
		Short:   "Rank listings near an airport by price, rating and reviews",
		Example: `  travel-scout recommend --airport CDG --check-in 2025-05-10 --check-out 2025-05-17 --max-price 250 --keywords quiet,clean`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			req.Box = services.DefaultBox()
			if airport != "" {
				dest, known := services.LookupDestination(airport)
				if !known {
					a.logger.Warn("No coordinates found for airport %s, using default", dest.AirportCode)
				}
				req.Box = dest.Box
			}
			f := cmd.Flags()
			if f.Changed("min-price") || f.Changed("max-price") {
				req.PriceRange = &models.PriceRange{Min: minPrice, Max: maxPrice}
			}
			req.Keywords = keywords

			rec, err := a.orchestrator.Recommend(ctx, req)
			if err != nil {
				return err
			}
			services.PrintRecommendations(cmd.OutOrStdout(), rec)

			if csvPath != "" {
				if err := storage.NewCSVWriter(csvPath, a.logger).WriteRanked(rec.Results); err != nil {
					return err
				}
				a.logger.Info("Ranking written to %s", csvPath)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.CheckIn, "check-in", "", "check-in date (YYYY-MM-DD)")
	f.StringVar(&req.CheckOut, "check-out", "", "check-out date (YYYY-MM-DD)")
	f.StringVar(&airport, "airport", "", "search near this airport (default central New York)")
	f.IntVar(&req.Zoom, "zoom", 0, "map zoom passed to the listings provider")
	f.StringVar(&req.Currency, "currency", "USD", "price currency")
	f.Float64Var(&minPrice, "min-price", 0, "minimum total price")
	f.Float64Var(&maxPrice, "max-price", 1000, "maximum total price")
	f.StringSliceVar(&keywords, "keywords", nil, "preferred review keywords")
	f.StringVar(&csvPath, "csv", "", "also write the ranking to this CSV file")
	return cmd
}
