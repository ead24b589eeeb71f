package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/inkwell/internal/weather"
)

func newWeatherCommand() *cobra.Command {
	var q weather.Query

	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Show current weather",
		Long: `Show current conditions from QWeather, falling back to OpenWeatherMap
and finally to a fixed default when neither answers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			d := cliCtx.App.Weather.Current(cmd.Context(), q)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s (%s)\n", d.City, d.Description, d.Type)
			fmt.Fprintf(out, "  Temperature: %.0f°C\n", d.Temperature)
			fmt.Fprintf(out, "  Humidity:    %.0f%%\n", d.Humidity)
			fmt.Fprintf(out, "  Wind:        %.0f km/h\n", d.WindSpeed)
			fmt.Fprintf(out, "  Source:      %s, updated %s\n", d.Source, d.UpdateTime)
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Provider, "provider", "", "Provider (qweather, openweather)")
	cmd.Flags().StringVar(&q.Location, "location", "", "QWeather location ID")
	cmd.Flags().Float64Var(&q.Lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&q.Lon, "lon", 0, "Longitude")

	return cmd
}
