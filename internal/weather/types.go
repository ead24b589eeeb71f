// Package weather looks up current conditions from QWeather with an
// OpenWeatherMap fallback and a fixed default when both fail.
package weather

import (
	"context"
	"time"
)

// Type is the normalized weather condition shown by the front-ends.
type Type string

const (
	Sunny     Type = "sunny"
	Rainy     Type = "rainy"
	Snowy     Type = "snowy"
	Cloudy    Type = "cloudy"
	Foggy     Type = "foggy"
	Windy     Type = "windy"
	Sandstorm Type = "sandstorm"
)

const (
	ProviderQWeather    = "qweather"
	ProviderOpenWeather = "openweather"
	ProviderDefault     = "default"
)

// Data is a provider-independent observation.
type Data struct {
	Type        Type    `json:"type"`
	Temperature float64 `json:"temperature"` // °C
	Humidity    float64 `json:"humidity"`    // percent
	WindSpeed   float64 `json:"windSpeed"`   // km/h
	Description string  `json:"description"`
	City        string  `json:"city"`
	UpdateTime  string  `json:"updateTime"`
	Source      string  `json:"source"`
}

// Default is returned when no provider answers.
func Default(now time.Time) Data {
	return Data{
		Type:        Sunny,
		Temperature: 25,
		Humidity:    60,
		WindSpeed:   10,
		Description: "晴天",
		City:        "北京",
		UpdateTime:  now.UTC().Format(time.RFC3339),
		Source:      ProviderDefault,
	}
}

// Query selects the place to look up. Empty fields fall back to the
// service's configured location.
type Query struct {
	Provider string // qweather (default) or openweather
	Location string // QWeather location ID
	Lat      float64
	Lon      float64
}

func (q Query) hasCoordinates() bool {
	return q.Lat != 0 && q.Lon != 0
}

// Provider fetches current conditions from one upstream API.
type Provider interface {
	Name() string
	Current(ctx context.Context, q Query) (Data, error)
}
