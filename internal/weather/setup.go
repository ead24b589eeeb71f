package weather

import (
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/devilmonastery/inkwell/internal/config"
)

// NewFromConfig builds a Service from the weather config block. rdb may be
// nil, in which case results are not cached.
func NewFromConfig(cfg config.WeatherConfig, hc *http.Client, rdb redis.UniversalClient, prefix string) *Service {
	opts := []Option{
		WithDefaults(Query{Location: cfg.Location, Lat: cfg.Lat, Lon: cfg.Lon}),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, WithLookupTimeout(cfg.Timeout))
	}
	if rdb != nil {
		opts = append(opts, WithCache(NewRedisCache(rdb, prefix), cfg.CacheTTL))
	}
	return NewService(
		NewQWeather(cfg.QWeatherHost, cfg.QWeatherKey, hc),
		NewOpenWeather(cfg.OpenWeatherHost, cfg.OpenWeatherKey, hc),
		opts...,
	)
}
