package weather

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/devilmonastery/inkwell/internal/pkg/metrics"
)

// Service answers weather lookups. It never fails: when every provider
// errors the caller gets Default.
type Service struct {
	qweather    Provider
	openWeather Provider
	defaults    Query
	cache       Cache
	cacheTTL    time.Duration
	timeout     time.Duration
	now         func() time.Time
	log         *slog.Logger
}

type Option func(*Service)

// WithCache enables result caching. A ttl of zero disables it.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithDefaults sets the location used when a query leaves it empty.
func WithDefaults(q Query) Option {
	return func(s *Service) { s.defaults = q }
}

// WithLookupTimeout bounds each provider call.
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the two providers. Either may be nil.
func NewService(qweather, openWeather Provider, opts ...Option) *Service {
	s := &Service{
		qweather:    qweather,
		openWeather: openWeather,
		defaults:    Query{Location: DefaultQWeatherLocation},
		timeout:     5 * time.Second,
		now:         time.Now,
		log:         slog.Default().With(slog.String("component", "weather")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) withDefaults(q Query) Query {
	if q.Provider == "" {
		q.Provider = s.defaults.Provider
	}
	if q.Location == "" {
		q.Location = s.defaults.Location
	}
	if !q.hasCoordinates() {
		q.Lat, q.Lon = s.defaults.Lat, s.defaults.Lon
	}
	return q
}

// Current returns conditions for q. With the QWeather provider (the
// default) a failure falls back to OpenWeatherMap when coordinates are
// known; otherwise, or when that fails too, Default is returned.
func (s *Service) Current(ctx context.Context, q Query) Data {
	q = s.withDefaults(q)
	key := cacheKey(q)

	if s.cache != nil && s.cacheTTL > 0 {
		d, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.log.Warn("weather cache read failed", slog.String("error", err.Error()))
		case ok:
			metrics.CacheHits.WithLabelValues("weather", "current").Inc()
			return d
		default:
			metrics.CacheMisses.WithLabelValues("weather", "current").Inc()
		}
	}

	d, err := s.lookup(ctx, q)
	if err != nil {
		s.log.Warn("weather lookup failed, using default", slog.String("error", err.Error()))
		metrics.WeatherLookups.WithLabelValues(ProviderDefault).Inc()
		return Default(s.now())
	}
	metrics.WeatherLookups.WithLabelValues(d.Source).Inc()

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, d, s.cacheTTL); err != nil {
			s.log.Warn("weather cache write failed", slog.String("error", err.Error()))
		}
	}
	return d
}

func (s *Service) lookup(ctx context.Context, q Query) (Data, error) {
	if q.Provider == ProviderOpenWeather {
		return s.call(ctx, s.openWeather, q)
	}

	d, err := s.call(ctx, s.qweather, q)
	if err == nil {
		return d, nil
	}
	if !q.hasCoordinates() {
		return Data{}, err
	}
	s.log.Info("qweather failed, trying openweather", slog.String("error", err.Error()))
	d, ferr := s.call(ctx, s.openWeather, q)
	if ferr != nil {
		return Data{}, errors.Join(err, ferr)
	}
	return d, nil
}

func (s *Service) call(ctx context.Context, p Provider, q Query) (Data, error) {
	if p == nil {
		return Data{}, ErrNotConfigured
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return p.Current(ctx, q)
}
