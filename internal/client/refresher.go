package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher refreshes the token ahead of expiry so page renders rarely take
// the retry path. Missing tokens are left alone; the first request that
// needs one triggers the refresh.
type Refresher struct {
	tokens   *TokenManager
	interval time.Duration
	window   time.Duration
	now      func() time.Time
	log      *slog.Logger

	scheduler *gocron.Scheduler
}

type RefresherOption func(*Refresher) error

func WithRefreshInterval(d time.Duration) RefresherOption {
	return func(r *Refresher) error {
		r.interval = d
		return nil
	}
}

// WithExpiryWindow sets how close to expiry a token must be to get refreshed.
func WithExpiryWindow(d time.Duration) RefresherOption {
	return func(r *Refresher) error {
		r.window = d
		return nil
	}
}

func NewRefresher(tokens *TokenManager, options ...RefresherOption) (*Refresher, error) {
	r := &Refresher{
		tokens:   tokens,
		interval: time.Minute,
		window:   5 * time.Minute,
		now:      time.Now,
		log:      slog.Default().With(slog.String("component", "token-refresher")),
	}
	for _, opt := range options {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.tokens == nil {
		return nil, fmt.Errorf("token manager not initialized")
	}
	if r.interval <= 0 {
		return nil, fmt.Errorf("invalid refresh interval (%s)", r.interval)
	}
	if r.window <= 0 {
		return nil, fmt.Errorf("invalid expiry window (%s)", r.window)
	}
	return r, nil
}

// Start schedules the check and returns immediately.
func (r *Refresher) Start() error {
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(r.interval).DoWithJobDetails(func(job gocron.Job) {
		if err := r.RefreshIfExpiring(job.Context()); err != nil {
			r.log.Error("proactive refresh failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule token refresh: %w", err)
	}
	s.StartAsync()
	r.scheduler = s
	return nil
}

func (r *Refresher) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}

// RefreshIfExpiring refreshes the token when it expires within the window.
func (r *Refresher) RefreshIfExpiring(ctx context.Context) error {
	expiresAt, ok := r.tokens.Expiry(ctx)
	if !ok {
		return nil
	}
	if expiresAt.Sub(r.now()) > r.window {
		return nil
	}

	r.log.Debug("token expiring soon, refreshing", slog.Time("expires_at", expiresAt))
	res := r.tokens.RefreshToken(ctx)
	if !res.Success {
		return fmt.Errorf("refresh failed: %s", res.Error)
	}
	return nil
}
