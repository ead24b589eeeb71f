package client

import (
	"log/slog"
)

// Feedback is the user-facing surface for loading indicators and error
// toasts. Implementations are last-writer-wins; calls are not queued.
type Feedback interface {
	Loading(show bool, message string, onClose func())
	Toast(message string, onClose func())
}

// NopFeedback discards all feedback.
type NopFeedback struct{}

func (NopFeedback) Loading(show bool, message string, onClose func()) {
	if !show && onClose != nil {
		onClose()
	}
}

func (NopFeedback) Toast(message string, onClose func()) {
	if onClose != nil {
		onClose()
	}
}

// LogFeedback reports feedback through a structured logger.
type LogFeedback struct {
	Logger *slog.Logger
}

func (f LogFeedback) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

func (f LogFeedback) Loading(show bool, message string, onClose func()) {
	if show {
		f.logger().Debug("loading", slog.String("component", "feedback"), slog.String("message", message))
		return
	}
	f.logger().Debug("loading done", slog.String("component", "feedback"))
	if onClose != nil {
		onClose()
	}
}

func (f LogFeedback) Toast(message string, onClose func()) {
	f.logger().Info("toast", slog.String("component", "feedback"), slog.String("message", message))
	if onClose != nil {
		onClose()
	}
}
