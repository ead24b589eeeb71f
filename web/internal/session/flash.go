package session

import (
	"log/slog"
	"net/http"

	"github.com/devilmonastery/inkwell/internal/client"
)

// Feedback turns client toasts into session flashes shown on the next page
// render. Loading indicators have no server-side rendering and are ignored.
type Feedback struct {
	manager *Manager
	request *http.Request
	writer  http.ResponseWriter
	log     *slog.Logger
}

var _ client.Feedback = (*Feedback)(nil)

func (m *Manager) Feedback(r *http.Request, w http.ResponseWriter, logger *slog.Logger) *Feedback {
	return &Feedback{manager: m, request: r, writer: w, log: logger}
}

func (f *Feedback) Loading(show bool, message string, onClose func()) {
	if !show && onClose != nil {
		onClose()
	}
}

func (f *Feedback) Toast(message string, onClose func()) {
	if err := f.manager.AddFlash(f.request, f.writer, message); err != nil {
		f.log.Warn("failed to save flash message", slog.String("error", err.Error()))
	}
	if onClose != nil {
		onClose()
	}
}

// AddFlash queues a message for the next render.
func (m *Manager) AddFlash(r *http.Request, w http.ResponseWriter, message string) error {
	session := m.GetSession(r)
	session.AddFlash(message)
	return session.Save(r, w)
}

// Flashes drains queued messages.
func (m *Manager) Flashes(r *http.Request, w http.ResponseWriter) []string {
	session := m.GetSession(r)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = session.Save(r, w)

	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
