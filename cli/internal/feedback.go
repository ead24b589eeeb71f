package cli

import (
	"fmt"
	"io"
	"sync"
)

// terminalFeedback shows loading and error messages on stderr. The loading
// line is only drawn on an interactive terminal so piped output stays clean.
type terminalFeedback struct {
	mu          sync.Mutex
	w           io.Writer
	interactive bool
	showing     bool
}

func newTerminalFeedback(w io.Writer) *terminalFeedback {
	return &terminalFeedback{w: w, interactive: isTerminal(w)}
}

func (f *terminalFeedback) Loading(show bool, message string, onClose func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if show {
		if f.interactive {
			fmt.Fprintf(f.w, "\r%s...", message)
			f.showing = true
		}
		return
	}
	f.clear()
	if onClose != nil {
		onClose()
	}
}

func (f *terminalFeedback) Toast(message string, onClose func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clear()
	fmt.Fprintf(f.w, "✗ %s\n", message)
	if onClose != nil {
		onClose()
	}
}

// clear erases the loading line. Callers hold mu.
func (f *terminalFeedback) clear() {
	if f.showing {
		fmt.Fprint(f.w, "\r\033[K")
		f.showing = false
	}
}
