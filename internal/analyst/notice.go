package analyst

import (
	"log/slog"
	"sync"
)

// FallbackNotice announces the first switch to local analysis and then stays
// quiet. One notice is shared by everything in a process (or a test), and
// Reset re-arms it.
type FallbackNotice struct {
	mu     sync.Mutex
	shown  bool
	logger *slog.Logger
}

// NewFallbackNotice creates an armed notice that reports through logger
func NewFallbackNotice(logger *slog.Logger) *FallbackNotice {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackNotice{logger: logger}
}

// Show emits the notice if it has not been emitted yet.
// It returns true only for the call that emitted it.
func (n *FallbackNotice) Show(op, reason string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.shown {
		return false
	}
	n.shown = true
	n.logger.Warn("completion API unavailable, switching to local analysis",
		"op", op, "reason", reason)
	return true
}

// Shown reports whether the notice has been emitted
func (n *FallbackNotice) Shown() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.shown
}

// Reset re-arms the notice
func (n *FallbackNotice) Reset() {
	n.mu.Lock()
	n.shown = false
	n.mu.Unlock()
}
