package status

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPollInterval bounds how stale the live status message can get.
const DefaultPollInterval = 2 * time.Second

// Renderer produces the current live-status text.
type Renderer interface {
	RenderStatus(ctx context.Context) (string, error)
}

// Editor replaces the text of an existing message.
type Editor interface {
	EditMessage(ctx context.Context, m Message, text string) error
}

// Synchronizer polls the store through a Renderer and edits the tracked
// message whenever the rendered text changes. It never publishes a message
// itself; that is an explicit user action.
type Synchronizer struct {
	tracker  *Tracker
	renderer Renderer
	editor   Editor
	interval time.Duration

	// last text successfully pushed to the message. Deliberately not
	// persisted: after a restart one redundant edit is acceptable.
	lastText string
}

// NewSynchronizer creates a synchronizer polling at the given interval, or
// DefaultPollInterval if zero.
func NewSynchronizer(tracker *Tracker, renderer Renderer, editor Editor, interval time.Duration) *Synchronizer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Synchronizer{
		tracker:  tracker,
		renderer: renderer,
		editor:   editor,
		interval: interval,
	}
}

// Run polls until ctx is cancelled. Errors on a tick are logged and the loop
// moves on; the failed edit is retried naturally because lastText only
// advances on success.
func (s *Synchronizer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("status synchronizer stopping")
			return
		case <-ticker.C:
		}

		if err := s.tick(ctx); err != nil {
			slog.Error("status sync failed", "error", err)
		}
	}
}

// tick performs one poll → render → diff → edit cycle. While no message is
// published there is nothing to keep in sync, so rendering (which costs
// Telegram API calls) is skipped entirely.
func (s *Synchronizer) tick(ctx context.Context) error {
	msg, published := s.tracker.Current()
	if !published {
		return nil
	}

	text, err := s.renderer.RenderStatus(ctx)
	if err != nil {
		return err
	}

	if text == s.lastText {
		return nil
	}

	if err := s.editor.EditMessage(ctx, msg, text); err != nil {
		return err
	}

	s.lastText = text
	return nil
}
