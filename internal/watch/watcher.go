// Package watch gives any number of readers a live view of a result by
// polling the store and emitting only the newly appended suffix.
package watch

import (
	"context"
	"errors"
	"time"

	"paperxray/internal/models"
	"paperxray/internal/util"
)

const (
	EventChunk  = "chunk"
	EventStatus = "status"
)

type Event struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Status  string `json:"status,omitempty"`
}

type ResultSource interface {
	GetResult(ctx context.Context, paperID, lang string) (models.Result, error)
	GetContent(ctx context.Context, resultID string) (string, error)
}

type Watcher struct {
	src      ResultSource
	interval time.Duration
}

func NewWatcher(src ResultSource, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Watcher{src: src, interval: interval}
}

// Watch polls until the result reaches a terminal status, emitting a chunk
// event for each content delta and a final status event. Each call keeps its
// own cursor, so concurrent watchers never interfere, and a byte is never
// emitted twice to the same watcher. A result that disappears mid-stream, one
// that is cleared for a fresh run, or a cancelled context ends the loop
// silently; watchers never mutate the store.
func (w *Watcher) Watch(ctx context.Context, paperID, lang string, emit func(Event) error) error {
	lastLen := 0
	for {
		res, err := w.src.GetResult(ctx, paperID, lang)
		if err != nil {
			if errors.Is(err, util.ErrNotFound) {
				return nil
			}
			return err
		}
		// The status snapshot is taken before the content read: once it is
		// terminal, content is frozen, so the read below sees the final text
		// and the emitted deltas concatenate to it exactly.
		content, err := w.src.GetContent(ctx, res.ResultID)
		if err != nil {
			if errors.Is(err, util.ErrNotFound) {
				return nil
			}
			return err
		}
		if len(content) < lastLen {
			// Content only shrinks when the result was cleared for a fresh
			// run. This stream's cursor is tied to the old run, so end it;
			// a re-request observes the new run from its first byte.
			return nil
		}
		if len(content) > lastLen {
			if err := emit(Event{Type: EventChunk, Content: content[lastLen:]}); err != nil {
				return err
			}
			lastLen = len(content)
		}
		if models.TerminalStatus(res.Status) {
			return emit(Event{Type: EventStatus, Status: res.Status})
		}

		select {
		case <-ctx.Done():
			// Reader went away; the writer keeps running regardless.
			return nil
		case <-time.After(w.interval):
		}
	}
}
