package watch

import (
	"context"
	"strings"
	"testing"
	"time"

	"paperxray/internal/models"
	"paperxray/internal/util"

	"github.com/stretchr/testify/require"
)

type pollStep struct {
	content string
	status  string
	missing bool
}

// scriptedSource advances one step per poll, simulating a writer appending
// between observations.
type scriptedSource struct {
	steps []pollStep
	polls int
}

func (s *scriptedSource) current() pollStep {
	i := s.polls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	return s.steps[i]
}

func (s *scriptedSource) GetResult(_ context.Context, paperID, lang string) (models.Result, error) {
	step := s.current()
	if step.missing {
		return models.Result{}, util.ErrNotFound
	}
	return models.Result{ResultID: "r1", PaperID: paperID, Lang: lang, Status: step.status}, nil
}

func (s *scriptedSource) GetContent(_ context.Context, _ string) (string, error) {
	step := s.current()
	s.polls++
	if step.missing {
		return "", util.ErrNotFound
	}
	return step.content, nil
}

func collect(t *testing.T, src *scriptedSource) []Event {
	t.Helper()
	w := NewWatcher(src, time.Millisecond)
	var events []Event
	err := w.Watch(context.Background(), "p1", "en", func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	return events
}

func TestWatchEmitsExactDeltas(t *testing.T) {
	final := "Hello World analysis"
	src := &scriptedSource{steps: []pollStep{
		{content: "", status: models.StatusPending},
		{content: "Hello ", status: models.StatusRunning},
		{content: "Hello World ", status: models.StatusRunning},
		{content: final, status: models.StatusDone},
	}}
	events := collect(t, src)

	var chunks []string
	for _, ev := range events[:len(events)-1] {
		require.Equal(t, EventChunk, ev.Type)
		chunks = append(chunks, ev.Content)
	}
	// Delta round-trip law: concatenated deltas equal the final content.
	require.Equal(t, final, strings.Join(chunks, ""))
	require.Equal(t, []string{"Hello ", "World ", "analysis"}, chunks)

	last := events[len(events)-1]
	require.Equal(t, EventStatus, last.Type)
	require.Equal(t, models.StatusDone, last.Status)
}

func TestWatchAlreadyDoneEmitsFullContentOnce(t *testing.T) {
	src := &scriptedSource{steps: []pollStep{{content: "full report", status: models.StatusDone}}}
	events := collect(t, src)
	require.Len(t, events, 2)
	require.Equal(t, Event{Type: EventChunk, Content: "full report"}, events[0])
	require.Equal(t, Event{Type: EventStatus, Status: models.StatusDone}, events[1])
}

func TestWatchErrorStatusTerminates(t *testing.T) {
	src := &scriptedSource{steps: []pollStep{
		{content: "", status: models.StatusRunning},
		{content: "", status: models.StatusError},
	}}
	events := collect(t, src)
	require.Len(t, events, 1)
	require.Equal(t, Event{Type: EventStatus, Status: models.StatusError}, events[0])
}

func TestWatchVanishedResultEndsSilently(t *testing.T) {
	src := &scriptedSource{steps: []pollStep{
		{content: "partial", status: models.StatusRunning},
		{missing: true},
	}}
	events := collect(t, src)
	require.Len(t, events, 1)
	require.Equal(t, EventChunk, events[0].Type)
}

func TestWatchClearedResultEndsStream(t *testing.T) {
	// A failed run can be cleared and rerun between two polls. The old run's
	// cursor must not carry over: the stream ends at the shrink instead of
	// swallowing or misaligning the new run's bytes.
	src := &scriptedSource{steps: []pollStep{
		{content: "partial text", status: models.StatusRunning},
		{content: "new ", status: models.StatusRunning},
		{content: "new run out", status: models.StatusDone},
	}}
	events := collect(t, src)
	require.Equal(t, []Event{{Type: EventChunk, Content: "partial text"}}, events)
}

func TestWatchReaderCancellationIsSilent(t *testing.T) {
	src := &scriptedSource{steps: []pollStep{
		{content: "a", status: models.StatusRunning},
		{content: "ab", status: models.StatusRunning},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWatcher(src, time.Millisecond)
	var events []Event
	err := w.Watch(ctx, "p1", "en", func(ev Event) error {
		events = append(events, ev)
		cancel()
		return nil
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestWatchTwoObserversIndependentCursors(t *testing.T) {
	steps := []pollStep{
		{content: "one ", status: models.StatusRunning},
		{content: "one two", status: models.StatusDone},
	}
	first := collect(t, &scriptedSource{steps: steps})
	second := collect(t, &scriptedSource{steps: steps})
	require.Equal(t, first, second)
}
