package generator

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeGenerator(t *testing.T, body string) *CLIStreamer {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake generator script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fakegen")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return NewCLIStreamer(path, "sonnet")
}

func TestCLIStreamerEmitsResultChunks(t *testing.T) {
	c := fakeGenerator(t, `cat > /dev/null
echo '{"type":"system","subtype":"init"}'
echo 'protocol noise, not json'
echo '{"type":"result","result":"hello world"}'
`)
	var got []string
	err := c.Stream(context.Background(), Request{Operation: "analysis", Prompt: "p"}, func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"hello world"}, got)
}

func TestCLIStreamerCleanExitWithoutResultIsEmptySuccess(t *testing.T) {
	c := fakeGenerator(t, `cat > /dev/null
echo '{"type":"system"}'
`)
	calls := 0
	err := c.Stream(context.Background(), Request{Prompt: "p"}, func(string) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Zero(t, calls)
}

func TestCLIStreamerLargePromptNonReadingProducer(t *testing.T) {
	// The producer answers without ever draining stdin. A prompt far beyond
	// the pipe buffer must still stream through instead of wedging both
	// processes on blocked pipes.
	c := fakeGenerator(t, `echo '{"type":"result","result":"ok"}'
exit 0
`)
	prompt := strings.Repeat("paper text ", 200_000)
	var got []string
	err := c.Stream(context.Background(), Request{Operation: "analysis", Prompt: prompt}, func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ok"}, got)
}

func TestCLIStreamerFailedExitWithoutOutputIsError(t *testing.T) {
	c := fakeGenerator(t, `cat > /dev/null
echo 'boom' >&2
exit 3
`)
	err := c.Stream(context.Background(), Request{Prompt: "p"}, func(string) error { return nil })
	require.Error(t, err)
	require.Contains(t, err.Error(), "without output")
}

func TestCLIStreamerEmitErrorAborts(t *testing.T) {
	c := fakeGenerator(t, `cat > /dev/null
echo '{"type":"result","result":"first"}'
echo '{"type":"result","result":"second"}'
`)
	wantErr := os.ErrClosed
	err := c.Stream(context.Background(), Request{Prompt: "p"}, func(string) error { return wantErr })
	require.ErrorIs(t, err, wantErr)
}

func TestMockStreamerDeterministic(t *testing.T) {
	m := NewMockStreamer()
	run := func() string {
		out := ""
		require.NoError(t, m.Stream(context.Background(), Request{Operation: "analysis"}, func(chunk string) error {
			out += chunk
			return nil
		}))
		return out
	}
	first := run()
	require.NotEmpty(t, first)
	require.Equal(t, first, run())
}
