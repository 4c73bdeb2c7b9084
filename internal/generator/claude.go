package generator

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
)

// CLIStreamer runs the claude CLI as an opaque text generator. The prompt is
// delivered over stdin to avoid argument length limits; output is consumed as
// newline-delimited JSON events.
type CLIStreamer struct {
	bin   string
	model string
}

func NewCLIStreamer(bin, model string) *CLIStreamer {
	if bin == "" {
		bin = "claude"
	}
	if model == "" {
		model = "sonnet"
	}
	return &CLIStreamer{bin: bin, model: model}
}

func cliArgs(model, system string) []string {
	args := []string{
		"-p",
		"--output-format", "stream-json",
		"--verbose",
		"--model", model,
		"--tools", "",
	}
	if system != "" {
		args = append(args, "--system-prompt", system)
	}
	return args
}

func (c *CLIStreamer) Stream(ctx context.Context, req Request, emit func(chunk string) error) error {
	cmd := exec.CommandContext(ctx, c.bin, cliArgs(c.model, req.System)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("generator stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("generator stdout pipe: %w", err)
	}

	log.Printf("starting %s op=%s (prompt via stdin, %d chars)", c.bin, req.Operation, len(req.Prompt))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start generator %s: %w", c.bin, err)
	}

	// Feed the prompt concurrently with reading stdout. Prompts routinely
	// exceed the pipe buffer, and a producer that emits while still reading
	// would deadlock against a synchronous write.
	stdinErr := make(chan error, 1)
	go func() {
		_, werr := io.WriteString(stdin, req.Prompt)
		if cerr := stdin.Close(); werr == nil {
			werr = cerr
		}
		stdinErr <- werr
	}()

	emitted := 0
	var emitErr error
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		ev, ok := decodeEvent(sc.Text())
		if !ok || ev.Type != "result" || ev.Result == "" {
			continue
		}
		if err := emit(ev.Result); err != nil {
			emitErr = err
			break
		}
		emitted++
	}

	if emitErr == nil && sc.Err() == nil {
		// The producer closed stdout on its own; reap it and inspect the exit.
		// A failed run that produced nothing is a generation error, but a
		// clean exit with no result event counts as empty output.
		waitErr := cmd.Wait()
		<-stdinErr // a clean early exit breaks the pipe; exit status decides
		if waitErr != nil && emitted == 0 {
			return fmt.Errorf("generator exited without output: %w%s", waitErr, stderrTail(&stderr))
		}
		return nil
	}

	// Early termination: kill the subprocess and reap it, no orphans. Killing
	// an already-exited process is a no-op.
	_ = cmd.Process.Kill()
	_ = cmd.Wait()
	if emitErr != nil {
		return emitErr
	}
	return fmt.Errorf("read generator output: %w", sc.Err())
}

func stderrTail(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return ""
	}
	if len(s) > 512 {
		s = s[len(s)-512:]
	}
	return " (stderr: " + s + ")"
}
