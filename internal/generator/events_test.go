package generator

import "testing"

func TestDecodeEventResult(t *testing.T) {
	ev, ok := decodeEvent(`{"type":"result","result":"analysis text"}`)
	if !ok {
		t.Fatal("expected valid event")
	}
	if ev.Type != "result" || ev.Result != "analysis text" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestDecodeEventIgnoresNoise(t *testing.T) {
	for _, line := range []string{
		"",
		"   ",
		"not json at all",
		`{"no_type_field":true}`,
	} {
		if _, ok := decodeEvent(line); ok {
			t.Fatalf("expected line %q to be skipped", line)
		}
	}
}

func TestDecodeEventOtherTypes(t *testing.T) {
	ev, ok := decodeEvent(`{"type":"assistant","message":{}}`)
	if !ok {
		t.Fatal("expected valid event")
	}
	if ev.Type != "assistant" || ev.Result != "" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestCLIArgs(t *testing.T) {
	args := cliArgs("sonnet", "")
	want := []string{"-p", "--output-format", "stream-json", "--verbose", "--model", "sonnet", "--tools", ""}
	if len(args) != len(want) {
		t.Fatalf("unexpected args: %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d: got %q want %q", i, args[i], want[i])
		}
	}
	withSystem := cliArgs("sonnet", "system text")
	if withSystem[len(withSystem)-2] != "--system-prompt" || withSystem[len(withSystem)-1] != "system text" {
		t.Fatalf("system prompt not appended: %v", withSystem)
	}
}
