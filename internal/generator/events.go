package generator

import (
	"encoding/json"
	"strings"
)

// The CLI emits newline-delimited JSON events on stdout. Only the terminal
// "result" event carries the generated text; everything else is progress
// chatter we do not depend on.
type cliEvent struct {
	Type   string `json:"type"`
	Result string `json:"result"`
}

// decodeEvent parses one stdout line. Blank lines and lines that are not
// valid events are protocol noise, not errors.
func decodeEvent(line string) (cliEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return cliEvent{}, false
	}
	var ev cliEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return cliEvent{}, false
	}
	if ev.Type == "" {
		return cliEvent{}, false
	}
	return ev, true
}
