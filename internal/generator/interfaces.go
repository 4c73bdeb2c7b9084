package generator

import "context"

type Request struct {
	Operation string `json:"operation"`
	Prompt    string `json:"prompt"`
	System    string `json:"system,omitempty"`
}

// Streamer turns one prompt into a finite, non-restartable sequence of text
// chunks. Stream calls emit for each chunk in order and returns once the
// sequence ends; an error from emit aborts the run and propagates back.
// Cancelling ctx must terminate any underlying producer.
type Streamer interface {
	Stream(ctx context.Context, req Request, emit func(chunk string) error) error
}
