package generator

import (
	"context"
	"strings"
)

// MockStreamer emits deterministic chunks without any subprocess, so the full
// upload -> analysis -> stream path works in development and tests.
type MockStreamer struct{}

func NewMockStreamer() *MockStreamer {
	return &MockStreamer{}
}

func (m *MockStreamer) Stream(ctx context.Context, req Request, emit func(chunk string) error) error {
	chunks := []string{"Mock response."}
	op := strings.ToLower(req.Operation)
	switch {
	case strings.Contains(op, "analysis"):
		chunks = []string{
			"# xray-mock-paper\n\n**Authors**: mock\n\n",
			"## PROBLEM\n\nDeterministic mock analysis output.\n\n",
			"## INSIGHT\n\nReplace with the real generator for semantic quality.\n",
		}
	case strings.Contains(op, "chat"):
		chunks = []string{"Deterministic mock chat reply based on the paper context."}
	}
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(c); err != nil {
			return err
		}
	}
	return nil
}
