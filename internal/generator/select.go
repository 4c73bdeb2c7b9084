package generator

import "paperxray/internal/config"

// New picks the configured generator backend. Anything but "claude" falls
// back to the deterministic mock, so a bare checkout works end to end.
func New(cfg config.Config) Streamer {
	if cfg.Generator == "claude" {
		return NewCLIStreamer(cfg.ClaudeBin, cfg.ClaudeModel)
	}
	return NewMockStreamer()
}
