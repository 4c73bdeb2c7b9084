package models

import "time"

// Result lifecycle. Transitions only move forward:
// pending -> running -> done | error.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

func TerminalStatus(status string) bool {
	return status == StatusDone || status == StatusError
}

type Paper struct {
	PaperID     string    `json:"paper_id"`
	Title       string    `json:"title"`
	Authors     string    `json:"authors,omitempty"`
	Filename    string    `json:"filename"`
	PDFPath     string    `json:"pdf_path"`
	Fingerprint string    `json:"fingerprint"`
	Text        string    `json:"-"`
	PageCount   int       `json:"page_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaperSummary is the list-view projection: no extracted text, plus the
// per-language analysis status map.
type PaperSummary struct {
	PaperID   string            `json:"paper_id"`
	Title     string            `json:"title"`
	Authors   string            `json:"authors,omitempty"`
	Filename  string            `json:"filename"`
	PageCount int               `json:"page_count"`
	CreatedAt time.Time         `json:"created_at"`
	Results   map[string]string `json:"results"`
}

type Result struct {
	ResultID  string    `json:"result_id"`
	PaperID   string    `json:"paper_id"`
	Lang      string    `json:"lang"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatMessage struct {
	MessageID string    `json:"message_id"`
	PaperID   string    `json:"paper_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
