package analyzer

import (
	"context"
	"strings"

	"paperxray/internal/generator"
	"paperxray/internal/models"
)

type PaperStore interface {
	GetPaper(ctx context.Context, paperID string) (models.Paper, error)
}

type ResultStore interface {
	GetResult(ctx context.Context, paperID, lang string) (models.Result, error)
}

type ChatStore interface {
	AddMessage(ctx context.Context, paperID, role, content string) (string, error)
	ListMessages(ctx context.Context, paperID string) ([]models.ChatMessage, error)
}

// ChatService streams answers about a paper, using the paper text, the best
// finished analysis report and the stored transcript as context.
type ChatService struct {
	papers  PaperStore
	results ResultStore
	chats   ChatStore
	gen     generator.Streamer
}

func NewChatService(papers PaperStore, results ResultStore, chats ChatStore, gen generator.Streamer) *ChatService {
	return &ChatService{papers: papers, results: results, chats: chats, gen: gen}
}

// StreamReply persists the user message, streams the assistant reply chunk by
// chunk through emit, and persists the assembled reply once the stream ends.
// An aborted stream leaves no partial assistant message behind.
func (s *ChatService) StreamReply(ctx context.Context, paperID, message string, emit func(chunk string) error) error {
	paper, err := s.papers.GetPaper(ctx, paperID)
	if err != nil {
		return err
	}
	report := s.bestReport(ctx, paperID)
	history, err := s.chats.ListMessages(ctx, paperID)
	if err != nil {
		return err
	}
	if _, err := s.chats.AddMessage(ctx, paperID, models.RoleUser, message); err != nil {
		return err
	}

	prompt := BuildChatPrompt(paper.Text, report, history, message)
	var reply strings.Builder
	err = s.gen.Stream(ctx, generator.Request{Operation: "chat", Prompt: prompt}, func(chunk string) error {
		reply.WriteString(chunk)
		return emit(chunk)
	})
	if err != nil {
		return err
	}
	_, err = s.chats.AddMessage(ctx, paperID, models.RoleAssistant, reply.String())
	return err
}

func (s *ChatService) bestReport(ctx context.Context, paperID string) string {
	for _, lang := range reportPreference {
		res, err := s.results.GetResult(ctx, paperID, lang)
		if err == nil && res.Status == models.StatusDone && res.Content != "" {
			return res.Content
		}
	}
	return ""
}

func BuildChatPrompt(paperText, reportContent string, history []models.ChatMessage, userMessage string) string {
	var historyStr strings.Builder
	for _, msg := range history {
		role := "Assistant"
		if msg.Role == models.RoleUser {
			role = "User"
		}
		historyStr.WriteString(role)
		historyStr.WriteString(": ")
		historyStr.WriteString(msg.Content)
		historyStr.WriteString("\n\n")
	}

	return "基于以下论文内容和 X-ray 分析报告回答用户问题。请直接、准确地回答。\n\n" +
		"<paper>\n" + paperText + "\n</paper>\n\n" +
		"<xray-report>\n" + reportContent + "\n</xray-report>\n\n" +
		"<chat-history>\n" + historyStr.String() + "\n</chat-history>\n\n" +
		"用户问题: " + userMessage
}
