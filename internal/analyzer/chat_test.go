package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"paperxray/internal/generator"
	"paperxray/internal/models"
	"paperxray/internal/util"

	"github.com/stretchr/testify/require"
)

type fakeStores struct {
	paper    models.Paper
	results  map[string]models.Result
	messages []models.ChatMessage
}

func (f *fakeStores) GetPaper(_ context.Context, paperID string) (models.Paper, error) {
	if f.paper.PaperID != paperID {
		return models.Paper{}, util.ErrNotFound
	}
	return f.paper, nil
}

func (f *fakeStores) GetResult(_ context.Context, _, lang string) (models.Result, error) {
	res, ok := f.results[lang]
	if !ok {
		return models.Result{}, util.ErrNotFound
	}
	return res, nil
}

func (f *fakeStores) AddMessage(_ context.Context, paperID, role, content string) (string, error) {
	f.messages = append(f.messages, models.ChatMessage{PaperID: paperID, Role: role, Content: content})
	return "m", nil
}

func (f *fakeStores) ListMessages(_ context.Context, _ string) ([]models.ChatMessage, error) {
	return append([]models.ChatMessage(nil), f.messages...), nil
}

type scriptedStreamer struct {
	chunks  []string
	failAt  int
	lastReq generator.Request
}

func (s *scriptedStreamer) Stream(_ context.Context, req generator.Request, emit func(string) error) error {
	s.lastReq = req
	for i, c := range s.chunks {
		if s.failAt > 0 && i == s.failAt {
			return errors.New("generator died")
		}
		if err := emit(c); err != nil {
			return err
		}
	}
	return nil
}

func TestStreamReplyPersistsTranscript(t *testing.T) {
	stores := &fakeStores{
		paper: models.Paper{PaperID: "p1", Text: "paper body"},
		results: map[string]models.Result{
			"zh": {ResultID: "r-zh", Status: models.StatusDone, Content: "中文报告"},
			"en": {ResultID: "r-en", Status: models.StatusDone, Content: "english report"},
		},
	}
	gen := &scriptedStreamer{chunks: []string{"Hello ", "there"}}
	svc := NewChatService(stores, stores, stores, gen)

	var streamed []string
	err := svc.StreamReply(context.Background(), "p1", "what is the delta?", func(chunk string) error {
		streamed = append(streamed, chunk)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Hello ", "there"}, streamed)

	require.Len(t, stores.messages, 2)
	require.Equal(t, models.RoleUser, stores.messages[0].Role)
	require.Equal(t, "what is the delta?", stores.messages[0].Content)
	require.Equal(t, models.RoleAssistant, stores.messages[1].Role)
	require.Equal(t, "Hello there", stores.messages[1].Content)

	require.Contains(t, gen.lastReq.Prompt, "paper body")
	require.Contains(t, gen.lastReq.Prompt, "中文报告")
	require.NotContains(t, gen.lastReq.Prompt, "english report")
	require.Contains(t, gen.lastReq.Prompt, "用户问题: what is the delta?")
}

func TestStreamReplyAbortLeavesNoAssistantRow(t *testing.T) {
	stores := &fakeStores{paper: models.Paper{PaperID: "p1", Text: "t"}}
	gen := &scriptedStreamer{chunks: []string{"partial ", "never sent"}, failAt: 1}
	svc := NewChatService(stores, stores, stores, gen)

	err := svc.StreamReply(context.Background(), "p1", "hi", func(string) error { return nil })
	require.Error(t, err)
	require.Len(t, stores.messages, 1)
	require.Equal(t, models.RoleUser, stores.messages[0].Role)
}

func TestStreamReplyUnknownPaper(t *testing.T) {
	stores := &fakeStores{paper: models.Paper{PaperID: "p1"}}
	svc := NewChatService(stores, stores, stores, &scriptedStreamer{})
	err := svc.StreamReply(context.Background(), "missing", "hi", func(string) error { return nil })
	require.ErrorIs(t, err, util.ErrNotFound)
	require.Empty(t, stores.messages)
}

func TestBestReportSkipsUnfinishedLanguages(t *testing.T) {
	stores := &fakeStores{
		paper: models.Paper{PaperID: "p1", Text: "t"},
		results: map[string]models.Result{
			"zh": {Status: models.StatusRunning, Content: "partial"},
			"en": {Status: models.StatusDone, Content: "english report"},
		},
	}
	gen := &scriptedStreamer{chunks: []string{"ok"}}
	svc := NewChatService(stores, stores, stores, gen)
	require.NoError(t, svc.StreamReply(context.Background(), "p1", "q", func(string) error { return nil }))
	require.Contains(t, gen.lastReq.Prompt, "english report")
}

func TestBuildChatPromptHistoryRoles(t *testing.T) {
	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "first question"},
		{Role: models.RoleAssistant, Content: "first answer"},
	}
	prompt := BuildChatPrompt("text", "report", history, "second question")
	require.True(t, strings.Contains(prompt, "User: first question\n\n"))
	require.True(t, strings.Contains(prompt, "Assistant: first answer\n\n"))
	require.True(t, strings.HasSuffix(prompt, "用户问题: second question"))
}
