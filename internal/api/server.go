package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"paperxray/internal/analyzer"
	"paperxray/internal/config"
	"paperxray/internal/generator"
	"paperxray/internal/models"
	"paperxray/internal/pdfdoc"
	"paperxray/internal/storage"
	"paperxray/internal/util"
	"paperxray/internal/watch"
	"paperxray/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg        config.Config
	db         *storage.DB
	paperRepo  *storage.PaperRepo
	resultRepo *storage.ResultRepo
	chatRepo   *storage.ChatRepo
	watcher    *watch.Watcher
	chat       *analyzer.ChatService
	temporal   tclient.Client
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	if err := db.InitSchema(ctx); err != nil {
		panic(err)
	}
	if err := util.EnsureDir(cfg.PDFDir); err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	paperRepo := storage.NewPaperRepo(db)
	resultRepo := storage.NewResultRepo(db)
	chatRepo := storage.NewChatRepo(db)
	gen := generator.New(cfg)
	return &Server{
		cfg:        cfg,
		db:         db,
		paperRepo:  paperRepo,
		resultRepo: resultRepo,
		chatRepo:   chatRepo,
		watcher:    watch.NewWatcher(resultRepo, time.Duration(cfg.WatchIntervalMillis)*time.Millisecond),
		chat:       analyzer.NewChatService(paperRepo, resultRepo, chatRepo, gen),
		temporal:   tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/papers", s.handlePapers)
	mux.HandleFunc("/api/papers/", s.handlePapersScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func validatePDFUpload(filename string, size int) error {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return fmt.Errorf("only PDF files are accepted")
	}
	if size == 0 {
		return fmt.Errorf("empty file")
	}
	return nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	fh, ok := firstSingleFile(r.MultipartForm.File)
	if !ok {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}

	src, err := fh.Open()
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("open upload: %w", err))
		return
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	if err := validatePDFUpload(fh.Filename, len(content)); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	fingerprint := pdfdoc.Fingerprint(content)
	if existing, err := s.paperRepo.FindByFingerprint(r.Context(), fingerprint); err == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"paper_id":     existing.PaperID,
			"title":        existing.Title,
			"is_duplicate": true,
		})
		return
	}

	paperID := uuid.NewString()
	pdfPath := util.SafeJoin(s.cfg.PDFDir, paperID+".pdf")
	if err := os.WriteFile(pdfPath, content, 0o644); err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("store pdf: %w", err))
		return
	}

	text, pageCount, title, authors, err := s.processPDF(pdfPath, fh.Filename)
	if err != nil {
		_ = os.Remove(pdfPath)
		writeErr(w, http.StatusBadRequest, fmt.Errorf("failed to process PDF: %w", err))
		return
	}

	err = s.paperRepo.InsertPaper(r.Context(), models.Paper{
		PaperID:     paperID,
		Title:       title,
		Authors:     authors,
		Filename:    fh.Filename,
		PDFPath:     pdfPath,
		Fingerprint: fingerprint,
		Text:        text,
		PageCount:   pageCount,
	})
	if err != nil {
		_ = os.Remove(pdfPath)
		if errors.Is(err, util.ErrDuplicateFingerprint) {
			// Lost an insert race; the winner's paper is ours too.
			existing, ferr := s.paperRepo.FindByFingerprint(r.Context(), fingerprint)
			if ferr != nil {
				writeErr(w, http.StatusInternalServerError, ferr)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"paper_id":     existing.PaperID,
				"title":        existing.Title,
				"is_duplicate": true,
			})
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	s.startAllAnalyses(r.Context(), paperID)

	writeJSON(w, http.StatusOK, map[string]any{
		"paper_id":     paperID,
		"title":        title,
		"is_duplicate": false,
	})
}

func (s *Server) processPDF(pdfPath, filename string) (text string, pageCount int, title, authors string, err error) {
	text, err = pdfdoc.ExtractText(pdfPath)
	if err != nil {
		return "", 0, "", "", err
	}
	pageCount, err = pdfdoc.PageCount(pdfPath)
	if err != nil {
		return "", 0, "", "", err
	}
	title, authors, err = pdfdoc.Metadata(pdfPath, text)
	if err != nil {
		return "", 0, "", "", err
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return text, pageCount, title, authors, nil
}

// startAllAnalyses ensures one result row per language and schedules its
// workflow. Workflow IDs are deterministic per (paper, lang), so a result can
// never gain a second concurrent writer no matter how often this runs.
func (s *Server) startAllAnalyses(ctx context.Context, paperID string) {
	for _, lang := range s.cfg.Languages {
		if err := s.resultRepo.CreateResult(ctx, paperID, lang); err != nil {
			log.Printf("create result paper=%s lang=%s: %v", paperID, lang, err)
			continue
		}
		s.startAnalysis(ctx, paperID, lang)
	}
}

func (s *Server) startAnalysis(ctx context.Context, paperID, lang string) {
	_, err := s.temporal.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                                       workflows.AnalysisWorkflowID(paperID, lang),
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.AnalysisWorkflow, workflows.AnalysisInput{PaperID: paperID, Lang: lang})
	var already *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &already) {
		// A writer for this (paper, lang) is still running; nothing to do.
		return
	}
	if err != nil {
		log.Printf("start analysis paper=%s lang=%s: %v", paperID, lang, err)
	}
}

func (s *Server) handlePapers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	papers, err := s.paperRepo.ListPapers(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	for i := range papers {
		statuses, err := s.resultRepo.StatusesByPaper(r.Context(), papers[i].PaperID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		papers[i].Results = statuses
	}
	writeJSON(w, http.StatusOK, papers)
}

func (s *Server) handlePapersScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/papers/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	paperID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.handleGetPaper(w, r, paperID)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.handleDeletePaper(w, r, paperID)
	case len(parts) == 3 && parts[1] == "page" && r.Method == http.MethodGet:
		s.handleRenderPage(w, r, paperID, parts[2])
	case len(parts) == 2 && parts[1] == "result" && r.Method == http.MethodGet:
		s.handleResult(w, r, paperID)
	case len(parts) == 2 && parts[1] == "chat" && r.Method == http.MethodPost:
		s.handleChat(w, r, paperID)
	case len(parts) == 2 && parts[1] == "reanalyze" && r.Method == http.MethodPost:
		s.handleReanalyze(w, r, paperID)
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

func (s *Server) handleGetPaper(w http.ResponseWriter, r *http.Request, paperID string) {
	paper, err := s.paperRepo.GetPaper(r.Context(), paperID)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	// Paper.Text is excluded from JSON; clients fetch pages as images.
	writeJSON(w, http.StatusOK, paper)
}

func (s *Server) handleDeletePaper(w http.ResponseWriter, r *http.Request, paperID string) {
	paper, err := s.paperRepo.GetPaper(r.Context(), paperID)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	if paper.PDFPath != "" {
		_ = os.Remove(paper.PDFPath)
	}
	// Results and chat messages cascade; in-flight generation observes the
	// missing rows and skips.
	if err := s.paperRepo.DeletePaper(r.Context(), paperID); err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRenderPage(w http.ResponseWriter, r *http.Request, paperID, pageStr string) {
	paper, err := s.paperRepo.GetPaper(r.Context(), paperID)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	pageNum, err := strconv.Atoi(pageStr)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid page number %q", pageStr))
		return
	}
	png, err := pdfdoc.RenderPagePNG(paper.PDFPath, pageNum, s.cfg.RenderDPI)
	if err != nil {
		if errors.Is(err, util.ErrPageOutOfRange) {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("failed to render page: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request, paperID string) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "zh"
	}
	if _, err := s.paperRepo.GetPaper(r.Context(), paperID); err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	result, err := s.resultRepo.GetResult(r.Context(), paperID, lang)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("no analysis found for lang=%s", lang))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	switch result.Status {
	case models.StatusDone:
		writeJSON(w, http.StatusOK, map[string]any{"type": "complete", "content": result.Content})
		return
	case models.StatusError:
		writeJSON(w, http.StatusOK, map[string]any{"type": "error", "message": "Analysis failed"})
		return
	}

	// Pending or running: stream deltas until terminal.
	flusher, ok := sseStart(w)
	if !ok {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}
	err = s.watcher.Watch(r.Context(), paperID, lang, func(ev watch.Event) error {
		return writeSSE(w, flusher, ev)
	})
	if err != nil {
		log.Printf("result stream paper=%s lang=%s: %v", paperID, lang, err)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, paperID string) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("message is required"))
		return
	}
	if _, err := s.paperRepo.GetPaper(r.Context(), paperID); err != nil {
		writeErr(w, statusFor(err), err)
		return
	}

	flusher, ok := sseStart(w)
	if !ok {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}
	err := s.chat.StreamReply(r.Context(), paperID, req.Message, func(chunk string) error {
		return writeSSE(w, flusher, map[string]any{"type": "chunk", "content": chunk})
	})
	if err != nil {
		// Headers are gone; closing the stream is the only signal left.
		log.Printf("chat stream paper=%s: %v", paperID, err)
		return
	}
	_ = writeSSE(w, flusher, map[string]any{"type": "done"})
}

// handleReanalyze re-requests a failed analysis. Only error results qualify:
// done content is immutable and pending/running already has a writer.
func (s *Server) handleReanalyze(w http.ResponseWriter, r *http.Request, paperID string) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("lang is required"))
		return
	}
	if _, err := s.paperRepo.GetPaper(r.Context(), paperID); err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	reset, err := s.resultRepo.ResetForRetry(r.Context(), paperID, lang)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	if !reset {
		writeErr(w, http.StatusConflict, fmt.Errorf("analysis is not in error state"))
		return
	}
	s.startAnalysis(r.Context(), paperID, lang)
	writeJSON(w, http.StatusAccepted, map[string]any{"paper_id": paperID, "lang": lang, "scheduled": true})
}

func statusFor(err error) int {
	if errors.Is(err, util.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	if files, ok := m["file"]; ok && len(files) > 0 {
		return files[0], true
	}
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

func sseStart(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher, true
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "PX-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "PX-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "PX-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "PX-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "PX-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "PX-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "PX-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "PX-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "only pdf"):
			msg = "Only PDF files are accepted."
		case strings.Contains(low, "empty file"):
			msg = "Uploaded file is empty."
		case strings.Contains(low, "no files provided"):
			msg = "No PDF file was provided."
		case strings.Contains(low, "failed to process pdf"):
			msg = "The PDF could not be processed. It may be corrupted or contain no extractable text."
		case strings.Contains(low, "message is required"):
			msg = "Chat message is required."
		case strings.Contains(low, "lang is required"):
			msg = "Query parameter lang is required."
		case strings.Contains(low, "invalid page number"):
			msg = "Page number must be an integer."
		case strings.Contains(low, "out of range"):
			msg = "Requested page is out of range."
		case strings.Contains(low, "not in error state"):
			msg = "Only failed analyses can be re-requested."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
