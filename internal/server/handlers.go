package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/portfolio-builder/internal/history"
	"github.com/jonathan/portfolio-builder/internal/ingestion"
	"github.com/jonathan/portfolio-builder/internal/pipeline"
	"github.com/jonathan/portfolio-builder/internal/publish"
	"github.com/jonathan/portfolio-builder/internal/session"
	"github.com/jonathan/portfolio-builder/internal/types"
	"github.com/jonathan/portfolio-builder/internal/usage"
)

// maxUploadSize bounds resume uploads. Resumes are small; anything larger
// is a mistake.
const maxUploadSize = 16 << 20

type generateRequest struct {
	ResumeText  string                 `json:"resumeText"`
	Preferences *types.UserPreferences `json:"preferences"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type publishRequest struct {
	Label string `json:"label"`
}

type purchaseRequest struct {
	Credits int `json:"credits"`
}

// statePayload is the session summary returned by most endpoints.
type statePayload struct {
	State      session.State       `json:"state"`
	Messages   []types.ChatMessage `json:"messages"`
	SiteHTML   string              `json:"siteHtml,omitempty"`
	ResumeHTML string              `json:"resumeHtml,omitempty"`
	Usage      usage.Stats         `json:"usage"`
}

func (s *Server) currentState() statePayload {
	return statePayload{
		State:      s.controller.State(),
		Messages:   s.controller.Messages(),
		SiteHTML:   s.controller.SiteHTML(),
		ResumeHTML: s.controller.ResumeHTML(),
		Usage:      s.ledger.GetStats(),
	}
}

// handleGenerate runs the full generation pipeline, streaming progress as
// server-sent events. The request is either JSON with resume text or a
// multipart form with a "resume" file upload.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	input, err := s.parseGenerateRequest(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	// Reject before streaming starts so quota failures keep a proper
	// status code.
	if !s.ledger.CanCreateNewSite() {
		s.errorResponse(w, http.StatusForbidden, session.ErrCreationLimit.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	err = s.controller.Generate(r.Context(), *input, func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("progress", event); err != nil {
			log.Warn().Err(err).Msg("failed to stream progress event")
		}
	})
	if err != nil {
		log.Warn().Err(err).Msg("site generation failed")
		sse.WriteError(err.Error())
		return
	}

	s.saveSnapshot(history.KindSite, s.controller.SiteHTML())
	sse.WriteComplete(s.currentState())
}

// parseGenerateRequest builds the pipeline input from either request
// encoding.
func (s *Server) parseGenerateRequest(r *http.Request) (*pipeline.Input, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return s.parseMultipartGenerate(r)
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if strings.TrimSpace(req.ResumeText) == "" {
		return nil, fmt.Errorf("resumeText is required")
	}

	source, err := ingestion.FromText(req.ResumeText)
	if err != nil {
		return nil, err
	}
	return &pipeline.Input{ResumeText: source.Text, Preferences: req.Preferences}, nil
}

func (s *Server) parseMultipartGenerate(r *http.Request) (*pipeline.Input, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		return nil, fmt.Errorf("resume file is required: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	source, err := s.ingestor.FromUpload(header.Filename, data)
	if err != nil {
		return nil, err
	}

	input := &pipeline.Input{}
	if source.IsDocument() {
		input.Document = &pipeline.Document{MIMEType: source.MIMEType, Data: source.Data}
	} else {
		input.ResumeText = source.Text
	}

	prefs := types.UserPreferences{
		Industry:        r.FormValue("industry"),
		ExperienceLevel: r.FormValue("experienceLevel"),
		Style:           r.FormValue("style"),
		Color:           r.FormValue("color"),
	}
	if prefs != (types.UserPreferences{}) {
		input.Preferences = &prefs
	}
	return input, nil
}

// handleChat routes one chat message to the edit engine.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := s.controller.SendMessage(r.Context(), req.Message)
	if err != nil {
		s.sessionError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":  result.Status,
		"message": result.Message,
		"state":   s.currentState(),
	})
}

// handleState returns the full session summary.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.currentState())
}

// handleOpenResumeBuilder switches to the print resume, generating it on
// first entry.
func (s *Server) handleOpenResumeBuilder(w http.ResponseWriter, r *http.Request) {
	hadResume := s.controller.ResumeHTML() != ""

	if err := s.controller.OpenResumeBuilder(r.Context()); err != nil {
		if errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrInvalidState) {
			s.sessionError(w, err)
			return
		}
		s.errorResponse(w, http.StatusBadGateway, err.Error())
		return
	}

	if !hadResume {
		s.saveSnapshot(history.KindResume, s.controller.ResumeHTML())
	}
	s.jsonResponse(w, http.StatusOK, s.currentState())
}

// handleOpenPreview switches back to the website.
func (s *Server) handleOpenPreview(w http.ResponseWriter, _ *http.Request) {
	if err := s.controller.OpenPreview(); err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.currentState())
}

// handleStartOver discards the session. The confirmation dialog is the
// client's job; this endpoint is unconditional.
func (s *Server) handleStartOver(w http.ResponseWriter, _ *http.Request) {
	s.controller.StartOver()
	s.jsonResponse(w, http.StatusOK, s.currentState())
}

// handleUsage returns the quota summary.
func (s *Server) handleUsage(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.ledger.GetStats())
}

// handlePurchase buys an edit pack. With a billing provider configured
// the credits are granted only after the provider confirms.
func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	req := purchaseRequest{Credits: usage.EditPackSize}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.Credits <= 0 {
		s.errorResponse(w, http.StatusBadRequest, "credits must be positive")
		return
	}

	credits := req.Credits
	if s.billing != nil {
		purchase, err := s.billing.PurchaseEditPack(r.Context(), s.requestUserID(r), req.Credits)
		if err != nil {
			log.Warn().Err(err).Msg("edit pack purchase failed")
			s.errorResponse(w, http.StatusBadGateway, "purchase failed")
			return
		}
		credits = purchase.Credits
	}

	s.ledger.PurchaseEdits(credits)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"credits": credits,
		"usage":   s.ledger.GetStats(),
	})
}

// handlePublish deploys the current site to its hosting subdomain.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if s.controller.SiteHTML() == "" {
		s.errorResponse(w, http.StatusConflict, "no site to publish")
		return
	}

	deployment, err := s.publisher.Publish(r.Context(), req.Label)
	if err != nil {
		var invalid *publish.InvalidLabelError
		if errors.As(err, &invalid) {
			s.errorResponse(w, http.StatusBadRequest, invalid.Error())
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, deployment)
}

// handleExport downloads the current mode's document as an HTML file.
func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	filename, html, err := s.controller.Export()
	if err != nil {
		s.sessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write([]byte(html)); err != nil {
		log.Warn().Err(err).Msg("failed to write export")
	}
}

// handleExportPDF downloads the current mode's document printed to PDF.
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	filename, html, err := s.controller.Export()
	if err != nil {
		s.sessionError(w, err)
		return
	}

	pdf, err := s.renderer.RenderHTMLToPDF(r.Context(), html)
	if err != nil {
		log.Warn().Err(err).Msg("PDF rendering failed")
		s.errorResponse(w, http.StatusBadGateway, "PDF rendering failed")
		return
	}

	pdfName := strings.TrimSuffix(filename, ".html") + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdfName))
	if _, err := w.Write(pdf); err != nil {
		log.Warn().Err(err).Msg("failed to write PDF export")
	}
}

// handleListSnapshots lists stored document versions, newest first.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "snapshot history not configured")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.errorResponse(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	snapshots, err := s.snapshots.List(r.Context(), r.URL.Query().Get("kind"), limit)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list snapshots")
		s.errorResponse(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"snapshots": snapshots})
}

// handleGetSnapshot returns one stored document version.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "snapshot history not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid snapshot ID")
		return
	}

	snapshot, err := s.snapshots.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "snapshot not found")
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("failed to load snapshot")
		s.errorResponse(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	s.jsonResponse(w, http.StatusOK, snapshot)
}

// saveSnapshot persists a document version when a store is configured.
// History is best effort; failures never surface to the user.
func (s *Server) saveSnapshot(kind, html string) {
	if s.snapshots == nil || html == "" {
		return
	}

	snapshot := &history.Snapshot{Kind: kind, HTML: html}
	if strat := s.controller.Strategy(); strat != nil {
		snapshot.Theme = string(strat.Theme)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.snapshots.Save(ctx, snapshot); err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("failed to save snapshot")
	}
}

// sessionError maps controller errors to HTTP statuses.
func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		s.errorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrInvalidState):
		s.errorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrCreationLimit):
		s.errorResponse(w, http.StatusForbidden, err.Error())
	default:
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
	}
}
