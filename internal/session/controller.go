// Package session owns the live document state of one builder session and
// routes user actions to the generation pipeline and the edit engine.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/portfolio-builder/internal/editing"
	"github.com/jonathan/portfolio-builder/internal/pipeline"
	"github.com/jonathan/portfolio-builder/internal/printdoc"
	"github.com/jonathan/portfolio-builder/internal/types"
	"github.com/jonathan/portfolio-builder/internal/usage"
)

// State is the coarse mode of the session.
type State string

const (
	// StateInput means no site exists yet; the session awaits a resume.
	StateInput State = "input"
	// StateGenerating means the pipeline is running.
	StateGenerating State = "generating"
	// StatePreview means a site exists and chat edits target it.
	StatePreview State = "preview"
	// StateResumeBuilder means chat edits target the print resume.
	StateResumeBuilder State = "resume_builder"
)

// Export file names for the two documents.
const (
	SiteExportName   = "index.html"
	ResumeExportName = "resume.html"
)

var (
	// ErrCreationLimit is returned when the daily creation quota is spent.
	ErrCreationLimit = errors.New("daily site creation limit reached")
	// ErrBusy is returned when another mutation is already in flight.
	ErrBusy = errors.New("another operation is in progress")
	// ErrInvalidState is returned when an action does not apply to the
	// session's current state.
	ErrInvalidState = errors.New("action not available in current state")
)

const editLimitMessage = "You've reached the maximum number of AI edits for this project. To continue, please publish your site or purchase more edits."

// Controller is the single-writer owner of one session's documents and
// chat log. Mutating operations are serialized; concurrent callers get
// ErrBusy instead of queueing.
type Controller struct {
	pipeline *pipeline.Pipeline
	engine   *editing.Engine
	printgen *printdoc.Generator
	ledger   *usage.Ledger

	sem *semaphore.Weighted
	now func() time.Time

	mu         sync.Mutex
	state      State
	resume     *types.ResumeData
	strategy   *types.StyleStrategy
	prefs      types.UserPreferences
	siteHTML   string
	resumeHTML string
	messages   []types.ChatMessage
}

// NewController creates a Controller in the Input state.
func NewController(p *pipeline.Pipeline, engine *editing.Engine, printgen *printdoc.Generator, ledger *usage.Ledger) *Controller {
	return &Controller{
		pipeline: p,
		engine:   engine,
		printgen: printgen,
		ledger:   ledger,
		sem:      semaphore.NewWeighted(1),
		now:      time.Now,
		state:    StateInput,
	}
}

// State returns the session's current mode.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the chat log.
func (c *Controller) Messages() []types.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// SiteHTML returns the current site document.
func (c *Controller) SiteHTML() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.siteHTML
}

// ResumeHTML returns the current print resume document, empty until the
// resume builder has been opened once.
func (c *Controller) ResumeHTML() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumeHTML
}

// Strategy returns the committed style strategy, nil before generation.
func (c *Controller) Strategy() *types.StyleStrategy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strategy
}

// Resume returns the committed structured resume, nil before generation.
func (c *Controller) Resume() *types.ResumeData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resume
}

// Generate runs the full pipeline for a new site. The creation quota is
// checked before any stage runs. On failure the session reverts to Input
// with nothing committed.
func (c *Controller) Generate(ctx context.Context, input pipeline.Input, onProgress pipeline.ProgressCallback) error {
	if !c.sem.TryAcquire(1) {
		return ErrBusy
	}
	defer c.sem.Release(1)

	if !c.ledger.CanCreateNewSite() {
		return ErrCreationLimit
	}

	c.setState(StateGenerating)

	result, err := c.pipeline.Run(ctx, input, onProgress)
	if err != nil {
		c.setState(StateInput)
		return err
	}

	prefs := types.UserPreferences{}
	if input.Preferences != nil {
		prefs = *input.Preferences
	}

	c.mu.Lock()
	c.resume = result.Resume
	c.strategy = result.Strategy
	c.prefs = prefs
	c.siteHTML = result.SiteHTML
	c.resumeHTML = ""
	c.messages = nil
	c.appendLocked(types.RoleModel, welcomeMessage(result.Strategy, prefs))
	c.state = StatePreview
	c.mu.Unlock()

	return nil
}

// SendMessage routes a chat message to the edit engine for whichever
// document the current mode targets. The user message is always appended;
// when the edit budget is spent the engine is not invoked and an
// explanatory model message is appended instead. Exactly one model message
// is appended per call. Only applied edits consume an edit credit.
func (c *Controller) SendMessage(ctx context.Context, text string) (*editing.Result, error) {
	if !c.sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer c.sem.Release(1)

	c.mu.Lock()
	state := c.state
	if state != StatePreview && state != StateResumeBuilder {
		c.mu.Unlock()
		return nil, ErrInvalidState
	}
	c.appendLocked(types.RoleUser, text)

	if !c.ledger.CanEditSite() {
		c.appendLocked(types.RoleModel, editLimitMessage)
		c.mu.Unlock()
		return &editing.Result{Status: editing.StatusRefused, Message: editLimitMessage}, nil
	}

	var target string
	if state == StateResumeBuilder {
		target = c.resumeHTML
	} else {
		target = c.siteHTML
	}
	c.mu.Unlock()

	var result *editing.Result
	if state == StateResumeBuilder {
		result = c.engine.EditResume(ctx, target, text)
	} else {
		result = c.engine.EditSite(ctx, target, text)
	}

	c.mu.Lock()
	if result.Status == editing.StatusApplied {
		if state == StateResumeBuilder {
			c.resumeHTML = result.HTML
		} else {
			c.siteHTML = result.HTML
		}
	}
	c.appendLocked(types.RoleModel, result.Message)
	c.mu.Unlock()

	if result.Status == editing.StatusApplied {
		c.ledger.IncrementEditCount()
	}
	return result, nil
}

// OpenResumeBuilder switches to resume mode, generating the print resume
// on first entry and memoizing it for the rest of the session. When
// generation fails the session stays in its previous mode.
func (c *Controller) OpenResumeBuilder(ctx context.Context) error {
	if !c.sem.TryAcquire(1) {
		return ErrBusy
	}
	defer c.sem.Release(1)

	c.mu.Lock()
	if c.state == StateInput || c.state == StateGenerating {
		c.mu.Unlock()
		return ErrInvalidState
	}
	if c.resumeHTML != "" {
		c.state = StateResumeBuilder
		c.mu.Unlock()
		return nil
	}
	resume, strat := c.resume, c.strategy
	c.mu.Unlock()

	html, err := c.printgen.Generate(ctx, resume, strat)
	if err != nil {
		log.Warn().Err(err).Msg("print resume generation failed")
		return fmt.Errorf("could not generate resume: %w", err)
	}

	c.mu.Lock()
	c.resumeHTML = html
	c.state = StateResumeBuilder
	c.appendLocked(types.RoleModel, "I've created a printable resume that matches your website's style. You can edit it here or download it as a PDF.")
	c.mu.Unlock()
	return nil
}

// OpenPreview switches back to site mode.
func (c *Controller) OpenPreview() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePreview && c.state != StateResumeBuilder {
		return ErrInvalidState
	}
	c.state = StatePreview
	return nil
}

// StartOver discards all generated documents and chat history and returns
// to the Input state. Destructive; callers confirm with the user first.
// Spent quota is not refunded.
func (c *Controller) StartOver() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resume = nil
	c.strategy = nil
	c.prefs = types.UserPreferences{}
	c.siteHTML = ""
	c.resumeHTML = ""
	c.messages = nil
	c.state = StateInput
}

// Export returns the current mode's document and its download file name.
func (c *Controller) Export() (filename, html string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateResumeBuilder:
		return ResumeExportName, c.resumeHTML, nil
	case StatePreview:
		return SiteExportName, c.siteHTML, nil
	default:
		return "", "", ErrInvalidState
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// appendLocked adds a chat message. Callers must hold mu.
func (c *Controller) appendLocked(role types.Role, text string) {
	c.messages = append(c.messages, types.ChatMessage{
		Role:      role,
		Text:      text,
		Timestamp: c.now(),
	})
}

func welcomeMessage(strat *types.StyleStrategy, prefs types.UserPreferences) string {
	industry := prefs.Industry
	if industry == "" {
		industry = "professional"
	}
	style := prefs.Style
	if style == "" {
		style = string(strat.Theme)
	}
	return fmt.Sprintf("I've designed a custom %s portfolio for you based on your %s background. I've applied the %s aesthetic with your preferred colors. How does it look?", strat.Theme, industry, style)
}
