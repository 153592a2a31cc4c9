package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-builder/internal/billing"
	"github.com/jonathan/portfolio-builder/internal/history"
	"github.com/jonathan/portfolio-builder/internal/llm/llmtest"
	"github.com/jonathan/portfolio-builder/internal/server/middleware"
	"github.com/jonathan/portfolio-builder/internal/usage"
)

const testResumeJSON = `{
	"name": "Jane Doe",
	"title": "Software Engineer",
	"summary": "Builds reliable backend systems.",
	"email": "jane@example.com",
	"skills": ["Go", "Postgres"],
	"experience": [
		{"role": "Engineer", "company": "Acme", "duration": "2020 - Present", "description": "Shipped the billing platform."}
	]
}`

const testStrategyJSON = `{
	"theme": "minimal",
	"layout": {"hero": "split", "experience": "grid", "skills": "minimal"},
	"colorPalette": {"primary": "text-slate-900", "secondary": "text-slate-500", "background": "bg-white", "surface": "bg-slate-50", "text": "text-slate-600"},
	"fontPairing": {"heading": "Sora", "body": "Inter", "importUrl": "https://fonts.googleapis.com/css2?family=Sora&display=swap"}
}`

// generationReplies scripts one full pipeline run: extraction, strategy,
// assembly, polish.
func generationReplies() []llmtest.Reply {
	return []llmtest.Reply{
		{Text: testResumeJSON},
		{Text: testStrategyJSON},
		{Text: "<html><body>site</body></html>"},
		{Text: "<html><body>polished</body></html>"},
	}
}

func newTestServer(t *testing.T, cfg Config, replies ...llmtest.Reply) (*Server, *llmtest.Stub) {
	t.Helper()

	stub := llmtest.NewStub(replies...)
	cfg.Client = stub
	if cfg.Ledger == nil {
		cfg.Ledger = usage.NewLedger(usage.NewMemoryStore())
	}
	if cfg.PublishDelay == 0 {
		cfg.PublishDelay = time.Millisecond
	}

	srv, err := New(cfg)
	require.NoError(t, err)
	return srv, stub
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func generateSite(t *testing.T, srv *Server) {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/generate", generateRequest{ResumeText: "Jane Doe\nSoftware Engineer"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "event: complete")
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGenerateStreamsProgress(t *testing.T) {
	srv, stub := newTestServer(t, Config{}, generationReplies()...)

	rec := doJSON(t, srv, http.MethodPost, "/generate", generateRequest{ResumeText: "Jane Doe\nSoftware Engineer"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: progress")
	assert.Contains(t, body, "Initializing AI workspace...")
	assert.Contains(t, body, "Finalizing build...")
	assert.Contains(t, body, "event: complete")
	assert.Len(t, stub.Calls(), 4)

	rec = doJSON(t, srv, http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state statePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "preview", string(state.State))
	assert.Equal(t, "<html><body>polished</body></html>", state.SiteHTML)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, usage.DailyCreationLimit-1, state.Usage.CreationsRemaining)
}

func TestGenerateFromUpload(t *testing.T) {
	srv, stub := newTestServer(t, Config{}, generationReplies()...)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("resume", "resume.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, form.WriteField("industry", "fintech"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/generate", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: complete")

	calls := stub.Calls()
	require.NotEmpty(t, calls)
	assert.True(t, calls[0].HasBlob)
	assert.Contains(t, rec.Body.String(), "fintech design patterns")
}

func TestGenerateRejectsEmptyBody(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doJSON(t, srv, http.MethodPost, "/generate", generateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateQuotaExhausted(t *testing.T) {
	ledger := usage.NewLedger(usage.NewMemoryStore())
	for i := 0; i < usage.DailyCreationLimit; i++ {
		ledger.IncrementCreationCount()
	}
	srv, stub := newTestServer(t, Config{Ledger: ledger})

	rec := doJSON(t, srv, http.MethodPost, "/generate", generateRequest{ResumeText: "Jane Doe"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, stub.Calls())
}

func TestGenerateFailureKeepsInputState(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, llmtest.Reply{Text: "not json"})

	rec := doJSON(t, srv, http.MethodPost, "/generate", generateRequest{ResumeText: "Jane Doe"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: error")

	var state statePayload
	rec = doJSON(t, srv, http.MethodGet, "/state", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "input", string(state.State))
	assert.Equal(t, usage.DailyCreationLimit, state.Usage.CreationsRemaining)
}

func TestChatAppliesEdit(t *testing.T) {
	replies := append(generationReplies(),
		llmtest.Reply{Text: `{"html": "<html><body>edited</body></html>", "message": "Made the header bolder."}`},
	)
	srv, _ := newTestServer(t, Config{}, replies...)
	generateSite(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/chat", chatRequest{Message: "Make the header bolder"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status  string       `json:"status"`
		Message string       `json:"message"`
		State   statePayload `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "applied", resp.Status)
	assert.Equal(t, "<html><body>edited</body></html>", resp.State.SiteHTML)
	assert.Equal(t, usage.PerProjectEditLimit-1, resp.State.Usage.EditsRemaining)
	assert.Len(t, resp.State.Messages, 3) // welcome, user, model
}

func TestChatBeforeGeneration(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doJSON(t, srv, http.MethodPost, "/chat", chatRequest{Message: "Change the colors"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doJSON(t, srv, http.MethodPost, "/chat", chatRequest{Message: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResumeBuilderAndExport(t *testing.T) {
	replies := append(generationReplies(),
		llmtest.Reply{Text: "<html><body>print resume</body></html>"},
	)
	srv, _ := newTestServer(t, Config{}, replies...)
	generateSite(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/resume-builder", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state statePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "resume_builder", string(state.State))
	assert.Equal(t, "<html><body>print resume</body></html>", state.ResumeHTML)

	rec = doJSON(t, srv, http.MethodGet, "/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "resume.html")
	assert.Equal(t, "<html><body>print resume</body></html>", rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "index.html")
	assert.Equal(t, "<html><body>polished</body></html>", rec.Body.String())
}

func TestExportBeforeGeneration(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doJSON(t, srv, http.MethodGet, "/export", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPublish(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, generationReplies()...)
	generateSite(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/publish", publishRequest{Label: "jane-doe"})
	require.Equal(t, http.StatusOK, rec.Code)

	var deployment struct {
		Label string `json:"label"`
		URL   string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deployment))
	assert.Equal(t, "jane-doe", deployment.Label)
	assert.Equal(t, "https://jane-doe.vercel.app", deployment.URL)
}

func TestPublishInvalidLabel(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, generationReplies()...)
	generateSite(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/publish", publishRequest{Label: "Jane Doe!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublishWithoutSite(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doJSON(t, srv, http.MethodPost, "/publish", publishRequest{Label: "jane"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPurchaseWithoutProvider(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doJSON(t, srv, http.MethodPost, "/purchase", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Credits int         `json:"credits"`
		Usage   usage.Stats `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, usage.EditPackSize, resp.Credits)
	assert.Equal(t, usage.PerProjectEditLimit+usage.EditPackSize, resp.Usage.MaxEdits)
}

func TestPurchaseWithProvider(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/purchases", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"credits": 20, "receipt": "rcpt_1"}`))
	}))
	defer provider.Close()

	srv, _ := newTestServer(t, Config{Billing: billing.NewClient(provider.URL, "")})

	rec := doJSON(t, srv, http.MethodPost, "/purchase", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Usage usage.Stats `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, usage.PerProjectEditLimit+20, resp.Usage.MaxEdits)
}

func TestPurchaseProviderFailure(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer provider.Close()

	srv, _ := newTestServer(t, Config{Billing: billing.NewClient(provider.URL, "")})

	rec := doJSON(t, srv, http.MethodPost, "/purchase", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/usage", nil)
	var stats usage.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, usage.PerProjectEditLimit, stats.MaxEdits)
}

func TestStartOver(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, generationReplies()...)
	generateSite(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/start-over", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state statePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "input", string(state.State))
	assert.Empty(t, state.SiteHTML)
	assert.Empty(t, state.Messages)
}

func TestSnapshotsSavedOnGenerate(t *testing.T) {
	store, err := history.OpenSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv, _ := newTestServer(t, Config{Snapshots: store}, generationReplies()...)
	generateSite(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/snapshots?kind=site", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Snapshots []*history.Snapshot `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Snapshots, 1)
	assert.Equal(t, history.KindSite, resp.Snapshots[0].Kind)
	assert.Equal(t, "<html><body>polished</body></html>", resp.Snapshots[0].HTML)
	assert.Equal(t, "minimal", resp.Snapshots[0].Theme)
}

func TestSnapshotsNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doJSON(t, srv, http.MethodGet, "/snapshots", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthProtectsRoutes(t *testing.T) {
	srv, _ := newTestServer(t, Config{JWTSecret: "secret"})

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/state", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := middleware.SignToken([]byte("secret"), "user-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec2 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestRateLimitHeadersPresent(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, generationReplies()...)

	rec := doJSON(t, srv, http.MethodPost, "/chat", chatRequest{Message: "hi"})
	// Blocked by state, but the limiter ran first.
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
}
