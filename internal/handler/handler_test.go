package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lumenworks/intake-api/internal/flow"
	"github.com/lumenworks/intake-api/internal/handler"
	"github.com/lumenworks/intake-api/internal/mailer"
	"github.com/lumenworks/intake-api/internal/ratelimit"
	"github.com/lumenworks/intake-api/internal/repository"
	"github.com/lumenworks/intake-api/internal/router"
	"github.com/lumenworks/intake-api/internal/service"
)

const testJWTSecret = "test-secret"

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-1", nil
}

type testEnv struct {
	mux  http.Handler
	mail *fakeMailer
}

func newTestEnv(t *testing.T, mail mailer.Mailer) *testEnv {
	t.Helper()

	db, err := repository.Open(filepath.Join(t.TempDir(), "intake.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	subRepo := repository.NewSubmissionRepo(db)
	blobRepo := repository.NewBlobRepo(db)
	operatorRepo := repository.NewOperatorRepo(db)
	ctx := context.Background()
	for _, ensure := range []func(context.Context) error{
		subRepo.EnsureSchema, blobRepo.EnsureSchema, operatorRepo.EnsureSchema,
	} {
		if err := ensure(ctx); err != nil {
			t.Fatalf("ensure schema: %v", err)
		}
	}

	contactLimiter := ratelimit.NewMemory(ratelimit.Config{
		Window:          15 * time.Minute,
		MaxRequests:     3,
		EmailCooldown:   5 * time.Minute,
		MessageCooldown: 2 * time.Minute,
	})
	recruitLimiter := ratelimit.NewMemory(ratelimit.Config{
		Window:          5 * time.Minute,
		MaxRequests:     10,
		EmailCooldown:   time.Minute,
		MessageCooldown: 30 * time.Second,
	})

	intakeSvc := service.NewIntakeService(
		contactLimiter, recruitLimiter, mail, subRepo, blobRepo,
		"noreply@test.local", "hello@test.local", "careers@test.local",
	)
	authSvc := service.NewAuthService(operatorRepo, testJWTSecret, time.Hour)
	if err := authSvc.SeedAdmin(ctx, "admin@test.local", "hunter22"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	sessions := flow.NewManager(time.Hour)
	mux := router.New(testJWTSecret,
		handler.NewContactHandler(intakeSvc),
		handler.NewRecruitHandler(intakeSvc),
		handler.NewFlowHandler(sessions, intakeSvc),
		handler.NewAdminHandler(authSvc, subRepo, blobRepo),
	)

	fm, _ := mail.(*fakeMailer)
	return &testEnv{mux: mux, mail: fm}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func contactPayload() map[string]string {
	return map[string]string{
		"name":    "Jane Doe",
		"email":   "jane@example.com",
		"subject": "Project inquiry",
		"message": "We would like to discuss a project.",
	}
}

func TestContactSubmitOK(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})
	payload := contactPayload()
	payload["message"] = strings.Repeat("m", 10) // exactly the lower bound

	rec := env.postJSON(t, "/api/contact", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(env.mail.sent) != 1 {
		t.Fatalf("expected 1 dispatched mail, got %d", len(env.mail.sent))
	}
}

func TestContactMessageTooShort(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})
	payload := contactPayload()
	payload["message"] = strings.Repeat("m", 9)

	rec := env.postJSON(t, "/api/contact", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := decodeBody(t, rec)["error"].(string); !strings.Contains(msg, "10-1000") {
		t.Errorf("error should mention the length constraint, got %q", msg)
	}
	if len(env.mail.sent) != 0 {
		t.Error("no mail should be dispatched on validation failure")
	}
}

func TestContactWrongContentType(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("name=Jane"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestContactRateLimit(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	// 4 rapid posts from one IP with distinct emails and messages: the
	// first 3 pass, the 4th hits the window cap.
	for i := 1; i <= 3; i++ {
		payload := contactPayload()
		payload["email"] = fmt.Sprintf("user%d@example.com", i)
		payload["message"] = fmt.Sprintf("Distinct message number %d here.", i)
		if rec := env.postJSON(t, "/api/contact", payload); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, body %s", i, rec.Code, rec.Body.String())
		}
	}

	payload := contactPayload()
	payload["email"] = "user4@example.com"
	payload["message"] = "Distinct message number 4 here."
	rec := env.postJSON(t, "/api/contact", payload)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("4th request status = %d, want 429", rec.Code)
	}
}

func TestContactDispatchFailure(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{err: fmt.Errorf("provider down")})

	rec := env.postJSON(t, "/api/contact", contactPayload())
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if msg := decodeBody(t, rec)["error"].(string); strings.Contains(msg, "provider down") {
		t.Errorf("provider detail must not leak to the client: %q", msg)
	}
}

func TestContactMailNotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.postJSON(t, "/api/contact", contactPayload())
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func recruitPayload() map[string]string {
	return map[string]string{
		"name":         "Jane Doe",
		"email":        "jane@example.com",
		"phone":        "010-1234-5678",
		"position":     "Frontend Developer",
		"introduction": "I have five years of experience.",
	}
}

func postRecruitMultipart(t *testing.T, env *testEnv, fields map[string]string, resumeSize int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if resumeSize > 0 {
		fw, err := mw.CreateFormFile("resume", "resume.pdf")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(bytes.Repeat([]byte{0x25}, resumeSize))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/recruit", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func TestRecruitJSONSubmit(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	rec := env.postJSON(t, "/api/recruit", recruitPayload())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.mail.sent[0].To[0] != "careers@test.local" {
		t.Errorf("recruit mail went to %q", env.mail.sent[0].To[0])
	}
}

func TestRecruitMultipartWithResume(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	rec := postRecruitMultipart(t, env, recruitPayload(), 2048)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if _, dropped := decodeBody(t, rec)["fileDropped"]; dropped {
		t.Error("small resume should not be dropped")
	}
	if len(env.mail.sent[0].Attachments) != 1 {
		t.Fatal("resume should be attached to the notification")
	}
}

func TestRecruitOversizedResumeDropped(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	rec := postRecruitMultipart(t, env, recruitPayload(), service.MaxAttachmentBytes+1)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when the file is dropped", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["fileDropped"] != true {
		t.Errorf("response should report the drop: %v", body)
	}
	if len(env.mail.sent[0].Attachments) != 0 {
		t.Error("oversized resume must not be dispatched")
	}
}

func TestRecruitUnsupportedContentType(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})
	req := httptest.NewRequest(http.MethodPost, "/api/recruit", strings.NewReader("<xml/>"))
	req.Header.Set("Content-Type", "application/xml")
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAdminLoginAndListSubmissions(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	if rec := env.postJSON(t, "/api/contact", contactPayload()); rec.Code != http.StatusOK {
		t.Fatalf("seed submission: %d", rec.Code)
	}

	// No token: rejected.
	req := httptest.NewRequest(http.MethodGet, "/api/admin/submissions", nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list status = %d, want 401", rec.Code)
	}

	rec = env.postJSON(t, "/api/admin/login", map[string]string{
		"email":    "admin@test.local",
		"password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	token := decodeBody(t, rec)["token"].(string)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/submissions?flow=contact", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body.String())
	}
	if total := decodeBody(t, rec)["total"].(float64); total != 1 {
		t.Errorf("total = %v, want 1", total)
	}
}

func TestAdminListClampsPagination(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	if rec := env.postJSON(t, "/api/contact", contactPayload()); rec.Code != http.StatusOK {
		t.Fatalf("seed submission: %d", rec.Code)
	}
	rec := env.postJSON(t, "/api/admin/login", map[string]string{
		"email":    "admin@test.local",
		"password": "hunter22",
	})
	token := decodeBody(t, rec)["token"].(string)

	// Negative and malformed values must never reach the query: negative
	// LIMIT means unbounded in SQLite.
	for _, query := range []string{"?limit=-5&skip=-3", "?limit=junk&skip=junk", "?limit=100000"} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/submissions"+query, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("list %s status = %d, body %s", query, rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		if limit := body["limit"].(float64); limit < 1 || limit > 100 {
			t.Errorf("list %s limit = %v, want within [1,100]", query, limit)
		}
		if skip := body["skip"].(float64); skip < 0 {
			t.Errorf("list %s skip = %v, want >= 0", query, skip)
		}
	}
}

func TestAdminLoginBadCredentials(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	rec := env.postJSON(t, "/api/admin/login", map[string]string{
		"email":    "admin@test.local",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestFlowWalkthrough(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	rec := env.postJSON(t, "/api/recruit/flow", map[string]string{})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d", rec.Code)
	}
	sessionID := decodeBody(t, rec)["sessionId"].(string)
	base := "/api/recruit/flow/" + sessionID

	// Previous on step 1 floors.
	rec = env.postJSON(t, base+"/previous", map[string]string{})
	if step := decodeBody(t, rec)["step"].(float64); step != 1 {
		t.Fatalf("previous at step 1 moved to %v", step)
	}

	steps := []struct {
		fields map[string]string
	}{
		{map[string]string{"projectTypes": "web"}},
		{map[string]string{"title": "Portfolio site", "introduction": "I have five years of experience."}},
		{recruitContactFields()},
	}
	for i, s := range steps {
		rec = env.postJSON(t, base+"/fields", map[string]any{"fields": s.fields})
		if rec.Code != http.StatusOK {
			t.Fatalf("fields step %d status = %d, body %s", i+1, rec.Code, rec.Body.String())
		}
		rec = env.postJSON(t, base+"/next", map[string]string{})
		if rec.Code != http.StatusOK {
			t.Fatalf("next step %d status = %d", i+1, rec.Code)
		}
	}

	rec = env.postJSON(t, base+"/submit", map[string]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	state := decodeBody(t, rec)["state"].(map[string]any)
	if state["terminal"] != true {
		t.Errorf("session should be terminal after submit: %v", state)
	}
	if len(env.mail.sent) != 1 {
		t.Errorf("expected 1 dispatched mail, got %d", len(env.mail.sent))
	}

	// A second submit on a terminal session conflicts.
	rec = env.postJSON(t, base+"/submit", map[string]string{})
	if rec.Code != http.StatusConflict {
		t.Errorf("resubmit status = %d, want 409", rec.Code)
	}
}

func TestFlowFieldRejectedOnWrongStep(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	rec := env.postJSON(t, "/api/recruit/flow", map[string]string{})
	sessionID := decodeBody(t, rec)["sessionId"].(string)

	rec = env.postJSON(t, "/api/recruit/flow/"+sessionID+"/fields",
		map[string]any{"fields": map[string]string{"email": "a@b.co"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	rejected, ok := body["rejectedFields"].([]any)
	if !ok || len(rejected) != 1 || rejected[0] != "email" {
		t.Errorf("rejectedFields = %v", body["rejectedFields"])
	}
}

func TestFlowSubmitFailureKeepsSession(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	rec := env.postJSON(t, "/api/recruit/flow", map[string]string{})
	sessionID := decodeBody(t, rec)["sessionId"].(string)
	base := "/api/recruit/flow/" + sessionID

	// Submitting with no fields bound fails validation server-side.
	rec = env.postJSON(t, base+"/submit", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("submit status = %d, want 400", rec.Code)
	}

	// Session is still alive and non-terminal.
	req := httptest.NewRequest(http.MethodGet, base, nil)
	getRec := httptest.NewRecorder()
	env.mux.ServeHTTP(getRec, req)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get session status = %d", getRec.Code)
	}
	if decodeBody(t, getRec)["terminal"] != false {
		t.Error("failed submit must not latch terminal")
	}
}

func recruitContactFields() map[string]string {
	return map[string]string{
		"company":  "Acme",
		"name":     "Jane Doe",
		"position": "Frontend Developer",
		"phone":    "010-1234-5678",
		"email":    "jane@example.com",
	}
}
