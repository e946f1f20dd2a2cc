package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/PathwayEdu/session-service/internal/services"
	"github.com/PathwayEdu/session-service/internal/utils"
)

// stubSessionService returns canned responses per call.
type stubSessionService struct {
	startResp  *services.StartSessionResponse
	view       *services.SessionView
	submitResp *services.SubmitResponse
	err        error

	lastUserID       string
	lastAssessmentID uint
	abandoned        bool
}

func (s *stubSessionService) Start(ctx context.Context, req *services.StartSessionRequest, userID string) (*services.StartSessionResponse, error) {
	s.lastUserID = userID
	s.lastAssessmentID = req.AssessmentID
	return s.startResp, s.err
}

func (s *stubSessionService) RecordAnswer(ctx context.Context, assessmentID uint, req *services.RecordAnswerRequest, userID string) (*services.SessionView, error) {
	s.lastUserID = userID
	s.lastAssessmentID = assessmentID
	return s.view, s.err
}

func (s *stubSessionService) Navigate(ctx context.Context, assessmentID uint, req *services.NavigateRequest, userID string) (*services.SessionView, error) {
	s.lastUserID = userID
	s.lastAssessmentID = assessmentID
	return s.view, s.err
}

func (s *stubSessionService) Get(ctx context.Context, assessmentID uint, userID string) (*services.SessionView, error) {
	s.lastUserID = userID
	s.lastAssessmentID = assessmentID
	return s.view, s.err
}

func (s *stubSessionService) Save(ctx context.Context, assessmentID uint, userID string) (*services.SessionView, error) {
	s.lastUserID = userID
	s.lastAssessmentID = assessmentID
	return s.view, s.err
}

func (s *stubSessionService) Submit(ctx context.Context, assessmentID uint, userID string) (*services.SubmitResponse, error) {
	s.lastUserID = userID
	s.lastAssessmentID = assessmentID
	return s.submitResp, s.err
}

func (s *stubSessionService) Abandon(ctx context.Context, assessmentID uint, userID string) error {
	s.lastUserID = userID
	s.lastAssessmentID = assessmentID
	s.abandoned = true
	return s.err
}

func (s *stubSessionService) Shutdown(ctx context.Context) error { return nil }

func testRouter(stub *stubSessionService, authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	if authenticated {
		router.Use(func(c *gin.Context) {
			c.Set("user_id", "user-1")
			c.Next()
		})
	}

	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler := NewSessionHandler(stub, logger)

	router.POST("/sessions/start", handler.StartSession)
	router.GET("/sessions/:assessment_id", handler.GetSession)
	router.POST("/sessions/:assessment_id/answers", handler.RecordAnswer)
	router.POST("/sessions/:assessment_id/navigate", handler.Navigate)
	router.POST("/sessions/:assessment_id/save", handler.SaveSession)
	router.POST("/sessions/:assessment_id/submit", handler.SubmitSession)
	router.DELETE("/sessions/:assessment_id", handler.AbandonSession)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStartSessionReturnsCreated(t *testing.T) {
	stub := &stubSessionService{
		startResp: &services.StartSessionResponse{Session: &services.SessionView{AssessmentID: 7}},
	}
	router := testRouter(stub, true)

	w := doJSON(t, router, http.MethodPost, "/sessions/start", gin.H{"assessment_id": 7})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", w.Code, w.Body.String())
	}
	if stub.lastUserID != "user-1" || stub.lastAssessmentID != 7 {
		t.Errorf("service called with (%q, %d)", stub.lastUserID, stub.lastAssessmentID)
	}
}

func TestStartSessionReturnsPromptWithOK(t *testing.T) {
	stub := &stubSessionService{
		startResp: &services.StartSessionResponse{Prompt: &services.ResumePrompt{
			AssessmentID:       7,
			ProgressPercentage: 40,
			ElapsedSeconds:     95,
		}},
	}
	router := testRouter(stub, true)

	w := doJSON(t, router, http.MethodPost, "/sessions/start", gin.H{"assessment_id": 7})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Data services.ResumePrompt `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.ProgressPercentage != 40 || resp.Data.ElapsedSeconds != 95 {
		t.Errorf("prompt payload = %+v", resp.Data)
	}
}

func TestStartSessionRequiresAuthentication(t *testing.T) {
	stub := &stubSessionService{}
	router := testRouter(stub, false)

	w := doJSON(t, router, http.MethodPost, "/sessions/start", gin.H{"assessment_id": 7})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if stub.lastUserID != "" {
		t.Error("service must not be called for unauthenticated requests")
	}
}

func TestStartSessionRejectsMalformedBody(t *testing.T) {
	router := testRouter(&stubSessionService{}, true)

	req := httptest.NewRequest(http.MethodPost, "/sessions/start", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ownership violation", services.NewPermissionError("user-1", "saved_progress", "resume", "foreign record"), http.StatusForbidden},
		{"session not found", services.ErrSessionNotFound, http.StatusNotFound},
		{"session not active", services.ErrSessionNotActive, http.StatusConflict},
		{"save in progress", services.ErrSaveInProgress, http.StatusConflict},
		{"load failure", services.ErrLoadFailure, http.StatusBadGateway},
		{"save failure", services.ErrSaveFailure, http.StatusBadGateway},
		{"submit failure", services.ErrSubmitFailure, http.StatusBadGateway},
		{"no eligible questions", services.ErrNoEligibleQuestions, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSessionService{err: tt.err}
			router := testRouter(stub, true)

			w := doJSON(t, router, http.MethodPost, "/sessions/start", gin.H{"assessment_id": 7})
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d; body: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestGetSessionParsesPathParam(t *testing.T) {
	stub := &stubSessionService{view: &services.SessionView{AssessmentID: 42}}
	router := testRouter(stub, true)

	w := doJSON(t, router, http.MethodGet, "/sessions/42", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if stub.lastAssessmentID != 42 {
		t.Errorf("assessment id = %d, want 42", stub.lastAssessmentID)
	}
}

func TestInvalidAssessmentIDParam(t *testing.T) {
	router := testRouter(&stubSessionService{}, true)

	for _, path := range []string{"/sessions/abc", "/sessions/0"} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}

func TestNavigateRequiresIndexOrDelta(t *testing.T) {
	stub := &stubSessionService{view: &services.SessionView{}}
	router := testRouter(stub, true)

	w := doJSON(t, router, http.MethodPost, "/sessions/7/navigate", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/sessions/7/navigate", gin.H{"delta": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
}

func TestSubmitSessionReturnsSubmission(t *testing.T) {
	stub := &stubSessionService{
		submitResp: &services.SubmitResponse{SubmissionID: "sub-1", ElapsedSeconds: 120, SubmitReason: "user"},
	}
	router := testRouter(stub, true)

	w := doJSON(t, router, http.MethodPost, "/sessions/7/submit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Data services.SubmitResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.SubmissionID != "sub-1" || resp.Data.SubmitReason != "user" {
		t.Errorf("submit payload = %+v", resp.Data)
	}
}

func TestAbandonSessionReturnsNoContent(t *testing.T) {
	stub := &stubSessionService{}
	router := testRouter(stub, true)

	w := doJSON(t, router, http.MethodDelete, "/sessions/7", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if !stub.abandoned {
		t.Error("abandon not forwarded to the service")
	}
}
