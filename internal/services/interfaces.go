package services

import (
	"context"
	"io"

	"github.com/PathwayEdu/session-service/internal/models"
)

// ===== SESSION RELATED DTOs =====

type StartSessionRequest struct {
	AssessmentID uint `json:"assessment_id" validate:"required"`
	// Resume is the caller's answer to "continue where you left off?".
	// nil means not asked yet: when a snapshot exists the engine reports it
	// and waits for an explicit decision; false builds fresh without touching
	// the snapshot.
	Resume *bool `json:"resume"`
}

type RecordAnswerRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Value      string `json:"value" validate:"answer_value"`
}

type NavigateRequest struct {
	// Exactly one of SectionIndex (jump) or Delta (step) is set.
	SectionIndex *int `json:"section_index" validate:"omitempty,min=0"`
	Delta        *int `json:"delta"`
}

// ResumePrompt is returned when a snapshot exists and no decision was given.
// It deliberately carries no answers or sections.
type ResumePrompt struct {
	AssessmentID       uint `json:"assessment_id"`
	ProgressPercentage int  `json:"progress_percentage"`
	ElapsedSeconds     int  `json:"elapsed_seconds"`
}

type SectionView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Questions   int    `json:"questions"`
	Completion  int    `json:"completion"`
}

// SessionView is the read model handed to the UI after every operation.
type SessionView struct {
	AssessmentID        uint                 `json:"assessment_id"`
	Status              models.SessionStatus `json:"status"`
	Resumed             bool                 `json:"resumed"`
	CurrentSectionIndex int                  `json:"current_section_index"`
	CurrentSection      *models.Section      `json:"current_section,omitempty"`
	Sections            []SectionView        `json:"sections"`
	Answers             models.AnswerMap     `json:"answers"`
	Answered            int                  `json:"answered"`
	Total               int                  `json:"total"`
	ProgressPercentage  int                  `json:"progress_percentage"`
	ElapsedSeconds      int                  `json:"elapsed_seconds"`
	// RemainingSeconds is -1 when no deadline is configured.
	RemainingSeconds int `json:"remaining_seconds"`
}

type StartSessionResponse struct {
	// Exactly one of Prompt or Session is set.
	Prompt  *ResumePrompt `json:"prompt,omitempty"`
	Session *SessionView  `json:"session,omitempty"`
}

type SubmitResponse struct {
	SubmissionID   string `json:"submission_id"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	SubmitReason   string `json:"submit_reason"`
}

// ===== IMPORT RELATED DTOs =====

type ImportResult struct {
	QuestionsImported int      `json:"questions_imported"`
	RowsSkipped       int      `json:"rows_skipped"`
	Warnings          []string `json:"warnings,omitempty"`
}

// ===== SERVICE INTERFACES =====

// SessionService is the orchestrator surface. One in-memory session exists
// per (user, assessment) at a time; all operations are keyed on that pair.
type SessionService interface {
	Start(ctx context.Context, req *StartSessionRequest, userID string) (*StartSessionResponse, error)
	RecordAnswer(ctx context.Context, assessmentID uint, req *RecordAnswerRequest, userID string) (*SessionView, error)
	Navigate(ctx context.Context, assessmentID uint, req *NavigateRequest, userID string) (*SessionView, error)
	Get(ctx context.Context, assessmentID uint, userID string) (*SessionView, error)
	Save(ctx context.Context, assessmentID uint, userID string) (*SessionView, error)
	Submit(ctx context.Context, assessmentID uint, userID string) (*SubmitResponse, error)
	Abandon(ctx context.Context, assessmentID uint, userID string) error

	// Shutdown stops every live ticker.
	Shutdown(ctx context.Context) error
}

// BankImportService loads operator-provided question workbooks into the bank.
type BankImportService interface {
	ImportQuestions(ctx context.Context, r io.Reader, userID string) (*ImportResult, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Session() SessionService
	BankImport() BankImportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
