package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionIdle       SessionStatus = "idle"
	SessionLoading    SessionStatus = "loading"
	SessionResuming   SessionStatus = "resuming"
	SessionFresh      SessionStatus = "fresh"
	SessionActive     SessionStatus = "active"
	SessionSaving     SessionStatus = "saving"
	SessionSubmitting SessionStatus = "submitting"
	SessionTerminal   SessionStatus = "terminal"
)

const (
	SubmitReasonUser    = "user"
	SubmitReasonTimeout = "time_out"
)

// Section is an ordered, named group of sampled questions. Once built for an
// attempt its question list and order are frozen; resume restores the exact
// snapshot rather than re-sampling.
type Section struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// AnswerMap maps questionId -> raw answer value (choice id or Likert scale
// value). The engine treats any non-empty value as "answered"; shape
// validation is the caller's concern.
type AnswerMap map[uint]string

// SavedProgress is the persisted snapshot of a partially completed attempt,
// keyed by (user, assessment). Sections and answers are stored as JSON blobs
// so resume reconstructs the identical sampled questions in identical order.
type SavedProgress struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	UserID       string `json:"user_id" gorm:"not null;index;size:255;uniqueIndex:idx_user_assessment"`
	AssessmentID uint   `json:"assessment_id" gorm:"not null;index;uniqueIndex:idx_user_assessment"`

	CurrentSectionIndex int `json:"current_section_index"`
	ProgressPercentage  int `json:"progress_percentage"`
	ElapsedSeconds      int `json:"elapsed_seconds"`

	Answers  datatypes.JSON `json:"answers" gorm:"type:jsonb"`
	Sections datatypes.JSON `json:"sections" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (SavedProgress) TableName() string {
	return "saved_progress"
}

// Submission is the finalized attempt row created by submitCompleted. Scoring
// happens elsewhere; this service only records the payload and hands back the
// id.
type Submission struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	UserID       string `json:"user_id" gorm:"not null;index;size:255"`
	AssessmentID uint   `json:"assessment_id" gorm:"not null;index"`

	ElapsedSeconds int    `json:"elapsed_seconds"`
	SubmitReason   string `json:"submit_reason" gorm:"size:32;default:user"`

	Sections datatypes.JSON `json:"sections" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`

	Answers []SubmissionAnswer `json:"answers" gorm:"foreignKey:SubmissionID"`
}

func (Submission) TableName() string {
	return "submissions"
}

type SubmissionAnswer struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	SubmissionID string `json:"submission_id" gorm:"not null;index;size:36"`
	QuestionID   uint   `json:"question_id" gorm:"not null;index"`
	Value        string `json:"value" gorm:"type:text;not null"`

	CreatedAt time.Time `json:"created_at"`
}
