package events

import "time"

type SessionEventType string

const (
	SessionStarted         SessionEventType = "session.started"
	SessionResumed         SessionEventType = "session.resumed"
	SessionSaved           SessionEventType = "session.saved"
	SessionSubmitted       SessionEventType = "session.submitted"
	SessionDeadlineExpired SessionEventType = "session.deadline_expired"
	SessionAbandoned       SessionEventType = "session.abandoned"
)

// SessionEvent is the lifecycle record published for downstream consumers
// (dashboards, notification service). It never carries answer content.
type SessionEvent struct {
	Type         SessionEventType `json:"type"`
	UserID       string           `json:"user_id"`
	AssessmentID uint             `json:"assessment_id"`
	SubmissionID string           `json:"submission_id,omitempty"`
	Progress     int              `json:"progress,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}
