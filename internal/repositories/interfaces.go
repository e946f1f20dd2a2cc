package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/PathwayEdu/session-service/internal/models"
)

// ===== QUESTION BANK =====

// QuestionBankRepository is read-mostly: the engine samples from the full
// catalog; writes only happen through the operator import.
type QuestionBankRepository interface {
	// ListAll returns the full catalog with categories preloaded. Choices are
	// loaded separately per sampled question.
	ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Question, error)
	ListChoices(ctx context.Context, tx *gorm.DB, questionID uint) ([]models.Choice, error)

	// Import support
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
}

// ===== PROGRESS STORE =====

// ProgressRepository persists in-progress snapshots and finalized
// submissions.
type ProgressRepository interface {
	// FindInProgress returns every saved snapshot for a user; callers match on
	// assessment id.
	FindInProgress(ctx context.Context, tx *gorm.DB, userID string) ([]*models.SavedProgress, error)

	// Save upserts the snapshot keyed by (user, assessment).
	Save(ctx context.Context, tx *gorm.DB, progress *models.SavedProgress) error
	DeleteByUserAndAssessment(ctx context.Context, tx *gorm.DB, userID string, assessmentID uint) error

	// SubmitCompleted records the finalized attempt and removes its snapshot.
	SubmitCompleted(ctx context.Context, tx *gorm.DB, submission *models.Submission) error
}

// ===== USERS =====

// UserRepository is read-only; this service does not own user data.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}
