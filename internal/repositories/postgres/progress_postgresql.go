package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/PathwayEdu/session-service/internal/cache"
	"github.com/PathwayEdu/session-service/internal/models"
	"github.com/PathwayEdu/session-service/internal/repositories"
)

type ProgressPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewProgressPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

func (p *ProgressPostgreSQL) FindInProgress(ctx context.Context, tx *gorm.DB, userID string) ([]*models.SavedProgress, error) {
	db := p.getDB(tx)

	var progress []*models.SavedProgress
	cacheKey := fmt.Sprintf("user:%s", userID)
	err := p.cacheManager.Progress.CacheOrExecute(ctx, cacheKey, &progress, cache.ProgressCacheConfig.TTL, func() (interface{}, error) {
		var rows []*models.SavedProgress
		if err := db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("updated_at DESC").
			Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to find in-progress sessions: %w", err)
		}
		return rows, nil
	})

	return progress, err
}

// Save upserts on the (user, assessment) unique key so repeated saves of one
// attempt keep a single row.
func (p *ProgressPostgreSQL) Save(ctx context.Context, tx *gorm.DB, progress *models.SavedProgress) error {
	db := p.getDB(tx)

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "assessment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_section_index",
			"progress_percentage",
			"elapsed_seconds",
			"answers",
			"sections",
			"updated_at",
		}),
	}).Create(progress).Error
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}

	cache.InvalidateProgressCache(ctx, p.cacheManager, progress.UserID)
	return nil
}

func (p *ProgressPostgreSQL) DeleteByUserAndAssessment(ctx context.Context, tx *gorm.DB, userID string, assessmentID uint) error {
	db := p.getDB(tx)

	result := db.WithContext(ctx).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		Delete(&models.SavedProgress{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete saved progress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateProgressCache(ctx, p.cacheManager, userID)
	return nil
}

// SubmitCompleted writes the submission with its answers and drops the
// snapshot in one transaction.
func (p *ProgressPostgreSQL) SubmitCompleted(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	db := p.getDB(tx)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(submission).Error; err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}
		if err := tx.
			Where("user_id = ? AND assessment_id = ?", submission.UserID, submission.AssessmentID).
			Delete(&models.SavedProgress{}).Error; err != nil {
			return fmt.Errorf("failed to remove saved progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateProgressCache(ctx, p.cacheManager, submission.UserID)
	return nil
}
