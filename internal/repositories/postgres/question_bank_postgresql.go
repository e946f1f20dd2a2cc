package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/PathwayEdu/session-service/internal/cache"
	"github.com/PathwayEdu/session-service/internal/models"
	"github.com/PathwayEdu/session-service/internal/repositories"
)

type QuestionBankPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionBankPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.QuestionBankRepository {
	return &QuestionBankPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (q *QuestionBankPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionBankPostgreSQL) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Question, error) {
	db := q.getDB(tx)

	// The full catalog is read on every fresh build; cache it whole.
	var questions []*models.Question
	err := q.cacheManager.Bank.CacheOrExecute(ctx, "all", &questions, cache.BankCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestions []*models.Question
		if err := db.WithContext(ctx).
			Preload("Category").
			Preload("Choices", func(db *gorm.DB) *gorm.DB {
				return db.Order("choices.\"order\" ASC, choices.id ASC")
			}).
			Order("questions.id ASC").
			Find(&dbQuestions).Error; err != nil {
			return nil, fmt.Errorf("failed to list questions: %w", err)
		}
		return dbQuestions, nil
	})

	return questions, err
}

func (q *QuestionBankPostgreSQL) ListChoices(ctx context.Context, tx *gorm.DB, questionID uint) ([]models.Choice, error) {
	db := q.getDB(tx)

	var choices []models.Choice
	if err := db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("\"order\" ASC, id ASC").
		Find(&choices).Error; err != nil {
		return nil, fmt.Errorf("failed to list choices: %w", err)
	}
	return choices, nil
}

func (q *QuestionBankPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	db := q.getDB(tx)

	if err := db.WithContext(ctx).Create(&questions).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}

	cache.InvalidateBankCache(ctx, q.cacheManager)
	return nil
}
