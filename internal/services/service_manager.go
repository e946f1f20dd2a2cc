package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/PathwayEdu/session-service/internal/config"
	"github.com/PathwayEdu/session-service/internal/events"
	"github.com/PathwayEdu/session-service/internal/models"
	"github.com/PathwayEdu/session-service/internal/repositories"
	"github.com/PathwayEdu/session-service/internal/utils"
	"github.com/PathwayEdu/session-service/internal/validator"
)

// serviceManager implements ServiceManager.
type serviceManager struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	clock     utils.Clock
	quota     models.QuotaTable
	cfg       config.SessionConfig

	sessionService    SessionService
	bankImportService BankImportService

	mu          sync.Mutex
	initialized bool
}

func NewDefaultServiceManager(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	publisher events.EventPublisher,
	clock utils.Clock,
	quota models.QuotaTable,
	cfg config.SessionConfig,
) ServiceManager {
	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		clock:     clock,
		quota:     quota,
		cfg:       cfg,
	}
}

func (sm *serviceManager) Initialize(_ context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	// The quota table is static configuration; a bad table is a deploy
	// error, caught here rather than on the first session start.
	if err := sm.validator.ValidateQuotaTable(sm.quota); err != nil {
		return fmt.Errorf("invalid quota table: %w", err)
	}

	sm.sessionService = NewSessionService(sm.repo, sm.logger, sm.validator, sm.publisher, sm.clock, sm.quota, sm.cfg)
	sm.logger.Info("Session service initialized", "quota_cells", len(sm.quota))

	sm.bankImportService = NewBankImportService(sm.repo, sm.logger, sm.validator)
	sm.logger.Info("Bank import service initialized")

	sm.initialized = true
	return nil
}

func (sm *serviceManager) Session() SessionService {
	return sm.sessionService
}

func (sm *serviceManager) BankImport() BankImportService {
	return sm.bankImportService
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	if !sm.initialized {
		return fmt.Errorf("services not initialized")
	}
	return sm.repo.Ping(ctx)
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.sessionService != nil {
		if err := sm.sessionService.Shutdown(ctx); err != nil {
			return err
		}
	}
	if sm.publisher != nil {
		return sm.publisher.Close()
	}
	return nil
}
