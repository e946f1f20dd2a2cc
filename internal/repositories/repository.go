package repositories

import "context"

// Repository aggregates the service's data access boundaries. The question
// bank and progress store are the engine's two external collaborators; users
// resolve through the identity provider.
type Repository interface {
	QuestionBank() QuestionBankRepository
	Progress() ProgressRepository
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
