// Package store defines the persistence boundary. Services depend on
// these interfaces only; drivers live under store/drivers.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/itas-team/itas/internal/domain"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists is returned on unique constraint violations.
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root persistence handle.
type Store interface {
	Users() UserRepo
	Tasks() TaskRepo
	DailyLogs() DailyLogRepo

	// WithTx runs fn inside a transaction. The Store passed to fn is
	// scoped to that transaction; returning an error rolls back.
	WithTx(ctx context.Context, fn func(Store) error) error

	Ping(ctx context.Context) error
	Close() error
}

// Migrator is implemented by drivers that manage their own schema.
type Migrator interface {
	ApplyMigrations() error
}

// UserRepo persists account records.
type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)

	// Update applies the patch and returns the stored row as persisted.
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)

	// ListPendingRoleRequests returns users with an unapproved role request.
	ListPendingRoleRequests(ctx context.Context) ([]*domain.User, error)

	// PurgeExpiredResetTokens clears reset tokens that expired before now
	// and reports how many rows were touched.
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// TaskRepo persists tasks. All reads and writes are owner-scoped.
type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, userID, id string) (*domain.Task, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Task, error)
	Update(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, userID, id string) error

	// CountByUser returns per-status counts for the summary endpoint.
	CountByUser(ctx context.Context, userID string) (domain.Summary, error)

	// Task logs are reached through the owning task, so every call is
	// still owner-scoped.
	AddLog(ctx context.Context, userID string, l *domain.TaskLog) error
	ListLogs(ctx context.Context, userID, taskID string) ([]*domain.TaskLog, error)
	DeleteLog(ctx context.Context, userID, taskID, logID string) error
}

// DailyLogRepo persists daily log entries. All reads and writes are
// owner-scoped.
type DailyLogRepo interface {
	Create(ctx context.Context, l *domain.DailyLog) error
	GetByID(ctx context.Context, userID, id string) (*domain.DailyLog, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.DailyLog, error)
	Update(ctx context.Context, userID, id string, patch domain.DailyLogPatch) (*domain.DailyLog, error)
	Delete(ctx context.Context, userID, id string) error
}
