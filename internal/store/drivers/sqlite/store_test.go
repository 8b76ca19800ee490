package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/itas-team/itas/internal/domain"
	"github.com/itas-team/itas/internal/store"
	"github.com/itas-team/itas/internal/store/drivers/sqlite"
	"github.com/itas-team/itas/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "itas_test.db")
	s, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newTestUser(t *testing.T, s *sqlite.Store, email string) *domain.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	u := &domain.User{
		ID:           idx.New().String(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$argon2id$fake",
		Role:         domain.RoleClient,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestUsersCRUD(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice@example.com")

	t.Run("get by id and email", func(t *testing.T) {
		got, err := s.Users().GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, got.Email)
		require.Equal(t, domain.RoleClient, got.Role)
		require.False(t, got.TwoFAEnabled)

		got, err = s.Users().GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		dup := &domain.User{
			ID:           idx.New().String(),
			Name:         "Other",
			Email:        "alice@example.com",
			PasswordHash: "x",
			Role:         domain.RoleClient,
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		}
		err := s.Users().Create(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := s.Users().GetByID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("patch update returns stored row", func(t *testing.T) {
		got, err := s.Users().Update(ctx, u.ID, domain.UserPatch{
			TwoFAEnabled: domain.Ptr(true),
			TwoFASecret:  domain.Ptr("JBSWY3DPEHPK3PXP"),
		})
		require.NoError(t, err)
		require.True(t, got.TwoFAEnabled)
		require.Equal(t, "JBSWY3DPEHPK3PXP", got.TwoFASecret)
		require.Equal(t, u.Email, got.Email) // untouched fields survive
	})

	t.Run("patch can null out fields", func(t *testing.T) {
		got, err := s.Users().Update(ctx, u.ID, domain.UserPatch{
			TwoFASetupTemp: domain.Ptr(""),
		})
		require.NoError(t, err)
		require.Empty(t, got.TwoFASetupTemp)
	})

	t.Run("update missing user", func(t *testing.T) {
		_, err := s.Users().Update(ctx, "nope", domain.UserPatch{Name: domain.Ptr("x")})
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestResetTokens(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "bob@example.com")

	exp := time.Now().UTC().Add(15 * time.Minute).Truncate(time.Second)
	_, err := s.Users().Update(ctx, u.ID, domain.UserPatch{
		ResetToken:    domain.Ptr("deadbeef"),
		ResetTokenExp: domain.Ptr(exp),
	})
	require.NoError(t, err)

	got, err := s.Users().GetByResetToken(ctx, "deadbeef")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = s.Users().GetByResetToken(ctx, "wrong")
	require.ErrorIs(t, err, store.ErrNotFound)

	t.Run("purge clears only expired tokens", func(t *testing.T) {
		n, err := s.Users().PurgeExpiredResetTokens(ctx, time.Now().UTC())
		require.NoError(t, err)
		require.Zero(t, n)

		n, err = s.Users().PurgeExpiredResetTokens(ctx, exp.Add(time.Minute))
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		_, err = s.Users().GetByResetToken(ctx, "deadbeef")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestPendingRoleRequests(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	pending := newTestUser(t, s, "pending@example.com")
	newTestUser(t, s, "plain@example.com")

	_, err := s.Users().Update(ctx, pending.ID, domain.UserPatch{
		RequestedRole: domain.Ptr(domain.RoleDeveloper),
	})
	require.NoError(t, err)

	users, err := s.Users().ListPendingRoleRequests(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, pending.ID, users[0].ID)
	require.Equal(t, domain.RoleDeveloper, users[0].RequestedRole)
}

func TestTasksOwnershipAndSummary(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	alice := newTestUser(t, s, "a@example.com")
	bob := newTestUser(t, s, "b@example.com")

	mk := func(userID string, status domain.TaskStatus) *domain.Task {
		now := time.Now().UTC().Truncate(time.Second)
		task := &domain.Task{
			ID:        idx.New().String(),
			UserID:    userID,
			Title:     "task",
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, s.Tasks().Create(ctx, task))
		return task
	}

	t1 := mk(alice.ID, domain.TaskPending)
	mk(alice.ID, domain.TaskDone)
	mk(alice.ID, domain.TaskDone)
	mk(alice.ID, domain.TaskInReview)
	mk(bob.ID, domain.TaskPending)

	t.Run("list is owner scoped", func(t *testing.T) {
		tasks, err := s.Tasks().ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, tasks, 4)
	})

	t.Run("cross-user access is not found", func(t *testing.T) {
		_, err := s.Tasks().GetByID(ctx, bob.ID, t1.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Tasks().Update(ctx, bob.ID, t1.ID, domain.TaskPatch{
			Status: domain.Ptr(domain.TaskDone),
		})
		require.ErrorIs(t, err, store.ErrNotFound)

		err = s.Tasks().Delete(ctx, bob.ID, t1.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("summary score weights done over in_review", func(t *testing.T) {
		sum, err := s.Tasks().CountByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, 4, sum.Total)
		require.Equal(t, 1, sum.Pending)
		require.Equal(t, 1, sum.InReview)
		require.Equal(t, 2, sum.Done)
		require.Equal(t, 2*10+1*5, sum.Score)
	})

	t.Run("task logs follow task ownership", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		l := &domain.TaskLog{
			ID:        idx.New().String(),
			TaskID:    t1.ID,
			Author:    "alice",
			Text:      "looked into it",
			CreatedAt: now,
		}
		require.NoError(t, s.Tasks().AddLog(ctx, alice.ID, l))

		err := s.Tasks().AddLog(ctx, bob.ID, &domain.TaskLog{
			ID: idx.New().String(), TaskID: t1.ID, Author: "bob", Text: "x", CreatedAt: now,
		})
		require.ErrorIs(t, err, store.ErrNotFound)

		logs, err := s.Tasks().ListLogs(ctx, alice.ID, t1.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		require.Equal(t, "looked into it", logs[0].Text)

		require.NoError(t, s.Tasks().DeleteLog(ctx, alice.ID, t1.ID, l.ID))
		err = s.Tasks().DeleteLog(ctx, alice.ID, t1.ID, l.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update status", func(t *testing.T) {
		got, err := s.Tasks().Update(ctx, alice.ID, t1.ID, domain.TaskPatch{
			Status: domain.Ptr(domain.TaskInReview),
		})
		require.NoError(t, err)
		require.Equal(t, domain.TaskInReview, got.Status)
		require.Equal(t, "task", got.Title)
	})
}

func TestDailyLogs(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "logs@example.com")
	now := time.Now().UTC().Truncate(time.Second)

	l := &domain.DailyLog{
		ID:        idx.New().String(),
		UserID:    u.ID,
		Date:      "2026-08-28",
		Content:   "wired up the reports page",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.DailyLogs().Create(ctx, l))

	got, err := s.DailyLogs().GetByID(ctx, u.ID, l.ID)
	require.NoError(t, err)
	require.Equal(t, l.Content, got.Content)

	got, err = s.DailyLogs().Update(ctx, u.ID, l.ID, domain.DailyLogPatch{
		Content: domain.Ptr("rewrote the reports page"),
	})
	require.NoError(t, err)
	require.Equal(t, "rewrote the reports page", got.Content)
	require.Equal(t, "2026-08-28", got.Date)

	require.NoError(t, s.DailyLogs().Delete(ctx, u.ID, l.ID))
	_, err = s.DailyLogs().GetByID(ctx, u.ID, l.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Store) error {
		now := time.Now().UTC()
		if err := tx.Users().Create(ctx, &domain.User{
			ID: idx.New().String(), Name: "tx", Email: "tx@example.com",
			PasswordHash: "x", Role: domain.RoleClient,
			CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetByEmail(ctx, "tx@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}
