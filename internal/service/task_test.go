package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/itas-team/itas/internal/domain"
	"github.com/itas-team/itas/internal/store"
	"github.com/itas-team/itas/pkg/slogx"
)

func TestTaskService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create defaults to pending", func(t *testing.T) {
		svc := &TaskService{Store: newMemStore()}

		task, err := svc.Create(ctx, "u-1", TaskInput{Title: "  build the thing  "})
		require.NoError(t, err)
		require.Equal(t, "build the thing", task.Title)
		require.Equal(t, domain.TaskPending, task.Status)
	})

	t.Run("validation", func(t *testing.T) {
		svc := &TaskService{Store: newMemStore()}

		_, err := svc.Create(ctx, "u-1", TaskInput{Title: "   "})
		require.ErrorIs(t, err, ErrValidation)

		_, err = svc.Create(ctx, "u-1", TaskInput{Title: "x", Status: "finished"})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("ownership is enforced", func(t *testing.T) {
		svc := &TaskService{Store: newMemStore()}

		task, err := svc.Create(ctx, "u-1", TaskInput{Title: "mine"})
		require.NoError(t, err)

		_, err = svc.Get(ctx, "u-2", task.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		err = svc.Delete(ctx, "u-2", task.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("summary scores done and in_review", func(t *testing.T) {
		svc := &TaskService{Store: newMemStore()}

		for _, status := range []string{"done", "done", "in_review", "pending"} {
			_, err := svc.Create(ctx, "u-1", TaskInput{Title: "t", Status: status})
			require.NoError(t, err)
		}

		sum, err := svc.Summary(ctx, "u-1")
		require.NoError(t, err)
		require.Equal(t, 4, sum.Total)
		require.Equal(t, 25, sum.Score)
	})

	t.Run("status change records a task log", func(t *testing.T) {
		svc := &TaskService{Store: newMemStore()}

		task, err := svc.Create(ctx, "u-1", TaskInput{Title: "t"})
		require.NoError(t, err)

		got, err := svc.UpdateStatus(ctx, "u-1", task.ID, "done", "Alice")
		require.NoError(t, err)
		require.Equal(t, domain.TaskDone, got.Status)

		logs, err := svc.ListLogs(ctx, "u-1", task.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		require.Equal(t, "status changed to done", logs[0].Text)
		require.Equal(t, "Alice", logs[0].Author)
	})

	t.Run("task logs are owner scoped", func(t *testing.T) {
		svc := &TaskService{Store: newMemStore()}

		task, err := svc.Create(ctx, "u-1", TaskInput{Title: "t"})
		require.NoError(t, err)

		l, err := svc.AddLog(ctx, "u-1", task.ID, "Alice", "made progress")
		require.NoError(t, err)

		_, err = svc.ListLogs(ctx, "u-2", task.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		err = svc.DeleteLog(ctx, "u-2", task.ID, l.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, svc.DeleteLog(ctx, "u-1", task.ID, l.ID))
	})

	t.Run("update transitions status", func(t *testing.T) {
		svc := &TaskService{Store: newMemStore()}

		task, err := svc.Create(ctx, "u-1", TaskInput{Title: "t"})
		require.NoError(t, err)

		got, err := svc.Update(ctx, "u-1", task.ID, TaskUpdateInput{
			Status: domain.Ptr("in_review"),
		})
		require.NoError(t, err)
		require.Equal(t, domain.TaskInReview, got.Status)
	})
}

func TestDailyLogService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("date defaults to today", func(t *testing.T) {
		svc := &DailyLogService{Store: newMemStore()}

		l, err := svc.Create(ctx, "u-1", DailyLogInput{Content: "stood up the dev env"})
		require.NoError(t, err)
		require.Equal(t, time.Now().UTC().Format("2006-01-02"), l.Date)
	})

	t.Run("bad date rejected", func(t *testing.T) {
		svc := &DailyLogService{Store: newMemStore()}

		_, err := svc.Create(ctx, "u-1", DailyLogInput{Content: "x", Date: "29/08/2026"})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("ownership is enforced", func(t *testing.T) {
		svc := &DailyLogService{Store: newMemStore()}

		l, err := svc.Create(ctx, "u-1", DailyLogInput{Content: "mine"})
		require.NoError(t, err)

		_, err = svc.Get(ctx, "u-2", l.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestHousekeepingPurgesExpiredTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newMemStore()
	u := &domain.User{
		ID: "u-1", Name: "X", Email: "x@example.com",
		PasswordHash: "h", Role: domain.RoleClient,
		ResetToken:    "stale",
		ResetTokenExp: time.Now().UTC().Add(-time.Hour),
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, st.Users().Create(ctx, u))

	hk := NewHousekeepingService(st, slogx.Discard(), time.Hour)
	hk.Start()
	hk.Stop()

	got, err := st.Users().GetByID(ctx, "u-1")
	require.NoError(t, err)
	require.Empty(t, got.ResetToken)
}
