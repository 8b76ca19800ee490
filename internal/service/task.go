package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/itas-team/itas/internal/domain"
	"github.com/itas-team/itas/internal/store"
	"github.com/itas-team/itas/pkg/idx"
)

// TaskService owns task CRUD. Every operation is scoped to the calling
// user; there is no way to reach another user's tasks through it.
type TaskService struct {
	Store store.Store
}

type TaskInput struct {
	Title       string
	Description string
	Status      string
	Deadline    time.Time
}

func (s *TaskService) Create(ctx context.Context, userID string, in TaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	status := domain.TaskPending
	if in.Status != "" {
		parsed, err := domain.ParseTaskStatus(in.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		status = parsed
	}

	now := time.Now().UTC()
	t := &domain.Task{
		ID:          idx.New().String(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		Deadline:    in.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Tasks().Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	return s.Store.Tasks().GetByID(ctx, userID, id)
}

func (s *TaskService) List(ctx context.Context, userID string) ([]*domain.Task, error) {
	return s.Store.Tasks().ListByUser(ctx, userID)
}

type TaskUpdateInput struct {
	Title       *string
	Description *string
	Status      *string
}

func (s *TaskService) Update(ctx context.Context, userID, id string, in TaskUpdateInput) (*domain.Task, error) {
	patch := domain.TaskPatch{
		Description: in.Description,
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		patch.Title = &title
	}
	if in.Status != nil {
		status, err := domain.ParseTaskStatus(*in.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		patch.Status = &status
	}

	return s.Store.Tasks().Update(ctx, userID, id, patch)
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	return s.Store.Tasks().Delete(ctx, userID, id)
}

// UpdateStatus moves a task through the workflow and records the
// transition as a task log.
func (s *TaskService) UpdateStatus(ctx context.Context, userID, id, status, author string) (*domain.Task, error) {
	parsed, err := domain.ParseTaskStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	t, err := s.Store.Tasks().Update(ctx, userID, id, domain.TaskPatch{Status: &parsed})
	if err != nil {
		return nil, err
	}

	_ = s.Store.Tasks().AddLog(ctx, userID, &domain.TaskLog{
		ID:        idx.New().String(),
		TaskID:    id,
		Author:    author,
		Text:      "status changed to " + status,
		CreatedAt: time.Now().UTC(),
	})
	return t, nil
}

func (s *TaskService) AddLog(ctx context.Context, userID, taskID, author, text string) (*domain.TaskLog, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}

	l := &domain.TaskLog{
		ID:        idx.New().String(),
		TaskID:    taskID,
		Author:    author,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Tasks().AddLog(ctx, userID, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *TaskService) ListLogs(ctx context.Context, userID, taskID string) ([]*domain.TaskLog, error) {
	return s.Store.Tasks().ListLogs(ctx, userID, taskID)
}

func (s *TaskService) DeleteLog(ctx context.Context, userID, taskID, logID string) error {
	return s.Store.Tasks().DeleteLog(ctx, userID, taskID, logID)
}

// Summary returns per-status counts and the progress score.
func (s *TaskService) Summary(ctx context.Context, userID string) (domain.Summary, error) {
	return s.Store.Tasks().CountByUser(ctx, userID)
}

// Starter tasks created for every new account so the board is not empty
// on first login.
var starterTasks = []TaskInput{
	{Title: "Complete your profile", Description: "Fill in your display name and check your contact details."},
	{Title: "Enable two-factor authentication", Description: "You can't use the rest of the app until this is done."},
	{Title: "Create your first task", Description: "Add something you're actually working on."},
}

// SeedStarterTasks inserts the starter tasks for a new user.
func (s *TaskService) SeedStarterTasks(ctx context.Context, userID string) error {
	return s.Store.WithTx(ctx, func(tx store.Store) error {
		now := time.Now().UTC()
		for _, in := range starterTasks {
			t := &domain.Task{
				ID:          idx.New().String(),
				UserID:      userID,
				Title:       in.Title,
				Description: in.Description,
				Status:      domain.TaskPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Tasks().Create(ctx, t); err != nil {
				return err
			}
			if err := tx.Tasks().AddLog(ctx, userID, &domain.TaskLog{
				ID:        idx.New().String(),
				TaskID:    t.ID,
				Author:    "system",
				Text:      "task created",
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
