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

// DailyLogService owns the work journal. Owner-scoped like tasks.
type DailyLogService struct {
	Store store.Store
}

type DailyLogInput struct {
	Date    string // YYYY-MM-DD, defaults to today
	Content string
}

func (s *DailyLogService) Create(ctx context.Context, userID string, in DailyLogInput) (*domain.DailyLog, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	date := in.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if !domain.ValidLogDate(date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	now := time.Now().UTC()
	l := &domain.DailyLog{
		ID:        idx.New().String(),
		UserID:    userID,
		Date:      date,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.DailyLogs().Create(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create daily log: %w", err)
	}
	return l, nil
}

func (s *DailyLogService) Get(ctx context.Context, userID, id string) (*domain.DailyLog, error) {
	return s.Store.DailyLogs().GetByID(ctx, userID, id)
}

func (s *DailyLogService) List(ctx context.Context, userID string) ([]*domain.DailyLog, error) {
	return s.Store.DailyLogs().ListByUser(ctx, userID)
}

type DailyLogUpdateInput struct {
	Date    *string
	Content *string
}

func (s *DailyLogService) Update(ctx context.Context, userID, id string, in DailyLogUpdateInput) (*domain.DailyLog, error) {
	patch := domain.DailyLogPatch{}

	if in.Date != nil {
		if !domain.ValidLogDate(*in.Date) {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
		patch.Date = in.Date
	}
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", ErrValidation)
		}
		patch.Content = &content
	}

	return s.Store.DailyLogs().Update(ctx, userID, id, patch)
}

func (s *DailyLogService) Delete(ctx context.Context, userID, id string) error {
	return s.Store.DailyLogs().Delete(ctx, userID, id)
}
