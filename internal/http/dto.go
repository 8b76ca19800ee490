package http

import (
	"time"

	"github.com/itas-team/itas/internal/domain"
)

type userResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	RequestedRole      string    `json:"requested_role,omitempty"`
	Approved           bool      `json:"approved"`
	TwoFAEnabled       bool      `json:"twofa_enabled"`
	TwoFASetupRequired bool      `json:"twofa_setup_required"`
	CreatedAt          time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Role:               u.Role.String(),
		RequestedRole:      u.RequestedRole.String(),
		Approved:           u.Approved,
		TwoFAEnabled:       u.TwoFAEnabled,
		TwoFASetupRequired: u.TwoFASetupRequired,
		CreatedAt:          u.CreatedAt,
	}
}

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toTaskResponse(t *domain.Task) taskResponse {
	resp := taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if !t.Deadline.IsZero() {
		deadline := t.Deadline
		resp.Deadline = &deadline
	}
	return resp
}

func toTaskResponses(tasks []*domain.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}

type taskLogResponse struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func toTaskLogResponses(logs []*domain.TaskLog) []taskLogResponse {
	out := make([]taskLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, taskLogResponse{
			ID: l.ID, TaskID: l.TaskID, Author: l.Author, Text: l.Text, CreatedAt: l.CreatedAt,
		})
	}
	return out
}

type dailyLogResponse struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toDailyLogResponse(l *domain.DailyLog) dailyLogResponse {
	return dailyLogResponse{
		ID: l.ID, Date: l.Date, Content: l.Content,
		CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt,
	}
}

func toDailyLogResponses(logs []*domain.DailyLog) []dailyLogResponse {
	out := make([]dailyLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, toDailyLogResponse(l))
	}
	return out
}
