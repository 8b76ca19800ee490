package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/itas-team/itas/internal/domain"
)

type tasksRepo struct {
	q querier
}

const taskColumns = `id, user_id, title, description, status, deadline, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*domain.Task, error) {
	var (
		t        domain.Task
		status   string
		deadline sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &status, &deadline, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.Deadline = mapNullTime(deadline)
	return &t, nil
}

func (r *tasksRepo) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Description, string(t.Status), mapTimeNull(t.Deadline), t.CreatedAt, t.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *tasksRepo) GetByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	t, err := scanTask(r.q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return t, nil
}

func (r *tasksRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Task, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *tasksRepo) Update(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.Deadline != nil {
		sets = append(sets, "deadline = ?")
		args = append(args, mapTimeNull(*patch.Deadline))
	}

	args = append(args, id, userID)
	res, err := r.q.ExecContext(ctx,
		`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, mapNotFound(sql.ErrNoRows)
	}

	return r.GetByID(ctx, userID, id)
}

func (r *tasksRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func (r *tasksRepo) CountByUser(ctx context.Context, userID string) (domain.Summary, error) {
	var s domain.Summary
	err := r.q.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(status = 'pending'), 0),
			COALESCE(SUM(status = 'in_review'), 0),
			COALESCE(SUM(status = 'done'), 0)
		FROM tasks WHERE user_id = ?`, userID).
		Scan(&s.Total, &s.Pending, &s.InReview, &s.Done)
	if err != nil {
		return domain.Summary{}, err
	}
	return s.Scored(), nil
}

// ownsTask resolves the task under the given owner; every log operation
// goes through it.
func (r *tasksRepo) ownsTask(ctx context.Context, userID, taskID string) error {
	var one int
	err := r.q.QueryRowContext(ctx,
		`SELECT 1 FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID).Scan(&one)
	return mapNotFound(err)
}

func (r *tasksRepo) AddLog(ctx context.Context, userID string, l *domain.TaskLog) error {
	if err := r.ownsTask(ctx, userID, l.TaskID); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO task_logs (id, task_id, author, log_text, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.TaskID, l.Author, l.Text, l.CreatedAt,
	)
	return mapConflict(err)
}

func (r *tasksRepo) ListLogs(ctx context.Context, userID, taskID string) ([]*domain.TaskLog, error) {
	if err := r.ownsTask(ctx, userID, taskID); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, task_id, author, log_text, created_at FROM task_logs
		WHERE task_id = ? ORDER BY created_at`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.TaskLog
	for rows.Next() {
		var l domain.TaskLog
		if err := rows.Scan(&l.ID, &l.TaskID, &l.Author, &l.Text, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

func (r *tasksRepo) DeleteLog(ctx context.Context, userID, taskID, logID string) error {
	if err := r.ownsTask(ctx, userID, taskID); err != nil {
		return err
	}

	res, err := r.q.ExecContext(ctx,
		`DELETE FROM task_logs WHERE id = ? AND task_id = ?`, logID, taskID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
