package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/itas-team/itas/internal/domain"
)

type dailyLogsRepo struct {
	q querier
}

const dailyLogColumns = `id, user_id, log_date, content, created_at, updated_at`

func scanDailyLog(row interface{ Scan(...any) error }) (*domain.DailyLog, error) {
	var l domain.DailyLog
	err := row.Scan(&l.ID, &l.UserID, &l.Date, &l.Content, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *dailyLogsRepo) Create(ctx context.Context, l *domain.DailyLog) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO daily_logs (`+dailyLogColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Date, l.Content, l.CreatedAt, l.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *dailyLogsRepo) GetByID(ctx context.Context, userID, id string) (*domain.DailyLog, error) {
	l, err := scanDailyLog(r.q.QueryRowContext(ctx,
		`SELECT `+dailyLogColumns+` FROM daily_logs WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return l, nil
}

func (r *dailyLogsRepo) ListByUser(ctx context.Context, userID string) ([]*domain.DailyLog, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+dailyLogColumns+` FROM daily_logs
		WHERE user_id = ? ORDER BY log_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.DailyLog
	for rows.Next() {
		l, err := scanDailyLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *dailyLogsRepo) Update(ctx context.Context, userID, id string, patch domain.DailyLogPatch) (*domain.DailyLog, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if patch.Date != nil {
		sets = append(sets, "log_date = ?")
		args = append(args, *patch.Date)
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}

	args = append(args, id, userID)
	res, err := r.q.ExecContext(ctx,
		`UPDATE daily_logs SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, mapNotFound(sql.ErrNoRows)
	}

	return r.GetByID(ctx, userID, id)
}

func (r *dailyLogsRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM daily_logs WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
