package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/itas-team/itas/internal/domain"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, name, email, password_hash, role, requested_role, approved,
	twofa_enabled, twofa_secret, twofa_setup_temp, twofa_setup_required,
	reset_token, reset_token_exp, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u             domain.User
		role          string
		requestedRole sql.NullString
		secret        sql.NullString
		setupTemp     sql.NullString
		resetToken    sql.NullString
		resetExp      sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&role, &requestedRole, &u.Approved,
		&u.TwoFAEnabled, &secret, &setupTemp, &u.TwoFASetupRequired,
		&resetToken, &resetExp, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.RequestedRole = domain.Role(mapNullString(requestedRole))
	u.TwoFASecret = mapNullString(secret)
	u.TwoFASetupTemp = mapNullString(setupTemp)
	u.ResetToken = mapNullString(resetToken)
	u.ResetTokenExp = mapNullTime(resetExp)
	return &u, nil
}

func (r *usersRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash,
		string(u.Role), mapStringNull(string(u.RequestedRole)), u.Approved,
		u.TwoFAEnabled, mapStringNull(u.TwoFASecret), mapStringNull(u.TwoFASetupTemp), u.TwoFASetupRequired,
		mapStringNull(u.ResetToken), mapTimeNull(u.ResetTokenExp), u.CreatedAt, u.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token = ?`, token))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	add := func(col string, val any) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	if patch.Role != nil {
		add("role", string(*patch.Role))
	}
	if patch.RequestedRole != nil {
		add("requested_role", mapStringNull(string(*patch.RequestedRole)))
	}
	if patch.Approved != nil {
		add("approved", *patch.Approved)
	}
	if patch.TwoFAEnabled != nil {
		add("twofa_enabled", *patch.TwoFAEnabled)
	}
	if patch.TwoFASecret != nil {
		add("twofa_secret", mapStringNull(*patch.TwoFASecret))
	}
	if patch.TwoFASetupTemp != nil {
		add("twofa_setup_temp", mapStringNull(*patch.TwoFASetupTemp))
	}
	if patch.TwoFASetupRequired != nil {
		add("twofa_setup_required", *patch.TwoFASetupRequired)
	}
	if patch.ResetToken != nil {
		add("reset_token", mapStringNull(*patch.ResetToken))
	}
	if patch.ResetTokenExp != nil {
		add("reset_token_exp", mapTimeNull(*patch.ResetTokenExp))
	}

	args = append(args, id)
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, mapConflict(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, mapNotFound(sql.ErrNoRows)
	}

	return r.GetByID(ctx, id)
}

func (r *usersRepo) ListPendingRoleRequests(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE requested_role IS NOT NULL AND approved = 0
		ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET reset_token = NULL, reset_token_exp = NULL
		WHERE reset_token IS NOT NULL AND reset_token_exp < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
