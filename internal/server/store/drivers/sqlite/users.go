package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/hellomouse/pinboard-server/internal/server/domain"
)

type usersRepo struct {
	db *sql.DB
}

const userColumns = `id, username, name, pfp_url, settings, password_hash, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	settings := u.Settings
	if len(settings) == 0 {
		settings = json.RawMessage(`{}`)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, name, pfp_url, settings, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.Name, u.PfpURL, string(settings), u.PasswordHash)
	return mapConstraint(err)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func (r *usersRepo) SearchUsers(ctx context.Context, filter string) ([]domain.UserSearchResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, pfp_url FROM users
		 WHERE username LIKE '%' || $1 || '%' OR name LIKE '%' || $1 || '%'
		 ORDER BY username
		 LIMIT 50`, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.UserSearchResult
	for rows.Next() {
		var res domain.UserSearchResult
		var pfp sql.NullString
		if err := rows.Scan(&res.ID, &res.Name, &pfp); err != nil {
			return nil, err
		}
		res.PfpURL = mapNullString(pfp)
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *usersRepo) UpdateSettings(ctx context.Context, userID string, settings json.RawMessage) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET settings = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		string(settings), userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var pfp, settings sql.NullString

	err := row.Scan(
		&u.ID, &u.Username, &u.Name, &pfp, &settings,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.PfpURL = mapNullString(pfp)
	if settings.Valid && settings.String != "" {
		u.Settings = json.RawMessage(settings.String)
	} else {
		u.Settings = json.RawMessage(`{}`)
	}
	return u, nil
}
