package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrAdminNotFound = errors.New("admin not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const adminColumns = `id, username, email, password_hash, role, is_active, last_login, login_attempts, lock_until, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (Admin, error) {
	var admin Admin
	var role string
	var lastLogin, lockUntil sql.NullTime
	err := row.Scan(
		&admin.ID, &admin.Username, &admin.Email, &admin.PasswordHash, &role, &admin.IsActive,
		&lastLogin, &admin.LoginAttempts, &lockUntil, &admin.CreatedAt, &admin.UpdatedAt,
	)
	if err != nil {
		return Admin{}, err
	}
	admin.Role = Role(role)
	if lastLogin.Valid {
		value := lastLogin.Time.UTC()
		admin.LastLogin = &value
	}
	if lockUntil.Valid {
		value := lockUntil.Time.UTC()
		admin.LockUntil = &value
	}
	return admin, nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (Admin, error) {
	admin, err := scanAdmin(r.db.QueryRowContext(ctx, `
		SELECT `+adminColumns+`
		FROM admins
		WHERE username = $1
	`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Admin{}, ErrAdminNotFound
		}
		return Admin{}, fmt.Errorf("query admin by username: %w", err)
	}

	return admin, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (Admin, error) {
	admin, err := scanAdmin(r.db.QueryRowContext(ctx, `
		SELECT `+adminColumns+`
		FROM admins
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Admin{}, ErrAdminNotFound
		}
		return Admin{}, fmt.Errorf("query admin by id: %w", err)
	}

	return admin, nil
}

// RegisterFailedAttempt advances the lock state under a row lock so that
// concurrent failures cannot lose increments.
func (r *Repository) RegisterFailedAttempt(ctx context.Context, id string, policy LockPolicy, now time.Time) (LockState, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return LockState{}, fmt.Errorf("begin login attempt tx: %w", err)
	}
	defer tx.Rollback()

	var state LockState
	var lockUntil sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT login_attempts, lock_until
		FROM admins
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&state.Attempts, &lockUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LockState{}, ErrAdminNotFound
		}
		return LockState{}, fmt.Errorf("lock admin row: %w", err)
	}
	if lockUntil.Valid {
		value := lockUntil.Time.UTC()
		state.LockUntil = &value
	}

	next := policy.Next(state, now)

	var nextLock any
	if next.LockUntil != nil {
		nextLock = *next.LockUntil
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE admins
		SET login_attempts = $2, lock_until = $3, updated_at = $4
		WHERE id = $1
	`, id, next.Attempts, nextLock, now.UTC()); err != nil {
		return LockState{}, fmt.Errorf("update login attempts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return LockState{}, fmt.Errorf("commit login attempt tx: %w", err)
	}

	return next, nil
}

func (r *Repository) RecordLogin(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admins
		SET login_attempts = 0, lock_until = NULL, last_login = $2, updated_at = $2
		WHERE id = $1
	`, id, now.UTC())
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record login rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAdminNotFound
	}

	return nil
}

// UpsertAdmin inserts or refreshes the account keyed by username. The
// password must already be hashed.
func (r *Repository) UpsertAdmin(ctx context.Context, admin Admin) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO admins (id, username, email, password_hash, role, is_active, login_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, 0, $6, $6)
		ON CONFLICT (username)
		DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			is_active = TRUE,
			updated_at = EXCLUDED.updated_at
	`, id.String(), admin.Username, admin.Email, admin.PasswordHash, string(admin.Role), now)
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}

	return nil
}

// ReleaseExpiredLocks clears lock windows that have already passed. The next
// failure would reset the counter to 1 anyway, so this only tidies state.
func (r *Repository) ReleaseExpiredLocks(ctx context.Context, now time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	res, err := r.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT id
			FROM admins
			WHERE lock_until IS NOT NULL AND lock_until <= $1
			ORDER BY lock_until ASC
			LIMIT $2
		)
		UPDATE admins a
		SET login_attempts = 0, lock_until = NULL, updated_at = $1
		FROM stale
		WHERE a.id = stale.id
	`, now.UTC(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("release expired locks: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("released locks rows affected: %w", err)
	}

	return affected, nil
}
