package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	// UpdatePassword swaps the stored hash only if it still equals oldHash,
	// so two concurrent changes cannot silently overwrite each other.
	UpdatePassword(ctx context.Context, id, oldHash, newHash string) error
	// ResetPassword replaces the hash unconditionally (admin reset path).
	ResetPassword(ctx context.Context, id, newHash string) error
	UpdateProfile(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, is_active, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, email, password_hash, role, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("user with given username already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	// Postgres text equality is case-sensitive, which is exactly the
	// username matching rule here.
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgUserRepository.FindByUsername: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.List: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
			&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgUserRepository.List scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *pgUserRepository) UpdatePassword(ctx context.Context, id, oldHash, newHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $2 AND password_hash = $3`
	res, err := r.db.ExecContext(ctx, query, newHash, id, oldHash)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdatePassword: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdatePassword: %w", err)
	}
	if affected == 0 {
		// Either the user vanished or the hash changed under us; the caller
		// re-verifies and retries.
		return common.ErrConflict
	}
	return nil
}

func (r *pgUserRepository) ResetPassword(ctx context.Context, id, newHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, newHash, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.ResetPassword: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgUserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET email = $1, role = $2, is_active = $3, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, user.Email, user.Role, user.IsActive, user.ID)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdateProfile: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	// Owned articles, scrapers and presets go with the user via FK cascade;
	// preinstalled scraper rows have no owner and are unaffected.
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
