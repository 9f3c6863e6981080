package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zulumai/exam-portal/internal/model"
)

// UserRepository handles portal account data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByUsername retrieves a user by their login username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, email, full_name, role, password_hash, COALESCE(profile_image_url, ''), created_at
		 FROM users
		 WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.ProfileImageURL, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, email, full_name, role, password_hash, COALESCE(profile_image_url, ''), created_at
		 FROM users
		 WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.ProfileImageURL, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user account.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, full_name, role, password_hash, profile_image_url)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		 RETURNING id, created_at`,
		u.Username, u.Email, u.FullName, u.Role, u.PasswordHash, u.ProfileImageURL,
	).Scan(&u.ID, &u.CreatedAt)
}

// List retrieves all users ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, username, email, full_name, role, password_hash, COALESCE(profile_image_url, ''), created_at
		 FROM users
		 ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.ProfileImageURL, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Delete removes a user account.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
