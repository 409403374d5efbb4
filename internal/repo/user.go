package repo

import (
	"context"
	"database/sql"

	"golang.org/x/crypto/bcrypt"

	"github.com/frontier912/pulsewatch/internal/models"
)

// UserRepo persists users.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo returns a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// Create inserts a new user. An empty password stores NULL (viewer login
// without a password); otherwise the bcrypt hash is stored.
func (r *UserRepo) Create(ctx context.Context, username, email, password string) (*models.User, error) {
	var hash any
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(h)
	}

	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, email, webhook_url, role
	`
	u := &models.User{}
	err := r.DB.QueryRowContext(ctx, query, username, email, hash).
		Scan(&u.ID, &u.Username, &u.Email, &u.WebhookURL, &u.Role)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID returns one user by id, or nil if not found.
func (r *UserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, username, email, webhook_url, COALESCE(password_hash, ''), role
		FROM users
		WHERE id = $1
	`
	u := &models.User{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.WebhookURL, &u.PasswordHash, &u.Role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByUsername returns one user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, webhook_url, COALESCE(password_hash, ''), role
		FROM users
		WHERE username = $1
	`
	u := &models.User{}
	err := r.DB.QueryRowContext(ctx, query, username).
		Scan(&u.ID, &u.Username, &u.Email, &u.WebhookURL, &u.PasswordHash, &u.Role)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, username, email, webhook_url, role FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.WebhookURL, &u.Role); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Update changes email, webhook URL, and role for the given id.
func (r *UserRepo) Update(ctx context.Context, id int, email, webhookURL, role string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET email = $1, webhook_url = $2, role = $3 WHERE id = $4`,
		email, webhookURL, role, id,
	)
	return err
}

// Delete removes a user by id.
func (r *UserRepo) Delete(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
