package repo

import (
	"context"
	"database/sql"

	"github.com/frontier912/pulsewatch/internal/models"
)

// TeamRepo persists teams and team membership.
type TeamRepo struct {
	DB *sql.DB
}

// NewTeamRepo returns a new TeamRepo.
func NewTeamRepo(db *sql.DB) *TeamRepo {
	return &TeamRepo{DB: db}
}

// Create inserts a new team and returns it with id set.
func (r *TeamRepo) Create(ctx context.Context, name string) (*models.Team, error) {
	query := `
		INSERT INTO teams (name)
		VALUES ($1)
		RETURNING id, name, created_at
	`
	t := &models.Team{}
	err := r.DB.QueryRowContext(ctx, query, name).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByID returns one team by id, or nil if not found.
func (r *TeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT id, name, created_at
		FROM teams
		WHERE id = $1
	`
	t := &models.Team{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns all teams ordered by id.
func (r *TeamRepo) List(ctx context.Context) ([]models.Team, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, created_at FROM teams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// AddMember adds a user to a team. Adding an existing member is a no-op.
func (r *TeamRepo) AddMember(ctx context.Context, teamID, userID int) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		teamID, userID,
	)
	return err
}

// RemoveMember removes a user from a team.
func (r *TeamRepo) RemoveMember(ctx context.Context, teamID, userID int) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`,
		teamID, userID,
	)
	return err
}

// ListMembers returns the team's users. The sweeper fans notifications out
// to every member on each transition.
func (r *TeamRepo) ListMembers(ctx context.Context, teamID int) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.webhook_url, u.role
		FROM users u
		JOIN team_members tm ON tm.user_id = u.id
		WHERE tm.team_id = $1
		ORDER BY u.id
	`
	rows, err := r.DB.QueryContext(ctx, query, teamID)
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

// Delete removes a team by id.
func (r *TeamRepo) Delete(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	return err
}
