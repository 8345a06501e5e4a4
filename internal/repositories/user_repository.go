package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UserRepository is read-only: identity rows are owned by the auth service,
// this service only resolves them for display.
type UserRepository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, username, email, COALESCE(avatar_url, ''), created_at
		FROM users
		WHERE id = $1
	`

	user := &models.User{}

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&user.ID, &user.Username, &user.Email, &user.AvatarURL, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	return user, nil
}

func (r *userRepository) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	idStrings := make([]string, 0, len(ids))
	for _, id := range ids {
		idStrings = append(idStrings, id.String())
	}

	query := `
		SELECT id, username, email, COALESCE(avatar_url, ''), created_at
		FROM users
		WHERE id = ANY($1::uuid[])
	`

	rows, err := r.DB.QueryContext(dbCtx, query, pq.Array(idStrings))
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}

	defer rows.Close()

	users := make(map[uuid.UUID]*models.User, len(ids))

	for rows.Next() {
		user := &models.User{}

		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.AvatarURL, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		users[user.ID] = user
	}

	return users, rows.Err()
}
