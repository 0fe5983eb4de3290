package tokens

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, userID, token string) error {

	query :=
		`INSERT INTO user_tokens (user_id, token)
		 VALUES ($1, $2)
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Contains(ctx context.Context, userID, token string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM user_tokens WHERE user_id = $1 AND token = $2)
		 `

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, token).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return ok, nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, token string) error {
	query :=
		`DELETE FROM user_tokens
		 WHERE user_id = $1 AND token = $2
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) RemoveAll(ctx context.Context, userID string) error {
	query :=
		`DELETE FROM user_tokens
		 WHERE user_id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.SessionToken, error) {
	query :=
		`SELECT user_id, token, created_at FROM user_tokens
		 WHERE user_id = $1
		 ORDER BY id ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.SessionToken
	for rows.Next() {
		var t models.SessionToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
