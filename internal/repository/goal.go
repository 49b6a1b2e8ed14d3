package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/templui/stash/internal/model"
)

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	// ByAccount lists the account's goals, newest first.
	ByAccount(ctx context.Context, accountID string) ([]*model.Goal, error)
}

type goalRepository struct {
	db sqlx.ExtContext
}

func NewGoalRepository(db sqlx.ExtContext) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	query := `INSERT INTO goals (id, account_id, title, target_cents, progress_cents, category, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.AccountID,
		goal.Title,
		int64(goal.Target),
		int64(goal.Progress),
		goal.Category,
		goal.CreatedAt,
	)

	return err
}

func (r *goalRepository) ByAccount(ctx context.Context, accountID string) ([]*model.Goal, error) {
	goals := []*model.Goal{}
	query := `SELECT * FROM goals WHERE account_id = $1 ORDER BY created_at DESC, id DESC`

	err := sqlx.SelectContext(ctx, r.db, &goals, query, accountID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}
