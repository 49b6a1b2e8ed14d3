package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/stash/internal/model"
)

var (
	ErrAccountNotFound = errors.New("account not found")
)

type AccountRepository interface {
	ByID(ctx context.Context, id string) (*model.Account, error)
	BySubject(ctx context.Context, subject string) (*model.Account, error)
	// GetOrCreate returns the account bound to the identity subject, creating
	// it on first sign-in. created is true only for the call that inserted it.
	GetOrCreate(ctx context.Context, identity model.Identity) (account *model.Account, created bool, err error)
	// Credit adds amount to the running total and bumps the streak in a single
	// statement so concurrent credits never lose an update.
	Credit(ctx context.Context, id string, amount model.Money, at time.Time) (*model.Account, error)
	Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
}

type accountRepository struct {
	db sqlx.ExtContext
}

func NewAccountRepository(db sqlx.ExtContext) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) ByID(ctx context.Context, id string) (*model.Account, error) {
	account := &model.Account{}
	query := `SELECT * FROM accounts WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (r *accountRepository) BySubject(ctx context.Context, subject string) (*model.Account, error) {
	account := &model.Account{}
	query := `SELECT * FROM accounts WHERE provider_subject = $1`

	err := sqlx.GetContext(ctx, r.db, account, query, subject)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (r *accountRepository) GetOrCreate(ctx context.Context, identity model.Identity) (*model.Account, bool, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate account id: %w", err)
	}

	query := `INSERT INTO accounts (id, provider_subject, email, display_name, avatar_url, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (provider_subject) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		id.String(),
		identity.Subject,
		identity.Email,
		identity.Name,
		identity.AvatarURL,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	account, err := r.BySubject(ctx, identity.Subject)
	if err != nil {
		return nil, false, err
	}

	return account, rows == 1, nil
}

func (r *accountRepository) Credit(ctx context.Context, id string, amount model.Money, at time.Time) (*model.Account, error) {
	account := &model.Account{}
	query := `UPDATE accounts
	          SET total_saved_cents = total_saved_cents + $1,
	              current_streak = current_streak + 1,
	              last_save_at = $2
	          WHERE id = $3
	          RETURNING *`

	err := sqlx.GetContext(ctx, r.db, account, query, int64(amount), at.UTC(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (r *accountRepository) Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	entries := []*model.LeaderboardEntry{}
	query := `SELECT id, display_name, avatar_url, total_saved_cents, current_streak
	          FROM accounts
	          ORDER BY total_saved_cents DESC, created_at ASC, id ASC
	          LIMIT $1`

	err := sqlx.SelectContext(ctx, r.db, &entries, query, limit)
	if err != nil {
		return nil, err
	}

	for i, e := range entries {
		e.Rank = i + 1
	}

	return entries, nil
}
