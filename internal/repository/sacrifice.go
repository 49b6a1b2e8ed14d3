package repository

import (
	"context"
	"database/sql"
	"errors"

	"time"

	"github.com/jmoiron/sqlx"

	"github.com/templui/stash/internal/db"
	"github.com/templui/stash/internal/model"
)

var (
	ErrSacrificeNotFound = errors.New("sacrifice not found")
	ErrSacrificeExists   = errors.New("sacrifice with this title already exists")
)

// SacrificeRepository stores one row per (account, title). The ledger writes
// through Upsert; Create and RecordRepeat are the two halves of it as
// separate steps, used by tooling and tests.
type SacrificeRepository interface {
	ByAccountAndTitle(ctx context.Context, accountID, title string) (*model.Sacrifice, error)
	Create(ctx context.Context, s *model.Sacrifice) error
	// RecordRepeat bumps the repetition count and last-performed time. The
	// amount is left as first recorded.
	RecordRepeat(ctx context.Context, id string, at time.Time) (*model.Sacrifice, error)
	// Upsert inserts s, or when the account already has a sacrifice with the
	// same title bumps its repetition count and last-performed time. The stored
	// amount keeps its first-recorded value. The returned row has
	// RepetitionCount == 1 only when it was inserted.
	Upsert(ctx context.Context, s *model.Sacrifice) (*model.Sacrifice, error)
	// Recent lists the account's sacrifices, most recently created first.
	Recent(ctx context.Context, accountID string, limit int) ([]*model.Sacrifice, error)
}

type sacrificeRepository struct {
	db sqlx.ExtContext
}

func NewSacrificeRepository(db sqlx.ExtContext) SacrificeRepository {
	return &sacrificeRepository{db: db}
}

func (r *sacrificeRepository) ByAccountAndTitle(ctx context.Context, accountID, title string) (*model.Sacrifice, error) {
	s := &model.Sacrifice{}
	query := `SELECT * FROM sacrifices WHERE account_id = $1 AND title = $2`

	err := sqlx.GetContext(ctx, r.db, s, query, accountID, title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSacrificeNotFound
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (r *sacrificeRepository) Create(ctx context.Context, s *model.Sacrifice) error {
	query := `INSERT INTO sacrifices (id, account_id, title, amount_cents, repetition_count, last_performed_at, created_at)
	          VALUES ($1, $2, $3, $4, 1, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.AccountID,
		s.Title,
		int64(s.Amount),
		s.LastPerformedAt,
		s.CreatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrSacrificeExists
	}
	if err != nil {
		return err
	}

	s.RepetitionCount = 1
	return nil
}

func (r *sacrificeRepository) RecordRepeat(ctx context.Context, id string, at time.Time) (*model.Sacrifice, error) {
	s := &model.Sacrifice{}
	query := `UPDATE sacrifices
	          SET repetition_count = repetition_count + 1, last_performed_at = $1
	          WHERE id = $2
	          RETURNING *`

	err := sqlx.GetContext(ctx, r.db, s, query, at.UTC(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSacrificeNotFound
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (r *sacrificeRepository) Upsert(ctx context.Context, s *model.Sacrifice) (*model.Sacrifice, error) {
	out := &model.Sacrifice{}
	query := `INSERT INTO sacrifices (id, account_id, title, amount_cents, repetition_count, last_performed_at, created_at)
	          VALUES ($1, $2, $3, $4, 1, $5, $6)
	          ON CONFLICT (account_id, title) DO UPDATE
	          SET repetition_count = sacrifices.repetition_count + 1,
	              last_performed_at = excluded.last_performed_at
	          RETURNING *`

	err := sqlx.GetContext(ctx, r.db, out, query,
		s.ID,
		s.AccountID,
		s.Title,
		int64(s.Amount),
		s.LastPerformedAt,
		s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *sacrificeRepository) Recent(ctx context.Context, accountID string, limit int) ([]*model.Sacrifice, error) {
	sacrifices := []*model.Sacrifice{}
	query := `SELECT * FROM sacrifices WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`

	err := sqlx.SelectContext(ctx, r.db, &sacrifices, query, accountID, limit)
	if err != nil {
		return nil, err
	}

	return sacrifices, nil
}
