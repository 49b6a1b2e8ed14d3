package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/stash/internal/model"
)

// FeedRepository is append-only: events are never updated or deleted.
type FeedRepository interface {
	Append(ctx context.Context, event *model.FeedEvent) error
	// Recent returns the newest events across all accounts.
	Recent(ctx context.Context, limit int) ([]*model.FeedEntry, error)
}

type feedRepository struct {
	db sqlx.ExtContext
}

func NewFeedRepository(db sqlx.ExtContext) FeedRepository {
	return &feedRepository{db: db}
}

func (r *feedRepository) Append(ctx context.Context, event *model.FeedEvent) error {
	if !event.Kind.Valid() {
		return fmt.Errorf("unknown feed kind %q", event.Kind)
	}

	query := `INSERT INTO feed_events (id, account_id, kind, payload, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.AccountID,
		string(event.Kind),
		string(event.Payload),
		event.CreatedAt,
	)

	return err
}

func (r *feedRepository) Recent(ctx context.Context, limit int) ([]*model.FeedEntry, error) {
	entries := []*model.FeedEntry{}
	query := `SELECT f.id, f.account_id, f.kind, f.payload, f.created_at, a.display_name, a.avatar_url
	          FROM feed_events f
	          JOIN accounts a ON a.id = f.account_id
	          ORDER BY f.created_at DESC, f.id DESC
	          LIMIT $1`

	err := sqlx.SelectContext(ctx, r.db, &entries, query, limit)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
