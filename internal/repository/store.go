package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/templui/stash/internal/db"
)

// ErrConflict marks a transient write conflict (lock contention or a
// serialization failure). The whole transaction may be retried.
var ErrConflict = errors.New("write conflict")

// Repos groups the repositories bound to one connection or transaction.
type Repos struct {
	Accounts   AccountRepository
	Goals      GoalRepository
	Sacrifices SacrificeRepository
	Feed       FeedRepository
}

func newRepos(ext sqlx.ExtContext) *Repos {
	return &Repos{
		Accounts:   NewAccountRepository(ext),
		Goals:      NewGoalRepository(ext),
		Sacrifices: NewSacrificeRepository(ext),
		Feed:       NewFeedRepository(ext),
	}
}

// Store owns the database handle. Its embedded Repos run outside any
// transaction; WithTx hands out transaction-scoped ones.
type Store struct {
	*Repos
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		Repos: newRepos(db),
		db:    db,
	}
}

// WithTx runs fn in a transaction. It commits when fn returns nil and rolls
// back otherwise. Lock and serialization failures come back wrapped in
// ErrConflict.
func (s *Store) WithTx(ctx context.Context, fn func(*Repos) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	// No-op after a successful commit; also releases the lock if fn panics.
	defer func() {
		rbErr := tx.Rollback()
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Warn("rollback failed", "error", rbErr)
		}
	}()

	err = fn(newRepos(tx))
	if err != nil {
		return classify(err)
	}

	err = tx.Commit()
	if err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func classify(err error) error {
	if db.IsConflict(err) && !errors.Is(err, ErrConflict) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
