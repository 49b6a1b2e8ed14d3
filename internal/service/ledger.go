package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/templui/stash/internal/metrics"
	"github.com/templui/stash/internal/model"
	"github.com/templui/stash/internal/repository"
	"github.com/templui/stash/internal/validation"
)

type LedgerConfig struct {
	FeedLimit               int
	LeaderboardLimit        int
	DashboardSacrificeLimit int
	// RetryDelay is the pause before the single conflict retry.
	RetryDelay time.Duration
}

func (c LedgerConfig) withDefaults() LedgerConfig {
	if c.FeedLimit <= 0 {
		c.FeedLimit = 20
	}
	if c.LeaderboardLimit <= 0 {
		c.LeaderboardLimit = 10
	}
	if c.DashboardSacrificeLimit <= 0 {
		c.DashboardSacrificeLimit = 5
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 25 * time.Millisecond
	}
	return c
}

// LedgerService keeps accounts, goals, sacrifices and the feed consistent.
// Every mutation runs in one transaction and appends exactly one feed event.
type LedgerService struct {
	store   *repository.Store
	metrics *metrics.Metrics
	cfg     LedgerConfig
	now     func() time.Time
}

func NewLedgerService(store *repository.Store, m *metrics.Metrics, cfg LedgerConfig) *LedgerService {
	return &LedgerService{
		store:   store,
		metrics: m,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

type CreateGoalInput struct {
	Title    string          `json:"title"`
	Target   decimal.Decimal `json:"target_amount"`
	Category string          `json:"category"`
}

type LogSacrificeInput struct {
	Title  string          `json:"title"`
	Amount decimal.Decimal `json:"amount"`
}

func (s *LedgerService) CreateGoal(ctx context.Context, accountID string, in CreateGoalInput) (*model.Goal, error) {
	title, err := validation.ValidateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	target, err := validation.ValidateAmount("target_amount", in.Target)
	if err != nil {
		return nil, err
	}
	category, err := validation.ValidateCategory(in.Category, model.GoalCategoryDefault)
	if err != nil {
		return nil, err
	}

	var goal *model.Goal
	err = s.inTx(ctx, "create goal", func(tx *repository.Repos) error {
		_, err := tx.Accounts.ByID(ctx, accountID)
		if err != nil {
			return err
		}

		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		now := s.now().UTC()

		g := &model.Goal{
			ID:        id.String(),
			AccountID: accountID,
			Title:     title,
			Target:    target,
			Category:  category,
			CreatedAt: now,
		}
		err = tx.Goals.Create(ctx, g)
		if err != nil {
			return fmt.Errorf("failed to create goal: %w", err)
		}

		err = s.appendEvent(ctx, tx, accountID, model.FeedKindGoalCreated, now, model.GoalCreatedPayload{
			GoalID: g.ID,
			Title:  g.Title,
		})
		if err != nil {
			return err
		}

		goal = g
		return nil
	})
	if err != nil {
		s.logFailure("create goal", accountID, err)
		return nil, err
	}

	s.metrics.GoalCreated()
	slog.Info("goal created", "account_id", accountID, "goal_id", goal.ID)
	return goal, nil
}

// LogSacrifice records one occurrence of a sacrifice and credits the account
// with the request amount. A new title creates the sacrifice; a known title
// bumps its repetition count and keeps the amount stored on first creation.
func (s *LedgerService) LogSacrifice(ctx context.Context, accountID string, in LogSacrificeInput) (*model.SacrificeReceipt, error) {
	title, err := validation.ValidateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	amount, err := validation.ValidateAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}

	var receipt *model.SacrificeReceipt
	err = s.inTx(ctx, "log sacrifice", func(tx *repository.Repos) error {
		now := s.now().UTC()

		// Crediting first locks the account row, which also serializes
		// concurrent upserts of the same title.
		account, err := tx.Accounts.Credit(ctx, accountID, amount, now)
		if err != nil {
			return err
		}

		id, err := uuid.NewV7()
		if err != nil {
			return err
		}

		sacrifice, err := tx.Sacrifices.Upsert(ctx, &model.Sacrifice{
			ID:              id.String(),
			AccountID:       accountID,
			Title:           title,
			Amount:          amount,
			LastPerformedAt: now,
			CreatedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert sacrifice: %w", err)
		}

		err = s.appendEvent(ctx, tx, accountID, model.FeedKindSacrificeLogged, now, model.SacrificeLoggedPayload{
			SacrificeID:     sacrifice.ID,
			Title:           sacrifice.Title,
			RepetitionCount: sacrifice.RepetitionCount,
			Amount:          amount,
		})
		if err != nil {
			return err
		}

		receipt = &model.SacrificeReceipt{
			SacrificeID:     sacrifice.ID,
			RepetitionCount: sacrifice.RepetitionCount,
			Created:         sacrifice.RepetitionCount == 1,
			Account:         account,
		}
		return nil
	})
	if err != nil {
		s.logFailure("log sacrifice", accountID, err)
		return nil, err
	}

	s.metrics.SacrificeLogged(receipt.Created, amount)
	slog.Info("sacrifice logged",
		"account_id", accountID,
		"sacrifice_id", receipt.SacrificeID,
		"repetition_count", receipt.RepetitionCount,
		"amount", amount.String(),
	)
	return receipt, nil
}

func (s *LedgerService) Account(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := s.store.Accounts.ByID(ctx, accountID)
	if err != nil {
		s.logFailure("get account", accountID, err)
		return nil, storageError("get account", err)
	}
	return account, nil
}

// Dashboard loads the account, all of its goals and its most recent
// sacrifices concurrently.
func (s *LedgerService) Dashboard(ctx context.Context, accountID string) (*model.Dashboard, error) {
	dashboard := &model.Dashboard{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		account, err := s.store.Accounts.ByID(gctx, accountID)
		if err != nil {
			return err
		}
		dashboard.Account = account
		return nil
	})
	g.Go(func() error {
		goals, err := s.store.Goals.ByAccount(gctx, accountID)
		if err != nil {
			return err
		}
		dashboard.Goals = goals
		return nil
	})
	g.Go(func() error {
		sacrifices, err := s.store.Sacrifices.Recent(gctx, accountID, s.cfg.DashboardSacrificeLimit)
		if err != nil {
			return err
		}
		dashboard.Sacrifices = sacrifices
		return nil
	})

	err := g.Wait()
	if err != nil {
		s.logFailure("get dashboard", accountID, err)
		return nil, storageError("get dashboard", err)
	}

	return dashboard, nil
}

// Feed returns the newest events across all accounts.
func (s *LedgerService) Feed(ctx context.Context) ([]*model.FeedEntry, error) {
	entries, err := s.store.Feed.Recent(ctx, s.cfg.FeedLimit)
	if err != nil {
		slog.Error("failed to load feed", "error", err)
		return nil, storageError("get feed", err)
	}
	return entries, nil
}

func (s *LedgerService) Leaderboard(ctx context.Context) ([]*model.LeaderboardEntry, error) {
	entries, err := s.store.Accounts.Leaderboard(ctx, s.cfg.LeaderboardLimit)
	if err != nil {
		slog.Error("failed to load leaderboard", "error", err)
		return nil, storageError("get leaderboard", err)
	}
	return entries, nil
}

// inTx runs fn in a transaction, retrying the whole transaction once when it
// hits a write conflict.
func (s *LedgerService) inTx(ctx context.Context, op string, fn func(*repository.Repos) error) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(s.cfg.RetryDelay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := s.store.WithTx(ctx, fn)
		if errors.Is(err, repository.ErrConflict) {
			if attempt == 1 {
				slog.Warn("write conflict, retrying", "op", op, "error", err)
				s.metrics.ConflictRetried()
			}
			return retry.RetryableError(err)
		}
		return err
	})

	return storageError(op, err)
}

func (s *LedgerService) appendEvent(ctx context.Context, tx *repository.Repos, accountID string, kind model.FeedKind, at time.Time, payload any) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	body, err := model.NewPayload(payload)
	if err != nil {
		return fmt.Errorf("failed to encode feed payload: %w", err)
	}

	err = tx.Feed.Append(ctx, &model.FeedEvent{
		ID:        id.String(),
		AccountID: accountID,
		Kind:      kind,
		Payload:   body,
		CreatedAt: at,
	})
	if err != nil {
		return fmt.Errorf("failed to append feed event: %w", err)
	}
	return nil
}

func (s *LedgerService) logFailure(op, accountID string, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid), errors.Is(err, context.Canceled):
		return
	case errors.Is(err, repository.ErrAccountNotFound):
		// Callers are authenticated, so a missing account means the
		// credential and the store disagree.
		slog.Warn("account not found for authenticated caller", "op", op, "account_id", accountID)
	case errors.Is(err, ErrConflict), errors.Is(err, repository.ErrConflict):
		slog.Warn("write conflict persisted after retry", "op", op, "account_id", accountID, "error", err)
	default:
		slog.Error("ledger operation failed", "op", op, "account_id", accountID, "error", err)
	}
}
