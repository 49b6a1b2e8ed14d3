// Package seed loads demo accounts for local development. Everything goes
// through the ledger so totals, streaks and the feed stay consistent.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/templui/stash/internal/model"
	"github.com/templui/stash/internal/repository"
	"github.com/templui/stash/internal/service"
)

type demoAccount struct {
	identity   model.Identity
	goals      []service.CreateGoalInput
	sacrifices []demoSacrifice
}

type demoSacrifice struct {
	title  string
	amount string
	times  int
}

var demoAccounts = []demoAccount{
	{
		identity: model.Identity{Subject: "demo-1", Email: "demo1@example.com", Name: "Richa Gupta", AvatarURL: "https://i.pravatar.cc/150?img=1"},
		goals: []service.CreateGoalInput{
			{Title: "Concert Tickets", Target: decimal.RequireFromString("180"), Category: "Entertainment"},
			{Title: "Weekend Trip", Target: decimal.RequireFromString("400"), Category: "Travel"},
		},
		sacrifices: []demoSacrifice{
			{title: "Skipped Latte", amount: "4.50", times: 4},
			{title: "Packed Lunch", amount: "9.50", times: 5},
		},
	},
	{
		identity: model.Identity{Subject: "demo-2", Email: "demo2@example.com", Name: "James Chen", AvatarURL: "https://i.pravatar.cc/150?img=12"},
		goals: []service.CreateGoalInput{
			{Title: "New Laptop", Target: decimal.RequireFromString("800"), Category: "Technology"},
		},
		sacrifices: []demoSacrifice{
			{title: "No Takeout", amount: "15.00", times: 3},
		},
	},
	{
		identity: model.Identity{Subject: "demo-3", Email: "demo3@example.com", Name: "Sarah Johnson", AvatarURL: "https://i.pravatar.cc/150?img=5"},
		goals: []service.CreateGoalInput{
			{Title: "Emergency Fund", Target: decimal.RequireFromString("1000"), Category: "Savings"},
		},
		sacrifices: []demoSacrifice{
			{title: "Walked Instead", amount: "8.00", times: 7},
		},
	},
}

// Run creates the demo accounts unless they already exist. It reports whether
// anything was written.
func Run(ctx context.Context, store *repository.Store, ledger *service.LedgerService) (bool, error) {
	_, err := store.Accounts.BySubject(ctx, demoAccounts[0].identity.Subject)
	if err == nil {
		slog.Info("demo data already present, skipping seed")
		return false, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return false, fmt.Errorf("failed to check for demo data: %w", err)
	}

	for _, demo := range demoAccounts {
		account, _, err := store.Accounts.GetOrCreate(ctx, demo.identity)
		if err != nil {
			return false, fmt.Errorf("failed to create demo account %s: %w", demo.identity.Subject, err)
		}

		for _, goal := range demo.goals {
			_, err := ledger.CreateGoal(ctx, account.ID, goal)
			if err != nil {
				return false, fmt.Errorf("failed to create demo goal %q: %w", goal.Title, err)
			}
		}

		for _, s := range demo.sacrifices {
			for range s.times {
				_, err := ledger.LogSacrifice(ctx, account.ID, service.LogSacrificeInput{
					Title:  s.title,
					Amount: decimal.RequireFromString(s.amount),
				})
				if err != nil {
					return false, fmt.Errorf("failed to log demo sacrifice %q: %w", s.title, err)
				}
			}
		}
	}

	slog.Info("demo data seeded", "accounts", len(demoAccounts))
	return true, nil
}
