package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/stash/internal/db/dbtest"
	"github.com/templui/stash/internal/model"
	"github.com/templui/stash/internal/repository"
	"github.com/templui/stash/internal/seed"
	"github.com/templui/stash/internal/service"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(dbtest.New(t))
	ledger := service.NewLedgerService(store, nil, service.LedgerConfig{})

	seeded, err := seed.Run(ctx, store, ledger)
	require.NoError(t, err)
	assert.True(t, seeded)

	board, err := ledger.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 3)

	// 4*4.50 + 5*9.50 = 65.50, 3*15 = 45, 7*8 = 56
	assert.Equal(t, "Richa Gupta", board[0].DisplayName)
	assert.Equal(t, model.MustMoney("65.50"), board[0].TotalSaved)
	assert.Equal(t, 9, board[0].CurrentStreak)
	assert.Equal(t, "Sarah Johnson", board[1].DisplayName)
	assert.Equal(t, model.MustMoney("56.00"), board[1].TotalSaved)
	assert.Equal(t, "James Chen", board[2].DisplayName)

	richa, err := store.Accounts.BySubject(ctx, "demo-1")
	require.NoError(t, err)
	latte, err := store.Sacrifices.ByAccountAndTitle(ctx, richa.ID, "Skipped Latte")
	require.NoError(t, err)
	assert.Equal(t, 4, latte.RepetitionCount)

	again, err := seed.Run(ctx, store, ledger)
	require.NoError(t, err)
	assert.False(t, again)

	board, err = ledger.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.MustMoney("65.50"), board[0].TotalSaved)
}
