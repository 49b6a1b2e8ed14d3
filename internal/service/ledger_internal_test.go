package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/stash/internal/db/dbtest"
	"github.com/templui/stash/internal/metrics"
	"github.com/templui/stash/internal/repository"
	"github.com/templui/stash/internal/validation"
)

func newTestLedger(t *testing.T) (*LedgerService, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	return NewLedgerService(repository.NewStore(dbtest.New(t)), m, LedgerConfig{}), m
}

func conflictRetries(t *testing.T, m *metrics.Metrics) int {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "ledger_conflict_retries_total" {
			return int(f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	return 0
}

func TestInTx_RetriesConflictOnce(t *testing.T) {
	s, m := newTestLedger(t)

	calls := 0
	err := s.inTx(context.Background(), "test", func(*repository.Repos) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("upsert: %w", repository.ErrConflict)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, conflictRetries(t, m))
}

func TestInTx_SurfacesPersistentConflict(t *testing.T) {
	s, _ := newTestLedger(t)

	calls := 0
	err := s.inTx(context.Background(), "test", func(*repository.Repos) error {
		calls++
		return repository.ErrConflict
	})

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 2, calls)
}

func TestInTx_DoesNotRetryOtherErrors(t *testing.T) {
	s, m := newTestLedger(t)

	calls := 0
	err := s.inTx(context.Background(), "test", func(*repository.Repos) error {
		calls++
		return errors.New("disk on fire")
	})

	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, conflictRetries(t, m))
}

func TestStorageError(t *testing.T) {
	verr := &validation.Error{Field: "title", Message: "required"}

	assert.Same(t, error(verr), storageError("op", verr))
	assert.Nil(t, storageError("op", nil))
	assert.ErrorIs(t, storageError("op", repository.ErrAccountNotFound), ErrNotFound)
	assert.ErrorIs(t, storageError("op", repository.ErrAccountNotFound), repository.ErrAccountNotFound)
	assert.ErrorIs(t, storageError("op", repository.ErrConflict), ErrConflict)
	assert.ErrorIs(t, storageError("op", context.Canceled), context.Canceled)
	assert.NotErrorIs(t, storageError("op", context.Canceled), ErrStorage)
	assert.ErrorIs(t, storageError("op", errors.New("boom")), ErrStorage)
}
