package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/templui/stash/internal/repository"
	"github.com/templui/stash/internal/validation"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("concurrent update, please retry")
	ErrStorage      = errors.New("storage failure")
)

// storageError maps repository errors onto the service taxonomy. Validation
// and context errors pass through untouched.
func storageError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, validation.ErrInvalid),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, repository.ErrAccountNotFound),
		errors.Is(err, repository.ErrSacrificeNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
	}
}
