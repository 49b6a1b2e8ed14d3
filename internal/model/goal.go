package model

import (
	"time"
)

const GoalCategoryDefault = "General"

type Goal struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"account_id"`
	Title     string    `db:"title" json:"title"`
	Target    Money     `db:"target_cents" json:"target_amount"`
	Progress  Money     `db:"progress_cents" json:"current_amount"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Reached reports whether progress has caught up with the target. Nothing in
// the ledger moves progress yet, so this is informational only.
func (g *Goal) Reached() bool {
	return g.Progress >= g.Target
}
