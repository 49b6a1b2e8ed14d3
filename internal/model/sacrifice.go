package model

import (
	"time"
)

type Sacrifice struct {
	ID              string    `db:"id" json:"id"`
	AccountID       string    `db:"account_id" json:"account_id"`
	Title           string    `db:"title" json:"title"`
	Amount          Money     `db:"amount_cents" json:"amount"`
	RepetitionCount int       `db:"repetition_count" json:"repetition_count"`
	LastPerformedAt time.Time `db:"last_performed_at" json:"last_performed_at"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
