package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type FeedKind string

const (
	FeedKindGoalCreated     FeedKind = "goal_created"
	FeedKindSacrificeLogged FeedKind = "sacrifice_logged"
)

func (k FeedKind) Valid() bool {
	return k == FeedKindGoalCreated || k == FeedKindSacrificeLogged
}

type FeedEvent struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"account_id"`
	Kind      FeedKind  `db:"kind" json:"kind"`
	Payload   Payload   `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FeedEntry is a feed event joined with the display fields of its account.
type FeedEntry struct {
	FeedEvent
	DisplayName string `db:"display_name" json:"name"`
	AvatarURL   string `db:"avatar_url" json:"avatar_url"`
}

type GoalCreatedPayload struct {
	GoalID string `json:"goal_id"`
	Title  string `json:"title"`
}

// SacrificeLoggedPayload snapshots the sacrifice at logging time. Amount is the
// amount credited by this log, which can differ from the stored Sacrifice.Amount.
type SacrificeLoggedPayload struct {
	SacrificeID     string `json:"sacrifice_id"`
	Title           string `json:"title"`
	RepetitionCount int    `json:"repetition_count"`
	Amount          Money  `json:"amount"`
}

// Payload is the JSON body of a feed event. It is stored as text and emitted
// verbatim.
type Payload json.RawMessage

func NewPayload(v any) (Payload, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Payload(b), nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	*p = append((*p)[:0], b...)
	return nil
}

func (p Payload) Value() (driver.Value, error) {
	return string(p), nil
}

func (p *Payload) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*p = Payload(v)
	case []byte:
		*p = append(Payload(nil), v...)
	case nil:
		*p = nil
	default:
		return fmt.Errorf("cannot scan %T into Payload", src)
	}
	return nil
}

// Decode unmarshals the payload into v.
func (p Payload) Decode(v any) error {
	return json.Unmarshal(p, v)
}
