package model

type Dashboard struct {
	Account    *Account     `json:"user"`
	Goals      []*Goal      `json:"goals"`
	Sacrifices []*Sacrifice `json:"sacrifices"`
}

type LeaderboardEntry struct {
	Rank          int    `db:"-" json:"rank"`
	AccountID     string `db:"id" json:"id"`
	DisplayName   string `db:"display_name" json:"name"`
	AvatarURL     string `db:"avatar_url" json:"avatar_url"`
	TotalSaved    Money  `db:"total_saved_cents" json:"total_saved"`
	CurrentStreak int    `db:"current_streak" json:"current_streak"`
}

// SacrificeReceipt confirms a LogSacrifice call.
type SacrificeReceipt struct {
	SacrificeID     string   `json:"sacrifice_id"`
	RepetitionCount int      `json:"repetition_count"`
	Created         bool     `json:"created"`
	Account         *Account `json:"account"`
}
