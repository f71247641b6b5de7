package model

import "time"

type Play struct {
	ID            int64     `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	SessionID     string    `json:"session_id"`
	Score         int64     `json:"score"`
	MoveCount     int       `json:"move_count"`
	SeedHash      string    `json:"seed_hash"`
	BotConfidence float64   `json:"bot_confidence"`
	BotFlagged    bool      `json:"bot_flagged"`
	PlayedAt      time.Time `json:"played_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
