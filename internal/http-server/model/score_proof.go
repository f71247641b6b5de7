package model

import "time"

type ScoreProof struct {
	ID            int64     `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	Score         int64     `json:"score"`
	SeedHash      string    `json:"seed_hash"`
	MoveCount     int       `json:"move_count"`
	Signature     string    `json:"signature"`
	SignedAt      int64     `json:"signed_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
