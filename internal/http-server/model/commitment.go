package model

import "time"

type Commitment struct {
	ID            int64      `json:"id"`
	WalletAddress string     `json:"wallet_address"`
	SessionID     string     `json:"session_id"`
	SeedHash      string     `json:"seed_hash"`
	RevealedSeed  *string    `json:"revealed_seed,omitempty"`
	RevealedAt    *time.Time `json:"revealed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
