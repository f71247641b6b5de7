package model

import "time"

type DailySeed struct {
	ID           int64     `json:"id"`
	Round        uint64    `json:"round"`
	Randomness   string    `json:"randomness"`
	VRFSignature string    `json:"vrf_signature"`
	Active       bool      `json:"active"`
	RotatesAt    time.Time `json:"rotates_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
