package model

import (
	"github.com/memeworldorder/tetris-game-sub004/internal/config"
	"time"
)

type QualificationRun struct {
	ID             int64     `json:"id"`
	RunDate        time.Time `json:"run_date"`
	QualifiedCount int       `json:"qualified_count"`
	TicketBudget   int       `json:"ticket_budget"`
	MerkleRoot     string    `json:"merkle_root"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type QualificationEntry struct {
	ID            int64       `json:"id"`
	RunID         int64       `json:"run_id"`
	WalletAddress string      `json:"wallet_address"`
	Rank          int         `json:"rank"`
	Score         int64       `json:"score"`
	Tickets       int         `json:"tickets"`
	Tier          config.Tier `json:"tier"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
