package model

import "time"

type RaffleWinner struct {
	ID            int64     `json:"id"`
	RunID         int64     `json:"run_id"`
	WalletAddress string    `json:"wallet_address"`
	TicketNumber  int       `json:"ticket_number"`
	DrawIndex     int       `json:"draw_index"`
	Rank          int       `json:"rank"`
	Score         int64     `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
