package raffle

import (
	"github.com/memeworldorder/tetris-game-sub004/internal/config"
)

// RaffleTicket is one entry in the day's sampling universe. Ticket
// numbers are globally sequential and dense, which makes a uniform
// draw over ticket numbers equivalent to a score-weighted draw over
// wallets.
type RaffleTicket struct {
	WalletAddress string      `json:"wallet_address"`
	TicketNumber  int         `json:"ticket_number"`
	Tier          config.Tier `json:"tier"`
	Score         int64       `json:"score"`
	Rank          int         `json:"rank"`
}

// GenerateRaffleTickets expands each qualified wallet into its
// individual tickets, numbered 1..budget in rank order.
func (m *TicketManager) GenerateRaffleTickets(qualified []QualifiedWallet) []RaffleTicket {
	tickets := make([]RaffleTicket, 0, m.CalculateTicketBudget(qualified))

	next := 1

	for _, q := range qualified {
		for i := 0; i < q.Tickets; i++ {
			tickets = append(tickets, RaffleTicket{
				WalletAddress: q.Wallet,
				TicketNumber:  next,
				Tier:          q.Tier,
				Score:         q.Score,
				Rank:          q.Rank,
			})

			next++
		}
	}

	return tickets
}

// CalculateTicketBudget is the total number of tickets issued for
// the run, which is also the draw's sampling range.
func (m *TicketManager) CalculateTicketBudget(qualified []QualifiedWallet) int {
	var budget int

	for _, q := range qualified {
		budget += q.Tickets
	}

	return budget
}
