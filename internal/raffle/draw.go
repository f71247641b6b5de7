package raffle

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/converter"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/exp/slog"
	"io"
	"strconv"
)

var ErrNoTickets = errors.New("no tickets in the draw")

const drawContext = "raffle-draw"

// DrawWinner is one drawn wallet. TicketNumber is the winning
// ticket's number in the day's original global numbering, so anyone
// holding the ticket list can audit the pick.
type DrawWinner struct {
	WalletAddress string `json:"wallet_address"`
	TicketNumber  int    `json:"ticket_number"`
	Rank          int    `json:"rank"`
	Score         int64  `json:"score"`
	DrawIndex     int    `json:"draw_index"`
}

// ticketRange is one wallet's contiguous run of ticket numbers.
// Ranges stay numbered by the original allocation even after other
// wallets are drawn out, so reported ticket numbers remain stable.
type ticketRange struct {
	wallet QualifiedWallet
	start  int
	size   int
}

// DrawManager selects winners by mapping beacon-derived floats onto
// cumulative ticket ranges: uniform over tickets, weighted over
// wallets.
type DrawManager struct {
	log *slog.Logger
}

func NewDrawManager(log *slog.Logger) *DrawManager {
	return &DrawManager{log: log}
}

// DrawWinners draws up to count distinct wallets without
// replacement: a drawn wallet's whole range leaves the universe
// before the next pick. Each pick uses its own derivation context,
// so the sequence is deterministic given the beacon randomness and
// auditable by anyone holding it.
func (d *DrawManager) DrawWinners(randomness []byte, qualified []QualifiedWallet, count int) ([]DrawWinner, error) {
	const op = "raffle.DrawManager.DrawWinners"

	if len(qualified) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyQualificationSet)
	}

	ranges := make([]ticketRange, 0, len(qualified))

	next := 1
	remaining := 0

	for _, q := range qualified {
		if q.Tickets <= 0 {
			continue
		}

		ranges = append(ranges, ticketRange{wallet: q, start: next, size: q.Tickets})
		next += q.Tickets
		remaining += q.Tickets
	}

	if remaining == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoTickets)
	}

	if count > len(ranges) {
		count = len(ranges)
	}

	winners := make([]DrawWinner, 0, count)

	for drawIndex := 0; drawIndex < count; drawIndex++ {
		f := drawFloat(randomness, drawIndex)

		// Uniform pick over the remaining tickets, then a cumulative
		// walk to the owning range.
		pick := int(f * float64(remaining))
		if pick >= remaining {
			pick = remaining - 1
		}

		var hit int
		for i, r := range ranges {
			if pick < r.size {
				hit = i

				break
			}

			pick -= r.size
		}

		won := ranges[hit]

		winners = append(winners, DrawWinner{
			WalletAddress: won.wallet.Wallet,
			TicketNumber:  won.start + pick,
			Rank:          won.wallet.Rank,
			Score:         won.wallet.Score,
			DrawIndex:     drawIndex,
		})

		remaining -= won.size
		ranges = append(ranges[:hit], ranges[hit+1:]...)
	}

	d.log.Info("raffle winners drawn",
		sl.Int("winners", len(winners)),
		sl.Int("tickets", next-1))

	return winners, nil
}

func drawFloat(randomness []byte, drawIndex int) float64 {
	r := hkdf.New(sha256.New, randomness, nil, []byte(drawContext+":"+strconv.Itoa(drawIndex)))

	buf := make([]byte, 8)
	if _, err := io.ReadFull(r, buf); err != nil {
		panic(err)
	}

	return converter.BytesToFloat(buf)
}
