package raffle

import (
	"errors"
	"github.com/memeworldorder/tetris-game-sub004/internal/config"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
	"math"
	"sort"
	"time"
)

var ErrEmptyQualificationSet = errors.New("empty qualification set")

// Play is one persisted play record from today's leaderboard.
type Play struct {
	WalletAddress string    `json:"wallet_address"`
	Score         int64     `json:"score"`
	PlayedAt      time.Time `json:"played_at"`
}

// QualifiedWallet is one wallet's slot in the daily qualification
// run. Each run supersedes the previous one; entries are never
// mutated in place.
type QualifiedWallet struct {
	Wallet  string      `json:"wallet"`
	Score   int64       `json:"score"`
	Rank    int         `json:"rank"`
	Tickets int         `json:"tickets"`
	Tier    config.Tier `json:"tier"`
}

// TicketManager turns a day of play records into tiered, capped
// ticket allocations.
type TicketManager struct {
	cfg config.RaffleConfig
	log *slog.Logger
}

func NewTicketManager(cfg config.RaffleConfig, log *slog.Logger) *TicketManager {
	return &TicketManager{
		cfg: cfg,
		log: log,
	}
}

// GetDailyQualifiedWallets keeps each wallet's best score, sorts
// descending and takes the top slice. Ties break deterministically:
// earlier play first, then wallet order, so reruns over the same
// records produce the same ranking.
func (m *TicketManager) GetDailyQualifiedWallets(plays []Play) []QualifiedWallet {
	best := make(map[string]Play, len(plays))

	for _, play := range plays {
		current, ok := best[play.WalletAddress]
		if !ok || play.Score > current.Score ||
			(play.Score == current.Score && play.PlayedAt.Before(current.PlayedAt)) {
			best[play.WalletAddress] = play
		}
	}

	if len(best) == 0 {
		return nil
	}

	leaderboard := make([]Play, 0, len(best))
	for _, play := range best {
		leaderboard = append(leaderboard, play)
	}

	sort.Slice(leaderboard, func(i, j int) bool {
		if leaderboard[i].Score != leaderboard[j].Score {
			return leaderboard[i].Score > leaderboard[j].Score
		}

		if !leaderboard[i].PlayedAt.Equal(leaderboard[j].PlayedAt) {
			return leaderboard[i].PlayedAt.Before(leaderboard[j].PlayedAt)
		}

		return leaderboard[i].WalletAddress < leaderboard[j].WalletAddress
	})

	count := int(math.Ceil(float64(len(leaderboard)) * m.cfg.SlicePercent / 100))
	if count > len(leaderboard) {
		count = len(leaderboard)
	}

	qualified := make([]QualifiedWallet, 0, count)

	for i := 0; i < count; i++ {
		rank := i + 1

		qualified = append(qualified, QualifiedWallet{
			Wallet:  leaderboard[i].WalletAddress,
			Score:   leaderboard[i].Score,
			Rank:    rank,
			Tickets: m.cfg.TicketsForRank(rank),
			Tier:    m.cfg.TierForRank(rank),
		})
	}

	m.log.Info("daily qualification computed",
		sl.Int("plays", len(plays)),
		sl.Int("unique_wallets", len(leaderboard)),
		sl.Int("qualified", len(qualified)))

	return qualified
}
