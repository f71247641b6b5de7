package config

type RaffleConfig struct {
	Tiers               map[Tier]RaffleTierConfig
	SlicePercent        float64
	MaxTicketsPerWallet int
}

type RaffleTierConfig struct {
	Tickets int
}

var DailyRaffleConfig = RaffleConfig{
	Tiers: map[Tier]RaffleTierConfig{
		TierRank1: {
			Tickets: 25,
		},
		TierRanks2To5: {
			Tickets: 15,
		},
		TierRanks6To10: {
			Tickets: 10,
		},
		TierRemaining: {
			Tickets: 1,
		},
	},
	SlicePercent:        25,
	MaxTicketsPerWallet: 25,
}

func (c RaffleConfig) TicketsForRank(rank int) int {
	var tier Tier

	switch {
	case rank == 1:
		tier = TierRank1
	case rank <= 5:
		tier = TierRanks2To5
	case rank <= 10:
		tier = TierRanks6To10
	default:
		tier = TierRemaining
	}

	tickets := c.Tiers[tier].Tickets
	if tickets > c.MaxTicketsPerWallet {
		tickets = c.MaxTicketsPerWallet
	}

	return tickets
}

func (c RaffleConfig) TierForRank(rank int) Tier {
	switch {
	case rank == 1:
		return TierRank1
	case rank <= 5:
		return TierRanks2To5
	case rank <= 10:
		return TierRanks6To10
	default:
		return TierRemaining
	}
}
