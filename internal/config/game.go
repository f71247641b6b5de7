package config

type Game string

const (
	Blockfall Game = "blockfall"
)

type Tier string

const (
	TierRank1      Tier = "rank1"
	TierRanks2To5  Tier = "ranks2to5"
	TierRanks6To10 Tier = "ranks6to10"
	TierRemaining  Tier = "remaining"
)
