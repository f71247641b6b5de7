package raffle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// emptySetRoot is the sentinel root for a day with no qualified
// wallets, so "no winners today" flows through the same publication
// path as any other day.
var emptySetRoot = func() string {
	h := sha256.Sum256([]byte("empty"))

	return hex.EncodeToString(h[:])
}()

// MerkleTree commits to one day's qualification set. Nodes holds
// every level bottom-up; Root is the single top hash that gets
// published on-chain.
type MerkleTree struct {
	Leaves []string `json:"leaves"`
	Nodes  []string `json:"nodes"`
	Root   string   `json:"root"`
}

// BuildTree hashes the qualification set in rank order and folds
// pairs upward, duplicating the last node of any odd level. Pair
// hashes are order-independent (smaller hash first), so a membership
// proof needs no position bits.
func BuildTree(qualified []QualifiedWallet) *MerkleTree {
	if len(qualified) == 0 {
		return &MerkleTree{Root: emptySetRoot}
	}

	leaves := make([]string, 0, len(qualified))
	for _, q := range qualified {
		leaves = append(leaves, LeafHash(q.Wallet, q.Rank, q.Score, q.Tickets))
	}

	nodes := append([]string(nil), leaves...)

	level := leaves
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		parents := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			parents = append(parents, hashPair(level[i], level[i+1]))
		}

		nodes = append(nodes, parents...)
		level = parents
	}

	return &MerkleTree{
		Leaves: leaves,
		Nodes:  nodes,
		Root:   level[0],
	}
}

// LeafHash is sha256 over the canonical wallet:rank:score:tickets
// encoding of one qualified entry.
func LeafHash(wallet string, rank int, score int64, tickets int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d:%d", wallet, rank, score, tickets)))

	return hex.EncodeToString(h[:])
}

// GenerateMerkleProof returns the sibling hash at each level from
// the leaf at index up to the root.
func GenerateMerkleProof(leaves []string, index int) []string {
	if index < 0 || index >= len(leaves) {
		return nil
	}

	var proof []string

	level := append([]string(nil), leaves...)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		sibling := index ^ 1
		proof = append(proof, level[sibling])

		parents := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			parents = append(parents, hashPair(level[i], level[i+1]))
		}

		level = parents
		index /= 2
	}

	return proof
}

// VerifyProof folds the proof path up from the recomputed leaf and
// compares the result against the published root, and only the root.
// Malformed input yields false, never an error.
func VerifyProof(wallet string, rank int, score int64, tickets int, proof []string, root string) bool {
	if root == "" {
		return false
	}

	current := LeafHash(wallet, rank, score, tickets)

	for _, sibling := range proof {
		if len(sibling) != sha256.Size*2 {
			return false
		}

		current = hashPair(current, sibling)
	}

	return current == root
}

func hashPair(a string, b string) string {
	left, err := hex.DecodeString(a)
	if err != nil {
		return ""
	}

	right, err := hex.DecodeString(b)
	if err != nil {
		return ""
	}

	if bytes.Compare(left, right) > 0 {
		left, right = right, left
	}

	h := sha256.Sum256(append(left, right...))

	return hex.EncodeToString(h[:])
}
