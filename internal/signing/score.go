package signing

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/random"
	"strconv"
	"time"
)

var ErrBadSigningKey = errors.New("malformed signing key")

// ScoreProof is a non-repudiable attestation over a finished
// session's score. The signature covers every other field, so no
// field can change after signing without breaking verification.
type ScoreProof struct {
	WalletAddress string `json:"wallet_address"`
	Score         int64  `json:"score"`
	SeedHash      string `json:"seed_hash"`
	MoveCount     int    `json:"move_count"`
	Timestamp     int64  `json:"timestamp"`
	Signature     string `json:"signature"`
}

// ScoreSigner holds the platform Ed25519 key. Downstream consumers
// (raffle qualification, audits) trust a valid signature instead of
// re-running the game simulation.
type ScoreSigner struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewScoreSigner builds a signer from a hex-encoded 32-byte Ed25519
// seed.
func NewScoreSigner(privateKeyHex string) (*ScoreSigner, error) {
	const op = "signing.NewScoreSigner"

	seed, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrBadSigningKey, err)
	}

	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%s: %w: need %d bytes, got %d", op, ErrBadSigningKey, ed25519.SeedSize, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)

	return &ScoreSigner{
		priv: priv,
		pub:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// GenerateScoreSigner creates a signer with a fresh random key.
// Useful for tests and local environments without a provisioned key.
func GenerateScoreSigner() (*ScoreSigner, error) {
	priv := ed25519.NewKeyFromSeed(random.NewRandomBytes(ed25519.SeedSize))

	return &ScoreSigner{
		priv: priv,
		pub:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// PublicKeyHex returns the verification key for publication.
func (s *ScoreSigner) PublicKeyHex() string {
	return hex.EncodeToString(s.pub)
}

// SignScore signs the canonical message over the four score fields
// plus a timestamp taken at signing time.
func (s *ScoreSigner) SignScore(wallet string, score int64, seedHash string, moveCount int) *ScoreProof {
	proof := &ScoreProof{
		WalletAddress: wallet,
		Score:         score,
		SeedHash:      seedHash,
		MoveCount:     moveCount,
		Timestamp:     time.Now().UTC().Unix(),
	}

	proof.Signature = hex.EncodeToString(ed25519.Sign(s.priv, canonicalMessage(proof)))

	return proof
}

// VerifyScoreSignature checks the proof against the platform public
// key. Pure and side-effect free; malformed input is false, never an
// error.
func (s *ScoreSigner) VerifyScoreSignature(proof *ScoreProof) bool {
	if proof == nil {
		return false
	}

	sig, err := hex.DecodeString(proof.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}

	return ed25519.Verify(s.pub, canonicalMessage(proof), sig)
}

// canonicalMessage concatenates the signed fields in a fixed order
// with an unambiguous separator.
func canonicalMessage(proof *ScoreProof) []byte {
	return []byte(proof.WalletAddress + "|" +
		strconv.FormatInt(proof.Score, 10) + "|" +
		proof.SeedHash + "|" +
		strconv.Itoa(proof.MoveCount) + "|" +
		strconv.FormatInt(proof.Timestamp, 10))
}
