package fairness

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
	"sync"
	"time"
)

var (
	ErrSeedNotCommitted = errors.New("seed not committed")
	ErrSessionActive    = errors.New("session still active")
)

// Commitment binds a (wallet, session) pair to a hidden master seed.
// Only the hash is public before reveal; the raw seed stays inside
// the manager until the session has ended.
type Commitment struct {
	WalletAddress string     `json:"wallet_address"`
	SessionID     string     `json:"session_id"`
	SeedHash      string     `json:"seed_hash"`
	RevealedSeed  *string    `json:"revealed_seed,omitempty"`
	CommittedAt   time.Time  `json:"committed_at"`
	RevealedAt    *time.Time `json:"revealed_at,omitempty"`

	rawSeed []byte
}

// CommitRevealManager enforces commit-before-reveal per session.
// Reveal is refused while the session is still generating pieces,
// because a revealed seed predicts the rest of the stream.
type CommitRevealManager struct {
	mu          sync.Mutex
	commitments map[string]*Commitment
	sessions    *SessionStore
	log         *slog.Logger
}

func NewCommitRevealManager(sessions *SessionStore, log *slog.Logger) *CommitRevealManager {
	return &CommitRevealManager{
		commitments: make(map[string]*Commitment),
		sessions:    sessions,
		log:         log,
	}
}

// CommitSeed stores sha256(masterSeed) as the public commitment for
// the session. Committing twice returns the original commitment.
func (m *CommitRevealManager) CommitSeed(wallet string, sessionID string) (*Commitment, error) {
	const op = "fairness.CommitRevealManager.CommitSeed"

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.commitments[sessionID]; ok {
		return existing, nil
	}

	session, err := m.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash := sha256.Sum256(session.masterSeed)

	commitment := &Commitment{
		WalletAddress: wallet,
		SessionID:     sessionID,
		SeedHash:      hex.EncodeToString(hash[:]),
		CommittedAt:   time.Now().UTC(),
		rawSeed:       append([]byte(nil), session.masterSeed...),
	}

	m.commitments[sessionID] = commitment

	m.log.Info("seed committed",
		sl.String("session_id", sessionID),
		sl.String("seed_hash", commitment.SeedHash))

	return commitment, nil
}

// RevealSeed discloses the raw seed of an ended session. The first
// reveal wins and every later call returns the same value, so
// concurrent reveals are idempotent.
func (m *CommitRevealManager) RevealSeed(sessionID string) (string, error) {
	const op = "fairness.CommitRevealManager.RevealSeed"

	m.mu.Lock()
	defer m.mu.Unlock()

	commitment, ok := m.commitments[sessionID]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, ErrSeedNotCommitted)
	}

	if commitment.RevealedSeed != nil {
		return *commitment.RevealedSeed, nil
	}

	// A session missing from the store has expired, which also ends
	// it; only a live, unexported session blocks the reveal.
	if session, err := m.sessions.Get(sessionID); err == nil {
		session.mu.Lock()
		state := session.State
		session.mu.Unlock()

		if state != StateExported {
			return "", fmt.Errorf("%s: %w", op, ErrSessionActive)
		}
	}

	seed := hex.EncodeToString(commitment.rawSeed)
	now := time.Now().UTC()

	commitment.RevealedSeed = &seed
	commitment.RevealedAt = &now

	m.log.Info("seed revealed", sl.String("session_id", sessionID))

	return seed, nil
}

// GetCommitment returns the public commitment for a session, or nil
// when none exists.
func (m *CommitRevealManager) GetCommitment(sessionID string) *Commitment {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.commitments[sessionID]
}

// Forget drops a commitment after it has been persisted downstream.
func (m *CommitRevealManager) Forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.commitments, sessionID)
}
