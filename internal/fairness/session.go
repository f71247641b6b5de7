package fairness

import (
	"errors"
	"fmt"
	"github.com/patrickmn/go-cache"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionState string

const (
	StateInitialized SessionState = "initialized"
	StateGenerating  SessionState = "generating"
	StateExported    SessionState = "exported"
)

// VRFSession is the process-local state of one game session. The
// master seed never leaves this struct until the commit-reveal
// manager discloses it after the session has ended.
type VRFSession struct {
	// mu serializes the read-increment-write of PieceIndex so
	// concurrent generate calls can neither skip nor repeat an index.
	mu sync.Mutex

	SessionID      string
	WalletAddress  string
	masterSeed     []byte
	MasterSeedHash string
	PieceIndex     uint64
	StartTime      time.Time
	VRFSignature   string
	State          SessionState
}

// SessionSnapshot is the public view of a session: everything a
// server-side validator needs and no secret material.
type SessionSnapshot struct {
	SessionID      string       `json:"session_id"`
	WalletAddress  string       `json:"wallet_address"`
	MasterSeedHash string       `json:"master_seed_hash"`
	PieceIndex     uint64       `json:"piece_index"`
	StartTime      time.Time    `json:"start_time"`
	VRFSignature   string       `json:"vrf_signature"`
	State          SessionState `json:"state"`
}

// SessionStore keeps sessions in a TTL'd cache. Every touch refreshes
// the TTL, so a session that is still generating pieces cannot be
// swept out from under an in-flight call.
type SessionStore struct {
	cache *cache.Cache
}

func NewSessionStore(ttl time.Duration, sweepInterval time.Duration) *SessionStore {
	return &SessionStore{
		cache: cache.New(ttl, sweepInterval),
	}
}

func (s *SessionStore) Put(session *VRFSession) {
	s.cache.Set(session.SessionID, session, cache.DefaultExpiration)
}

func (s *SessionStore) Get(sessionID string) (*VRFSession, error) {
	const op = "fairness.SessionStore.Get"

	v, found := s.cache.Get(sessionID)
	if !found {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}

	return v.(*VRFSession), nil
}

// Touch re-arms the TTL for an active session.
func (s *SessionStore) Touch(sessionID string) {
	if v, found := s.cache.Get(sessionID); found {
		s.cache.Set(sessionID, v, cache.DefaultExpiration)
	}
}

func (s *SessionStore) Delete(sessionID string) {
	s.cache.Delete(sessionID)
}

// DeleteExpired evicts sessions whose TTL has lapsed.
func (s *SessionStore) DeleteExpired() {
	s.cache.DeleteExpired()
}

func (s *SessionStore) Count() int {
	return s.cache.ItemCount()
}

func (v *VRFSession) snapshot() *SessionSnapshot {
	return &SessionSnapshot{
		SessionID:      v.SessionID,
		WalletAddress:  v.WalletAddress,
		MasterSeedHash: v.MasterSeedHash,
		PieceIndex:     v.PieceIndex,
		StartTime:      v.StartTime,
		VRFSignature:   v.VRFSignature,
		State:          v.State,
	}
}
