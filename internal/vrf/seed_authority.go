package vrf

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
	"sync"
	"time"
)

var ErrNoActiveSeed = errors.New("no active daily seed")

// DailySeed is the current day's randomness anchor. Seed is the
// decoded beacon randomness; VRFSignature is the beacon's proof that
// the randomness was produced honestly.
type DailySeed struct {
	Seed         []byte
	VRFSignature string
	Round        uint64
	RotatesAt    time.Time
}

// SeedAuthority holds the active daily seed and swaps it atomically
// at UTC midnight. Policy on oracle failure is fail-closed: Rotate
// reports ErrOracleUnavailable and the previous seed, if any, stays
// active so in-flight sessions keep working.
type SeedAuthority struct {
	mu       sync.RWMutex
	current  *DailySeed
	oracle   *OracleClient
	onRotate func(*DailySeed)
	log      *slog.Logger
}

func NewSeedAuthority(oracle *OracleClient, log *slog.Logger) *SeedAuthority {
	return &SeedAuthority{
		oracle: oracle,
		log:    log,
	}
}

// OnRotate registers a callback invoked after every successful
// rotation. Set it before RunRotation starts.
func (a *SeedAuthority) OnRotate(fn func(*DailySeed)) {
	a.onRotate = fn
}

// Rotate fetches a fresh beacon round and installs it as the daily
// seed in one swap, so no reader observes a half-rotated state.
func (a *SeedAuthority) Rotate(ctx context.Context) (*DailySeed, error) {
	const op = "vrf.SeedAuthority.Rotate"

	beacon, err := a.oracle.Fetch(ctx)
	if err != nil {
		a.log.Error("failed to fetch beacon, keeping previous seed", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seed, err := hex.DecodeString(beacon.Randomness)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed beacon randomness: %w", op, err)
	}

	next := &DailySeed{
		Seed:         seed,
		VRFSignature: beacon.Signature,
		Round:        beacon.Round,
		RotatesAt:    nextUTCMidnight(time.Now().UTC()),
	}

	a.mu.Lock()
	a.current = next
	a.mu.Unlock()

	a.log.Info("daily seed rotated",
		sl.Uint64("round", beacon.Round),
		sl.String("rotates_at", next.RotatesAt.Format(time.RFC3339)))

	if a.onRotate != nil {
		a.onRotate(next)
	}

	return next, nil
}

// CurrentSeed returns the active daily seed.
func (a *SeedAuthority) CurrentSeed() (*DailySeed, error) {
	const op = "vrf.SeedAuthority.CurrentSeed"

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.current == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoActiveSeed)
	}

	return a.current, nil
}

// DeriveRoundSeed derives a per-session seed from the daily seed.
// Different wallet/session pairs get independent seeds while all of
// them inherit the beacon's unpredictability.
func (a *SeedAuthority) DeriveRoundSeed(wallet string, sessionID string) ([]byte, error) {
	const op = "vrf.SeedAuthority.DeriveRoundSeed"

	current, err := a.CurrentSeed()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mac := hmac.New(sha256.New, current.Seed)
	mac.Write([]byte(wallet + ":" + sessionID))

	return mac.Sum(nil), nil
}

// RunRotation rotates immediately and then once per UTC midnight
// until the context is cancelled.
func (a *SeedAuthority) RunRotation(ctx context.Context) {
	if _, err := a.Rotate(ctx); err != nil {
		a.log.Error("initial seed rotation failed", sl.Err(err))
	}

	for {
		a.mu.RLock()
		rotatesAt := nextUTCMidnight(time.Now().UTC())
		if a.current != nil {
			rotatesAt = a.current.RotatesAt
		}
		a.mu.RUnlock()

		timer := time.NewTimer(time.Until(rotatesAt))

		select {
		case <-ctx.Done():
			timer.Stop()

			return
		case <-timer.C:
			if _, err := a.Rotate(ctx); err != nil {
				a.log.Error("scheduled seed rotation failed", sl.Err(err))

				// Retry on the next sweep rather than spinning.
				time.Sleep(time.Minute)
			}
		}
	}
}

func nextUTCMidnight(now time.Time) time.Time {
	y, m, d := now.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
