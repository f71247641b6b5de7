package fairness

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/converter"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"github.com/memeworldorder/tetris-game-sub004/internal/vrf"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/exp/slog"
	"io"
	"strconv"
	"time"
)

var (
	ErrSessionFinished = errors.New("session already exported")
	ErrSessionExists   = errors.New("session already initialized")
)

type PieceType string

const (
	PieceI PieceType = "I"
	PieceO PieceType = "O"
	PieceT PieceType = "T"
	PieceS PieceType = "S"
	PieceZ PieceType = "Z"
	PieceJ PieceType = "J"
	PieceL PieceType = "L"
)

var pieceKinds = [7]PieceType{PieceI, PieceO, PieceT, PieceS, PieceZ, PieceJ, PieceL}

const (
	selectContext = "piece-select"
	proofContext  = "piece-proof"
)

// PieceGenerationResult is one step of a session's piece stream.
// SeedUsed is never serialized with the result: it is disclosed only
// after the game ends, at which point anyone can replay the stream.
type PieceGenerationResult struct {
	SessionID  string    `json:"session_id"`
	PieceIndex uint64    `json:"piece_index"`
	PieceType  PieceType `json:"piece_type"`
	Proof      string    `json:"proof"`
	SeedUsed   string    `json:"-"`
}

// PieceEngine owns VRFSessions for their lifetime and derives each
// session's deterministic piece stream.
//
// Piece type and proof come from the same per-piece seed but through
// distinct HKDF contexts, so the proof exposes nothing about the
// selection value beyond what the seed itself discloses.
type PieceEngine struct {
	sessions  *SessionStore
	authority *vrf.SeedAuthority
	log       *slog.Logger
}

func NewPieceEngine(sessions *SessionStore, authority *vrf.SeedAuthority, log *slog.Logger) *PieceEngine {
	return &PieceEngine{
		sessions:  sessions,
		authority: authority,
		log:       log,
	}
}

// InitializeSession derives a fresh master seed from the daily seed
// and anchors it publicly through its hash. An empty sessionID gets a
// generated one.
func (e *PieceEngine) InitializeSession(wallet string, sessionID string) (*SessionSnapshot, error) {
	const op = "fairness.PieceEngine.InitializeSession"

	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	// A live session must never be replaced: a new master seed would
	// reset the piece index and orphan the seed the commitment binds.
	if _, err := e.sessions.Get(sessionID); err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionExists)
	}

	roundSeed, err := e.authority.DeriveRoundSeed(wallet, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	current, err := e.authority.CurrentSeed()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()

	mac := hmac.New(sha256.New, roundSeed)
	mac.Write([]byte(wallet + ":" + strconv.FormatInt(now.UnixNano(), 10)))
	masterSeed := mac.Sum(nil)

	hash := sha256.Sum256(masterSeed)

	session := &VRFSession{
		SessionID:      sessionID,
		WalletAddress:  wallet,
		masterSeed:     masterSeed,
		MasterSeedHash: hex.EncodeToString(hash[:]),
		PieceIndex:     0,
		StartTime:      now,
		VRFSignature:   current.VRFSignature,
		State:          StateInitialized,
	}

	e.sessions.Put(session)

	e.log.Info("session initialized",
		sl.String("session_id", sessionID),
		sl.String("wallet", wallet),
		sl.String("master_seed_hash", session.MasterSeedHash))

	return session.snapshot(), nil
}

// GenerateNextPiece derives the next piece of the session's stream
// and advances the index by exactly one.
func (e *PieceEngine) GenerateNextPiece(sessionID string) (*PieceGenerationResult, error) {
	const op = "fairness.PieceEngine.GenerateNextPiece"

	session, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State == StateExported {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionFinished)
	}

	index := session.PieceIndex
	pieceSeed := derivePieceSeed(session.masterSeed, index)

	session.PieceIndex++
	session.State = StateGenerating

	e.sessions.Touch(sessionID)

	return &PieceGenerationResult{
		SessionID:  sessionID,
		PieceIndex: index,
		PieceType:  pieceTypeFromSeed(pieceSeed, index),
		Proof:      proofFromSeed(pieceSeed, index),
		SeedUsed:   hex.EncodeToString(pieceSeed),
	}, nil
}

// VerifyPieceGeneration recomputes proof and piece type from the
// disclosed per-piece seed and the claimed index. Malformed input is
// simply not a valid proof: the answer is false, never an error.
func (e *PieceEngine) VerifyPieceGeneration(piece *PieceGenerationResult) bool {
	if piece == nil || piece.SeedUsed == "" {
		return false
	}

	pieceSeed, err := hex.DecodeString(piece.SeedUsed)
	if err != nil || len(pieceSeed) != sha256.Size {
		return false
	}

	if proofFromSeed(pieceSeed, piece.PieceIndex) != piece.Proof {
		return false
	}

	return pieceTypeFromSeed(pieceSeed, piece.PieceIndex) == piece.PieceType
}

// GetSessionSnapshot returns the public view of a session without
// changing its state.
func (e *PieceEngine) GetSessionSnapshot(sessionID string) (*SessionSnapshot, error) {
	const op = "fairness.PieceEngine.GetSessionSnapshot"

	session, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	return session.snapshot(), nil
}

// ExportSessionData closes the session for generation and returns the
// public snapshot used for server-side validation of a finished game.
func (e *PieceEngine) ExportSessionData(sessionID string) (*SessionSnapshot, error) {
	const op = "fairness.PieceEngine.ExportSessionData"

	session, err := e.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	session.State = StateExported

	return session.snapshot(), nil
}

// CleanupOldSessions sweeps out sessions past their TTL. Active
// sessions are safe: every generate call re-arms the TTL.
func (e *PieceEngine) CleanupOldSessions() {
	before := e.sessions.Count()

	e.sessions.DeleteExpired()

	if evicted := before - e.sessions.Count(); evicted > 0 {
		e.log.Info("old sessions evicted", sl.Int("count", evicted))
	}
}

// ReplayPieces regenerates the first n pieces of a session's stream
// from a disclosed master seed. Third parties use this after reveal
// to catch any divergence from the served stream.
func ReplayPieces(masterSeed []byte, n uint64) []PieceGenerationResult {
	pieces := make([]PieceGenerationResult, 0, n)

	for i := uint64(0); i < n; i++ {
		pieceSeed := derivePieceSeed(masterSeed, i)

		pieces = append(pieces, PieceGenerationResult{
			PieceIndex: i,
			PieceType:  pieceTypeFromSeed(pieceSeed, i),
			Proof:      proofFromSeed(pieceSeed, i),
			SeedUsed:   hex.EncodeToString(pieceSeed),
		})
	}

	return pieces
}

func derivePieceSeed(masterSeed []byte, index uint64) []byte {
	mac := hmac.New(sha256.New, masterSeed)
	mac.Write([]byte("piece:" + strconv.FormatUint(index, 10)))

	return mac.Sum(nil)
}

func pieceTypeFromSeed(pieceSeed []byte, index uint64) PieceType {
	sel := expand(pieceSeed, selectContext, index)

	return pieceKinds[converter.BytesToUint64(sel)%7]
}

func proofFromSeed(pieceSeed []byte, index uint64) string {
	return hex.EncodeToString(expand(pieceSeed, proofContext, index))
}

func expand(secret []byte, context string, index uint64) []byte {
	r := hkdf.New(sha256.New, secret, nil, []byte(context+":"+strconv.FormatUint(index, 10)))

	out := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, out); err != nil {
		panic(err)
	}

	return out
}
