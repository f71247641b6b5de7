package fairness

import (
	"context"
	"encoding/hex"
	"errors"
	"github.com/memeworldorder/tetris-game-sub004/internal/vrf"
	"golang.org/x/exp/slog"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const beaconBody = `{"round":77,"randomness":"1a9c1f2e3b4d5a6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7","signature":"deadbeef"}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) (*PieceEngine, *SessionStore) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(beaconBody))
	}))
	t.Cleanup(srv.Close)

	oracle := vrf.NewOracleClient(srv.URL, time.Second, 1, testLogger())
	authority := vrf.NewSeedAuthority(oracle, testLogger())

	if _, err := authority.Rotate(context.Background()); err != nil {
		t.Fatalf("failed to rotate test seed: %v", err)
	}

	store := NewSessionStore(time.Minute, time.Minute)

	return NewPieceEngine(store, authority, testLogger()), store
}

func TestPieceEngine_InitializeSession(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)

	snapshot, err := engine.InitializeSession("0xabc", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.SessionID == "" {
		t.Error("expected a generated session id")
	}

	if snapshot.PieceIndex != 0 {
		t.Errorf("unexpected piece index, want: 0, got: %d", snapshot.PieceIndex)
	}

	if len(snapshot.MasterSeedHash) != 64 {
		t.Errorf("unexpected master seed hash length: %d", len(snapshot.MasterSeedHash))
	}

	if snapshot.VRFSignature != "deadbeef" {
		t.Errorf("unexpected vrf signature: %s", snapshot.VRFSignature)
	}

	if snapshot.State != StateInitialized {
		t.Errorf("unexpected state: %s", snapshot.State)
	}
}

func TestPieceEngine_SequentialIndices(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)

	snapshot, err := engine.InitializeSession("0xabc", "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := uint64(0); i < 25; i++ {
		piece, err := engine.GenerateNextPiece(snapshot.SessionID)
		if err != nil {
			t.Fatalf("unexpected error at index %d: %v", i, err)
		}

		if piece.PieceIndex != i {
			t.Fatalf("unexpected index, want: %d, got: %d", i, piece.PieceIndex)
		}
	}
}

func TestPieceEngine_RefusesReinitialization(t *testing.T) {
	t.Parallel()

	engine, store := newTestEngine(t)
	commits := NewCommitRevealManager(store, testLogger())

	first, err := engine.InitializeSession("0xabc", "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	commitment, err := commits.CommitSeed("0xabc", "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err = engine.GenerateNextPiece("session-1"); err != nil {
			t.Fatalf("unexpected error at index %d: %v", i, err)
		}
	}

	if _, err = engine.InitializeSession("0xabc", "session-1"); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("want ErrSessionExists, got: %v", err)
	}

	if _, err = engine.InitializeSession("0xother", "session-1"); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("want ErrSessionExists for another wallet, got: %v", err)
	}

	piece, err := engine.GenerateNextPiece("session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if piece.PieceIndex != 5 {
		t.Fatalf("piece index regressed, want: 5, got: %d", piece.PieceIndex)
	}

	snapshot, err := engine.GetSessionSnapshot("session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.MasterSeedHash != first.MasterSeedHash {
		t.Error("master seed changed under a live session")
	}

	if commitment.SeedHash != first.MasterSeedHash {
		t.Errorf("commitment no longer binds the session seed, want: %s, got: %s",
			first.MasterSeedHash, commitment.SeedHash)
	}
}

func TestPieceEngine_ConcurrentGeneration(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)

	if _, err := engine.InitializeSession("0xabc", "session-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const workers = 8
	const perWorker = 50

	indices := make(chan uint64, workers*perWorker)

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := 0; i < perWorker; i++ {
				piece, err := engine.GenerateNextPiece("session-1")
				if err != nil {
					t.Errorf("unexpected error: %v", err)

					return
				}

				indices <- piece.PieceIndex
			}
		}()
	}

	wg.Wait()
	close(indices)

	seen := make(map[uint64]bool, workers*perWorker)
	for idx := range indices {
		if seen[idx] {
			t.Fatalf("duplicate piece index: %d", idx)
		}

		seen[idx] = true
	}

	if len(seen) != workers*perWorker {
		t.Fatalf("unexpected index count, want: %d, got: %d", workers*perWorker, len(seen))
	}

	for i := uint64(0); i < workers*perWorker; i++ {
		if !seen[i] {
			t.Fatalf("gap in piece indices at %d", i)
		}
	}
}

func TestPieceEngine_VerifyPieceGeneration(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)

	if _, err := engine.InitializeSession("0xabc", "session-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	piece, err := engine.GenerateNextPiece("session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !engine.VerifyPieceGeneration(piece) {
		t.Fatal("genuine piece failed verification")
	}

	cases := []struct {
		name   string
		mutate func(p *PieceGenerationResult)
	}{
		{
			name:   "TamperedProof",
			mutate: func(p *PieceGenerationResult) { p.Proof = "00" + p.Proof[2:] },
		},
		{
			name:   "TamperedIndex",
			mutate: func(p *PieceGenerationResult) { p.PieceIndex++ },
		},
		{
			name: "TamperedPieceType",
			mutate: func(p *PieceGenerationResult) {
				for _, kind := range pieceKinds {
					if kind != p.PieceType {
						p.PieceType = kind

						return
					}
				}
			},
		},
		{
			name:   "TamperedSeed",
			mutate: func(p *PieceGenerationResult) { p.SeedUsed = p.SeedUsed[2:] + "ff" },
		},
		{
			name:   "MalformedSeed",
			mutate: func(p *PieceGenerationResult) { p.SeedUsed = "not-hex" },
		},
		{
			name:   "EmptySeed",
			mutate: func(p *PieceGenerationResult) { p.SeedUsed = "" },
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mutated := *piece
			tc.mutate(&mutated)

			if engine.VerifyPieceGeneration(&mutated) {
				t.Error("tampered piece passed verification")
			}
		})
	}

	if engine.VerifyPieceGeneration(nil) {
		t.Error("nil piece passed verification")
	}
}

func TestPieceEngine_DistinctSessionsDistinctStreams(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)

	if _, err := engine.InitializeSession("0xabc", "session-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.InitializeSession("0xabc", "session-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	same := true

	for i := 0; i < 10; i++ {
		p1, err := engine.GenerateNextPiece("session-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		p2, err := engine.GenerateNextPiece("session-2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if p1.Proof != p2.Proof {
			same = false
		}
	}

	if same {
		t.Error("two sessions of the same wallet produced identical streams")
	}
}

func TestPieceEngine_AllKindsAppear(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)

	if _, err := engine.InitializeSession("0xabc", "session-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[PieceType]bool, 7)

	for i := 0; i < 300; i++ {
		piece, err := engine.GenerateNextPiece("session-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		seen[piece.PieceType] = true
	}

	for _, kind := range pieceKinds {
		if !seen[kind] {
			t.Errorf("piece kind %s never appeared in 300 draws", kind)
		}
	}
}

func TestPieceEngine_ExportAndCleanup(t *testing.T) {
	t.Parallel()

	engine, store := newTestEngine(t)

	if _, err := engine.InitializeSession("0xabc", "session-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := engine.GenerateNextPiece("session-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot, err := engine.ExportSessionData("session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.State != StateExported {
		t.Errorf("unexpected state: %s", snapshot.State)
	}

	if snapshot.PieceIndex != 1 {
		t.Errorf("unexpected piece index, want: 1, got: %d", snapshot.PieceIndex)
	}

	if _, err = engine.GenerateNextPiece("session-1"); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("want ErrSessionFinished, got: %v", err)
	}

	if _, err = engine.GenerateNextPiece("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got: %v", err)
	}

	if _, err = engine.ExportSessionData("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got: %v", err)
	}

	store.Delete("session-1")
	engine.CleanupOldSessions()

	if _, err = engine.ExportSessionData("session-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound after eviction, got: %v", err)
	}
}

func TestReplayPieces(t *testing.T) {
	t.Parallel()

	masterSeed := []byte("0123456789abcdef0123456789abcdef")

	pieces := ReplayPieces(masterSeed, 10)
	if len(pieces) != 10 {
		t.Fatalf("unexpected piece count: %d", len(pieces))
	}

	again := ReplayPieces(masterSeed, 10)

	for i := range pieces {
		if pieces[i].PieceIndex != uint64(i) {
			t.Errorf("unexpected index at %d: %d", i, pieces[i].PieceIndex)
		}

		if pieces[i].Proof != again[i].Proof || pieces[i].PieceType != again[i].PieceType {
			t.Errorf("replay is not deterministic at index %d", i)
		}

		if seed, err := hex.DecodeString(pieces[i].SeedUsed); err != nil || len(seed) == 0 {
			t.Errorf("malformed seed at index %d", i)
		}
	}
}
