package vrf

import (
	"bytes"
	"context"
	"errors"
	"golang.org/x/exp/slog"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOracleServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))

	t.Cleanup(srv.Close)

	return srv
}

const beaconBody = `{"round":4242,"randomness":"8d7f0c2871b9d5a2b0df42d14b9e7480b3a1f4fe499931cfdc1f883fc2869df6","signature":"aabbcc"}`

func newTestAuthority(t *testing.T, srv *httptest.Server) *SeedAuthority {
	t.Helper()

	oracle := NewOracleClient(srv.URL, time.Second, 1, testLogger())

	return NewSeedAuthority(oracle, testLogger())
}

func TestSeedAuthority_Rotate(t *testing.T) {
	t.Parallel()

	srv := testOracleServer(t, beaconBody, http.StatusOK)
	authority := newTestAuthority(t, srv)

	seed, err := authority.Rotate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if seed.Round != 4242 {
		t.Errorf("unexpected round, want: 4242, got: %d", seed.Round)
	}

	if len(seed.Seed) != 32 {
		t.Errorf("unexpected seed length, want: 32, got: %d", len(seed.Seed))
	}

	if seed.VRFSignature != "aabbcc" {
		t.Errorf("unexpected signature: %s", seed.VRFSignature)
	}

	if !seed.RotatesAt.After(time.Now().UTC()) {
		t.Errorf("rotation deadline is not in the future: %s", seed.RotatesAt)
	}

	current, err := authority.CurrentSeed()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(current.Seed, seed.Seed) {
		t.Error("current seed does not match rotated seed")
	}
}

func TestSeedAuthority_FailClosed(t *testing.T) {
	t.Parallel()

	srv := testOracleServer(t, "oops", http.StatusInternalServerError)
	authority := newTestAuthority(t, srv)

	if _, err := authority.Rotate(context.Background()); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("want ErrOracleUnavailable, got: %v", err)
	}

	if _, err := authority.CurrentSeed(); !errors.Is(err, ErrNoActiveSeed) {
		t.Fatalf("want ErrNoActiveSeed, got: %v", err)
	}

	if _, err := authority.DeriveRoundSeed("0xabc", "session-1"); !errors.Is(err, ErrNoActiveSeed) {
		t.Fatalf("want ErrNoActiveSeed, got: %v", err)
	}
}

func TestSeedAuthority_RotateKeepsOldSeedOnFailure(t *testing.T) {
	t.Parallel()

	var fail bool
	var mu sync.Mutex

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		broken := fail
		mu.Unlock()

		if broken {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		_, _ = w.Write([]byte(beaconBody))
	}))
	t.Cleanup(srv.Close)

	authority := newTestAuthority(t, srv)

	first, err := authority.Rotate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	fail = true
	mu.Unlock()

	if _, err = authority.Rotate(context.Background()); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("want ErrOracleUnavailable, got: %v", err)
	}

	current, err := authority.CurrentSeed()
	if err != nil {
		t.Fatalf("old seed should stay active: %v", err)
	}

	if !bytes.Equal(current.Seed, first.Seed) {
		t.Error("active seed changed after failed rotation")
	}
}

func TestSeedAuthority_DeriveRoundSeed(t *testing.T) {
	t.Parallel()

	srv := testOracleServer(t, beaconBody, http.StatusOK)
	authority := newTestAuthority(t, srv)

	if _, err := authority.Rotate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a1, err := authority.DeriveRoundSeed("0xabc", "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a2, err := authority.DeriveRoundSeed("0xabc", "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(a1, a2) {
		t.Error("derivation is not deterministic")
	}

	b, err := authority.DeriveRoundSeed("0xabc", "session-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bytes.Equal(a1, b) {
		t.Error("different sessions derived the same round seed")
	}

	c, err := authority.DeriveRoundSeed("0xdef", "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bytes.Equal(a1, c) {
		t.Error("different wallets derived the same round seed")
	}
}

func TestSeedAuthority_ConcurrentDeriveDuringRotate(t *testing.T) {
	t.Parallel()

	srv := testOracleServer(t, beaconBody, http.StatusOK)
	authority := newTestAuthority(t, srv)

	if _, err := authority.Rotate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < 100; j++ {
				seed, err := authority.DeriveRoundSeed("0xabc", "session-1")
				if err != nil {
					t.Errorf("unexpected error: %v", err)

					return
				}
				if len(seed) != 32 {
					t.Errorf("torn read: seed length %d", len(seed))

					return
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		if _, err := authority.Rotate(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	wg.Wait()
}
