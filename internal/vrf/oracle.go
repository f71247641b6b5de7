package vrf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/cenkalti/backoff/v4"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
	"net/http"
	"time"
)

var ErrOracleUnavailable = errors.New("vrf oracle unavailable")

// BeaconResult is one round of the external randomness beacon. The
// randomness and signature are hex strings exactly as the oracle
// publishes them, so clients can re-verify against the beacon's
// public key without any re-encoding.
type BeaconResult struct {
	Round      uint64 `json:"round"`
	Randomness string `json:"randomness"`
	Signature  string `json:"signature"`
}

type OracleClient struct {
	url        string
	maxRetries uint64
	client     *http.Client
	log        *slog.Logger
}

func NewOracleClient(url string, timeout time.Duration, maxRetries uint64, log *slog.Logger) *OracleClient {
	return &OracleClient{
		url:        url,
		maxRetries: maxRetries,
		client:     &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Fetch queries the beacon with exponential backoff. All failures
// collapse into ErrOracleUnavailable so callers can fail closed on a
// single sentinel.
func (c *OracleClient) Fetch(ctx context.Context) (*BeaconResult, error) {
	const op = "vrf.OracleClient.Fetch"

	var result BeaconResult

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			c.log.Warn("oracle request failed", sl.Err(err))

			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			c.log.Warn("oracle returned bad status", sl.Int("status", resp.StatusCode))

			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return err
		}

		if result.Randomness == "" {
			return errors.New("empty randomness in beacon response")
		}

		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)

	if err := backoff.Retry(operation, b); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrOracleUnavailable, err)
	}

	return &result, nil
}
