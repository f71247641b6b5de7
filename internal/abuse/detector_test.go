package abuse

import (
	"math/rand"
	"testing"
)

func TestDetectBot_ExactSpacing(t *testing.T) {
	t.Parallel()

	timestamps := make([]int64, 60)
	for i := range timestamps {
		timestamps[i] = int64(i) * 50
	}

	result := DetectBot(timestamps)

	if !result.IsBot {
		t.Error("exact 50ms spacing not flagged as bot")
	}

	if result.Confidence < BotThreshold {
		t.Errorf("confidence below threshold: %f", result.Confidence)
	}

	if result.MeanDelta != 50 {
		t.Errorf("unexpected mean delta, want: 50, got: %f", result.MeanDelta)
	}

	if result.Stddev != 0 {
		t.Errorf("unexpected stddev, want: 0, got: %f", result.Stddev)
	}
}

func TestDetectBot_HumanJitter(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(1))

	timestamps := make([]int64, 60)

	var now int64
	for i := range timestamps {
		timestamps[i] = now
		// Human-like spacing: 70ms base with 20-150ms of jitter.
		now += 70 + 20 + rnd.Int63n(130)
	}

	human := DetectBot(timestamps)

	machine := make([]int64, 60)
	for i := range machine {
		machine[i] = int64(i) * 50
	}

	bot := DetectBot(machine)

	if human.IsBot {
		t.Errorf("human-like jitter flagged as bot, confidence: %f", human.Confidence)
	}

	if human.Confidence >= bot.Confidence {
		t.Errorf("human confidence %f not materially below bot confidence %f",
			human.Confidence, bot.Confidence)
	}
}

func TestDetectBot_SuperhumanSpeed(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(2))

	timestamps := make([]int64, 60)

	var now int64
	for i := range timestamps {
		timestamps[i] = now
		// Fast and slightly jittered, as replay bots tend to be.
		now += 8 + rnd.Int63n(6)
	}

	result := DetectBot(timestamps)

	if result.Confidence == 0 {
		t.Error("superhuman spacing produced zero confidence")
	}

	if result.MinDelta >= 15 {
		t.Errorf("unexpected min delta: %d", result.MinDelta)
	}
}

func TestDetectBot_DegenerateInput(t *testing.T) {
	cases := []struct {
		name       string
		timestamps []int64
	}{
		{
			name:       "Empty",
			timestamps: nil,
		},
		{
			name:       "TooFewMoves",
			timestamps: []int64{0, 50, 100},
		},
		{
			name:       "OutOfOrder",
			timestamps: []int64{0, 100, 50, 200, 300, 400},
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := DetectBot(tc.timestamps)

			if result.IsBot || result.Confidence != 0 {
				t.Errorf("degenerate input produced a signal: %+v", result)
			}
		})
	}
}
