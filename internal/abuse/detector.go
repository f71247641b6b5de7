package abuse

import (
	"math"
)

const (
	// BotThreshold is the confidence at or above which a session is
	// flagged. The flag is advisory and feeds analytics, never a hard
	// rejection: rhythmic human play is common enough that false
	// positives would be costly.
	BotThreshold = 0.5

	minMovesForSignal = 5
)

// Result is the advisory bot-likeness signal for one session's move
// timing.
type Result struct {
	IsBot      bool    `json:"is_bot"`
	Confidence float64 `json:"confidence"`
	MeanDelta  float64 `json:"mean_delta_ms"`
	Stddev     float64 `json:"stddev_ms"`
	MinDelta   int64   `json:"min_delta_ms"`
}

// DetectBot scores inter-move timestamp deltas for machine-like
// regularity. Timestamps are unix milliseconds in move order. Too few
// moves yield zero confidence rather than a guess.
func DetectBot(timestamps []int64) Result {
	if len(timestamps) < minMovesForSignal {
		return Result{}
	}

	deltas := make([]float64, 0, len(timestamps)-1)

	minDelta := int64(math.MaxInt64)

	for i := 1; i < len(timestamps); i++ {
		d := timestamps[i] - timestamps[i-1]
		if d < 0 {
			// Out-of-order input carries no usable signal.
			return Result{}
		}

		if d < minDelta {
			minDelta = d
		}

		deltas = append(deltas, float64(d))
	}

	mean := meanOf(deltas)
	stddev := stddevOf(deltas, mean)

	var confidence float64

	// Near-zero variance is the strongest machine tell: humans cannot
	// hold a fixed inter-move interval.
	if mean > 0 {
		switch cv := stddev / mean; {
		case cv < 0.05:
			confidence += 0.6
		case cv < 0.15:
			confidence += 0.3
		}
	}

	// Sustained superhuman speed.
	if mean > 0 && mean < 40 {
		confidence += 0.3
	}

	// Single impossibly fast moves.
	if minDelta < 15 {
		confidence += 0.2
	}

	if confidence > 1 {
		confidence = 1
	}

	return Result{
		IsBot:      confidence >= BotThreshold,
		Confidence: confidence,
		MeanDelta:  mean,
		Stddev:     stddev,
		MinDelta:   minDelta,
	}
}

func meanOf(values []float64) float64 {
	var sum float64

	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func stddevOf(values []float64, mean float64) float64 {
	var sum float64

	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}

	return math.Sqrt(sum / float64(len(values)))
}
