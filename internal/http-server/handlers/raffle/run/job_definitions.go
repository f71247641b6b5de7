package run

import (
	"github.com/memeworldorder/tetris-game-sub004/internal/fairness"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/event"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"github.com/memeworldorder/tetris-game-sub004/internal/raffle"
	"golang.org/x/exp/slog"
	"time"
)

// RootPublishJob pushes the audit tree root for a finished run so
// clients can fetch proofs against it.
type RootPublishJob struct {
	pusher  *event.PusherEvent
	log     *slog.Logger
	runDate time.Time
	root    string
	budget  int
}

func (j *RootPublishJob) Execute() {
	err := j.pusher.TriggerEvent(event.RaffleChannel, event.RootPublishedEvent, map[string]interface{}{
		"run_date":      j.runDate.Format("2006-01-02"),
		"merkle_root":   j.root,
		"ticket_budget": j.budget,
	})
	if err != nil {
		j.log.Error("failed to publish merkle root", sl.Err(err))
	}
}

// WinnerAnnounceJob announces the drawn winners on the raffle
// channel.
type WinnerAnnounceJob struct {
	pusher  *event.PusherEvent
	log     *slog.Logger
	runID   int64
	winners []raffle.DrawWinner
}

func (j *WinnerAnnounceJob) Execute() {
	err := j.pusher.TriggerEvent(event.RaffleChannel, event.WinnersDrawnEvent, map[string]interface{}{
		"run_id":  j.runID,
		"winners": j.winners,
	})
	if err != nil {
		j.log.Error("failed to announce winners", sl.Err(err))
	}
}

// SessionSweepJob evicts expired sessions from the in-memory store.
type SessionSweepJob struct {
	Engine *fairness.PieceEngine
}

func (j *SessionSweepJob) Execute() {
	j.Engine.CleanupOldSessions()
}
