package run

import (
	"errors"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/event"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/job"
	resp "github.com/memeworldorder/tetris-game-sub004/internal/lib/api/response"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"github.com/memeworldorder/tetris-game-sub004/internal/raffle"
	"github.com/memeworldorder/tetris-game-sub004/internal/repository"
	"github.com/memeworldorder/tetris-game-sub004/internal/vrf"
	"golang.org/x/exp/slog"
	"net/http"
	"time"
)

type Response struct {
	resp.Response
	RunID          int64               `json:"run_id"`
	RunDate        string              `json:"run_date"`
	QualifiedCount int                 `json:"qualified_count"`
	TicketBudget   int                 `json:"ticket_budget"`
	MerkleRoot     string              `json:"merkle_root"`
	Winners        []raffle.DrawWinner `json:"winners"`
}

// RaffleRun executes the daily raffle pipeline for the previous UTC
// day: qualification over attested plays, ticket assignment, audit
// tree construction and the beacon-seeded draw. The whole run is
// deterministic given the play set and the day's beacon, so anyone
// holding the published root and randomness can reproduce it.
type RaffleRun struct {
	log       *slog.Logger
	tickets   *raffle.TicketManager
	draw      *raffle.DrawManager
	authority *vrf.SeedAuthority
	playRep   *repository.PlayRepository
	raffleRep *repository.RaffleRepository
	pusher    *event.PusherEvent
	jobs      job.Queue
	winners   int
}

func NewRaffleRun(
	log *slog.Logger,
	tickets *raffle.TicketManager,
	draw *raffle.DrawManager,
	authority *vrf.SeedAuthority,
	playRep *repository.PlayRepository,
	raffleRep *repository.RaffleRepository,
	pusher *event.PusherEvent,
	jobs job.Queue,
	winners int) *RaffleRun {
	return &RaffleRun{
		log:       log,
		tickets:   tickets,
		draw:      draw,
		authority: authority,
		playRep:   playRep,
		raffleRep: raffleRep,
		pusher:    pusher,
		jobs:      jobs,
		winners:   winners,
	}
}

func (h *RaffleRun) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.raffle.run.New"

		var (
			err   error
			log   *slog.Logger
			plays []raffle.Play
			seed  *vrf.DailySeed
			runID int64
		)

		log = h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		runDate := time.Now().UTC().AddDate(0, 0, -1)

		plays, err = h.playRep.GetDailyPlays(runDate)
		if err != nil {
			log.Error("failed to load daily plays", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to load daily plays", http.StatusInternalServerError))

			return
		}

		qualified := h.tickets.GetDailyQualifiedWallets(plays)
		budget := h.tickets.CalculateTicketBudget(qualified)
		tree := raffle.BuildTree(qualified)

		seed, err = h.authority.CurrentSeed()
		if err != nil {
			log.Error("no active daily seed", sl.Err(err))

			render.JSON(w, r, resp.Error("randomness unavailable", http.StatusServiceUnavailable))

			return
		}

		// A day without qualified wallets or tickets still produces a
		// run record with the sentinel root and zero winners.
		winners, err := h.draw.DrawWinners(seed.Seed, qualified, h.winners)
		if err != nil && !errors.Is(err, raffle.ErrNoTickets) && !errors.Is(err, raffle.ErrEmptyQualificationSet) {
			log.Error("draw failed", sl.Err(err))

			render.JSON(w, r, resp.Error("draw failed", http.StatusInternalServerError))

			return
		}

		runID, err = h.raffleRep.SaveQualificationRun(runDate, qualified, budget, tree.Root)
		if err != nil {
			log.Error("failed to save qualification run", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to save qualification run", http.StatusInternalServerError))

			return
		}

		if len(winners) > 0 {
			if err = h.raffleRep.SaveWinners(runID, winners); err != nil {
				log.Error("failed to save winners", sl.Err(err))

				render.JSON(w, r, resp.Error("failed to save winners", http.StatusInternalServerError))

				return
			}
		}

		log.Info("raffle run complete",
			slog.Int64("run_id", runID),
			slog.Int("qualified", len(qualified)),
			slog.Int("winners", len(winners)),
		)

		h.jobs.Dispatch(&RootPublishJob{
			pusher:  h.pusher,
			log:     log,
			runDate: runDate,
			root:    tree.Root,
			budget:  budget,
		}, 0)

		h.jobs.Dispatch(&WinnerAnnounceJob{
			pusher:  h.pusher,
			log:     log,
			runID:   runID,
			winners: winners,
		}, time.Second)

		render.JSON(w, r, Response{
			Response:       resp.OK(),
			RunID:          runID,
			RunDate:        runDate.Format("2006-01-02"),
			QualifiedCount: len(qualified),
			TicketBudget:   budget,
			MerkleRoot:     tree.Root,
			Winners:        winners,
		})
	}
}
