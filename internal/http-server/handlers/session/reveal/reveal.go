package reveal

import (
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/memeworldorder/tetris-game-sub004/internal/fairness"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/event"
	resp "github.com/memeworldorder/tetris-game-sub004/internal/lib/api/response"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"github.com/memeworldorder/tetris-game-sub004/internal/repository"
	"golang.org/x/exp/slog"
	"net/http"
)

type Response struct {
	resp.Response
	SessionID      string `json:"session_id"`
	MasterSeedHash string `json:"master_seed_hash"`
	RevealedSeed   string `json:"revealed_seed"`
	PieceCount     uint64 `json:"piece_count"`
}

// SeedReveal closes a session and discloses its master seed so any
// third party can replay the piece stream against the commitment.
type SeedReveal struct {
	log           *slog.Logger
	engine        *fairness.PieceEngine
	commits       *fairness.CommitRevealManager
	commitmentRep *repository.CommitmentRepository
	pusher        *event.PusherEvent
}

func NewSeedReveal(
	log *slog.Logger,
	engine *fairness.PieceEngine,
	commits *fairness.CommitRevealManager,
	commitmentRep *repository.CommitmentRepository,
	pusher *event.PusherEvent) *SeedReveal {
	return &SeedReveal{
		log:           log,
		engine:        engine,
		commits:       commits,
		commitmentRep: commitmentRep,
		pusher:        pusher,
	}
}

func (s *SeedReveal) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.session.reveal.New"

		var (
			err      error
			log      *slog.Logger
			snapshot *fairness.SessionSnapshot
			seed     string
		)

		log = s.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		sessionID := chi.URLParam(r, "uuid")

		snapshot, err = s.engine.ExportSessionData(sessionID)
		if err != nil {
			if errors.Is(err, fairness.ErrSessionNotFound) {
				log.Info("session not found", sl.String("session_id", sessionID))

				render.JSON(w, r, resp.NotFound("session not found"))

				return
			}

			log.Error("failed to export session", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to export session", http.StatusInternalServerError))

			return
		}

		seed, err = s.commits.RevealSeed(sessionID)
		if err != nil {
			if errors.Is(err, fairness.ErrSeedNotCommitted) {
				log.Info("no commitment for session", sl.String("session_id", sessionID))

				render.JSON(w, r, resp.NotFound("no commitment for session"))

				return
			}

			if errors.Is(err, fairness.ErrSessionActive) {
				log.Warn("reveal attempted on active session", sl.String("session_id", sessionID))

				render.JSON(w, r, resp.Error("session still active", http.StatusConflict))

				return
			}

			log.Error("failed to reveal seed", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to reveal seed", http.StatusInternalServerError))

			return
		}

		if err = s.commitmentRep.MarkRevealed(sessionID, seed); err != nil {
			log.Error("failed to persist revealed seed", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to persist revealed seed", http.StatusInternalServerError))

			return
		}

		log.Info("seed revealed", slog.String("session_id", sessionID))

		err = s.pusher.TriggerEvent(event.SessionChannel, event.SeedRevealedEvent, map[string]interface{}{
			"session_id":       sessionID,
			"master_seed_hash": snapshot.MasterSeedHash,
			"piece_count":      snapshot.PieceIndex,
		})
		if err != nil {
			log.Error("failed to send seed revealed event", sl.Err(err))
		}

		render.JSON(w, r, Response{
			Response:       resp.OK(),
			SessionID:      sessionID,
			MasterSeedHash: snapshot.MasterSeedHash,
			RevealedSeed:   seed,
			PieceCount:     snapshot.PieceIndex,
		})
	}
}
