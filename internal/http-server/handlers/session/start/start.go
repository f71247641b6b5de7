package start

import (
	"errors"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/memeworldorder/tetris-game-sub004/internal/fairness"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/event"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/model"
	resp "github.com/memeworldorder/tetris-game-sub004/internal/lib/api/response"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"github.com/memeworldorder/tetris-game-sub004/internal/repository"
	"github.com/memeworldorder/tetris-game-sub004/internal/vrf"
	"golang.org/x/exp/slog"
	"net/http"
	"time"
)

type Request struct {
	WalletAddress string `json:"wallet_address" validate:"required"`
	SessionID     string `json:"session_id"`
}

type Response struct {
	resp.Response
	SessionID      string    `json:"session_id"`
	WalletAddress  string    `json:"wallet_address"`
	MasterSeedHash string    `json:"master_seed_hash"`
	SeedHash       string    `json:"seed_hash"`
	PieceIndex     uint64    `json:"piece_index"`
	StartTime      time.Time `json:"start_time"`
	VRFSignature   string    `json:"vrf_signature"`
}

type SessionStart struct {
	log           *slog.Logger
	validator     *validator.Validate
	engine        *fairness.PieceEngine
	commits       *fairness.CommitRevealManager
	commitmentRep *repository.CommitmentRepository
	pusher        *event.PusherEvent
}

func NewSessionStart(
	log *slog.Logger,
	engine *fairness.PieceEngine,
	commits *fairness.CommitRevealManager,
	commitmentRep *repository.CommitmentRepository,
	pusher *event.PusherEvent) *SessionStart {
	return &SessionStart{
		log:           log,
		validator:     validator.New(),
		engine:        engine,
		commits:       commits,
		commitmentRep: commitmentRep,
		pusher:        pusher,
	}
}

func (s *SessionStart) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.session.start.New"

		var (
			err        error
			req        Request
			log        *slog.Logger
			snapshot   *fairness.SessionSnapshot
			commitment *fairness.Commitment
		)

		log = s.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err = s.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		snapshot, err = s.engine.InitializeSession(req.WalletAddress, req.SessionID)
		if err != nil {
			if errors.Is(err, fairness.ErrSessionExists) {
				log.Warn("session already initialized", sl.String("session_id", req.SessionID))

				render.JSON(w, r, resp.Error("session already initialized", http.StatusConflict))

				return
			}

			if errors.Is(err, vrf.ErrNoActiveSeed) || errors.Is(err, vrf.ErrOracleUnavailable) {
				log.Error("no verifiable seed available, refusing session", sl.Err(err))

				render.JSON(w, r, resp.Error("randomness beacon unavailable", http.StatusServiceUnavailable))

				return
			}

			log.Error("failed to initialize session", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to initialize session", http.StatusInternalServerError))

			return
		}

		log.Info("session initialized", slog.String("session_id", snapshot.SessionID))

		commitment, err = s.commits.CommitSeed(req.WalletAddress, snapshot.SessionID)
		if err != nil {
			log.Error("failed to commit seed", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to commit seed", http.StatusInternalServerError))

			return
		}

		_, err = s.commitmentRep.SaveCommitment(model.Commitment{
			WalletAddress: commitment.WalletAddress,
			SessionID:     commitment.SessionID,
			SeedHash:      commitment.SeedHash,
		})
		if err != nil {
			log.Error("failed to save commitment", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to save commitment", http.StatusInternalServerError))

			return
		}

		err = s.pusher.TriggerEvent(event.SessionChannel, event.SessionStartedEvent, map[string]interface{}{
			"session_id": snapshot.SessionID,
			"seed_hash":  commitment.SeedHash,
		})
		if err != nil {
			log.Error("failed to send session started event", sl.Err(err))
		}

		render.JSON(w, r, Response{
			Response:       resp.OK(),
			SessionID:      snapshot.SessionID,
			WalletAddress:  snapshot.WalletAddress,
			MasterSeedHash: snapshot.MasterSeedHash,
			SeedHash:       commitment.SeedHash,
			PieceIndex:     snapshot.PieceIndex,
			StartTime:      snapshot.StartTime,
			VRFSignature:   snapshot.VRFSignature,
		})
	}
}
