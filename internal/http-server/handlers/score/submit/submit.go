package submit

import (
	"errors"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/memeworldorder/tetris-game-sub004/internal/abuse"
	"github.com/memeworldorder/tetris-game-sub004/internal/fairness"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/model"
	resp "github.com/memeworldorder/tetris-game-sub004/internal/lib/api/response"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"github.com/memeworldorder/tetris-game-sub004/internal/repository"
	"github.com/memeworldorder/tetris-game-sub004/internal/signing"
	"golang.org/x/exp/slog"
	"io"
	"net/http"
	"time"
)

type Request struct {
	WalletAddress  string  `json:"wallet_address" validate:"required,eth_addr"`
	SessionID      string  `json:"session_id" validate:"required"`
	Score          int64   `json:"score" validate:"min=0"`
	MoveTimestamps []int64 `json:"move_timestamps" validate:"required"`
}

type Response struct {
	resp.Response
	Proof *signing.ScoreProof `json:"proof"`
	Bot   abuse.Result        `json:"bot"`
}

// ScoreSubmit accepts a finished session's score, runs the timing
// heuristics over the move stream and returns a signed attestation.
// A bot flag never rejects the submission, it rides along with the
// stored play for the qualification pass to weigh.
type ScoreSubmit struct {
	log           *slog.Logger
	validator     *validator.Validate
	engine        *fairness.PieceEngine
	signer        *signing.ScoreSigner
	playRep       *repository.PlayRepository
	scoreProofRep *repository.ScoreProofRepository
}

func NewScoreSubmit(
	log *slog.Logger,
	engine *fairness.PieceEngine,
	signer *signing.ScoreSigner,
	playRep *repository.PlayRepository,
	scoreProofRep *repository.ScoreProofRepository) *ScoreSubmit {
	return &ScoreSubmit{
		log:           log,
		validator:     validator.New(),
		engine:        engine,
		signer:        signer,
		playRep:       playRep,
		scoreProofRep: scoreProofRep,
	}
}

func (s *ScoreSubmit) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.score.submit.New"

		var (
			err      error
			req      Request
			log      *slog.Logger
			snapshot *fairness.SessionSnapshot
		)

		log = s.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		err = render.DecodeJSON(r.Body, &req)
		if errors.Is(err, io.EOF) {
			log.Error("request body is empty")

			render.JSON(w, r, resp.Error("empty request", http.StatusBadRequest))

			return
		}

		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request", http.StatusBadRequest))

			return
		}

		if err = s.validator.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		snapshot, err = s.engine.GetSessionSnapshot(req.SessionID)
		if err != nil {
			if errors.Is(err, fairness.ErrSessionNotFound) {
				log.Info("session not found", sl.String("session_id", req.SessionID))

				render.JSON(w, r, resp.NotFound("session not found"))

				return
			}

			log.Error("failed to get session", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to get session", http.StatusInternalServerError))

			return
		}

		if snapshot.WalletAddress != req.WalletAddress {
			log.Warn("wallet does not own session",
				sl.String("session_id", req.SessionID),
				sl.String("wallet_address", req.WalletAddress),
			)

			render.JSON(w, r, resp.Error("session belongs to another wallet", http.StatusForbidden))

			return
		}

		botResult := abuse.DetectBot(req.MoveTimestamps)
		if botResult.IsBot {
			log.Warn("bot-like move timing",
				sl.String("session_id", req.SessionID),
				slog.Float64("confidence", botResult.Confidence),
			)
		}

		proof := s.signer.SignScore(req.WalletAddress, req.Score, snapshot.MasterSeedHash, len(req.MoveTimestamps))

		play := model.Play{
			WalletAddress: req.WalletAddress,
			SessionID:     req.SessionID,
			Score:         req.Score,
			MoveCount:     len(req.MoveTimestamps),
			SeedHash:      snapshot.MasterSeedHash,
			BotConfidence: botResult.Confidence,
			BotFlagged:    botResult.IsBot,
			PlayedAt:      time.Now().UTC(),
		}

		if _, err = s.playRep.SavePlay(play); err != nil {
			log.Error("failed to save play", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to save play", http.StatusInternalServerError))

			return
		}

		if _, err = s.scoreProofRep.SaveScoreProof(*proof); err != nil {
			log.Error("failed to save score proof", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to save score proof", http.StatusInternalServerError))

			return
		}

		log.Info("score attested",
			slog.String("session_id", req.SessionID),
			slog.Int64("score", req.Score),
		)

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Proof:    proof,
			Bot:      botResult,
		})
	}
}
