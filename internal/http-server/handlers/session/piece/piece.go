package piece

import (
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/memeworldorder/tetris-game-sub004/internal/fairness"
	resp "github.com/memeworldorder/tetris-game-sub004/internal/lib/api/response"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
	"net/http"
)

type Response struct {
	resp.Response
	SessionID  string             `json:"session_id"`
	PieceIndex uint64             `json:"piece_index"`
	PieceType  fairness.PieceType `json:"piece_type"`
	Proof      string             `json:"proof"`
}

type NextPiece struct {
	log    *slog.Logger
	engine *fairness.PieceEngine
}

func NewNextPiece(log *slog.Logger, engine *fairness.PieceEngine) *NextPiece {
	return &NextPiece{
		log:    log,
		engine: engine,
	}
}

func (n *NextPiece) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.session.piece.New"

		var (
			err    error
			log    *slog.Logger
			result *fairness.PieceGenerationResult
		)

		log = n.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		sessionID := chi.URLParam(r, "uuid")

		result, err = n.engine.GenerateNextPiece(sessionID)
		if err != nil {
			if errors.Is(err, fairness.ErrSessionNotFound) {
				log.Info("session not found", sl.String("session_id", sessionID))

				render.JSON(w, r, resp.NotFound("session not found"))

				return
			}

			if errors.Is(err, fairness.ErrSessionFinished) {
				log.Info("piece requested on finished session", sl.String("session_id", sessionID))

				render.JSON(w, r, resp.Error("session already finished", http.StatusConflict))

				return
			}

			log.Error("failed to generate piece", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to generate piece", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, Response{
			Response:   resp.OK(),
			SessionID:  result.SessionID,
			PieceIndex: result.PieceIndex,
			PieceType:  result.PieceType,
			Proof:      result.Proof,
		})
	}
}
