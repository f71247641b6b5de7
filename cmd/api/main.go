package main

import (
	"context"
	"database/sql"
	"encoding/hex"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/go-sql-driver/mysql"
	"github.com/memeworldorder/tetris-game-sub004/internal/config"
	"github.com/memeworldorder/tetris-game-sub004/internal/fairness"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/event"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/job"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/mysql"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/raffle/run"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/score/submit"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/session/piece"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/session/reveal"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/session/start"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/middleware/logger"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/model"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/handler/slogpretty"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"github.com/memeworldorder/tetris-game-sub004/internal/raffle"
	"github.com/memeworldorder/tetris-game-sub004/internal/repository"
	"github.com/memeworldorder/tetris-game-sub004/internal/signing"
	"github.com/memeworldorder/tetris-game-sub004/internal/vrf"
	"github.com/pusher/pusher-http-go/v5"
	"golang.org/x/exp/slog"
	"net/http"
	"os"
	"time"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"

	jobQueueSize   = 64
	jobWorkerCount = 4
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting fairness service", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	if err = db.Ping(); err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	handler := mysql.New(db)

	pusherClient := &pusher.Client{
		AppID:   cfg.Pusher.AppID,
		Key:     cfg.Pusher.Key,
		Secret:  cfg.Pusher.Secret,
		Cluster: cfg.Pusher.Cluster,
	}

	pusherEvent := event.NewPusherEvent(log, pusherClient)

	playRepo := repository.NewPlayRepository(*handler)
	commitmentRepo := repository.NewCommitmentRepository(*handler)
	dailySeedRepo := repository.NewDailySeedRepository(*handler)
	raffleRepo := repository.NewRaffleRepository(*handler)
	scoreProofRepo := repository.NewScoreProofRepository(*handler)

	oracle := vrf.NewOracleClient(cfg.Oracle.URL, cfg.Oracle.Timeout, cfg.Oracle.MaxRetries, log)

	authority := vrf.NewSeedAuthority(oracle, log)
	authority.OnRotate(func(seed *vrf.DailySeed) {
		if _, saveErr := dailySeedRepo.SaveRotation(model.DailySeed{
			Round:        seed.Round,
			Randomness:   hex.EncodeToString(seed.Seed),
			VRFSignature: seed.VRFSignature,
			Active:       true,
			RotatesAt:    seed.RotatesAt,
		}); saveErr != nil {
			log.Error("failed to persist seed rotation", sl.Err(saveErr))
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go authority.RunRotation(ctx)

	sessions := fairness.NewSessionStore(cfg.Session.TTL, cfg.Session.SweepInterval)
	engine := fairness.NewPieceEngine(sessions, authority, log)
	commits := fairness.NewCommitRevealManager(sessions, log)

	signer, err := newSigner(cfg, log)
	if err != nil {
		log.Error("failed to init score signer", sl.Err(err))
		os.Exit(1)
	}

	log.Info("score verification key", slog.String("public_key", signer.PublicKeyHex()))

	tickets := raffle.NewTicketManager(config.DailyRaffleConfig, log)
	draw := raffle.NewDrawManager(log)

	jobs := job.NewQueue(jobQueueSize)
	job.NewWorkerPool(jobWorkerCount, jobs).Start()

	go sweepSessions(ctx, jobs, engine, cfg.Session.SweepInterval)

	sessionStart := start.NewSessionStart(log, engine, commits, commitmentRepo, pusherEvent)
	nextPiece := piece.NewNextPiece(log, engine)
	seedReveal := reveal.NewSeedReveal(log, engine, commits, commitmentRepo, pusherEvent)
	scoreSubmit := submit.NewScoreSubmit(log, engine, signer, playRepo, scoreProofRepo)
	raffleRun := run.NewRaffleRun(log, tickets, draw, authority, playRepo, raffleRepo, pusherEvent, jobs, cfg.Draw.WinnerCount)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Post("/session/start", sessionStart.New())
	router.Post("/session/{uuid}/piece", nextPiece.New())
	router.Post("/session/{uuid}/reveal", seedReveal.New())
	router.Post("/score/submit", scoreSubmit.New())
	router.Post("/raffle/run", raffleRun.New())

	log.Info("server started", slog.String("address", cfg.Address))

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	if err = srv.ListenAndServe(); err != nil {
		log.Error("server failed", sl.Err(err))
	}

	log.Error("server stopped")
}

func newSigner(cfg *config.Config, log *slog.Logger) (*signing.ScoreSigner, error) {
	if cfg.Signing.PrivateKeyHex != "" {
		return signing.NewScoreSigner(cfg.Signing.PrivateKeyHex)
	}

	log.Warn("no signing key configured, generating ephemeral key")

	return signing.GenerateScoreSigner()
}

func sweepSessions(ctx context.Context, jobs job.Queue, engine *fairness.PieceEngine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jobs.Dispatch(&run.SessionSweepJob{Engine: engine}, 0)
		}
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlogLogger()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlogLogger() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
