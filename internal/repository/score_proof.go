package repository

import (
	"fmt"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/mysql"
	"github.com/memeworldorder/tetris-game-sub004/internal/signing"
	"time"
)

type ScoreProofRepository struct {
	dbhandler mysql.Handler
}

func NewScoreProofRepository(dbhandler mysql.Handler) *ScoreProofRepository {
	return &ScoreProofRepository{dbhandler: dbhandler}
}

func (repo *ScoreProofRepository) SaveScoreProof(proof signing.ScoreProof) (int64, error) {
	const op = "repository.score_proof.SaveScoreProof"

	const query = "INSERT INTO score_proofs(wallet_address," +
		" score," +
		" seed_hash," +
		" move_count," +
		" signature," +
		" signed_at," +
		" created_at," +
		" updated_at) " +
		"VALUES(?, ?, ?, ?, ?, ?, ?, ?)"

	now := time.Now()

	res, err := repo.dbhandler.PrepareAndExecute(query,
		proof.WalletAddress,
		proof.Score,
		proof.SeedHash,
		proof.MoveCount,
		proof.Signature,
		proof.Timestamp,
		now,
		now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}
