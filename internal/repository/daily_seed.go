package repository

import (
	"fmt"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/mysql"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/model"
	"time"
)

type DailySeedRepository struct {
	dbhandler mysql.Handler
}

func NewDailySeedRepository(dbhandler mysql.Handler) *DailySeedRepository {
	return &DailySeedRepository{dbhandler: dbhandler}
}

// SaveRotation deactivates the previous seed and inserts the new one
// inside a single transaction, so auditors never see two active
// seeds or none.
func (repo *DailySeedRepository) SaveRotation(seed model.DailySeed) (int64, error) {
	const op = "repository.daily_seed.SaveRotation"

	tx, err := repo.dbhandler.StartTransaction()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()

	if _, err = tx.Exec("UPDATE daily_seeds SET active = 0, updated_at = ? WHERE active = 1", now); err != nil {
		_ = tx.Rollback()

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	const insert = "INSERT INTO daily_seeds(round," +
		" randomness," +
		" vrf_signature," +
		" active," +
		" rotates_at," +
		" created_at," +
		" updated_at) " +
		"VALUES(?, ?, ?, 1, ?, ?, ?)"

	res, err := tx.Exec(insert,
		seed.Round,
		seed.Randomness,
		seed.VRFSignature,
		seed.RotatesAt,
		now,
		now)
	if err != nil {
		_ = tx.Rollback()

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}
