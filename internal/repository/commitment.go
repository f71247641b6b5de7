package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/mysql"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/model"
	"time"
)

type CommitmentRepository struct {
	dbhandler mysql.Handler
}

func NewCommitmentRepository(dbhandler mysql.Handler) *CommitmentRepository {
	return &CommitmentRepository{dbhandler: dbhandler}
}

func (repo *CommitmentRepository) SaveCommitment(commitment model.Commitment) (int64, error) {
	const op = "repository.commitment.SaveCommitment"

	const query = "INSERT INTO commitments(wallet_address," +
		" session_id," +
		" seed_hash," +
		" created_at," +
		" updated_at) " +
		"VALUES(?, ?, ?, ?, ?)"

	now := time.Now()

	res, err := repo.dbhandler.PrepareAndExecute(query,
		commitment.WalletAddress,
		commitment.SessionID,
		commitment.SeedHash,
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

// MarkRevealed stores the disclosed seed; the write is a no-op when
// the seed is already revealed, keeping reveals idempotent at the
// persistence layer too.
func (repo *CommitmentRepository) MarkRevealed(sessionID string, revealedSeed string) error {
	const op = "repository.commitment.MarkRevealed"

	const query = "UPDATE commitments SET revealed_seed = ?, revealed_at = ?, updated_at = ? " +
		"WHERE session_id = ? AND revealed_seed IS NULL"

	now := time.Now()

	if _, err := repo.dbhandler.PrepareAndExecute(query, revealedSeed, now, now, sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (repo *CommitmentRepository) FindBySessionID(sessionID string) (*model.Commitment, error) {
	const op = "repository.commitment.FindBySessionID"

	const query = "SELECT id, wallet_address, session_id, seed_hash, revealed_seed, revealed_at " +
		"FROM commitments WHERE session_id = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	commitment := &model.Commitment{}

	err = row.Scan(&commitment.ID,
		&commitment.WalletAddress,
		&commitment.SessionID,
		&commitment.SeedHash,
		&commitment.RevealedSeed,
		&commitment.RevealedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return commitment, nil
}
