package repository

import (
	"fmt"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/mysql"
	"github.com/memeworldorder/tetris-game-sub004/internal/raffle"
	"time"
)

type RaffleRepository struct {
	dbhandler mysql.Handler
}

func NewRaffleRepository(dbhandler mysql.Handler) *RaffleRepository {
	return &RaffleRepository{dbhandler: dbhandler}
}

// SaveQualificationRun persists the run header and all qualified
// entries in one transaction. Runs are append-only: the next day's
// run supersedes this one without touching it.
func (repo *RaffleRepository) SaveQualificationRun(
	runDate time.Time,
	qualified []raffle.QualifiedWallet,
	ticketBudget int,
	merkleRoot string) (int64, error) {
	const op = "repository.raffle.SaveQualificationRun"

	tx, err := repo.dbhandler.StartTransaction()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()

	const runInsert = "INSERT INTO qualification_runs(run_date," +
		" qualified_count," +
		" ticket_budget," +
		" merkle_root," +
		" created_at," +
		" updated_at) " +
		"VALUES(?, ?, ?, ?, ?, ?)"

	res, err := tx.Exec(runInsert, runDate, len(qualified), ticketBudget, merkleRoot, now, now)
	if err != nil {
		_ = tx.Rollback()

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	const entryInsert = "INSERT INTO qualification_entries(run_id," +
		" wallet_address," +
		" `rank`," +
		" score," +
		" tickets," +
		" tier," +
		" created_at," +
		" updated_at) " +
		"VALUES(?, ?, ?, ?, ?, ?, ?, ?)"

	for _, q := range qualified {
		if _, err = tx.Exec(entryInsert, runID, q.Wallet, q.Rank, q.Score, q.Tickets, q.Tier, now, now); err != nil {
			_ = tx.Rollback()

			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return runID, nil
}

func (repo *RaffleRepository) SaveWinners(runID int64, winners []raffle.DrawWinner) error {
	const op = "repository.raffle.SaveWinners"

	const query = "INSERT INTO raffle_winners(run_id," +
		" wallet_address," +
		" ticket_number," +
		" draw_index," +
		" `rank`," +
		" score," +
		" created_at," +
		" updated_at) " +
		"VALUES(?, ?, ?, ?, ?, ?, ?, ?)"

	now := time.Now()

	for _, w := range winners {
		_, err := repo.dbhandler.PrepareAndExecute(query,
			runID,
			w.WalletAddress,
			w.TicketNumber,
			w.DrawIndex,
			w.Rank,
			w.Score,
			now,
			now)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}
