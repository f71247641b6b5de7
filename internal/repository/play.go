package repository

import (
	"fmt"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/mysql"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/model"
	"github.com/memeworldorder/tetris-game-sub004/internal/raffle"
	"time"
)

type PlayRepository struct {
	dbhandler mysql.Handler
}

func NewPlayRepository(dbhandler mysql.Handler) *PlayRepository {
	return &PlayRepository{dbhandler: dbhandler}
}

func (repo *PlayRepository) SavePlay(play model.Play) (int64, error) {
	const op = "repository.play.SavePlay"

	const query = "INSERT INTO plays(wallet_address," +
		" session_id," +
		" score," +
		" move_count," +
		" seed_hash," +
		" bot_confidence," +
		" bot_flagged," +
		" played_at," +
		" created_at," +
		" updated_at) " +
		"VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	now := time.Now()

	res, err := repo.dbhandler.PrepareAndExecute(query,
		play.WalletAddress,
		play.SessionID,
		play.Score,
		play.MoveCount,
		play.SeedHash,
		play.BotConfidence,
		play.BotFlagged,
		play.PlayedAt,
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

// GetDailyPlays returns every play of the given UTC day, oldest
// first, in the shape the raffle qualification consumes.
func (repo *PlayRepository) GetDailyPlays(day time.Time) ([]raffle.Play, error) {
	const op = "repository.play.GetDailyPlays"

	const query = "SELECT wallet_address, score, played_at FROM plays " +
		"WHERE played_at >= ? AND played_at < ? ORDER BY played_at ASC"

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	rows, err := repo.dbhandler.PrepareAndQuery(query, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var plays []raffle.Play

	for rows.Next() {
		var play raffle.Play

		if err = rows.Scan(&play.WalletAddress, &play.Score, &play.PlayedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		plays = append(plays, play)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return plays, nil
}
