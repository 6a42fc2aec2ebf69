package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-series/internal/entity"
)

type ResultRepository interface {
	Save(ctx context.Context, result *entity.SeriesResult) error
	List(ctx context.Context, limit int) ([]entity.SeriesResult, error)
}

type resultRepository struct {
	conn *sql.DB
}

func NewResultRepository(conn *sql.DB) ResultRepository {
	return &resultRepository{
		conn: conn,
	}
}

func (that *resultRepository) Save(ctx context.Context, result *entity.SeriesResult) error {
	query := `INSERT INTO series_results
		(id, session_id, player_x, player_o, best_of, score_x, score_o, draws, champion, summary, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		result.ID,
		result.SessionID,
		result.Players.X,
		result.Players.O,
		result.BestOf,
		result.Score.X,
		result.Score.O,
		result.Score.Draws,
		string(result.Champion),
		result.Summary,
		result.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("can't save series result: %w", err)
	}

	return nil
}

// List returns the latest results first.
func (that *resultRepository) List(ctx context.Context, limit int) ([]entity.SeriesResult, error) {
	query := `SELECT id, session_id, player_x, player_o, best_of, score_x, score_o, draws, champion, summary, finished_at
		FROM series_results
		ORDER BY finished_at DESC, rowid DESC
		LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("can't list series results: %w", err)
	}
	defer rows.Close()

	results := []entity.SeriesResult{}
	for rows.Next() {
		var (
			result   entity.SeriesResult
			champion string
		)

		err = rows.Scan(
			&result.ID,
			&result.SessionID,
			&result.Players.X,
			&result.Players.O,
			&result.BestOf,
			&result.Score.X,
			&result.Score.O,
			&result.Score.Draws,
			&champion,
			&result.Summary,
			&result.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("can't scan series result: %w", err)
		}

		result.Champion = entity.Mark(champion)
		results = append(results, result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't iterate series results: %w", err)
	}

	return results, nil
}
