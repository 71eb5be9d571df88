package dal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// queryVotes runs a SELECT id, judge_name, squad_id, scores, created_at query
func queryVotes(ctx context.Context, q queryer, query string, args ...any) ([]models.Vote, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		var scoresJSON []byte
		if err := rows.Scan(&v.ID, &v.JudgeName, &v.SquadID, &scoresJSON, &v.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(scoresJSON, &v.Scores); err != nil {
			return nil, fmt.Errorf("failed to decode scores of vote %s: %w", v.ID, err)
		}
		v.CreatedAt = v.CreatedAt.UTC()
		votes = append(votes, v)
	}

	return votes, rows.Err()
}
