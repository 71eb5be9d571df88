package dal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

const sqliteVoteColumns = `id, judge_name, squad_id, scores, created_at`

// SQLiteDAL implements VoteStore using SQLite
type SQLiteDAL struct {
	db *sql.DB
}

// NewSQLiteDAL creates a new SQLite data access layer
func NewSQLiteDAL(dbPath string) (*SQLiteDAL, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// A single connection serialises writers and keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	dal := &SQLiteDAL{db: db}

	if err := dal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return dal, nil
}

func (s *SQLiteDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS votes (
		id TEXT PRIMARY KEY,
		judge_name TEXT NOT NULL,
		squad_id TEXT NOT NULL,
		scores TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (judge_name, squad_id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY,
		voting_status TEXT NOT NULL CHECK (voting_status IN ('OPEN', 'CLOSED')),
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_votes_created_at ON votes(created_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Seed the settings row; voting starts OPEN
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO settings (id, voting_status, updated_at) VALUES (?, ?, ?)
	`, settingsID, string(models.VotingOpen), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	return nil
}

func (s *SQLiteDAL) SubmitVote(ctx context.Context, judgeName, squadID string, scores map[string]int) (*models.Vote, error) {
	v := newVote(judgeName, squadID, scores)
	if err := s.insertVote(ctx, s.db, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *SQLiteDAL) ReplaceVote(ctx context.Context, judgeName, squadID string, scores map[string]int) (*models.Vote, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE judge_name = ? AND squad_id = ?`, judgeName, squadID); err != nil {
		return nil, err
	}

	v := newVote(judgeName, squadID, scores)
	if err := s.insertVote(ctx, tx, v); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *SQLiteDAL) insertVote(ctx context.Context, ex execer, v *models.Vote) error {
	scoresJSON, err := json.Marshal(v.Scores)
	if err != nil {
		return err
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO votes (id, judge_name, squad_id, scores, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, v.ID, v.JudgeName, v.SquadID, string(scoresJSON), v.CreatedAt)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrVoteExists
	}
	return err
}

func (s *SQLiteDAL) GetAllVotes(ctx context.Context) ([]models.Vote, error) {
	return queryVotes(ctx, s.db, `SELECT `+sqliteVoteColumns+` FROM votes ORDER BY created_at DESC, rowid DESC`)
}

func (s *SQLiteDAL) GetVotesByJudge(ctx context.Context, judgeName string) ([]models.Vote, error) {
	return queryVotes(ctx, s.db, `
		SELECT `+sqliteVoteColumns+` FROM votes WHERE judge_name = ? ORDER BY created_at DESC, rowid DESC
	`, judgeName)
}

func (s *SQLiteDAL) GetVotesBySquad(ctx context.Context, squadID string) ([]models.Vote, error) {
	return queryVotes(ctx, s.db, `
		SELECT `+sqliteVoteColumns+` FROM votes WHERE squad_id = ? ORDER BY created_at DESC, rowid DESC
	`, squadID)
}

func (s *SQLiteDAL) DeleteVote(ctx context.Context, judgeName, squadID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM votes WHERE judge_name = ? AND squad_id = ?`, judgeName, squadID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVoteNotFound
	}
	return nil
}

func (s *SQLiteDAL) HasJudgeVoted(ctx context.Context, judgeName, squadID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM votes WHERE judge_name = ? AND squad_id = ?)
	`, judgeName, squadID).Scan(&exists)
	return exists == 1, err
}

func (s *SQLiteDAL) GetVotingStatus(ctx context.Context) (models.VotingStatus, error) {
	settings, err := s.GetVotingSettings(ctx)
	if err != nil {
		return "", err
	}
	return settings.VotingStatus, nil
}

func (s *SQLiteDAL) SetVotingStatus(ctx context.Context, status models.VotingStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE settings SET voting_status = ?, updated_at = ? WHERE id = ?
	`, string(status), time.Now().UTC(), settingsID)
	return err
}

func (s *SQLiteDAL) GetVotingSettings(ctx context.Context) (*models.VotingSettings, error) {
	var settings models.VotingSettings
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, voting_status, updated_at FROM settings WHERE id = ?
	`, settingsID).Scan(&settings.ID, &status, &settings.UpdatedAt)
	if err != nil {
		return nil, err
	}
	settings.VotingStatus = models.VotingStatus(status)
	settings.UpdatedAt = settings.UpdatedAt.UTC()
	return &settings, nil
}

func (s *SQLiteDAL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDAL) Close() error {
	return s.db.Close()
}
