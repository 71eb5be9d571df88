package dal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

// Notification channels raised by the table triggers
const (
	ChannelVotesChanged    = "votes_changed"
	ChannelSettingsChanged = "settings_changed"
)

const pgVoteColumns = `id, judge_name, squad_id, scores, created_at`

// uniqueViolation is the SQLSTATE for unique_violation
const uniqueViolation = "23505"

// postgresSchema creates the tables, seeds the settings row and installs the
// NOTIFY triggers consumed by PostgresNotifier
const postgresSchema = `
	CREATE TABLE IF NOT EXISTS votes (
		id TEXT PRIMARY KEY,
		judge_name TEXT NOT NULL,
		squad_id TEXT NOT NULL,
		scores JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT votes_judge_squad_key UNIQUE (judge_name, squad_id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY,
		voting_status TEXT NOT NULL CHECK (voting_status IN ('OPEN', 'CLOSED')),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	INSERT INTO settings (id, voting_status) VALUES (1, 'OPEN') ON CONFLICT (id) DO NOTHING;

	CREATE INDEX IF NOT EXISTS idx_votes_created_at ON votes(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_votes_squad_id ON votes(squad_id);

	CREATE OR REPLACE FUNCTION notify_votes_changed() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('votes_changed', TG_OP);
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql;

	CREATE OR REPLACE FUNCTION notify_settings_changed() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('settings_changed', NEW.voting_status);
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql;

	DROP TRIGGER IF EXISTS votes_changed ON votes;
	CREATE TRIGGER votes_changed AFTER INSERT OR UPDATE OR DELETE ON votes
		FOR EACH STATEMENT EXECUTE FUNCTION notify_votes_changed();

	DROP TRIGGER IF EXISTS settings_changed ON settings;
	CREATE TRIGGER settings_changed AFTER UPDATE ON settings
		FOR EACH ROW EXECUTE FUNCTION notify_settings_changed();
`

// PostgresDAL implements VoteStore using PostgreSQL
type PostgresDAL struct {
	db *sql.DB
}

// NewPostgresDAL creates a new PostgreSQL data access layer optimized for CloudNativePG
func NewPostgresDAL(connString string) (*PostgresDAL, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	// CloudNativePG default max_connections is 100
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Retry while Kubernetes DNS catches up
	maxRetries := 5
	retryDelay := 5 * time.Second
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()

		if lastErr == nil {
			break
		}

		logger.Warn("Postgres not reachable yet", "attempt", i+1, "error", lastErr)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	if lastErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres after %d retries: %w", maxRetries, lastErr)
	}

	return NewPostgresDALFromDB(db)
}

// NewPostgresDALFromDB wraps an open connection pool and applies the schema.
// db is closed when the schema cannot be applied.
func NewPostgresDALFromDB(db *sql.DB) (*PostgresDAL, error) {
	dal := &PostgresDAL{db: db}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return dal, nil
}

func (p *PostgresDAL) SubmitVote(ctx context.Context, judgeName, squadID string, scores map[string]int) (*models.Vote, error) {
	v := newVote(judgeName, squadID, scores)
	if err := insertPostgresVote(ctx, p.db, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *PostgresDAL) ReplaceVote(ctx context.Context, judgeName, squadID string, scores map[string]int) (*models.Vote, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE judge_name = $1 AND squad_id = $2`, judgeName, squadID); err != nil {
		return nil, err
	}

	v := newVote(judgeName, squadID, scores)
	if err := insertPostgresVote(ctx, tx, v); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return v, nil
}

func insertPostgresVote(ctx context.Context, ex execer, v *models.Vote) error {
	scoresJSON, err := json.Marshal(v.Scores)
	if err != nil {
		return err
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO votes (id, judge_name, squad_id, scores, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, v.ID, v.JudgeName, v.SquadID, string(scoresJSON), v.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrVoteExists
	}
	return err
}

func (p *PostgresDAL) GetAllVotes(ctx context.Context) ([]models.Vote, error) {
	return queryVotes(ctx, p.db, `SELECT `+pgVoteColumns+` FROM votes ORDER BY created_at DESC`)
}

func (p *PostgresDAL) GetVotesByJudge(ctx context.Context, judgeName string) ([]models.Vote, error) {
	return queryVotes(ctx, p.db, `
		SELECT `+pgVoteColumns+` FROM votes WHERE judge_name = $1 ORDER BY created_at DESC
	`, judgeName)
}

func (p *PostgresDAL) GetVotesBySquad(ctx context.Context, squadID string) ([]models.Vote, error) {
	return queryVotes(ctx, p.db, `
		SELECT `+pgVoteColumns+` FROM votes WHERE squad_id = $1 ORDER BY created_at DESC
	`, squadID)
}

func (p *PostgresDAL) DeleteVote(ctx context.Context, judgeName, squadID string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM votes WHERE judge_name = $1 AND squad_id = $2`, judgeName, squadID)
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

func (p *PostgresDAL) HasJudgeVoted(ctx context.Context, judgeName, squadID string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM votes WHERE judge_name = $1 AND squad_id = $2)
	`, judgeName, squadID).Scan(&exists)
	return exists, err
}

func (p *PostgresDAL) GetVotingStatus(ctx context.Context) (models.VotingStatus, error) {
	settings, err := p.GetVotingSettings(ctx)
	if err != nil {
		return "", err
	}
	return settings.VotingStatus, nil
}

func (p *PostgresDAL) SetVotingStatus(ctx context.Context, status models.VotingStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	_, err := p.db.ExecContext(ctx, `
		UPDATE settings SET voting_status = $1, updated_at = NOW() WHERE id = $2
	`, string(status), settingsID)
	return err
}

func (p *PostgresDAL) GetVotingSettings(ctx context.Context) (*models.VotingSettings, error) {
	var settings models.VotingSettings
	var status string
	err := p.db.QueryRowContext(ctx, `
		SELECT id, voting_status, updated_at FROM settings WHERE id = $1
	`, settingsID).Scan(&settings.ID, &status, &settings.UpdatedAt)
	if err != nil {
		return nil, err
	}
	settings.VotingStatus = models.VotingStatus(status)
	return &settings, nil
}

func (p *PostgresDAL) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresDAL) Close() error {
	return p.db.Close()
}
