package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/config"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

const voteEventsSchema = `
	CREATE TABLE IF NOT EXISTS vote_events (
		time DateTime64(3, 'UTC'),
		action LowCardinality(String),
		judge_name String,
		squad_id String,
		actor String,
		weighted_score Float64,
		scores String
	) ENGINE = MergeTree
	ORDER BY (judge_name, time)
`

// Client writes the vote audit trail to ClickHouse. Votes themselves live in
// the vote store; ClickHouse only keeps the append-only history of changes.
type Client struct {
	conn driver.Conn
}

// NewClient connects, pings and makes sure the audit table exists
func NewClient(cfg config.ClickHouseConfig) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.DB,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	c := newClient(conn)
	if err := c.ensureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func newClient(conn driver.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) ensureSchema(ctx context.Context) error {
	if err := c.conn.Exec(ctx, voteEventsSchema); err != nil {
		return fmt.Errorf("failed to create vote_events table: %w", err)
	}
	return nil
}

// Record appends one vote event
func (c *Client) Record(ctx context.Context, ev models.VoteEvent) error {
	scores, err := json.Marshal(ev.Scores)
	if err != nil {
		return err
	}

	err = c.conn.Exec(ctx, `
		INSERT INTO vote_events (time, action, judge_name, squad_id, actor, weighted_score, scores)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.Time, string(ev.Action), ev.JudgeName, ev.SquadID, ev.Actor, ev.WeightedScore, string(scores))
	if err != nil {
		return fmt.Errorf("failed to record vote event: %w", err)
	}
	return nil
}

// JudgeActivity summarises the audit trail per judge, ordered by name
func (c *Client) JudgeActivity(ctx context.Context) ([]models.JudgeActivity, error) {
	rows, err := c.conn.Query(ctx, `
		SELECT
			judge_name,
			countIf(action = 'submitted') AS submitted,
			countIf(action = 'replaced') AS replaced,
			countIf(action = 'deleted') AS deleted,
			max(time) AS last_event
		FROM vote_events
		GROUP BY judge_name
		ORDER BY judge_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activity := []models.JudgeActivity{}
	for rows.Next() {
		var (
			a                            models.JudgeActivity
			submitted, replaced, deleted uint64
		)
		if err := rows.Scan(&a.JudgeName, &submitted, &replaced, &deleted, &a.LastEvent); err != nil {
			return nil, err
		}
		a.Submitted, a.Replaced, a.Deleted = int(submitted), int(replaced), int(deleted)
		a.LastEvent = a.LastEvent.UTC()
		activity = append(activity, a)
	}

	return activity, rows.Err()
}

// Ping checks that ClickHouse is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
