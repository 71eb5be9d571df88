package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "50051", cfg.GRPCPort)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, "judging.events", cfg.NATS.Subject)
	assert.Equal(t, "none", cfg.NATS.Mode)
	assert.Equal(t, "admins", cfg.Authentik.AdminGroup)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.Authentik.Enabled())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_FILE", "/tmp/votes.sqlite")
	t.Setenv("POLL_INTERVAL", "45s")
	t.Setenv("CLICKHOUSE_ADDR", "clickhouse:9000")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/votes.sqlite", cfg.SQLite.File)
	assert.Equal(t, 45*time.Second, cfg.PollInterval)
	assert.Equal(t, "clickhouse:9000", cfg.ClickHouse.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "mongo"}, "unknown DB_DRIVER"},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}, "DATABASE_URL"},
		{"unknown nats mode", map[string]string{"NATS_MODE": "kafka"}, "NATS_MODE"},
		{"poll too fast", map[string]string{"POLL_INTERVAL": "5s"}, "POLL_INTERVAL"},
		{"poll too slow", map[string]string{"POLL_INTERVAL": "2m"}, "POLL_INTERVAL"},
		{"production without secret", map[string]string{"ENVIRONMENT": "production"}, "SESSION_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadDefaultEvent(t *testing.T) {
	ev, err := LoadEvent("")
	require.NoError(t, err)

	assert.Len(t, ev.Criteria, 7)
	assert.Equal(t, 100, ev.TotalWeight())
	assert.Len(t, ev.Squads, 12)
	assert.Len(t, ev.Judges, 5)
	assert.Len(t, ev.AccessCodes, 6)
	require.Len(t, ev.Categories, 2)
	assert.Equal(t, "innovation", ev.Categories[0].ID)
	assert.Equal(t, "📣", ev.Categories[1].Icon)

	squad, ok := ev.Squad("code-cart")
	require.True(t, ok)
	assert.Equal(t, "innovation", squad.Category)
	assert.True(t, ev.IsJudge("Herbert Torres Alejandro"))
	assert.False(t, ev.IsJudge("Administrator"))
}

func TestParseEventNormalisesCodes(t *testing.T) {
	doc := `
categories:
  - {id: innovation, name: Innovation}
criteria:
  - {id: solution, name: Solution, weight: 100}
squads:
  - {id: s1, name: Squad One, category: innovation}
judges:
  - name: Ada
access_codes:
  - {code: " judge001 ", name: Ada, role: judge}
`
	ev, err := ParseEvent(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "JUDGE001", ev.AccessCodes[0].Code)
	assert.Equal(t, models.RoleJudge, ev.AccessCodes[0].Role)
}

func TestParseEventRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"unknown field", "squadz: []\n"},
		{"bad role", "access_codes:\n  - {code: X, name: Y, role: owner}\n"},
		{"zero weight", "criteria:\n  - {id: a, name: A, weight: 0}\n"},
		{"squad without id", "squads:\n  - {name: A, category: innovation}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}
