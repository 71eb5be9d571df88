package diagnostics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/config"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

type fakeStore struct {
	pingErr     error
	votesErr    error
	settingsErr error
	votes       []models.Vote
	status      models.VotingStatus
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) GetAllVotes(context.Context) ([]models.Vote, error) {
	return f.votes, f.votesErr
}

func (f *fakeStore) GetVotingSettings(context.Context) (*models.VotingSettings, error) {
	if f.settingsErr != nil {
		return nil, f.settingsErr
	}
	return &models.VotingSettings{ID: 1, VotingStatus: f.status}, nil
}

func defaultEvent(t *testing.T) *config.Event {
	t.Helper()
	ev, err := config.LoadEvent("")
	require.NoError(t, err)
	return ev
}

func TestCheckConfigDefaultRosterIsClean(t *testing.T) {
	r := CheckConfig(defaultEvent(t))
	assert.True(t, r.Success)
	assert.Empty(t, r.Issues)
	assert.Empty(t, r.Warnings)
}

func TestCheckConfigFindsProblems(t *testing.T) {
	ev := &config.Event{
		Categories: []models.Category{{ID: "innovation", Name: "Innovation"}},
		Criteria: []models.Criterion{
			{ID: "a", Name: "A", Weight: 50},
			{ID: "a", Name: "A again", Weight: 30},
		},
		Squads: []models.Squad{
			{ID: "s1", Name: "One", Category: "innovation"},
			{ID: "s1", Name: "One again", Category: "space"},
		},
		Judges: []models.Judge{{Name: "Ada"}},
		AccessCodes: []models.AccessCode{
			{Code: "X1", Name: "Ada", Role: models.RoleJudge},
			{Code: "X1", Name: "Grace", Role: models.RoleJudge},
			{Code: "ADM", Name: "Admin", Role: models.RoleAdmin},
		},
	}

	r := CheckConfig(ev)
	assert.False(t, r.Success)
	assert.Equal(t, []string{"Criteria weights total 80% instead of 100%"}, r.Warnings)
	assert.Equal(t, []string{
		"Duplicate access codes found",
		"Duplicate squad IDs found",
		"Duplicate criteria IDs found",
		"Access code for unknown judge: Grace",
		"Squad s1 has unknown category: space",
	}, r.Issues)
}

func TestCheckConfigEmptyRoster(t *testing.T) {
	r := CheckConfig(&config.Event{})
	assert.False(t, r.Success)
	assert.Equal(t, []string{
		"No squads configured",
		"No evaluation criteria configured",
		"No access codes configured",
		"No judges configured",
	}, r.Issues)
	assert.Equal(t, []string{"Criteria weights total 0% instead of 100%"}, r.Warnings)
}

func TestRunHealthyStore(t *testing.T) {
	store := &fakeStore{
		votes:  []models.Vote{{JudgeName: "x", SquadID: "y"}, {JudgeName: "x", SquadID: "z"}},
		status: models.VotingClosed,
	}

	r := Run(context.Background(), store, defaultEvent(t))
	assert.True(t, r.Success)
	require.NotNil(t, r.Stats)
	assert.Equal(t, 2, r.Stats.TotalVotes)
	assert.Equal(t, "CLOSED", r.Stats.VotingStatus)
	assert.Equal(t, 12, r.Stats.TotalSquads)
	assert.Equal(t, 7, r.Stats.TotalCriteria)
	assert.Equal(t, 100, r.Stats.CriteriaWeightTotal)
}

func TestRunUnreachableStore(t *testing.T) {
	logger.SetForTest(t)

	boom := errors.New("connection refused")
	store := &fakeStore{pingErr: boom, votesErr: boom, settingsErr: boom}

	r := Run(context.Background(), store, defaultEvent(t))
	assert.False(t, r.Success)
	assert.Len(t, r.Issues, 3)
	assert.Contains(t, r.Issues[0], "Vote store connection failed")
	assert.Equal(t, StatusUnknown, r.Stats.VotingStatus)
	assert.Zero(t, r.Stats.TotalVotes)
}
