package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

func TestAuditLogJudgeActivity(t *testing.T) {
	logger.SetForTest(t)
	ctx := context.Background()
	a := NewAuditLog()
	t0 := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

	events := []models.VoteEvent{
		{Time: t0, Action: models.ActionSubmitted, JudgeName: "Luis", SquadID: "alpha"},
		{Time: t0.Add(time.Minute), Action: models.ActionSubmitted, JudgeName: "Ana", SquadID: "alpha"},
		{Time: t0.Add(2 * time.Minute), Action: models.ActionReplaced, JudgeName: "Ana", SquadID: "alpha"},
		{Time: t0.Add(3 * time.Minute), Action: models.ActionDeleted, JudgeName: "Ana", SquadID: "alpha", Actor: "Admin"},
	}
	for _, ev := range events {
		require.NoError(t, a.Record(ctx, ev))
	}

	activity, err := a.JudgeActivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.JudgeActivity{
		{JudgeName: "Ana", Submitted: 1, Replaced: 1, Deleted: 1, LastEvent: t0.Add(3 * time.Minute)},
		{JudgeName: "Luis", Submitted: 1, LastEvent: t0},
	}, activity)

	assert.Len(t, a.Events(), 4)
}

func TestAuditLogCopiesScores(t *testing.T) {
	logger.SetForTest(t)
	a := NewAuditLog()
	scores := map[string]int{"solution": 5}

	require.NoError(t, a.Record(context.Background(), models.VoteEvent{JudgeName: "Ana", Scores: scores}))
	scores["solution"] = 1

	assert.Equal(t, 5, a.Events()[0].Scores["solution"])
}
