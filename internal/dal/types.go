package dal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

var (
	// ErrVoteExists is returned when the judge already scored the squad
	ErrVoteExists = errors.New("vote already exists for this judge and squad")
	// ErrVoteNotFound is returned when there is no vote to delete
	ErrVoteNotFound = errors.New("vote not found")
	// ErrInvalidStatus is returned for anything other than OPEN or CLOSED
	ErrInvalidStatus = errors.New("invalid voting status")
)

// settingsID is the primary key of the singleton settings row
const settingsID = 1

// VoteStore defines the interface for the vote record store. At most one
// vote exists per (judge, squad); every read returns votes newest first.
type VoteStore interface {
	SubmitVote(ctx context.Context, judgeName, squadID string, scores map[string]int) (*models.Vote, error)
	// ReplaceVote removes any existing vote for the pair and stores the new
	// one in a single step.
	ReplaceVote(ctx context.Context, judgeName, squadID string, scores map[string]int) (*models.Vote, error)
	GetAllVotes(ctx context.Context) ([]models.Vote, error)
	GetVotesByJudge(ctx context.Context, judgeName string) ([]models.Vote, error)
	GetVotesBySquad(ctx context.Context, squadID string) ([]models.Vote, error)
	DeleteVote(ctx context.Context, judgeName, squadID string) error
	HasJudgeVoted(ctx context.Context, judgeName, squadID string) (bool, error)

	GetVotingStatus(ctx context.Context) (models.VotingStatus, error)
	SetVotingStatus(ctx context.Context, status models.VotingStatus) error
	GetVotingSettings(ctx context.Context) (*models.VotingSettings, error)

	Ping(ctx context.Context) error
	Close() error
}

func newVote(judgeName, squadID string, scores map[string]int) *models.Vote {
	return &models.Vote{
		ID:        uuid.NewString(),
		JudgeName: judgeName,
		SquadID:   squadID,
		Scores:    scores,
		CreatedAt: time.Now().UTC(),
	}
}
