package dal

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

// MemoryDAL implements VoteStore using in-memory storage
type MemoryDAL struct {
	mu       sync.RWMutex
	votes    []memoryVote
	seq      uint64
	settings models.VotingSettings
}

// memoryVote keeps the insertion sequence so votes created within the same
// clock tick still order deterministically
type memoryVote struct {
	vote models.Vote
	seq  uint64
}

// NewMemoryDAL creates a new in-memory data access layer with voting OPEN
func NewMemoryDAL() *MemoryDAL {
	return &MemoryDAL{
		settings: models.VotingSettings{
			ID:           settingsID,
			VotingStatus: models.VotingOpen,
			UpdatedAt:    time.Now().UTC(),
		},
	}
}

func (m *MemoryDAL) SubmitVote(ctx context.Context, judgeName, squadID string, scores map[string]int) (*models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(judgeName, squadID) >= 0 {
		return nil, ErrVoteExists
	}

	return m.insert(judgeName, squadID, scores), nil
}

func (m *MemoryDAL) ReplaceVote(ctx context.Context, judgeName, squadID string, scores map[string]int) (*models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(judgeName, squadID); i >= 0 {
		m.votes = append(m.votes[:i], m.votes[i+1:]...)
	}

	return m.insert(judgeName, squadID, scores), nil
}

func (m *MemoryDAL) GetAllVotes(ctx context.Context) ([]models.Vote, error) {
	return m.filter(func(models.Vote) bool { return true }), nil
}

func (m *MemoryDAL) GetVotesByJudge(ctx context.Context, judgeName string) ([]models.Vote, error) {
	return m.filter(func(v models.Vote) bool { return v.JudgeName == judgeName }), nil
}

func (m *MemoryDAL) GetVotesBySquad(ctx context.Context, squadID string) ([]models.Vote, error) {
	return m.filter(func(v models.Vote) bool { return v.SquadID == squadID }), nil
}

func (m *MemoryDAL) DeleteVote(ctx context.Context, judgeName, squadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(judgeName, squadID)
	if i < 0 {
		return ErrVoteNotFound
	}

	m.votes = append(m.votes[:i], m.votes[i+1:]...)
	return nil
}

func (m *MemoryDAL) HasJudgeVoted(ctx context.Context, judgeName, squadID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.indexOf(judgeName, squadID) >= 0, nil
}

func (m *MemoryDAL) GetVotingStatus(ctx context.Context) (models.VotingStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.settings.VotingStatus, nil
}

func (m *MemoryDAL) SetVotingStatus(ctx context.Context, status models.VotingStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings.VotingStatus = status
	m.settings.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryDAL) GetVotingSettings(ctx context.Context) (*models.VotingSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.settings
	return &s, nil
}

func (m *MemoryDAL) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryDAL) Close() error {
	return nil
}

// insert must be called with the write lock held
func (m *MemoryDAL) insert(judgeName, squadID string, scores map[string]int) *models.Vote {
	v := newVote(judgeName, squadID, maps.Clone(scores))
	m.seq++
	m.votes = append(m.votes, memoryVote{vote: *v, seq: m.seq})

	out := *v
	out.Scores = maps.Clone(v.Scores)
	return &out
}

// indexOf must be called with the lock held
func (m *MemoryDAL) indexOf(judgeName, squadID string) int {
	for i, mv := range m.votes {
		if mv.vote.JudgeName == judgeName && mv.vote.SquadID == squadID {
			return i
		}
	}
	return -1
}

func (m *MemoryDAL) filter(keep func(models.Vote) bool) []models.Vote {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]memoryVote, 0, len(m.votes))
	for _, mv := range m.votes {
		if keep(mv.vote) {
			matched = append(matched, mv)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.vote.CreatedAt.Equal(b.vote.CreatedAt) {
			return a.vote.CreatedAt.After(b.vote.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]models.Vote, len(matched))
	for i, mv := range matched {
		out[i] = mv.vote
		out[i].Scores = maps.Clone(mv.vote.Scores)
	}
	return out
}
