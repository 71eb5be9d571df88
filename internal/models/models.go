package models

import "time"

// Role is the access level granted by an access code
type Role string

const (
	RoleJudge Role = "judge"
	RoleAdmin Role = "admin"
)

// VotingStatus gates new vote submissions
type VotingStatus string

const (
	VotingOpen   VotingStatus = "OPEN"
	VotingClosed VotingStatus = "CLOSED"
)

// Valid reports whether s is OPEN or CLOSED
func (s VotingStatus) Valid() bool {
	return s == VotingOpen || s == VotingClosed
}

// Criterion is one weighted rubric dimension
type Criterion struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description"`
	Weight      int    `json:"weight" yaml:"weight" validate:"gte=1"`
}

// Category groups squads into a ranking track
type Category struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Name string `json:"name" yaml:"name" validate:"required"`
	Icon string `json:"icon" yaml:"icon"`
}

// Squad represents a competing team
type Squad struct {
	ID        string   `json:"id" yaml:"id" validate:"required"`
	Name      string   `json:"name" yaml:"name" validate:"required"`
	Members   []string `json:"members" yaml:"members"`
	Mentor    string   `json:"mentor" yaml:"mentor"`
	Challenge string   `json:"challenge" yaml:"challenge"`
	Category  string   `json:"category" yaml:"category" validate:"required"`
}

// Judge is identified by display name
type Judge struct {
	Name  string `json:"name" yaml:"name" validate:"required"`
	Title string `json:"title,omitempty" yaml:"title"`
}

// AccessCode maps a login code to an identity
type AccessCode struct {
	Code string `json:"-" yaml:"code" validate:"required"`
	Name string `json:"name" yaml:"name" validate:"required"`
	Role Role   `json:"role" yaml:"role" validate:"oneof=judge admin"`
}

// Vote is one judge's rubric submission for one squad
type Vote struct {
	ID        string         `json:"id"`
	JudgeName string         `json:"judgeName"`
	SquadID   string         `json:"squadId"`
	Scores    map[string]int `json:"scores"`
	CreatedAt time.Time      `json:"createdAt"`
}

// VotingSettings is the singleton settings row
type VotingSettings struct {
	ID           int          `json:"id"`
	VotingStatus VotingStatus `json:"votingStatus"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// JudgeVote is a single vote as seen from a squad's score card
type JudgeVote struct {
	JudgeName      string         `json:"judgeName"`
	Score          float64        `json:"score"`
	CriteriaScores map[string]int `json:"criteriaScores"`
	Timestamp      time.Time      `json:"timestamp"`
}

// SquadScore is the aggregated result for one squad
type SquadScore struct {
	SquadID      string      `json:"squadId"`
	SquadName    string      `json:"squadName"`
	TotalScore   float64     `json:"totalScore"`
	VoteCount    int         `json:"voteCount"`
	AverageScore float64     `json:"averageScore"`
	JudgeVotes   []JudgeVote `json:"judgeVotes"`
}

// CategoryRanking is the ranking within one category
type CategoryRanking struct {
	Category     string       `json:"category"`
	CategoryName string       `json:"categoryName"`
	Icon         string       `json:"icon"`
	Squads       []SquadScore `json:"squads"`
	TopThree     []SquadScore `json:"topThree"`
}

// JudgeProgress tracks how far a judge is through the squad list
type JudgeProgress struct {
	JudgeName    string     `json:"judgeName"`
	VotedSquads  int        `json:"votedSquads"`
	TotalSquads  int        `json:"totalSquads"`
	Percentage   int        `json:"percentage"`
	LastVoteTime *time.Time `json:"lastVoteTime,omitempty"`
}

// OverallStats summarises completion across all judges
type OverallStats struct {
	TotalVotes           int `json:"totalVotes"`
	TotalPossibleVotes   int `json:"totalPossibleVotes"`
	CompletionPercentage int `json:"completionPercentage"`
	CompletedJudges      int `json:"completedJudges"`
	TotalJudges          int `json:"totalJudges"`
	TotalSquads          int `json:"totalSquads"`
}

// HonorableMention is the per-criterion winner
type HonorableMention struct {
	CriterionID   string  `json:"criterion"`
	CriterionName string  `json:"criterionName"`
	Squad         Squad   `json:"squad"`
	Score         float64 `json:"score"`
	TotalVotes    int     `json:"totalVotes"`
}

// VoteAction is the kind of vote mutation recorded in the audit trail
type VoteAction string

const (
	ActionSubmitted VoteAction = "submitted"
	ActionReplaced  VoteAction = "replaced"
	ActionDeleted   VoteAction = "deleted"
)

// VoteEvent is one audit trail entry
type VoteEvent struct {
	Time          time.Time      `json:"time"`
	Action        VoteAction     `json:"action"`
	JudgeName     string         `json:"judgeName"`
	SquadID       string         `json:"squadId"`
	Actor         string         `json:"actor"`
	WeightedScore float64        `json:"weightedScore"`
	Scores        map[string]int `json:"scores,omitempty"`
}

// JudgeActivity is the per-judge audit summary
type JudgeActivity struct {
	JudgeName string    `json:"judgeName"`
	Submitted int       `json:"submitted"`
	Replaced  int       `json:"replaced"`
	Deleted   int       `json:"deleted"`
	LastEvent time.Time `json:"lastEvent"`
}
