// Package scoring turns a vote set into weighted squad totals, category
// rankings, judge progress, completion statistics and per-criterion
// honorable mentions.
//
// Every method is a pure function of the vote slice it receives and the
// roster the Engine was built with. Nothing is cached between calls, so
// callers recompute from the full current vote set whenever it changes.
package scoring

import (
	"maps"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

// PodiumSize is the number of squads shown per category and in the final podium.
const PodiumSize = 3

// Engine holds the static roster used for aggregation. It is immutable
// after NewEngine and safe for concurrent use.
type Engine struct {
	criteria   []models.Criterion
	squads     []models.Squad
	judges     []models.Judge
	categories []models.Category

	weights   map[string]int
	squadByID map[string]models.Squad
}

// Results bundles every aggregate computed from one vote set.
type Results struct {
	SquadScores       []models.SquadScore       `json:"squadScores"`
	CategoryRankings  []models.CategoryRanking  `json:"categoryRankings"`
	JudgeProgress     []models.JudgeProgress    `json:"judgeProgress"`
	Stats             models.OverallStats       `json:"stats"`
	HonorableMentions []models.HonorableMention `json:"honorableMentions"`
}

// NewEngine resolves the roster once. Duplicate ids (criteria, squads) and
// duplicate judge names keep their first occurrence.
func NewEngine(criteria []models.Criterion, squads []models.Squad, judges []models.Judge, categories []models.Category) *Engine {
	e := &Engine{
		weights:   make(map[string]int, len(criteria)),
		squadByID: make(map[string]models.Squad, len(squads)),
	}

	for _, c := range criteria {
		if _, dup := e.weights[c.ID]; dup {
			continue
		}
		e.weights[c.ID] = c.Weight
		e.criteria = append(e.criteria, c)
	}

	for _, s := range squads {
		if _, dup := e.squadByID[s.ID]; dup {
			continue
		}
		e.squadByID[s.ID] = s
		e.squads = append(e.squads, s)
	}

	seenJudges := make(map[string]struct{}, len(judges))
	for _, j := range judges {
		if _, dup := seenJudges[j.Name]; dup {
			continue
		}
		seenJudges[j.Name] = struct{}{}
		e.judges = append(e.judges, j)
	}

	e.categories = slices.Clone(categories)

	return e
}

// Criteria returns the criteria in configuration order.
func (e *Engine) Criteria() []models.Criterion { return slices.Clone(e.criteria) }

// Squads returns the squads in configuration order.
func (e *Engine) Squads() []models.Squad { return slices.Clone(e.squads) }

// Judges returns the judges in configuration order.
func (e *Engine) Judges() []models.Judge { return slices.Clone(e.judges) }

// Categories returns the categories in configuration order.
func (e *Engine) Categories() []models.Category { return slices.Clone(e.categories) }

// Squad looks up a configured squad by id.
func (e *Engine) Squad(id string) (models.Squad, bool) {
	s, ok := e.squadByID[id]
	return s, ok
}

// WeightedScore returns Σ raw × weight over the criteria present in scores.
// Unknown criterion ids are ignored and missing criteria contribute nothing,
// so an empty map scores 0. The sum is in points (10 × total weight at most),
// not a percentage.
func (e *Engine) WeightedScore(scores map[string]int) float64 {
	total := 0
	for id, raw := range scores {
		if w, ok := e.weights[id]; ok {
			total += raw * w
		}
	}
	return float64(total)
}

// SquadScores aggregates votes into one SquadScore per configured squad.
//
// Squads without votes are present with zero totals and a zero average.
// Votes for squads missing from the roster are dropped. The result is
// sorted by TotalScore descending with a stable sort, so tied squads keep
// their configuration order.
func (e *Engine) SquadScores(votes []models.Vote) []models.SquadScore {
	results := make([]models.SquadScore, len(e.squads))
	index := make(map[string]int, len(e.squads))
	for i, s := range e.squads {
		results[i] = models.SquadScore{
			SquadID:    s.ID,
			SquadName:  s.Name,
			JudgeVotes: []models.JudgeVote{},
		}
		index[s.ID] = i
	}

	for _, v := range votes {
		i, ok := index[v.SquadID]
		if !ok {
			continue
		}

		score := e.WeightedScore(v.Scores)
		r := &results[i]
		r.TotalScore += score
		r.VoteCount++
		r.JudgeVotes = append(r.JudgeVotes, models.JudgeVote{
			JudgeName:      v.JudgeName,
			Score:          score,
			CriteriaScores: maps.Clone(v.Scores),
			Timestamp:      v.CreatedAt,
		})
	}

	for i := range results {
		if results[i].VoteCount > 0 {
			results[i].AverageScore = results[i].TotalScore / float64(results[i].VoteCount)
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].TotalScore > results[b].TotalScore
	})

	return results
}

// CategoryRankings partitions the squad ranking by category. Every
// configured category is returned, in configuration order, even when no
// squad belongs to it. TopThree holds at most PodiumSize entries.
func (e *Engine) CategoryRankings(votes []models.Vote) []models.CategoryRanking {
	return e.categoryRankings(e.SquadScores(votes))
}

func (e *Engine) categoryRankings(ranked []models.SquadScore) []models.CategoryRanking {
	out := make([]models.CategoryRanking, 0, len(e.categories))
	for _, c := range e.categories {
		squads := []models.SquadScore{}
		for _, s := range ranked {
			if e.squadByID[s.SquadID].Category == c.ID {
				squads = append(squads, s)
			}
		}

		out = append(out, models.CategoryRanking{
			Category:     c.ID,
			CategoryName: c.Name,
			Icon:         c.Icon,
			Squads:       squads,
			TopThree:     slices.Clone(squads[:min(PodiumSize, len(squads))]),
		})
	}
	return out
}

// JudgeProgress reports, for every configured judge, how many distinct
// configured squads they have scored. Counting distinct squads keeps
// VotedSquads within TotalSquads even if duplicate rows slip through the
// store. LastVoteTime is the newest CreatedAt among the judge's votes.
// Votes from unknown judges or for unknown squads are ignored. The result
// is sorted by Percentage descending, ties in configuration order.
func (e *Engine) JudgeProgress(votes []models.Vote) []models.JudgeProgress {
	type tally struct {
		squads map[string]struct{}
		last   time.Time
	}

	byJudge := make(map[string]*tally, len(e.judges))
	for _, j := range e.judges {
		byJudge[j.Name] = &tally{squads: map[string]struct{}{}}
	}

	for _, v := range votes {
		t, ok := byJudge[v.JudgeName]
		if !ok {
			continue
		}
		if _, known := e.squadByID[v.SquadID]; !known {
			continue
		}
		t.squads[v.SquadID] = struct{}{}
		if v.CreatedAt.After(t.last) {
			t.last = v.CreatedAt
		}
	}

	total := len(e.squads)
	out := make([]models.JudgeProgress, 0, len(e.judges))
	for _, j := range e.judges {
		t := byJudge[j.Name]
		p := models.JudgeProgress{
			JudgeName:   j.Name,
			VotedSquads: len(t.squads),
			TotalSquads: total,
			Percentage:  percent(len(t.squads), total),
		}
		if len(t.squads) > 0 {
			last := t.last
			p.LastVoteTime = &last
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Percentage > out[b].Percentage
	})

	return out
}

// OverallStats summarises completion. TotalVotes is the raw number of vote
// rows and is not deduplicated, so it can exceed TotalPossibleVotes if the
// store ever holds duplicates.
func (e *Engine) OverallStats(votes []models.Vote) models.OverallStats {
	return e.overallStats(votes, e.JudgeProgress(votes))
}

func (e *Engine) overallStats(votes []models.Vote, progress []models.JudgeProgress) models.OverallStats {
	possible := len(e.judges) * len(e.squads)

	completed := 0
	for _, p := range progress {
		if p.Percentage == 100 {
			completed++
		}
	}

	return models.OverallStats{
		TotalVotes:           len(votes),
		TotalPossibleVotes:   possible,
		CompletionPercentage: percent(len(votes), possible),
		CompletedJudges:      completed,
		TotalJudges:          len(e.judges),
		TotalSquads:          len(e.squads),
	}
}

// HonorableMentions picks, for each criterion, the squad with the highest
// average raw (unweighted) score on that criterion alone.
//
// Only votes that contain the criterion count toward a squad's average.
// Squads are compared in the order they first appear in votes and a
// challenger must be strictly greater to take the lead, so on an exact tie
// the squad encountered first wins. Criteria nobody scored produce no entry,
// and votes for unknown squads are skipped. Scores are rounded to one
// decimal place.
func (e *Engine) HonorableMentions(votes []models.Vote) []models.HonorableMention {
	type tally struct {
		total int
		count int
	}

	out := []models.HonorableMention{}
	for _, c := range e.criteria {
		order := []string{}
		tallies := map[string]*tally{}

		for _, v := range votes {
			raw, ok := v.Scores[c.ID]
			if !ok {
				continue
			}
			if _, known := e.squadByID[v.SquadID]; !known {
				continue
			}
			t, seen := tallies[v.SquadID]
			if !seen {
				t = &tally{}
				tallies[v.SquadID] = t
				order = append(order, v.SquadID)
			}
			t.total += raw
			t.count++
		}

		bestID := ""
		best := 0.0
		bestCount := 0
		for _, id := range order {
			t := tallies[id]
			avg := float64(t.total) / float64(t.count)
			if avg > best {
				best = avg
				bestID = id
				bestCount = t.count
			}
		}

		if bestID == "" {
			continue
		}

		out = append(out, models.HonorableMention{
			CriterionID:   c.ID,
			CriterionName: c.Name,
			Squad:         e.squadByID[bestID],
			Score:         Round(best, 1),
			TotalVotes:    bestCount,
		})
	}

	return out
}

// Winners returns the top n squads of the overall ranking.
func (e *Engine) Winners(votes []models.Vote, n int) []models.SquadScore {
	ranked := e.SquadScores(votes)
	if n < 0 {
		n = 0
	}
	return ranked[:min(n, len(ranked))]
}

// Compute runs every aggregation over the same vote set.
func (e *Engine) Compute(votes []models.Vote) Results {
	ranked := e.SquadScores(votes)
	progress := e.JudgeProgress(votes)

	return Results{
		SquadScores:       ranked,
		CategoryRankings:  e.categoryRankings(ranked),
		JudgeProgress:     progress,
		Stats:             e.overallStats(votes, progress),
		HonorableMentions: e.HonorableMentions(votes),
	}
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
