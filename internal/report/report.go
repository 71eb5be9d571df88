// Package report arranges scoring results into plain data tables for the
// spreadsheet export. Cells are strings, ints or float64 values only; no
// formulas and no styling.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/scoring"
)

// TimeLayout is the day-first timestamp format used in every sheet.
const TimeLayout = "02/01/2006, 15:04:05"

// Sheet names
const (
	SheetIndividualVotes   = "Individual Votes"
	SheetFinalRanking      = "Final Ranking"
	SheetCategoryRankings  = "Category Rankings"
	SheetJudgeSummary      = "Judge Summary"
	SheetCriteriaBreakdown = "Criteria Breakdown"
	SheetStatistics        = "Statistics"
)

// Table is one named sheet, header row first.
type Table struct {
	Name string
	Rows [][]any
}

// Generator builds report tables from a vote set.
type Generator struct {
	engine *scoring.Engine
	loc    *time.Location
}

// NewGenerator returns a generator formatting timestamps in loc (UTC when nil).
func NewGenerator(engine *scoring.Engine, loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{engine: engine, loc: loc}
}

// Standard returns the individual votes, final ranking, category rankings
// and judge summary sheets.
func (g *Generator) Standard(votes []models.Vote) []Table {
	ranked := g.engine.SquadScores(votes)
	return []Table{
		g.individualVotes(votes),
		g.finalRanking(ranked),
		g.categoryRankings(votes),
		g.judgeSummary(votes),
	}
}

// Detailed returns the standard sheets plus the per-criterion breakdown and
// the statistics sheet.
func (g *Generator) Detailed(votes []models.Vote) []Table {
	ranked := g.engine.SquadScores(votes)
	tables := g.Standard(votes)
	return append(tables,
		g.criteriaBreakdown(ranked),
		g.statistics(votes, ranked),
	)
}

func (g *Generator) individualVotes(votes []models.Vote) Table {
	criteria := g.engine.Criteria()
	categoryNames := g.categoryNames()

	header := []any{"Judge", "Squad", "Category", "Date & Time"}
	for _, c := range criteria {
		header = append(header, fmt.Sprintf("%s (%d%%)", c.Name, c.Weight))
	}
	header = append(header, "Weighted Total")

	rows := [][]any{header}
	for _, v := range votes {
		squadName, category := v.SquadID, ""
		if s, ok := g.engine.Squad(v.SquadID); ok {
			squadName = s.Name
			category = categoryNames[s.Category]
		}

		row := []any{v.JudgeName, squadName, category, g.formatTime(v.CreatedAt)}
		for _, c := range criteria {
			row = append(row, v.Scores[c.ID])
		}
		row = append(row, roundInt(g.engine.WeightedScore(v.Scores)))
		rows = append(rows, row)
	}

	return Table{Name: SheetIndividualVotes, Rows: rows}
}

func (g *Generator) finalRanking(ranked []models.SquadScore) Table {
	rows := [][]any{{"Position", "Squad", "Total Score", "Votes", "Average Score", "Mentor", "Challenge", "Members"}}
	for i, s := range ranked {
		info, _ := g.engine.Squad(s.SquadID)
		rows = append(rows, []any{
			i + 1,
			s.SquadName,
			roundInt(s.TotalScore),
			s.VoteCount,
			scoring.Round(s.AverageScore, 2),
			info.Mentor,
			info.Challenge,
			strings.Join(info.Members, ", "),
		})
	}
	return Table{Name: SheetFinalRanking, Rows: rows}
}

func (g *Generator) categoryRankings(votes []models.Vote) Table {
	var rows [][]any
	for _, c := range g.engine.CategoryRankings(votes) {
		rows = append(rows,
			[]any{strings.TrimSpace(c.Icon + " " + c.CategoryName)},
			[]any{"Position", "Squad", "Total Score", "Votes", "Average Score"},
		)
		for i, s := range c.Squads {
			rows = append(rows, []any{
				i + 1,
				s.SquadName,
				roundInt(s.TotalScore),
				s.VoteCount,
				scoring.Round(s.AverageScore, 2),
			})
		}
		rows = append(rows, []any{})
	}
	return Table{Name: SheetCategoryRankings, Rows: rows}
}

func (g *Generator) judgeSummary(votes []models.Vote) Table {
	rows := [][]any{{"Judge", "Squads Voted", "Total Squads", "Completion", "Last Vote"}}
	for _, p := range g.engine.JudgeProgress(votes) {
		last := "No votes"
		if p.LastVoteTime != nil {
			last = g.formatTime(*p.LastVoteTime)
		}
		rows = append(rows, []any{
			p.JudgeName,
			p.VotedSquads,
			p.TotalSquads,
			fmt.Sprintf("%d%%", p.Percentage),
			last,
		})
	}
	return Table{Name: SheetJudgeSummary, Rows: rows}
}

// criteriaBreakdown averages each criterion over every vote the squad got;
// a vote missing the criterion counts as 0, unlike honorable mentions.
func (g *Generator) criteriaBreakdown(ranked []models.SquadScore) Table {
	criteria := g.engine.Criteria()

	header := []any{"Squad"}
	for _, c := range criteria {
		header = append(header, c.Name+" - Average")
	}
	for _, c := range criteria {
		header = append(header, c.Name+" - Weighted Total")
	}
	header = append(header, "Final Score")

	rows := [][]any{header}
	for _, s := range ranked {
		row := []any{s.SquadName}
		for _, c := range criteria {
			avg := 0.0
			if n := len(s.JudgeVotes); n > 0 {
				sum := 0
				for _, jv := range s.JudgeVotes {
					sum += jv.CriteriaScores[c.ID]
				}
				avg = float64(sum) / float64(n)
			}
			row = append(row, scoring.Round(avg, 2))
		}
		for _, c := range criteria {
			total := 0
			for _, jv := range s.JudgeVotes {
				total += jv.CriteriaScores[c.ID] * c.Weight
			}
			row = append(row, total)
		}
		row = append(row, roundInt(s.TotalScore))
		rows = append(rows, row)
	}

	return Table{Name: SheetCriteriaBreakdown, Rows: rows}
}

func (g *Generator) statistics(votes []models.Vote, ranked []models.SquadScore) Table {
	stats := g.engine.OverallStats(votes)

	highest, lowest, mean := 0.0, 0.0, 0.0
	if len(ranked) > 0 {
		highest, lowest = math.Inf(-1), math.Inf(1)
		sum := 0.0
		for _, s := range ranked {
			highest = math.Max(highest, s.TotalScore)
			lowest = math.Min(lowest, s.TotalScore)
			sum += s.TotalScore
		}
		mean = sum / float64(len(ranked))
	}

	rows := [][]any{
		{"GENERAL STATISTICS"},
		{},
		{"Total votes recorded", stats.TotalVotes},
		{"Total possible votes", stats.TotalPossibleVotes},
		{"Completion", fmt.Sprintf("%d%%", stats.CompletionPercentage)},
		{"Judges who completed voting", stats.CompletedJudges},
		{"Total judges", stats.TotalJudges},
		{"Total squads", stats.TotalSquads},
		{},
		{"SCORE STATISTICS"},
		{},
		{"Highest score", roundInt(highest)},
		{"Lowest score", roundInt(lowest)},
		{"Mean score", roundInt(mean)},
		{},
		{"EVALUATION CRITERIA"},
		{},
	}
	for _, c := range g.engine.Criteria() {
		rows = append(rows, []any{c.Name, fmt.Sprintf("%d%%", c.Weight), c.Description})
	}

	return Table{Name: SheetStatistics, Rows: rows}
}

func (g *Generator) categoryNames() map[string]string {
	out := map[string]string{}
	for _, c := range g.engine.Categories() {
		out[c.ID] = c.Name
	}
	return out
}

func (g *Generator) formatTime(t time.Time) string {
	return t.In(g.loc).Format(TimeLayout)
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
