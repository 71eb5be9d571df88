package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RefreshCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judging_refresh_cycles_total",
			Help: "Scoreboard refresh cycles by result (applied, stale, failed)",
		},
		[]string{"result"},
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "judging_refresh_duration_seconds",
			Help:    "Time spent fetching votes and recomputing results",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotVotes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "judging_snapshot_votes",
			Help: "Number of votes behind the current scoreboard snapshot",
		},
	)

	VoteMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judging_vote_mutations_total",
			Help: "Vote submissions, replacements and deletions by result",
		},
		[]string{"action", "result"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judging_login_attempts_total",
			Help: "Access code logins by result",
		},
		[]string{"result"},
	)

	SSEClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "judging_sse_clients",
			Help: "Connected server-sent event clients",
		},
	)
)
