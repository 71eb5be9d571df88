package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/auth"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/config"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/dal"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/diagnostics"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/mocks"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/pubsub"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/report"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/scoreboard"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/scoring"
)

type testEnv struct {
	mux      *http.ServeMux
	store    *dal.MemoryDAL
	bus      *pubsub.PubSub
	board    *scoreboard.Refresher
	audit    *mocks.AuditLog
	sessions *auth.SessionManager
	health   *HealthChecks
	judge    *http.Cookie
	admin    *http.Cookie
}

func testEvent() *config.Event {
	return &config.Event{
		Name: "Test Hackathon",
		Categories: []models.Category{
			{ID: "innovation", Name: "Innovation", Icon: "💡"},
			{ID: "commercial", Name: "Commercial", Icon: "💰"},
		},
		Criteria: []models.Criterion{
			{ID: "solution", Name: "Solution", Weight: 60},
			{ID: "ux", Name: "UX", Weight: 40},
		},
		Squads: []models.Squad{
			{ID: "alpha", Name: "Alpha", Category: "innovation"},
			{ID: "beta", Name: "Beta", Category: "commercial"},
			{ID: "gamma", Name: "Gamma", Category: "innovation"},
		},
		Judges: []models.Judge{{Name: "Ana"}, {Name: "Luis"}},
		AccessCodes: []models.AccessCode{
			{Code: "JUDGE-ANA", Name: "Ana", Role: models.RoleJudge},
			{Code: "JUDGE-LUIS", Name: "Luis", Role: models.RoleJudge},
			{Code: "ADMIN-01", Name: "Admin", Role: models.RoleAdmin},
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.SetForTest(t)

	ev := testEvent()
	engine := scoring.NewEngine(ev.Criteria, ev.Squads, ev.Judges, ev.Categories)
	validator, err := diagnostics.NewScoreValidator(ev.Criteria)
	require.NoError(t, err)

	env := &testEnv{
		mux:      http.NewServeMux(),
		store:    dal.NewMemoryDAL(),
		bus:      pubsub.New(),
		audit:    mocks.NewAuditLog(),
		sessions: auth.NewSessionManager("test-secret", time.Hour, false),
	}
	env.board = scoreboard.NewRefresher(engine, env.store, env.bus, nil, time.Minute)

	h := NewAPIHandlers(Deps{
		Store:      env.store,
		Event:      ev,
		Engine:     engine,
		Reports:    report.NewGenerator(engine, time.UTC),
		Validator:  validator,
		Scoreboard: env.board,
		Bus:        env.bus,
		Audit:      env.audit,
	})
	h.Register(env.mux, env.sessions)

	env.health = &HealthChecks{Store: env.store, Audit: env.audit, Scoreboard: env.board}
	env.mux.HandleFunc("/api/health", env.health.Health)
	env.mux.HandleFunc("/healthz", env.health.Liveness)
	env.mux.HandleFunc("/readyz", env.health.Readiness)

	env.judge = env.login(t, "Ana", models.RoleJudge)
	env.admin = env.login(t, "Admin", models.RoleAdmin)
	return env
}

func (e *testEnv) login(t *testing.T, name string, role models.Role) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := e.sessions.Create(rec, name, role, auth.ProviderAccessCode)
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func (e *testEnv) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) vote(t *testing.T, judge, squad string, solution, ux int) {
	t.Helper()
	_, err := e.store.SubmitVote(context.Background(), judge, squad, map[string]int{"solution": solution, "ux": ux})
	require.NoError(t, err)
}

func (e *testEnv) refresh(t *testing.T) *scoreboard.Snapshot {
	t.Helper()
	snap, err := e.board.Refresh(context.Background())
	require.NoError(t, err)
	return snap
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestScoreboardNotReadyBeforeFirstRefresh(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/scoreboard", "/api/mentions", "/api/winners"} {
		assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodGet, path, "", nil).Code, path)
	}
}

func TestScoreboardServesLatestSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.vote(t, "Ana", "alpha", 5, 5)
	env.vote(t, "Ana", "beta", 9, 8)
	env.refresh(t)

	rec := env.do(http.MethodGet, "/api/scoreboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	snap := decode[scoreboard.Snapshot](t, rec)
	require.Len(t, snap.Results.SquadScores, 3)
	assert.Equal(t, "beta", snap.Results.SquadScores[0].SquadID)
	assert.Equal(t, 860.0, snap.Results.SquadScores[0].TotalScore)
	assert.Equal(t, models.VotingOpen, snap.VotingStatus)

	rec = env.do(http.MethodGet, "/api/mentions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mentions := decode[[]models.HonorableMention](t, rec)
	assert.Len(t, mentions, 2)
}

func TestWinnersOnlyAfterVotingCloses(t *testing.T) {
	env := newTestEnv(t)
	env.vote(t, "Ana", "alpha", 5, 5)
	env.vote(t, "Ana", "beta", 9, 8)
	env.vote(t, "Luis", "gamma", 7, 7)
	env.refresh(t)

	assert.Equal(t, http.StatusConflict, env.do(http.MethodGet, "/api/winners", "", nil).Code)

	require.NoError(t, env.store.SetVotingStatus(context.Background(), models.VotingClosed))
	env.refresh(t)

	rec := env.do(http.MethodGet, "/api/winners", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Overall    []models.SquadScore `json:"overall"`
		Categories []struct {
			Category string              `json:"category"`
			TopThree []models.SquadScore `json:"topThree"`
		} `json:"categories"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Overall, 3)
	assert.Equal(t, []string{"beta", "gamma", "alpha"},
		[]string{body.Overall[0].SquadID, body.Overall[1].SquadID, body.Overall[2].SquadID})
	require.Len(t, body.Categories, 2)
	assert.Equal(t, "innovation", body.Categories[0].Category)
	assert.Equal(t, "gamma", body.Categories[0].TopThree[0].SquadID)
}

func TestRosterEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/squads", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	roster := decode[struct {
		Squads     []models.Squad    `json:"squads"`
		Categories []models.Category `json:"categories"`
	}](t, rec)
	assert.Len(t, roster.Squads, 3)
	assert.Len(t, roster.Categories, 2)

	rec = env.do(http.MethodGet, "/api/criteria", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Criterion](t, rec), 2)

	rec = env.do(http.MethodGet, "/api/voting/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.VotingOpen, decode[models.VotingSettings](t, rec).VotingStatus)
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.vote(t, "Ana", "alpha", 5, 5)

	assert.Equal(t, http.StatusMethodNotAllowed, env.do(http.MethodGet, "/api/refresh", "", nil).Code)

	rec := env.do(http.MethodPost, "/api/refresh", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[scoreboard.Snapshot](t, rec).Results.Stats.TotalVotes)
}

func TestSubmitVote(t *testing.T) {
	env := newTestEnv(t)
	events := env.bus.Subscribe()

	rec := env.do(http.MethodPost, "/api/votes", `{"squadId":"alpha","scores":{"solution":8,"ux":6}}`, env.judge)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[struct {
		Vote          models.Vote `json:"vote"`
		WeightedScore float64     `json:"weightedScore"`
	}](t, rec)
	assert.Equal(t, "Ana", body.Vote.JudgeName)
	assert.Equal(t, map[string]int{"solution": 8, "ux": 6}, body.Vote.Scores)
	assert.Equal(t, 720.0, body.WeightedScore)

	select {
	case ev := <-events:
		assert.Equal(t, pubsub.EventVotesChanged, ev.Type)
		assert.Equal(t, "alpha", ev.Payload["squadId"])
	case <-time.After(time.Second):
		t.Fatal("no votes:changed event")
	}

	audit := env.audit.Events()
	require.Len(t, audit, 1)
	assert.Equal(t, models.ActionSubmitted, audit[0].Action)
	assert.Equal(t, "Ana", audit[0].Actor)
	assert.Equal(t, 720.0, audit[0].WeightedScore)

	rec = env.do(http.MethodPost, "/api/votes", `{"squadId":"alpha","scores":{"solution":1,"ux":1}}`, env.judge)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitVoteRejections(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		cookie func(*testEnv) *http.Cookie
		status int
		want   string
	}{
		{"no session", http.MethodPost, `{"squadId":"alpha","scores":{"solution":8,"ux":6}}`, func(*testEnv) *http.Cookie { return nil }, http.StatusUnauthorized, ""},
		{"admin cannot vote", http.MethodPost, `{"squadId":"alpha","scores":{"solution":8,"ux":6}}`, func(e *testEnv) *http.Cookie { return e.admin }, http.StatusForbidden, ""},
		{"wrong method", http.MethodGet, "", func(e *testEnv) *http.Cookie { return e.judge }, http.StatusMethodNotAllowed, ""},
		{"bad json", http.MethodPost, `{"squadId":`, func(e *testEnv) *http.Cookie { return e.judge }, http.StatusBadRequest, ""},
		{"unknown squad", http.MethodPost, `{"squadId":"alpah","scores":{"solution":8,"ux":6}}`, func(e *testEnv) *http.Cookie { return e.judge }, http.StatusNotFound, `"suggestion":"alpha"`},
		{"out of range", http.MethodPost, `{"squadId":"alpha","scores":{"solution":11,"ux":6}}`, func(e *testEnv) *http.Cookie { return e.judge }, http.StatusBadRequest, "Invalid score for Solution: must be integer between 1-10"},
		{"missing criterion", http.MethodPost, `{"squadId":"alpha","scores":{"solution":5}}`, func(e *testEnv) *http.Cookie { return e.judge }, http.StatusBadRequest, "Missing score for criterion: UX"},
		{"fractional", http.MethodPost, `{"squadId":"alpha","scores":{"solution":5.5,"ux":6}}`, func(e *testEnv) *http.Cookie { return e.judge }, http.StatusBadRequest, "Invalid score for Solution"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(tt.method, "/api/votes", tt.body, tt.cookie(env))
			assert.Equal(t, tt.status, rec.Code)
			if tt.want != "" {
				assert.Contains(t, rec.Body.String(), tt.want)
			}

			votes, err := env.store.GetAllVotes(context.Background())
			require.NoError(t, err)
			assert.Empty(t, votes)
			assert.Empty(t, env.audit.Events())
		})
	}
}

func TestUnknownSquadWithoutCloseMatch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/votes", `{"squadId":"nothing-like-it","scores":{"solution":8,"ux":6}}`, env.judge)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "suggestion")
}

func TestSubmitVoteWhileClosed(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.SetVotingStatus(context.Background(), models.VotingClosed))

	rec := env.do(http.MethodPost, "/api/votes", `{"squadId":"alpha","scores":{"solution":8,"ux":6}}`, env.judge)
	assert.Equal(t, http.StatusLocked, rec.Code)

	rec = env.do(http.MethodPost, "/api/votes/revote", `{"squadId":"alpha","scores":{"solution":8,"ux":6}}`, env.judge)
	assert.Equal(t, http.StatusLocked, rec.Code)
}

func TestReplaceVote(t *testing.T) {
	env := newTestEnv(t)
	env.vote(t, "Ana", "alpha", 2, 2)

	rec := env.do(http.MethodPost, "/api/votes/revote", `{"squadId":"alpha","scores":{"solution":9,"ux":9}}`, env.judge)
	require.Equal(t, http.StatusCreated, rec.Code)

	votes, err := env.store.GetVotesByJudge(context.Background(), "Ana")
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, map[string]int{"solution": 9, "ux": 9}, votes[0].Scores)
	assert.Equal(t, models.ActionReplaced, env.audit.Events()[0].Action)
}

func TestMyVotesAndCheck(t *testing.T) {
	env := newTestEnv(t)
	env.vote(t, "Ana", "alpha", 5, 5)
	env.vote(t, "Luis", "beta", 5, 5)

	rec := env.do(http.MethodGet, "/api/votes/mine", "", env.judge)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[[]models.Vote](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, "alpha", mine[0].SquadID)

	rec = env.do(http.MethodGet, "/api/votes/check?squadId=alpha", "", env.judge)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[map[string]bool](t, rec)["voted"])

	rec = env.do(http.MethodGet, "/api/votes/check?squadId=beta", "", env.judge)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[map[string]bool](t, rec)["voted"])

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/votes/check", "", env.judge).Code)
}

func TestAdminListVotes(t *testing.T) {
	env := newTestEnv(t)
	env.vote(t, "Ana", "alpha", 5, 5)
	env.vote(t, "Luis", "alpha", 6, 6)
	env.vote(t, "Luis", "beta", 7, 7)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/admin/votes", "", env.judge).Code)

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?judge=Luis", 2},
		{"?squadId=alpha", 2},
		{"?judge=Nobody", 0},
	}
	for _, tt := range tests {
		rec := env.do(http.MethodGet, "/api/admin/votes"+tt.query, "", env.admin)
		require.Equal(t, http.StatusOK, rec.Code, tt.query)
		assert.Len(t, decode[[]models.Vote](t, rec), tt.want, tt.query)
	}
}

func TestAdminDeleteVote(t *testing.T) {
	env := newTestEnv(t)
	env.vote(t, "Ana", "alpha", 5, 5)

	rec := env.do(http.MethodPost, "/api/admin/votes/delete", `{"judgeName":"Ana","squadId":"beta"}`, env.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/api/admin/votes/delete", `{"judgeName":"Ana"}`, env.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/admin/votes/delete", `{"judgeName":"Ana","squadId":"alpha"}`, env.admin)
	require.Equal(t, http.StatusOK, rec.Code)

	voted, err := env.store.HasJudgeVoted(context.Background(), "Ana", "alpha")
	require.NoError(t, err)
	assert.False(t, voted)

	events := env.audit.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.ActionDeleted, events[0].Action)
	assert.Equal(t, "Ana", events[0].JudgeName)
	assert.Equal(t, "Admin", events[0].Actor)

	// The judge may vote again after the admin removed the old vote
	rec = env.do(http.MethodPost, "/api/votes", `{"squadId":"alpha","scores":{"solution":3,"ux":3}}`, env.judge)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAdminSetVotingStatus(t *testing.T) {
	env := newTestEnv(t)
	events := env.bus.Subscribe()

	rec := env.do(http.MethodPost, "/api/admin/voting-status", `{"status":"PAUSED"}`, env.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/admin/voting-status", `{"status":"CLOSED"}`, env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.VotingClosed, decode[models.VotingSettings](t, rec).VotingStatus)

	select {
	case ev := <-events:
		assert.Equal(t, pubsub.EventSettingsStatus, ev.Type)
		assert.Equal(t, "CLOSED", ev.Payload["status"])
	case <-time.After(time.Second):
		t.Fatal("no settings:status event")
	}

	status, err := env.store.GetVotingStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.VotingClosed, status)
}

func TestAdminExport(t *testing.T) {
	env := newTestEnv(t)
	env.vote(t, "Ana", "alpha", 5, 5)

	for _, tt := range []struct {
		query  string
		prefix string
	}{
		{"", "Hackathon_Results_"},
		{"?detailed=true", "Hackathon_Detailed_Report_"},
	} {
		rec := env.do(http.MethodGet, "/api/admin/export"+tt.query, "", env.admin)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, report.ContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), tt.prefix)
		assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx is a zip archive")
	}

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/admin/export", "", env.judge).Code)
}

func TestAdminDiagnosticsAndAudit(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/api/votes", `{"squadId":"alpha","scores":{"solution":8,"ux":6}}`, env.judge)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodGet, "/api/admin/diagnostics", "", env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	diag := decode[struct {
		Report diagnostics.Report `json:"report"`
	}](t, rec)
	assert.True(t, diag.Report.Success)
	require.NotNil(t, diag.Report.Stats)
	assert.Equal(t, 1, diag.Report.Stats.TotalVotes)
	assert.Equal(t, "OPEN", diag.Report.Stats.VotingStatus)

	rec = env.do(http.MethodGet, "/api/admin/audit", "", env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	activity := decode[[]models.JudgeActivity](t, rec)
	require.Len(t, activity, 1)
	assert.Equal(t, "Ana", activity[0].JudgeName)
	assert.Equal(t, 1, activity[0].Submitted)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/healthz", "", nil).Code)

	rec := env.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "scoreboard_not_ready", decode[map[string]any](t, rec)["reason"])

	env.refresh(t)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/readyz", "", nil).Code)

	rec = env.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Status string                    `json:"status"`
		Checks map[string]map[string]any `json:"checks"`
	}](t, rec)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"]["status"])
	assert.Equal(t, "not_configured", body.Checks["cache"]["status"])
	assert.Equal(t, "healthy", body.Checks["audit"]["status"])
	assert.Equal(t, "healthy", body.Checks["scoreboard"]["status"])
}

func TestEventsSSE(t *testing.T) {
	env := newTestEnv(t)
	env.vote(t, "Ana", "alpha", 5, 5)
	env.refresh(t)

	srv := httptest.NewServer(env.mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := make(chan pubsub.Event, 10)
	go func() {
		buf := make([]byte, 64*1024)
		var pending string
		for {
			n, err := resp.Body.Read(buf)
			pending += string(buf[:n])
			for {
				i := strings.Index(pending, "\n\n")
				if i < 0 {
					break
				}
				frame := pending[:i]
				pending = pending[i+2:]
				if data, ok := strings.CutPrefix(frame, "data: "); ok {
					var ev pubsub.Event
					if json.Unmarshal([]byte(data), &ev) == nil {
						frames <- ev
					}
				}
			}
			if err != nil {
				close(frames)
				return
			}
		}
	}()

	next := func() pubsub.Event {
		t.Helper()
		select {
		case ev, ok := <-frames:
			require.True(t, ok, "stream closed")
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for SSE frame")
			return pubsub.Event{}
		}
	}

	assert.Equal(t, "connected", next().Type)

	initial := next()
	assert.Equal(t, pubsub.EventScoreboardUpdated, initial.Type)
	assert.Contains(t, initial.Payload, "snapshot")

	env.bus.Publish(pubsub.Event{Type: pubsub.EventSettingsStatus, Payload: map[string]any{"status": "CLOSED"}})
	ev := next()
	assert.Equal(t, pubsub.EventSettingsStatus, ev.Type)
	assert.Equal(t, "CLOSED", ev.Payload["status"])
}
