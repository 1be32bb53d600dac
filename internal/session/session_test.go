package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/fivehands/internal/evaluation"
	"github.com/lox/fivehands/internal/game"
	"github.com/lox/fivehands/internal/mode"
	"github.com/lox/fivehands/internal/ranking"
	"github.com/lox/fivehands/internal/remote"
	"github.com/lox/fivehands/internal/statistics"
)

const waitTimeout = 5 * time.Second

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// blockingEvaluator holds every call until the test releases it.
type blockingEvaluator struct {
	rounds   chan game.RoundResult
	rankings chan []ranking.Entry
	calls    chan string
}

func newBlockingEvaluator() *blockingEvaluator {
	return &blockingEvaluator{
		rounds:   make(chan game.RoundResult, 1),
		rankings: make(chan []ranking.Entry, 1),
		calls:    make(chan string, 16),
	}
}

func (b *blockingEvaluator) EvaluateRound(ctx context.Context, player string, hand game.Hand) (game.RoundResult, error) {
	b.calls <- "round:" + player
	select {
	case r := <-b.rounds:
		return r, nil
	case <-ctx.Done():
		return game.RoundResult{}, ctx.Err()
	}
}

func (b *blockingEvaluator) Rankings(ctx context.Context) ([]ranking.Entry, error) {
	b.calls <- "rankings"
	select {
	case r := <-b.rankings:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *blockingEvaluator) waitCall(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-b.calls:
		require.Equal(t, want, got)
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", want)
	}
}

func watch(s *Session) <-chan View {
	ch := make(chan View, 256)
	s.Subscribe(func(v View) {
		ch <- v
	})
	return ch
}

func waitForView(t *testing.T, views <-chan View, match func(View) bool) View {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case v := <-views:
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for view")
			return View{}
		}
	}
}

func inState(state State) func(View) bool {
	return func(v View) bool { return v.State == state }
}

func assertNoView(t *testing.T, views <-chan View) {
	t.Helper()
	select {
	case v := <-views:
		t.Fatalf("unexpected view published: %+v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func newLocalSession(t *testing.T, picker evaluation.Picker) (*Session, *statistics.Store) {
	t.Helper()
	stats := statistics.NewStore()
	svc := evaluation.NewService(evaluation.Options{
		Stats:  stats,
		Picker: picker,
		Logger: testLogger(),
	})
	s, err := New(Options{
		Evaluator:    svc,
		Mode:         svc.Mode(),
		RankingLimit: DefaultRankingLimit,
		Logger:       testLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, stats
}

func fixedPicker(h game.Hand) evaluation.Picker {
	return evaluation.PickerFunc(func() game.Hand { return h })
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{Mode: mode.NewSwitch(false, nil)})
	assert.Error(t, err)

	_, err = New(Options{Evaluator: newBlockingEvaluator()})
	assert.Error(t, err)
}

func TestInitialView(t *testing.T) {
	s, _ := newLocalSession(t, fixedPicker(game.Stein))

	v := s.View()
	assert.Equal(t, Idle, v.State)
	assert.Equal(t, s.ID(), v.SessionID)
	assert.Empty(t, v.Player)
	assert.Empty(t, v.History)
	assert.Equal(t, Actions{Start: true, ToggleMode: true}, v.Actions)
	assert.Equal(t, "Wechsel zur Server", v.ModeLabel())
}

func TestStart(t *testing.T) {
	s, _ := newLocalSession(t, fixedPicker(game.Stein))
	views := watch(s)

	require.ErrorIs(t, s.Start("   "), ErrInvalidPlayer)
	assert.Equal(t, Idle, s.State())

	require.NoError(t, s.Start(" alice "))

	v := waitForView(t, views, inState(ChoosingHand))
	assert.Equal(t, "alice", v.Player)
	assert.Equal(t, "Du bist am Zug...", v.Status())
	assert.Equal(t, UnknownHandLabel, v.OpponentHand())
	assert.Equal(t, Actions{Submit: true, Exit: true}, v.Actions)

	err := s.Start("bob")
	require.ErrorIs(t, err, ErrIllegalTransition)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ChoosingHand, te.From)
	assert.Equal(t, EventStart, te.Event)
}

func TestSubmitRejectedWhileIdle(t *testing.T) {
	s, stats := newLocalSession(t, fixedPicker(game.Stein))

	err := s.Submit(game.Schere)
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, Idle, s.State())
	assert.Zero(t, stats.Len())
}

func TestSubmitRejectsInvalidHand(t *testing.T) {
	s, _ := newLocalSession(t, fixedPicker(game.Stein))
	require.NoError(t, s.Start("alice"))

	require.ErrorIs(t, s.Submit(game.NoHand), game.ErrUnknownHand)
	assert.Equal(t, ChoosingHand, s.State())
}

func TestLocalRoundUpdatesStatsAndHistory(t *testing.T) {
	s, stats := newLocalSession(t, fixedPicker(game.Stein))
	views := watch(s)

	require.NoError(t, s.Start("alice"))
	require.NoError(t, s.Submit(game.Schere))

	awaiting := waitForView(t, views, inState(AwaitingOpponent))
	assert.Equal(t, game.Schere, awaiting.ChosenHand)
	assert.Equal(t, "Gegner ist am Zug...", awaiting.Status())
	assert.Equal(t, Actions{}, awaiting.Actions)

	cooldown := waitForView(t, views, inState(Cooldown))
	require.NotNil(t, cooldown.Round)
	assert.Equal(t, game.Lose, cooldown.Round.Outcome)
	assert.Equal(t, "Stein", cooldown.OpponentHand())
	assert.Equal(t, "Verloren", OutcomeLabel(cooldown.Round.Outcome))
	require.Len(t, cooldown.History, 1)

	// zero cooldown goes straight back to choosing
	next := waitForView(t, views, inState(ChoosingHand))
	assert.Nil(t, next.Round)
	assert.Equal(t, game.NoHand, next.ChosenHand)
	assert.Len(t, next.History, 1)

	stat, ok := stats.Get("alice")
	require.True(t, ok)
	assert.Equal(t, 1, stat.Losses)
	assert.Equal(t, 0, stat.Wins)
}

func TestCooldownLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	clock := quartz.NewMock(t)
	eval := newBlockingEvaluator()
	s, err := New(Options{
		Evaluator: eval,
		Mode:      mode.NewSwitch(false, nil),
		Clock:     clock,
		Cooldown:  DefaultCooldown,
		Logger:    testLogger(),
	})
	require.NoError(t, err)
	defer s.Close()
	views := watch(s)

	require.NoError(t, s.Start("alice"))
	require.NoError(t, s.Submit(game.Papier))
	eval.waitCall(t, "round:alice")

	require.ErrorIs(t, s.Submit(game.Stein), ErrIllegalTransition, "only one round in flight")
	require.ErrorIs(t, s.Exit(), ErrIllegalTransition, "exit is not allowed while awaiting")

	eval.rounds <- game.Judge(game.Papier, game.Stein)

	cooldown := waitForView(t, views, inState(Cooldown))
	assert.Equal(t, game.Win, cooldown.Round.Outcome)
	assert.Equal(t, "Nächste Runde beginnt in Kürze", cooldown.Status())

	require.ErrorIs(t, s.Submit(game.Stein), ErrIllegalTransition, "submit rejected during cooldown")
	require.ErrorIs(t, s.ToggleMode(), ErrIllegalTransition)

	var d time.Duration
	require.Eventually(t, func() bool {
		var ok bool
		d, ok = clock.Peek()
		return ok
	}, waitTimeout, time.Millisecond, "cooldown timer should be pending")
	assert.Equal(t, DefaultCooldown, d)
	clock.Advance(d).MustWait(ctx)

	next := waitForView(t, views, inState(ChoosingHand))
	assert.Nil(t, next.Round)
	assert.Len(t, next.History, 1)

	require.NoError(t, s.Submit(game.Brunnen))
	eval.waitCall(t, "round:alice")
	eval.rounds <- game.Judge(game.Brunnen, game.Schere)

	second := waitForView(t, views, inState(Cooldown))
	require.Len(t, second.History, 2)
	assert.Equal(t, game.Papier, second.History[0].PlayerHand)
	assert.Equal(t, game.Brunnen, second.History[1].PlayerHand)
}

func TestRemoteFailureReturnsToChoosing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := remote.NewClient(srv.URL, time.Second, testLogger())
	require.NoError(t, err)

	stats := statistics.NewStore()
	switcher := mode.NewSwitch(true, nil)
	svc := evaluation.NewService(evaluation.Options{
		Stats:  stats,
		Mode:   switcher,
		Remote: client,
		Logger: testLogger(),
	})
	s, err := New(Options{Evaluator: svc, Mode: switcher, Logger: testLogger()})
	require.NoError(t, err)
	defer s.Close()
	views := watch(s)

	require.NoError(t, s.Start("alice"))
	require.NoError(t, s.Submit(game.Schere))

	waitForView(t, views, inState(AwaitingOpponent))
	failed := waitForView(t, views, inState(ChoosingHand))

	assert.Contains(t, failed.Error, "round failed")
	assert.Empty(t, failed.History)
	assert.Equal(t, game.NoHand, failed.ChosenHand)
	assert.Zero(t, stats.Len(), "stats untouched on remote failure")

	// the player can retry
	require.NoError(t, s.Submit(game.Stein))
	retried := waitForView(t, views, inState(AwaitingOpponent))
	assert.Empty(t, retried.Error)
}

func TestExitClearsSession(t *testing.T) {
	s, _ := newLocalSession(t, fixedPicker(game.Stein))
	views := watch(s)

	require.NoError(t, s.Start("alice"))
	require.NoError(t, s.Submit(game.Papier))
	waitForView(t, views, func(v View) bool { return v.State == ChoosingHand && len(v.History) == 1 })

	require.NoError(t, s.Exit())
	idle := waitForView(t, views, inState(Idle))
	assert.Empty(t, idle.Player)
	assert.Empty(t, idle.History)
	assert.True(t, idle.RankingsLoading)

	loaded := waitForView(t, views, func(v View) bool { return v.State == Idle && !v.RankingsLoading })
	assert.Equal(t, []ranking.Entry{{Rank: 1, Wins: 1, Players: []string{"alice"}}}, loaded.Rankings)

	require.ErrorIs(t, s.Exit(), ErrIllegalTransition)
}

func TestToggleModeOnlyWhileIdle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, remote.RankingPath, r.URL.Path)
		_, _ = io.WriteString(w, `{"zoe": {"user": "zoe", "win": 9, "lost": 0}}`)
	}))
	defer srv.Close()

	client, err := remote.NewClient(srv.URL, time.Second, testLogger())
	require.NoError(t, err)

	stats := statistics.NewStore()
	stats.RecordRound("local-lou", game.Win)
	switcher := mode.NewSwitch(false, nil)
	svc := evaluation.NewService(evaluation.Options{
		Stats:  stats,
		Mode:   switcher,
		Remote: client,
		Logger: testLogger(),
	})
	s, err := New(Options{Evaluator: svc, Mode: switcher, Logger: testLogger()})
	require.NoError(t, err)
	defer s.Close()
	views := watch(s)

	require.NoError(t, s.Start("alice"))
	require.ErrorIs(t, s.ToggleMode(), ErrIllegalTransition)
	assert.False(t, switcher.IsRemote(), "rejected toggle must not switch")

	require.NoError(t, s.Exit())
	local := waitForView(t, views, func(v View) bool { return v.State == Idle && !v.RankingsLoading })
	assert.Equal(t, []string{"local-lou"}, local.Rankings[0].Players)

	require.NoError(t, s.ToggleMode())
	assert.True(t, switcher.IsRemote())

	remoteView := waitForView(t, views, func(v View) bool { return v.Remote && !v.RankingsLoading })
	assert.Equal(t, "Wechsel zur Lokal", remoteView.ModeLabel())
	assert.Equal(t, []ranking.Entry{{Rank: 1, Wins: 9, Players: []string{"zoe"}}}, remoteView.Rankings)
}

func TestRankingFailureIsReported(t *testing.T) {
	switcher := mode.NewSwitch(true, nil)
	svc := evaluation.NewService(evaluation.Options{Mode: switcher, Logger: testLogger()})
	s, err := New(Options{Evaluator: svc, Mode: switcher, Logger: testLogger()})
	require.NoError(t, err)
	defer s.Close()
	views := watch(s)

	require.NoError(t, s.RefreshRankings())
	v := waitForView(t, views, func(v View) bool { return !v.RankingsLoading })
	assert.Contains(t, v.Error, "ranking unavailable")
	assert.Empty(t, v.Rankings)
	assert.Equal(t, Idle, v.State)
}

func TestRankingsTruncated(t *testing.T) {
	s, stats := newLocalSession(t, fixedPicker(game.Stein))
	for i := 0; i < 15; i++ {
		player := fmt.Sprintf("p%02d", i)
		for w := 0; w < i; w++ {
			stats.RecordRound(player, game.Win)
		}
	}
	views := watch(s)

	require.NoError(t, s.RefreshRankings())
	v := waitForView(t, views, func(v View) bool { return !v.RankingsLoading })
	require.Len(t, v.Rankings, DefaultRankingLimit)
	assert.Equal(t, 14, v.Rankings[0].Wins)
}

func TestStaleRankingDropped(t *testing.T) {
	eval := newBlockingEvaluator()
	s, err := New(Options{Evaluator: eval, Mode: mode.NewSwitch(false, nil), Logger: testLogger()})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.RefreshRankings())
	eval.waitCall(t, "rankings")
	require.NoError(t, s.Start("alice"))

	views := watch(s)
	eval.rankings <- []ranking.Entry{{Rank: 1, Wins: 1, Players: []string{"ghost"}}}

	assertNoView(t, views)
	v := s.View()
	assert.Equal(t, ChoosingHand, v.State)
	assert.Empty(t, v.Rankings)
	assert.False(t, v.RankingsLoading)
}

func TestCloseDropsInFlightRound(t *testing.T) {
	eval := newBlockingEvaluator()
	s, err := New(Options{Evaluator: eval, Mode: mode.NewSwitch(false, nil), Logger: testLogger()})
	require.NoError(t, err)

	require.NoError(t, s.Start("alice"))
	require.NoError(t, s.Submit(game.Schere))
	eval.waitCall(t, "round:alice")

	views := watch(s)
	s.Close()
	s.Close()

	assertNoView(t, views)
	v := s.View()
	assert.Empty(t, v.History)
	assert.Nil(t, v.Round)

	require.ErrorIs(t, s.Start("bob"), ErrClosed)
	require.ErrorIs(t, s.Submit(game.Stein), ErrClosed)
}

func TestCloseStopsCooldown(t *testing.T) {
	clock := quartz.NewMock(t)
	eval := newBlockingEvaluator()
	s, err := New(Options{
		Evaluator: eval,
		Mode:      mode.NewSwitch(false, nil),
		Clock:     clock,
		Cooldown:  DefaultCooldown,
		Logger:    testLogger(),
	})
	require.NoError(t, err)
	views := watch(s)

	require.NoError(t, s.Start("alice"))
	require.NoError(t, s.Submit(game.Schere))
	eval.waitCall(t, "round:alice")
	eval.rounds <- game.Judge(game.Schere, game.Schere)
	waitForView(t, views, inState(Cooldown))
	require.Eventually(t, func() bool {
		_, ok := clock.Peek()
		return ok
	}, waitTimeout, time.Millisecond)

	s.Close()

	_, pending := clock.Peek()
	assert.False(t, pending, "cooldown timer should be stopped")
	assert.Equal(t, Cooldown, s.State())
}

func TestUnsubscribe(t *testing.T) {
	s, _ := newLocalSession(t, fixedPicker(game.Stein))

	count := 0
	unsubscribe := s.Subscribe(func(View) { count++ })
	require.NoError(t, s.Start("alice"))
	unsubscribe()
	require.NoError(t, s.Exit())

	assert.Equal(t, 1, count)
}

func TestViewSequenceIncreases(t *testing.T) {
	s, _ := newLocalSession(t, fixedPicker(game.Stein))
	views := watch(s)

	require.NoError(t, s.Start("alice"))
	require.NoError(t, s.Submit(game.Schere))

	var last uint64
	waitForView(t, views, func(v View) bool {
		assert.Greater(t, v.Seq, last)
		last = v.Seq
		return v.State == ChoosingHand && len(v.History) == 1
	})
}
