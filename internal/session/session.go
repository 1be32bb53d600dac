// Package session implements the per-player game state machine.
//
// A Session cycles through Idle → ChoosingHand → AwaitingOpponent → Cooldown →
// ChoosingHand until the player exits back to Idle. Round evaluation and
// ranking fetches run on their own goroutines; their results re-enter the
// session only if it is still in the state that started them.
//
// After every transition the session publishes a View to its subscribers.
// Subscribers are called with the session lock held, in transition order, and
// must not block or call back into the session.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/fivehands/internal/game"
	"github.com/lox/fivehands/internal/mode"
	"github.com/lox/fivehands/internal/ranking"
)

// DefaultCooldown is how long a resolved round stays on screen.
const DefaultCooldown = 1500 * time.Millisecond

// DefaultRankingLimit is the number of leaderboard entries a View carries.
const DefaultRankingLimit = 10

// Evaluator resolves rounds and rankings. *evaluation.Service implements it.
type Evaluator interface {
	EvaluateRound(ctx context.Context, player string, hand game.Hand) (game.RoundResult, error)
	Rankings(ctx context.Context) ([]ranking.Entry, error)
}

// ModeSwitch is the process-wide opponent mode. *mode.Switch implements it.
type ModeSwitch interface {
	IsRemote() bool
	Toggle() (bool, error)
}

// Options configures a Session.
type Options struct {
	Evaluator    Evaluator
	Mode         ModeSwitch
	Clock        quartz.Clock
	Cooldown     time.Duration // zero skips the cooldown timer
	RankingLimit int           // zero or less keeps every entry
	Logger       *log.Logger
}

// Session is one player's play-through.
type Session struct {
	id           string
	evaluator    Evaluator
	modes        ModeSwitch
	clock        quartz.Clock
	cooldown     time.Duration
	rankingLimit int
	logger       *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	state           State
	player          string
	chosen          game.Hand
	current         *game.RoundResult
	history         []game.RoundResult
	rankings        []ranking.Entry
	rankingsLoading bool
	errText         string
	generation      uint64 // bumped whenever in-flight rounds must be dropped
	rankingToken    uint64 // identifies the latest ranking request
	cooldownTimer   *quartz.Timer
	closed          bool
	seq             uint64
	observers       map[int]func(View)
	nextObserver    int
}

// New creates an idle session
func New(opts Options) (*Session, error) {
	if opts.Evaluator == nil {
		return nil, errors.New("session: evaluator is required")
	}
	if opts.Mode == nil {
		return nil, errors.New("session: mode switch is required")
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		id:           id,
		evaluator:    opts.Evaluator,
		modes:        opts.Mode,
		clock:        opts.Clock,
		cooldown:     opts.Cooldown,
		rankingLimit: opts.RankingLimit,
		logger:       opts.Logger.WithPrefix("session").With("session", id[:8]),
		ctx:          ctx,
		cancel:       cancel,
		state:        Idle,
		observers:    make(map[int]func(View)),
	}, nil
}

// ID returns the session's unique identifier
func (s *Session) ID() string {
	return s.id
}

// Subscribe registers fn to receive a View after every transition. The
// returned function removes the subscription.
func (s *Session) Subscribe(fn func(View)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// View returns the current view
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins a play-through for player. Only valid while Idle.
func (s *Session) Start(player string) error {
	player = strings.TrimSpace(player)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(EventStart); err != nil {
		return err
	}
	if player == "" {
		return ErrInvalidPlayer
	}

	// a ranking fetch still in flight belongs to the home screen we are leaving
	s.rankingToken++
	s.rankingsLoading = false

	s.player = player
	s.history = nil
	s.chosen = game.NoHand
	s.current = nil
	s.errText = ""
	s.state = ChoosingHand

	s.logger.Info("Session started", "player", player, "mode", mode.Name(s.modes.IsRemote()))
	s.publishLocked()
	return nil
}

// Submit plays hand for the current round. Only valid while ChoosingHand.
// Evaluation runs asynchronously; the result arrives as a later View.
func (s *Session) Submit(hand game.Hand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(EventSubmit); err != nil {
		return err
	}
	if !hand.Valid() {
		return game.ErrUnknownHand
	}

	s.chosen = hand
	s.errText = ""
	s.state = AwaitingOpponent
	s.publishLocked()

	go s.resolve(s.generation, s.player, hand)
	return nil
}

// Exit ends the play-through and returns to Idle, discarding the history.
// Only valid while ChoosingHand, so no round is ever in flight when it runs.
func (s *Session) Exit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(EventExit); err != nil {
		return err
	}

	s.logger.Info("Session exited", "player", s.player, "rounds", len(s.history))

	s.generation++
	s.player = ""
	s.history = nil
	s.chosen = game.NoHand
	s.current = nil
	s.errText = ""
	s.state = Idle
	s.refreshRankingsLocked()
	s.publishLocked()
	return nil
}

// ToggleMode flips between the local and the remote opponent. Only valid while
// Idle. A failure to persist the preference is logged; the switch still flips.
func (s *Session) ToggleMode() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(EventToggleMode); err != nil {
		return err
	}

	remote, err := s.modes.Toggle()
	if err != nil {
		s.logger.Warn("Mode switched but not persisted", "error", err)
	}
	s.logger.Info("Opponent mode changed", "mode", mode.Name(remote))

	s.errText = ""
	s.refreshRankingsLocked()
	s.publishLocked()
	return nil
}

// RefreshRankings reloads the leaderboard for the home screen. Only valid
// while Idle.
func (s *Session) RefreshRankings() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(EventRefreshRankings); err != nil {
		return err
	}

	s.refreshRankingsLocked()
	s.publishLocked()
	return nil
}

// Close tears the session down from any state. In-flight rounds, ranking
// fetches and the cooldown timer are cancelled and their results dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.generation++
	s.rankingToken++
	if s.cooldownTimer != nil {
		s.cooldownTimer.Stop()
		s.cooldownTimer = nil
	}
	s.cancel()

	s.logger.Debug("Session closed", "state", s.state)
}

func (s *Session) checkLocked(event Event) error {
	if s.closed {
		return ErrClosed
	}
	if !s.state.Accepts(event) {
		err := &TransitionError{From: s.state, Event: event}
		s.logger.Warn("Rejected event", "event", event, "state", s.state)
		return err
	}
	return nil
}

// resolve runs on its own goroutine for a submitted hand
func (s *Session) resolve(generation uint64, player string, hand game.Hand) {
	result, err := s.evaluator.EvaluateRound(s.ctx, player, hand)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || generation != s.generation || s.state != AwaitingOpponent {
		s.logger.Debug("Dropping stale round result", "player", player)
		return
	}

	if err != nil {
		s.logger.Warn("Round failed", "player", player, "hand", hand, "error", err)
		s.chosen = game.NoHand
		s.errText = err.Error()
		s.state = ChoosingHand
		s.publishLocked()
		return
	}

	s.current = &result
	s.history = append(s.history, result)
	s.state = Cooldown
	s.publishLocked()

	if s.cooldown <= 0 {
		s.endCooldownLocked()
		return
	}
	s.cooldownTimer = s.clock.AfterFunc(s.cooldown, func() {
		s.endCooldown(generation)
	}, "session", "cooldown")
}

func (s *Session) endCooldown(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || generation != s.generation || s.state != Cooldown {
		return
	}
	s.endCooldownLocked()
}

func (s *Session) endCooldownLocked() {
	s.cooldownTimer = nil
	s.chosen = game.NoHand
	s.current = nil
	s.errText = ""
	s.state = ChoosingHand
	s.publishLocked()
}

func (s *Session) refreshRankingsLocked() {
	s.rankingToken++
	s.rankingsLoading = true
	go s.loadRankings(s.rankingToken)
}

// loadRankings runs on its own goroutine; the result is applied only if no
// newer request was made and the session is still Idle.
func (s *Session) loadRankings(token uint64) {
	entries, err := s.evaluator.Rankings(s.ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || token != s.rankingToken || s.state != Idle {
		return
	}

	s.rankingsLoading = false
	if err != nil {
		s.logger.Warn("Ranking unavailable", "error", err)
		s.rankings = nil
		s.errText = err.Error()
	} else {
		s.rankings = ranking.Top(entries, s.rankingLimit)
		s.errText = ""
	}
	s.publishLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		Seq:             s.seq,
		SessionID:       s.id,
		State:           s.state,
		Player:          s.player,
		Remote:          s.modes.IsRemote(),
		ChosenHand:      s.chosen,
		History:         append([]game.RoundResult{}, s.history...),
		Rankings:        append([]ranking.Entry{}, s.rankings...),
		RankingsLoading: s.rankingsLoading,
		Error:           s.errText,
		Actions:         actionsFor(s.state),
	}
	if s.current != nil {
		round := *s.current
		v.Round = &round
	}
	return v
}

func (s *Session) publishLocked() {
	s.seq++
	v := s.viewLocked()
	for _, fn := range s.observers {
		fn(v)
	}
}
