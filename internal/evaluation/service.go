// Package evaluation resolves rounds and serves rankings against either the
// local simulated opponent or the remote opponent service.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/fivehands/internal/game"
	"github.com/lox/fivehands/internal/mode"
	"github.com/lox/fivehands/internal/randutil"
	"github.com/lox/fivehands/internal/ranking"
	"github.com/lox/fivehands/internal/statistics"
)

var (
	// ErrRoundFailed wraps every failure of a remote round.
	ErrRoundFailed = errors.New("round failed")
	// ErrRankingUnavailable wraps every failure to fetch the remote ranking.
	ErrRankingUnavailable = errors.New("ranking unavailable")
)

// DefaultDelay is the pacing delay applied to local results.
const DefaultDelay = time.Second

// Opponent is the remote opponent service. *remote.Client implements it.
type Opponent interface {
	Play(ctx context.Context, player string, hand game.Hand) (game.Hand, error)
	Ranking(ctx context.Context) (statistics.Snapshot, error)
}

// Options configures a Service. Zero values get defaults, except Delay where
// zero disables pacing.
type Options struct {
	Stats  *statistics.Store
	Mode   *mode.Switch
	Remote Opponent
	Picker Picker
	Clock  quartz.Clock
	Delay  time.Duration
	Logger *log.Logger
}

// Service resolves rounds. It is shared by every session of a process.
type Service struct {
	stats  *statistics.Store
	mode   *mode.Switch
	remote Opponent
	picker Picker
	clock  quartz.Clock
	delay  time.Duration
	logger *log.Logger
}

// NewService creates a Service from opts
func NewService(opts Options) *Service {
	if opts.Stats == nil {
		opts.Stats = statistics.NewStore()
	}
	if opts.Mode == nil {
		opts.Mode = mode.NewSwitch(false, nil)
	}
	if opts.Picker == nil {
		opts.Picker = NewRandomPicker(randutil.Seed(0))
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Service{
		stats:  opts.Stats,
		mode:   opts.Mode,
		remote: opts.Remote,
		picker: opts.Picker,
		clock:  opts.Clock,
		delay:  opts.Delay,
		logger: opts.Logger.WithPrefix("evaluation"),
	}
}

// Stats returns the local statistics store
func (s *Service) Stats() *statistics.Store {
	return s.stats
}

// Mode returns the mode switch consulted on every call
func (s *Service) Mode() *mode.Switch {
	return s.mode
}

// WithMode returns a service that shares everything with s except the mode
// switch. Rounds played through either are recorded in the same store.
func (s *Service) WithMode(m *mode.Switch) *Service {
	c := *s
	c.mode = m
	return &c
}

// EvaluateRound plays one round for player. In local mode the opponent's hand
// is drawn by the Picker, the result is recorded in the Stats Store and the
// pacing delay elapses before returning. In remote mode the service chooses the
// opponent's hand, the round is judged locally and nothing is recorded.
//
// Local stats are recorded before the delay; a context cancelled during the
// delay returns ctx.Err() with the round already counted.
func (s *Service) EvaluateRound(ctx context.Context, player string, hand game.Hand) (game.RoundResult, error) {
	if !hand.Valid() {
		return game.RoundResult{}, fmt.Errorf("%w: %v", game.ErrUnknownHand, uint8(hand))
	}

	if s.mode.IsRemote() {
		return s.evaluateRemote(ctx, player, hand)
	}

	result := game.Judge(hand, s.picker.Pick())
	s.stats.RecordRound(player, result.Outcome)

	s.logger.Debug("Round resolved",
		"player", player,
		"hand", result.PlayerHand,
		"opponent", result.SystemHand,
		"outcome", result.Outcome)

	if err := s.pace(ctx); err != nil {
		return game.RoundResult{}, err
	}
	return result, nil
}

func (s *Service) evaluateRemote(ctx context.Context, player string, hand game.Hand) (game.RoundResult, error) {
	if s.remote == nil {
		return game.RoundResult{}, fmt.Errorf("%w: no remote opponent configured", ErrRoundFailed)
	}

	choice, err := s.remote.Play(ctx, player, hand)
	if err != nil {
		s.logger.Warn("Remote round failed", "player", player, "error", err)
		return game.RoundResult{}, fmt.Errorf("%w: %w", ErrRoundFailed, err)
	}

	result := game.Judge(hand, choice)
	s.logger.Debug("Remote round resolved",
		"player", player,
		"hand", result.PlayerHand,
		"opponent", result.SystemHand,
		"outcome", result.Outcome)
	return result, nil
}

// Rankings returns the leaderboard for the current mode, computed from a single
// snapshot of either the local store or the remote ranking endpoint.
func (s *Service) Rankings(ctx context.Context) ([]ranking.Entry, error) {
	if s.mode.IsRemote() {
		if s.remote == nil {
			return nil, fmt.Errorf("%w: no remote opponent configured", ErrRankingUnavailable)
		}
		snapshot, err := s.remote.Ranking(ctx)
		if err != nil {
			s.logger.Warn("Remote ranking failed", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrRankingUnavailable, err)
		}
		return ranking.Compute(snapshot), nil
	}

	entries := ranking.Compute(s.stats.Snapshot())
	if err := s.pace(ctx); err != nil {
		return nil, err
	}
	return entries, nil
}

// pace waits out the configured delay on the service clock
func (s *Service) pace(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}

	timer := s.clock.NewTimer(s.delay, "evaluation", "pace")
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
