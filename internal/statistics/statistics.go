package statistics

import (
	"sync"

	"github.com/lox/fivehands/internal/game"
)

// PlayerStat is the win/loss record of a single player. The JSON shape matches
// the remote ranking endpoint.
type PlayerStat struct {
	Player string `json:"user"`
	Wins   int    `json:"win"`
	Losses int    `json:"lost"`
}

// Rounds returns the number of decided (non-tie) rounds.
func (p PlayerStat) Rounds() int {
	return p.Wins + p.Losses
}

// Snapshot maps player IDs to their stats. Snapshots are copies and are never
// mutated by the Store that produced them.
type Snapshot map[string]PlayerStat

// Store tracks per-player statistics in memory for the lifetime of the process
type Store struct {
	mu      sync.RWMutex
	players map[string]*PlayerStat
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		players: make(map[string]*PlayerStat),
	}
}

// RecordRound creates the player's record if needed and counts the outcome.
// Ties create the record but leave both counters unchanged.
func (s *Store) RecordRound(player string, outcome game.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stat, ok := s.players[player]
	if !ok {
		stat = &PlayerStat{Player: player}
		s.players[player] = stat
	}

	switch outcome {
	case game.Win:
		stat.Wins++
	case game.Lose:
		stat.Losses++
	}
}

// Get returns a copy of a single player's record
func (s *Store) Get(player string) (PlayerStat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stat, ok := s.players[player]
	if !ok {
		return PlayerStat{}, false
	}
	return *stat, true
}

// Len returns the number of players seen so far
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// Snapshot returns a point-in-time copy of every record
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(Snapshot, len(s.players))
	for id, stat := range s.players {
		snapshot[id] = *stat
	}
	return snapshot
}
