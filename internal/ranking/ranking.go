// Package ranking turns a statistics snapshot into a leaderboard.
package ranking

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/lox/fivehands/internal/statistics"
)

// Entry is one leaderboard line: every player sharing the same win count.
type Entry struct {
	Rank    int      `json:"rank"`
	Wins    int      `json:"wins"`
	Players []string `json:"players"`
}

// String renders the entry the way the home screen lists it
func (e Entry) String() string {
	return fmt.Sprintf("%d. Rang mit %d Siegen : %s", e.Rank, e.Wins, strings.Join(e.Players, ", "))
}

// Compute groups players by win count, orders the groups by wins descending and
// assigns dense ranks starting at 1. Players inside a group are sorted by name.
// The snapshot is only read.
func Compute(snapshot statistics.Snapshot) []Entry {
	byWins := make(map[int][]string)
	for id, stat := range snapshot {
		player := stat.Player
		if player == "" {
			player = id
		}
		byWins[stat.Wins] = append(byWins[stat.Wins], player)
	}

	entries := make([]Entry, 0, len(byWins))
	for wins, players := range byWins {
		slices.Sort(players)
		entries = append(entries, Entry{Wins: wins, Players: players})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(b.Wins, a.Wins)
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Top returns at most n entries. n <= 0 returns every entry.
func Top(entries []Entry, n int) []Entry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[:n]
}
