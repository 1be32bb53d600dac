package session

import (
	"github.com/lox/fivehands/internal/game"
	"github.com/lox/fivehands/internal/ranking"
)

// Display strings used by the presentation layers.
const (
	RankingPlaceholder = "Keine Einträge vorhanden."
	UnknownHandLabel   = "??"
)

// View is everything a presentation layer needs to render a session. Views are
// copies; holding one never blocks or races with the session.
type View struct {
	Seq             uint64             `json:"seq"`
	SessionID       string             `json:"sessionId"`
	State           State              `json:"state"`
	Player          string             `json:"player,omitempty"`
	Remote          bool               `json:"remote"`
	ChosenHand      game.Hand          `json:"chosenHand,omitempty"`
	Round           *game.RoundResult  `json:"round,omitempty"`
	History         []game.RoundResult `json:"history"`
	Rankings        []ranking.Entry    `json:"rankings"`
	RankingsLoading bool               `json:"rankingsLoading"`
	Error           string             `json:"error,omitempty"`
	Actions         Actions            `json:"actions"`
}

// Actions lists which operations the current state accepts, so inputs can be
// enabled or disabled without knowing the transition table.
type Actions struct {
	Start      bool `json:"start"`
	Submit     bool `json:"submit"`
	Exit       bool `json:"exit"`
	ToggleMode bool `json:"toggleMode"`
}

func actionsFor(s State) Actions {
	return Actions{
		Start:      s.Accepts(EventStart),
		Submit:     s.Accepts(EventSubmit),
		Exit:       s.Accepts(EventExit),
		ToggleMode: s.Accepts(EventToggleMode),
	}
}

// Status returns the status line shown on the game screen
func (v View) Status() string {
	switch v.State {
	case ChoosingHand:
		return "Du bist am Zug..."
	case AwaitingOpponent:
		return "Gegner ist am Zug..."
	case Cooldown:
		return "Nächste Runde beginnt in Kürze"
	default:
		return ""
	}
}

// OpponentHand returns the opponent's hand label, or "??" while it is hidden
func (v View) OpponentHand() string {
	if v.Round == nil {
		return UnknownHandLabel
	}
	return v.Round.SystemHand.String()
}

// ModeLabel returns the label of the mode toggle button
func (v View) ModeLabel() string {
	if v.Remote {
		return "Wechsel zur Lokal"
	}
	return "Wechsel zur Server"
}

// OutcomeLabel returns the display name of an outcome
func OutcomeLabel(o game.Outcome) string {
	switch o {
	case game.Win:
		return "Gewonnen"
	case game.Tie:
		return "Unentschieden"
	case game.Lose:
		return "Verloren"
	default:
		return UnknownHandLabel
	}
}
