package game

import "fmt"

// Outcome is the result of a round from the acting player's perspective.
type Outcome int8

const (
	Lose Outcome = -1
	Tie  Outcome = 0
	Win  Outcome = 1
)

// String returns a human-readable outcome
func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Tie:
		return "tie"
	case Lose:
		return "lose"
	default:
		return "unknown"
	}
}

// Invert returns the same result seen from the opponent's side.
func (o Outcome) Invert() Outcome {
	return -o
}

// MarshalText encodes the outcome as "win", "tie" or "lose".
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes "win", "tie" or "lose".
func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "win":
		*o = Win
	case "tie":
		*o = Tie
	case "lose":
		*o = Lose
	default:
		return fmt.Errorf("unknown outcome %q", text)
	}
	return nil
}

// outcomes[player][opponent], indexed by Hands order.
var outcomes = [HandCount][HandCount]Outcome{
	//            Schere Stein  Papier Brunnen Streichholz
	/* Schere */ {Tie, Lose, Win, Lose, Win},
	/* Stein */ {Win, Tie, Lose, Lose, Win},
	/* Papier */ {Lose, Win, Tie, Win, Lose},
	/* Brunnen */ {Win, Win, Lose, Tie, Lose},
	/* Streichholz */ {Lose, Lose, Win, Win, Tie},
}

// Evaluate judges player against opponent. Both hands must be valid; an invalid
// hand on either side is treated as a tie.
func Evaluate(player, opponent Hand) Outcome {
	if !player.Valid() || !opponent.Valid() {
		return Tie
	}
	return outcomes[player.index()][opponent.index()]
}

// Beats returns the hands that h defeats, in Hands order.
func Beats(h Hand) []Hand {
	if !h.Valid() {
		return nil
	}
	var beaten []Hand
	for _, other := range Hands {
		if Evaluate(h, other) == Win {
			beaten = append(beaten, other)
		}
	}
	return beaten
}
