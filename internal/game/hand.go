package game

import (
	"errors"
	"fmt"
	"strings"
)

// Hand is one of the five symbolic moves. The zero value is NoHand.
type Hand uint8

const (
	NoHand Hand = iota
	Schere
	Stein
	Papier
	Brunnen
	Streichholz
)

// HandCount is the number of playable hands.
const HandCount = 5

// Hands lists the playable hands in their canonical order.
var Hands = [HandCount]Hand{Schere, Stein, Papier, Brunnen, Streichholz}

// ErrUnknownHand is returned when a label or value is not one of the five hands.
var ErrUnknownHand = errors.New("unknown hand")

var handNames = [...]string{
	NoHand:      "",
	Schere:      "Schere",
	Stein:       "Stein",
	Papier:      "Papier",
	Brunnen:     "Brunnen",
	Streichholz: "Streichholz",
}

// Valid reports whether h is one of the five playable hands.
func (h Hand) Valid() bool {
	return h >= Schere && h <= Streichholz
}

// String returns the hand label, or "??" for NoHand and unknown values
func (h Hand) String() string {
	if !h.Valid() {
		return "??"
	}
	return handNames[h]
}

// index returns the position of h in Hands. Callers must check Valid first.
func (h Hand) index() int {
	return int(h - Schere)
}

// ParseHand converts a label such as "Schere" (case-insensitive) into a Hand.
func ParseHand(s string) (Hand, error) {
	s = strings.TrimSpace(s)
	for _, h := range Hands {
		if strings.EqualFold(handNames[h], s) {
			return h, nil
		}
	}
	return NoHand, fmt.Errorf("%w: %q", ErrUnknownHand, s)
}

// MarshalText encodes the hand as its label. NoHand encodes as an empty string.
func (h Hand) MarshalText() ([]byte, error) {
	if h == NoHand {
		return []byte{}, nil
	}
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHand, uint8(h))
	}
	return []byte(handNames[h]), nil
}

// UnmarshalText decodes a hand label. An empty string decodes to NoHand.
func (h *Hand) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*h = NoHand
		return nil
	}
	parsed, err := ParseHand(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
