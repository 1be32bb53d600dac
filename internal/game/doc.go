// Package game holds the rules of the five-hand game.
//
// The five hands are Schere, Stein, Papier, Brunnen and Streichholz. Every hand
// beats exactly two others and loses to the remaining two:
//
//	Schere      beats Papier, Streichholz
//	Stein       beats Schere, Streichholz
//	Papier      beats Stein, Brunnen
//	Brunnen     beats Schere, Stein
//	Streichholz beats Papier, Brunnen
//
// # Basic Usage
//
//	h, err := game.ParseHand("schere")
//	if err != nil {
//	    return err
//	}
//	outcome := game.Evaluate(h, game.Stein) // game.Lose
//
// The table is constant data; nothing in this package keeps state, so all
// functions are safe for concurrent use.
package game
