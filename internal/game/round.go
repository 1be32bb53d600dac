package game

// RoundResult is the record of one resolved round. It is never mutated after
// it has been produced.
type RoundResult struct {
	PlayerHand Hand    `json:"playerHand"`
	SystemHand Hand    `json:"systemHand"`
	Outcome    Outcome `json:"outcome"`
}

// Judge builds the RoundResult for player against opponent.
func Judge(player, opponent Hand) RoundResult {
	return RoundResult{
		PlayerHand: player,
		SystemHand: opponent,
		Outcome:    Evaluate(player, opponent),
	}
}
