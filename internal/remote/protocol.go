package remote

import "github.com/lox/fivehands/internal/statistics"

// Paths and query parameters of the remote opponent service.
const (
	PlayPath    = "/play"
	RankingPath = "/ranking"

	PlayerNameParam = "playerName"
	PlayerHandParam = "playerHand"
)

// PlayResponse is the body returned by the play endpoint. Win is the service's
// own verdict; the client ignores it and judges the round locally.
type PlayResponse struct {
	Choice string `json:"choice"`
	Win    *bool  `json:"win,omitempty"`
}

// RankingResponse is the body returned by the ranking endpoint.
type RankingResponse = statistics.Snapshot
