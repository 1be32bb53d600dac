package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/fivehands/internal/evaluation"
	"github.com/lox/fivehands/internal/game"
	"github.com/lox/fivehands/internal/remote"
)

// Opponent serves the remote opponent protocol from a local evaluation
// service. Rounds played here are recorded in the service's own store, which
// is what the ranking endpoint reports.
type Opponent struct {
	service *evaluation.Service
	logger  *log.Logger
}

// NewOpponent wraps service, which should be in local mode
func NewOpponent(service *evaluation.Service, logger *log.Logger) *Opponent {
	return &Opponent{
		service: service,
		logger:  logger.WithPrefix("opponent"),
	}
}

// handlePlay plays one round: GET /play?playerName=..&playerHand=..
func (o *Opponent) handlePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	player := strings.TrimSpace(query.Get(remote.PlayerNameParam))
	if player == "" {
		http.Error(w, "playerName is required", http.StatusBadRequest)
		return
	}
	hand, err := game.ParseHand(query.Get(remote.PlayerHandParam))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := o.service.EvaluateRound(r.Context(), player, hand)
	if err != nil {
		if errors.Is(err, r.Context().Err()) {
			return
		}
		o.logger.Error("Failed to evaluate round", "player", player, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	win := result.Outcome == game.Win
	o.logger.Info("Round played", "player", player, "hand", hand, "choice", result.SystemHand, "outcome", result.Outcome)
	writeJSON(w, o.logger, remote.PlayResponse{
		Choice: result.SystemHand.String(),
		Win:    &win,
	})
}

// handleRanking returns every player's record: GET /ranking
func (o *Opponent) handleRanking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body remote.RankingResponse = o.service.Stats().Snapshot()
	writeJSON(w, o.logger, body)
}

func writeJSON(w http.ResponseWriter, logger *log.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write response", "error", err)
	}
}
