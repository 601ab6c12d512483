// internal/game/errors.go
package game

import "errors"

// Precondition failures surfaced to the offending client. The error text
// is the one-line reason that goes out in the ERROR reply.
var (
	ErrLobbyFull        = errors.New("Lobby is full")
	ErrGameInProgress   = errors.New("Game already in progress")
	ErrNotHost          = errors.New("Only the Host can start the game!")
	ErrNotEnoughPlayers = errors.New("Not enough players")
)
