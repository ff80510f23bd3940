// internal/game/errors.go
package game

import "errors"

// RejectReason identifies why a word submission was refused. The value is
// surfaced verbatim in the invalid_word frame to the submitter only.
type RejectReason string

const (
	// ReasonNotYourTurn: the sender is not the slot at current_index.
	ReasonNotYourTurn RejectReason = "not_your_turn"
	// ReasonTooShort: the path selects fewer than three tiles.
	ReasonTooShort RejectReason = "too_short"
	// ReasonInvalidPath: a step is not 8-directionally adjacent, or a tile
	// repeats.
	ReasonInvalidPath RejectReason = "invalid_path"
	// ReasonOutOfBounds: a coordinate falls outside the grid.
	ReasonOutOfBounds RejectReason = "out_of_bounds"
	// ReasonNotInDictionary: the spelled word is not a legal word.
	ReasonNotInDictionary RejectReason = "not_in_dictionary"
	// ReasonAlreadyUsed: the word was already scored this game.
	ReasonAlreadyUsed RejectReason = "already_used"
)

var (
	// ErrGameNotFound is returned when a session id does not resolve,
	// including reconnects that lose the race against the registry reaper.
	ErrGameNotFound = errors.New("game not found")

	// ErrNotInGame is returned when an identity addresses a session it has
	// no slot in.
	ErrNotInGame = errors.New("player is not part of this game")

	// ErrGameOver is returned for actions addressed to a finished session.
	ErrGameOver = errors.New("game has already ended")
)
