// internal/game/ledger.go
package game

// TurnLedger tracks whose turn it is within a round and when the round is
// complete. It holds the per-round submission bitset and the round counter;
// connectivity is owned by the session, which passes an active() predicate
// into every transition so a disconnected slot never blocks the rotation.
//
// The ledger itself is not synchronized: it is only ever touched under the
// owning session's lock.
type TurnLedger struct {
	size      int
	current   int
	submitted uint32
	round     int
	maxRounds int
}

// NewTurnLedger builds a ledger for size slots playing maxRounds rounds.
// The round counter starts at 1 and the turn pointer at slot 0.
func NewTurnLedger(size, maxRounds int) *TurnLedger {
	return &TurnLedger{size: size, round: 1, maxRounds: maxRounds}
}

// Current returns the turn_order index whose turn it is.
func (l *TurnLedger) Current() int {
	return l.current
}

// Round returns the 1-based round number.
func (l *TurnLedger) Round() int {
	return l.round
}

// MaxRounds returns the configured round count.
func (l *TurnLedger) MaxRounds() int {
	return l.maxRounds
}

// Submitted reports whether the slot at idx has submitted (or been skipped)
// this round.
func (l *TurnLedger) Submitted(idx int) bool {
	return l.submitted&(1<<uint(idx)) != 0
}

// markSubmitted sets the submission bit for idx.
func (l *TurnLedger) markSubmitted(idx int) {
	l.submitted |= 1 << uint(idx)
}

// RoundComplete reports whether every active slot's submission bit is set.
// Slots for which active returns false are not required to submit.
func (l *TurnLedger) RoundComplete(active func(int) bool) bool {
	any := false
	for i := 0; i < l.size; i++ {
		if !active(i) {
			continue
		}
		any = true
		if !l.Submitted(i) {
			return false
		}
	}
	return any
}

// Advance records the current slot's submission and moves the turn pointer
// to the next active slot that still owes a submission, wrapping in
// turn_order. It reports roundComplete when every active slot has its bit
// set, and stalled when no slot is active at all (the session should pause).
func (l *TurnLedger) Advance(active func(int) bool) (roundComplete, stalled bool) {
	l.markSubmitted(l.current)
	return l.reseat(active)
}

// SkipDisconnected moves the turn pointer past the current slot without
// setting its bit, used when the current player drops out of the rotation.
func (l *TurnLedger) SkipDisconnected(active func(int) bool) (roundComplete, stalled bool) {
	return l.reseat(active)
}

// reseat finds the next active slot owing a submission, starting after the
// current pointer. The current slot itself is reconsidered last, so a lone
// remaining player keeps their turn.
func (l *TurnLedger) reseat(active func(int) bool) (roundComplete, stalled bool) {
	anyActive := false
	for i := 0; i < l.size; i++ {
		if active(i) {
			anyActive = true
			break
		}
	}
	if !anyActive {
		return false, true
	}
	if l.RoundComplete(active) {
		return true, false
	}
	for step := 1; step <= l.size; step++ {
		idx := (l.current + step) % l.size
		if active(idx) && !l.Submitted(idx) {
			l.current = idx
			return false, false
		}
	}
	// Unreachable when RoundComplete returned false, but keep the pointer
	// on an active slot regardless.
	return true, false
}

// StartNextRound clears the submission bits, increments the round counter,
// and seats the turn pointer on the first active slot. It returns false
// when the final round has already been played.
func (l *TurnLedger) StartNextRound(active func(int) bool) bool {
	if l.round >= l.maxRounds {
		return false
	}
	l.round++
	l.submitted = 0
	l.SeatFirst(active)
	return true
}

// SeatFirst points the ledger at the lowest-indexed active slot. If no slot
// is active the pointer is left alone; the session is paused in that case.
func (l *TurnLedger) SeatFirst(active func(int) bool) {
	for i := 0; i < l.size; i++ {
		if active(i) {
			l.current = i
			return
		}
	}
}
