// internal/game/session.go
package game

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spellgrid/gridspell/internal/board"
	"github.com/spellgrid/gridspell/internal/dictionary"
	"github.com/spellgrid/gridspell/internal/models"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusWaiting         Status = "waiting"
	StatusInProgress      Status = "in_progress"
	StatusRoundTransition Status = "round_transition"
	StatusFinished        Status = "finished"
)

// Settings holds the per-session tunables. Zero TurnTimeout disables the
// turn timer.
type Settings struct {
	Rounds          int
	TurnTimeout     time.Duration
	BlipTolerance   time.Duration
	DisconnectGrace time.Duration
	RegenerateGrid  bool
	RetainUsedWords bool
}

// DefaultSettings mirrors the standard public-game configuration.
func DefaultSettings() Settings {
	return Settings{
		Rounds:          5,
		TurnTimeout:     30 * time.Second,
		BlipTolerance:   5 * time.Second,
		DisconnectGrace: 60 * time.Second,
		RegenerateGrid:  true,
		RetainUsedWords: true,
	}
}

// PlayerSlot is one seat in the turn rotation. Slots keep their index for the
// whole game; a player who exhausts the disconnect grace is flagged Removed
// rather than spliced out, so turn order never shifts under anyone.
type PlayerSlot struct {
	Identity  models.Identity
	TurnOrder int
	Score     int
	Connected bool
	Removed   bool
}

// Recorder receives fire-and-forget persistence callbacks. Implementations
// must not call back into the session.
type Recorder interface {
	SessionStarted(gameID uuid.UUID, roomKey string, playerIDs []uuid.UUID)
	MoveScored(gameID, playerID uuid.UUID, word string, points, round int)
	SessionEnded(gameID uuid.UUID, outcome string, winners []uuid.UUID, finalScores map[uuid.UUID]int)
}

// Session is a single running game. All state transitions happen under Mu;
// the ws handler layer locks, dispatches, and unlocks per inbound frame, so
// racing submissions serialize into a strict order.
type Session struct {
	ID       uuid.UUID
	RoomKey  string
	Grid     models.Grid
	Slots    []*PlayerSlot
	Ledger   *TurnLedger
	Settings Settings
	Status   Status

	// UsedWords keys are lowercase.
	UsedWords map[string]struct{}

	Mu sync.Mutex

	// turnSerial increments on every seat change. Timer callbacks capture
	// the serial at schedule time and bail if it moved, so a stale timer
	// can never act on a later turn.
	turnSerial int
	turnTimer  *time.Timer
	blipTimer  *time.Timer
	dropTimers map[uuid.UUID]*time.Timer

	paused     bool
	emptySince time.Time
	FinishedAt time.Time

	gen     *board.Generator
	lexicon *dictionary.Dictionary

	BroadcastFn         func(frame map[string]interface{})
	BroadcastToPlayerFn func(playerID uuid.UUID, frame map[string]interface{})
	Recorder            Recorder
	OnFinished          func(s *Session)
}

// NewSession seats the roster in the given order on a freshly generated grid.
// The caller is responsible for having shuffled the roster.
func NewSession(roomKey string, roster []models.Identity, settings Settings, gen *board.Generator, lexicon *dictionary.Dictionary) *Session {
	slots := make([]*PlayerSlot, len(roster))
	for i, id := range roster {
		slots[i] = &PlayerSlot{Identity: id, TurnOrder: i, Connected: true}
	}
	return &Session{
		ID:         uuid.New(),
		RoomKey:    roomKey,
		Grid:       gen.Generate(board.NewSeed()),
		Slots:      slots,
		Ledger:     NewTurnLedger(len(slots), settings.Rounds),
		Settings:   settings,
		Status:     StatusWaiting,
		UsedWords:  make(map[string]struct{}),
		dropTimers: make(map[uuid.UUID]*time.Timer),
		gen:        gen,
		lexicon:    lexicon,
	}
}

func (s *Session) broadcastUnsafe(frame map[string]interface{}) {
	if s.BroadcastFn != nil {
		s.BroadcastFn(frame)
	}
}

func (s *Session) sendToPlayerUnsafe(playerID uuid.UUID, frame map[string]interface{}) {
	if s.BroadcastToPlayerFn != nil {
		s.BroadcastToPlayerFn(playerID, frame)
	}
}

// activeUnsafe reports whether the slot at idx participates in turn
// rotation and round completion.
func (s *Session) activeUnsafe(idx int) bool {
	slot := s.Slots[idx]
	return slot.Connected && !slot.Removed
}

func (s *Session) slotByIDUnsafe(playerID uuid.UUID) (int, *PlayerSlot) {
	for i, slot := range s.Slots {
		if slot.Identity.ID == playerID {
			return i, slot
		}
	}
	return -1, nil
}

// Start moves the session into play and announces the opening turn.
func (s *Session) Start() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Status != StatusWaiting {
		return
	}
	s.Status = StatusInProgress
	s.Ledger.SeatFirst(s.activeUnsafe)
	s.turnSerial++
	s.scheduleTurnTimerUnsafe()
	s.broadcastUnsafe(s.gameStartedFrameUnsafe())
	if s.Recorder != nil {
		ids := make([]uuid.UUID, len(s.Slots))
		for i, slot := range s.Slots {
			ids[i] = slot.Identity.ID
		}
		go s.Recorder.SessionStarted(s.ID, s.RoomKey, ids)
	}
}

// Submit runs a word submission through the validation pipeline. Rejections
// go back to the submitter only and leave every piece of session state
// untouched.
func (s *Session) Submit(playerID uuid.UUID, path []models.Position) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Status == StatusFinished {
		return ErrGameOver
	}
	if s.Status != StatusInProgress {
		return nil
	}
	idx, slot := s.slotByIDUnsafe(playerID)
	if slot == nil || slot.Removed {
		return ErrNotInGame
	}
	if reason, ok := s.validateUnsafe(idx, path); !ok {
		s.sendToPlayerUnsafe(playerID, invalidWordFrame(reason))
		return nil
	}
	word, points := Evaluate(path, s.Grid)
	slot.Score += points
	s.UsedWords[word] = struct{}{}
	s.broadcastUnsafe(wordScoredFrame(playerID, word, points, slot.Score, path))
	if s.Recorder != nil {
		go s.Recorder.MoveScored(s.ID, playerID, word, points, s.Ledger.Round())
	}
	s.advanceTurnUnsafe(playerID, "")
	return nil
}

// validateUnsafe applies the rejection checks in their fixed order and stops
// at the first failure.
func (s *Session) validateUnsafe(idx int, path []models.Position) (RejectReason, bool) {
	if idx != s.Ledger.Current() {
		return ReasonNotYourTurn, false
	}
	if len(path) < 3 {
		return ReasonTooShort, false
	}
	seen := make(map[models.Position]struct{}, len(path))
	for i, pos := range path {
		if _, dup := seen[pos]; dup {
			return ReasonInvalidPath, false
		}
		seen[pos] = struct{}{}
		if i > 0 && !path[i-1].Adjacent(pos) {
			return ReasonInvalidPath, false
		}
	}
	for _, pos := range path {
		if !s.Grid.InBounds(pos) {
			return ReasonOutOfBounds, false
		}
	}
	word, _ := Evaluate(path, s.Grid)
	if !s.lexicon.Contains(word) {
		return ReasonNotInDictionary, false
	}
	if _, used := s.UsedWords[word]; used {
		return ReasonAlreadyUsed, false
	}
	return "", true
}

// Skip is a voluntary pass by the current player. The turn is consumed with
// no score change.
func (s *Session) Skip(playerID uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Status == StatusFinished {
		return ErrGameOver
	}
	if s.Status != StatusInProgress {
		return nil
	}
	idx, slot := s.slotByIDUnsafe(playerID)
	if slot == nil {
		return ErrNotInGame
	}
	if idx != s.Ledger.Current() {
		s.sendToPlayerUnsafe(playerID, invalidWordFrame(ReasonNotYourTurn))
		return nil
	}
	s.advanceTurnUnsafe(playerID, "skipped")
	return nil
}

// advanceTurnUnsafe consumes the current turn and seats the next connected
// player, ending the round or the game when the ledger says so.
func (s *Session) advanceTurnUnsafe(previous uuid.UUID, reason string) {
	s.turnSerial++
	complete, stalled := s.Ledger.Advance(s.activeUnsafe)
	s.settleUnsafe(previous, reason, complete, stalled)
}

func (s *Session) settleUnsafe(previous uuid.UUID, reason string, complete, stalled bool) {
	switch {
	case complete:
		s.finishRoundUnsafe()
	case stalled:
		s.pauseUnsafe()
	default:
		s.scheduleTurnTimerUnsafe()
		s.broadcastUnsafe(turnUpdateFrame(s.currentPlayerIDUnsafe(), previous, s.Ledger.Round(), reason))
	}
}

func (s *Session) scheduleTurnTimerUnsafe() {
	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}
	if s.Settings.TurnTimeout <= 0 {
		return
	}
	serial := s.turnSerial
	s.turnTimer = time.AfterFunc(s.Settings.TurnTimeout, func() {
		s.turnExpired(serial)
	})
}

func (s *Session) turnExpired(serial int) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Status != StatusInProgress || s.paused || serial != s.turnSerial {
		return
	}
	current := s.currentPlayerIDUnsafe()
	log.Printf("session %s: turn timer expired for player %s", s.ID, current)
	s.advanceTurnUnsafe(current, "timeout")
}

func (s *Session) finishRoundUnsafe() {
	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}
	completed := s.Ledger.Round()
	s.Status = StatusRoundTransition
	s.broadcastUnsafe(s.roundEndFrameUnsafe(completed))
	if !s.Ledger.StartNextRound(s.activeUnsafe) {
		s.finishGameUnsafe("finished")
		return
	}
	if s.Settings.RegenerateGrid {
		s.Grid = s.gen.Generate(board.NewSeed())
	}
	if !s.Settings.RetainUsedWords {
		s.UsedWords = make(map[string]struct{})
	}
	s.Status = StatusInProgress
	s.turnSerial++
	s.scheduleTurnTimerUnsafe()
	s.broadcastUnsafe(s.gameStateFrameUnsafe())
	s.broadcastUnsafe(turnUpdateFrame(s.currentPlayerIDUnsafe(), uuid.Nil, s.Ledger.Round(), "round_start"))
}

// winnersUnsafe returns every slot holding the top score. Ties produce
// co-winners.
func (s *Session) winnersUnsafe() []uuid.UUID {
	best := -1
	for _, slot := range s.Slots {
		if !slot.Removed && slot.Score > best {
			best = slot.Score
		}
	}
	var winners []uuid.UUID
	for _, slot := range s.Slots {
		if !slot.Removed && slot.Score == best {
			winners = append(winners, slot.Identity.ID)
		}
	}
	return winners
}

func (s *Session) finishGameUnsafe(outcome string) {
	s.Status = StatusFinished
	s.FinishedAt = time.Now()
	s.stopTimersUnsafe()
	winners := s.winnersUnsafe()
	s.broadcastUnsafe(s.gameOverFrameUnsafe(winners))
	if s.Recorder != nil {
		scores := make(map[uuid.UUID]int, len(s.Slots))
		for _, slot := range s.Slots {
			scores[slot.Identity.ID] = slot.Score
		}
		go s.Recorder.SessionEnded(s.ID, outcome, winners, scores)
	}
	if s.OnFinished != nil {
		go s.OnFinished(s)
	}
}

func (s *Session) stopTimersUnsafe() {
	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}
	if s.blipTimer != nil {
		s.blipTimer.Stop()
	}
	for id, t := range s.dropTimers {
		t.Stop()
		delete(s.dropTimers, id)
	}
}

func (s *Session) pauseUnsafe() {
	s.paused = true
	s.emptySince = time.Now()
	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}
	log.Printf("session %s: no connected players, pausing", s.ID)
}

// HandleDisconnect marks the slot disconnected, arms the removal grace timer
// and, when the current player dropped, a short tolerance timer before the
// turn moves on without them.
func (s *Session) HandleDisconnect(playerID uuid.UUID) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	idx, slot := s.slotByIDUnsafe(playerID)
	if slot == nil || slot.Removed || s.Status == StatusFinished {
		return
	}
	slot.Connected = false
	s.armDropTimerUnsafe(playerID)
	s.broadcastUnsafe(s.gameStateFrameUnsafe())

	anyActive := false
	for i := range s.Slots {
		if s.activeUnsafe(i) {
			anyActive = true
			break
		}
	}
	if !anyActive {
		s.pauseUnsafe()
		return
	}
	if s.Status == StatusInProgress && idx == s.Ledger.Current() {
		serial := s.turnSerial
		if s.blipTimer != nil {
			s.blipTimer.Stop()
		}
		s.blipTimer = time.AfterFunc(s.Settings.BlipTolerance, func() {
			s.blipExpired(serial)
		})
	}
}

// blipExpired fires when the disconnected current player did not come back
// within the tolerance window. Their submission stays owed; the seat moves
// to the next connected player.
func (s *Session) blipExpired(serial int) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Status != StatusInProgress || s.paused || serial != s.turnSerial {
		return
	}
	if s.activeUnsafe(s.Ledger.Current()) {
		return
	}
	previous := s.currentPlayerIDUnsafe()
	s.turnSerial++
	complete, stalled := s.Ledger.SkipDisconnected(s.activeUnsafe)
	s.settleUnsafe(previous, "disconnected", complete, stalled)
}

func (s *Session) armDropTimerUnsafe(playerID uuid.UUID) {
	if t, ok := s.dropTimers[playerID]; ok {
		t.Stop()
	}
	s.dropTimers[playerID] = time.AfterFunc(s.Settings.DisconnectGrace, func() {
		s.dropExpired(playerID)
	})
}

// dropExpired removes a player whose disconnect grace ran out. Reconnecting
// first cancels the timer under the lock, so removal and reconnect cannot
// interleave.
func (s *Session) dropExpired(playerID uuid.UUID) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	delete(s.dropTimers, playerID)
	_, slot := s.slotByIDUnsafe(playerID)
	if slot == nil || slot.Connected || slot.Removed || s.Status == StatusFinished {
		return
	}
	slot.Removed = true
	log.Printf("session %s: removing player %s after disconnect grace", s.ID, playerID)

	remaining := 0
	for _, sl := range s.Slots {
		if !sl.Removed {
			remaining++
		}
	}
	if remaining == 0 {
		s.finishGameUnsafe("abandoned")
		return
	}
	s.broadcastUnsafe(s.gameStateFrameUnsafe())
	if s.Status != StatusInProgress || s.paused {
		return
	}
	// Removal can complete the round (the removed player was the last one
	// owing a word) or vacate the current seat.
	if s.Ledger.RoundComplete(s.activeUnsafe) {
		s.turnSerial++
		s.finishRoundUnsafe()
		return
	}
	if !s.activeUnsafe(s.Ledger.Current()) {
		s.turnSerial++
		complete, stalled := s.Ledger.SkipDisconnected(s.activeUnsafe)
		s.settleUnsafe(playerID, "removed", complete, stalled)
	}
}

// HandleReconnect restores a slot within the grace window and resyncs the
// returning player with a full snapshot. It reports false when the player no
// longer has a seat.
func (s *Session) HandleReconnect(playerID uuid.UUID) bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	_, slot := s.slotByIDUnsafe(playerID)
	if slot == nil || slot.Removed || s.Status == StatusFinished {
		return false
	}
	if t, ok := s.dropTimers[playerID]; ok {
		t.Stop()
		delete(s.dropTimers, playerID)
	}
	slot.Connected = true
	s.emptySince = time.Time{}
	if s.paused {
		s.paused = false
		if s.Status == StatusInProgress && !s.activeUnsafe(s.Ledger.Current()) {
			s.turnSerial++
			complete, stalled := s.Ledger.SkipDisconnected(s.activeUnsafe)
			s.settleUnsafe(uuid.Nil, "resumed", complete, stalled)
		} else {
			s.turnSerial++
			s.scheduleTurnTimerUnsafe()
		}
	}
	s.sendToPlayerUnsafe(playerID, s.gameStateFrameUnsafe())
	s.broadcastUnsafe(s.gameStateFrameUnsafe())
	return true
}

// Abandon force-ends a session that is being torn down externally, e.g. by
// an operator delete.
func (s *Session) Abandon() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Status == StatusFinished {
		return
	}
	s.finishGameUnsafe("abandoned")
}

// Reapable reports whether the registry janitor may drop this session.
func (s *Session) Reapable(now time.Time, finishedTTL, emptyTTL time.Duration) bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.Status == StatusFinished {
		return now.Sub(s.FinishedAt) >= finishedTTL
	}
	if !s.emptySince.IsZero() && now.Sub(s.emptySince) >= emptyTTL {
		return true
	}
	return false
}

// Snapshot returns the resync frame for external callers such as the admin
// surface.
func (s *Session) Snapshot() map[string]interface{} {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.gameStateFrameUnsafe()
}
