package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/tycoonsim/internal/character"
	"github.com/thebtf/tycoonsim/internal/db"
)

// Store is the durable-record contract the engine writes through to.
// *db.Store satisfies it; tests substitute a fake.
type Store interface {
	GetOrCreateUser(ctx context.Context, userID, username string) (*db.User, error)
	CreateGame(ctx context.Context, userID, characterID string) (int64, error)
	CreateSession(ctx context.Context, sessionID, userID string, gameID int64, channelID string) error
	TouchSession(ctx context.Context, sessionID string) error
	DeleteSession(ctx context.Context, sessionID string) error
	RecordDecision(ctx context.Context, gameID int64, number int, choice string, score int) error
	CompleteGame(ctx context.Context, gameID int64) (int64, error)
	RecordFeedback(ctx context.Context, gameID int64, rating int, comments string) error
}

// Notifier delivers best-effort out-of-band notices to users, e.g. when
// the reaper expires their session. Delivery failures are swallowed.
type Notifier interface {
	NotifyExpired(userID, channelID string) error
}

// Options tunes engine timing.
type Options struct {
	// SessionTimeout is how long a session may sit idle before the reaper
	// removes it.
	SessionTimeout time.Duration
	// ReapInterval is how often the reaper sweeps.
	ReapInterval time.Duration
}

const (
	defaultSessionTimeout = 5 * time.Minute
	defaultReapInterval   = time.Minute
)

// Engine owns the live session table. All lookups and mutation go through
// it; the mutex guards both tables and every session's state. Durable
// writes happen after the in-memory transition, outside the lock, so one
// slow write does not stall unrelated users.
type Engine struct {
	characters *character.Store
	store      Store
	opts       Options

	mu           sync.Mutex
	sessions     map[string]*Session
	userSessions map[string]string // user ID -> session ID

	notifier Notifier
}

// NewEngine creates an engine with injected collaborators. Zero option
// fields fall back to defaults.
func NewEngine(characters *character.Store, store Store, opts Options) *Engine {
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = defaultSessionTimeout
	}
	if opts.ReapInterval <= 0 {
		opts.ReapInterval = defaultReapInterval
	}
	return &Engine{
		characters:   characters,
		store:        store,
		opts:         opts,
		sessions:     make(map[string]*Session),
		userSessions: make(map[string]string),
	}
}

// SetNotifier installs the expiry notifier. Call before RunReaper.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// Start begins a new session for the user, superseding any prior one.
// The prior session is terminated incomplete. Returns a point-in-time copy
// of the new session.
func (e *Engine) Start(ctx context.Context, userID, username, characterID, channelID string) (*Session, error) {
	c := e.characters.Get(characterID)
	if c == nil {
		return nil, fmt.Errorf("character %q: %w", characterID, ErrCharacterNotFound)
	}

	if _, err := e.store.GetOrCreateUser(ctx, userID, username); err != nil {
		return nil, fmt.Errorf("get or create user: %w: %w", ErrStoreUnavailable, err)
	}
	gameID, err := e.store.CreateGame(ctx, userID, characterID)
	if err != nil {
		return nil, fmt.Errorf("create game: %w: %w", ErrStoreUnavailable, err)
	}

	s := &Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		Character:       c,
		GameID:          gameID,
		ChannelID:       channelID,
		CurrentDecision: 1,
		DecisionsMade:   make(map[int]string),
		LastActivity:    time.Now(),
	}

	e.mu.Lock()
	var priorID string
	if oldID, ok := e.userSessions[userID]; ok {
		priorID = oldID
		delete(e.sessions, oldID)
	}
	e.sessions[s.ID] = s
	e.userSessions[userID] = s.ID
	e.mu.Unlock()

	if priorID != "" {
		// The superseded game stays incomplete; only its mirror goes away.
		if err := e.store.DeleteSession(ctx, priorID); err != nil {
			log.Warn().Err(err).Str("session", priorID).Msg("Failed to delete superseded session mirror")
		}
		log.Info().Str("session", priorID).Str("user", userID).Msg("Superseded prior session")
	}

	if err := e.store.CreateSession(ctx, s.ID, userID, gameID, channelID); err != nil {
		e.mu.Lock()
		delete(e.sessions, s.ID)
		if e.userSessions[userID] == s.ID {
			delete(e.userSessions, userID)
		}
		e.mu.Unlock()
		return nil, fmt.Errorf("create session mirror: %w: %w", ErrStoreUnavailable, err)
	}

	log.Info().
		Str("session", s.ID).
		Str("user", userID).
		Str("character", characterID).
		Int64("game", gameID).
		Msg("Started game session")

	return s.copy(), nil
}

// SessionFor returns a copy of the user's live session, or nil. A stale
// user mapping pointing at a removed session is dropped on the way.
func (e *Engine) SessionFor(userID string) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.userSessions[userID]
	if !ok {
		return nil
	}
	s, ok := e.sessions[id]
	if !ok {
		delete(e.userSessions, userID)
		return nil
	}
	return s.copy()
}

// Get returns a copy of the session by ID, or nil.
func (e *Engine) Get(sessionID string) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[sessionID]
	if !ok {
		return nil
	}
	return s.copy()
}

// Advance applies the user's choice to the session's current decision.
// The engine, not the caller, decides which decision is live. An
// unrecognized choice key is recorded as a zero-score pick and still
// advances; garbled client input must not stall progression. Returns the
// score delta and whether the playthrough is now complete.
func (e *Engine) Advance(ctx context.Context, sessionID, choiceKey string) (int, bool, error) {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return 0, false, fmt.Errorf("session %q: %w", sessionID, ErrSessionNotFound)
	}
	if s.Completed() {
		e.mu.Unlock()
		return 0, true, fmt.Errorf("session %q already completed: %w", sessionID, ErrValidation)
	}

	number := s.CurrentDecision
	decision := s.Character.Decision(number)
	delta := 0
	if _, known := decision.Choices[choiceKey]; known {
		delta = decision.Choices[choiceKey].Score
	} else {
		log.Warn().
			Str("session", sessionID).
			Int("decision", number).
			Str("choice", choiceKey).
			Msg("Unknown choice key, recording as zero-score pick")
	}

	s.DecisionsMade[number] = choiceKey
	s.TotalScore += delta
	s.CurrentDecision++
	s.LastActivity = time.Now()
	completed := s.Completed()
	gameID := s.GameID
	e.mu.Unlock()

	// Durable mirror, after the in-memory transition. The decision is
	// recorded under the 1-based index it was answered at.
	if err := e.store.RecordDecision(ctx, gameID, number, choiceKey, delta); err != nil {
		log.Error().Err(err).Str("session", sessionID).Int("decision", number).Msg("Failed to record decision")
	}
	if err := e.store.TouchSession(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("Failed to touch session mirror")
	}
	if completed {
		if _, err := e.store.CompleteGame(ctx, gameID); err != nil {
			log.Error().Err(err).Int64("game", gameID).Msg("Failed to complete game")
		}
		log.Info().Str("session", sessionID).Int64("game", gameID).Msg("Game completed")
	}

	return delta, completed, nil
}

// End terminates a session. With completed=true a not-yet-finished game is
// force-completed with its current score; otherwise the game record stays
// incomplete. The in-memory session and its durable mirror are removed
// either way.
func (e *Engine) End(ctx context.Context, sessionID string, completed bool) error {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("session %q: %w", sessionID, ErrSessionNotFound)
	}

	// A session whose final advance already completed the durable game
	// must not be completed twice.
	needComplete := completed && !s.Completed()
	userID := s.UserID
	gameID := s.GameID

	delete(e.sessions, sessionID)
	if e.userSessions[userID] == sessionID {
		delete(e.userSessions, userID)
	}
	e.mu.Unlock()

	if needComplete {
		if _, err := e.store.CompleteGame(ctx, gameID); err != nil {
			log.Error().Err(err).Int64("game", gameID).Msg("Failed to force-complete game")
		}
	}
	if err := e.store.DeleteSession(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("Failed to delete session mirror")
	}

	log.Info().Str("session", sessionID).Str("user", userID).Bool("completed", completed).Msg("Ended game session")
	return nil
}

// RecordFeedback stores a 1-5 rating against the session's game. Returns
// false without error when the session is unknown.
func (e *Engine) RecordFeedback(ctx context.Context, sessionID string, rating int, comments string) (bool, error) {
	if rating < 1 || rating > 5 {
		return false, fmt.Errorf("rating %d out of range [1,5]: %w", rating, ErrValidation)
	}

	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	var gameID int64
	if ok {
		gameID = s.GameID
	}
	e.mu.Unlock()

	if !ok {
		return false, nil
	}

	if err := e.store.RecordFeedback(ctx, gameID, rating, comments); err != nil {
		return false, fmt.Errorf("record feedback: %w: %w", ErrStoreUnavailable, err)
	}

	log.Info().Str("session", sessionID).Int("rating", rating).Msg("Recorded feedback")
	return true, nil
}

// Analysis computes the performance breakdown for a live session.
func (e *Engine) Analysis(sessionID string) (Analysis, error) {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return Analysis{}, fmt.Errorf("session %q: %w", sessionID, ErrSessionNotFound)
	}
	snapshot := s.copy()
	e.mu.Unlock()

	return analyze(snapshot), nil
}

// Count returns the number of live sessions.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// copy returns a point-in-time copy safe to hand outside the lock. The
// Character pointer is shared; characters are immutable after load.
func (s *Session) copy() *Session {
	made := make(map[int]string, len(s.DecisionsMade))
	for k, v := range s.DecisionsMade {
		made[k] = v
	}
	dup := *s
	dup.DecisionsMade = made
	return &dup
}
