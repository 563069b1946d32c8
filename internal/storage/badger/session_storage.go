package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// previewLength caps the session preview taken from the first user turn
const previewLength = 50

// SessionStorage implements conversation persistence over badgerhold
type SessionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger

	// mu is shared with the index store through the manager. Every
	// operation but ClearAll holds it as a reader; the manager holds it
	// as a writer across document replacement plus session clearing, so
	// no reader sees a new document next to stale transcripts.
	mu *sync.RWMutex

	// appendMu hands out one mutex per session so concurrent appends to
	// the same session never interleave sequence numbers
	appendMu sync.Mutex
	locks    map[string]*sync.Mutex
}

// Compile-time interface assertion
var _ interfaces.SessionStorage = (*SessionStorage)(nil)

// NewSessionStorage creates a new session storage service
func NewSessionStorage(db *BadgerDB, logger arbor.ILogger, mu *sync.RWMutex) *SessionStorage {
	return &SessionStorage{
		db:     db,
		logger: logger,
		mu:     mu,
		locks:  make(map[string]*sync.Mutex),
	}
}

// CreateSession creates a new session with a server-generated id
func (s *SessionStorage) CreateSession(ctx context.Context) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	session := &models.ChatSession{
		ID:        common.NewSessionID(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.Store().Insert(session.ID, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Debug().Str("session_id", session.ID).Msg("Created chat session")
	return session, nil
}

// GetSession returns the session, or common.ErrSessionNotFound
func (s *SessionStorage) GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getSession(sessionID)
}

// getSession loads a session without taking the shared lock
func (s *SessionStorage) getSession(sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := s.db.Store().Get(sessionID, &session); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, common.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// AppendTurn appends a turn to the session, assigning the next sequence
// number. Appends to the same session are serialized.
func (s *SessionStorage) AppendTurn(ctx context.Context, sessionID, role, content string) (*models.Turn, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	count, err := s.db.Store().Count(&models.Turn{}, badgerhold.Where("SessionID").Eq(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to count turns: %w", err)
	}

	turn := &models.Turn{
		ID:        fmt.Sprintf("%s:%d", sessionID, count),
		SessionID: sessionID,
		Sequence:  int(count),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.db.Store().Insert(turn.ID, turn); err != nil {
		return nil, fmt.Errorf("failed to store turn: %w", err)
	}

	session.UpdatedAt = turn.CreatedAt
	if err := s.db.Store().Update(sessionID, session); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to touch session timestamp")
	}

	return turn, nil
}

// GetTurns returns all turns of a session ordered by sequence, or
// common.ErrSessionNotFound for an unknown id.
func (s *SessionStorage) GetTurns(ctx context.Context, sessionID string) ([]*models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.getSession(sessionID); err != nil {
		return nil, err
	}
	return s.turnsBySequence(sessionID)
}

// RecentTurns returns the most recent limit turns ordered by sequence.
// An unknown session yields an empty slice.
func (s *SessionStorage) RecentTurns(ctx context.Context, sessionID string, limit int) ([]*models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, err := s.turnsBySequence(sessionID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

// ListSessions returns summaries of all sessions ordered by most recent
// activity, newest first. The preview is the first user turn, truncated.
func (s *SessionStorage) ListSessions(ctx context.Context) ([]*models.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []models.ChatSession
	if err := s.db.Store().Find(&sessions, nil); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	summaries := make([]*models.SessionSummary, 0, len(sessions))
	for i := range sessions {
		session := &sessions[i]
		preview, err := s.sessionPreview(session.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &models.SessionSummary{
			SessionID: session.ID,
			CreatedAt: session.CreatedAt,
			Preview:   preview,
		})
	}
	return summaries, nil
}

// ClearAll removes all sessions and turns
func (s *SessionStorage) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearAllLocked(ctx)
}

// clearAllLocked removes all session records. Callers must hold the
// write lock.
func (s *SessionStorage) clearAllLocked(ctx context.Context) error {
	if err := s.db.Store().DeleteMatching(&models.Turn{}, nil); err != nil {
		return fmt.Errorf("failed to clear turns: %w", err)
	}
	if err := s.db.Store().DeleteMatching(&models.ChatSession{}, nil); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	s.appendMu.Lock()
	s.locks = make(map[string]*sync.Mutex)
	s.appendMu.Unlock()

	s.logger.Info().Msg("Cleared all chat sessions")
	return nil
}

// sessionLock returns the append mutex for a session, creating it on
// first use.
func (s *SessionStorage) sessionLock(sessionID string) *sync.Mutex {
	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// turnsBySequence loads a session's turns ordered by sequence number
func (s *SessionStorage) turnsBySequence(sessionID string) ([]*models.Turn, error) {
	var turns []models.Turn
	if err := s.db.Store().Find(&turns, badgerhold.Where("SessionID").Eq(sessionID)); err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}
	sort.Slice(turns, func(i, j int) bool {
		return turns[i].Sequence < turns[j].Sequence
	})
	result := make([]*models.Turn, len(turns))
	for i := range turns {
		result[i] = &turns[i]
	}
	return result, nil
}

// sessionPreview derives a short label from the session's first user turn
func (s *SessionStorage) sessionPreview(sessionID string) (string, error) {
	turns, err := s.turnsBySequence(sessionID)
	if err != nil {
		return "", err
	}
	for _, turn := range turns {
		if turn.Role != models.RoleUser {
			continue
		}
		if len(turn.Content) > previewLength {
			return turn.Content[:previewLength] + "...", nil
		}
		return turn.Content, nil
	}
	return "New conversation", nil
}
