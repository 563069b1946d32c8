package badger

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
)

// Manager bundles the storage services over a single Badger connection
type Manager struct {
	db       *BadgerDB
	index    *IndexStorage
	sessions *SessionStorage
	logger   arbor.ILogger

	// mu is shared with both stores. Their reads hold it as readers;
	// ReplaceDocument and Reset hold it as a writer across the index
	// swap and the session clear, so no reader observes the new
	// document alongside transcripts grounded in the old one.
	mu sync.RWMutex
}

// Compile-time interface assertion
var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager opens the database and wires up the storage services
func NewManager(config *common.BadgerConfig, logger arbor.ILogger) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		db:     db,
		logger: logger,
	}
	m.index = NewIndexStorage(db, logger, &m.mu)
	m.sessions = NewSessionStorage(db, logger, &m.mu)
	return m, nil
}

// ReplaceDocument swaps the active document and clears all chat sessions
// in one step visible to readers.
func (m *Manager) ReplaceDocument(ctx context.Context, doc *models.Document, chunks []*models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.index.replaceDocumentLocked(ctx, doc, chunks); err != nil {
		return err
	}
	return m.sessions.clearAllLocked(ctx)
}

// Reset clears the document index and all sessions in one step visible
// to readers.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.index.clearLocked(ctx); err != nil {
		return err
	}
	return m.sessions.clearAllLocked(ctx)
}

// IndexStorage returns the vector index storage
func (m *Manager) IndexStorage() interfaces.IndexStorage {
	return m.index
}

// SessionStorage returns the conversation storage
func (m *Manager) SessionStorage() interfaces.SessionStorage {
	return m.sessions
}

// Close closes the underlying database connection
func (m *Manager) Close() error {
	m.logger.Debug().Msg("Closing storage manager")
	return m.db.Close()
}
