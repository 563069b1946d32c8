// -----------------------------------------------------------------------
// Application wiring - construct services and handlers in dependency
// order over a single storage connection
// -----------------------------------------------------------------------

package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/handlers"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/services/chat"
	"github.com/ternarybob/loquor/internal/services/chunker"
	"github.com/ternarybob/loquor/internal/services/embeddings"
	"github.com/ternarybob/loquor/internal/services/extract"
	"github.com/ternarybob/loquor/internal/services/ingest"
	"github.com/ternarybob/loquor/internal/services/llm"
	"github.com/ternarybob/loquor/internal/services/retrieval"
	"github.com/ternarybob/loquor/internal/storage/badger"
)

// App holds the application's wired services and handlers
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	EmbeddingService interfaces.EmbeddingService
	RetrievalService interfaces.RetrievalService
	IngestService    interfaces.IngestService
	ChatService      interfaces.ChatService

	DocumentHandler *handlers.DocumentHandler
	ChatHandler     *handlers.ChatHandler
	APIHandler      *handlers.APIHandler

	generator interfaces.GenerationProvider
}

// New wires up the application from configuration
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(&cfg.Storage.Badger, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	gemini, err := llm.NewGeminiService(&cfg.Gemini, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize Gemini service: %w", err)
	}

	generator, err := llm.NewGenerationProvider(cfg, gemini, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize generation provider: %w", err)
	}
	app.generator = generator

	splitter, err := chunker.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		storageManager.Close()
		return nil, err
	}

	extractor := extract.NewExtractor(logger)
	app.EmbeddingService = embeddings.NewService(gemini, cfg.Ingest.BatchSize, logger)

	app.RetrievalService = retrieval.NewService(
		app.EmbeddingService,
		storageManager.IndexStorage(),
		cfg.Chat.TopK,
		logger,
	)

	app.IngestService = ingest.NewService(
		extractor,
		splitter,
		app.EmbeddingService,
		storageManager,
		logger,
	)

	app.ChatService = chat.NewService(
		app.RetrievalService,
		storageManager.SessionStorage(),
		generator,
		gemini,
		cfg.Chat.TopK,
		cfg.Chat.HistoryWindow,
		logger,
	)

	app.DocumentHandler = handlers.NewDocumentHandler(app.IngestService, logger)
	app.ChatHandler = handlers.NewChatHandler(app.ChatService, logger)
	app.APIHandler = handlers.NewAPIHandler(logger)

	logger.Info().
		Str("provider", generator.Model()).
		Int("chunk_size", cfg.Ingest.ChunkSize).
		Int("chunk_overlap", cfg.Ingest.ChunkOverlap).
		Int("top_k", cfg.Chat.TopK).
		Msg("Application initialized")

	return app, nil
}

// Close releases application resources
func (a *App) Close() error {
	if a.generator != nil {
		if err := a.generator.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close generation provider")
		}
	}
	if a.StorageManager != nil {
		return a.StorageManager.Close()
	}
	return nil
}
