package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/chat"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/chunker"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/config"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/embedding/hashing"
	embedopenai "github.com/sandronatchkebia/ZuriKnowledgeBase/internal/embedding/openai"
	llmopenai "github.com/sandronatchkebia/ZuriKnowledgeBase/internal/llm/openai"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/loader"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/metrics"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/service"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/summarizer"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/uploads"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/vectorstore/memory"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/vectorstore/qdrant"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/vectorstore/sqlite"
)

// app holds the components shared by every command.
type app struct {
	cfg       *config.AppConfig
	logger    *slog.Logger
	metrics   *metrics.Metrics
	store     domain.VectorStore
	indexer   *service.Indexer
	retriever *service.Retriever
	registry  *uploads.Registry
}

func newApp(cfg *config.AppConfig, logger *slog.Logger) (*app, error) {
	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	split, err := newSplitter(cfg.Chunker, emb)
	if err != nil {
		return nil, err
	}
	st, err := newStore(cfg.VectorStore)
	if err != nil {
		return nil, err
	}
	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	case "none":
	default:
		st.Close()
		return nil, fmt.Errorf("%w: unknown summarizer: %s", domain.ErrConfig, cfg.Summarizer.Type)
	}

	m := metrics.New()
	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		store:   st,
		indexer: service.NewIndexer(service.IndexerOptions{
			Loader:              loader.New(cfg.Loader.Pdftotext),
			Splitter:            split,
			Embedder:            emb,
			Store:               st,
			Summarizer:          sum,
			Collection:          cfg.VectorStore.Collection,
			SummaryMaxSentences: cfg.Summarizer.MaxSentences,
			Metrics:             m,
			Logger:              logger,
		}),
		retriever: service.NewRetriever(service.RetrieverOptions{
			Embedder:   emb,
			Store:      st,
			Collection: cfg.VectorStore.Collection,
			TopK:       cfg.Retriever.TopK,
			MinScore:   cfg.Retriever.MinScore,
			Metrics:    m,
			Logger:     logger,
		}),
		registry:  uploads.NewRegistry(cfg.Data.UploadDir),
	}, nil
}

// agent builds the chat loop; it needs completion service credentials.
func (a *app) agent() (*chat.Agent, error) {
	completer, err := llmopenai.NewCompleter(llmopenai.Config{
		BaseURL:     a.cfg.LLM.BaseURL,
		APIKeyEnv:   a.cfg.LLM.APIKeyEnv,
		Model:       a.cfg.LLM.Model,
		Temperature: a.cfg.LLM.Temperature,
		MaxTokens:   a.cfg.LLM.MaxTokens,
		Timeout:     time.Duration(a.cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return a.agentWith(completer), nil
}

func (a *app) agentWith(completer chat.Completer) *chat.Agent {
	return chat.NewAgent(chat.Options{
		Completer:    completer,
		Retriever:    a.retriever,
		Indexer:      a.indexer,
		Registry:     a.registry,
		SystemPrompt: a.cfg.LLM.SystemPrompt,
		Fallback:     a.cfg.LLM.Fallback,
		Metrics:      a.metrics,
		Logger:       a.logger,
	})
}

func (a *app) Close() error {
	return a.store.Close()
}

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "openai", "":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("%w: openai embedder config missing", domain.ErrConfig)
		}
		return embedopenai.NewClient(embedopenai.Config{
			BaseURL:           cfg.OpenAI.BaseURL,
			APIKeyEnv:         cfg.OpenAI.APIKeyEnv,
			Model:             cfg.OpenAI.Model,
			Timeout:           time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize:         cfg.OpenAI.BatchSize,
			RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		})
	case "hashing":
		dim := 0
		if cfg.Hashing != nil {
			dim = cfg.Hashing.Dimension
		}
		return hashing.NewEmbedder(dim), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedder: %s", domain.ErrConfig, cfg.Type)
	}
}

func newSplitter(cfg config.ChunkerConfig, emb domain.Embedder) (domain.Splitter, error) {
	switch cfg.Type {
	case "semantic", "":
		return chunker.NewSemanticChunker(emb, cfg.BufferSize, cfg.BreakpointPercentile, cfg.ChunkSize), nil
	case "fixed":
		return chunker.NewFixedChunker(chunker.WithChunkSize(cfg.ChunkSize), chunker.WithOverlap(cfg.ChunkOverlap)), nil
	case "sentence":
		return chunker.NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences), nil
	default:
		return nil, fmt.Errorf("%w: unknown chunker: %s", domain.ErrConfig, cfg.Type)
	}
}

func newStore(cfg config.VectorStoreConfig) (domain.VectorStore, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.SQLite == nil {
			return nil, fmt.Errorf("%w: sqlite config missing", domain.ErrConfig)
		}
		return sqlite.Open(cfg.SQLite.Path, cfg.Collection)
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		if cfg.Qdrant == nil || cfg.Qdrant.URL == "" {
			return nil, fmt.Errorf("%w: qdrant config missing", domain.ErrConfig)
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     os.Getenv(cfg.Qdrant.APIKeyEnv),
			Collection: cfg.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown vector store: %s", domain.ErrConfig, cfg.Type)
	}
}
