package main

import (
	"fmt"

	"impactscan/internal/billstore"
	"impactscan/internal/config"
	"impactscan/internal/embedding"
	"impactscan/internal/impact"
	"impactscan/internal/llm"
	"impactscan/internal/persistence"
	"impactscan/internal/pipeline"
	"impactscan/internal/similarity"
)

// app bundles the constructed collaborators a command needs, plus whichever
// closer(s) must run before the process exits.
type app struct {
	driver     *pipeline.Driver
	documents  persistence.DocumentRepository
	runs       persistence.RunRepository
	audit      persistence.AuditRepository
	cacheAdmin persistence.CacheAdmin
	closers    []func() error
	cfg        *config.Config
}

func buildApp() (*app, error) {
	cfg := config.Get()

	client, err := llm.NewClient(cfg.AI.Gemini.Model)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	a := &app{cfg: cfg}
	a.closers = append(a.closers, client.Close)

	var cache embedding.Cache
	switch cfg.Cache.Backend {
	case "sqlite":
		store, err := persistence.NewSQLite(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite embedding cache: %w", err)
		}
		cache = store
		a.audit = store.Audit()
		a.cacheAdmin = store
		a.closers = append(a.closers, store.Close)
	default:
		store, err := persistence.NewPostgres(cfg.Database.ConnectionString, cfg.Database.MaxConnections, cfg.Database.IdleConnections)
		if err != nil {
			return nil, fmt.Errorf("open postgres embedding cache: %w", err)
		}
		cache = store
		a.documents = store.Documents()
		a.runs = store.Runs()
		a.audit = store.Audit()
		a.cacheAdmin = store
		a.closers = append(a.closers, store.Close)
	}

	embedder := embedding.New(client, cache, cfg.AI.Gemini.EmbeddingModel, cfg.Pipeline.EmbeddingBatchSize)
	matcher := similarity.New(cfg.Pipeline.SimilarityThreshold)
	extractor := impact.NewExtractor(client, cfg.Pipeline.ExtractionConcurrency)
	consolidator := impact.NewConsolidator(client, cfg.Pipeline.ConsolidationConcurrency)
	bills := billstore.New(cfg.Pipeline.BillsDirectory)

	a.driver = pipeline.New(bills, embedder, matcher, extractor, consolidator)

	return a, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c()
	}
}
