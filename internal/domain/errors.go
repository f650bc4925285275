package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRetrievalUnavailable signals that the vector-search capability is
	// missing or timed out; semantic and hybrid queries cannot be served.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrUnknownAggregation signals a query for an aggregation table that was
	// not built for the active generation.
	ErrUnknownAggregation = errors.New("unknown aggregation")
	// ErrNoActiveGeneration signals that no dataset generation has been
	// ingested yet.
	ErrNoActiveGeneration = errors.New("no active generation")
	// ErrEmptyDataset signals an ingestion run with zero records.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrInvalidCategory signals an unknown clustering category.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// StaleGenerationError reports a query that referenced a generation retired
// mid-flight. The query is still served from the active generation; callers
// receive this alongside the usable generation and surface it as a warning.
type StaleGenerationError struct {
	Requested uint64
	Active    uint64
}

func (e *StaleGenerationError) Error() string {
	return fmt.Sprintf("stale generation access: requested %d, active %d", e.Requested, e.Active)
}
