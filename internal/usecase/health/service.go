// Package health aggregates readiness checks for the engine's collaborators.
package health

import "context"

// Status is the overall health state.
type Status string

const (
	Healthy   Status = "healthy"
	Degraded  Status = "degraded"
	Unhealthy Status = "unhealthy"
)

// Pinger checks the vector-search backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks the embedding provider.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// GenerationChecker reports whether an active generation exists.
type GenerationChecker interface {
	Active() error
}

// Report is the result of one health check pass.
type Report struct {
	Status Status
	Checks map[string]string
}

// Service runs the checks. Nil collaborators are skipped: a deployment
// without vector search is still healthy for computational queries.
type Service struct {
	store      Pinger
	embedding  EmbeddingChecker
	generation GenerationChecker
}

// New creates a health service.
func New(store Pinger, embedding EmbeddingChecker, generation GenerationChecker) *Service {
	return &Service{store: store, embedding: embedding, generation: generation}
}

// Check runs every configured check. The vector-search backend and embedding
// provider degrade the status; a missing generation makes it unhealthy since
// no query can be served.
func (s *Service) Check(ctx context.Context) Report {
	report := Report{Status: Healthy, Checks: make(map[string]string)}

	if s.generation != nil {
		if err := s.generation.Active(); err != nil {
			report.Status = Unhealthy
			report.Checks["generation"] = err.Error()
		} else {
			report.Checks["generation"] = "ok"
		}
	}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			if report.Status == Healthy {
				report.Status = Degraded
			}
			report.Checks["vecsearch"] = err.Error()
		} else {
			report.Checks["vecsearch"] = "ok"
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			if report.Status == Healthy {
				report.Status = Degraded
			}
			report.Checks["embedding"] = err.Error()
		} else {
			report.Checks["embedding"] = "ok"
		}
	}

	return report
}
