package health

import "context"

// Status is the rolled-up condition of the engine's dependencies.
type Status string

const (
	// Healthy means the store and the embedding provider both responded.
	Healthy Status = "ok"
	// Degraded means at least one dependency check failed.
	Degraded Status = "degraded"
	// Unhealthy means nothing responded.
	Unhealthy Status = "error"
)

// CheckResult is the outcome of a single dependency check.
type CheckResult string

const (
	// CheckOK marks a dependency that answered.
	CheckOK CheckResult = "ok"
	// CheckError marks a dependency whose check failed.
	CheckError CheckResult = "error"
)

// Report carries per-dependency outcomes with the rolled-up status.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service checks the engine's two external dependencies: the Redis store
// backing interactions, profiles and the vector index, and the embedding
// provider.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding may be nil when no provider is configured.
func New(db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, embedding: embedding}
}

// Check runs every dependency check and rolls the outcomes up. A failing
// dependency degrades the engine rather than failing it outright.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
