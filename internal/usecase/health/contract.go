package health

import "context"

// StoragePinger checks storage collaborator connectivity.
type StoragePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker verifies embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
