package profile

import (
	"context"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// Store is the profile usecase's view of preference persistence (ISP).
type Store interface {
	Get(ctx context.Context, userID string) (domain.Profile, error)
	Create(ctx context.Context, p domain.Profile) (domain.Profile, error)
	Update(ctx context.Context, p domain.Profile) (domain.Profile, error)
	Delete(ctx context.Context, userID string) error
}

// Proposer supplies preference change proposals derived from behavior.
type Proposer interface {
	ProposeUpdates(ctx context.Context, userID string) ([]domain.PreferenceChange, error)
}
