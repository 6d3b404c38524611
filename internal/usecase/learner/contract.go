package learner

import (
	"context"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// InteractionStore is the learner's view of the interaction log (ISP).
type InteractionStore interface {
	Insert(ctx context.Context, in domain.Interaction) error
	Query(ctx context.Context, userID string, limit int) ([]domain.Interaction, error)
	Count(ctx context.Context, userID string) (int64, error)
	TrimToCap(ctx context.Context, userID string, cap int) (int64, error)
	DeleteAll(ctx context.Context, userID string) error
}

// ProfileReader is the learner's read-only view of preference profiles.
// The learner only proposes changes; committing them belongs to the
// profile usecase.
type ProfileReader interface {
	Get(ctx context.Context, userID string) (domain.Profile, error)
}
