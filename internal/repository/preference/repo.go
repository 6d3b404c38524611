package preference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/newsdex/internal/db"
	"github.com/kailas-cloud/newsdex/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "prefs:"

// store is the consumer interface for profile persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Repo is the durable per-user preference profile store.
// Writes are last-write-wins; concurrent updates to the same user are
// resolved at this layer, not with optimistic locking.
type Repo struct {
	store store
}

// New creates a preference repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func userKey(userID string) string {
	return keyPrefix + userID
}

// Get returns the user's profile, or domain.ErrProfileNotFound.
func (r *Repo) Get(ctx context.Context, userID string) (domain.Profile, error) {
	data, err := r.store.Get(ctx, userKey(userID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Profile{}, domain.ErrProfileNotFound
		}
		return domain.Profile{}, fmt.Errorf("read profile %s: %w", userID, err)
	}
	return unmarshalProfile(data)
}

// Create stores a brand-new profile.
func (r *Repo) Create(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	return r.put(ctx, p)
}

// Update replaces the user's profile (last-write-wins) and stamps LastUpdated.
func (r *Repo) Update(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	return r.put(ctx, p)
}

func (r *Repo) put(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	p.LastUpdated = time.Now().UTC()
	data, err := marshalProfile(p)
	if err != nil {
		return domain.Profile{}, err
	}
	if err := r.store.Set(ctx, userKey(p.UserID), data); err != nil {
		return domain.Profile{}, fmt.Errorf("write profile %s: %w", p.UserID, err)
	}
	return p, nil
}

// Delete removes the user's profile.
func (r *Repo) Delete(ctx context.Context, userID string) error {
	if err := r.store.Del(ctx, userKey(userID)); err != nil {
		return fmt.Errorf("delete profile %s: %w", userID, err)
	}
	return nil
}
