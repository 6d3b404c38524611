package interaction

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "interactions:"

// store is the consumer interface for the interaction log (ISP).
type store interface {
	ListAppend(ctx context.Context, key string, values ...[]byte) error
	ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	ListLen(ctx context.Context, key string) (int64, error)
	ListTrim(ctx context.Context, key string, start, stop int64) error
	Del(ctx context.Context, key string) error
}

// Repo is the durable append-only interaction log, one list per user,
// rows in chronological order.
type Repo struct {
	store store
}

// New creates an interaction repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func userKey(userID string) string {
	return keyPrefix + userID
}

// Insert appends an interaction to the user's log.
func (r *Repo) Insert(ctx context.Context, in domain.Interaction) error {
	data, err := marshalRow(in)
	if err != nil {
		return err
	}
	if err := r.store.ListAppend(ctx, userKey(in.UserID), data); err != nil {
		return fmt.Errorf("append interaction for %s: %w", in.UserID, err)
	}
	return nil
}

// Query returns the user's most recent limit interactions in chronological
// order (oldest first). limit <= 0 returns the full log.
func (r *Repo) Query(ctx context.Context, userID string, limit int) ([]domain.Interaction, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	rows, err := r.store.ListRange(ctx, userKey(userID), start, -1)
	if err != nil {
		return nil, fmt.Errorf("read interactions for %s: %w", userID, err)
	}

	out := make([]domain.Interaction, 0, len(rows))
	for _, raw := range rows {
		in, err := unmarshalRow(raw)
		if err != nil {
			// A malformed row must not poison the whole history.
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

// Count returns the number of stored interactions for the user.
func (r *Repo) Count(ctx context.Context, userID string) (int64, error) {
	n, err := r.store.ListLen(ctx, userKey(userID))
	if err != nil {
		return 0, fmt.Errorf("count interactions for %s: %w", userID, err)
	}
	return n, nil
}

// TrimToCap drops the oldest rows beyond cap and reports how many were removed.
func (r *Repo) TrimToCap(ctx context.Context, userID string, cap int) (int64, error) {
	key := userKey(userID)

	n, err := r.store.ListLen(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("count interactions for %s: %w", userID, err)
	}
	if n <= int64(cap) {
		return 0, nil
	}

	if err := r.store.ListTrim(ctx, key, int64(-cap), -1); err != nil {
		return 0, fmt.Errorf("trim interactions for %s: %w", userID, err)
	}
	return n - int64(cap), nil
}

// DeleteAll removes the user's entire interaction history. Irreversible.
func (r *Repo) DeleteAll(ctx context.Context, userID string) error {
	if err := r.store.Del(ctx, userKey(userID)); err != nil {
		return fmt.Errorf("delete interactions for %s: %w", userID, err)
	}
	return nil
}
