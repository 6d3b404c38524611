package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// Service manages preference profiles. Every user has exactly one profile,
// created with defaults on first access. Direct edits and learned updates
// both funnel through here so mutual exclusivity of preferred and excluded
// sources holds no matter who writes.
type Service struct {
	store    Store
	proposer Proposer
	// commitThreshold is the minimum proposal confidence that gets applied.
	commitThreshold float64
	logger          *zap.Logger
	now             func() time.Time
}

// New creates a profile service.
func New(store Store, proposer Proposer, commitThreshold float64, logger *zap.Logger) *Service {
	return &Service{
		store:           store,
		proposer:        proposer,
		commitThreshold: commitThreshold,
		logger:          logger,
		now:             time.Now,
	}
}

// Get returns the user's profile, creating the default one on first access.
func (s *Service) Get(ctx context.Context, userID string) (domain.Profile, error) {
	p, err := s.store.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return domain.Profile{}, domain.StoreErr("read profile", userID, domain.TimeoutOr(err))
	}

	created, err := s.store.Create(ctx, domain.DefaultProfile(userID, s.now().UTC()))
	if err != nil {
		return domain.Profile{}, domain.StoreErr("create profile", userID, domain.TimeoutOr(err))
	}
	s.logger.Info("Created default profile", zap.String("user_id", userID))
	return created, nil
}

// Update applies a direct profile edit (last-write-wins) after normalizing
// source lists so no source sits on both sides.
func (s *Service) Update(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	if p.UserID == "" {
		return domain.Profile{}, fmt.Errorf("profile update: missing user id")
	}
	if p.Tone != "" && !p.Tone.Valid() {
		return domain.Profile{}, fmt.Errorf("profile update: unknown tone %q", p.Tone)
	}

	normalized := normalize(p)
	updated, err := s.store.Update(ctx, normalized)
	if err != nil {
		return domain.Profile{}, domain.StoreErr("update profile", p.UserID, domain.TimeoutOr(err))
	}
	return updated, nil
}

// Learn asks the proposer for preference changes and commits those whose
// confidence clears the threshold. All proposals are returned so the
// caller can show what was considered; Applied marks what was written.
func (s *Service) Learn(ctx context.Context, userID string) (domain.Profile, []domain.PreferenceChange, error) {
	changes, err := s.proposer.ProposeUpdates(ctx, userID)
	if err != nil {
		return domain.Profile{}, nil, err
	}

	current, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Profile{}, nil, err
	}
	if len(changes) == 0 {
		return current, nil, nil
	}

	updated := current
	applied := 0
	for _, c := range changes {
		if c.Confidence < s.commitThreshold {
			continue
		}
		updated = applyChange(updated, c)
		applied++
	}

	if applied == 0 {
		return current, changes, nil
	}

	committed, err := s.store.Update(ctx, updated)
	if err != nil {
		return domain.Profile{}, nil, domain.StoreErr("commit learned profile", userID, domain.TimeoutOr(err))
	}

	s.logger.Info("Committed learned preference changes",
		zap.String("user_id", userID),
		zap.Int("proposed", len(changes)),
		zap.Int("applied", applied),
	)
	return committed, changes, nil
}

// Delete removes the user's profile.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return domain.StoreErr("delete profile", userID, domain.TimeoutOr(err))
	}
	return nil
}

// applyChange folds one proposal into the profile through the domain
// mutators, so source exclusivity is preserved even if a proposal names a
// source currently on the other side.
func applyChange(p domain.Profile, c domain.PreferenceChange) domain.Profile {
	switch c.Field {
	case "topics":
		return p.WithTopics(c.NewValue...)
	case "preferred_sources":
		out := p
		for _, src := range c.NewValue {
			out = out.WithPreferredSource(src)
		}
		return out
	case "excluded_sources":
		out := p
		for _, src := range c.NewValue {
			out = out.WithExcludedSource(src)
		}
		return out
	}
	return p
}

// normalize re-applies the source lists through the domain mutators.
// Excluded wins on conflict: excluding a source always removes it from
// the preferred side.
func normalize(p domain.Profile) domain.Profile {
	out := p
	out.PreferredSources = nil
	out.ExcludedSources = nil
	for _, src := range p.PreferredSources {
		out = out.WithPreferredSource(src)
	}
	for _, src := range p.ExcludedSources {
		out = out.WithExcludedSource(src)
	}
	return out
}
