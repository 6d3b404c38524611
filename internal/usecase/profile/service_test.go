package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

type fakeStore struct {
	profiles  map[string]domain.Profile
	getErr    error
	updateErr error
	creates   int
	updates   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[string]domain.Profile)}
}

func (f *fakeStore) Get(_ context.Context, userID string) (domain.Profile, error) {
	if f.getErr != nil {
		return domain.Profile{}, f.getErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeStore) Create(_ context.Context, p domain.Profile) (domain.Profile, error) {
	f.creates++
	f.profiles[p.UserID] = p
	return p, nil
}

func (f *fakeStore) Update(_ context.Context, p domain.Profile) (domain.Profile, error) {
	if f.updateErr != nil {
		return domain.Profile{}, f.updateErr
	}
	f.updates++
	f.profiles[p.UserID] = p
	return p, nil
}

func (f *fakeStore) Delete(_ context.Context, userID string) error {
	delete(f.profiles, userID)
	return nil
}

type fakeProposer struct {
	changes []domain.PreferenceChange
	err     error
}

func (f *fakeProposer) ProposeUpdates(_ context.Context, _ string) ([]domain.PreferenceChange, error) {
	return f.changes, f.err
}

func newTestService(store *fakeStore, proposer *fakeProposer) *Service {
	svc := New(store, proposer, 0.3, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestGet_CreatesDefaultOnFirstAccess(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeProposer{})

	p, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Tone != domain.ToneCasual || p.ReadingTimeMin != 5 {
		t.Errorf("default profile = %+v", p)
	}
	if store.creates != 1 {
		t.Errorf("creates = %d", store.creates)
	}

	// Second access returns the stored profile, no second create
	if _, err := svc.Get(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if store.creates != 1 {
		t.Errorf("creates after second access = %d", store.creates)
	}
}

func TestUpdate_RejectsUnknownTone(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProposer{})

	_, err := svc.Update(context.Background(), domain.Profile{UserID: "u1", Tone: "sarcastic"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestUpdate_NormalizesSourceConflict(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProposer{})

	p, err := svc.Update(context.Background(), domain.Profile{
		UserID:           "u1",
		PreferredSources: []string{"bbc", "reuters"},
		ExcludedSources:  []string{"BBC"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.PrefersSource("bbc") {
		t.Error("bbc must not stay preferred when also excluded")
	}
	if !p.ExcludesSource("bbc") || !p.PrefersSource("reuters") {
		t.Errorf("profile = %+v", p)
	}
}

func TestLearn_CommitsAboveThreshold(t *testing.T) {
	store := newFakeStore()
	proposer := &fakeProposer{changes: []domain.PreferenceChange{
		{Field: "preferred_sources", NewValue: []string{"techcrunch"}, Confidence: 0.8},
		{Field: "topics", NewValue: []string{"ai"}, Confidence: 0.1},
	}}
	svc := newTestService(store, proposer)

	p, changes, err := svc.Learn(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("changes = %+v", changes)
	}
	if !p.PrefersSource("techcrunch") {
		t.Error("high-confidence proposal not committed")
	}
	if p.HasTopic("ai") {
		t.Error("low-confidence proposal must not be committed")
	}
}

func TestLearn_NothingToCommit(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeProposer{})

	p, changes, err := svc.Learn(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if changes != nil {
		t.Errorf("changes = %+v", changes)
	}
	if p.UserID != "u1" {
		t.Errorf("profile = %+v", p)
	}
	if store.updates != 0 {
		t.Errorf("updates = %d, nothing should be written", store.updates)
	}
}

func TestLearn_ExclusionOverridesPreference(t *testing.T) {
	store := newFakeStore()
	store.profiles["u1"] = domain.DefaultProfile("u1", time.Now()).WithPreferredSource("cnn")
	proposer := &fakeProposer{changes: []domain.PreferenceChange{
		{Field: "excluded_sources", NewValue: []string{"cnn"}, Confidence: 0.9},
	}}
	svc := newTestService(store, proposer)

	p, _, err := svc.Learn(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if p.PrefersSource("cnn") || !p.ExcludesSource("cnn") {
		t.Errorf("profile = %+v", p)
	}
}

func TestLearn_ProposerError(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProposer{err: errors.New("analysis failed")})

	if _, _, err := svc.Learn(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
}
