package learner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// seedEngagement writes the canonical scenario: three hides on cnn politics
// early in the log, then six positive interactions with techcrunch technology
// articles. cnn engagement sits entirely in the older half of the window, so
// its trend is decreasing; techcrunch is the user's rising interest.
func seedEngagement(t *testing.T, svc *Service, userID string) {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Track(ctx, domain.Interaction{
			UserID:    userID,
			ArticleID: "cnn-" + string(rune('a'+i)),
			Action:    domain.ActionHide,
			CreatedAt: testNow.Add(-time.Duration(12-i) * time.Hour),
			Article:   domain.ArticleMeta{Source: "cnn", Category: "politics"},
		})
		if err != nil {
			t.Fatalf("Track: %v", err)
		}
	}
	for i := 0; i < 6; i++ {
		_, err := svc.Track(ctx, domain.Interaction{
			UserID:    userID,
			ArticleID: "tc-" + string(rune('a'+i)),
			Action:    domain.ActionLike,
			CreatedAt: testNow.Add(-time.Duration(9-i) * time.Hour),
			Article: domain.ArticleMeta{
				Source:   "techcrunch",
				Category: "technology",
				Tags:     []string{"ai"},
			},
		})
		if err != nil {
			t.Fatalf("Track: %v", err)
		}
	}
}

func TestTrack_FillsIDAndTimestamp(t *testing.T) {
	ints := newFakeInteractions()
	svc := newTestService(ints, newFakeProfiles())

	in, err := svc.Track(context.Background(), domain.Interaction{
		UserID:    "u1",
		ArticleID: "a1",
		Action:    domain.ActionReadMore,
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if in.ID == "" {
		t.Error("ID not assigned")
	}
	if !in.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v", in.CreatedAt)
	}
	if len(ints.rows["u1"]) != 1 {
		t.Errorf("stored rows = %d", len(ints.rows["u1"]))
	}
}

func TestTrack_RejectsUnknownAction(t *testing.T) {
	svc := newTestService(newFakeInteractions(), newFakeProfiles())

	_, err := svc.Track(context.Background(), domain.Interaction{
		UserID: "u1", ArticleID: "a1", Action: "upvote",
	})
	if !errors.Is(err, domain.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestTrack_InsertFailureIsStoreError(t *testing.T) {
	ints := newFakeInteractions()
	ints.insertErr = errors.New("connection refused")
	svc := newTestService(ints, newFakeProfiles())

	_, err := svc.Track(context.Background(), domain.Interaction{
		UserID: "u1", ArticleID: "a1", Action: domain.ActionLike,
	})
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

func TestTrack_PruneFailureDoesNotFailWrite(t *testing.T) {
	ints := newFakeInteractions()
	ints.trimErr = errors.New("trim timeout")
	svc := newTestService(ints, newFakeProfiles())

	if _, err := svc.Track(context.Background(), domain.Interaction{
		UserID: "u1", ArticleID: "a1", Action: domain.ActionLike,
	}); err != nil {
		t.Fatalf("write must survive prune failure: %v", err)
	}
	if ints.trimCalls != 1 {
		t.Errorf("trim calls = %d", ints.trimCalls)
	}
}

func TestTrack_PrunesBeyondCap(t *testing.T) {
	ints := newFakeInteractions()
	svc := newTestService(ints, newFakeProfiles())
	svc.cfg.MaxStoredInteractions = 3

	for i := 0; i < 5; i++ {
		if _, err := svc.Track(context.Background(), domain.Interaction{
			UserID: "u1", ArticleID: "a1", Action: domain.ActionLike,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(ints.rows["u1"]); got != 3 {
		t.Errorf("log length = %d, want 3", got)
	}
}

func TestAnalyze_ThinHistoryHasZeroConfidence(t *testing.T) {
	ints := newFakeInteractions()
	svc := newTestService(ints, newFakeProfiles())

	for i := 0; i < 4; i++ {
		if _, err := svc.Track(context.Background(), domain.Interaction{
			UserID: "u1", ArticleID: "a1", Action: domain.ActionLike,
			Article: domain.ArticleMeta{Source: "bbc", Category: "world"},
		}); err != nil {
			t.Fatal(err)
		}
	}

	ins, err := svc.Analyze(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if ins.LearningConfidence != 0 {
		t.Errorf("confidence = %f, want 0", ins.LearningConfidence)
	}
	if ins.Learnable() {
		t.Error("thin history must not be learnable")
	}
	if ins.TopCategories != nil || ins.TopSources != nil || ins.EmergingTopics != nil {
		t.Error("derived fields must stay empty below the gate")
	}
	if ins.TotalInteractions != 4 {
		t.Errorf("TotalInteractions = %d", ins.TotalInteractions)
	}
}

func TestAnalyze_EngagementScenario(t *testing.T) {
	svc := newTestService(newFakeInteractions(), newFakeProfiles())
	seedEngagement(t, svc, "u1")

	ins, err := svc.Analyze(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if ins.LearningConfidence <= 0 || ins.LearningConfidence >= 1 {
		t.Errorf("confidence = %f, want (0,1)", ins.LearningConfidence)
	}
	if len(ins.TopSources) == 0 || ins.TopSources[0].Item != "techcrunch" {
		t.Fatalf("TopSources = %+v", ins.TopSources)
	}
	if ins.TopSources[0].PositiveRatio != 1.0 {
		t.Errorf("techcrunch ratio = %f", ins.TopSources[0].PositiveRatio)
	}
	if len(ins.TopCategories) == 0 || ins.TopCategories[0].Item != "technology" {
		t.Fatalf("TopCategories = %+v", ins.TopCategories)
	}
	if len(ins.DecliningSources) != 1 || ins.DecliningSources[0] != "cnn" {
		t.Errorf("DecliningSources = %v", ins.DecliningSources)
	}
	// "ai" tag and "technology" category both have >= 2 recent positives
	if !containsStr(ins.EmergingTopics, "ai") || !containsStr(ins.EmergingTopics, "technology") {
		t.Errorf("EmergingTopics = %v", ins.EmergingTopics)
	}
}

func TestAnalyze_FreshHideBurstIsNotDeclining(t *testing.T) {
	svc := newTestService(newFakeInteractions(), newFakeProfiles())
	ctx := context.Background()

	// Five older bbc likes, then four back-to-back hides on dailybuzz.
	// dailybuzz has the volume and a 100% negative share, but every hide
	// is in the recent half of the window, so its trend is increasing.
	for i := 0; i < 5; i++ {
		if _, err := svc.Track(ctx, domain.Interaction{
			UserID:    "u1",
			ArticleID: "bbc-" + string(rune('a'+i)),
			Action:    domain.ActionLike,
			CreatedAt: testNow.Add(-time.Duration(10-i) * time.Hour),
			Article:   domain.ArticleMeta{Source: "bbc", Category: "world"},
		}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 4; i++ {
		if _, err := svc.Track(ctx, domain.Interaction{
			UserID:    "u1",
			ArticleID: "db-" + string(rune('a'+i)),
			Action:    domain.ActionHide,
			CreatedAt: testNow.Add(-time.Duration(4-i) * time.Hour),
			Article:   domain.ArticleMeta{Source: "dailybuzz", Category: "celebrity"},
		}); err != nil {
			t.Fatal(err)
		}
	}

	ins, err := svc.Analyze(ctx, "u1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(ins.DecliningSources) != 0 {
		t.Errorf("DecliningSources = %v, a fresh hide burst must not qualify", ins.DecliningSources)
	}
}

func TestAnalyze_HeldTopicsAreNotEmerging(t *testing.T) {
	profs := newFakeProfiles()
	profs.profiles["u1"] = domain.DefaultProfile("u1", testNow).WithTopics("technology")

	svc := newTestService(newFakeInteractions(), profs)
	seedEngagement(t, svc, "u1")

	ins, err := svc.Analyze(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if containsStr(ins.EmergingTopics, "technology") {
		t.Errorf("EmergingTopics = %v, profile already holds technology", ins.EmergingTopics)
	}
	if !containsStr(ins.EmergingTopics, "ai") {
		t.Errorf("EmergingTopics = %v, want ai", ins.EmergingTopics)
	}
}

func TestAnalyze_IsIdempotent(t *testing.T) {
	svc := newTestService(newFakeInteractions(), newFakeProfiles())
	seedEngagement(t, svc, "u1")

	first, err := svc.Analyze(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Analyze(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}

	if first.LearningConfidence != second.LearningConfidence {
		t.Error("confidence changed without new interactions")
	}
	if len(first.TopSources) != len(second.TopSources) {
		t.Fatal("source count changed")
	}
	for i := range first.TopSources {
		if first.TopSources[i] != second.TopSources[i] {
			t.Errorf("source %d changed: %+v vs %+v", i, first.TopSources[i], second.TopSources[i])
		}
	}
}

func TestProposeUpdates_EngagementScenario(t *testing.T) {
	svc := newTestService(newFakeInteractions(), newFakeProfiles())
	seedEngagement(t, svc, "u1")

	changes, err := svc.ProposeUpdates(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ProposeUpdates: %v", err)
	}

	byField := make(map[string]domain.PreferenceChange)
	for _, c := range changes {
		byField[c.Field] = c
	}

	pref, ok := byField["preferred_sources"]
	if !ok {
		t.Fatalf("no preferred_sources proposal in %+v", changes)
	}
	if !containsStr(pref.NewValue, "techcrunch") {
		t.Errorf("preferred NewValue = %v", pref.NewValue)
	}
	if pref.Reason != "positive source interactions" {
		t.Errorf("reason = %q", pref.Reason)
	}

	excl, ok := byField["excluded_sources"]
	if !ok {
		t.Fatalf("no excluded_sources proposal in %+v", changes)
	}
	if !containsStr(excl.NewValue, "cnn") {
		t.Errorf("excluded NewValue = %v", excl.NewValue)
	}

	topics, ok := byField["topics"]
	if !ok {
		t.Fatalf("no topics proposal in %+v", changes)
	}
	if !containsStr(topics.NewValue, "ai") {
		t.Errorf("topics NewValue = %v", topics.NewValue)
	}
	if topics.Confidence <= 0 {
		t.Errorf("confidence = %f", topics.Confidence)
	}
}

func TestProposeUpdates_ThinHistoryProposesNothing(t *testing.T) {
	svc := newTestService(newFakeInteractions(), newFakeProfiles())

	changes, err := svc.ProposeUpdates(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ProposeUpdates: %v", err)
	}
	if changes != nil {
		t.Errorf("expected no proposals, got %+v", changes)
	}
}

func TestProposeUpdates_SkipsAlreadyPreferred(t *testing.T) {
	profs := newFakeProfiles()
	profs.profiles["u1"] = domain.DefaultProfile("u1", testNow).
		WithPreferredSource("techcrunch").
		WithExcludedSource("cnn").
		WithTopics("ai", "technology")

	svc := newTestService(newFakeInteractions(), profs)
	seedEngagement(t, svc, "u1")

	changes, err := svc.ProposeUpdates(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ProposeUpdates: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("profile already matches behavior, got %+v", changes)
	}
}

func TestStats_CountsAndTrend(t *testing.T) {
	svc := newTestService(newFakeInteractions(), newFakeProfiles())
	seedEngagement(t, svc, "u1")

	stats, err := svc.Stats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 9 {
		t.Errorf("Total = %d", stats.Total)
	}
	if stats.ByAction[domain.ActionLike] != 6 || stats.ByAction[domain.ActionHide] != 3 {
		t.Errorf("ByAction = %v", stats.ByAction)
	}
	if stats.RecentCount != 9 {
		t.Errorf("RecentCount = %d, all interactions are within the window", stats.RecentCount)
	}
}

func TestReset_ClearsHistoryOnly(t *testing.T) {
	ints := newFakeInteractions()
	profs := newFakeProfiles()
	profs.profiles["u1"] = domain.DefaultProfile("u1", testNow)
	svc := newTestService(ints, profs)
	seedEngagement(t, svc, "u1")

	if err := svc.Reset(context.Background(), "u1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	stats, err := svc.Stats(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 0 {
		t.Errorf("Total after reset = %d", stats.Total)
	}
	if _, err := profs.Get(context.Background(), "u1"); err != nil {
		t.Error("profile must survive a history reset")
	}
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
