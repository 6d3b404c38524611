package domain

import "time"

// PreferenceChange describes one proposed field mutation on a profile.
// The learner only proposes; committing a change belongs to the caller.
type PreferenceChange struct {
	Field      string
	OldValue   []string
	NewValue   []string
	Reason     string
	Confidence float64
}

// Insights is the ephemeral result of analyzing a user's interaction history.
// Recomputed on demand; never the system of record.
type Insights struct {
	UserID            string
	TotalInteractions int
	// LearningConfidence is in [0,1]. Zero means the history is too thin to
	// learn from; all derived fields below are then empty.
	LearningConfidence float64
	TopCategories      []Affinity
	TopSources         []Affinity
	EmergingTopics     []string
	DecliningSources   []string
	LastAnalyzed       time.Time
}

// Learnable reports whether the insights carry enough evidence to propose
// preference changes.
func (i Insights) Learnable() bool {
	return i.LearningConfidence > 0
}
