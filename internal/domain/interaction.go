package domain

import "time"

// Action is a recorded user action on an article.
type Action string

const (
	// ActionReadMore records the user expanding an article.
	ActionReadMore Action = "read_more"
	// ActionLike records an explicit like.
	ActionLike Action = "like"
	// ActionHide records the user hiding an article from the feed.
	ActionHide Action = "hide"
	// ActionShare records the user sharing an article.
	ActionShare Action = "share"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionReadMore, ActionLike, ActionHide, ActionShare:
		return true
	}
	return false
}

// Positive reports whether a counts as positive engagement.
func (a Action) Positive() bool {
	return a == ActionReadMore || a == ActionLike || a == ActionShare
}

// Negative reports whether a counts as negative engagement.
func (a Action) Negative() bool {
	return a == ActionHide
}

// ArticleMeta is article metadata joined onto an interaction at query time.
// Every field is optional; absent values stay neutral in learning and scoring.
type ArticleMeta struct {
	Source   string
	Category string
	Tags     []string
}

// Interaction is one row of the append-only interaction log.
// Immutable once written; the log is the only source of truth for learning.
type Interaction struct {
	ID        string
	UserID    string
	ArticleID string
	Action    Action
	CreatedAt time.Time
	Article   ArticleMeta
}

// InteractionStats is the lightweight per-user summary used for display.
// Independent of the full analysis path and not confidence-gated.
type InteractionStats struct {
	UserID      string
	Total       int
	ByAction    map[Action]int
	RecentCount int
	Trend       Trend
}
