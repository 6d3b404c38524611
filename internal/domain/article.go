package domain

import "time"

// Article is an incoming news article before chunking and embedding.
type Article struct {
	ID          string
	Title       string
	Content     string
	Source      string
	Category    string
	Tags        []string
	PublishedAt time.Time
}
