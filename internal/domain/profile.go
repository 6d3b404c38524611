package domain

import (
	"sort"
	"strings"
	"time"
)

// Tone is the user's preferred writing style.
type Tone string

const (
	// ToneFormal prefers formal reporting.
	ToneFormal Tone = "formal"
	// ToneCasual prefers conversational coverage.
	ToneCasual Tone = "casual"
	// ToneFun prefers light, entertaining coverage.
	ToneFun Tone = "fun"
)

// Valid reports whether t is a known tone.
func (t Tone) Valid() bool {
	return t == ToneFormal || t == ToneCasual || t == ToneFun
}

// Profile is a user's preference profile. Exactly one per user, created with
// defaults on first access. Values are treated as immutable: every mutation
// returns a new Profile so concurrent readers never observe partial updates.
//
// PreferredSources and ExcludedSources are mutually exclusive per source.
type Profile struct {
	UserID           string
	Topics           []string
	Tone             Tone
	ReadingTimeMin   int
	PreferredSources []string
	ExcludedSources  []string
	LastUpdated      time.Time
}

// DefaultProfile returns the profile created on a user's first access.
func DefaultProfile(userID string, now time.Time) Profile {
	return Profile{
		UserID:         userID,
		Tone:           ToneCasual,
		ReadingTimeMin: 5,
		LastUpdated:    now,
	}
}

// HasTopic reports whether topic is already in the profile (case-insensitive).
func (p Profile) HasTopic(topic string) bool {
	return containsFold(p.Topics, topic)
}

// PrefersSource reports whether source is in PreferredSources (case-insensitive).
func (p Profile) PrefersSource(source string) bool {
	return containsFold(p.PreferredSources, source)
}

// ExcludesSource reports whether source is in ExcludedSources (case-insensitive).
func (p Profile) ExcludesSource(source string) bool {
	return containsFold(p.ExcludedSources, source)
}

// WithTopics returns a copy of p with the given topics added (set union,
// case-insensitive, sorted for deterministic output).
func (p Profile) WithTopics(topics ...string) Profile {
	merged := append([]string(nil), p.Topics...)
	for _, t := range topics {
		if t != "" && !containsFold(merged, t) {
			merged = append(merged, t)
		}
	}
	sort.Strings(merged)
	out := p
	out.Topics = merged
	return out
}

// WithPreferredSource returns a copy of p with source preferred. The source is
// removed from ExcludedSources first: a source is never on both sides.
func (p Profile) WithPreferredSource(source string) Profile {
	out := p
	out.ExcludedSources = removeFold(p.ExcludedSources, source)
	if !containsFold(p.PreferredSources, source) {
		out.PreferredSources = sortedAppend(p.PreferredSources, source)
	}
	return out
}

// WithExcludedSource returns a copy of p with source excluded, removing it
// from PreferredSources.
func (p Profile) WithExcludedSource(source string) Profile {
	out := p
	out.PreferredSources = removeFold(p.PreferredSources, source)
	if !containsFold(p.ExcludedSources, source) {
		out.ExcludedSources = sortedAppend(p.ExcludedSources, source)
	}
	return out
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func removeFold(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if !strings.EqualFold(s, v) {
			out = append(out, s)
		}
	}
	return out
}

func sortedAppend(list []string, v string) []string {
	out := append(append([]string(nil), list...), v)
	sort.Strings(out)
	return out
}
