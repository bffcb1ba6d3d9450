// Package model defines the core data types shared across trawl.
package model

import "time"

// ReviewStatus is the triage state of an artifact.
type ReviewStatus int

const (
	StatusTodo ReviewStatus = iota
	StatusInProgress
	StatusDone
)

func (s ReviewStatus) String() string {
	switch s {
	case StatusTodo:
		return "todo"
	case StatusInProgress:
		return "in_progress"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}

// ParseStatus converts a wire string into a ReviewStatus. Unknown values
// map to StatusTodo, matching the authority's default for untouched items.
func ParseStatus(s string) ReviewStatus {
	switch s {
	case "in_progress":
		return StatusInProgress
	case "done":
		return StatusDone
	default:
		return StatusTodo
	}
}

// StatusRecord is the persisted triage state of one artifact. Absence of a
// record means StatusTodo.
type StatusRecord struct {
	ArtifactID string
	Status     ReviewStatus
	Note       string
	UpdatedAt  time.Time
}

// MatchHit is a single search result location, as reported by the authority.
type MatchHit struct {
	ArtifactID string
	Line       int // 1-based
	Column     int // 1-based
	Preview    string
}

// QueueEntry is one artifact in the derived review queue. Entries are
// deduplicated per artifact; MatchCount counts every hit.
type QueueEntry struct {
	ArtifactID     string
	MatchCount     int
	FirstMatchLine int
	Status         ReviewStatus
}

// Range is a span of text to decorate, addressed by line and column.
type Range struct {
	Line     int // 1-based
	StartCol int // 1-based
	EndCol   int // exclusive
}

// Artifact is a loaded document plus its optimistic-concurrency credential.
type Artifact struct {
	Content string
	Version string
}

// WriteResult reports the outcome of a versioned write. A declined write
// (version mismatch) is data, not an error.
type WriteResult struct {
	Accepted   bool
	NewVersion string
}
