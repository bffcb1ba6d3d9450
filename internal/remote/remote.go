// Package remote defines the authority the review session talks to: the
// search, checklist and artifact capabilities, plus local and HTTP
// implementations of it.
package remote

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_authority.go -package=mocks github.com/sprite-ai/trawl/internal/remote Authority

import (
	"context"

	"github.com/sprite-ai/trawl/internal/model"
)

// StatusUpdate is a partial checklist mutation; nil fields are untouched.
type StatusUpdate struct {
	Status *model.ReviewStatus
	Note   *string
}

// Authority is the narrow interface the session core consumes. Errors
// returned from any method indicate transport or authority failure; a save
// declined for a stale version is reported in WriteResult, not as an error.
type Authority interface {
	// Search returns match hits for query over the authority's tree.
	Search(ctx context.Context, query string, useRegex bool, glob string) ([]model.MatchHit, error)

	// Statuses returns the full checklist mapping.
	Statuses(ctx context.Context) (map[string]model.StatusRecord, error)

	// UpdateStatus applies a partial checklist mutation and returns the
	// resulting record.
	UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (model.StatusRecord, error)

	// Read loads an artifact with its version token.
	Read(ctx context.Context, id string) (model.Artifact, error)

	// Write stores an artifact if version still matches the authority's copy.
	Write(ctx context.Context, id, content, version string) (model.WriteResult, error)
}
