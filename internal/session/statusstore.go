package session

import (
	"context"
	"sync"
	"time"

	"github.com/sprite-ai/trawl/internal/model"
	"github.com/sprite-ai/trawl/internal/remote"
)

// StatusStore holds the local view of the authority's checklist. Mutations
// are optimistic: Set updates the local mapping immediately and hands back a
// reconcile task that pushes the write to the authority and then replaces
// the whole mapping with ground truth. A failed remote write leaves the
// optimistic value in place; the next refresh reconciles it.
type StatusStore struct {
	authority remote.Authority

	mu      sync.Mutex
	records map[string]model.StatusRecord
}

// ReconcileFunc completes an optimistic mutation against the authority.
type ReconcileFunc func(ctx context.Context) error

// NewStatusStore creates an empty store bound to an authority.
func NewStatusStore(a remote.Authority) *StatusStore {
	return &StatusStore{
		authority: a,
		records:   make(map[string]model.StatusRecord),
	}
}

// Refresh replaces the local mapping with the authority's.
func (s *StatusStore) Refresh(ctx context.Context) error {
	records, err := s.authority.Statuses(ctx)
	if err != nil {
		return &TransportError{Op: "refresh statuses", Err: err}
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

// All returns a copy of the local mapping.
func (s *StatusStore) All() map[string]model.StatusRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]model.StatusRecord, len(s.records))
	for id, rec := range s.records {
		out[id] = rec
	}
	return out
}

// Get returns the record for id, or the implicit todo record if absent.
func (s *StatusStore) Get(id string) model.StatusRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[id]; ok {
		return rec
	}
	return model.StatusRecord{ArtifactID: id, Status: model.StatusTodo}
}

// Set applies upd locally, preserving fields the update leaves nil, and
// returns the optimistic record plus the reconcile task. The caller decides
// when and where the reconcile runs; until it completes the local value is
// a guess.
func (s *StatusStore) Set(id string, upd remote.StatusUpdate) (model.StatusRecord, ReconcileFunc) {
	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		rec = model.StatusRecord{ArtifactID: id, Status: model.StatusTodo}
	}
	if upd.Status != nil {
		rec.Status = *upd.Status
	}
	if upd.Note != nil {
		rec.Note = *upd.Note
	}
	rec.UpdatedAt = time.Now()
	s.records[id] = rec
	s.mu.Unlock()

	reconcile := func(ctx context.Context) error {
		if _, err := s.authority.UpdateStatus(ctx, id, upd); err != nil {
			// Keep the optimistic value; status is advisory metadata.
			return &TransportError{Op: "update status", Err: err}
		}
		return s.Refresh(ctx)
	}
	return rec, reconcile
}
