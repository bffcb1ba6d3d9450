// Package session implements the review session core: the status store, the
// derived work queue, the single open document with optimistic-concurrency
// save, and sequential navigation over the queue.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sprite-ai/trawl/internal/model"
	"github.com/sprite-ai/trawl/internal/remote"
)

// Controller owns one review session. At most one document is open at a
// time; opening another replaces it, guarded against silent loss of edits.
// All remote work goes through the bound Authority. Methods are safe for
// use from concurrent command goroutines; when two searches race, only the
// most recently issued one may commit its results.
type Controller struct {
	authority remote.Authority
	statuses  *StatusStore

	mu          sync.Mutex
	searchSeq   uint64
	query       string
	queryRegex  bool
	queryActive bool
	hits        []model.MatchHit
	queue       []model.QueueEntry
	doc         *Document
	notices     []string
}

// NewController creates a session against the given authority.
func NewController(a remote.Authority) *Controller {
	return &Controller{
		authority: a,
		statuses:  NewStatusStore(a),
	}
}

// Init loads the checklist and builds the initial (fallback) queue.
func (c *Controller) Init(ctx context.Context) error {
	if err := c.statuses.Refresh(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.rebuildQueueLocked()
	c.mu.Unlock()
	return nil
}

// Search runs a query against the authority and replaces the hit sequence
// and queue. An empty query deactivates search, falling back to the
// checklist-derived queue. On transport failure no state changes. A search
// superseded by a newer one while its request was in flight is discarded
// on return; it never overwrites the newer search's results.
func (c *Controller) Search(ctx context.Context, query string, isRegex bool) error {
	c.mu.Lock()
	c.searchSeq++
	seq := c.searchSeq
	c.mu.Unlock()

	var hits []model.MatchHit
	if query != "" {
		var err error
		hits, err = c.authority.Search(ctx, query, isRegex, "")
		if err != nil {
			return &TransportError{Op: "search", Err: err}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.searchSeq {
		return nil
	}
	c.query = query
	c.queryRegex = isRegex
	c.queryActive = query != ""
	c.hits = hits
	c.rebuildQueueLocked()
	return nil
}

// Query returns the active search expression and whether it is a regex.
func (c *Controller) Query() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query, c.queryRegex
}

// Queue returns a snapshot of the current work queue.
func (c *Controller) Queue() []model.QueueEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.QueueEntry, len(c.queue))
	copy(out, c.queue)
	return out
}

// Current returns a snapshot of the open document, or nil.
func (c *Controller) Current() *Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return nil
	}
	d := *c.doc
	return &d
}

// Status returns the triage record for an artifact.
func (c *Controller) Status(id string) model.StatusRecord {
	return c.statuses.Get(id)
}

// Open loads an artifact into a fresh document session. If the current
// document is dirty the caller must pass discardDirty=true to confirm the
// discard; otherwise Open fails with ErrUnsavedChanges and the existing
// session is untouched. Opening a todo artifact marks it in_progress.
func (c *Controller) Open(ctx context.Context, id string, discardDirty bool) error {
	c.mu.Lock()
	if c.doc != nil && c.doc.dirty && !discardDirty {
		c.mu.Unlock()
		return ErrUnsavedChanges
	}
	c.mu.Unlock()

	art, err := c.authority.Read(ctx, id)
	if err != nil {
		return &TransportError{Op: "open " + id, Err: err}
	}

	c.mu.Lock()
	c.doc = &Document{id: id, content: art.Content, version: art.Version}
	c.mu.Unlock()

	// Review has started on this artifact.
	if c.statuses.Get(id).Status == model.StatusTodo {
		status := model.StatusInProgress
		_, reconcile := c.statuses.Set(id, remote.StatusUpdate{Status: &status})
		if err := reconcile(ctx); err != nil {
			c.notice("status sync failed for %s; will retry on next refresh", id)
		}
	}

	c.mu.Lock()
	c.rebuildQueueLocked()
	c.mu.Unlock()
	return nil
}

// Edit replaces the open document's buffer and marks it dirty.
func (c *Controller) Edit(content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return ErrNoDocument
	}
	if content == c.doc.content {
		return nil
	}
	c.doc.content = content
	c.doc.dirty = true
	return nil
}

// Save pushes the open document's buffer to the authority under its version
// token. On conflict or transport failure the buffer, token and dirty flag
// are all left untouched; edits are never discarded by a failed save. On
// success the token is replaced, the dirty flag cleared, and, if a query
// is active, the hit sequence refreshed, since the saved content may have
// moved or removed matches.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return ErrNoDocument
	}
	id, content, version := c.doc.id, c.doc.content, c.doc.version
	c.mu.Unlock()

	res, err := c.authority.Write(ctx, id, content, version)
	if err != nil {
		return &TransportError{Op: "save " + id, Err: err}
	}
	if !res.Accepted {
		return ErrConflict
	}

	c.mu.Lock()
	if c.doc != nil && c.doc.id == id {
		c.doc.version = res.NewVersion
		c.doc.dirty = false
	}
	query, isRegex, active := c.query, c.queryRegex, c.queryActive
	c.mu.Unlock()

	if active {
		if err := c.Search(ctx, query, isRegex); err != nil {
			// Stale hits are tolerable; the save itself succeeded.
			c.notice("match refresh failed after saving %s", id)
		}
	}
	return nil
}

// AdvanceResult reports the outcome of SaveAndAdvance.
type AdvanceResult struct {
	Advanced bool
	Target   string
	Reason   string
}

// ReasonEndOfQueue is the AdvanceResult reason when no next entry exists.
const ReasonEndOfQueue = "end-of-queue"

// SaveAndAdvance saves the open document if dirty, then opens the next
// artifact in queue order. The destination is computed before the save so
// that a save which reshuffles the queue cannot redirect the advance. Any
// save failure aborts the advance: the session never navigates away from
// unpersisted content.
func (c *Controller) SaveAndAdvance(ctx context.Context) (AdvanceResult, error) {
	c.mu.Lock()
	if c.doc == nil {
		c.mu.Unlock()
		return AdvanceResult{}, ErrNoDocument
	}
	currentID := c.doc.id
	dirty := c.doc.dirty
	target, ok := NextAfter(c.queue, currentID)
	c.mu.Unlock()

	if dirty {
		if err := c.Save(ctx); err != nil {
			return AdvanceResult{Reason: "save failed"}, err
		}
	}

	if !ok {
		return AdvanceResult{Reason: ReasonEndOfQueue}, nil
	}

	if err := c.Open(ctx, target.ArtifactID, false); err != nil {
		return AdvanceResult{Reason: "open failed"}, err
	}
	return AdvanceResult{Advanced: true, Target: target.ArtifactID}, nil
}

// MarkStatus optimistically sets an artifact's triage status and returns
// the guessed record plus the reconcile task for the remote write. The
// queue snapshot reflects the guess immediately.
func (c *Controller) MarkStatus(id string, status model.ReviewStatus) (model.StatusRecord, ReconcileFunc) {
	return c.update(id, remote.StatusUpdate{Status: &status})
}

// SetNote optimistically sets an artifact's review note.
func (c *Controller) SetNote(id, note string) (model.StatusRecord, ReconcileFunc) {
	return c.update(id, remote.StatusUpdate{Note: &note})
}

func (c *Controller) update(id string, upd remote.StatusUpdate) (model.StatusRecord, ReconcileFunc) {
	rec, reconcile := c.statuses.Set(id, upd)
	c.mu.Lock()
	c.rebuildQueueLocked()
	c.mu.Unlock()

	return rec, func(ctx context.Context) error {
		err := reconcile(ctx)
		c.mu.Lock()
		c.rebuildQueueLocked()
		c.mu.Unlock()
		return err
	}
}

// Highlights projects the active query onto the open document's buffer.
// With no document or no active query it returns nothing.
func (c *Controller) Highlights() ([]model.Range, error) {
	c.mu.Lock()
	if c.doc == nil || !c.queryActive {
		c.mu.Unlock()
		return nil, nil
	}
	content, query, isRegex := c.doc.content, c.query, c.queryRegex
	c.mu.Unlock()

	return Locate(content, query, isRegex)
}

// Notices drains accumulated transient user-facing messages.
func (c *Controller) Notices() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

func (c *Controller) notice(format string, args ...any) {
	c.mu.Lock()
	c.notices = append(c.notices, fmt.Sprintf(format, args...))
	c.mu.Unlock()
}

// rebuildQueueLocked recomputes the queue from the current hit sequence and
// status mapping. Caller holds c.mu.
func (c *Controller) rebuildQueueLocked() {
	c.queue = Aggregate(c.hits, c.statuses.All(), c.queryActive)
}
