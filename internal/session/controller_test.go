package session

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/sprite-ai/trawl/internal/model"
	"github.com/sprite-ai/trawl/internal/remote"
	"github.com/sprite-ai/trawl/internal/remote/mocks"
)

// newScriptedAuthority returns a mock whose checklist endpoints behave like
// a real store: UpdateStatus mutates a shared map and Statuses serves it.
func newScriptedAuthority(t *testing.T) (*mocks.MockAuthority, map[string]model.StatusRecord) {
	t.Helper()
	ctrl := gomock.NewController(t)
	auth := mocks.NewMockAuthority(ctrl)
	truth := make(map[string]model.StatusRecord)

	auth.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id string, upd remote.StatusUpdate) (model.StatusRecord, error) {
			rec, ok := truth[id]
			if !ok {
				rec = model.StatusRecord{ArtifactID: id, Status: model.StatusTodo}
			}
			if upd.Status != nil {
				rec.Status = *upd.Status
			}
			if upd.Note != nil {
				rec.Note = *upd.Note
			}
			truth[id] = rec
			return rec, nil
		}).AnyTimes()

	auth.EXPECT().Statuses(gomock.Any()).DoAndReturn(
		func(_ context.Context) (map[string]model.StatusRecord, error) {
			out := make(map[string]model.StatusRecord, len(truth))
			for k, v := range truth {
				out[k] = v
			}
			return out, nil
		}).AnyTimes()

	return auth, truth
}

var testHits = []model.MatchHit{
	{ArtifactID: "a.txt", Line: 3, Column: 1, Preview: "foo"},
	{ArtifactID: "b.txt", Line: 9, Column: 1, Preview: "foo"},
}

func TestSearchBuildsQueue(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	auth.EXPECT().Search(gomock.Any(), "foo", false, "").Return(testHits, nil)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Search(context.Background(), "foo", false); err != nil {
		t.Fatalf("Search: %v", err)
	}

	queue := c.Queue()
	if len(queue) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(queue))
	}
	if queue[0].ArtifactID != "a.txt" || queue[1].ArtifactID != "b.txt" {
		t.Errorf("unexpected queue %+v", queue)
	}
}

func TestSearchTransportFailureLeavesStateUnchanged(t *testing.T) {
	auth, truth := newScriptedAuthority(t)
	truth["kept.txt"] = model.StatusRecord{ArtifactID: "kept.txt", Status: model.StatusDone}
	auth.EXPECT().Search(gomock.Any(), "foo", false, "").Return(nil, errors.New("refused"))

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	before := c.Queue()

	var te *TransportError
	if err := c.Search(context.Background(), "foo", false); !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}

	after := c.Queue()
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("failed search must not touch the queue: %+v vs %+v", before, after)
	}
}

func TestSupersededSearchDiscardsResults(t *testing.T) {
	auth, _ := newScriptedAuthority(t)

	started := make(chan struct{})
	release := make(chan struct{})
	auth.EXPECT().Search(gomock.Any(), "old", false, "").DoAndReturn(
		func(context.Context, string, bool, string) ([]model.MatchHit, error) {
			close(started)
			<-release
			return []model.MatchHit{{ArtifactID: "stale.txt", Line: 1, Column: 1, Preview: "old"}}, nil
		})
	auth.EXPECT().Search(gomock.Any(), "new", false, "").Return(testHits, nil)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.Search(context.Background(), "old", false) }()
	<-started

	// The second search commits while the first request is still in flight.
	if err := c.Search(context.Background(), "new", false); err != nil {
		t.Fatalf("Search: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("superseded search: %v", err)
	}

	if query, _ := c.Query(); query != "new" {
		t.Fatalf("query = %q, want %q", query, "new")
	}
	queue := c.Queue()
	if len(queue) != 2 || queue[0].ArtifactID != "a.txt" || queue[1].ArtifactID != "b.txt" {
		t.Errorf("stale results overwrote the newer search: %+v", queue)
	}
}

func TestEmptySearchFallsBackToChecklist(t *testing.T) {
	auth, truth := newScriptedAuthority(t)
	truth["old.txt"] = model.StatusRecord{ArtifactID: "old.txt", Status: model.StatusInProgress}

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// Clearing the query (empty string) must not produce an empty queue.
	if err := c.Search(context.Background(), "", false); err != nil {
		t.Fatalf("Search: %v", err)
	}

	queue := c.Queue()
	if len(queue) != 1 || queue[0].ArtifactID != "old.txt" || queue[0].MatchCount != 0 {
		t.Errorf("expected checklist fallback entry, got %+v", queue)
	}
}

func TestOpenMarksInProgress(t *testing.T) {
	auth, truth := newScriptedAuthority(t)
	auth.EXPECT().Read(gomock.Any(), "a.txt").Return(model.Artifact{Content: "foo\n", Version: "v1"}, nil)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Open(context.Background(), "a.txt", false); err != nil {
		t.Fatalf("Open: %v", err)
	}

	doc := c.Current()
	if doc == nil || doc.ID() != "a.txt" || doc.Dirty() {
		t.Fatalf("expected clean open document, got %+v", doc)
	}
	if doc.Version() != "v1" {
		t.Errorf("expected version v1, got %q", doc.Version())
	}
	if truth["a.txt"].Status != model.StatusInProgress {
		t.Errorf("opening a todo artifact should mark it in_progress, got %v", truth["a.txt"].Status)
	}
}

func TestOpenDoesNotDemoteDone(t *testing.T) {
	auth, truth := newScriptedAuthority(t)
	truth["a.txt"] = model.StatusRecord{ArtifactID: "a.txt", Status: model.StatusDone}
	auth.EXPECT().Read(gomock.Any(), "a.txt").Return(model.Artifact{Content: "x", Version: "v1"}, nil)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Open(context.Background(), "a.txt", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if truth["a.txt"].Status != model.StatusDone {
		t.Errorf("opening must only promote todo, got %v", truth["a.txt"].Status)
	}
}

func TestOpenGuardsDirtyDocument(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	auth.EXPECT().Read(gomock.Any(), "a.txt").Return(model.Artifact{Content: "one", Version: "v1"}, nil)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Open(context.Background(), "a.txt", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Edit("changed"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	// Declined discard: no Read for b.txt may happen, session stays put.
	if err := c.Open(context.Background(), "b.txt", false); err != ErrUnsavedChanges {
		t.Fatalf("expected ErrUnsavedChanges, got %v", err)
	}
	if doc := c.Current(); doc.ID() != "a.txt" || doc.Content() != "changed" || !doc.Dirty() {
		t.Errorf("declined open must retain the session unchanged, got %+v", doc)
	}

	// Confirmed discard proceeds.
	auth.EXPECT().Read(gomock.Any(), "b.txt").Return(model.Artifact{Content: "two", Version: "v9"}, nil)
	if err := c.Open(context.Background(), "b.txt", true); err != nil {
		t.Fatalf("forced Open: %v", err)
	}
	if doc := c.Current(); doc.ID() != "b.txt" || doc.Dirty() {
		t.Errorf("expected clean b.txt session, got %+v", doc)
	}
}

func TestSaveSuccess(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	auth.EXPECT().Read(gomock.Any(), "a.txt").Return(model.Artifact{Content: "foo\n", Version: "v1"}, nil)
	auth.EXPECT().Write(gomock.Any(), "a.txt", "foo bar\n", "v1").
		Return(model.WriteResult{Accepted: true, NewVersion: "v2"}, nil)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Open(context.Background(), "a.txt", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Edit("foo bar\n"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	doc := c.Current()
	if doc.Dirty() {
		t.Error("successful save should clear dirty")
	}
	if doc.Version() != "v2" {
		t.Errorf("expected new version v2, got %q", doc.Version())
	}
}

func TestSaveConflictKeepsEdits(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	auth.EXPECT().Read(gomock.Any(), "a.txt").Return(model.Artifact{Content: "foo\n", Version: "v1"}, nil)
	auth.EXPECT().Write(gomock.Any(), "a.txt", "mine\n", "v1").
		Return(model.WriteResult{Accepted: false}, nil)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Open(context.Background(), "a.txt", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Edit("mine\n"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	if err := c.Save(context.Background()); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	doc := c.Current()
	if !doc.Dirty() {
		t.Error("conflict must leave dirty set")
	}
	if doc.Content() != "mine\n" {
		t.Error("conflict must not discard edits")
	}
	if doc.Version() != "v1" {
		t.Error("conflict must not touch the version token")
	}
}

func TestSaveTransportFailure(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	auth.EXPECT().Read(gomock.Any(), "a.txt").Return(model.Artifact{Content: "foo\n", Version: "v1"}, nil)
	auth.EXPECT().Write(gomock.Any(), "a.txt", "mine\n", "v1").
		Return(model.WriteResult{}, errors.New("refused"))

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Open(context.Background(), "a.txt", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Edit("mine\n"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	var te *TransportError
	if err := c.Save(context.Background()); !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if doc := c.Current(); !doc.Dirty() || doc.Content() != "mine\n" {
		t.Error("failed save must leave the session unchanged")
	}
}

func TestSaveRefreshesHitsWhenQueryActive(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	first := auth.EXPECT().Search(gomock.Any(), "foo", false, "").Return(testHits, nil)
	auth.EXPECT().Read(gomock.Any(), "a.txt").Return(model.Artifact{Content: "foo\n", Version: "v1"}, nil)
	auth.EXPECT().Write(gomock.Any(), "a.txt", "nothing here\n", "v1").
		Return(model.WriteResult{Accepted: true, NewVersion: "v2"}, nil)
	// Saved content removed the match in a.txt; the refreshed search reflects it.
	auth.EXPECT().Search(gomock.Any(), "foo", false, "").
		Return(testHits[1:], nil).After(first)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Search(context.Background(), "foo", false); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if err := c.Open(context.Background(), "a.txt", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Edit("nothing here\n"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	queue := c.Queue()
	if len(queue) != 1 || queue[0].ArtifactID != "b.txt" {
		t.Errorf("queue should reflect refreshed hits, got %+v", queue)
	}
}

func TestSaveAndAdvanceScenario(t *testing.T) {
	auth, truth := newScriptedAuthority(t)
	auth.EXPECT().Search(gomock.Any(), "foo", false, "").Return(testHits, nil).AnyTimes()
	auth.EXPECT().Read(gomock.Any(), "a.txt").Return(model.Artifact{Content: "foo\n", Version: "v1"}, nil)
	auth.EXPECT().Write(gomock.Any(), "a.txt", "foo edited\n", "v1").
		Return(model.WriteResult{Accepted: true, NewVersion: "v2"}, nil)
	auth.EXPECT().Read(gomock.Any(), "b.txt").Return(model.Artifact{Content: "foo too\n", Version: "w1"}, nil)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Search(context.Background(), "foo", false); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if err := c.Open(context.Background(), "a.txt", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Edit("foo edited\n"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	res, err := c.SaveAndAdvance(context.Background())
	if err != nil {
		t.Fatalf("SaveAndAdvance: %v", err)
	}
	if !res.Advanced || res.Target != "b.txt" {
		t.Errorf("expected advance to b.txt, got %+v", res)
	}
	if doc := c.Current(); doc.ID() != "b.txt" {
		t.Errorf("expected b.txt open, got %+v", doc)
	}
	// Advancing started review of b, and did not auto-complete a.
	if truth["a.txt"].Status != model.StatusInProgress {
		t.Errorf("a.txt should stay in_progress, got %v", truth["a.txt"].Status)
	}
	if truth["b.txt"].Status != model.StatusInProgress {
		t.Errorf("b.txt should become in_progress, got %v", truth["b.txt"].Status)
	}
}

func TestSaveAndAdvanceEndOfQueue(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	auth.EXPECT().Search(gomock.Any(), "foo", false, "").Return(testHits[:1], nil)
	auth.EXPECT().Read(gomock.Any(), "a.txt").Return(model.Artifact{Content: "foo\n", Version: "v1"}, nil)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Search(context.Background(), "foo", false); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if err := c.Open(context.Background(), "a.txt", false); err != nil {
		t.Fatalf("Open: %v", err)
	}

	res, err := c.SaveAndAdvance(context.Background())
	if err != nil {
		t.Fatalf("SaveAndAdvance: %v", err)
	}
	if res.Advanced || res.Reason != ReasonEndOfQueue {
		t.Errorf("expected end-of-queue, got %+v", res)
	}
	// The session itself is untouched.
	if doc := c.Current(); doc == nil || doc.ID() != "a.txt" || doc.Dirty() {
		t.Errorf("end-of-queue must not mutate the session, got %+v", doc)
	}
}

func TestSaveAndAdvanceAbortsOnConflict(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	auth.EXPECT().Search(gomock.Any(), "foo", false, "").Return(testHits, nil)
	auth.EXPECT().Read(gomock.Any(), "a.txt").Return(model.Artifact{Content: "foo\n", Version: "v1"}, nil)
	auth.EXPECT().Write(gomock.Any(), "a.txt", "mine\n", "v1").
		Return(model.WriteResult{Accepted: false}, nil)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Search(context.Background(), "foo", false); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if err := c.Open(context.Background(), "a.txt", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Edit("mine\n"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	res, err := c.SaveAndAdvance(context.Background())
	if err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if res.Advanced {
		t.Error("conflicted save must not advance")
	}
	if doc := c.Current(); doc.ID() != "a.txt" || !doc.Dirty() {
		t.Error("conflicted advance must keep the dirty session")
	}
}

func TestSaveAndAdvanceTargetComputedBeforeSave(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	first := auth.EXPECT().Search(gomock.Any(), "foo", false, "").Return(testHits, nil)
	auth.EXPECT().Read(gomock.Any(), "a.txt").Return(model.Artifact{Content: "foo\n", Version: "v1"}, nil)
	auth.EXPECT().Write(gomock.Any(), "a.txt", "no match left\n", "v1").
		Return(model.WriteResult{Accepted: true, NewVersion: "v2"}, nil)
	// After the save the refreshed hit set drops a.txt entirely. The advance
	// must still land on b.txt, the successor computed before saving.
	auth.EXPECT().Search(gomock.Any(), "foo", false, "").
		Return(testHits[1:], nil).After(first)
	auth.EXPECT().Read(gomock.Any(), "b.txt").Return(model.Artifact{Content: "foo too\n", Version: "w1"}, nil)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Search(context.Background(), "foo", false); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if err := c.Open(context.Background(), "a.txt", false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Edit("no match left\n"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	res, err := c.SaveAndAdvance(context.Background())
	if err != nil {
		t.Fatalf("SaveAndAdvance: %v", err)
	}
	if !res.Advanced || res.Target != "b.txt" {
		t.Errorf("expected advance to precomputed target b.txt, got %+v", res)
	}
}

func TestSaveAndAdvanceNoDocument(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	c := NewController(auth)
	if _, err := c.SaveAndAdvance(context.Background()); err != ErrNoDocument {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}
}

func TestMarkStatusOptimisticQueueUpdate(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	auth.EXPECT().Search(gomock.Any(), "foo", false, "").Return(testHits, nil)

	c := NewController(auth)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Search(context.Background(), "foo", false); err != nil {
		t.Fatalf("Search: %v", err)
	}

	rec, reconcile := c.MarkStatus("a.txt", model.StatusDone)
	if rec.Status != model.StatusDone {
		t.Errorf("expected optimistic done, got %v", rec.Status)
	}
	// Visible in the queue before the reconcile runs.
	if q := c.Queue(); q[0].Status != model.StatusDone {
		t.Errorf("queue should mirror optimistic status, got %+v", q[0])
	}
	if err := reconcile(context.Background()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if q := c.Queue(); q[0].Status != model.StatusDone {
		t.Errorf("queue should keep done after reconcile, got %+v", q[0])
	}
}

func TestEditWithoutDocument(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	c := NewController(auth)
	if err := c.Edit("x"); err != ErrNoDocument {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}
}

func TestNoticesDrain(t *testing.T) {
	auth, _ := newScriptedAuthority(t)
	c := NewController(auth)
	c.notice("first")
	c.notice("second")

	got := c.Notices()
	if len(got) != 2 || got[0] != "first" {
		t.Errorf("unexpected notices %v", got)
	}
	if len(c.Notices()) != 0 {
		t.Error("Notices should drain")
	}
}
