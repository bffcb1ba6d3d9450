package session

import (
	"testing"

	"github.com/sprite-ai/trawl/internal/model"
)

func hit(id string, line int) model.MatchHit {
	return model.MatchHit{ArtifactID: id, Line: line, Column: 1, Preview: "…"}
}

func TestAggregateDeduplicates(t *testing.T) {
	hits := []model.MatchHit{
		hit("b.txt", 7),
		hit("a.txt", 3),
		hit("b.txt", 12),
		hit("b.txt", 40),
	}

	entries := Aggregate(hits, nil, true)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// First-occurrence order, not name order.
	if entries[0].ArtifactID != "b.txt" || entries[1].ArtifactID != "a.txt" {
		t.Errorf("wrong order: %+v", entries)
	}
	if entries[0].MatchCount != 3 {
		t.Errorf("b.txt should count every hit, got %d", entries[0].MatchCount)
	}
	if entries[0].FirstMatchLine != 7 {
		t.Errorf("b.txt first match should be line 7, got %d", entries[0].FirstMatchLine)
	}
	if entries[1].Status != model.StatusTodo {
		t.Errorf("unknown artifact should default to todo, got %v", entries[1].Status)
	}
}

func TestAggregateUniqueIDs(t *testing.T) {
	hits := []model.MatchHit{
		hit("a", 1), hit("b", 2), hit("a", 3), hit("c", 4), hit("b", 5), hit("a", 6),
	}
	entries := Aggregate(hits, nil, true)

	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.ArtifactID] {
			t.Fatalf("duplicate entry for %s", e.ArtifactID)
		}
		seen[e.ArtifactID] = true
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 distinct entries, got %d", len(entries))
	}
}

func TestAggregateMirrorsStatus(t *testing.T) {
	statuses := map[string]model.StatusRecord{
		"a.txt": {ArtifactID: "a.txt", Status: model.StatusDone},
	}
	entries := Aggregate([]model.MatchHit{hit("a.txt", 1)}, statuses, true)
	if entries[0].Status != model.StatusDone {
		t.Errorf("entry should mirror store status, got %v", entries[0].Status)
	}
}

func TestAggregateFallbackFromStatuses(t *testing.T) {
	statuses := map[string]model.StatusRecord{
		"z.txt": {ArtifactID: "z.txt", Status: model.StatusDone},
		"a.txt": {ArtifactID: "a.txt", Status: model.StatusInProgress},
	}

	entries := Aggregate(nil, statuses, false)
	if len(entries) != 2 {
		t.Fatalf("expected 2 fallback entries, got %d", len(entries))
	}
	if entries[0].ArtifactID != "a.txt" || entries[1].ArtifactID != "z.txt" {
		t.Errorf("fallback should be in lexicographic order: %+v", entries)
	}
	for _, e := range entries {
		if e.MatchCount != 0 || e.FirstMatchLine != 1 {
			t.Errorf("fallback entry should be zero-count at line 1: %+v", e)
		}
	}
	if entries[0].Status != model.StatusInProgress || entries[1].Status != model.StatusDone {
		t.Errorf("fallback statuses wrong: %+v", entries)
	}
}

func TestAggregateNoFallbackWhileQueryActive(t *testing.T) {
	statuses := map[string]model.StatusRecord{
		"a.txt": {ArtifactID: "a.txt", Status: model.StatusDone},
	}
	// An active query with zero hits is an empty queue, not the fallback.
	if entries := Aggregate(nil, statuses, true); len(entries) != 0 {
		t.Errorf("expected empty queue, got %+v", entries)
	}
}

func TestNextAfter(t *testing.T) {
	queue := []model.QueueEntry{
		{ArtifactID: "a"}, {ArtifactID: "b"}, {ArtifactID: "c"},
	}

	next, ok := NextAfter(queue, "a")
	if !ok || next.ArtifactID != "b" {
		t.Errorf("expected b after a, got %+v ok=%v", next, ok)
	}
	if _, ok := NextAfter(queue, "c"); ok {
		t.Error("last entry should have no successor")
	}
	if _, ok := NextAfter(queue, "missing"); ok {
		t.Error("unknown entry should have no successor")
	}
	if _, ok := NextAfter(nil, "a"); ok {
		t.Error("empty queue should have no successor")
	}
}
