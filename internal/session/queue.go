package session

import (
	"sort"

	"github.com/sprite-ai/trawl/internal/model"
)

// Aggregate derives the review queue from raw search hits and the status
// mapping: one entry per distinct artifact, in first-occurrence order, with
// MatchCount counting every hit. When there are no hits and no query is
// active, the queue instead lists every artifact present in the status
// mapping (zero matches, first line 1) so previously triaged work stays
// visible; the authority keys its checklist lexicographically, so that is
// the fallback order here.
func Aggregate(hits []model.MatchHit, statuses map[string]model.StatusRecord, queryActive bool) []model.QueueEntry {
	if len(hits) == 0 && !queryActive {
		ids := make([]string, 0, len(statuses))
		for id := range statuses {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		entries := make([]model.QueueEntry, 0, len(ids))
		for _, id := range ids {
			entries = append(entries, model.QueueEntry{
				ArtifactID:     id,
				MatchCount:     0,
				FirstMatchLine: 1,
				Status:         statuses[id].Status,
			})
		}
		return entries
	}

	var entries []model.QueueEntry
	index := make(map[string]int, len(hits))
	for _, h := range hits {
		if i, seen := index[h.ArtifactID]; seen {
			entries[i].MatchCount++
			continue
		}
		status := model.StatusTodo
		if rec, ok := statuses[h.ArtifactID]; ok {
			status = rec.Status
		}
		index[h.ArtifactID] = len(entries)
		entries = append(entries, model.QueueEntry{
			ArtifactID:     h.ArtifactID,
			MatchCount:     1,
			FirstMatchLine: h.Line,
			Status:         status,
		})
	}
	return entries
}

// NextAfter returns the queue entry immediately following currentID. The
// second return is false when currentID is last or not in the queue.
func NextAfter(queue []model.QueueEntry, currentID string) (model.QueueEntry, bool) {
	for i, e := range queue {
		if e.ArtifactID == currentID {
			if i+1 < len(queue) {
				return queue[i+1], true
			}
			return model.QueueEntry{}, false
		}
	}
	return model.QueueEntry{}, false
}
