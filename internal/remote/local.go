package remote

import (
	"context"

	"github.com/sprite-ai/trawl/internal/checklist"
	"github.com/sprite-ai/trawl/internal/model"
	"github.com/sprite-ai/trawl/internal/repo"
)

// Local is an in-process authority over a repository root, so a review
// session can run without a server.
type Local struct {
	repo *repo.Repo
	list *checklist.DB
}

// NewLocal binds a repository and checklist into an Authority.
func NewLocal(r *repo.Repo, list *checklist.DB) *Local {
	return &Local{repo: r, list: list}
}

func (l *Local) Search(ctx context.Context, query string, useRegex bool, glob string) ([]model.MatchHit, error) {
	return l.repo.Search(ctx, query, useRegex, glob)
}

func (l *Local) Statuses(ctx context.Context) (map[string]model.StatusRecord, error) {
	return l.list.All()
}

func (l *Local) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (model.StatusRecord, error) {
	return l.list.Patch(id, checklist.Update{Status: upd.Status, Note: upd.Note})
}

func (l *Local) Read(ctx context.Context, id string) (model.Artifact, error) {
	return l.repo.Read(id)
}

func (l *Local) Write(ctx context.Context, id, content, version string) (model.WriteResult, error) {
	return l.repo.Write(id, content, version)
}
