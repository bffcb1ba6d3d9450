// Package repo implements the artifact repository: searching, reading and
// writing text files under a root directory with optimistic concurrency.
package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sprite-ai/trawl/internal/model"
)

// Sentinel errors for artifact access.
var (
	ErrNotFound    = errors.New("artifact not found")
	ErrBinary      = errors.New("artifact is binary")
	ErrInvalidPath = errors.New("invalid artifact path")
)

const (
	// maxPreview caps the length of a hit preview.
	maxPreview = 200
	// binaryProbe is how many leading bytes are checked for NUL.
	binaryProbe = 8192
	// scanWorkers bounds concurrent file scans during search.
	scanWorkers = 8
)

// Repo is a file tree treated as a set of reviewable artifacts. Artifact IDs
// are slash-separated paths relative to the root.
type Repo struct {
	root      string
	exclude   map[string]struct{}
	resultCap int
}

// Options tunes search behavior.
type Options struct {
	ExcludeDirs []string // directory names skipped entirely
	ResultCap   int      // max hits per search, 0 = default 2000
}

// New creates a Repo over root. The root must exist.
func New(root string, opts Options) (*Repo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("repo root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repo root %s is not a directory", abs)
	}

	exclude := opts.ExcludeDirs
	if exclude == nil {
		exclude = []string{".git", "node_modules", "target", "dist", ".trawl"}
	}
	ex := make(map[string]struct{}, len(exclude))
	for _, d := range exclude {
		ex[d] = struct{}{}
	}

	rc := opts.ResultCap
	if rc <= 0 {
		rc = 2000
	}

	return &Repo{root: abs, exclude: ex, resultCap: rc}, nil
}

// Root returns the absolute root directory.
func (r *Repo) Root() string { return r.root }

// Search scans the tree for query. Literal matching is case-insensitive; a
// regex that fails to compile falls back to literal matching. A non-empty
// glob keeps only paths ending with the pattern (leading '*' stripped).
// Filename matches are reported at line 1 column 1 ahead of content hits.
func (r *Repo) Search(ctx context.Context, query string, useRegex bool, glob string) ([]model.MatchHit, error) {
	var re *regexp.Regexp
	if useRegex {
		re, _ = regexp.Compile("(?i)" + query)
	}
	queryLower := strings.ToLower(query)
	globSuffix := strings.TrimLeft(glob, "*")

	files, err := r.candidates(globSuffix)
	if err != nil {
		return nil, err
	}

	perFile := make([][]model.MatchHit, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scanWorkers)
	for i, rel := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perFile[i] = r.scanFile(rel, re, queryLower)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var hits []model.MatchHit
	for _, fh := range perFile {
		hits = append(hits, fh...)
		if len(hits) >= r.resultCap {
			hits = hits[:r.resultCap]
			break
		}
	}
	return hits, nil
}

// candidates walks the tree and returns relative paths of searchable files
// in deterministic walk order.
func (r *Repo) candidates(globSuffix string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if _, skip := r.exclude[d.Name()]; skip && path != r.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if globSuffix != "" && !strings.HasSuffix(rel, globSuffix) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *Repo) scanFile(rel string, re *regexp.Regexp, queryLower string) []model.MatchHit {
	var hits []model.MatchHit

	// Filename match first, anchored to the top of the file.
	pathMatched := false
	if re != nil {
		pathMatched = re.MatchString(rel)
	} else {
		pathMatched = strings.Contains(strings.ToLower(rel), queryLower)
	}
	if pathMatched {
		hits = append(hits, model.MatchHit{
			ArtifactID: rel,
			Line:       1,
			Column:     1,
			Preview:    "FILENAME MATCH: " + rel,
		})
	}

	data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(rel)))
	if err != nil || isBinary(data) {
		return hits
	}

	for i, line := range strings.Split(string(data), "\n") {
		var col int
		if re != nil {
			loc := re.FindStringIndex(line)
			if loc == nil {
				continue
			}
			col = loc[0]
		} else {
			idx := strings.Index(strings.ToLower(line), queryLower)
			if idx < 0 {
				continue
			}
			col = idx
		}
		hits = append(hits, model.MatchHit{
			ArtifactID: rel,
			Line:       i + 1,
			Column:     col + 1,
			Preview:    truncate(strings.TrimSpace(line), maxPreview),
		})
		if len(hits) > r.resultCap {
			break
		}
	}
	return hits
}

// Read loads an artifact and computes its version token.
func (r *Repo) Read(rel string) (model.Artifact, error) {
	path, err := r.safePath(rel)
	if err != nil {
		return model.Artifact{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Artifact{}, ErrNotFound
		}
		return model.Artifact{}, err
	}
	if isBinary(data) {
		return model.Artifact{}, ErrBinary
	}
	return model.Artifact{Content: string(data), Version: versionOf(data)}, nil
}

// Write stores content if version still matches the file on disk. A stale
// version yields WriteResult{Accepted: false} rather than an error. The
// write goes through a temp file and rename so a crash never leaves a
// half-written artifact.
func (r *Repo) Write(rel, content, version string) (model.WriteResult, error) {
	path, err := r.safePath(rel)
	if err != nil {
		return model.WriteResult{}, err
	}

	if current, err := os.ReadFile(path); err == nil {
		if versionOf(current) != version {
			return model.WriteResult{Accepted: false}, nil
		}
	} else if !os.IsNotExist(err) {
		return model.WriteResult{}, err
	}

	tmp := path + ".tmp_save"
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		return model.WriteResult{}, fmt.Errorf("writing %s: %w", rel, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return model.WriteResult{}, fmt.Errorf("replacing %s: %w", rel, err)
	}
	return model.WriteResult{Accepted: true, NewVersion: versionOf([]byte(content))}, nil
}

func (r *Repo) safePath(rel string) (string, error) {
	if rel == "" || strings.Contains(rel, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(r.root, filepath.FromSlash(rel)), nil
}

func versionOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func isBinary(data []byte) bool {
	probe := data
	if len(probe) > binaryProbe {
		probe = probe[:binaryProbe]
	}
	for _, b := range probe {
		if b == 0 {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
