package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sprite-ai/trawl/internal/model"
)

// Client is an Authority backed by a trawl serve instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Wire shapes shared with internal/api.

type hitJSON struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Preview string `json:"preview"`
}

type recordJSON struct {
	Status    string `json:"status"`
	Note      string `json:"note"`
	UpdatedTS int64  `json:"updated_ts"`
}

type fileJSON struct {
	Content string `json:"content"`
	Version string `json:"version"`
}

type saveRequestJSON struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Version string `json:"version"`
}

type saveResponseJSON struct {
	Status     string `json:"status"`
	NewVersion string `json:"new_version,omitempty"`
	Message    string `json:"message,omitempty"`
}

type patchRequestJSON struct {
	Path   string  `json:"path"`
	Status *string `json:"status,omitempty"`
	Note   *string `json:"note,omitempty"`
}

func (c *Client) Search(ctx context.Context, query string, useRegex bool, glob string) ([]model.MatchHit, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("regex", strconv.FormatBool(useRegex))
	if glob != "" {
		q.Set("glob", glob)
	}

	var raw []hitJSON
	if err := c.get(ctx, "/api/search?"+q.Encode(), &raw); err != nil {
		return nil, err
	}

	hits := make([]model.MatchHit, 0, len(raw))
	for _, h := range raw {
		hits = append(hits, model.MatchHit{
			ArtifactID: h.File,
			Line:       h.Line,
			Column:     h.Column,
			Preview:    h.Preview,
		})
	}
	return hits, nil
}

func (c *Client) Statuses(ctx context.Context) (map[string]model.StatusRecord, error) {
	var raw map[string]recordJSON
	if err := c.get(ctx, "/api/checklist", &raw); err != nil {
		return nil, err
	}

	out := make(map[string]model.StatusRecord, len(raw))
	for id, r := range raw {
		out[id] = toRecord(id, r)
	}
	return out, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (model.StatusRecord, error) {
	req := patchRequestJSON{Path: id, Note: upd.Note}
	if upd.Status != nil {
		s := upd.Status.String()
		req.Status = &s
	}

	var raw recordJSON
	if err := c.do(ctx, http.MethodPatch, "/api/checklist", req, &raw); err != nil {
		return model.StatusRecord{}, err
	}
	return toRecord(id, raw), nil
}

func (c *Client) Read(ctx context.Context, id string) (model.Artifact, error) {
	q := url.Values{}
	q.Set("path", id)

	var raw fileJSON
	if err := c.get(ctx, "/api/file?"+q.Encode(), &raw); err != nil {
		return model.Artifact{}, err
	}
	return model.Artifact{Content: raw.Content, Version: raw.Version}, nil
}

func (c *Client) Write(ctx context.Context, id, content, version string) (model.WriteResult, error) {
	req := saveRequestJSON{Path: id, Content: content, Version: version}

	var raw saveResponseJSON
	if err := c.do(ctx, http.MethodPost, "/api/file", req, &raw); err != nil {
		return model.WriteResult{}, err
	}
	if raw.Status == "conflict" {
		return model.WriteResult{Accepted: false}, nil
	}
	return model.WriteResult{Accepted: true, NewVersion: raw.NewVersion}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("authority request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("authority returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding authority response: %w", err)
	}
	return nil
}

func toRecord(id string, r recordJSON) model.StatusRecord {
	return model.StatusRecord{
		ArtifactID: id,
		Status:     model.ParseStatus(r.Status),
		Note:       r.Note,
		UpdatedAt:  time.Unix(r.UpdatedTS, 0),
	}
}
