// Package github implements the provider boundary over GitHub's REST v3
// JSON API with token authentication.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/garagon/yarara/internal/provider"
)

const defaultBaseURL = "https://api.github.com"

// Client talks to the GitHub REST API. Create one with New.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a GitHub client. An empty baseURL targets api.github.com;
// point it at a GitHub Enterprise API root otherwise. The token may be
// empty for public, read-only use.
func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// GetPullRequest fetches one pull request.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*provider.PullRequest, error) {
	var data struct {
		ID     int64  `json:"id"`
		Number int    `json:"number"`
		Title  string `json:"title"`
		Body   string `json:"body"`
		User   struct {
			Login string `json:"login"`
		} `json:"user"`
		Head struct {
			Ref string `json:"ref"`
		} `json:"head"`
		Base struct {
			Ref string `json:"ref"`
		} `json:"base"`
		HTMLURL string `json:"html_url"`
		State   string `json:"state"`
		Draft   bool   `json:"draft"`
		Labels  []struct {
			Name string `json:"name"`
		} `json:"labels"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	pr := &provider.PullRequest{
		ID:           fmt.Sprintf("%d", data.ID),
		Number:       data.Number,
		Title:        data.Title,
		Description:  data.Body,
		Author:       data.User.Login,
		SourceBranch: data.Head.Ref,
		TargetBranch: data.Base.Ref,
		URL:          data.HTMLURL,
		State:        data.State,
		Draft:        data.Draft,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
	for _, l := range data.Labels {
		pr.Labels = append(pr.Labels, l.Name)
	}
	return pr, nil
}

// ListFiles returns the files changed in a pull request.
func (c *Client) ListFiles(ctx context.Context, owner, repo string, number int) ([]provider.FileChange, error) {
	var data []struct {
		Filename  string `json:"filename"`
		Status    string `json:"status"`
		Additions int    `json:"additions"`
		Deletions int    `json:"deletions"`
		Patch     string `json:"patch"`
	}
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files", owner, repo, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	files := make([]provider.FileChange, 0, len(data))
	for _, f := range data {
		files = append(files, provider.FileChange{
			Filename:  f.Filename,
			Status:    f.Status,
			Additions: f.Additions,
			Deletions: f.Deletions,
			Patch:     f.Patch,
		})
	}
	return files, nil
}

// GetFileContent returns a file's content at the given ref. The contents
// endpoint returns base64 with embedded newlines.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	var data struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	p := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", owner, repo, path, url.QueryEscape(ref))
	if err := c.do(ctx, http.MethodGet, p, nil, &data); err != nil {
		return "", err
	}
	if data.Type != "file" {
		return "", fmt.Errorf("%s is not a file: %w", path, provider.ErrNotFound)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(data.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return string(raw), nil
}

// CreateReview posts a review and returns its ID.
func (c *Client) CreateReview(ctx context.Context, owner, repo string, number int, review provider.Review) (string, error) {
	var data struct {
		ID int64 `json:"id"`
	}
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", owner, repo, number)
	if err := c.do(ctx, http.MethodPost, path, review, &data); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", data.ID), nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "yarara/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("github: %w", provider.ErrAuthentication)
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("github: %w", provider.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("github: %s: %w", path, provider.ErrNotFound)
	case resp.StatusCode >= 400:
		return fmt.Errorf("github: %s returned status %d", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
