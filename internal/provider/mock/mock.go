// Package mock provides an in-memory provider for tests and offline demos.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/garagon/yarara/internal/provider"
)

// PostedReview records one CreateReview call.
type PostedReview struct {
	Owner  string
	Repo   string
	Number int
	Review provider.Review
}

// Provider is an in-memory implementation of provider.Provider. The zero
// value is not usable; create one with New.
type Provider struct {
	mu       sync.Mutex
	pulls    map[string]*provider.PullRequest
	files    map[string][]provider.FileChange
	contents map[string]string
	reviews  []PostedReview
}

// New creates an empty mock provider.
func New() *Provider {
	return &Provider{
		pulls:    map[string]*provider.PullRequest{},
		files:    map[string][]provider.FileChange{},
		contents: map[string]string{},
	}
}

func prKey(owner, repo string, number int) string {
	return fmt.Sprintf("%s/%s#%d", owner, repo, number)
}

func contentKey(owner, repo, ref, path string) string {
	return fmt.Sprintf("%s/%s@%s:%s", owner, repo, ref, path)
}

// SetPullRequest registers a pull request and its changed files.
func (m *Provider) SetPullRequest(owner, repo string, pr *provider.PullRequest, files []provider.FileChange) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := prKey(owner, repo, pr.Number)
	m.pulls[key] = pr
	m.files[key] = files
}

// SetFileContent registers file content at a ref.
func (m *Provider) SetFileContent(owner, repo, ref, path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents[contentKey(owner, repo, ref, path)] = content
}

// Reviews returns the reviews posted so far.
func (m *Provider) Reviews() []PostedReview {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PostedReview, len(m.reviews))
	copy(out, m.reviews)
	return out
}

func (m *Provider) GetPullRequest(_ context.Context, owner, repo string, number int) (*provider.PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.pulls[prKey(owner, repo, number)]
	if !ok {
		return nil, fmt.Errorf("mock: %s: %w", prKey(owner, repo, number), provider.ErrNotFound)
	}
	return pr, nil
}

func (m *Provider) ListFiles(_ context.Context, owner, repo string, number int) ([]provider.FileChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := prKey(owner, repo, number)
	if _, ok := m.pulls[key]; !ok {
		return nil, fmt.Errorf("mock: %s: %w", key, provider.ErrNotFound)
	}
	return m.files[key], nil
}

func (m *Provider) GetFileContent(_ context.Context, owner, repo, path, ref string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.contents[contentKey(owner, repo, ref, path)]
	if !ok {
		return "", fmt.Errorf("mock: %s: %w", path, provider.ErrNotFound)
	}
	return content, nil
}

func (m *Provider) CreateReview(_ context.Context, owner, repo string, number int, review provider.Review) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, PostedReview{Owner: owner, Repo: repo, Number: number, Review: review})
	return fmt.Sprintf("%d", len(m.reviews)), nil
}

func (m *Provider) Close() error { return nil }
