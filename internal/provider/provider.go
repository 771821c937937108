// Package provider defines the hosting-service boundary: the pull request
// data types and the operations the review agent needs from a code host.
package provider

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors implementations wrap so callers can branch on the cause.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAuthentication = errors.New("authentication failed")
	ErrRateLimited    = errors.New("rate limit exceeded")
)

// PullRequest is a pull request as the host reports it.
type PullRequest struct {
	ID           string    `json:"id"`
	Number       int       `json:"number"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Author       string    `json:"author"`
	SourceBranch string    `json:"source_branch"`
	TargetBranch string    `json:"target_branch"`
	URL          string    `json:"url"`
	State        string    `json:"state"`
	Draft        bool      `json:"draft"`
	Labels       []string  `json:"labels,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FileChange is one changed file in a pull request.
type FileChange struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"` // added, modified, removed, renamed
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch,omitempty"`
}

// ReviewComment is one inline comment attached to a review.
type ReviewComment struct {
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
	Side string `json:"side,omitempty"` // RIGHT or LEFT
	Body string `json:"body"`
}

// Review is a complete review to post on a pull request.
type Review struct {
	Body     string          `json:"body"`
	Event    string          `json:"event"` // APPROVE, REQUEST_CHANGES, COMMENT
	Comments []ReviewComment `json:"comments,omitempty"`
}

// Provider is the capability the review agent needs from a code host.
type Provider interface {
	// GetPullRequest fetches one pull request by number.
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error)
	// ListFiles returns the files changed in a pull request.
	ListFiles(ctx context.Context, owner, repo string, number int) ([]FileChange, error)
	// GetFileContent returns a file's content at the given ref.
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error)
	// CreateReview posts a review and returns its host-side ID.
	CreateReview(ctx context.Context, owner, repo string, number int, review Review) (string, error)
	// Close releases any held connections.
	Close() error
}
