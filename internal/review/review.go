// Package review orchestrates a pull request review: fetch the PR and its
// files, run the analysis engine, layer on AI feedback, and build the
// verdict that goes back to the code host.
package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/garagon/yarara/internal/ai"
	"github.com/garagon/yarara/internal/analyzer"
	"github.com/garagon/yarara/internal/config"
	"github.com/garagon/yarara/internal/engine"
	"github.com/garagon/yarara/internal/provider"
	"github.com/garagon/yarara/internal/types"
)

// Result is the outcome of one pull request review.
type Result struct {
	ID          string                `json:"id"`
	PullRequest *provider.PullRequest `json:"pull_request"`
	Summary     types.Summary         `json:"summary"`
	Findings    []types.Finding       `json:"findings"`
	AIFeedback  []ai.Feedback         `json:"ai_feedback,omitempty"`
	ReviewID    string                `json:"review_id,omitempty"`
}

// Agent wires a provider, the analysis engine, and the AI engine into one
// review pipeline.
type Agent struct {
	provider provider.Provider
	engine   *engine.Engine
	ai       *ai.Engine
	cfg      config.ReviewConfig
}

// NewAgent creates a review agent. The AI engine may be nil.
func NewAgent(p provider.Provider, eng *engine.Engine, aiEngine *ai.Engine, cfg config.ReviewConfig) *Agent {
	return &Agent{provider: p, engine: eng, ai: aiEngine, cfg: cfg}
}

// ReviewPullRequest runs the full pipeline for one pull request. Files
// whose content cannot be fetched are skipped; a review is posted only
// when the configuration asks for it.
func (a *Agent) ReviewPullRequest(ctx context.Context, owner, repo string, number int) (*Result, error) {
	pr, err := a.provider.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request: %w", err)
	}
	changes, err := a.provider.ListFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("listing changed files: %w", err)
	}

	files := a.collectFiles(ctx, owner, repo, pr, changes)
	res := a.engine.AnalyzeFiles(ctx, files)

	result := &Result{
		ID:          uuid.NewString(),
		PullRequest: pr,
		Summary:     res.Summary,
		Findings:    res.Findings,
	}

	if a.ai != nil && a.ai.Enabled() {
		result.AIFeedback = a.generateFeedback(ctx, files, res.Findings)
	}

	if a.cfg.PostReviews {
		review := a.buildReview(result)
		id, err := a.provider.CreateReview(ctx, owner, repo, number, review)
		if err != nil {
			return result, fmt.Errorf("posting review: %w", err)
		}
		result.ReviewID = id
	}
	return result, nil
}

// collectFiles turns file changes into analyzable content. New files are
// reconstructed from their patch; modified files are fetched at the source
// branch; removed files are skipped.
func (a *Agent) collectFiles(ctx context.Context, owner, repo string, pr *provider.PullRequest, changes []provider.FileChange) []analyzer.File {
	var files []analyzer.File
	for _, change := range changes {
		if change.Status == "removed" {
			continue
		}
		var content string
		if change.Status == "added" {
			content = ExtractAddedLines(change.Patch)
		} else {
			fetched, err := a.provider.GetFileContent(ctx, owner, repo, change.Filename, pr.SourceBranch)
			if err != nil {
				continue
			}
			content = fetched
		}
		if content == "" {
			continue
		}
		files = append(files, analyzer.File{Path: change.Filename, Content: content})
	}
	return files
}

func (a *Agent) generateFeedback(ctx context.Context, files []analyzer.File, findings []types.Finding) []ai.Feedback {
	byPath := map[string][]types.Finding{}
	for _, f := range findings {
		byPath[f.FilePath] = append(byPath[f.FilePath], f)
	}
	var all []ai.Feedback
	for _, f := range files {
		feedback, err := a.ai.ReviewFile(ctx, f.Path, f.Content, byPath[f.Path])
		if err != nil {
			continue // AI feedback is best-effort
		}
		all = append(all, feedback...)
	}
	return all
}

// ExtractAddedLines reconstructs file content from a unified diff patch by
// keeping only the added lines, headers stripped.
func ExtractAddedLines(patch string) string {
	if patch == "" {
		return ""
	}
	var added []string
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "diff --git") ||
			strings.HasPrefix(line, "index ") ||
			strings.HasPrefix(line, "---") ||
			strings.HasPrefix(line, "+++") {
			continue
		}
		if strings.HasPrefix(line, "+") {
			added = append(added, line[1:])
		}
	}
	return strings.Join(added, "\n")
}

// EventForGrade maps a grade to the review event posted on the host.
func EventForGrade(g types.Grade) string {
	switch g {
	case types.GradeExcellent, types.GradeGood:
		return "APPROVE"
	case types.GradeNeedsImprovement, types.GradePoor:
		return "REQUEST_CHANGES"
	default:
		return "COMMENT"
	}
}

const maxSummaryItems = 5

// buildReview renders the verdict and the inline comments.
func (a *Agent) buildReview(result *Result) provider.Review {
	review := provider.Review{
		Body:  a.buildBody(result),
		Event: EventForGrade(result.Summary.Grade),
	}
	if !a.cfg.InlineComments {
		return review
	}
	for _, f := range result.Findings {
		if f.Line <= 0 {
			continue
		}
		body := fmt.Sprintf("**%s**: %s", strings.ToUpper(f.Severity.String()), f.Message)
		if f.Suggestion != "" {
			body += "\n\n" + f.Suggestion
		}
		review.Comments = append(review.Comments, provider.ReviewComment{
			Path: f.FilePath,
			Line: f.Line,
			Side: "RIGHT",
			Body: body,
		})
	}
	for _, f := range result.AIFeedback {
		if f.Line <= 0 {
			continue
		}
		body := fmt.Sprintf("**%s**: %s", strings.ToUpper(f.Category), f.Message)
		if f.Suggestion != "" {
			body += "\n\nSuggestion: " + f.Suggestion
		}
		review.Comments = append(review.Comments, provider.ReviewComment{
			Path: f.Path,
			Line: f.Line,
			Side: "RIGHT",
			Body: body,
		})
	}
	return review
}

func (a *Agent) buildBody(result *Result) string {
	var b strings.Builder
	b.WriteString("# Automated Review\n\n")
	fmt.Fprintf(&b, "- **Score**: %.3f/1.0\n", result.Summary.Score)
	fmt.Fprintf(&b, "- **Grade**: %s\n", result.Summary.Grade)
	fmt.Fprintf(&b, "- **Issues found**: %d\n", result.Summary.TotalIssues)

	if len(result.Findings) > 0 {
		b.WriteString("\n## Key findings\n")
		for i, f := range result.Findings {
			if i >= maxSummaryItems {
				fmt.Fprintf(&b, "- ... and %d more\n", len(result.Findings)-maxSummaryItems)
				break
			}
			fmt.Fprintf(&b, "- **%s** `%s`: %s\n", strings.ToUpper(f.Severity.String()), f.FilePath, f.Message)
		}
	}
	if len(result.AIFeedback) > 0 {
		b.WriteString("\n## AI suggestions\n")
		for i, f := range result.AIFeedback {
			if i >= maxSummaryItems {
				break
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", f.Category, f.Message)
		}
	}
	return b.String()
}
