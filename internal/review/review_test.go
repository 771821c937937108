package review_test

import (
	"context"
	"testing"

	"github.com/garagon/yarara/internal/analyzer/security"
	"github.com/garagon/yarara/internal/analyzer/structure"
	"github.com/garagon/yarara/internal/config"
	"github.com/garagon/yarara/internal/engine"
	"github.com/garagon/yarara/internal/provider"
	"github.com/garagon/yarara/internal/provider/mock"
	"github.com/garagon/yarara/internal/review"
	"github.com/garagon/yarara/internal/types"
	"github.com/stretchr/testify/require"
)

func newEngine() *engine.Engine {
	return engine.New(
		security.New(security.DefaultConfig()),
		structure.New(structure.DefaultConfig()),
	)
}

func seedPR(m *mock.Provider) {
	m.SetPullRequest("octo", "hello", &provider.PullRequest{
		ID:           "1",
		Number:       7,
		Title:        "Add worker",
		SourceBranch: "feature",
		TargetBranch: "main",
		State:        "open",
	}, []provider.FileChange{
		{
			Filename: "worker.py",
			Status:   "added",
			Patch: "@@ -0,0 +1,2 @@\n" +
				"+import subprocess\n" +
				"+result = eval(data)",
		},
		{Filename: "util.py", Status: "modified", Additions: 1},
		{Filename: "legacy.py", Status: "removed"},
	})
	m.SetFileContent("octo", "hello", "feature", "util.py", "def helper():\n    return 1\n")
}

func TestReviewPullRequest(t *testing.T) {
	m := mock.New()
	seedPR(m)

	agent := review.NewAgent(m, newEngine(), nil, config.ReviewConfig{})
	result, err := agent.ReviewPullRequest(context.Background(), "octo", "hello", 7)
	require.NoError(t, err)

	require.NotEmpty(t, result.ID)
	require.Equal(t, 7, result.PullRequest.Number)
	require.Equal(t, 2, result.Summary.TotalFiles, "removed file is skipped")

	var paths []string
	for _, f := range result.Findings {
		paths = append(paths, f.FilePath)
	}
	require.Contains(t, paths, "worker.py")
	require.NotContains(t, paths, "legacy.py")
	require.Empty(t, result.ReviewID, "nothing posted unless configured")
	require.Empty(t, m.Reviews())
}

func TestReviewPostsWhenConfigured(t *testing.T) {
	m := mock.New()
	seedPR(m)

	agent := review.NewAgent(m, newEngine(), nil, config.ReviewConfig{
		PostReviews:    true,
		InlineComments: true,
	})
	result, err := agent.ReviewPullRequest(context.Background(), "octo", "hello", 7)
	require.NoError(t, err)
	require.NotEmpty(t, result.ReviewID)

	posted := m.Reviews()
	require.Len(t, posted, 1)
	require.Equal(t, "REQUEST_CHANGES", posted[0].Review.Event)
	require.Contains(t, posted[0].Review.Body, "Grade")
	require.NotEmpty(t, posted[0].Review.Comments)
	for _, c := range posted[0].Review.Comments {
		require.Positive(t, c.Line, "inline comments need a line")
		require.Equal(t, "RIGHT", c.Side)
	}
}

func TestReviewMissingPR(t *testing.T) {
	agent := review.NewAgent(mock.New(), newEngine(), nil, config.ReviewConfig{})
	_, err := agent.ReviewPullRequest(context.Background(), "octo", "hello", 404)
	require.ErrorIs(t, err, provider.ErrNotFound)
}

func TestExtractAddedLines(t *testing.T) {
	patch := "diff --git a/x.py b/x.py\n" +
		"index 000..111 100644\n" +
		"--- /dev/null\n" +
		"+++ b/x.py\n" +
		"@@ -0,0 +1,3 @@\n" +
		"+x = 1\n" +
		" context = True\n" +
		"-removed = 2\n" +
		"+y = 3"
	require.Equal(t, "x = 1\ny = 3", review.ExtractAddedLines(patch))
	require.Empty(t, review.ExtractAddedLines(""))
}

func TestEventForGrade(t *testing.T) {
	require.Equal(t, "APPROVE", review.EventForGrade(types.GradeExcellent))
	require.Equal(t, "APPROVE", review.EventForGrade(types.GradeGood))
	require.Equal(t, "REQUEST_CHANGES", review.EventForGrade(types.GradeNeedsImprovement))
	require.Equal(t, "REQUEST_CHANGES", review.EventForGrade(types.GradePoor))
	require.Equal(t, "COMMENT", review.EventForGrade(types.Grade("NEEDS_REVIEW")))
}
