package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garagon/yarara/internal/ai"
	"github.com/garagon/yarara/internal/config"
	"github.com/garagon/yarara/internal/engine"
	"github.com/garagon/yarara/internal/output"
	"github.com/garagon/yarara/internal/provider/github"
	"github.com/garagon/yarara/internal/review"
)

var (
	flagPost    bool
	flagToken   string
	flagBaseURL string
)

var reviewCmd = &cobra.Command{
	Use:   "review <owner/repo#number>",
	Short: "Review a GitHub pull request",
	Long: `Review fetches a pull request, analyzes its changed Python files,
and optionally posts the verdict back as a review.`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&flagPost, "post", false, "Post the review back to the pull request")
	reviewCmd.Flags().StringVar(&flagToken, "token", "", "GitHub API token (default: config file, then GITHUB_TOKEN)")
	reviewCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "GitHub API base URL, for GitHub Enterprise")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	owner, repo, number, err := parsePullRequestRef(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("post") {
		cfg.Review.PostReviews = flagPost
	}
	if flagToken != "" {
		cfg.GitHub.Token = flagToken
	}
	if flagBaseURL != "" {
		cfg.GitHub.BaseURL = flagBaseURL
	}
	if !cmd.Root().PersistentFlags().Changed("format") && cfg.Format != "" {
		flagFormat = cfg.Format
	}

	token := cfg.GitHub.ResolveToken()
	if token == "" {
		fmt.Fprintln(os.Stderr, "warning: no GitHub token configured, private repositories will fail")
	}
	gh := github.New(cfg.GitHub.BaseURL, token)
	defer gh.Close()

	aiEngine := ai.New(ai.Config{
		Enabled:   cfg.AI.Enabled,
		Model:     cfg.AI.Model,
		MaxTokens: cfg.AI.MaxTokens,
	})

	agent := review.NewAgent(gh, buildEngine(cfg), aiEngine, cfg.Review)

	ctx, cancel := contextWithInterrupt()
	defer cancel()

	var spinner *output.Spinner
	if flagFormat == "terminal" && flagOutput == "" && !flagNoColor {
		spinner = output.NewSpinner(os.Stderr)
		spinner.Start(fmt.Sprintf("Reviewing %s/%s#%d...", owner, repo, number))
	}

	result, err := agent.ReviewPullRequest(ctx, owner, repo, number)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	if err := writeOutput(&engine.Result{Findings: result.Findings, Summary: result.Summary}); err != nil {
		return err
	}
	for _, f := range result.AIFeedback {
		fmt.Fprintf(os.Stderr, "ai: %s:%d %s\n", f.Path, f.Line, f.Message)
	}
	if result.ReviewID != "" {
		fmt.Fprintf(os.Stderr, "posted review %s (%s)\n", result.ReviewID, review.EventForGrade(result.Summary.Grade))
	}
	return nil
}

// parsePullRequestRef splits "owner/repo#number" into its parts.
func parsePullRequestRef(ref string) (owner, repo string, number int, err error) {
	slug, num, ok := strings.Cut(ref, "#")
	if !ok {
		return "", "", 0, fmt.Errorf("invalid pull request reference %q, expected owner/repo#number", ref)
	}
	owner, repo, ok = strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", 0, fmt.Errorf("invalid repository %q, expected owner/repo", slug)
	}
	number, err = strconv.Atoi(num)
	if err != nil || number <= 0 {
		return "", "", 0, fmt.Errorf("invalid pull request number %q", num)
	}
	return owner, repo, number, nil
}
