package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/garagon/yarara/internal/engine"
	"github.com/garagon/yarara/internal/types"
)

// MarkdownFormatter emits findings as GitHub-flavored markdown, designed
// for GitHub Actions Job Summaries and PR comments.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, result *engine.Result) error {
	if len(result.Findings) == 0 {
		f.printClean(w, result)
		return nil
	}

	f.printSummary(w, result)
	f.printFindings(w, result.Findings)
	f.printFooter(w, result)
	return nil
}

func (f *MarkdownFormatter) printClean(w io.Writer, result *engine.Result) {
	fmt.Fprintf(w, "### :white_check_mark: Yarara Review — No issues found\n\n")
	fmt.Fprintf(w, "> %d files analyzed · score %.3f · %s\n",
		result.Summary.TotalFiles, result.Summary.Score, result.Summary.Grade)
}

func (f *MarkdownFormatter) printSummary(w io.Writer, result *engine.Result) {
	fmt.Fprintf(w, "### :rotating_light: Yarara Review — %d findings\n\n", len(result.Findings))
	fmt.Fprintf(w, "> %d files · score **%.3f** · grade **%s**\n\n",
		result.Summary.TotalFiles, result.Summary.Score, result.Summary.Grade)

	counts := countBySeverity(result.Findings)
	var badges []string
	for _, sev := range displayOrder {
		c := counts[sev]
		if c == 0 {
			continue
		}
		badges = append(badges, fmt.Sprintf("%s **%d %s**", severityEmoji(sev), c, sev.String()))
	}
	fmt.Fprintf(w, "%s\n\n", strings.Join(badges, " · "))
}

func (f *MarkdownFormatter) printFindings(w io.Writer, findings []types.Finding) {
	for _, sev := range displayOrder {
		filtered := filterBySeverity(findings, sev)
		if len(filtered) == 0 {
			continue
		}

		fmt.Fprintf(w, "<details%s>\n", openByDefault(sev))
		fmt.Fprintf(w, "<summary>%s <strong>%s (%d)</strong></summary>\n\n",
			severityEmoji(sev), strings.ToUpper(sev.String()), len(filtered))

		fmt.Fprintf(w, "| Category | Message | File | Line |\n")
		fmt.Fprintf(w, "|----------|---------|------|------|\n")

		for _, group := range groupByFile(filtered) {
			for _, finding := range group.findings {
				desc := escapeMarkdown(finding.Message)
				if snippet := truncateMarkdown(finding.CodeSnippet, 60); snippet != "" {
					desc += fmt.Sprintf("<br><code>%s</code>", escapeMarkdown(snippet))
				}
				fmt.Fprintf(w, "| `%s` | %s | `%s` | L%d |\n",
					finding.Category, desc, finding.FilePath, finding.Line)
			}
		}

		fmt.Fprintf(w, "\n</details>\n\n")
	}
}

func (f *MarkdownFormatter) printFooter(w io.Writer, result *engine.Result) {
	sorted := rankFiles(result.Findings)
	if len(sorted) > 1 {
		limit := min(len(sorted), 5)
		fmt.Fprintf(w, "**Top affected files:**\n\n")
		fmt.Fprintf(w, "| File | Findings |\n")
		fmt.Fprintf(w, "|------|----------|\n")
		for i := 0; i < limit; i++ {
			fmt.Fprintf(w, "| `%s` | %d |\n", sorted[i].path, sorted[i].count)
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "---\n")
	fmt.Fprintf(w, "*Reviewed by [Yarara](https://github.com/garagon/yarara) %s*\n", ToolVersion)
}

func severityEmoji(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical:
		return ":red_circle:"
	case types.SeverityError:
		return ":orange_circle:"
	case types.SeverityWarning:
		return ":yellow_circle:"
	case types.SeverityInfo:
		return ":white_circle:"
	default:
		return ":black_circle:"
	}
}

func openByDefault(sev types.Severity) string {
	if sev == types.SeverityCritical || sev == types.SeverityError {
		return " open"
	}
	return ""
}

func truncateMarkdown(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
