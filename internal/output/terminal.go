package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/garagon/yarara/internal/engine"
	"github.com/garagon/yarara/internal/types"
)

// ANSI color codes
const (
	reset     = "\033[0m"
	bold      = "\033[1m"
	dim       = "\033[2m"
	underline = "\033[4m"
	red       = "\033[31m"
	green     = "\033[32m"
	yellow    = "\033[33m"
	blue      = "\033[34m"
	cyan      = "\033[36m"
)

const (
	barWidth      = 40
	lineWidth     = 72
	categoryWidth = 16
	messageWidth  = 44
	previewWidth  = 60
)

// displayOrder lists severities most urgent first.
var displayOrder = []types.Severity{
	types.SeverityCritical,
	types.SeverityError,
	types.SeverityWarning,
	types.SeverityInfo,
}

// TerminalFormatter renders findings in a triage-optimized format.
type TerminalFormatter struct {
	NoColor bool
	Verbose bool
}

func (f *TerminalFormatter) color(code, text string) string {
	if f.NoColor {
		return text
	}
	return code + text + reset
}

func (f *TerminalFormatter) Format(w io.Writer, result *engine.Result) error {
	if !f.NoColor && os.Getenv("NO_COLOR") != "" {
		f.NoColor = true
	}

	f.printHeader(w, result)

	if len(result.Findings) == 0 {
		fmt.Fprintf(w, "\n  %s No issues found.\n", f.color(cyan, "✔"))
	} else {
		f.printDashboard(w, countBySeverity(result.Findings))

		for _, sev := range displayOrder {
			filtered := filterBySeverity(result.Findings, sev)
			if len(filtered) > 0 {
				f.printSeveritySection(w, sev, filtered)
			}
		}

		f.printTopFiles(w, result.Findings)
	}

	f.printFooter(w, result)
	return nil
}

func (f *TerminalFormatter) separator() string {
	return strings.Repeat("─", lineWidth)
}

func (f *TerminalFormatter) sectionHeader(title string) string {
	prefix := "── " + title + " "
	displayLen := utf8.RuneCountInString(prefix)
	remaining := max(lineWidth-displayLen, 0)
	return prefix + strings.Repeat("─", remaining)
}

func (f *TerminalFormatter) printHeader(w io.Writer, result *engine.Result) {
	sep := f.separator()
	fmt.Fprintf(w, "\n%s\n", f.color(dim, sep))
	fmt.Fprintf(w, "  %s\n", f.color(bold, "YARARA ANALYSIS RESULTS"))
	fmt.Fprintf(w, "  %d files  ·  %d issues  ·  score %.3f  ·  %s\n",
		result.Summary.TotalFiles,
		result.Summary.TotalIssues,
		result.Summary.Score,
		f.color(f.gradeColor(result.Summary.Grade), string(result.Summary.Grade)),
	)
	fmt.Fprintf(w, "%s\n", f.color(dim, sep))
}

func (f *TerminalFormatter) printDashboard(w io.Writer, counts map[types.Severity]int) {
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, sev := range displayOrder {
		c := counts[sev]
		if c == 0 {
			continue
		}
		label := fmt.Sprintf("  %-10s", sev.String())
		bar := f.renderBar(c, maxCount, barWidth, sev)
		fmt.Fprintf(w, "%s %s %4d\n", f.color(bold, label), bar, c)
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	fmt.Fprintf(w, "\n  %s\n", f.color(bold, fmt.Sprintf("%d findings", total)))
}

func (f *TerminalFormatter) printSeveritySection(w io.Writer, sev types.Severity, findings []types.Finding) {
	title := fmt.Sprintf("%s (%d)", strings.ToUpper(sev.String()), len(findings))
	fmt.Fprintf(w, "\n%s\n", f.color(bold, f.sectionHeader(title)))

	for _, group := range groupByFile(findings) {
		fmt.Fprintf(w, "\n  %s\n", f.color(bold+underline, group.filePath))
		for _, finding := range group.findings {
			if sev == types.SeverityCritical {
				f.printFindingExpanded(w, finding)
			} else {
				f.printFindingCompact(w, finding)
			}
		}
	}
}

func (f *TerminalFormatter) findingLine(finding types.Finding) (string, string, string) {
	icon := f.severityIcon(finding.Severity)
	category := fmt.Sprintf("%-*s", categoryWidth, finding.Category)
	message := fmt.Sprintf("%-*s", messageWidth, truncate(finding.Message, messageWidth))
	loc := finding.FilePath
	if finding.Line > 0 {
		loc = fmt.Sprintf("%s:%d", finding.FilePath, finding.Line)
	}
	return icon, f.color(bold, category) + " " + message, f.color(cyan, loc)
}

func (f *TerminalFormatter) printFindingExpanded(w io.Writer, finding types.Finding) {
	icon, body, loc := f.findingLine(finding)
	fmt.Fprintf(w, "\n    %s %s %s\n", icon, body, loc)

	if finding.CodeSnippet != "" {
		preview := truncate(finding.CodeSnippet, previewWidth)
		fmt.Fprintf(w, "      %s %s\n", f.color(dim, "│"), f.color(dim, preview))
	}
	if finding.Suggestion != "" {
		fmt.Fprintf(w, "      %s %s\n", f.color(dim, "│"), f.color(yellow, finding.Suggestion))
	}
}

func (f *TerminalFormatter) printFindingCompact(w io.Writer, finding types.Finding) {
	icon, body, loc := f.findingLine(finding)
	fmt.Fprintf(w, "    %s %s %s\n", icon, body, loc)
	if f.Verbose && finding.Suggestion != "" {
		fmt.Fprintf(w, "      %s %s\n", f.color(dim, "│"), f.color(yellow, finding.Suggestion))
	}
}

func (f *TerminalFormatter) printTopFiles(w io.Writer, findings []types.Finding) {
	sorted := rankFiles(findings)
	limit := min(len(sorted), 5)
	if limit == 0 {
		return
	}

	header := f.sectionHeader("TOP AFFECTED FILES")
	fmt.Fprintf(w, "\n%s\n\n", f.color(bold, header))

	for i := 0; i < limit; i++ {
		fmt.Fprintf(w, "  %4d  %s\n", sorted[i].count, sorted[i].path)
	}
}

func (f *TerminalFormatter) printFooter(w io.Writer, result *engine.Result) {
	sep := f.separator()
	fmt.Fprintf(w, "\n%s\n", f.color(dim, sep))
	fmt.Fprintf(w, "  %d files analyzed · %d findings · score %.3f · %s\n",
		result.Summary.TotalFiles,
		len(result.Findings),
		result.Summary.Score,
		result.Summary.Grade,
	)
	fmt.Fprintf(w, "%s\n", f.color(dim, sep))
}

func (f *TerminalFormatter) severityIcon(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical:
		return f.color(red+bold, "✖")
	case types.SeverityError:
		return f.color(red, "▲")
	case types.SeverityWarning:
		return f.color(yellow, "■")
	case types.SeverityInfo:
		return f.color(cyan, "○")
	default:
		return "?"
	}
}

func (f *TerminalFormatter) severityColor(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical:
		return red + bold
	case types.SeverityError:
		return red
	case types.SeverityWarning:
		return yellow
	case types.SeverityInfo:
		return cyan
	default:
		return ""
	}
}

func (f *TerminalFormatter) gradeColor(g types.Grade) string {
	switch g {
	case types.GradeExcellent:
		return green + bold
	case types.GradeGood:
		return green
	case types.GradeNeedsImprovement:
		return yellow
	case types.GradePoor:
		return red + bold
	default:
		return blue
	}
}

func (f *TerminalFormatter) renderBar(count, maxCount, width int, sev types.Severity) string {
	if maxCount == 0 {
		return strings.Repeat("░", width)
	}
	filled := count * width / maxCount
	if filled == 0 && count > 0 {
		filled = 1
	}
	// Always keep at least 1 empty block so the bar boundary is visible
	if filled >= width {
		filled = width - 1
	}
	empty := width - filled

	filledStr := strings.Repeat("█", filled)
	emptyStr := strings.Repeat("░", empty)
	return f.color(f.severityColor(sev), filledStr) + f.color(dim, emptyStr)
}

func countBySeverity(findings []types.Finding) map[types.Severity]int {
	counts := map[types.Severity]int{}
	for _, finding := range findings {
		counts[finding.Severity]++
	}
	return counts
}

func filterBySeverity(findings []types.Finding, sev types.Severity) []types.Finding {
	var result []types.Finding
	for _, f := range findings {
		if f.Severity == sev {
			result = append(result, f)
		}
	}
	return result
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

type fileGroup struct {
	filePath string
	findings []types.Finding
}

func groupByFile(findings []types.Finding) []fileGroup {
	order := make(map[string]int)
	grouped := make(map[string][]types.Finding)
	for _, f := range findings {
		if _, ok := order[f.FilePath]; !ok {
			order[f.FilePath] = len(order)
		}
		grouped[f.FilePath] = append(grouped[f.FilePath], f)
	}
	result := make([]fileGroup, 0, len(grouped))
	for path, findings := range grouped {
		result = append(result, fileGroup{filePath: path, findings: findings})
	}
	sort.Slice(result, func(i, j int) bool {
		return order[result[i].filePath] < order[result[j].filePath]
	})
	return result
}

type fileCount struct {
	path  string
	count int
}

func rankFiles(findings []types.Finding) []fileCount {
	counts := map[string]int{}
	for _, finding := range findings {
		counts[finding.FilePath]++
	}
	sorted := make([]fileCount, 0, len(counts))
	for path, count := range counts {
		sorted = append(sorted, fileCount{path, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].path < sorted[j].path
	})
	return sorted
}
