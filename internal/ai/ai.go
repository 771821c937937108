// Package ai generates LLM feedback for changed files, layered on top of
// the static findings. It is strictly optional: disabled or misconfigured,
// every call degrades to a no-op.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/garagon/yarara/internal/types"
)

// Feedback is one piece of model-generated advice.
type Feedback struct {
	Path       string  `json:"path"`
	Line       int     `json:"line,omitempty"`
	Category   string  `json:"category"`
	Severity   string  `json:"severity"`
	Message    string  `json:"message"`
	Suggestion string  `json:"suggestion,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Config holds the engine's construction-time options. An empty APIKey
// falls back to the OPENAI_API_KEY environment variable.
type Config struct {
	Enabled   bool
	Model     string
	MaxTokens int
	APIKey    string
}

// Engine produces AI feedback through the OpenAI chat API.
type Engine struct {
	cfg    Config
	client *openai.Client
}

// New creates an engine. Without an API key the engine stays disabled.
func New(cfg Config) *Engine {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	e := &Engine{cfg: cfg}
	if cfg.Enabled && key != "" {
		e.client = openai.NewClient(key)
	}
	return e
}

// Enabled reports whether the engine will actually call the model.
func (e *Engine) Enabled() bool { return e.client != nil }

const systemPrompt = "You are a senior software engineer reviewing a pull request. " +
	"Reply with a single JSON object and nothing else."

// ReviewFile asks the model for feedback on one file, giving it the static
// findings as context. A disabled engine returns (nil, nil).
func (e *Engine) ReviewFile(ctx context.Context, path, content string, findings []types.Finding) ([]Feedback, error) {
	if e.client == nil {
		return nil, nil
	}
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(path, content, findings)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ai review of %s: %w", path, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("ai review of %s: empty response", path)
	}
	return ParseFeedback(resp.Choices[0].Message.Content, path), nil
}

func buildPrompt(path, content string, findings []types.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review the following file: %s\n\n", path)

	if len(findings) > 0 {
		b.WriteString("Static analysis already reported:\n")
		for _, f := range findings {
			fmt.Fprintf(&b, "- line %d [%s/%s] %s\n", f.Line, f.Category, f.Severity, f.Message)
		}
		b.WriteString("Do not repeat these; add what they miss.\n\n")
	}

	b.WriteString("CODE:\n```python\n")
	b.WriteString(content)
	b.WriteString("\n```\n\n")
	b.WriteString(`Respond with JSON in this shape:
{"feedback": [{"line": 1, "category": "style|performance|security|maintainability|bug",
"severity": "info|warning|error", "message": "...", "suggestion": "...", "confidence": 0.8}]}
`)
	return b.String()
}

// ParseFeedback extracts the feedback list from a model reply. Models wrap
// JSON in prose or code fences often enough that the parser just takes the
// outermost brace-delimited region. Unparseable replies yield nothing.
func ParseFeedback(reply, path string) []Feedback {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil
	}
	var payload struct {
		Feedback []Feedback `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &payload); err != nil {
		return nil
	}
	out := payload.Feedback[:0]
	for _, f := range payload.Feedback {
		if f.Message == "" {
			continue
		}
		f.Path = path
		if f.Category == "" {
			f.Category = "general"
		}
		if f.Severity == "" {
			f.Severity = "info"
		}
		if f.Confidence <= 0 || f.Confidence > 1 {
			f.Confidence = 0.5
		}
		out = append(out, f)
	}
	return out
}
