// Package suggest predicts a category and priority for a task title.
package suggest

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/dkorzhov/tasksync/internal/model"
)

// Suggester predicts task attributes from a title.
type Suggester interface {
	Suggest(ctx context.Context, title string) (model.Suggestion, error)
}

// New returns a Claude-backed suggester when an API key is configured and the
// keyword fallback otherwise.
func New(apiKey string, log *zap.Logger) Suggester {
	if apiKey == "" {
		log.Info("no API key configured, using keyword suggester")
		return Keyword{}
	}
	return NewClaude(apiKey, log)
}

// Keyword is a deterministic offline suggester driven by title keywords.
type Keyword struct{}

var keywordRules = []struct {
	words    []string
	category string
	priority model.Priority
}{
	{[]string{"buy", "shop", "grocery"}, "Shopping", model.PriorityMedium},
	{[]string{"call", "meeting", "email", "work"}, "Work", model.PriorityHigh},
	{[]string{"doctor", "gym", "health", "workout"}, "Health", model.PriorityHigh},
}

// Suggest matches the title against keyword rules; unmatched titles land in
// Personal/low.
func (Keyword) Suggest(_ context.Context, title string) (model.Suggestion, error) {
	lower := strings.ToLower(title)
	for _, rule := range keywordRules {
		for _, w := range rule.words {
			if strings.Contains(lower, w) {
				return model.Suggestion{Category: rule.category, Priority: rule.priority}, nil
			}
		}
	}
	return model.Suggestion{Category: "Personal", Priority: model.PriorityLow}, nil
}

// Claude asks a model for the suggestion and falls back to Keyword on any
// failure, so the endpoint keeps working without the upstream API.
type Claude struct {
	client   anthropic.Client
	fallback Keyword
	log      *zap.Logger
}

const claudeModel = anthropic.Model("claude-3-5-haiku-latest")

// NewClaude constructs a Claude suggester.
func NewClaude(apiKey string, log *zap.Logger) *Claude {
	return &Claude{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		log:    log,
	}
}

func (c *Claude) Suggest(ctx context.Context, title string) (model.Suggestion, error) {
	prompt := `Given the todo task title: "` + title + `"
Suggest a category and priority.
Categories: Personal, Work, Shopping, Health, Finance, Other
Priorities: low, medium, high, urgent

Return ONLY a JSON object like:
{"category": "Work", "priority": "high"}`

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     claudeModel,
		MaxTokens: 128,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		c.log.Warn("suggestion request failed, using keyword fallback", zap.Error(err))
		return c.fallback.Suggest(ctx, title)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		text.WriteString(block.Text)
	}
	s, err := parseSuggestion(text.String())
	if err != nil {
		c.log.Warn("unparseable suggestion, using keyword fallback",
			zap.String("raw", text.String()),
			zap.Error(err),
		)
		return c.fallback.Suggest(ctx, title)
	}
	return s, nil
}

// parseSuggestion extracts the JSON object from a model reply, tolerating
// fenced code blocks around it.
func parseSuggestion(raw string) (model.Suggestion, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "```"); i >= 0 {
		raw = raw[i+3:]
		raw = strings.TrimPrefix(raw, "json")
		if j := strings.Index(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
		raw = strings.TrimSpace(raw)
	}

	var s model.Suggestion
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return model.Suggestion{}, err
	}
	s.Priority = model.Priority(strings.ToLower(string(s.Priority)))
	if !s.Priority.Valid() {
		s.Priority = model.PriorityMedium
	}
	if s.Category == "" {
		s.Category = "Other"
	}
	return s, nil
}
