// Package gemini implements app analysis, post drafting and trend analysis on
// Google's Gemini models with JSON-schema constrained output.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/domain/core/valueobjects"
	"subscout/pkg/resilience"
)

const DefaultModel = "gemini-2.0-flash-exp"

// Generator produces a JSON document for a prompt under a response schema
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// genaiGenerator calls the Gemini API through the genai SDK
type genaiGenerator struct {
	client *genai.Client
	model  string
}

// NewGenerator creates a Generator backed by the Gemini API
func NewGenerator(ctx context.Context, apiKey, model string) (Generator, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &genaiGenerator{client: client, model: model}, nil
}

func (g *genaiGenerator) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

// Client implements ports.ContentAnalyzer
type Client struct {
	generator Generator
	breaker   *resilience.Breaker
	logger    *zap.Logger
}

var _ ports.ContentAnalyzer = (*Client)(nil)

func NewClient(generator Generator, breaker *resilience.Breaker, logger *zap.Logger) *Client {
	return &Client{generator: generator, breaker: breaker, logger: logger}
}

func stringSchema() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func stringArraySchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: stringSchema()}
}

var appProfileSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":           stringSchema(),
		"description":    stringSchema(),
		"targetAudience": stringSchema(),
		"painPoints":     stringArraySchema(),
		"features":       stringArraySchema(),
		"tags":           stringArraySchema(),
	},
	Required: []string{"name", "description", "targetAudience", "painPoints", "features", "tags"},
}

var postDraftSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":   stringSchema(),
		"content": stringSchema(),
	},
	Required: []string{"title", "content"},
}

var trendReportSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"trends": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"topic":     stringSchema(),
					"frequency": {Type: genai.TypeNumber},
					"growth": {
						Type: genai.TypeString,
						Enum: []string{string(valueobjects.GrowthRising), string(valueobjects.GrowthStable), string(valueobjects.GrowthDeclining)},
					},
				},
				Required: []string{"topic", "frequency", "growth"},
			},
		},
		"summary": stringSchema(),
	},
	Required: []string{"trends", "summary"},
}

// AnalyzeApp describes the app behind url
func (c *Client) AnalyzeApp(ctx context.Context, url string) (*entities.AppProfile, error) {
	prompt := fmt.Sprintf("Please analyze this application URL and provide insights: %s. "+
		"Focus on identifying the primary user persona, key pain points the app solves, main features, "+
		"and relevant tags for categorization.", url)

	var profile entities.AppProfile
	if err := c.generate(ctx, "analyze app", prompt, appProfileSchema, &profile); err != nil {
		return nil, fmt.Errorf("failed to analyze app URL: %w", err)
	}
	return &profile, nil
}

// GenerateFirstContactPost drafts a non-promotional post that asks the
// community about the app's pain points.
func (c *Client) GenerateFirstContactPost(ctx context.Context, subreddit, appDescription string, painPoints []string) (*entities.PostDraft, error) {
	prompt := fmt.Sprintf(`Create a first-contact post for r/%s. The post should:
- Address common pain points: %s
- Sound authentic and conversational
- Ask for community input/experiences
- NOT be promotional or mention the app directly
- Follow typical Reddit etiquette

App context (for understanding, don't mention directly): %s`, subreddit, strings.Join(painPoints, ", "), appDescription)

	var draft entities.PostDraft
	if err := c.generate(ctx, "generate post", prompt, postDraftSchema, &draft); err != nil {
		return nil, fmt.Errorf("failed to generate post: %w", err)
	}
	return &draft, nil
}

type trendPayload struct {
	Trends []struct {
		Topic     string  `json:"topic"`
		Frequency float64 `json:"frequency"`
		Growth    string  `json:"growth"`
	} `json:"trends"`
	Summary string `json:"summary"`
}

// AnalyzePainPointTrends groups insight texts into trends
func (c *Client) AnalyzePainPointTrends(ctx context.Context, insights []*entities.Insight) (*ports.TrendReport, error) {
	texts := make([]string, 0, len(insights))
	for _, in := range insights {
		texts = append(texts, in.Content)
	}
	prompt := fmt.Sprintf("Analyze these customer insights and pain points to identify key trends: %s. "+
		"Growth should be 'rising', 'stable', or 'declining'.", strings.Join(texts, "\n\n"))

	var payload trendPayload
	if err := c.generate(ctx, "analyze trends", prompt, trendReportSchema, &payload); err != nil {
		return nil, fmt.Errorf("failed to analyze trends: %w", err)
	}

	report := &ports.TrendReport{Trends: make([]ports.Trend, 0, len(payload.Trends)), Summary: payload.Summary}
	for _, t := range payload.Trends {
		report.Trends = append(report.Trends, ports.Trend{
			Topic:     t.Topic,
			Frequency: int(math.Round(t.Frequency)),
			Growth:    valueobjects.TrendGrowth(strings.ToLower(t.Growth)),
		})
	}
	return report, nil
}

func (c *Client) generate(ctx context.Context, op, prompt string, schema *genai.Schema, out interface{}) error {
	var text string
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		text, err = c.generator.GenerateJSON(ctx, prompt, schema)
		return err
	})
	if err != nil {
		c.logger.Error("Gemini request failed", zap.String("operation", op), zap.Error(err))
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = "{}"
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}
