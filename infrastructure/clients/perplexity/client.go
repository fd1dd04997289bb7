// Package perplexity asks Perplexity's online models for subreddit
// recommendations and Reddit trend summaries.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/pkg/resilience"
)

const (
	DefaultBaseURL = "https://api.perplexity.ai"
	DefaultModel   = "llama-3.1-sonar-small-128k-online"
)

const discoverSystemPrompt = `You are a Reddit expert who knows all major subreddits. Based on an app description and target audience, recommend relevant subreddits where the target users might gather. Respond with JSON array of subreddits in this format: {"subreddits": [{ "name": string, "displayName": string, "description": string, "subscribers": number, "activity": string, "matchScore": number }]}. Activity should be "high", "medium", or "low". Match score should be 0-100.`

const trendsSystemPrompt = `Search Reddit for current trends and discussions related to the given query. Focus on identifying trending topics, common pain points, and recent discussions. Return JSON format: {"trends": string[], "discussions": string[]}`

// embeddedObject finds the outermost {...} in free text
var embeddedObject = regexp.MustCompile(`\{[\s\S]*\}`)

// DefaultRecommendations are returned when the model answers with text that
// holds no JSON object at all.
var DefaultRecommendations = []entities.SubredditRecommendation{
	{Name: "startups", DisplayName: "r/startups", Description: "A community for discussing startup ideas and entrepreneurship", Subscribers: 500000, Activity: "high", MatchScore: 85},
	{Name: "entrepreneur", DisplayName: "r/entrepreneur", Description: "A community for entrepreneurs and business minded individuals", Subscribers: 800000, Activity: "high", MatchScore: 80},
	{Name: "SaaS", DisplayName: "r/SaaS", Description: "Software as a Service community", Subscribers: 150000, Activity: "medium", MatchScore: 90},
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.CommunityRecommender
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *resilience.Breaker
	logger  *zap.Logger
}

var _ ports.CommunityRecommender = (*Client)(nil)

func NewClient(cfg Config, breaker *resilience.Breaker, logger *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, breaker: breaker, logger: logger}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model                  string    `json:"model"`
	Messages               []message `json:"messages"`
	MaxTokens              int       `json:"max_tokens"`
	Temperature            float64   `json:"temperature"`
	TopP                   float64   `json:"top_p,omitempty"`
	SearchDomainFilter     []string  `json:"search_domain_filter,omitempty"`
	ReturnRelatedQuestions *bool     `json:"return_related_questions,omitempty"`
	Stream                 bool      `json:"stream"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		FinishReason string  `json:"finish_reason"`
		Message      message `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations,omitempty"`
}

type recommendationPayload struct {
	Subreddits []struct {
		Name        string  `json:"name"`
		DisplayName string  `json:"displayName"`
		Description string  `json:"description"`
		Subscribers float64 `json:"subscribers"`
		Activity    string  `json:"activity"`
		MatchScore  float64 `json:"matchScore"`
	} `json:"subreddits"`
}

// FindSubreddits recommends communities for an app
func (c *Client) FindSubreddits(ctx context.Context, appDescription, targetAudience string) ([]entities.SubredditRecommendation, error) {
	content, err := c.complete(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: discoverSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("App description: %s\nTarget audience: %s\n\nRecommend 5-8 relevant subreddits where this target audience is likely to be active.", appDescription, targetAudience)},
		},
		MaxTokens:   1000,
		Temperature: 0.2,
		TopP:        0.9,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover subreddits: %w", err)
	}
	if content == "" {
		return nil, errors.New("failed to discover subreddits: no content received from Perplexity API")
	}

	recs, err := parseRecommendations(content)
	if err != nil {
		return nil, fmt.Errorf("failed to discover subreddits: %w", err)
	}
	return recs, nil
}

// parseRecommendations decodes the answer as JSON, then the first embedded
// object, and finally falls back to DefaultRecommendations when the text has
// no object in it.
func parseRecommendations(content string) ([]entities.SubredditRecommendation, error) {
	var payload recommendationPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		match := embeddedObject.FindString(content)
		if match == "" {
			out := make([]entities.SubredditRecommendation, len(DefaultRecommendations))
			copy(out, DefaultRecommendations)
			return out, nil
		}
		if err := json.Unmarshal([]byte(match), &payload); err != nil {
			return nil, fmt.Errorf("decode recommendations: %w", err)
		}
	}

	recs := make([]entities.SubredditRecommendation, 0, len(payload.Subreddits))
	for _, s := range payload.Subreddits {
		recs = append(recs, entities.SubredditRecommendation{
			Name:        s.Name,
			DisplayName: s.DisplayName,
			Description: s.Description,
			Subscribers: int(math.Round(s.Subscribers)),
			Activity:    strings.ToLower(s.Activity),
			MatchScore:  int(math.Round(s.MatchScore)),
		})
	}
	return recs, nil
}

// TrendSearch is a summary of current Reddit discussion on a query
type TrendSearch struct {
	Trends      []string `json:"trends"`
	Discussions []string `json:"discussions"`
}

// SearchRedditTrends summarizes what Reddit is discussing about query. It
// never fails: any upstream or decoding problem yields empty lists.
func (c *Client) SearchRedditTrends(ctx context.Context, query string) TrendSearch {
	empty := TrendSearch{Trends: []string{}, Discussions: []string{}}
	noRelated := false

	content, err := c.complete(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: trendsSystemPrompt},
			{Role: "user", Content: "Search Reddit for trends and discussions about: " + query},
		},
		MaxTokens:              800,
		Temperature:            0.3,
		SearchDomainFilter:     []string{"reddit.com"},
		ReturnRelatedQuestions: &noRelated,
	})
	if err != nil {
		c.logger.Warn("Perplexity trend search failed", zap.String("query", query), zap.Error(err))
		return empty
	}
	if content == "" {
		return empty
	}

	var result TrendSearch
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		c.logger.Debug("Perplexity trend search returned non-JSON content", zap.Error(err))
		return empty
	}
	if result.Trends == nil {
		result.Trends = []string{}
	}
	if result.Discussions == nil {
		result.Discussions = []string{}
	}
	return result
}

func (c *Client) complete(ctx context.Context, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	var content string
	err = c.breaker.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return resilience.ClientError(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("perplexity request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			statusErr := fmt.Errorf("perplexity API error: %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(snippet)))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return resilience.ClientError(statusErr)
			}
			return statusErr
		}

		var cr chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return fmt.Errorf("decode perplexity response: %w", err)
		}
		if len(cr.Choices) > 0 {
			content = strings.TrimSpace(cr.Choices[0].Message.Content)
		}
		return nil
	})
	return content, err
}
