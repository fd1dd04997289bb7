// Package reddit reads public subreddit data through Reddit's application-only
// OAuth API.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"subscout/application/ports"
	"subscout/domain/core/entities"
	pkgerrors "subscout/pkg/errors"
	"subscout/pkg/resilience"
)

const (
	DefaultAuthURL   = "https://www.reddit.com/api/v1/access_token"
	DefaultAPIURL    = "https://oauth.reddit.com"
	DefaultUserAgent = "SubScout/1.0.0"

	// tokenSkew is subtracted from the token lifetime so a token is never
	// used in its last minute.
	tokenSkew = 60 * time.Second
)

// ErrNotConfigured is returned when no API credentials are set
var ErrNotConfigured = errors.New("reddit API credentials not configured")

type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	AuthURL      string
	APIURL       string
	Timeout      time.Duration
}

// Client implements ports.PostSource
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *resilience.Breaker
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

var _ ports.PostSource = (*Client)(nil)

func NewClient(cfg Config, breaker *resilience.Breaker, logger *zap.Logger) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
		now:     time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type aboutResponse struct {
	Data struct {
		DisplayName         string `json:"display_name"`
		DisplayNamePrefixed string `json:"display_name_prefixed"`
		Title               string `json:"title"`
		PublicDescription   string `json:"public_description"`
		Subscribers         int    `json:"subscribers"`
		ActiveUserCount     int    `json:"active_user_count"`
		Over18              bool   `json:"over18"`
	} `json:"data"`
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				URL         string  `json:"url"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
				Author      string  `json:"author"`
				Permalink   string  `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
		After *string `json:"after"`
	} `json:"data"`
}

// About returns the live metadata of a subreddit
func (c *Client) About(ctx context.Context, subreddit string) (*entities.SubredditInfo, error) {
	var resp aboutResponse
	if err := c.get(ctx, "/r/"+url.PathEscape(subreddit)+"/about", nil, &resp); err != nil {
		return nil, err
	}

	description := resp.Data.PublicDescription
	if description == "" {
		description = resp.Data.Title
	}
	return &entities.SubredditInfo{
		Name:        resp.Data.DisplayName,
		DisplayName: resp.Data.DisplayNamePrefixed,
		Description: description,
		Subscribers: resp.Data.Subscribers,
		ActiveUsers: resp.Data.ActiveUserCount,
		IsNSFW:      resp.Data.Over18,
	}, nil
}

// HotPosts returns up to limit posts from the subreddit's hot listing
func (c *Client) HotPosts(ctx context.Context, subreddit string, limit int) ([]ports.RawPost, error) {
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	var resp listingResponse
	if err := c.get(ctx, "/r/"+url.PathEscape(subreddit)+"/hot", query, &resp); err != nil {
		return nil, err
	}
	return toPosts(resp), nil
}

// Search runs a relevance search restricted to the subreddit
func (c *Client) Search(ctx context.Context, subreddit, q string, limit int) ([]ports.RawPost, error) {
	query := url.Values{
		"q":           {q},
		"restrict_sr": {"1"},
		"sort":        {"relevance"},
		"limit":       {strconv.Itoa(limit)},
	}
	var resp listingResponse
	if err := c.get(ctx, "/r/"+url.PathEscape(subreddit)+"/search", query, &resp); err != nil {
		return nil, err
	}
	return toPosts(resp), nil
}

func toPosts(resp listingResponse) []ports.RawPost {
	posts := make([]ports.RawPost, 0, len(resp.Data.Children))
	for _, child := range resp.Data.Children {
		d := child.Data
		posts = append(posts, ports.RawPost{
			Title:     d.Title,
			Content:   d.Selftext,
			URL:       d.URL,
			Score:     d.Score,
			Comments:  d.NumComments,
			CreatedAt: int64(d.CreatedUTC * 1000),
			Author:    d.Author,
			Permalink: "https://reddit.com" + d.Permalink,
		})
	}
	return posts
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		token, err := c.accessToken(ctx)
		if err != nil {
			return err
		}

		endpoint := strings.TrimRight(c.cfg.APIURL, "/") + path
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return resilience.ClientError(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("User-Agent", c.cfg.UserAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("reddit request %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			c.invalidateToken()
		}
		if err := statusError(resp, "reddit API error"); err != nil {
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode reddit response: %w", err)
		}
		return nil
	})
}

// accessToken returns the cached token or fetches a new one
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return "", resilience.ClientError(ErrNotConfigured)
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", resilience.ClientError(err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("reddit auth: %w", err)
	}
	defer resp.Body.Close()

	if err := statusError(resp, "reddit auth failed"); err != nil {
		return "", err
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode reddit token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("reddit auth returned no access token")
	}

	c.token = tr.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenSkew)
	c.logger.Debug("Reddit access token refreshed", zap.Time("expiresAt", c.expiresAt))
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// statusError maps non-2xx responses. 4xx other than 429 are the caller's
// fault and do not count against the breaker.
func statusError(resp *http.Response, prefix string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := fmt.Errorf("%s: %d %s: %s", prefix, resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return resilience.ClientError(pkgerrors.NewNotFoundError("subreddit").WithCause(err))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return err
	default:
		return resilience.ClientError(err)
	}
}
