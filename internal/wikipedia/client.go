// Package wikipedia talks to Wikipedia's public APIs and resolves plant names
// to usable Commons images.
package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Nexakreation/Wikiplant2/internal/domain"
)

// ErrPageNotFound is returned when Wikipedia has no page for a title.
var ErrPageNotFound = errors.New("wikipedia page not found")

const defaultBaseURL = "https://en.wikipedia.org"

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the parse, query and REST summary endpoints.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a Wikipedia client.
func NewClient(cfg ClientConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		httpClient: hc,
	}
}

// Summary is the subset of the REST page summary Wikiplant uses.
type Summary struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	Thumbnail *struct {
		Source string `json:"source"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"thumbnail,omitempty"`
}

// ThumbnailURL returns the thumbnail source or "".
func (s *Summary) ThumbnailURL() string {
	if s == nil || s.Thumbnail == nil {
		return ""
	}
	return s.Thumbnail.Source
}

// IsDisambiguation reports whether the summary is a disambiguation page.
func (s *Summary) IsDisambiguation() bool {
	return s != nil && s.Type == "disambiguation"
}

// ParseHTML returns the rendered HTML of a page. page may be a title or a
// /wiki/ URL on this client's host.
func (c *Client) ParseHTML(ctx context.Context, page string) (string, error) {
	params := url.Values{
		"action":    {"parse"},
		"format":    {"json"},
		"page":      {c.titleFromPage(page)},
		"prop":      {"text"},
		"redirects": {"1"},
	}

	var resp struct {
		Parse *struct {
			Title string `json:"title"`
			Text  struct {
				HTML string `json:"*"`
			} `json:"text"`
		} `json:"parse"`
		Error *struct {
			Code string `json:"code"`
			Info string `json:"info"`
		} `json:"error"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/w/api.php?"+params.Encode(), &resp); err != nil {
		return "", err
	}
	if resp.Parse == nil {
		if resp.Error != nil && resp.Error.Code != "missingtitle" {
			return "", domain.UpstreamError("wikipedia parse: "+resp.Error.Info, nil)
		}
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, page)
	}
	return resp.Parse.Text.HTML, nil
}

// Summary fetches the REST summary of a title.
func (c *Client) Summary(ctx context.Context, title string) (*Summary, error) {
	var s Summary
	if err := c.getJSON(ctx, c.baseURL+"/api/rest_v1/page/summary/"+escapeTitle(title), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RandomSummary fetches the summary of a random article.
func (c *Client) RandomSummary(ctx context.Context) (*Summary, error) {
	var s Summary
	if err := c.getJSON(ctx, c.baseURL+"/api/rest_v1/page/random/summary", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CategoryMembers lists article titles in a category, dropping namespaced
// titles and "List of" pages.
func (c *Client) CategoryMembers(ctx context.Context, category string) ([]string, error) {
	params := url.Values{
		"action":  {"query"},
		"list":    {"categorymembers"},
		"cmtitle": {"Category:" + category},
		"cmtype":  {"page"},
		"cmlimit": {"500"},
		"format":  {"json"},
	}

	var resp struct {
		Query struct {
			CategoryMembers []struct {
				Title string `json:"title"`
			} `json:"categorymembers"`
		} `json:"query"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/w/api.php?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(resp.Query.CategoryMembers))
	for _, m := range resp.Query.CategoryMembers {
		if strings.Contains(m.Title, ":") || strings.Contains(m.Title, "List of") {
			continue
		}
		titles = append(titles, m.Title)
	}
	return titles, nil
}

// SearchURL is the human-facing search page for query.
func (c *Client) SearchURL(query string) string {
	return c.baseURL + "/w/index.php?search=" + url.QueryEscape(query)
}

// PageURL is the human-facing article URL for title.
func (c *Client) PageURL(title string) string {
	return c.baseURL + "/wiki/" + escapeTitle(title)
}

func (c *Client) titleFromPage(page string) string {
	for _, prefix := range []string{c.baseURL + "/wiki/", defaultBaseURL + "/wiki/"} {
		if strings.HasPrefix(page, prefix) {
			title := strings.TrimPrefix(page, prefix)
			if unescaped, err := url.PathUnescape(title); err == nil {
				title = unescaped
			}
			return strings.ReplaceAll(title, "_", " ")
		}
	}
	return page
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build wikipedia request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.UpstreamError("wikipedia request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return ErrPageNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.UpstreamError(fmt.Sprintf("wikipedia returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return domain.UpstreamError("decode wikipedia response", err)
	}
	return nil
}

func escapeTitle(title string) string {
	return url.PathEscape(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
}
