// Package translate calls the Google Translate v2 API.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Nexakreation/Wikiplant2/internal/domain"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
)

const defaultEndpoint = "https://translation.googleapis.com/language/translate/v2"

// Config configures a Client.
type Config struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client translates text. Failures never surface to callers of Translate:
// the input text is returned instead.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *observability.Logger
}

// NewClient creates a translate client.
func NewClient(cfg Config, logger *observability.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		httpClient: hc,
		logger:     logger.WithComponent("translate"),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Translate returns text translated to target, or text unchanged when the
// translation fails.
func (c *Client) Translate(ctx context.Context, text, target string) string {
	out, err := c.TranslateStrict(ctx, text, target)
	if err != nil {
		c.logger.Warn().Err(err).Str("target", target).Msg("Translation failed, returning original text")
		return text
	}
	return out
}

// TranslateStrict is Translate with the error exposed.
func (c *Client) TranslateStrict(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if target == "" {
		return "", domain.ValidationError("target language is required", nil)
	}
	if c.apiKey == "" {
		return "", domain.ConfigError("Google Translate API key not configured", nil)
	}

	payload, err := json.Marshal(map[string]string{"q": text, "target": target})
	if err != nil {
		return "", fmt.Errorf("encode translate request: %w", err)
	}

	endpoint := c.endpoint + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.UpstreamError("translate request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", domain.UpstreamError(fmt.Sprintf("translate returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", domain.UpstreamError("decode translate response", err)
	}
	if len(decoded.Data.Translations) == 0 {
		return "", domain.UpstreamError("translate returned no translations", nil)
	}
	// v2 returns HTML-escaped text by default.
	return html.UnescapeString(decoded.Data.Translations[0].TranslatedText), nil
}
