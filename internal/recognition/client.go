// Package recognition calls the Plant.id identification API.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/Nexakreation/Wikiplant2/internal/domain"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
)

const defaultEndpoint = "https://api.plant.id/v2/identify"

// ErrNoCredentials is returned when no Plant.id key is configured.
var ErrNoCredentials = errors.New("plant.id API key not configured")

// Upload is an image file received from a form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Config configures a Client.
type Config struct {
	Endpoint     string
	APIKey       string
	SecondaryKey string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Client posts images to Plant.id. When the primary key fails and a
// secondary key is set, the request is sent once more with it.
type Client struct {
	endpoint   string
	keys       []string
	httpClient *http.Client
	logger     *observability.Logger
}

// NewClient creates a recognition client.
func NewClient(cfg Config, logger *observability.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	var keys []string
	for _, k := range []string{cfg.APIKey, cfg.SecondaryKey} {
		if k != "" {
			keys = append(keys, k)
		}
	}

	return &Client{
		endpoint:   endpoint,
		keys:       keys,
		httpClient: hc,
		logger:     logger.WithComponent("recognition"),
	}
}

// Configured reports whether at least one key is set.
func (c *Client) Configured() bool {
	return len(c.keys) > 0
}

// Identify sends the image and returns Plant.id's JSON unchanged.
func (c *Client) Identify(ctx context.Context, up Upload) (json.RawMessage, error) {
	if len(up.Data) == 0 {
		return nil, domain.ValidationError("No image provided", nil)
	}
	if !c.Configured() {
		return nil, domain.ConfigError("Plant.id API key not configured", ErrNoCredentials)
	}

	body, contentType, err := encodeMultipart(up)
	if err != nil {
		return nil, fmt.Errorf("encode plant.id request: %w", err)
	}

	var lastErr error
	for i, key := range c.keys {
		raw, err := c.post(ctx, key, body, contentType)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if i+1 < len(c.keys) {
			c.logger.Warn().Err(err).Msg("Plant.id request failed with primary key, retrying with secondary key")
		}
	}
	return nil, domain.UpstreamError("Failed to identify plant", lastErr)
}

func (c *Client) post(ctx context.Context, key string, body []byte, contentType string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Api-Key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read plant.id response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("plant.id returned status %d", resp.StatusCode)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("plant.id returned invalid JSON")
	}
	return json.RawMessage(data), nil
}

func encodeMultipart(up Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	filename := up.Filename
	if filename == "" {
		filename = "image"
	}
	ct := up.ContentType
	if ct == "" {
		ct = http.DetectContentType(up.Data)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, filename))
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// Suggestion is the top recognition result.
type Suggestion struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// TopSuggestion reads the first entry of suggestions[] from a Plant.id
// response.
func TopSuggestion(raw json.RawMessage) (Suggestion, bool) {
	var resp struct {
		Suggestions []struct {
			PlantName   string  `json:"plant_name"`
			Probability float64 `json:"probability"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || len(resp.Suggestions) == 0 {
		return Suggestion{}, false
	}
	top := resp.Suggestions[0]
	if top.PlantName == "" {
		return Suggestion{}, false
	}
	return Suggestion{Name: top.PlantName, Confidence: top.Probability}, true
}
