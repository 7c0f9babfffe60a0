// Package generate wraps the Gemini generative-language API and the
// fixed-pause retry loop used to obtain complete plant descriptions.
package generate

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/Nexakreation/Wikiplant2/internal/domain"
)

// Image is an inline image sent with a prompt.
type Image struct {
	Data []byte
	MIME string
}

// Prompt is one generation request.
type Prompt struct {
	Text  string
	Image *Image
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint. Used by tests.
	BaseURL    string
	HTTPClient *http.Client
}

// Gemini holds a genai client shared by every model.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates the shared client. It fails when no key is configured.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, domain.ConfigError("Google API key not configured", nil)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, domain.ConfigError("failed to create Gemini client", err)
	}
	return &Gemini{client: client}, nil
}

// Model returns a Generator bound to one model name.
func (g *Gemini) Model(name string) *GeminiModel {
	return &GeminiModel{client: g.client, model: name}
}

// GeminiModel generates with a single Gemini model.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// Name returns the model name.
func (m *GeminiModel) Name() string {
	return m.model
}

// Generate sends the prompt text, and the image when present, as one user turn.
func (m *GeminiModel) Generate(ctx context.Context, p Prompt) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(p.Text)}
	if p.Image != nil && len(p.Image.Data) > 0 {
		mime := p.Image.MIME
		if mime == "" {
			mime = http.DetectContentType(p.Image.Data)
		}
		parts = append(parts, genai.NewPartFromBytes(p.Image.Data, mime))
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return "", domain.UpstreamError(fmt.Sprintf("gemini %s generation failed", m.model), err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", domain.UpstreamError(fmt.Sprintf("gemini %s returned no text", m.model), nil)
	}
	return text, nil
}
