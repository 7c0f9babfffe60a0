package recognition

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nexakreation/Wikiplant2/internal/domain"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
)

const plantIDResponse = `{"id":1,"suggestions":[{"plant_name":"Rosa canina","probability":0.93},{"plant_name":"Rosa rubiginosa","probability":0.04}]}`

type recorder struct {
	mu    sync.Mutex
	keys  []string
	files []string
}

func newPlantIDServer(t *testing.T, rec *recorder, okKeys ...string) *httptest.Server {
	t.Helper()
	allowed := map[string]bool{}
	for _, k := range okKeys {
		allowed[k] = true
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		file, header, err := r.FormFile("images")
		if !assert.NoError(t, err) {
			http.Error(w, "no images", http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)

		rec.mu.Lock()
		rec.keys = append(rec.keys, r.Header.Get("Api-Key"))
		rec.files = append(rec.files, header.Filename+":"+string(data))
		rec.mu.Unlock()

		if !allowed[r.Header.Get("Api-Key")] {
			http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, plantIDResponse)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testUpload() Upload {
	return Upload{Filename: "rose.jpg", ContentType: "image/jpeg", Data: []byte("jpegbytes")}
}

func TestClient_Identify(t *testing.T) {
	ctx := context.Background()

	t.Run("primary key succeeds", func(t *testing.T) {
		rec := &recorder{}
		srv := newPlantIDServer(t, rec, "primary")
		c := NewClient(Config{Endpoint: srv.URL, APIKey: "primary", SecondaryKey: "secondary"}, observability.Nop())

		raw, err := c.Identify(ctx, testUpload())
		require.NoError(t, err)
		assert.JSONEq(t, plantIDResponse, string(raw))
		assert.Equal(t, []string{"primary"}, rec.keys)
		assert.Equal(t, []string{"rose.jpg:jpegbytes"}, rec.files)
	})

	t.Run("falls back to secondary key once", func(t *testing.T) {
		rec := &recorder{}
		srv := newPlantIDServer(t, rec, "secondary")
		c := NewClient(Config{Endpoint: srv.URL, APIKey: "primary", SecondaryKey: "secondary"}, observability.Nop())

		raw, err := c.Identify(ctx, testUpload())
		require.NoError(t, err)
		assert.JSONEq(t, plantIDResponse, string(raw))
		assert.Equal(t, []string{"primary", "secondary"}, rec.keys)
	})

	t.Run("both keys fail", func(t *testing.T) {
		rec := &recorder{}
		srv := newPlantIDServer(t, rec)
		c := NewClient(Config{Endpoint: srv.URL, APIKey: "primary", SecondaryKey: "secondary"}, observability.Nop())

		_, err := c.Identify(ctx, testUpload())
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeUpstream, domain.TypeOf(err))
		assert.Equal(t, "Failed to identify plant", domain.MessageOf(err))
		assert.Len(t, rec.keys, 2)
	})

	t.Run("no secondary key means a single request", func(t *testing.T) {
		rec := &recorder{}
		srv := newPlantIDServer(t, rec)
		c := NewClient(Config{Endpoint: srv.URL, APIKey: "primary"}, observability.Nop())

		_, err := c.Identify(ctx, testUpload())
		require.Error(t, err)
		assert.Equal(t, []string{"primary"}, rec.keys)
	})

	t.Run("no credentials", func(t *testing.T) {
		c := NewClient(Config{Endpoint: "http://127.0.0.1:0"}, observability.Nop())
		assert.False(t, c.Configured())

		_, err := c.Identify(ctx, testUpload())
		assert.ErrorIs(t, err, ErrNoCredentials)
		assert.Equal(t, domain.ErrorTypeConfig, domain.TypeOf(err))
	})

	t.Run("empty image", func(t *testing.T) {
		c := NewClient(Config{APIKey: "primary"}, observability.Nop())

		_, err := c.Identify(ctx, Upload{})
		assert.Equal(t, domain.ErrorTypeValidation, domain.TypeOf(err))
	})
}

func TestTopSuggestion(t *testing.T) {
	s, ok := TopSuggestion(json.RawMessage(plantIDResponse))
	require.True(t, ok)
	assert.Equal(t, Suggestion{Name: "Rosa canina", Confidence: 0.93}, s)

	for _, raw := range []string{`{}`, `{"suggestions":[]}`, `not json`, `{"suggestions":[{"probability":0.5}]}`} {
		_, ok := TopSuggestion(json.RawMessage(raw))
		assert.False(t, ok, raw)
	}
}
