// Package session keeps the last plant a visitor viewed, server-side, keyed
// by a random cookie id.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Nexakreation/Wikiplant2/internal/cache"
	"github.com/Nexakreation/Wikiplant2/internal/plantrecord"
)

// ErrNoSession is returned by Load when the request carries no usable
// session or the stored entry has expired.
var ErrNoSession = errors.New("no plant in session")

const defaultCookieName = "wikiplant_session"

// Entry is the last-viewed plant.
type Entry struct {
	Record   plantrecord.Record `json:"record"`
	ImageURL string             `json:"imageUrl"`
	SavedAt  time.Time          `json:"savedAt"`
}

// Config configures a Store.
type Config struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Store saves entries in the cache under the cookie's session id.
type Store struct {
	cache cache.Client
	cfg   Config
	now   func() time.Time
}

// NewStore creates a session store backed by c.
func NewStore(c cache.Client, cfg Config) *Store {
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Hour
	}
	return &Store{cache: c, cfg: cfg, now: time.Now}
}

// Save stores e and sets the session cookie on w, reusing the id from r
// when it has one.
func (s *Store) Save(ctx context.Context, w http.ResponseWriter, r *http.Request, e Entry) error {
	id, ok := s.sessionID(r)
	if !ok {
		id = uuid.NewString()
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = s.now().UTC()
	}

	if err := cache.SetJSON(ctx, s.cache, key(id), e, s.cfg.TTL); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Load returns the entry for the request's session.
func (s *Store) Load(ctx context.Context, r *http.Request) (Entry, error) {
	id, ok := s.sessionID(r)
	if !ok {
		return Entry{}, ErrNoSession
	}

	var e Entry
	if err := cache.GetJSON(ctx, s.cache, key(id), &e); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return Entry{}, ErrNoSession
		}
		return Entry{}, fmt.Errorf("load session: %w", err)
	}
	return e, nil
}

// Clear removes the session entry and expires the cookie.
func (s *Store) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if id, ok := s.sessionID(r); ok {
		if err := s.cache.Delete(ctx, key(id)); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	http.SetCookie(w, &http.Cookie{Name: s.cfg.CookieName, Value: "", Path: "/", MaxAge: -1})
	return nil
}

func (s *Store) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.cfg.CookieName)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func key(id string) string {
	return cache.Key("session", id)
}
