package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nexakreation/Wikiplant2/internal/domain"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
	"github.com/Nexakreation/Wikiplant2/internal/plantrecord"
)

const (
	defaultMaxAttempts = 5
	defaultPause       = 1 * time.Second
)

// ErrIncomplete is returned when no attempt produced all required fields.
var ErrIncomplete = errors.New("generated description incomplete")

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts int
	Pause       time.Duration
}

// DefaultRetryConfig returns five attempts with a one second pause.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: defaultMaxAttempts,
		Pause:       defaultPause,
	}
}

// Result is a complete generated description.
type Result struct {
	Text     string
	Record   plantrecord.Record
	Attempts int
}

// Retrier re-asks the model until its answer parses into a complete record.
type Retrier struct {
	gen    Generator
	cfg    RetryConfig
	logger *observability.Logger
}

// NewRetrier creates a Retrier. A non-positive MaxAttempts or negative Pause
// takes the default.
func NewRetrier(gen Generator, cfg RetryConfig, logger *observability.Logger) *Retrier {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Pause < 0 {
		cfg.Pause = def.Pause
	}
	return &Retrier{gen: gen, cfg: cfg, logger: logger.WithComponent("retry")}
}

// UntilComplete calls the generator until the parsed record has a common
// name, scientific name and description. A generator error counts as an
// incomplete attempt. The pause is fixed and skipped after the last attempt.
func (r *Retrier) UntilComplete(ctx context.Context, p Prompt) (*Result, error) {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := r.gen.Generate(ctx, p)
		if err == nil {
			rec := plantrecord.Parse(text)
			if rec.Complete() {
				return &Result{Text: text, Record: rec, Attempts: attempt}, nil
			}
			lastErr = fmt.Errorf("%w: missing %v", ErrIncomplete, missing(rec))
		} else {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		}

		if attempt == r.cfg.MaxAttempts {
			break
		}

		r.logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", r.cfg.MaxAttempts).
			Err(lastErr).
			Msg("Incomplete plant description, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.cfg.Pause):
		}
	}

	return nil, domain.IncompleteError(
		"Unable to fetch plant information. Please try again later or search with the scientific name.",
		fmt.Errorf("%w after %d attempts (last: %v)", ErrIncomplete, r.cfg.MaxAttempts, lastErr))
}

func missing(rec plantrecord.Record) []string {
	var out []string
	for _, l := range plantrecord.RequiredLabels {
		if _, ok := rec.Get(l); !ok {
			out = append(out, l)
		}
	}
	return out
}
