package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Engine implements sign-up, sign-in, sessions, social sign-in, organizations and invitations.
type Engine struct {
	db        *gorm.DB
	opts      Options
	states    fiber.Storage
	providers map[string]SocialProvider
	now       func() time.Time
}

// Option customizes an Engine.
type Option func(e *Engine)

// WithSocialProvider registers a social sign-in provider under its id.
func WithSocialProvider(p SocialProvider) Option {
	return func(e *Engine) {
		e.providers[p.ID()] = p
	}
}

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine. states keeps oauth state between redirect and callback
// and may be nil when no social provider is registered.
func New(db *gorm.DB, opts Options, states fiber.Storage, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, ErrNilDB
	}

	e := &Engine{
		db:        db,
		opts:      opts.withDefaults(),
		states:    states,
		providers: make(map[string]SocialProvider),
		now:       time.Now,
	}

	for _, o := range options {
		o(e)
	}

	if len(e.providers) > 0 && states == nil {
		return nil, ErrNilStateStorage
	}

	return e, nil
}

// Options returns the effective configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// Providers returns the ids of the registered social providers.
func (e *Engine) Providers() []string {
	ids := make([]string, 0, len(e.providers))
	for id := range e.providers {
		ids = append(ids, id)
	}

	return ids
}

// HasProvider reports whether a social provider is registered.
func (e *Engine) HasProvider(id string) bool {
	_, ok := e.providers[id]

	return ok
}
