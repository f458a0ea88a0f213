// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package shortener maps long URLs to six character ids and back.
package shortener

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/ecosystem/internal/cache"
	"github.com/ManuGH/ecosystem/internal/log"
	"github.com/ManuGH/ecosystem/internal/metrics"
	"github.com/ManuGH/ecosystem/internal/telemetry"
)

const (
	// IDLength is the length of every generated id.
	IDLength = 6
	// Alphabet is the nanoid alphabet ids are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	// MaxURLLength bounds accepted URLs.
	MaxURLLength = 2048

	maxAttempts = 5
)

var (
	// ErrNotFound is returned when an id has no stored URL.
	ErrNotFound = errors.New("short url not found")
	// ErrInvalidURL is returned for URLs that cannot be shortened.
	ErrInvalidURL = errors.New("invalid url")
	// ErrIDConflict is returned by a Store when the id already maps to a different URL.
	ErrIDConflict = errors.New("id already assigned")
	// ErrIDExhausted is returned when no free id was found within the retry budget.
	ErrIDExhausted = errors.New("could not allocate a unique id")
)

// IDGenerator produces candidate ids.
type IDGenerator func() (string, error)

// NewID returns a random id of IDLength characters from Alphabet.
func NewID() (string, error) {
	return gonanoid.Generate(Alphabet, IDLength)
}

// Options tunes a Service.
type Options struct {
	CacheTTL time.Duration
	NewID    IDGenerator // defaults to NewID
}

// Service implements shorten and resolve on top of a Store and a Cache.
type Service struct {
	store  Store
	cache  cache.Cache
	ttl    time.Duration
	newID  IDGenerator
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewService creates a Service. A nil cache disables caching.
func NewService(store Store, c cache.Cache, opts Options) *Service {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if opts.NewID == nil {
		opts.NewID = NewID
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &Service{
		store:  store,
		cache:  c,
		ttl:    opts.CacheTTL,
		newID:  opts.NewID,
		logger: log.WithComponent("shortener"),
		tracer: telemetry.Tracer("shortener"),
	}
}

// ValidateURL checks that raw is an absolute http or https URL with a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if len(raw) > MaxURLLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidURL, MaxURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// ValidID reports whether id has the shape of a generated id.
func ValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !strings.ContainsRune(Alphabet, rune(id[i])) {
			return false
		}
	}
	return true
}

// Shorten stores rawURL and returns its id. A URL that is already stored
// keeps its existing id.
func (s *Service) Shorten(ctx context.Context, rawURL string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "shortener.shorten")
	defer span.End()

	if err := ValidateURL(rawURL); err != nil {
		metrics.RecordShorten("invalid")
		span.SetStatus(codes.Error, "invalid url")
		return "", err
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate, err := s.newID()
		if err != nil {
			metrics.RecordShorten("error")
			return "", fmt.Errorf("generate id: %w", err)
		}

		id, err := s.store.Shorten(ctx, candidate, rawURL)
		if errors.Is(err, ErrIDConflict) {
			metrics.RecordShortenCollision()
			s.logger.Debug().
				Str(log.FieldEvent, "shortener.id_collision").
				Str(log.FieldShortID, candidate).
				Int("attempt", attempt).
				Msg("generated id already taken, retrying")
			continue
		}
		if err != nil {
			metrics.RecordShorten("error")
			span.RecordError(err)
			span.SetStatus(codes.Error, "store failure")
			return "", fmt.Errorf("store url: %w", err)
		}

		s.cache.Set(ctx, id, rawURL, s.ttl)
		span.SetAttributes(telemetry.ShortenerAttributes(id, "")...)
		metrics.RecordShorten("created")
		s.logger.Info().
			Str(log.FieldEvent, "shortener.shortened").
			Str(log.FieldShortID, id).
			Msg("url shortened")
		return id, nil
	}

	metrics.RecordShorten("error")
	span.SetStatus(codes.Error, "id space exhausted")
	return "", ErrIDExhausted
}

// Resolve returns the URL stored for id.
func (s *Service) Resolve(ctx context.Context, id string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "shortener.resolve")
	defer span.End()
	span.SetAttributes(telemetry.ShortenerAttributes(id, "")...)

	if !ValidID(id) {
		metrics.RecordResolve("not_found")
		return "", ErrNotFound
	}

	if u, ok := s.cache.Get(ctx, id); ok {
		span.SetAttributes(telemetry.CacheHitAttribute(true))
		metrics.RecordResolve("found")
		return u, nil
	}
	span.SetAttributes(telemetry.CacheHitAttribute(false))

	u, err := s.store.Get(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		metrics.RecordResolve("not_found")
		return "", ErrNotFound
	case err != nil:
		metrics.RecordResolve("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failure")
		return "", fmt.Errorf("load url: %w", err)
	}

	s.cache.Set(ctx, id, u, s.ttl)
	metrics.RecordResolve("found")
	return u, nil
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
