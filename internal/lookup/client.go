// Package lookup resolves entry evidence against external bibliographic
// catalogs. Providers are consulted in a fixed order behind a shared rate
// limiter, and matches and clean misses are cached by query fingerprint so
// repeated resolutions stay off the network.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"bindery/internal/config"
	"bindery/internal/logging"
)

// provider is one bibliographic catalog behind the client.
type provider interface {
	Name() string
	Search(ctx context.Context, query Query) (Match, bool, error)
}

var (
	_ provider = (*openLibraryProvider)(nil)
	_ provider = (*googleBooksProvider)(nil)
)

// Client runs lookups against the configured providers in order. Provider
// failures degrade to the next provider rather than failing the search.
type Client struct {
	providers []provider
	cache     *Cache
	logger    *slog.Logger
}

// Option adjusts client construction.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = client }
}

// New builds a client from the lookup configuration. Both providers share
// one rate limiter, so the configured request interval holds across
// provider order and work detail sub-fetches alike.
func New(cfg *config.Config, cache *Cache, logger *slog.Logger, opts ...Option) *Client {
	options := clientOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.Lookup.TimeoutSeconds) * time.Second}
	}
	limiter := rate.NewLimiter(rate.Every(time.Duration(cfg.Lookup.RequestIntervalMS)*time.Millisecond), 1)
	log := logging.NewComponentLogger(logger, "lookup")
	return &Client{
		providers: []provider{
			&openLibraryProvider{baseURL: cfg.Lookup.OpenLibraryBaseURL, client: httpClient, limiter: limiter, logger: log},
			&googleBooksProvider{baseURL: cfg.Lookup.GoogleBooksBaseURL, client: httpClient, limiter: limiter, logger: log},
		},
		cache:  cache,
		logger: log,
	}
}

// Search resolves the query to at most one match. Queries with neither a
// title nor an author are refused before the cache or the network is
// touched. Matches and clean misses are cached under the original query
// fingerprint; a miss reached through a provider error is not, so the next
// search retries once the outage clears.
func (c *Client) Search(ctx context.Context, query Query) (Match, bool) {
	log := logging.WithContext(ctx, c.logger)
	if strings.TrimSpace(query.Title) == "" && strings.TrimSpace(query.Author) == "" {
		log.Debug("Refusing lookup without title or author")
		return Match{}, false
	}

	fingerprint := query.Fingerprint()
	if match, found, ok := c.cache.Lookup(fingerprint); ok {
		log.Debug("Lookup served from cache", logging.Bool("found", found))
		return match, found
	}

	errored := false
	for _, p := range c.providers {
		match, found, err := p.Search(ctx, query)
		if err != nil {
			errored = true
			logging.WarnWithContext(log, "Provider lookup failed", "lookup_provider_error",
				logging.String(logging.FieldProvider, p.Name()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "falling through to the next provider"))
			continue
		}
		if !found {
			log.Debug("Provider produced no acceptable candidate", logging.String(logging.FieldProvider, p.Name()))
			continue
		}
		attrs := logging.DecisionAttrs("lookup_match", "accepted", "candidate score cleared the provider threshold")
		attrs = append(attrs,
			logging.String(logging.FieldProvider, p.Name()),
			logging.String("matched_title", match.Title))
		log.Info("Accepted provider match", logging.Args(attrs...)...)
		c.storeResult(log, fingerprint, match, true)
		return match, true
	}

	attrs := logging.DecisionAttrs("lookup_match", "rejected", "no provider produced an acceptable candidate")
	log.Info("Lookup exhausted without a match", logging.Args(attrs...)...)
	if errored {
		// A provider outage is not a genuine miss. Leave the query
		// uncached so the next resolution retries instead of pinning
		// the failure for the full TTL.
		log.Debug("Skipping negative cache after provider error")
		return Match{}, false
	}
	c.storeResult(log, fingerprint, Match{}, false)
	return Match{}, false
}

// Cache exposes the backing cache for maintenance commands.
func (c *Client) Cache() *Cache {
	return c.cache
}

func (c *Client) storeResult(log *slog.Logger, fingerprint string, match Match, found bool) {
	if err := c.cache.Store(fingerprint, match, found); err != nil {
		log.Warn("Failed to persist lookup cache", logging.Error(err))
	}
}

// fetchJSON waits for the shared limiter, performs the GET, and decodes the
// JSON body into out. Any non-200 status is an error.
func fetchJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, rawURL string, out any) error {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for request slot: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
