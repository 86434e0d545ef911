package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"bindery/internal/config"
	"bindery/internal/extract"
	"bindery/internal/library"
	"bindery/internal/llm"
	"bindery/internal/logging"
	"bindery/internal/lookup"
	"bindery/internal/notifications"
	"bindery/internal/organizer"
	"bindery/internal/resolver"
	"bindery/internal/scanner"
	"bindery/internal/tags"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// resolverOptions selects the optional collaborators a command needs. The
// LLM backend is only constructed on demand: its configuration (backend
// name, credentials) is validated fatally at that point, and commands that
// never touch the model should not fail on a missing API key.
type resolverOptions struct {
	withLLM bool
}

// withResolver wires a Resolver over an exclusively-locked store, runs fn,
// and releases the store afterwards.
func (c *commandContext) withResolver(opts resolverOptions, fn func(*resolver.Resolver) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	store, err := library.OpenStore(library.StoreOptions{
		Path:         cfg.EntriesPath(),
		FallbackPath: cfg.EntriesFallbackPath(),
		LockPath:     cfg.StoreLockPath(),
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	cache := lookup.NewCache(cfg.LookupCachePath(), time.Duration(cfg.Lookup.CacheTTLHours)*time.Hour, logger)
	reader := tags.NewFFprobeReader(tags.WithBinary(cfg.FFprobeBinary()))

	deps := resolver.Dependencies{
		Store:     store,
		Extractor: extract.New(reader, logger),
		Lookup:    lookup.New(cfg, cache, logger),
		Placer:    organizer.New(cfg, logger),
		Discover:  scanner.New(cfg.Paths.LibraryDir, cfg.Scan.AudioExtensions, logger),
		Notifier:  notifications.NewService(cfg),
		Logger:    logger,
	}
	if opts.withLLM {
		suggester, err := llm.New(cfg, logger)
		if err != nil {
			return err
		}
		deps.Suggester = suggester
	}

	return fn(resolver.New(deps))
}

// withCache wires just the lookup cache for maintenance commands.
func (c *commandContext) withCache(fn func(*lookup.Cache) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	cache := lookup.NewCache(cfg.LookupCachePath(), time.Duration(cfg.Lookup.CacheTTLHours)*time.Hour, logger)
	return fn(cache)
}
