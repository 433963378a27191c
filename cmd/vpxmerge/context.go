package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"vpxmerge/internal/audit"
	"vpxmerge/internal/config"
	"vpxmerge/internal/feedcache"
	"vpxmerge/internal/logging"
	"vpxmerge/internal/patches"
	"vpxmerge/internal/vpsdb"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	cache *feedcache.Cache
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
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
			c.loggerErr = fmt.Errorf("setup logging: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openCache() (*feedcache.Cache, error) {
	if c.cache != nil {
		return c.cache, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	cache, err := feedcache.Open(cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("open feed cache: %w", err)
	}
	c.cache = cache
	return cache, nil
}

// feedClient returns nil when the metadata feed is disabled.
func (c *commandContext) feedClient() (*vpsdb.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Metadata.Enabled {
		return nil, nil
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	cache, err := c.openCache()
	if err != nil {
		return nil, err
	}
	return vpsdb.New(cfg.Metadata.FeedURL,
		vpsdb.WithStore(cache),
		vpsdb.WithMaxAge(cfg.FeedMaxAge()),
		vpsdb.WithHTTPClient(newHTTPClient(time.Duration(cfg.Metadata.RequestTimeout)*time.Second)),
		vpsdb.WithLogger(logger),
	)
}

// patchClient returns nil when patch lookups are disabled.
func (c *commandContext) patchClient() (*patches.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Patches.Enabled {
		return nil, nil
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return patches.New(cfg.Patches.Repository,
		patches.WithAPIURL(cfg.Patches.APIURL),
		patches.WithRef(cfg.Patches.Ref),
		patches.WithToken(cfg.Patches.Token),
		patches.WithListingCacheSize(cfg.Patches.ListingCacheSize),
		patches.WithTimeout(time.Duration(cfg.Patches.RequestTimeout)*time.Second),
		patches.WithLogger(logger),
	)
}

type auditFlags struct {
	noFeed    bool
	noPatches bool
	workers   int
}

func (f *auditFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noFeed, "no-feed", false, "Skip metadata feed resolution")
	cmd.Flags().BoolVar(&f.noPatches, "no-patches", false, "Skip patch repository lookups")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Parallel table workers (default: audit.workers)")
}

func (c *commandContext) auditor(flags auditFlags) (*audit.Auditor, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	opts := []audit.Option{audit.WithLogger(logger), audit.WithWorkers(flags.workers)}
	if !flags.noFeed {
		feed, err := c.feedClient()
		if err != nil {
			return nil, err
		}
		if feed != nil {
			opts = append(opts, audit.WithCatalogSource(feed))
		}
	}
	if !flags.noPatches {
		finder, err := c.patchClient()
		if err != nil {
			return nil, err
		}
		if finder != nil {
			opts = append(opts, audit.WithPatchFinder(finder))
		}
	}
	return audit.New(cfg, opts...)
}

func (c *commandContext) close() error {
	if c.cache == nil {
		return nil
	}
	err := c.cache.Close()
	c.cache = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
