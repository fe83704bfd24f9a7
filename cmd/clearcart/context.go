package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"clearcart/internal/archive"
	"clearcart/internal/cart"
	"clearcart/internal/config"
	"clearcart/internal/logging"
	"clearcart/internal/rights"
	"clearcart/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the cart store for the duration of fn. The store holds the
// single-instance lock, so nesting withStore calls deadlocks; each command
// opens it once.
func (c *commandContext) withStore(fn func(*config.Config, *cart.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := cart.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// newEngine assembles the workflow engine and its collaborators from
// configuration. The checker is seeded with authorizations accumulated in
// earlier sessions.
func (c *commandContext) newEngine(cmd *cobra.Command, cfg *config.Config, store *cart.Store) (*workflow.Engine, *slog.Logger, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("configure logging: %w", err)
	}

	rightsClient, err := rights.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("configure rights client: %w", err)
	}
	checker := rights.NewChecker(rightsClient, rights.WithLogger(logger))
	prior, err := store.AuthorizedIDs(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("load prior authorizations: %w", err)
	}
	checker.Seed(prior)

	archiveClient, err := archive.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("configure archive client: %w", err)
	}
	downloader, err := archive.NewFileDownloader(cfg.Paths.DownloadDir)
	if err != nil {
		return nil, nil, fmt.Errorf("configure downloader: %w", err)
	}
	fulfiller := archive.NewFulfiller(archiveClient, downloader,
		archive.WithPollInterval(time.Duration(cfg.Archive.PollIntervalSeconds)*time.Second),
		archive.WithMaxAttempts(cfg.Archive.PollMaxAttempts),
		archive.WithFulfillerLogger(logger),
	)

	engine := workflow.NewEngine(store, checker, fulfiller, workflow.WithEngineLogger(logger))
	return engine, logger, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
