package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-studio-mcp/internal/config"
	"github.com/ironsheep/image-studio-mcp/internal/imaging"
	"github.com/ironsheep/image-studio-mcp/internal/inpaint"
	"github.com/ironsheep/image-studio-mcp/internal/server"
	"github.com/ironsheep/image-studio-mcp/internal/storage"
	"github.com/ironsheep/image-studio-mcp/internal/studio"
	"github.com/ironsheep/image-studio-mcp/internal/versions"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
	log        *logrus.Logger
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
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			cfg.LogLevel = *c.logLevelFlag
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
		c.log = cfg.NewLogger(os.Stderr)
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *logrus.Logger {
	if c.log == nil {
		return logrus.StandardLogger()
	}
	return c.log
}

// newLoader builds the image loader. A non-empty localRoot confines local
// file references to that directory.
func (c *commandContext) newLoader(cfg *config.Config, localRoot string) *imaging.Loader {
	fetcher := imaging.NewHTTPFetcher(cfg.AuthToken, cfg.DownloadEndpoint)
	fetcher.LocalRoot = localRoot
	return imaging.NewLoader(
		fetcher,
		imaging.LoaderOptions{
			Timeout:          cfg.LoadTimeout,
			PreviewMaxWidth:  cfg.PreviewMaxWidth,
			PreviewMaxHeight: cfg.PreviewMaxHeight,
			Logger:           c.logger(),
			Cache:            imaging.NewImageCache(),
		},
	)
}

// stack is everything a serving command needs. close releases the sessions
// and the version database.
type stack struct {
	manager  *studio.Manager
	tools    *server.Server
	uploader *storage.Uploader
	close    func()
}

// buildStack wires the studio. restrictLocal confines local file references to
// the storage directory, for servers reachable over the network.
func (c *commandContext) buildStack(ctx context.Context, restrictLocal bool) (*stack, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	log := c.logger()

	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	store, err := versions.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	localRoot := ""
	if restrictLocal {
		localRoot = cfg.StorageDir
	}
	uploader := storage.NewUploader(cfg.StorageDir, cfg.PublicBaseURL)
	opts := studio.Options{
		Loader:   c.newLoader(cfg, localRoot),
		Uploader: uploader,
		Versions: store,
		Logger:   log,
	}
	if cfg.InpaintEndpoint != "" {
		opts.Inpaint = inpaint.NewClient(cfg.InpaintEndpoint, cfg.AuthToken, log)
	}

	manager := studio.NewManager(opts)
	tools := server.New(server.Options{Manager: manager, Logger: log, Version: Version})

	log.WithFields(logrus.Fields{
		"version":  Version,
		"commit":   GitCommit,
		"storage":  cfg.StorageDir,
		"database": cfg.DatabasePath,
		"inpaint":  cfg.InpaintEndpoint != "",
	}).Debug("studio stack ready")

	return &stack{
		manager:  manager,
		tools:    tools,
		uploader: uploader,
		close: func() {
			manager.CloseAll()
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("failed to close version store")
			}
		},
	}, nil
}
