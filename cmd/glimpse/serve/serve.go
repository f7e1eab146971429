// Package servecmder provides the serve command that runs the search API
// server with the MCP endpoint mounted.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/glimpse/api"
	"github.com/papercomputeco/glimpse/api/mcp"
	"github.com/papercomputeco/glimpse/cmd/glimpse/cmdconfig"
	"github.com/papercomputeco/glimpse/pkg/clicklog"
	clicklogutils "github.com/papercomputeco/glimpse/pkg/clicklog/utils"
	"github.com/papercomputeco/glimpse/pkg/config"
	"github.com/papercomputeco/glimpse/pkg/indexer"
	"github.com/papercomputeco/glimpse/pkg/search"
)

type ServeCommander struct {
	warm   bool
	cfg    *config.Config
	logger *slog.Logger
}

const serveLongDesc string = `Run the Glimpse API server.

The server answers GET /v1/search over the configured image folder, records
result clicks on POST /v1/clicks, reports the most clicked queries and
images on GET /v1/analytics and exposes the image_search MCP tool on
/mcp.

Use --warm to embed every image in the folder on startup, and --watch to
embed new images as they are added.

Examples:
  glimpse serve --images ~/Pictures
  glimpse serve --vector-store-provider sqlite --warm --watch
  glimpse serve --judge --judge-provider openai --judge-model gpt-4o-mini`

const serveShortDesc string = "Run the Glimpse API server"

var serveFlags = append([]string{
	config.FlagAPIListen,
	config.FlagWatch,
	config.FlagClickLogProv,
	config.FlagClickLogBrokers,
	config.FlagClickAnalytics,
	config.FlagClickPostgres,
}, config.PipelineFlags...)

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdconfig.Load(cmd, serveFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.logger = cmdconfig.Logger(cmd)
			return cmder.run(cmd.Context())
		},
	}

	config.AddFlags(cmd, config.Flags, serveFlags)
	cmd.Flags().BoolVar(&cmder.warm, "warm", false, "Embed every image in the folder on startup")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	comps, err := search.Build(ctx, c.cfg, search.BuildOptions{Logger: c.logger})
	if err != nil {
		return fmt.Errorf("building search: %w", err)
	}
	defer comps.Close()

	clicks, err := clicklogutils.NewPublisher(&clicklogutils.NewPublisherOpts{
		ProviderType: c.cfg.ClickLog.Provider,
		Brokers:      c.cfg.ClickLog.BrokerList(),
		Topic:        c.cfg.ClickLog.Topic,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating click publisher: %w", err)
	}
	defer clicks.Close()

	sink, err := clicklogutils.NewSink(ctx, &clicklogutils.NewSinkOpts{
		SinkType:    c.cfg.ClickLog.Analytics,
		PostgresDSN: c.cfg.ClickLog.PostgresDSN,
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating click analytics sink: %w", err)
	}

	var analytics clicklog.Reader
	if sink != nil {
		defer sink.Close()
		analytics = sink
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Searcher: comps.Searcher,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer, err := api.NewServer(api.Config{
		ListenAddr:    c.cfg.API.Listen,
		Searcher:      comps.Searcher,
		Clicks:        clicklog.NewFanout(clicks, sink),
		Analytics:     analytics,
		Store:         comps.Store,
		Cache:         comps.Cache,
		ResultOptions: c.cfg.Search.ResultOptions,
		MCPHandler:    mcpServer.Handler(),
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("serving images",
		"folder", comps.Catalog.Folder(),
		"vector_store", c.cfg.VectorStore.Provider,
		"judge", c.cfg.Judge.Enabled,
		"clicklog", c.cfg.ClickLog.Provider,
		"analytics", c.cfg.ClickLog.Analytics,
	)

	errChan := make(chan error, 2)

	if c.warm || c.cfg.Images.Watch {
		pool, err := indexer.NewPool(&indexer.Config{
			Indexer: comps.Embedding,
			Timeout: time.Duration(c.cfg.Embedding.TimeoutSeconds) * time.Second,
			Logger:  c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating indexer: %w", err)
		}

		// Feeders stop before the pool closes its queue.
		var feeders sync.WaitGroup
		defer func() {
			cancel()
			feeders.Wait()
			pool.Close()
		}()

		if c.warm {
			ids, err := comps.Catalog.List()
			if err != nil {
				return err
			}
			c.logger.Info("warming index", "images", len(ids))

			feeders.Add(1)
			go func() {
				defer feeders.Done()
				n, err := pool.SubmitAll(ctx, ids)
				if err != nil {
					c.logger.Warn("warm-up interrupted", "queued", n, "images", len(ids), "error", err)
				}
			}()
		}

		if c.cfg.Images.Watch {
			feeders.Add(1)
			go func() {
				defer feeders.Done()
				err := comps.Catalog.Watch(ctx, func(id string) {
					pool.Enqueue(id)
				})
				if err != nil {
					errChan <- fmt.Errorf("image watcher error: %w", err)
				}
			}()
		}
	}

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return apiServer.Shutdown()
	}
}
