// Package indexcmder provides the index command that embeds the image
// folder into a persistent vector store ahead of any search.
package indexcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/glimpse/cmd/glimpse/cmdconfig"
	"github.com/papercomputeco/glimpse/pkg/cliui"
	"github.com/papercomputeco/glimpse/pkg/config"
	"github.com/papercomputeco/glimpse/pkg/indexer"
	"github.com/papercomputeco/glimpse/pkg/search"
	vectorutils "github.com/papercomputeco/glimpse/pkg/vector/utils"
)

// ErrNoPersistentStore is returned when the configured vector store does
// not outlive the process.
var ErrNoPersistentStore = errors.New("index needs a persistent vector store (sqlite, chroma or qdrant)")

type indexCommander struct {
	workers   uint
	batchSize uint

	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

const indexLongDesc string = `Embed every image in the folder into the vector store.

Indexing ahead of time means the first search does not pay for embedding
the whole folder. The vector store must be persistent: sqlite, chroma or
qdrant.

Examples:
  glimpse index --images ~/Pictures --vector-store-provider sqlite
  glimpse index --vector-store-provider qdrant --vector-store-target localhost:6334
  glimpse index --workers 4 --batch-size 32`

const indexShortDesc string = "Embed the image folder into the vector store"

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdconfig.Load(cmd, config.PipelineFlags)
			if err != nil {
				return err
			}

			switch cmder.cfg.VectorStore.Provider {
			case search.ProviderNone, vectorutils.ProviderMemory, "":
				return fmt.Errorf("%w: got %q", ErrNoPersistentStore, cmder.cfg.VectorStore.Provider)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.logger = cmdconfig.Logger(cmd)
			cmder.out = cmd.OutOrStdout()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return cmder.run(ctx)
		},
	}

	config.AddFlags(cmd, config.Flags, config.PipelineFlags)
	cmd.Flags().UintVar(&cmder.workers, "workers", 2, "Number of concurrent embedding workers")
	cmd.Flags().UintVar(&cmder.batchSize, "batch-size", 16, "Images embedded per request")

	return cmd
}

func (c *indexCommander) run(ctx context.Context) error {
	comps, err := search.Build(ctx, c.cfg, search.BuildOptions{Logger: c.logger})
	if err != nil {
		return fmt.Errorf("building search: %w", err)
	}
	defer comps.Close()

	var ids []string
	err = cliui.Step(c.out, "Listing images in "+comps.Catalog.Folder(), func() error {
		var err error
		ids, err = comps.Catalog.List()
		return err
	})
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("No images to index."))
		return nil
	}

	queueSize := uint(len(ids))
	pool, err := indexer.NewPool(&indexer.Config{
		Indexer:    comps.Embedding,
		NumWorkers: c.workers,
		QueueSize:  queueSize,
		BatchSize:  c.batchSize,
		Timeout:    time.Duration(c.cfg.Embedding.TimeoutSeconds) * time.Second,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating indexer: %w", err)
	}

	start := time.Now()
	err = cliui.Step(c.out, fmt.Sprintf("Embedding %d images", len(ids)), func() error {
		_, err := pool.SubmitAll(ctx, ids)
		pool.Close()
		if err != nil {
			return err
		}

		if stats := pool.Stats(); stats.Failed > 0 {
			return fmt.Errorf("%d images failed to index", stats.Failed)
		}
		return nil
	})

	stats := pool.Stats()
	fmt.Fprintf(c.out, "\n  %s %s %s  %s %s  %s %s  %s\n\n",
		cliui.Mark(err),
		cliui.KeyStyle.Render("indexed"), cliui.ValueStyle.Render(fmt.Sprint(stats.Indexed)),
		cliui.KeyStyle.Render("skipped"), cliui.ValueStyle.Render(fmt.Sprint(stats.Skipped)),
		cliui.KeyStyle.Render("failed"), cliui.ValueStyle.Render(fmt.Sprint(stats.Failed)),
		cliui.DimStyle.Render("in "+cliui.FormatDuration(time.Since(start))),
	)

	return err
}
