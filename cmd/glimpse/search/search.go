// Package searchcmder provides the search command for finding images that
// match a text query.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/glimpse/cmd/glimpse/cmdconfig"
	"github.com/papercomputeco/glimpse/pkg/cliui"
	"github.com/papercomputeco/glimpse/pkg/config"
	"github.com/papercomputeco/glimpse/pkg/search"
	"github.com/papercomputeco/glimpse/pkg/utils"
)

// maxPathWidth bounds printed paths; --quiet always prints them in full.
const maxPathWidth = 96

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	queryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	rankStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

type searchCommander struct {
	query      string
	numResults int
	quiet      bool
	local      bool

	apiTarget string
	cfg       *config.Config
	out       io.Writer
}

const searchLongDesc string = `Search the image folder for a text query.

By default the query is sent to a running Glimpse API server. Use --local to
build the retrieval pipeline in-process instead, with the same embedding,
vector store and judge flags as "glimpse serve".

Use --quiet to output only image paths, one per line. This is useful for
piping into other commands.

Examples:
  glimpse search "a cat sleeping on a sofa"
  glimpse search "red car" --num 10
  glimpse search "sunset over water" --local --images ~/Pictures
  glimpse search "dog" --quiet | xargs open`

const searchShortDesc string = "Search images by text"

var searchFlags = append([]string{config.FlagAPITarget}, config.PipelineFlags...)

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdconfig.Load(cmd, searchFlags)
			if err != nil {
				return err
			}
			cmder.apiTarget = cmder.cfg.Client.APITarget
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			cmder.out = cmd.OutOrStdout()

			var (
				output *search.Output
				err    error
			)
			if cmder.local {
				output, err = cmder.searchLocal(cmd)
			} else {
				output, err = SearchAPI(cmd.Context(), cmder.apiTarget, cmder.query, cmder.numResults)
			}
			if err != nil {
				return err
			}

			return cmder.print(output)
		},
	}

	config.AddFlags(cmd, config.Flags, searchFlags)
	cmd.Flags().IntVarP(&cmder.numResults, "num", "n", 0, "Number of results to return (default: server setting)")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only image paths, one per line (for piping)")
	cmd.Flags().BoolVar(&cmder.local, "local", false, "Search in-process instead of calling the API server")

	return cmd
}

func (c *searchCommander) searchLocal(cmd *cobra.Command) (*search.Output, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	comps, err := search.Build(ctx, c.cfg, search.BuildOptions{Logger: cmdconfig.Logger(cmd)})
	if err != nil {
		return nil, fmt.Errorf("building search: %w", err)
	}
	defer comps.Close()

	return comps.Searcher.Search(ctx, c.query, c.numResults)
}

func (c *searchCommander) print(output *search.Output) error {
	if c.quiet {
		for _, img := range output.Images {
			fmt.Fprintln(c.out, img)
		}
		return nil
	}

	if output.Count == 0 {
		fmt.Fprintln(c.out, "No results found.")
		c.printWarnings(output.Warnings)
		return nil
	}

	if cliui.IsTerminal(c.out) {
		rendered, err := cliui.RenderMarkdown(Markdown(output))
		if err == nil {
			fmt.Fprint(c.out, rendered)
			c.printWarnings(output.Warnings)
			return nil
		}
	}

	fmt.Fprintf(c.out, "\n%s %s\n\n",
		headerStyle.Render("Results for:"),
		queryStyle.Render(fmt.Sprintf("%q", output.Query)),
	)
	for i, img := range output.Images {
		fmt.Fprintf(c.out, "  %s  %s\n",
			rankStyle.Render(fmt.Sprintf("#%d", i+1)),
			pathStyle.Render(utils.TruncateLeft(img, maxPathWidth)),
		)
	}
	fmt.Fprintln(c.out)
	c.printWarnings(output.Warnings)

	return nil
}

func (c *searchCommander) printWarnings(warnings []search.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(c.out, "  %s %s\n",
			cliui.WarnStyle.Render("!"),
			cliui.DimStyle.Render(fmt.Sprintf("[%s] %s: %s", w.Stage, w.ID, w.Message)),
		)
	}
}

// Markdown renders a search output as a markdown document.
func Markdown(output *search.Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Results for %q\n\n", output.Query)
	for i, img := range output.Images {
		fmt.Fprintf(&b, "%d. `%s`\n", i+1, img)
	}
	return b.String()
}

// SearchAPI calls the glimpse search API and returns the parsed output.
// A numResults of zero leaves the count to the server.
func SearchAPI(ctx context.Context, apiTarget, query string, numResults int) (*search.Output, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = "/v1/search"
	q := searchURL.Query()
	q.Set("query", query)
	if numResults > 0 {
		q.Set("num_results", strconv.Itoa(numResults))
	}
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Glimpse API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output search.Output
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return &output, nil
}
