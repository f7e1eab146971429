// Package analyticscmder provides the analytics command that reports the
// most clicked queries and images from a running API server.
package analyticscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/glimpse/cmd/glimpse/cmdconfig"
	"github.com/papercomputeco/glimpse/pkg/clicklog"
	"github.com/papercomputeco/glimpse/pkg/cliui"
	"github.com/papercomputeco/glimpse/pkg/config"
	"github.com/papercomputeco/glimpse/pkg/utils"
)

const maxKeyWidth = 72

type analyticsCommander struct {
	limit     int
	apiTarget string
	out       io.Writer
}

const analyticsLongDesc string = `Show search click analytics.

Reads the most clicked queries and images from a running Glimpse API server.
The server must run with a click analytics sink (clicklog.analytics set to
memory or postgres).

Examples:
  glimpse analytics
  glimpse analytics --limit 20
  glimpse analytics --api-target http://gpu-box:8081`

const analyticsShortDesc string = "Show the most clicked queries and images"

var analyticsFlags = []string{config.FlagAPITarget}

func NewAnalyticsCmd() *cobra.Command {
	cmder := &analyticsCommander{}

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: analyticsShortDesc,
		Long:  analyticsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdconfig.Load(cmd, analyticsFlags)
			if err != nil {
				return err
			}
			cmder.apiTarget = cfg.Client.APITarget
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()

			analytics, err := AnalyticsAPI(cmd.Context(), cmder.apiTarget, cmder.limit)
			if err != nil {
				return err
			}

			cmder.print(analytics)
			return nil
		},
	}

	config.AddFlags(cmd, config.Flags, analyticsFlags)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", clicklog.DefaultAnalyticsLimit, "Entries per list")

	return cmd
}

func (c *analyticsCommander) print(a *clicklog.Analytics) {
	if a.TotalClicks == 0 {
		fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("No click data yet. Search and click on some images first."))
		return
	}

	fmt.Fprintf(c.out, "\n  %s %s\n", cliui.KeyStyle.Render("total clicks"), cliui.ValueStyle.Render(strconv.FormatInt(a.TotalClicks, 10)))
	c.printCounts("Top search queries", a.TopQueries)
	c.printCounts("Top clicked images", a.TopImages)
	fmt.Fprintln(c.out)
}

func (c *analyticsCommander) printCounts(title string, counts []clicklog.Count) {
	fmt.Fprintf(c.out, "\n  %s\n", cliui.KeyStyle.Render(title))
	if len(counts) == 0 {
		fmt.Fprintf(c.out, "    %s\n", cliui.DimStyle.Render("none"))
		return
	}
	for _, n := range counts {
		fmt.Fprintf(c.out, "    %s  %s\n",
			cliui.ValueStyle.Render(fmt.Sprintf("%6d", n.Clicks)),
			utils.TruncateLeft(n.Key, maxKeyWidth),
		)
	}
}

// AnalyticsAPI fetches click analytics from the glimpse API.
func AnalyticsAPI(ctx context.Context, apiTarget string, limit int) (*clicklog.Analytics, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	analyticsURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	analyticsURL.Path = "/v1/analytics"
	if limit > 0 {
		q := analyticsURL.Query()
		q.Set("limit", strconv.Itoa(limit))
		analyticsURL.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, analyticsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating analytics request: %w", err)
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
		return nil, fmt.Errorf("analytics request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var analytics clicklog.Analytics
	if err := json.Unmarshal(body, &analytics); err != nil {
		return nil, fmt.Errorf("failed to parse analytics response: %w", err)
	}

	return &analytics, nil
}
