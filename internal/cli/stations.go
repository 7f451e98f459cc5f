package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railmap/pkg/mapmodel"
)

// stationsCommand lists the stations of a map.
func (c *CLI) stationsCommand() *cobra.Command {
	var flags feedFlags
	var limit int

	cmd := &cobra.Command{
		Use:   "stations [map.json]",
		Short: "List map stations, busiest first",
		Long: `Stations prints the stations of a map model with their route counts, route
types and positions. Without a file argument the map is built from the
configured feed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m *mapmodel.Map
			var err error
			if len(args) == 1 {
				m, err = readMap(args[0])
			} else {
				m, err = c.fetchMap(cmd.Context(), &flags)
			}
			if err != nil {
				return err
			}
			fmt.Println(stationsTable(m.Stations, limit))
			if limit > 0 && len(m.Stations) > limit {
				printDetail("%d of %d stations shown", limit, len(m.Stations))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n stations")

	return cmd
}

// fetchMap builds the map for the configured feed and flags.
func (c *CLI) fetchMap(ctx context.Context, flags *feedFlags) (*mapmodel.Map, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	opts := flags.pipelineOptions(cfg, c.Logger)
	f, err := runner.Fetch(ctx, opts)
	if err != nil {
		return nil, err
	}
	return runner.BuildMap(ctx, f, opts)
}

// stationsTable renders stations as a table. A positive limit truncates.
func stationsTable(stations []mapmodel.Station, limit int) string {
	if limit > 0 && len(stations) > limit {
		stations = stations[:limit]
	}

	rows := make([][]string, 0, len(stations))
	for _, s := range stations {
		rows = append(rows, []string{
			strings.ReplaceAll(s.Name, "|", " "),
			strconv.Itoa(s.RouteCount),
			strings.Join(s.Types, ", "),
			coord(s.X),
			coord(s.Z),
			fmt.Sprintf("%s×%s", coord(s.Width), coord(s.Height)),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Station", "Routes", "Types", "X", "Z", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			switch col {
			case 0:
				return base.Foreground(colorWhite)
			case 1:
				return base.Foreground(colorCyan).Align(lipgloss.Right)
			case 3, 4, 5:
				return base.Foreground(colorGray).Align(lipgloss.Right)
			}
			return base.Foreground(colorDim)
		}).
		Render()
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
