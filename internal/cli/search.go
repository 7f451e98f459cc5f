package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railmap/pkg/errors"
	"github.com/matzehuels/railmap/pkg/search"
)

// searchCommand searches stations and routes by name.
func (c *CLI) searchCommand() *cobra.Command {
	var flags feedFlags
	var opts search.Options

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search stations and routes by name",
		Long: `Search matches station (and optionally route) names case-insensitively.
Prefix matches come first. Without a query an interactive search opens.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if err := errors.ValidateQuery(query); err != nil {
				return err
			}
			ix, err := c.searchIndex(cmd.Context(), &flags)
			if err != nil {
				return err
			}
			if query == "" && isatty.IsTerminal(os.Stdout.Fd()) {
				return c.runSearchTUI(cmd.Context(), ix, opts)
			}
			printResults(ix.Search(query, opts), len([]rune(query)))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&opts.IncludeRoutes, "routes", "r", false, "include routes in the results")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum results per kind (0 for all)")

	return cmd
}

func (c *CLI) searchIndex(ctx context.Context, flags *feedFlags) (*search.Index, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	f, err := runner.Fetch(ctx, flags.pipelineOptions(cfg, c.Logger))
	if err != nil {
		return nil, err
	}
	return search.NewIndex(f.Network), nil
}

func (c *CLI) runSearchTUI(ctx context.Context, ix *search.Index, opts search.Options) error {
	final, err := tea.NewProgram(NewSearchModel(ix, opts), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	m, ok := final.(SearchModel)
	if !ok || m.Selected == nil {
		return nil
	}
	printResult(*m.Selected)
	return nil
}

func printResults(res search.Results, n int) {
	if res.Len() == 0 {
		printInfo("No matches")
		return
	}
	for _, r := range res.Stations {
		fmt.Println(resultLine(r, n, false))
	}
	for _, r := range res.Routes {
		fmt.Println(resultLine(r, n, false))
	}
}

func printResult(r search.Result) {
	printKeyValue("Name", r.Name)
	printKeyValue("Kind", string(r.Kind))
	if r.ID != "" {
		printKeyValue("ID", r.ID)
	}
	if r.Type != "" {
		printKeyValue("Type", r.Type)
	}
	printKeyValue("Color", swatch(r.Color)+" "+r.Color)
}
