// Command analyze prints quick, human-readable reports about the map
// configurations in the project's configs directory. It summarizes
// dimensions and street/house counts, validates connectivity, and answers
// one-off route queries between two cells.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/roadtraveller/game/config"
	"github.com/wricardo/mcp-training/roadtraveller/game/engine"
	"github.com/wricardo/mcp-training/roadtraveller/validate"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "analyze",
		Usage:  "inspect road traveller map configurations",
		Writer: w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Usage:   "directory containing map configurations",
				Value:   "configs",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "summary",
				Usage:     "print dimensions, cell counts and connectivity for each map",
				ArgsUsage: "[config...]",
				Action:    runSummary,
			},
			{
				Name:   "validate",
				Usage:  "validate every map file and fail if any is invalid",
				Action: runValidate,
			},
			{
				Name:  "route",
				Usage: "find the shortest street route between two cells",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: config.DefaultConfigName, Usage: "map to route on"},
					&cli.StringFlag{Name: "from", Required: true, Usage: "start cell as x,y"},
					&cli.StringFlag{Name: "to", Required: true, Usage: "goal cell as x,y"},
				},
				Action: runRoute,
			},
		},
	}
}

func runSummary(ctx context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer
	manager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	names := cmd.Args().Slice()
	if len(names) == 0 {
		infos, err := manager.ListConfigs()
		if err != nil {
			return err
		}
		for _, info := range infos {
			names = append(names, info.ConfigID)
		}
	}

	for _, name := range names {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", name)
		cfg, err := manager.LoadConfig(strings.TrimSuffix(name, ".json"))
		if err != nil {
			fmt.Fprintf(w, "Error loading config: %v\n", err)
			continue
		}
		analyzeConfig(w, cfg)
	}
	return nil
}

func analyzeConfig(w io.Writer, cfg *engine.MapConfig) {
	grid, err := engine.NewGridFromConfig(cfg, 1)
	if err != nil {
		fmt.Fprintf(w, "Error building grid: %v\n", err)
		return
	}

	counts := grid.Counts()
	total := cfg.Width * cfg.Height
	fmt.Fprintf(w, "Name: %s\n", cfg.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", cfg.Width, cfg.Height)
	fmt.Fprintf(w, "Houses: %d (%.0f%%)\n", counts[engine.CellHouse], 100*float64(counts[engine.CellHouse])/float64(total))
	fmt.Fprintf(w, "Streets: %d\n", counts[engine.CellStreet])
	fmt.Fprintf(w, "Obstacle Padding: %d\n", cfg.ObstaclePadding)
	if cfg.Seed != 0 {
		fmt.Fprintf(w, "Seed: %d\n", cfg.Seed)
	}

	report := validate.Connectivity(grid)
	if report.Connected() {
		fmt.Fprintf(w, "✅ All %d street cells form one network\n", report.Streets)
	} else {
		fmt.Fprintf(w, "⚠️  WARNING: %d street networks, %d cells cut off from the largest\n", report.Components, len(report.Isolated))
		for i, p := range report.Isolated {
			if i == 5 {
				fmt.Fprintf(w, "   ... and %d more\n", len(report.Isolated)-5)
				break
			}
			fmt.Fprintf(w, "   Isolated: %s\n", p)
		}
	}
	if len(report.Landlocked) > 0 {
		fmt.Fprintf(w, "Houses without street frontage: %d\n", len(report.Landlocked))
	}
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer
	results, err := validate.Dir(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	invalid := 0
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  ✓ "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			invalid++
			for _, msg := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+msg)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if invalid > 0 {
		return fmt.Errorf("%d of %d configurations have errors", invalid, len(results))
	}
	fmt.Fprintln(w, "✅ All configurations are valid!")
	return nil
}

func runRoute(ctx context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer

	from, err := parsePoint(cmd.String("from"))
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := parsePoint(cmd.String("to"))
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	manager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return err
	}
	cfg, err := manager.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	grid, err := engine.NewGridFromConfig(cfg, 1)
	if err != nil {
		return err
	}
	if !grid.InBounds(from) || !grid.InBounds(to) {
		return fmt.Errorf("route %s -> %s: %w", from, to, engine.ErrOutOfBounds)
	}

	path, err := engine.NewPathFinder(cfg.MaxExpansions).Search(from, to, grid.SearchView(from, to))
	if err != nil {
		if errors.Is(err, engine.ErrNoPathFound) {
			fmt.Fprintf(w, "No route from %s to %s on %s\n", from, to, cfg.Name)
			return nil
		}
		return err
	}

	fmt.Fprintf(w, "Route from %s to %s on %s: %d steps\n", from, to, cfg.Name, path.Steps())
	for _, row := range drawRoute(grid, path) {
		fmt.Fprintln(w, row)
	}
	return nil
}

// drawRoute renders the grid with the path marked '*', start 'S' and goal 'G'
func drawRoute(grid *engine.Grid, path engine.Path) []string {
	rows := grid.Render()
	lines := make([][]byte, len(rows))
	for i, row := range rows {
		lines[i] = []byte(row)
	}
	for i, p := range path {
		mark := byte('*')
		switch i {
		case 0:
			mark = 'S'
		case len(path) - 1:
			mark = 'G'
		}
		lines[p.Y][p.X] = mark
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = string(line)
	}
	return out
}

func parsePoint(s string) (engine.Point, error) {
	var p engine.Point
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d,%d", &p.X, &p.Y); err != nil {
		return engine.Point{}, fmt.Errorf("invalid cell %q, want x,y", s)
	}
	return p, nil
}
