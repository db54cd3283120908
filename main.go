// Package main provides the graphedit CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/graphedit/analysis"
	"github.com/TFMV/graphedit/config"
	"github.com/TFMV/graphedit/editor"
	"github.com/TFMV/graphedit/models"
	"github.com/TFMV/graphedit/physics"
	"github.com/TFMV/graphedit/render"
	"github.com/TFMV/graphedit/server"
)

var (
	configPath  string
	port        int
	nodeCount   int
	probability float64
	seed        int64
	layoutName  string
	logLevel    string

	renderFormat string
	renderOutput string
	renderWidth  float64
	renderHeight float64
	pathFrom     int
	pathTo       int
)

var rootCmd = &cobra.Command{
	Use:   "graphedit",
	Short: "graphedit - interactive weighted graph editor",
	Long: `graphedit edits a random weighted undirected graph. It finds shortest paths
between two nodes and animates a traversal of every node.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editor over HTTP and WebSocket",
	RunE:  runServe,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Generate a random graph and render it once",
	Long: `Generate a random graph and render it once.

Examples:
  graphedit render --format ascii                 # Print the graph to stdout
  graphedit render --format svg -o graph.svg      # Write an SVG file
  graphedit render --format dot --from 0 --to 7   # Highlight the shortest path 0 -> 7`,
	RunE: runRender,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "graphedit.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().IntVar(&nodeCount, "nodes", 0, "Number of nodes to generate")
	rootCmd.PersistentFlags().Float64Var(&probability, "probability", 0, "Edge probability between 0 and 1")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Random seed for generation and layout")
	rootCmd.PersistentFlags().StringVar(&layoutName, "layout", "", "Layout algorithm (force, circle)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on")

	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "ascii", "Output format (svg, ascii, json, dot)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file (default: stdout)")
	renderCmd.Flags().Float64Var(&renderWidth, "width", 800, "Output width")
	renderCmd.Flags().Float64Var(&renderHeight, "height", 800, "Output height")
	renderCmd.Flags().IntVar(&pathFrom, "from", -1, "Path start node")
	renderCmd.Flags().IntVar(&pathTo, "to", -1, "Path end node")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
}

// loadConfig resolves the configuration and installs the logger. Flags that were set
// explicitly win over the file and the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("nodes") {
		cfg.Graph.NodeCount = nodeCount
	}
	if flags.Changed("probability") {
		cfg.Graph.EdgeProbability = probability
	}
	if flags.Changed("seed") {
		cfg.Graph.Seed = seed
	}
	if flags.Changed("layout") {
		cfg.Graph.Layout = layoutName
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	slog.SetDefault(cfg.Log.NewLogger(os.Stderr))
	return cfg, nil
}

func newStore(cfg config.Config) (*models.Store, error) {
	layouter, err := physics.NewLayouter(cfg.Graph.Layout)
	if err != nil {
		return nil, err
	}
	return models.NewStore(models.WithLayouter(layouter), models.WithSeed(cfg.Graph.Seed)), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	session := editor.NewSession(store, editor.Config{
		NodeCount:       cfg.Graph.NodeCount,
		EdgeProbability: cfg.Graph.EdgeProbability,
		Weights:         cfg.Graph.WeightRange(),
		Input:           cfg.Input.ToInterpreterConfig(),
		Jobs:            cfg.Jobs.ToRunnerConfig(),
	})
	srv := server.New(session, server.DefaultConfig(cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(ctx)
	})
	g.Go(func() error {
		return srv.Run(ctx)
	})

	if err := session.GenerateGraph(); err != nil {
		stop()
		if werr := g.Wait(); werr != nil {
			return werr
		}
		return fmt.Errorf("generate initial graph: %w", err)
	}
	slog.Info("editor ready",
		"nodes", cfg.Graph.NodeCount,
		"probability", cfg.Graph.EdgeProbability,
		"layout", cfg.Graph.Layout,
		"url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port))

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("shutdown complete")
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	if err := store.GenerateRandom(cfg.Graph.NodeCount, cfg.Graph.EdgeProbability, cfg.Graph.WeightRange()); err != nil {
		return err
	}

	if pathFrom >= 0 && pathTo >= 0 {
		from, to := models.NodeID(pathFrom), models.NodeID(pathTo)
		if !store.HasNode(from) || !store.HasNode(to) {
			return fmt.Errorf("path endpoints %d and %d must be nodes of the graph", pathFrom, pathTo)
		}
		store.SetStartNode(from)
		store.SetEndNode(to)
		path := analysis.ShortestPath(store.Snapshot(), from, to)
		store.SetShortestPath(path)
		if len(path) == 0 {
			slog.Warn(editor.NoPathMessage, "from", pathFrom, "to", pathTo)
		} else {
			total, _ := analysis.PathWeight(store.Snapshot(), path)
			slog.Info("shortest path", "hops", len(path)-1, "weight", total)
		}
	}

	options := render.NewDefaultOptions(renderFormat)
	options.Width = renderWidth
	options.Height = renderHeight
	output, err := render.Render(store.Snapshot(), options)
	if err != nil {
		return fmt.Errorf("render %s: %w", renderFormat, err)
	}

	if renderOutput == "" {
		_, err = os.Stdout.Write(output)
		return err
	}
	if err := os.WriteFile(renderOutput, output, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Info("output written", "file", renderOutput, "format", renderFormat, "bytes", len(output))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
