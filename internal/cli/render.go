package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackdiagram/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string  // output base path, without extension
	formats string  // comma-separated formats; empty keeps the diagram's own
	engine  string  // Graphviz layout engine override
	scale   float64 // PNG scale override
	noCache bool    // bypass the artifact cache
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file|name]",
		Short: "Render a definition file or built-in diagram",
		Long: `Render a diagram to one file per output format.

The argument is a TOML or YAML definition file, or the name of a built-in
diagram (see "stackdiagram list"). Without an argument, an interactive picker
lists built-in diagrams and definition files in the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			} else {
				picked, err := pickSource(".")
				if err != nil {
					return err
				}
				if picked == "" {
					return nil
				}
				arg = picked
			}
			return c.runRender(cmd.Context(), arg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: derived from the title)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): "+strings.Join(render.FormatNames(), ", ")+" (comma-separated)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "Graphviz layout engine (dot, neato, fdp, ...)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, arg string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	src, err := loadSource(arg)
	if err != nil {
		return err
	}

	cfg := src.config
	cfg.Logger = logger
	if opts.output != "" {
		cfg.OutputPath = opts.output
	}
	if opts.formats != "" {
		cfg.Formats = render.ParseFormats(opts.formats)
	}
	if opts.engine != "" {
		cfg.Engine = render.Engine(opts.engine)
	}
	if opts.scale != 0 {
		cfg.Scale = opts.scale
	}
	if err := cfg.Options.Validate(); err != nil {
		return err
	}
	if cfg.OutputPath != "" {
		if dir := filepath.Dir(cfg.OutputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}
	}

	renderer, err := c.newRenderer(opts.noCache)
	if err != nil {
		return err
	}
	defer renderer.Cache.Close()

	b, err := src.build(cfg)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Rendering "+src.name+"...")
	spinner.Start()
	out, err := b.End(ctx, renderer)
	spinner.Stop()
	if err != nil {
		return err
	}

	s := out.Diagram.Stats()
	prog.done(fmt.Sprintf("Rendered %s", out.Diagram.Title()))
	printStats(s.Nodes, s.Clusters, s.Edges)
	for _, f := range out.Files {
		printFile(f)
	}
	return nil
}
