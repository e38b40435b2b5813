package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blockforge/pkg/cache"
	"github.com/matzehuels/blockforge/pkg/errors"
	"github.com/matzehuels/blockforge/pkg/render"
)

// renderCommand renders a workspace's block forest as a diagram.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		out      string
		format   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "render <workspace-id>",
		Short: "Render a workspace as a diagram",
		Long: `Render rebuilds a workspace from its stored event log and renders the
block forest with Graphviz. Supported formats: svg, dot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := c.replayWorkspace(cmd, args[0])
			if err != nil {
				return err
			}

			dot := render.ToDOT(ws, render.Options{Detailed: detailed})

			var data []byte
			switch format {
			case "dot":
				data = []byte(dot)
			case "svg":
				artifacts := c.artifactCache(noCache)
				key := cache.ArtifactKey("svg", []byte(dot))
				if cached, hit, cerr := artifacts.Get(cmd.Context(), key); cerr == nil && hit {
					c.Logger.Debug("render cache hit", "workspace", args[0])
					data = cached
					break
				}
				sp := newSpinner("rendering diagram")
				sp.Start()
				data, err = render.RenderSVG(dot)
				sp.Stop()
				if err != nil {
					return err
				}
				_ = artifacts.Set(cmd.Context(), key, data, 0)
			default:
				return errors.New(errors.ErrCodeUnsupported, "unknown format %q (want svg or dot)", format)
			}

			if out == "" {
				out = args[0] + "." + format
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			printSuccess("Rendered %s", StyleHighlight.Render(args[0]))
			printFile(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to <workspace-id>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg or dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include field values and positions in labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the render artifact cache")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var matches []string
		for _, f := range []string{"svg", "dot"} {
			if strings.HasPrefix(f, toComplete) {
				matches = append(matches, f)
			}
		}
		return matches, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
