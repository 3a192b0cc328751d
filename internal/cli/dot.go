package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/document"
	"github.com/matzehuels/nodeflow/pkg/render/nodelink"
)

// dotCommand creates the dot command for exporting a graph diagram without
// evaluating it.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		output   string
		svg      bool
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "dot [file]",
		Short: "Export a graph document as a Graphviz diagram",
		Long: `Export a graph document as a Graphviz diagram.

Nodes are drawn as records with input sockets on top and outputs below;
frames become clusters. Use --svg to render the diagram with the embedded
Graphviz instead of printing DOT source. Use 'eval --format' to colour the
diagram by evaluation status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			d, _, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			reg, err := c.newRegistry(ctx)
			if err != nil {
				return err
			}
			g, err := document.ToGraph(d, reg.Matrix())
			if err != nil {
				return err
			}

			data := []byte(nodelink.ToDOT(g, nodelink.Options{Detailed: detailed}))
			if svg {
				if data, err = nodelink.RenderSVG(ctx, string(data)); err != nil {
					return err
				}
			}
			logger.Debugf("Generated diagram: %d bytes", len(data))
			return writeOutput(cmd, output, data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&svg, "svg", false, "render SVG instead of DOT source")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show socket types and params")

	return cmd
}
