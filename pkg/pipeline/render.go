package pipeline

import (
	"context"

	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/render/nodelink"
)

// Render exports g in every requested format. A non-nil st colours nodes by
// their evaluation outcome.
func Render(ctx context.Context, g *graph.Graph, st *engine.ExecState, opts Options) (map[string][]byte, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: opts.Detailed, State: st})

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatDOT:
			artifacts[format] = []byte(dot)
		case FormatSVG:
			svg, err := nodelink.RenderSVG(ctx, dot)
			if err != nil {
				return nil, err
			}
			artifacts[format] = svg
		}
	}
	return artifacts, nil
}
