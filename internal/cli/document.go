package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/document"
	apperr "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/plugin"
)

// stdinPath is the file argument that reads a document from standard input.
const stdinPath = "-"

// readDocument parses the document at path, or stdin for "-". The raw bytes
// are returned alongside for canonical-form checks.
func readDocument(cmd *cobra.Command, path string) (*document.Document, []byte, error) {
	var (
		data []byte
		err  error
	)
	if path == stdinPath {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := document.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, data, nil
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a graph document for structural errors",
		Long: `Check a graph document for structural errors.

The document is decoded, rebuilt through the graph mutation API and then
validated as a whole, which also catches sockets below their minimum
connection count. Node types unknown to the registry are reported as
warnings; they only fail at evaluation time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
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
			if err := g.Validate(reg.Matrix()); err != nil {
				return apperr.Wrap(apperr.CodeInvalidDocument, err, "validate %s", args[0])
			}
			for _, n := range unknownNodes(g, reg) {
				printWarning("node %s has unknown type %q", n.ID, n.Type)
			}
			printSuccess("%s is valid", g.ID())
			printStats(g.NodeCount(), g.WireCount(), "")
			return nil
		},
	}
}

// unknownNodes returns the nodes whose type neither the engine nor reg
// provides.
func unknownNodes(g *graph.Graph, reg *plugin.Registry) []graph.Node {
	var out []graph.Node
	for _, n := range g.Nodes() {
		if n.Type == plugin.SubgraphType || n.Type == plugin.SubgraphInputType {
			continue
		}
		if _, ok := reg.Resolve(n.Type); !ok {
			out = append(out, n)
		}
	}
	return out
}

// normalizeCommand creates the normalize command.
func (c *CLI) normalizeCommand() *cobra.Command {
	var (
		output string
		check  bool
	)

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Rewrite a graph document in canonical form",
		Long: `Rewrite a graph document in canonical form.

Canonical documents have sorted entities, sorted object keys and two-space
indentation, so equal graphs produce byte-identical files. With --check
nothing is written and the command fails if the input is not canonical.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, raw, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			data, err := document.Marshal(d)
			if err != nil {
				return err
			}
			if check {
				if !bytes.Equal(raw, data) {
					return fmt.Errorf("%s is not in canonical form", args[0])
				}
				printSuccess("%s is canonical", args[0])
				return nil
			}
			return writeOutput(cmd, output, data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&check, "check", false, "fail if the input is not canonical instead of writing")

	return cmd
}

// hashCommand creates the hash command.
func (c *CLI) hashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [file]",
		Short: "Print the content hash of a graph document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			h, err := document.Hash(d)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

// topoCommand creates the topo command.
func (c *CLI) topoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "topo [file]",
		Short: "Print node ids in evaluation order",
		Long: `Print node ids in evaluation order.

The order is a topological sort that breaks ties by ascending node id, so
it is stable across runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			reg, err := c.newRegistry(cmd.Context())
			if err != nil {
				return err
			}
			g, err := document.ToGraph(d, reg.Matrix())
			if err != nil {
				return err
			}
			order, err := graph.TopoSort(g)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range order {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
}
