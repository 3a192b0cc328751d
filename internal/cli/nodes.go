package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/plugin"
)

// nodesCommand creates the nodes command listing the registered node types.
func (c *CLI) nodesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List the node types available to graph documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.newRegistry(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), catalogTable(reg.Catalog()))
			return nil
		},
	}
}

// catalogTable renders node types with their sockets and owning plugin.
func catalogTable(cat plugin.Catalog) string {
	rows := make([][]string, 0, len(cat.NodeTypes))
	for _, nd := range cat.NodeTypes {
		rows = append(rows, []string{
			nd.Type,
			nd.Category,
			socketList(nd.Inputs),
			socketList(nd.Outputs),
			cat.Owners[plugin.KindNodeType][nd.Type],
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Type", "Category", "Inputs", "Outputs", "Plugin").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}

// socketList formats declarations as "key:type", marking required inputs
// with a trailing "*".
func socketList(decls []plugin.SocketDecl) string {
	if len(decls) == 0 {
		return "—"
	}
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.Key + ":" + string(d.Type)
		if d.Required {
			parts[i] += "*"
		}
	}
	return strings.Join(parts, ", ")
}
