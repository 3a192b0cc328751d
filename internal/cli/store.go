package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/document"
	"github.com/matzehuels/nodeflow/pkg/ids"
)

// storeCommand creates the document store command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Save and load graph documents",
		Long: `Save and load graph documents.

Documents are stored in canonical form, keyed by graph id, in the backend
selected by the [store] section of the config file: a directory of JSON
files (default) or a MongoDB collection.`,
	}

	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

func (c *CLI) storePutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put [file]",
		Short: "Store a graph document, replacing any with the same id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(loggerFromContext(ctx))

			d, _, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			entry, err := st.Put(ctx, d)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Stored %s", entry.GraphID))
			printSuccess("Stored %s", entry.GraphID)
			printDetail("hash %s", entry.Hash)
			return nil
		},
	}
}

func (c *CLI) storeGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get [graph-id]",
		Short: "Print a stored graph document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := ids.ParseGraphID(args[0])
			if err != nil {
				return err
			}
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			d, err := st.Get(ctx, id)
			if err != nil {
				return err
			}
			data, err := document.Marshal(d)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored graph documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo("No stored graphs")
				return nil
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\t%s\n", e.GraphID, e.Hash[:12], e.UpdatedAt.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [graph-id]",
		Short: "Delete a stored graph document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := ids.ParseGraphID(args[0])
			if err != nil {
				return err
			}
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(ctx, id); err != nil {
				return err
			}
			printSuccess("Deleted %s", id)
			return nil
		},
	}
}
