package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete documents by id",
		Long: `Delete the documents with the given ids in one statement.
Ids that do not exist are ignored.

Example:
  jsondocs delete 0190e0c4-7a3b-7c1d-9f5e-3b2a1c0d9e8f other-id`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args, cmd)
		},
	}
}

func runDelete(opts *RootOptions, ids []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	sess, err := openSession(commandContext(cmd), opts, cmd, f)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.store.Delete(commandContext(cmd), ids); err != nil {
		return f.Fail(ExitFailure, "delete failed", err)
	}

	if f.Format == "json" {
		return f.Success(IDsResult{Repository: sess.store.Repository(), IDs: ids})
	}
	fmt.Fprintf(f.Writer, "Deleted %d id(s) from %s\n", len(ids), sess.store.Repository())
	return nil
}
