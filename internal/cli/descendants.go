package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DescendantsOptions holds flags for the descendants command.
type DescendantsOptions struct {
	*RootOptions
	Limit int
	Keys  []string
}

// NewDescendantsCommand creates the descendants command.
func NewDescendantsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescendantsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "descendants <ancestor-id>",
		Short: "List ids of documents below an ancestor",
		Long: `List, ordered by id, the documents whose ancestorIds array contains
the given id.

Example:
  jsondocs descendants root --limit 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescendants(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of ids (0 = no limit)")
	cmd.Flags().StringSliceVar(&opts.Keys, "key", nil, "project body keys (not supported yet)")

	return cmd
}

func runDescendants(opts *DescendantsOptions, ancestorID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	if opts.Limit < 0 {
		return f.Fail(ExitCommandError, "invalid --limit", fmt.Errorf("%d is negative", opts.Limit))
	}

	sess, err := openSession(commandContext(cmd), opts.RootOptions, cmd, f)
	if err != nil {
		return err
	}
	defer sess.Close()

	d, err := sess.store.GetDescendants(commandContext(cmd), ancestorID, opts.Keys, opts.Limit)
	if err != nil {
		return f.Fail(ExitFailure, "descendants failed", err)
	}
	return f.IDs(IDsResult{Repository: sess.store.Repository(), IDs: d.IDs()})
}
