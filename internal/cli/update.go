package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jsondocs/internal/docstore"
	"github.com/roach88/jsondocs/internal/value"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Diff        string
	ChangeToken int64
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Apply a top-level diff to a stored document",
		Long: `Apply a JSON object diff to a stored document. Each key in the diff
replaces that top-level key; a null value removes it.

With --change-token, the stored changeToken must match or nothing changes.

Example:
  jsondocs update doc-1 --diff '{"title":"new","draft":null}'
  jsondocs update doc-1 --diff '{"changeToken":4}' --change-token 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Diff, "diff", "", "diff as a JSON object (required)")
	cmd.Flags().Int64Var(&opts.ChangeToken, "change-token", 0, "expected stored changeToken")
	_ = cmd.MarkFlagRequired("diff")

	return cmd
}

func runUpdate(opts *UpdateOptions, id string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	diff, err := value.DecodeMap([]byte(opts.Diff))
	if err != nil {
		return f.Fail(ExitCommandError, "invalid --diff JSON", err)
	}

	var check *docstore.ChangeTokenCheck
	if cmd.Flags().Changed("change-token") {
		check = &docstore.ChangeTokenCheck{Expected: opts.ChangeToken}
	}

	sess, err := openSession(commandContext(cmd), opts.RootOptions, cmd, f)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.store.Update(commandContext(cmd), id, diff, check); err != nil {
		return f.Fail(ExitFailure, "update failed", err)
	}

	if f.Format == "json" {
		return f.Success(IDsResult{Repository: sess.store.Repository(), IDs: []string{id}})
	}
	fmt.Fprintf(f.Writer, "Updated %s\n", id)
	return nil
}
