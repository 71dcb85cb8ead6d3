package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the documents table if it does not exist",
		Long: `Connect to the selected repository and create its documents table
if it does not exist yet. Running init twice is harmless.

Example:
  jsondocs init
  jsondocs --config jsondocs.yaml --repo archive init`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	sess, err := openSession(commandContext(cmd), opts, cmd, f)
	if err != nil {
		return err
	}
	defer sess.Close()

	if f.Format == "json" {
		return f.Success(map[string]string{"repository": sess.store.Repository()})
	}
	fmt.Fprintf(f.Writer, "Repository %s ready\n", sess.store.Repository())
	return nil
}
