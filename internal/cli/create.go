package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/jsondocs/internal/docstore"
	"github.com/roach88/jsondocs/internal/value"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	YAML bool
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <file|->",
		Short: "Insert documents from a JSON or YAML file",
		Long: `Insert documents read from a file, or from stdin when the argument is "-".

The input is one object or an array of objects. Objects without an "id"
get a generated UUIDv7. Files ending in .yaml or .yml are read as YAML.

Example:
  jsondocs create docs.json
  echo '[{"title":"a"}]' | jsondocs create -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "parse input as YAML regardless of file extension")

	return cmd
}

func runCreate(opts *CreateOptions, source string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	data, err := readSource(source, cmd.InOrStdin())
	if err != nil {
		return f.Fail(ExitCommandError, "failed to read input", err)
	}
	v, err := decodeInput(data, opts.YAML || isYAMLPath(source))
	if err != nil {
		return f.Fail(ExitCommandError, "failed to parse input", err)
	}

	sess, err := openSession(commandContext(cmd), opts.RootOptions, cmd, f)
	if err != nil {
		return err
	}
	defer sess.Close()

	docs, err := docstore.DocumentsFromValue(v, sess.store.GenerateID)
	if err != nil {
		return f.Fail(ExitCommandError, "invalid documents", err)
	}
	f.VerboseLog("Creating %d document(s) in %s", len(docs), sess.store.Repository())

	if err := sess.store.Create(commandContext(cmd), docs); err != nil {
		return f.Fail(ExitFailure, "create failed", err)
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return f.IDs(IDsResult{Repository: sess.store.Repository(), IDs: ids})
}

func readSource(source string, stdin io.Reader) ([]byte, error) {
	if source == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(source)
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeInput(data []byte, yaml bool) (value.Value, error) {
	if yaml {
		return value.DecodeYAML(data)
	}
	v, err := value.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w (use --yaml for YAML input)", err)
	}
	return v, nil
}
