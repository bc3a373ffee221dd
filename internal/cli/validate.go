package cli

import (
	"fmt"

	"ffigen/internal/generation"

	"github.com/spf13/cobra"
)

// ValidationResult summarises a descriptor that passed validation.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Package string `json:"package"`
	Types   int    `json:"types"`
	Exports int    `json:"exports"`
}

func (r ValidationResult) String() string {
	return fmt.Sprintf("✓ %s is valid: %d type(s), %d export(s)", r.Package, r.Types, r.Exports)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	loadOpts := &LoadOptions{}

	cmd := &cobra.Command{
		Use:   "validate <descriptor>",
		Short: "Check a descriptor without generating code",
		Long: `Loads a descriptor, checks it against the schema and resolves the
marshaling of every parameter and return value. No files are written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, loadOpts, args[0])
		},
	}
	addLoadFlags(cmd, loadOpts)

	return cmd
}

func runValidate(cmd *cobra.Command, opts *RootOptions, loadOpts *LoadOptions, path string) error {
	formatter := newFormatter(cmd, opts)

	descriptor, err := loadDescriptor(cmd.Context(), path, *loadOpts, formatter)
	if err != nil {
		return formatter.Fail(err)
	}

	generator := generation.NewGenerator(descriptor.Package, "")
	generator.RegisterDescriptor(descriptor)
	document, err := generator.Document()
	if err != nil {
		return formatter.Fail(err)
	}

	result := ValidationResult{Valid: true, Package: document.Package, Types: len(document.Types)}
	for _, t := range document.Types {
		result.Exports += len(t.Exports)
	}
	return formatter.Success(result)
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
