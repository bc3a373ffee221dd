package cli

import (
	"ffigen/internal/generation"

	"github.com/spf13/cobra"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	loadOpts := &LoadOptions{}

	cmd := &cobra.Command{
		Use:   "plan <descriptor>",
		Short: "Print the C prototypes a descriptor exports",
		Long: `Prints every exported symbol with its C prototype, the transfer mode of
each parameter and return value, and the failure sentinel of fallible calls.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, rootOpts, loadOpts, args[0])
		},
	}
	addLoadFlags(cmd, loadOpts)

	return cmd
}

func runPlan(cmd *cobra.Command, opts *RootOptions, loadOpts *LoadOptions, path string) error {
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

	if opts.Format == "json" {
		return formatter.Success(document)
	}
	return generation.WriteText(formatter.Writer, document)
}
