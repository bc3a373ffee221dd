package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ffigen/internal"
	"ffigen/internal/generation"

	"github.com/spf13/cobra"
)

// GenerateOptions holds the flags of the generate command.
type GenerateOptions struct {
	LoadOptions
	OutputPath  string
	PackageName string
	Force       bool
}

// GenerateResult lists the files a generate run wrote.
type GenerateResult struct {
	Package string   `json:"package"`
	Files   []string `json:"files"`
}

func (r GenerateResult) String() string {
	return fmt.Sprintf("✓ generated package %s: %s", r.Package, strings.Join(r.Files, ", "))
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <descriptor>",
		Short: "Generate C-ABI bindings from a descriptor",
		Long: `Generates the cgo-exported wrappers for every type of the descriptor
together with the runtime helpers C callers use to release what they receive.

The descriptor is fully resolved before the output directory is touched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "./output/", "directory receiving the generated files")
	cmd.Flags().StringVar(&opts.PackageName, "package", "", "package name of the generated files (default: the descriptor's package)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "clear a non-empty output directory without asking")
	addLoadFlags(cmd, &opts.LoadOptions)
	internal.PanicOnError(cmd.MarkFlagDirname("output"))

	return cmd
}

func runGenerate(cmd *cobra.Command, rootOpts *RootOptions, opts *GenerateOptions, path string) error {
	formatter := newFormatter(cmd, rootOpts)

	descriptor, err := loadDescriptor(cmd.Context(), path, opts.LoadOptions, formatter)
	if err != nil {
		return formatter.Fail(err)
	}

	packageName := opts.PackageName
	if packageName == "" {
		packageName = descriptor.Package
	}

	generator := generation.NewGenerator(packageName, opts.OutputPath)
	generator.RegisterDescriptor(descriptor)
	if _, err := generator.Plan(); err != nil {
		return formatter.Fail(err)
	}

	err = ClearDirectoryIfNotEmpty(opts.OutputPath, opts.Force, cmd.InOrStdin(), formatter.ErrWriter)
	if err != nil {
		return formatter.Fail(&outputError{path: opts.OutputPath, err: err})
	}

	files, err := generator.Generate(generator.OutputPath)
	if err != nil {
		return formatter.Fail(&outputError{path: opts.OutputPath, err: err})
	}
	return formatter.Success(GenerateResult{Package: packageName, Files: files})
}

var ErrNotConfirmed = errors.New("explicit agreement was not given")

// Removes a non-empty output directory, asking on in first unless silent.
// A missing directory is left for the generator to create.
func ClearDirectoryIfNotEmpty(path string, silent bool, in io.Reader, out io.Writer) error {
	directory, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer directory.Close()

	_, err = directory.Readdirnames(1)
	if err == io.EOF {
		return nil
	}

	if err != nil {
		return err
	}

	if !silent {
		fmt.Fprint(out, "Output directory is not empty. Continuation will result in removing all output file. Proceed? [Y/n] ")
		response, _ := bufio.NewReader(in).ReadString('\n')
		if strings.ToUpper(strings.TrimSpace(response)) != "Y" {
			return ErrNotConfirmed
		}
	}

	fmt.Fprintln(out, "Cleaning output directory.")
	return os.RemoveAll(path)
}
