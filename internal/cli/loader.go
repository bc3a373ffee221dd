package cli

import (
	"context"
	"errors"
	"os"

	"ffigen/internal"
	"ffigen/internal/metadata"

	"github.com/spf13/cobra"
)

// LoadOptions selects where enum C types named in overrides are resolved.
type LoadOptions struct {
	WinMdPath     string
	DownloadWinMd bool
}

// Loads and builds a descriptor. A Windows metadata file is only opened
// when one is configured.
func loadDescriptor(ctx context.Context, path string, opts LoadOptions, formatter *OutputFormatter) (*metadata.Descriptor, error) {
	file, err := metadata.LoadFile(path)
	if err != nil {
		return nil, err
	}
	formatter.VerboseLog("Loaded %s: %d type(s)", path, len(file.Types))

	var resolver metadata.EnumResolver
	if opts.WinMdPath != "" {
		reader, err := openWinMd(ctx, opts, formatter)
		if err != nil {
			return nil, err
		}
		resolver = reader
	}

	return metadata.Build(file, resolver)
}

func openWinMd(ctx context.Context, opts LoadOptions, formatter *OutputFormatter) (*metadata.WinMdReader, error) {
	if _, err := os.Stat(opts.WinMdPath); errors.Is(err, os.ErrNotExist) && opts.DownloadWinMd {
		version, err := metadata.NewDownloader().DownloadMetadata(ctx, opts.WinMdPath)
		if err != nil {
			return nil, &outputError{path: opts.WinMdPath, err: err}
		}
		formatter.VerboseLog("Downloaded Windows metadata %s to %s", version, opts.WinMdPath)
	}

	reader, err := metadata.NewReader(opts.WinMdPath)
	if err != nil {
		return nil, &metadata.LoadError{Path: opts.WinMdPath, Message: "cannot read Windows metadata", Err: err}
	}
	return reader, nil
}

func addLoadFlags(cmd *cobra.Command, opts *LoadOptions) {
	cmd.Flags().StringVar(&opts.WinMdPath, "winmd", "", "Windows metadata file used to resolve winmd: overrides")
	internal.PanicOnError(cmd.MarkFlagFilename("winmd", "winmd"))
	cmd.Flags().BoolVar(&opts.DownloadWinMd, "download-winmd", false, "download the Windows metadata file when it is missing")
}
