// Command desqueeze copies the DNG files of a folder through exiftool, writing a horizontal
// DefaultScale stretch into those shot with a known anamorphic lens.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"dng-desqueeze/config"
	"dng-desqueeze/desqueeze"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type options struct {
	configPath     string
	input          string
	output         string
	exiftool       string
	reader         string
	reuseOutput    bool
	noEnter        bool
	progress       bool
	nativeFallback bool
	noColor        bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, desqueeze.ErrBatchAborted) {
			red.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "desqueeze",
		Short: "De-squeeze anamorphic DNG footage with exiftool",
		Long: `desqueeze copies every DNG in the input folder into the output folder with a
"_stretched" suffix. Files whose LensModel matches a configured anamorphic lens get
-DefaultScale written so raw converters stretch them horizontally; all others are copied
unchanged. The run stops at the first file exiftool fails on.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runBatch(cmd.Context(), cmd.OutOrStdout(), cfg, opts.progress)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.StringVar(&opts.input, "input", config.DefaultInputDir, "folder holding the DNG files")
	f.StringVar(&opts.output, "output", config.DefaultOutputDir, "output folder")
	f.StringVar(&opts.exiftool, "exiftool", config.DefaultExiftoolPath, "path to the exiftool executable")
	f.StringVar(&opts.reader, "reader", config.ReaderExec, "lens reader: exec or stay_open")
	f.BoolVar(&opts.reuseOutput, "reuse-output", false, "write into the output folder even if it is not empty")
	f.BoolVar(&opts.noEnter, "no-enter", false, "do not send Enter to exiftool (for builds without -k)")
	f.BoolVar(&opts.nativeFallback, "native-fallback", false, "read the lens from the file's EXIF when exiftool finds none")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	root.Flags().BoolVar(&opts.progress, "progress", false, "show a progress bar on stderr")

	root.AddCommand(newInspectCmd(opts), newVersionCmd())
	return root
}

// load builds the run configuration: defaults, then the config file, then explicit flags.
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	if o.noColor {
		color.NoColor = true
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputDir = o.input
	}
	if flags.Changed("output") {
		cfg.OutputDir = o.output
	}
	if flags.Changed("exiftool") {
		cfg.ExiftoolPath = o.exiftool
	}
	if flags.Changed("reader") {
		cfg.Reader = o.reader
	}
	if o.reuseOutput {
		cfg.TimestampedOutput = false
	}
	if o.noEnter {
		cfg.PressEnter = false
	}
	if o.nativeFallback {
		cfg.NativeFallback = true
	}
	return cfg, cfg.Validate()
}

func runBatch(ctx context.Context, out io.Writer, cfg config.Config, progress bool) error {
	fmt.Fprintln(out, config.AppName+" Tool")
	fmt.Fprintln(out, "==================================================")

	b := &desqueeze.Batch{
		Config:   cfg,
		Reporter: newConsole(out, progress),
	}
	_, err := b.Run(ctx)
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, config.AppVersion)
		},
	}
}
