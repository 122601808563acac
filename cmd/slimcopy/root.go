// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/slimcopy/pkg/config"
	"github.com/walteh/slimcopy/pkg/log"
	"github.com/walteh/slimcopy/pkg/operation"
	"github.com/walteh/slimcopy/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// rootFlags holds every flag of the root command
type rootFlags struct {
	configFile     string
	ignoreFile     string
	logFile        string
	force          bool
	parallel       bool
	measureSkipped bool
	quiet          bool
	verbose        bool
	debug          bool
}

// 🌱 newRootCmd builds the slimcopy command tree
func newRootCmd() *cobra.Command {
	f := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "slimcopy [flags] SRC DEST",
		Short: "Copy a directory tree, skipping what the ignore file excludes",
		Long: `slimcopy copies every file under SRC into DEST. It will:
1. Read the ignore file (SRC/.slimcopy_rules unless --ignore-file is given)
2. Count the files under SRC so progress has a total
3. Copy each file that is newer than its copy in DEST, or every file with --force-copy
4. Print a summary of what was copied, left alone and skipped

SRC and DEST may also come from a profile passed with --config.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(f.debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, f, args)
		},
	}

	addRootFlags(cmd, f)
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// addRootFlags adds the copy flags to the root command
func addRootFlags(cmd *cobra.Command, f *rootFlags) {
	cmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", "", "profile file (.yaml, .json or .hcl)")
	cmd.PersistentFlags().BoolVarP(&f.debug, "debug", "d", false, "enable debug logging")

	cmd.Flags().StringVarP(&f.ignoreFile, "ignore-file", "i", "", "ignore file path (default SRC/"+config.DefaultIgnoreFileName+")")
	cmd.Flags().StringVar(&f.logFile, "log", "", "write one line per file decision to this file")
	cmd.Flags().BoolVarP(&f.force, "force-copy", "f", false, "copy files even when the destination is not older")
	cmd.Flags().BoolVar(&f.parallel, "parallel", false, "copy directories in parallel")
	cmd.Flags().BoolVar(&f.measureSkipped, "measure-skipped", false, "report the size of skipped directories")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not show progress")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "print file decisions to stderr when no --log is given")
}

// setupLogging configures zerolog based on flags
func setupLogging(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}

// resolveOptions starts from the profile, if any, then applies arguments and
// the flags that were set on the command line
func resolveOptions(ctx context.Context, cmd *cobra.Command, fs afero.Fs, f *rootFlags, args []string) (*config.Options, error) {
	opts := &config.Options{}
	if f.configFile != "" {
		profile, err := config.LoadProfile(ctx, fs, f.configFile)
		if err != nil {
			return nil, errors.Errorf("loading profile: %w", err)
		}
		opts = profile
	}

	if len(args) > 0 {
		opts.Source = args[0]
	}
	if len(args) > 1 {
		opts.Destination = args[1]
	}

	flags := cmd.Flags()
	if flags.Changed("ignore-file") {
		opts.IgnoreFile = f.ignoreFile
	}
	if flags.Changed("log") {
		opts.LogFile = f.logFile
	}
	if flags.Changed("force-copy") {
		opts.Force = f.force
	}
	if flags.Changed("parallel") {
		opts.Parallel = f.parallel
	}
	if flags.Changed("measure-skipped") {
		opts.MeasureSkipped = f.measureSkipped
	}
	if flags.Changed("quiet") {
		opts.Quiet = f.quiet
	}

	return opts, nil
}

// openSink picks where file decisions go: the log file, stderr, or nowhere
func openSink(ctx context.Context, opts *config.Options, verbose bool, stderr io.Writer) (*log.Logger, error) {
	switch {
	case opts.LogFile != "":
		return log.NewFile(ctx, opts.LogFile)
	case verbose:
		return log.NewConsole(ctx, stderr), nil
	default:
		return log.Muted(ctx), nil
	}
}

// newDisplay draws progress only for an interactive terminal
func newDisplay(quiet bool) (status.Display, error) {
	if quiet || !isatty.IsTerminal(os.Stdout.Fd()) {
		return status.NopDisplay{}, nil
	}
	return status.NewAreaDisplay()
}

func runSync(cmd *cobra.Command, f *rootFlags, args []string) error {
	ctx := cmd.Context()
	fs := afero.NewOsFs()

	opts, err := resolveOptions(ctx, cmd, fs, f, args)
	if err != nil {
		return err
	}
	if err := config.Validate(ctx, fs, opts); err != nil {
		return errors.Errorf("validating options: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("options", opts.String()).Msg("resolved options")

	sink, err := openSink(ctx, opts, f.verbose, cmd.ErrOrStderr())
	if err != nil {
		return errors.Errorf("opening log: %w", err)
	}
	defer sink.Close()
	ctx = log.NewContext(ctx, sink)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ignore file = %s\n", opts.IgnoreFile)

	display, err := newDisplay(opts.Quiet)
	if err != nil {
		return err
	}

	stats, err := operation.Sync(ctx, *opts, sink, display)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, stats)
	return nil
}
