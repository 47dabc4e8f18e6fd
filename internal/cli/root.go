// Package cli implements the hsmctl commands.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for hsmctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hsmctl",
		Short: "Inspect and exercise hierarchical state machine definitions",
		Long: `hsmctl loads YAML, JSON or CUE state machine definitions, validates
them, renders them as Graphviz DOT and replays events or scenarios.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log engine diagnostics to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDotCommand(opts))
	cmd.AddCommand(NewSendCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// engineOptions returns the options every command passes to the engine.
// With --verbose, diagnostics go to the command's stderr through zap.
func engineOptions(opts *RootOptions, cmd *cobra.Command) ([]hsm.Option, func()) {
	if !opts.Verbose {
		return nil, func() {}
	}
	format := logging.FormatConsole
	if opts.Format == "json" {
		format = logging.FormatJSON
	}
	log := logging.NewTo(zapcore.AddSync(cmd.ErrOrStderr()), "debug", format).
		With(zap.String("command", cmd.Name()))
	return []hsm.Option{hsm.WithSink(logging.NewZapSink(log))}, func() { _ = log.Sync() }
}
