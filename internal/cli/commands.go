package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/definition"
	"github.com/comalice/hsm/scenario"
	"github.com/comalice/hsm/visualize"
)

// ValidateResult is the payload of validate.
type ValidateResult struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Top     string `json:"top"`
	States  int    `json:"states"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate <definition>",
		Short:         "Compile a definition and report its identity",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter{format: rootOpts.Format, w: cmd.OutOrStdout()}
			m, err := definition.Load(args[0], nil)
			if err != nil {
				return f.fail(ExitCommandError, "invalid definition", err)
			}
			res := ValidateResult{
				Name:    m.Name,
				Version: m.Version,
				Top:     m.Graph.Name(m.Top),
				States:  m.Graph.Len(),
			}
			return f.result(res, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s: valid, %d states under %s\n", res.Name, res.Version, res.States, res.Top)
			})
		},
	}
}

// NewDotCommand creates the dot command.
func NewDotCommand(rootOpts *RootOptions) *cobra.Command {
	var events []string
	cmd := &cobra.Command{
		Use:   "dot <definition>",
		Short: "Render a definition as Graphviz DOT",
		Long: `Render a definition as Graphviz DOT. With --events the machine is
initialized and the events are replayed first; the resulting active
states are highlighted. With --format json the structure is printed instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter{format: rootOpts.Format, w: cmd.OutOrStdout()}
			m, err := definition.Load(args[0], nil)
			if err != nil {
				return f.fail(ExitCommandError, "invalid definition", err)
			}
			if rootOpts.Format == "json" {
				return f.result(m.Describe(), nil)
			}
			if len(events) == 0 {
				fmt.Fprint(cmd.OutOrStdout(), visualize.DOT(m.Describe()))
				return nil
			}

			opts, sync := engineOptions(rootOpts, cmd)
			defer sync()
			e, err := start(m, opts)
			if err != nil {
				return f.fail(ExitCommandError, "initialize", err)
			}
			for _, ev := range events {
				e.HandleEvent(ev)
			}
			fmt.Fprint(cmd.OutOrStdout(), visualize.EngineDOT(e))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&events, "events", nil, "events to replay before rendering")
	return cmd
}

// SendResult is the payload of send.
type SendResult struct {
	Events  []EventResult  `json:"events"`
	State   string         `json:"state"`
	Active  []string       `json:"active"`
	Context map[string]any `json:"context,omitempty"`
}

// EventResult reports one dispatched event.
type EventResult struct {
	Event   string `json:"event"`
	Handled bool   `json:"handled"`
	State   string `json:"state"`
}

// NewSendCommand creates the send command.
func NewSendCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "send <definition> <event>...",
		Short:         "Initialize a machine and dispatch events to it",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter{format: rootOpts.Format, w: cmd.OutOrStdout()}
			m, err := definition.Load(args[0], nil)
			if err != nil {
				return f.fail(ExitCommandError, "invalid definition", err)
			}
			opts, sync := engineOptions(rootOpts, cmd)
			defer sync()
			e, err := start(m, opts)
			if err != nil {
				return f.fail(ExitCommandError, "initialize", err)
			}

			var res SendResult
			for _, ev := range args[1:] {
				handled := e.HandleEvent(ev)
				res.Events = append(res.Events, EventResult{Event: ev, Handled: handled, State: e.CurrentStateName()})
			}
			res.State = e.CurrentStateName()
			res.Active = e.ActiveStates()
			if all := e.Context().GetAll(); len(all) > 0 {
				res.Context = all
			}
			return f.result(res, func(w io.Writer) {
				for _, r := range res.Events {
					verdict := "handled"
					if !r.Handled {
						verdict = "not handled"
					}
					fmt.Fprintf(w, "%s: %s, now in %s\n", r.Event, verdict, r.State)
				}
				fmt.Fprintf(w, "final state: %s\n", res.State)
			})
		},
	}
}

// RunResult is the payload of run.
type RunResult struct {
	Scenario string   `json:"scenario"`
	Passed   bool     `json:"passed"`
	Trace    []string `json:"trace"`
	Failures []string `json:"failures,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "run <definition> <scenario>",
		Short:         "Play a scenario against a definition",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter{format: rootOpts.Format, w: cmd.OutOrStdout()}
			m, err := definition.Load(args[0], nil)
			if err != nil {
				return f.fail(ExitCommandError, "invalid definition", err)
			}
			sc, err := scenario.LoadFile(args[1])
			if err != nil {
				return f.fail(ExitCommandError, "invalid scenario", err)
			}
			opts, sync := engineOptions(rootOpts, cmd)
			defer sync()
			res, err := scenario.Run(m, sc, scenario.WithEngineOptions(opts...))
			if err != nil {
				return f.fail(ExitCommandError, "run", err)
			}

			out := RunResult{Scenario: res.Scenario, Passed: res.Passed(), Trace: res.Trace, Failures: res.Failures}
			if err := f.result(out, func(w io.Writer) { _, _ = res.WriteTo(w) }); err != nil {
				return err
			}
			if !out.Passed {
				return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("scenario %q: %d expectation(s) failed", res.Scenario, len(res.Failures))}
			}
			return nil
		},
	}
}

func start(m *definition.Machine, opts []hsm.Option) (*hsm.Engine[*hsm.Context, string], error) {
	e, err := m.NewEngine(nil, opts...)
	if err != nil {
		return nil, err
	}
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	return e, nil
}
