package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Predictory42/predictory/internal/config"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Config    string
	Authority string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the ledger database and contract state",
		Long: `Initialize the ledger database and write the singleton contract state.

Parameters come from the config file when one is given, with stock
defaults otherwise. The authority defaults to the --as identity.

Example:
  predictory init --as admin --config predictory.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&opts.Authority, "authority", "", "contract authority (defaults to --as)")

	return cmd
}

func runInit(cmd *cobra.Command, opts *InitOptions) error {
	f := formatter(cmd, opts.RootOptions)

	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return WrapExitError(ExitCommandError, "load config", err)
		}
	}

	authority := opts.Authority
	if authority == "" {
		authority = opts.Actor
	}
	if authority == "" && cfg.Authority == "" {
		return NewExitError(ExitCommandError, "an authority is required: set --authority, --as, or authority in the config file")
	}

	st, svc, err := openService(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	state := cfg.State(authority)
	if err := svc.Initialize(cmd.Context(), state); err != nil {
		return reportLedgerError(f, err)
	}

	if opts.Format == "json" {
		return f.Success(map[string]any{
			"authority":   state.Authority,
			"multiplier":  state.Multiplier,
			"event_price": state.EventPrice,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger at %s (authority %s)\n", opts.DB, state.Authority)
	return nil
}
