package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Predictory42/predictory/internal/ledger"
	"github.com/Predictory42/predictory/internal/market"
	"github.com/Predictory42/predictory/internal/store"
)

// openService opens the ledger database and wires the market service over
// it. The caller owns the returned store and must Close it.
func openService(opts *RootOptions) (*store.Store, *market.Service, error) {
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, fmt.Sprintf("open database %s", opts.DB), err)
	}
	return st, market.New(st), nil
}

// formatter builds the output formatter for a command invocation.
func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// requireActor enforces the --as flag on commands that act on behalf of a
// user.
func requireActor(opts *RootOptions) (string, error) {
	if opts.Actor == "" {
		return "", NewExitError(ExitCommandError, "--as <user-id> is required for this command")
	}
	return opts.Actor, nil
}

// reportLedgerError renders a coded ledger error through the formatter
// and converts it into an ExitFailure, so rejected operations exit 1 and
// broken invocations exit 2.
func reportLedgerError(f *OutputFormatter, err error) error {
	code := ledger.CodeOf(err)
	if code == "" {
		return WrapExitError(ExitCommandError, "operation failed", err)
	}
	if ferr := f.Error(string(code), err.Error(), nil); ferr != nil {
		return ferr
	}
	return &ExitError{Code: ExitFailure, Message: err.Error(), Err: err}
}
