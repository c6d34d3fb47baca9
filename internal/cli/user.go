package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Predictory42/predictory/internal/ledger"
)

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users and their collateral",
	}

	cmd.AddCommand(newUserCreateCommand(rootOpts))
	cmd.AddCommand(newUserDepositCommand(rootOpts))
	cmd.AddCommand(newUserWithdrawCommand(rootOpts))
	cmd.AddCommand(newUserShowCommand(rootOpts))

	return cmd
}

func newUserCreateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "create <name>",
		Short:         "Register the acting identity as a new user",
		Example:       `  predictory user create "Alice" --as alice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, opts)
			actor, err := requireActor(opts)
			if err != nil {
				return err
			}

			st, svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := svc.CreateUser(cmd.Context(), actor, args[0])
			if err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				return f.Success(userPayload(user))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered user %s (%s), trust %d\n", user.ID, user.Name, user.TrustLvl)
			return nil
		},
	}
}

func newUserDepositCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "deposit <amount>",
		Short:         "Deposit free collateral, in base units",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, opts)
			actor, err := requireActor(opts)
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}

			st, svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := svc.DepositStake(cmd.Context(), actor, amount)
			if err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				return f.Success(userPayload(user))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deposited %d; stake %d, locked %d\n", amount, user.Stake, user.LockedStake)
			return nil
		},
	}
}

func newUserWithdrawCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "withdraw",
		Short:         "Withdraw all free collateral",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, opts)
			actor, err := requireActor(opts)
			if err != nil {
				return err
			}

			st, svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			amount, err := svc.WithdrawStake(cmd.Context(), actor)
			if err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				return f.Success(map[string]any{"withdrawn": amount})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Withdrew %d\n", amount)
			return nil
		},
	}
}

func newUserShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show [user-id]",
		Short:         "Show a user's balances and trust",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, opts)

			id := opts.Actor
			if len(args) == 1 {
				id = args[0]
			}
			if id == "" {
				return NewExitError(ExitCommandError, "a user id is required: pass one or set --as")
			}

			st, svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			user, err := svc.GetUser(cmd.Context(), id)
			if err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				return f.Success(userPayload(user))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n  stake:  %d\n  locked: %d\n  trust:  %d\n",
				user.ID, user.Name, user.Stake, user.LockedStake, user.TrustLvl)
			return nil
		},
	}
}

func userPayload(u *ledger.User) map[string]any {
	return map[string]any{
		"id":           u.ID,
		"name":         u.Name,
		"stake":        u.Stake,
		"locked_stake": u.LockedStake,
		"trust_lvl":    u.TrustLvl,
	}
}

// parseAmount parses a positive base-unit amount argument.
func parseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid amount %q: must be a positive integer of base units", s))
	}
	return n, nil
}
