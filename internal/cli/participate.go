package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVoteCommand creates the vote command.
func NewVoteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "vote <event-id> <option> <amount>",
		Short:         "Stake collateral on an event option",
		Example:       `  predictory vote 3f0f... 0 500000000 --as alice`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, opts)
			actor, err := requireActor(opts)
			if err != nil {
				return err
			}
			id, err := parseEventID(args[0])
			if err != nil {
				return err
			}
			option, err := parseOptionIndex(args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}

			st, svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			p, err := svc.Vote(cmd.Context(), actor, id, option, amount)
			if err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				return f.Success(map[string]any{
					"event":     id.String(),
					"option":    p.Option,
					"deposited": p.DepositedAmount,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Voted option %d on %s with %d\n", option, id, amount)
			return nil
		},
	}
}

// NewClaimCommand creates the claim command.
func NewClaimCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "claim <event-id>",
		Short:         "Settle a participation after the dispute window",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, opts)
			actor, err := requireActor(opts)
			if err != nil {
				return err
			}
			id, err := parseEventID(args[0])
			if err != nil {
				return err
			}

			st, svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := svc.ClaimEventReward(cmd.Context(), actor, id)
			if err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				return f.Success(map[string]any{
					"won":         res.Won,
					"paid":        res.Paid,
					"trust_delta": res.TrustDelta,
				})
			}
			if res.Won {
				fmt.Fprintf(cmd.OutOrStdout(), "Won: paid %d, trust +%d\n", res.Paid, res.TrustDelta)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Lost: stake released, trust +%d\n", res.TrustDelta)
			}
			return nil
		},
	}
}

// NewRechargeCommand creates the recharge command.
func NewRechargeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "recharge <event-id>",
		Short:         "Refund a deposit from a canceled event",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, opts)
			actor, err := requireActor(opts)
			if err != nil {
				return err
			}
			id, err := parseEventID(args[0])
			if err != nil {
				return err
			}

			st, svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			amount, err := svc.Recharge(cmd.Context(), actor, id)
			if err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				return f.Success(map[string]any{"refunded": amount})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refunded %d from %s\n", amount, id)
			return nil
		},
	}
}

// NewAppealCommand creates the appeal command.
func NewAppealCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "appeal <event-id>",
		Short:         "Dispute a declared result",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, opts)
			actor, err := requireActor(opts)
			if err != nil {
				return err
			}
			id, err := parseEventID(args[0])
			if err != nil {
				return err
			}

			st, svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			forfeited, err := svc.Appeal(cmd.Context(), actor, id)
			if err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				return f.Success(map[string]any{"forfeited": forfeited})
			}
			if forfeited {
				fmt.Fprintf(cmd.OutOrStdout(), "Appeal recorded; creator bond forfeited\n")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Appeal recorded\n")
			}
			return nil
		},
	}
}

// NewBurnCommand creates the burn command.
func NewBurnCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "burn <event-id> <trust-amount>",
		Short:         "Burn trust to unlock deposited collateral early",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, opts)
			actor, err := requireActor(opts)
			if err != nil {
				return err
			}
			id, err := parseEventID(args[0])
			if err != nil {
				return err
			}
			trust, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			st, svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			unlocked, err := svc.BurnTrust(cmd.Context(), actor, id, trust)
			if err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				return f.Success(map[string]any{"unlocked": unlocked})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unlocked %d from %s\n", unlocked, id)
			return nil
		},
	}
}
