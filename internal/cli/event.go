package cli

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Predictory42/predictory/internal/compiler"
	"github.com/Predictory42/predictory/internal/market"
)

// NewEventCommand creates the event command group.
func NewEventCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage event lifecycle",
	}

	cmd.AddCommand(newEventCreateCommand(rootOpts))
	cmd.AddCommand(newEventOptionCommand(rootOpts))
	cmd.AddCommand(newEventUpdateCommand(rootOpts))
	cmd.AddCommand(newEventCancelCommand(rootOpts))
	cmd.AddCommand(newEventCompleteCommand(rootOpts))
	cmd.AddCommand(newEventShowCommand(rootOpts))

	return cmd
}

// EventCreateOptions holds flags for event create.
type EventCreateOptions struct {
	*RootOptions
	ID          string
	File        string
	Name        string
	Description string
	Start       int64
	End         int64
	Deadline    int64
	Private     bool
	Options     []string
}

func newEventCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event, posting the creator bond",
		Long: `Create an event, posting the creator bond.

The definition comes either from flags or from a CUE file:

  predictory event create --as org --file derby.cue
  predictory event create --as org --name derby --start 100 --end 200 \
      --option red --option blue`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventCreate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "event id (version 4 UUID; generated when omitted)")
	cmd.Flags().StringVar(&opts.File, "file", "", "CUE event definition file")
	cmd.Flags().StringVar(&opts.Name, "name", "", "event name")
	cmd.Flags().StringVar(&opts.Description, "description", "", "event description")
	cmd.Flags().Int64Var(&opts.Start, "start", 0, "start date, unix seconds")
	cmd.Flags().Int64Var(&opts.End, "end", 0, "end date, unix seconds")
	cmd.Flags().Int64Var(&opts.Deadline, "deadline", 0, "participation deadline, unix seconds (optional)")
	cmd.Flags().BoolVar(&opts.Private, "private", false, "hide the event from public listings")
	cmd.Flags().StringArrayVar(&opts.Options, "option", nil, "outcome option description (repeatable)")

	return cmd
}

func runEventCreate(cmd *cobra.Command, opts *EventCreateOptions) error {
	f := formatter(cmd, opts.RootOptions)
	actor, err := requireActor(opts.RootOptions)
	if err != nil {
		return err
	}

	args := market.CreateEventArgs{
		Name:        opts.Name,
		Description: opts.Description,
		StartDate:   opts.Start,
		EndDate:     opts.End,
		IsPrivate:   opts.Private,
	}
	optionDescs := opts.Options
	if opts.Deadline != 0 {
		d := opts.Deadline
		args.ParticipationDeadline = &d
	}

	if opts.File != "" {
		def, err := compiler.LoadEventFile(opts.File)
		if err != nil {
			return WrapExitError(ExitCommandError, "compile event definition", err)
		}
		args = market.CreateEventArgs{
			Name:                  def.Name,
			Description:           def.Description,
			StartDate:             def.StartDate,
			EndDate:               def.EndDate,
			ParticipationDeadline: def.ParticipationDeadline,
			IsPrivate:             def.IsPrivate,
		}
		optionDescs = def.Options
	}

	id := uuid.New()
	if opts.ID != "" {
		if id, err = uuid.Parse(opts.ID); err != nil {
			return WrapExitError(ExitCommandError, "parse event id", err)
		}
	}

	st, svc, err := openService(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	event, err := svc.CreateEvent(cmd.Context(), actor, id, args)
	if err != nil {
		return reportLedgerError(f, err)
	}
	for i, desc := range optionDescs {
		if err := svc.AddOption(cmd.Context(), actor, id, uint8(i), desc); err != nil {
			return reportLedgerError(f, err)
		}
	}

	if opts.Format == "json" {
		return f.Success(map[string]any{
			"id":      event.ID.String(),
			"stake":   event.Stake,
			"options": len(optionDescs),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created event %s with %d options (bond %d)\n", event.ID, len(optionDescs), event.Stake)
	return nil
}

func newEventOptionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "option <event-id> <index> <description>",
		Short:         "Add or rewrite an outcome option before the event starts",
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
			index, err := parseOptionIndex(args[1])
			if err != nil {
				return err
			}

			st, svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			view, err := svc.GetEvent(cmd.Context(), id)
			if err != nil {
				return reportLedgerError(f, err)
			}
			if index < view.Event.OptionCount {
				err = svc.UpdateOption(cmd.Context(), actor, id, index, args[2])
			} else {
				err = svc.AddOption(cmd.Context(), actor, id, index, args[2])
			}
			if err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				return f.Success(map[string]any{"event": id.String(), "index": index})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Option %d set on event %s\n", index, id)
			return nil
		},
	}
}

// EventUpdateOptions holds flags for event update.
type EventUpdateOptions struct {
	*RootOptions
	Name        string
	Description string
	End         int64
	Deadline    int64
}

func newEventUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventUpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "update <event-id>",
		Short:         "Update event fields before it starts",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventUpdate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "new event name")
	cmd.Flags().StringVar(&opts.Description, "description", "", "new event description")
	cmd.Flags().Int64Var(&opts.End, "end", 0, "new end date, unix seconds")
	cmd.Flags().Int64Var(&opts.Deadline, "deadline", 0, "new participation deadline, unix seconds")

	return cmd
}

func runEventUpdate(cmd *cobra.Command, opts *EventUpdateOptions, rawID string) error {
	f := formatter(cmd, opts.RootOptions)
	actor, err := requireActor(opts.RootOptions)
	if err != nil {
		return err
	}
	id, err := parseEventID(rawID)
	if err != nil {
		return err
	}

	st, svc, err := openService(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	updated := 0
	ctx := cmd.Context()
	if opts.Name != "" {
		if err := svc.UpdateEventName(ctx, actor, id, opts.Name); err != nil {
			return reportLedgerError(f, err)
		}
		updated++
	}
	if opts.Description != "" {
		if err := svc.UpdateEventDescription(ctx, actor, id, opts.Description); err != nil {
			return reportLedgerError(f, err)
		}
		updated++
	}
	if opts.End != 0 {
		if err := svc.UpdateEventEndDate(ctx, actor, id, opts.End); err != nil {
			return reportLedgerError(f, err)
		}
		updated++
	}
	if opts.Deadline != 0 {
		d := opts.Deadline
		if err := svc.UpdateEventParticipationDeadline(ctx, actor, id, &d); err != nil {
			return reportLedgerError(f, err)
		}
		updated++
	}
	if updated == 0 {
		return NewExitError(ExitCommandError, "nothing to update: set --name, --description, --end or --deadline")
	}

	if opts.Format == "json" {
		return f.Success(map[string]any{"event": id.String(), "updated": updated})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated event %s\n", id)
	return nil
}

func newEventCancelCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "cancel <event-id>",
		Short:         "Cancel an event after its end date",
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

			if err := svc.CancelEvent(cmd.Context(), actor, id); err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				return f.Success(map[string]any{"event": id.String(), "canceled": true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Canceled event %s\n", id)
			return nil
		},
	}
}

func newEventCompleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "complete <event-id> <result>",
		Short:         "Declare the winning option",
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
			result, err := parseOptionIndex(args[1])
			if err != nil {
				return err
			}

			st, svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := svc.CompleteEvent(cmd.Context(), actor, id, result); err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				return f.Success(map[string]any{"event": id.String(), "result": result})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed event %s with result %d\n", id, result)
			return nil
		},
	}
}

func newEventShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <event-id>",
		Short:         "Show an event, its metadata and options",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, opts)
			id, err := parseEventID(args[0])
			if err != nil {
				return err
			}

			st, svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			view, err := svc.GetEvent(cmd.Context(), id)
			if err != nil {
				return reportLedgerError(f, err)
			}

			if opts.Format == "json" {
				options := make([]map[string]any, len(view.Options))
				for i, o := range view.Options {
					options[i] = map[string]any{
						"index":         o.Index,
						"description":   o.Description,
						"votes":         o.Votes,
						"vault_balance": o.VaultBalance,
					}
				}
				payload := map[string]any{
					"id":           view.Event.ID.String(),
					"authority":    view.Event.Authority,
					"name":         view.Meta.Name,
					"description":  view.Meta.Description,
					"private":      view.Meta.IsPrivate,
					"stake":        view.Event.Stake,
					"start_date":   view.Event.StartDate,
					"end_date":     view.Event.EndDate,
					"canceled":     view.Event.Canceled,
					"total_amount": view.Event.TotalAmount,
					"total_trust":  view.Event.TotalTrust,
					"participants": view.Event.ParticipationCount,
					"options":      options,
				}
				if view.Event.Result != nil {
					payload["result"] = *view.Event.Result
				}
				return f.Success(payload)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", view.Event.ID, view.Meta.Name)
			fmt.Fprintf(out, "  authority: %s\n", view.Event.Authority)
			fmt.Fprintf(out, "  window:    [%d, %d]\n", view.Event.StartDate, view.Event.EndDate)
			fmt.Fprintf(out, "  pot:       %d from %d participants\n", view.Event.TotalAmount, view.Event.ParticipationCount)
			switch {
			case view.Event.Canceled:
				fmt.Fprintln(out, "  status:    canceled")
			case view.Event.Result != nil:
				fmt.Fprintf(out, "  status:    completed, result %d\n", *view.Event.Result)
			default:
				fmt.Fprintln(out, "  status:    open")
			}
			for _, o := range view.Options {
				fmt.Fprintf(out, "  [%d] %s  votes=%d vault=%d\n", o.Index, o.Description, o.Votes, o.VaultBalance)
			}
			return nil
		},
	}
}

// parseEventID parses an event id argument.
func parseEventID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid event id %q", s), err)
	}
	return id, nil
}

// parseOptionIndex parses an option index argument.
func parseOptionIndex(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid option index %q", s), err)
	}
	return uint8(n), nil
}
