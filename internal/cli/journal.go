package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Event string
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "journal",
		Short:         "List the operation journal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Event, "event", "", "filter by event id")

	return cmd
}

func runJournal(cmd *cobra.Command, opts *JournalOptions) error {
	f := formatter(cmd, opts.RootOptions)

	if opts.Event != "" {
		if _, err := parseEventID(opts.Event); err != nil {
			return err
		}
	}

	st, svc, err := openService(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := svc.Journal(cmd.Context(), opts.Event)
	if err != nil {
		return reportLedgerError(f, err)
	}

	if opts.Format == "json" {
		payload := make([]map[string]any, len(entries))
		for i, e := range entries {
			m := map[string]any{
				"seq":     e.Seq,
				"op":      e.Op,
				"payload": e.Payload,
			}
			if e.EventID != "" {
				m["event"] = e.EventID
			}
			if e.Actor != "" {
				m["actor"] = e.Actor
			}
			payload[i] = m
		}
		return f.Success(payload)
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(out, "%6d  %-24s  %-36s  %-12s  %s\n", e.Seq, e.Op, e.EventID, e.Actor, e.Payload)
	}
	return nil
}
