package harness

import (
	"context"
	"fmt"

	"github.com/Predictory42/predictory/internal/ledger"
	"github.com/Predictory42/predictory/internal/market"
	"github.com/Predictory42/predictory/internal/store"
	"github.com/Predictory42/predictory/internal/testutil"
)

// Result holds the outcome of a scenario run.
type Result struct {
	Scenario *Scenario

	// Snapshot is the canonical final-state map compared against golden
	// files: contract state, users, and events with their options and
	// participations.
	Snapshot map[string]any

	// Journal is the full operation journal after the run.
	Journal []store.JournalEntry
}

// Run executes a scenario against a fresh in-memory ledger. Every step
// must either succeed or be rejected with exactly the code its Expect
// field names; anything else aborts the run.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	clock := testutil.NewManualClock(0)
	svc := market.New(st, market.WithClock(clock))

	if err := svc.Initialize(ctx, scenario.State.ledgerState()); err != nil {
		return nil, fmt.Errorf("initialize state: %w", err)
	}

	for i, step := range scenario.Steps {
		clock.Set(step.At)

		err := runStep(ctx, svc, &step)
		if step.Expect == "" {
			if err != nil {
				return nil, fmt.Errorf("steps[%d] %s at t=%d: %w", i, step.Op, step.At, err)
			}
			continue
		}
		if err == nil {
			return nil, fmt.Errorf("steps[%d] %s at t=%d: expected %s, succeeded", i, step.Op, step.At, step.Expect)
		}
		if code := ledger.CodeOf(err); code != ledger.Code(step.Expect) {
			return nil, fmt.Errorf("steps[%d] %s at t=%d: expected %s, got %w", i, step.Op, step.At, step.Expect, err)
		}
	}

	snapshot, err := buildSnapshot(ctx, st, scenario.Name)
	if err != nil {
		return nil, err
	}

	var journal []store.JournalEntry
	err = st.View(ctx, func(tx *store.Tx) error {
		journal, err = tx.ListJournal("")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	return &Result{Scenario: scenario, Snapshot: snapshot, Journal: journal}, nil
}

// runStep dispatches one scenario step to the service.
func runStep(ctx context.Context, svc *market.Service, step *Step) error {
	switch step.Op {
	case "user.create":
		name, err := argString(step.Args, "name")
		if err != nil {
			return err
		}
		_, err = svc.CreateUser(ctx, step.Actor, name)
		return err

	case "user.deposit":
		amount, err := argInt64(step.Args, "amount")
		if err != nil {
			return err
		}
		_, err = svc.DepositStake(ctx, step.Actor, amount)
		return err

	case "user.withdraw":
		_, err := svc.WithdrawStake(ctx, step.Actor)
		return err

	case "event.create":
		return runEventCreate(ctx, svc, step)

	case "event.option":
		id, err := step.EventID()
		if err != nil {
			return err
		}
		index, err := argInt64(step.Args, "index")
		if err != nil {
			return err
		}
		desc, err := argString(step.Args, "description")
		if err != nil {
			return err
		}
		return svc.AddOption(ctx, step.Actor, id, uint8(index), desc)

	case "event.cancel":
		id, err := step.EventID()
		if err != nil {
			return err
		}
		return svc.CancelEvent(ctx, step.Actor, id)

	case "event.complete":
		id, err := step.EventID()
		if err != nil {
			return err
		}
		result, err := argInt64(step.Args, "result")
		if err != nil {
			return err
		}
		return svc.CompleteEvent(ctx, step.Actor, id, uint8(result))

	case "vote":
		id, err := step.EventID()
		if err != nil {
			return err
		}
		option, err := argInt64(step.Args, "option")
		if err != nil {
			return err
		}
		amount, err := argInt64(step.Args, "amount")
		if err != nil {
			return err
		}
		_, err = svc.Vote(ctx, step.Actor, id, uint8(option), amount)
		return err

	case "claim":
		id, err := step.EventID()
		if err != nil {
			return err
		}
		_, err = svc.ClaimEventReward(ctx, step.Actor, id)
		return err

	case "recharge":
		id, err := step.EventID()
		if err != nil {
			return err
		}
		_, err = svc.Recharge(ctx, step.Actor, id)
		return err

	case "appeal":
		id, err := step.EventID()
		if err != nil {
			return err
		}
		_, err = svc.Appeal(ctx, step.Actor, id)
		return err

	case "burn":
		id, err := step.EventID()
		if err != nil {
			return err
		}
		trust, err := argInt64(step.Args, "trust_amount")
		if err != nil {
			return err
		}
		_, err = svc.BurnTrust(ctx, step.Actor, id, trust)
		return err

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func runEventCreate(ctx context.Context, svc *market.Service, step *Step) error {
	id, err := step.EventID()
	if err != nil {
		return err
	}
	name, err := argString(step.Args, "name")
	if err != nil {
		return err
	}
	start, err := argInt64(step.Args, "start_date")
	if err != nil {
		return err
	}
	end, err := argInt64(step.Args, "end_date")
	if err != nil {
		return err
	}

	args := market.CreateEventArgs{
		Name:      name,
		StartDate: start,
		EndDate:   end,
	}
	if _, ok := step.Args["description"]; ok {
		if args.Description, err = argString(step.Args, "description"); err != nil {
			return err
		}
	}
	if _, ok := step.Args["participation_deadline"]; ok {
		d, err := argInt64(step.Args, "participation_deadline")
		if err != nil {
			return err
		}
		args.ParticipationDeadline = &d
	}

	if _, err := svc.CreateEvent(ctx, step.Actor, id, args); err != nil {
		return err
	}

	options, err := argStrings(step.Args, "options")
	if err != nil {
		return err
	}
	for i, desc := range options {
		if err := svc.AddOption(ctx, step.Actor, id, uint8(i), desc); err != nil {
			return err
		}
	}
	return nil
}

func argString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing arg %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("arg %q: expected string, got %T", key, v)
	}
	return s, nil
}

func argInt64(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing arg %q", key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("arg %q: expected integer, got %T", key, v)
	}
}

func argStrings(args map[string]any, key string) ([]string, error) {
	v, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("missing arg %q", key)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("arg %q: expected list, got %T", key, v)
	}
	out := make([]string, len(list))
	for i, elem := range list {
		s, ok := elem.(string)
		if !ok {
			return nil, fmt.Errorf("arg %q[%d]: expected string, got %T", key, i, elem)
		}
		out[i] = s
	}
	return out, nil
}

// buildSnapshot reads the complete final state into a canonical map.
func buildSnapshot(ctx context.Context, st *store.Store, name string) (map[string]any, error) {
	var snapshot map[string]any
	err := st.View(ctx, func(tx *store.Tx) error {
		state, err := tx.GetState()
		if err != nil {
			return err
		}
		users, err := tx.ListUsers()
		if err != nil {
			return err
		}
		events, err := tx.ListEvents()
		if err != nil {
			return err
		}

		userList := make([]any, len(users))
		for i, u := range users {
			userList[i] = map[string]any{
				"id":           u.ID,
				"name":         u.Name,
				"stake":        u.Stake,
				"locked_stake": u.LockedStake,
				"trust_lvl":    u.TrustLvl,
			}
		}

		eventList := make([]any, len(events))
		for i := range events {
			e := &events[i]
			options, err := tx.ListOptions(e.ID)
			if err != nil {
				return err
			}
			parts, err := tx.ListParticipations(e.ID)
			if err != nil {
				return err
			}

			optionList := make([]any, len(options))
			for j, o := range options {
				optionList[j] = map[string]any{
					"description":   o.Description,
					"votes":         o.Votes,
					"vault_balance": o.VaultBalance,
				}
			}
			partList := make([]any, len(parts))
			for j, p := range parts {
				partList[j] = map[string]any{
					"user":      p.UserID,
					"option":    p.Option,
					"deposited": p.DepositedAmount,
					"claimed":   p.IsClaimed,
					"appealed":  p.Appealed,
				}
			}

			eventMap := map[string]any{
				"id":             e.ID.String(),
				"authority":      e.Authority,
				"stake":          e.Stake,
				"canceled":       e.Canceled,
				"total_amount":   e.TotalAmount,
				"total_trust":    e.TotalTrust,
				"participants":   e.ParticipationCount,
				"options":        optionList,
				"participations": partList,
			}
			if e.Result != nil {
				eventMap["result"] = *e.Result
			}
			eventList[i] = eventMap
		}

		snapshot = map[string]any{
			"scenario_name": name,
			"treasury":      state.Treasury,
			"users":         userList,
			"events":        eventList,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}
	return snapshot, nil
}
