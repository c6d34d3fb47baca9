package market

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Predictory42/predictory/internal/ledger"
	"github.com/Predictory42/predictory/internal/store"
)

// CreateEventArgs carries the creation-time event fields.
type CreateEventArgs struct {
	Name                  string
	Description           string
	StartDate             int64
	EndDate               int64
	ParticipationDeadline *int64
	IsPrivate             bool
}

// validate checks the identifier scheme and the date invariants.
func (a *CreateEventArgs) validate(id uuid.UUID) error {
	if err := ledger.ValidateEventID(id); err != nil {
		return err
	}
	if a.StartDate >= a.EndDate {
		return ledger.NewError(ledger.ErrInvalidEndDate, "start date must precede end date")
	}
	if d := a.ParticipationDeadline; d != nil {
		if *d < a.StartDate || *d > a.EndDate {
			return ledger.NewError(ledger.ErrInvalidEndDate, "participation deadline outside event window")
		}
	}
	return nil
}

// CreateEvent opens a new event. The creator posts the configured bond
// from free collateral; it stays locked until settlement release,
// cancellation or appeal forfeiture.
func (s *Service) CreateEvent(ctx context.Context, actor string, id uuid.UUID, args CreateEventArgs) (*ledger.Event, error) {
	if err := args.validate(id); err != nil {
		return nil, err
	}

	var event *ledger.Event
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		st, err := tx.GetState()
		if err != nil {
			return err
		}
		creator, err := tx.GetUser(actor)
		if err != nil {
			return err
		}
		if creator.Stake < st.EventPrice {
			return &ledger.Error{Code: ledger.ErrStakeTooLow, Message: "free stake below event price", UserID: actor}
		}

		e := &ledger.Event{
			ID:                    id,
			Authority:             actor,
			Stake:                 st.EventPrice,
			StartDate:             args.StartDate,
			EndDate:               args.EndDate,
			ParticipationDeadline: args.ParticipationDeadline,
		}
		inserted, err := tx.InsertEvent(e)
		if err != nil {
			return err
		}
		if !inserted {
			return ledger.NewEventError(ledger.ErrAlreadyExists, "event id already in use", id.String())
		}
		if _, err := tx.InsertEventMeta(&ledger.EventMeta{
			EventID:     id,
			Name:        args.Name,
			Description: args.Description,
			IsPrivate:   args.IsPrivate,
		}); err != nil {
			return err
		}

		// The bond moves free -> locked on the creator's ledger and is
		// mirrored on the event record.
		if creator.Stake, err = ledger.SubChecked(creator.Stake, st.EventPrice, ledger.ErrStakeTooLow); err != nil {
			return err
		}
		if creator.LockedStake, err = ledger.AddChecked(creator.LockedStake, st.EventPrice); err != nil {
			return err
		}
		if err := tx.UpdateUser(creator); err != nil {
			return err
		}

		event = e
		return journal(tx, "event.create", id, actor, map[string]any{
			"start_date": args.StartDate,
			"end_date":   args.EndDate,
			"stake":      st.EventPrice,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("event created", "event", id, "authority", actor)
	return event, nil
}

// AddOption appends the next outcome option to an event. Options must be
// created sequentially, index 0 first, and only before the event starts.
func (s *Service) AddOption(ctx context.Context, actor string, eventID uuid.UUID, index uint8, description string) error {
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		e, err := s.mutableEvent(tx, actor, eventID)
		if err != nil {
			return err
		}
		if index != e.OptionCount {
			return ledger.NewEventError(ledger.ErrInvalidIndex, "option index must be sequential", eventID.String())
		}
		if e.OptionCount >= ledger.MaxOptionCount {
			return ledger.NewEventError(ledger.ErrTooManyOptions, "event has too many options", eventID.String())
		}

		if _, err := tx.InsertOption(&ledger.EventOption{
			EventID:     eventID,
			Index:       index,
			Description: description,
		}); err != nil {
			return err
		}

		e.OptionCount++
		if err := tx.UpdateEvent(e); err != nil {
			return err
		}
		return journal(tx, "event.add_option", eventID, actor, map[string]any{"index": index})
	})
	if err != nil {
		return err
	}

	slog.Info("option added", "event", eventID, "index", index)
	return nil
}

// UpdateOption rewrites an option's description before the event starts.
func (s *Service) UpdateOption(ctx context.Context, actor string, eventID uuid.UUID, index uint8, description string) error {
	return s.store.Update(ctx, func(tx *store.Tx) error {
		if _, err := s.mutableEvent(tx, actor, eventID); err != nil {
			return err
		}
		o, err := tx.GetOption(eventID, index)
		if err != nil {
			return err
		}
		o.Description = description
		if err := tx.UpdateOption(o); err != nil {
			return err
		}
		return journal(tx, "event.update_option", eventID, actor, map[string]any{"index": index})
	})
}

// UpdateEventName renames the event before it starts.
func (s *Service) UpdateEventName(ctx context.Context, actor string, eventID uuid.UUID, name string) error {
	return s.updateMeta(ctx, actor, eventID, "event.update_name", func(m *ledger.EventMeta) {
		m.Name = name
	})
}

// UpdateEventDescription rewrites the description before the event starts.
func (s *Service) UpdateEventDescription(ctx context.Context, actor string, eventID uuid.UUID, description string) error {
	return s.updateMeta(ctx, actor, eventID, "event.update_description", func(m *ledger.EventMeta) {
		m.Description = description
	})
}

func (s *Service) updateMeta(ctx context.Context, actor string, eventID uuid.UUID, op string, mutate func(*ledger.EventMeta)) error {
	return s.store.Update(ctx, func(tx *store.Tx) error {
		if _, err := s.mutableEvent(tx, actor, eventID); err != nil {
			return err
		}
		m, err := tx.GetEventMeta(eventID)
		if err != nil {
			return err
		}
		mutate(m)
		if err := tx.UpdateEventMeta(m); err != nil {
			return err
		}
		return journal(tx, op, eventID, actor, map[string]any{})
	})
}

// UpdateEventEndDate moves the end date before the event starts,
// re-validating the date invariants.
func (s *Service) UpdateEventEndDate(ctx context.Context, actor string, eventID uuid.UUID, endDate int64) error {
	return s.store.Update(ctx, func(tx *store.Tx) error {
		e, err := s.mutableEvent(tx, actor, eventID)
		if err != nil {
			return err
		}
		if endDate <= e.StartDate {
			return ledger.NewEventError(ledger.ErrInvalidEndDate, "end date must follow start date", eventID.String())
		}
		if d := e.ParticipationDeadline; d != nil && *d > endDate {
			return ledger.NewEventError(ledger.ErrInvalidEndDate, "participation deadline outside event window", eventID.String())
		}
		e.EndDate = endDate
		if err := tx.UpdateEvent(e); err != nil {
			return err
		}
		return journal(tx, "event.update_end_date", eventID, actor, map[string]any{"end_date": endDate})
	})
}

// UpdateEventParticipationDeadline sets or clears the participation
// deadline before the event starts.
func (s *Service) UpdateEventParticipationDeadline(ctx context.Context, actor string, eventID uuid.UUID, deadline *int64) error {
	return s.store.Update(ctx, func(tx *store.Tx) error {
		e, err := s.mutableEvent(tx, actor, eventID)
		if err != nil {
			return err
		}
		if deadline != nil && (*deadline < e.StartDate || *deadline > e.EndDate) {
			return ledger.NewEventError(ledger.ErrInvalidEndDate, "participation deadline outside event window", eventID.String())
		}
		e.ParticipationDeadline = deadline
		if err := tx.UpdateEvent(e); err != nil {
			return err
		}
		return journal(tx, "event.update_deadline", eventID, actor, map[string]any{})
	})
}

// CancelEvent voids an event after its end date. The creator may cancel
// any time post-end; anyone may cancel once the completion deadline has
// also passed (abandonment safeguard). Cancellation releases the creator
// bond and makes recharge the only remaining settlement path.
func (s *Service) CancelEvent(ctx context.Context, actor string, eventID uuid.UUID) error {
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		st, err := tx.GetState()
		if err != nil {
			return err
		}
		e, err := tx.GetEvent(eventID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if now <= e.EndDate {
			return ledger.NewEventError(ledger.ErrEventIsNotOver, "event is not over", eventID.String())
		}
		if e.Canceled {
			return ledger.NewEventError(ledger.ErrCanceledEvent, "event already canceled", eventID.String())
		}
		if e.Completed() {
			return ledger.NewEventError(ledger.ErrAlreadyCompleted, "event already completed", eventID.String())
		}
		if actor != e.Authority && now <= e.EndDate+st.CompletionDeadline {
			return ledger.NewEventError(ledger.ErrAuthorityMismatch, "only the event authority may cancel before abandonment", eventID.String())
		}

		e.Canceled = true
		if e.Stake > 0 {
			if err := releaseBond(tx, e, e.Stake); err != nil {
				return err
			}
		}
		if err := tx.UpdateEvent(e); err != nil {
			return err
		}
		return journal(tx, "event.cancel", eventID, actor, map[string]any{})
	})
	if err != nil {
		return err
	}

	slog.Info("event canceled", "event", eventID, "by", actor)
	return nil
}

// CompleteEvent declares the winning option after the end date.
func (s *Service) CompleteEvent(ctx context.Context, actor string, eventID uuid.UUID, result uint8) error {
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		e, err := tx.GetEvent(eventID)
		if err != nil {
			return err
		}
		if e.Authority != actor {
			return ledger.NewEventError(ledger.ErrAuthorityMismatch, "only the event authority may complete", eventID.String())
		}
		if s.clock.Now() <= e.EndDate {
			return ledger.NewEventError(ledger.ErrEventIsNotOver, "event is not over", eventID.String())
		}
		if e.Canceled {
			return ledger.NewEventError(ledger.ErrCanceledEvent, "event is canceled", eventID.String())
		}
		if e.Completed() {
			return ledger.NewEventError(ledger.ErrAlreadyCompleted, "event already completed", eventID.String())
		}
		if result >= e.OptionCount {
			return ledger.NewEventError(ledger.ErrInvalidIndex, "result index out of range", eventID.String())
		}

		e.Result = &result
		if err := tx.UpdateEvent(e); err != nil {
			return err
		}
		return journal(tx, "event.complete", eventID, actor, map[string]any{"result": result})
	})
	if err != nil {
		return err
	}

	slog.Info("event completed", "event", eventID, "result", result)
	return nil
}

// mutableEvent loads an event and enforces the mutation-before-start
// guard shared by all metadata and option updates.
func (s *Service) mutableEvent(tx *store.Tx, actor string, eventID uuid.UUID) (*ledger.Event, error) {
	e, err := tx.GetEvent(eventID)
	if err != nil {
		return nil, err
	}
	if e.Authority != actor {
		return nil, ledger.NewEventError(ledger.ErrAuthorityMismatch, "only the event authority may modify the event", eventID.String())
	}
	if s.clock.Now() >= e.StartDate {
		return nil, ledger.NewEventError(ledger.ErrEventAlreadyStarted, "event has already started", eventID.String())
	}
	return e, nil
}

// releaseBond returns amount of the event bond to the creator's free
// balance and zeroes the mirror on the event record.
func releaseBond(tx *store.Tx, e *ledger.Event, amount int64) error {
	creator, err := tx.GetUser(e.Authority)
	if err != nil {
		return err
	}
	if creator.LockedStake, err = ledger.SubChecked(creator.LockedStake, amount, ledger.ErrInsufficientStake); err != nil {
		return err
	}
	if creator.Stake, err = ledger.AddChecked(creator.Stake, amount); err != nil {
		return err
	}
	if err := tx.UpdateUser(creator); err != nil {
		return err
	}
	e.Stake = 0
	return nil
}
