package market

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Predictory42/predictory/internal/ledger"
	"github.com/Predictory42/predictory/internal/store"
)

// Vote commits the actor's stake on one option of an active event. A user
// may vote at most once per event; the participation record's composite
// key enforces that. The staked amount moves free -> locked and stays
// locked until claim, recharge or burn.
func (s *Service) Vote(ctx context.Context, actor string, eventID uuid.UUID, option uint8, amount int64) (*ledger.Participation, error) {
	if amount <= 0 {
		return nil, ledger.NewError(ledger.ErrInvalidAmount, "vote amount must be positive")
	}

	var part *ledger.Participation
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		e, err := tx.GetEvent(eventID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if now < e.StartDate || now > e.EndDate {
			return ledger.NewEventError(ledger.ErrInactiveEvent, "event is not active", eventID.String())
		}
		if d := e.ParticipationDeadline; d != nil && now >= *d {
			return ledger.NewEventError(ledger.ErrParticipationDeadlinePassed, "participation deadline passed", eventID.String())
		}
		if e.Canceled {
			return ledger.NewEventError(ledger.ErrCanceledEvent, "event is canceled", eventID.String())
		}
		if actor == e.Authority {
			return ledger.NewEventError(ledger.ErrCreatorParticipation, "event authority cannot vote on its own event", eventID.String())
		}
		if option >= e.OptionCount {
			return ledger.NewEventError(ledger.ErrInvalidIndex, "option index out of range", eventID.String())
		}

		u, err := tx.GetUser(actor)
		if err != nil {
			return err
		}
		if u.Stake < amount {
			return &ledger.Error{Code: ledger.ErrInsufficientStake, Message: "free stake below vote amount", EventID: eventID.String(), UserID: actor}
		}

		p := &ledger.Participation{
			EventID:         eventID,
			UserID:          actor,
			Option:          option,
			DepositedAmount: amount,
		}
		inserted, err := tx.InsertParticipation(p)
		if err != nil {
			return err
		}
		if !inserted {
			return &ledger.Error{Code: ledger.ErrAlreadyExists, Message: "user already voted on this event", EventID: eventID.String(), UserID: actor}
		}

		if u.Stake, err = ledger.SubChecked(u.Stake, amount, ledger.ErrInsufficientStake); err != nil {
			return err
		}
		if u.LockedStake, err = ledger.AddChecked(u.LockedStake, amount); err != nil {
			return err
		}
		if err := tx.UpdateUser(u); err != nil {
			return err
		}

		o, err := tx.GetOption(eventID, option)
		if err != nil {
			return err
		}
		o.Votes++
		if o.VaultBalance, err = ledger.AddChecked(o.VaultBalance, amount); err != nil {
			return err
		}
		if err := tx.UpdateOption(o); err != nil {
			return err
		}

		// Trust is snapshotted at vote time so later burns cannot retro-
		// actively shift the appeal denominator.
		e.ParticipationCount++
		if e.TotalAmount, err = ledger.AddChecked(e.TotalAmount, amount); err != nil {
			return err
		}
		if e.TotalTrust, err = ledger.AddChecked(e.TotalTrust, u.TrustLvl); err != nil {
			return err
		}
		if err := tx.UpdateEvent(e); err != nil {
			return err
		}

		part = p
		return journal(tx, "vote", eventID, actor, map[string]any{
			"option": option,
			"amount": amount,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("vote recorded", "event", eventID, "user", actor, "option", option, "amount", amount)
	return part, nil
}
