package market

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Predictory42/predictory/internal/ledger"
	"github.com/Predictory42/predictory/internal/store"
)

// BurnTrust converts part of the actor's trust score into early-unlocked
// collateral while the dispute window is still open. The unlock is capped
// at the remaining deposit, and the trust actually burned is recomputed
// from the unlocked amount rounding up, so a burn can never mint
// collateral. The unlocked portion leaves the option vault and the event
// pot; it no longer competes for the payout.
func (s *Service) BurnTrust(ctx context.Context, actor string, eventID uuid.UUID, trustAmount int64) (int64, error) {
	if trustAmount <= 0 {
		return 0, ledger.NewError(ledger.ErrInvalidAmount, "trust amount must be positive")
	}

	var unlocked int64
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		st, err := tx.GetState()
		if err != nil {
			return err
		}
		e, err := tx.GetEvent(eventID)
		if err != nil {
			return err
		}
		if e.Canceled {
			return ledger.NewEventError(ledger.ErrCanceledEvent, "event is canceled", eventID.String())
		}
		if s.clock.Now() > st.DisputeWindowEnd(e.EndDate) {
			return ledger.NewEventError(ledger.ErrAppellationDeadlinePassed, "dispute window is closed", eventID.String())
		}

		p, err := tx.GetParticipation(eventID, actor)
		if err != nil {
			return err
		}
		if p.IsClaimed {
			return &ledger.Error{Code: ledger.ErrAlreadyClaimed, Message: "claimed participation cannot burn trust", EventID: eventID.String(), UserID: actor}
		}
		if p.Appealed {
			return &ledger.Error{Code: ledger.ErrAlreadyAppealed, Message: "appealed participation cannot burn trust", EventID: eventID.String(), UserID: actor}
		}

		u, err := tx.GetUser(actor)
		if err != nil {
			return err
		}
		if u.TrustLvl < trustAmount {
			return &ledger.Error{Code: ledger.ErrNotEnoughTrust, Message: "trust level below burn amount", EventID: eventID.String(), UserID: actor}
		}

		unlock, err := ledger.UnlockForTrust(trustAmount, st.Multiplier)
		if err != nil {
			return err
		}
		if unlock > p.DepositedAmount {
			unlock = p.DepositedAmount
		}
		if unlock <= 0 {
			return ledger.NewError(ledger.ErrInvalidAmount, "trust amount unlocks nothing")
		}
		burned, err := ledger.BurnForUnlock(unlock, st.Multiplier)
		if err != nil {
			return err
		}

		if u.Stake, err = ledger.AddChecked(u.Stake, unlock); err != nil {
			return err
		}
		if u.LockedStake, err = ledger.SubChecked(u.LockedStake, unlock, ledger.ErrInsufficientStake); err != nil {
			return err
		}
		if u.TrustLvl, err = ledger.SubChecked(u.TrustLvl, burned, ledger.ErrNotEnoughTrust); err != nil {
			return err
		}
		if err := tx.UpdateUser(u); err != nil {
			return err
		}

		if p.DepositedAmount, err = ledger.SubChecked(p.DepositedAmount, unlock, ledger.ErrInsufficientStake); err != nil {
			return err
		}
		if err := tx.UpdateParticipation(p); err != nil {
			return err
		}

		// The pot shrinks with the unlock so later payouts cannot draw on
		// funds that already left the vault.
		o, err := tx.GetOption(eventID, p.Option)
		if err != nil {
			return err
		}
		if o.VaultBalance, err = ledger.SubChecked(o.VaultBalance, unlock, ledger.ErrInsufficientStake); err != nil {
			return err
		}
		if err := tx.UpdateOption(o); err != nil {
			return err
		}
		if e.TotalAmount, err = ledger.SubChecked(e.TotalAmount, unlock, ledger.ErrInsufficientStake); err != nil {
			return err
		}
		if err := tx.UpdateEvent(e); err != nil {
			return err
		}

		unlocked = unlock
		return journal(tx, "burn", eventID, actor, map[string]any{
			"unlocked": unlock,
			"burned":   burned,
		})
	})
	if err != nil {
		return 0, err
	}

	slog.Info("trust burned", "event", eventID, "user", actor, "unlocked", unlocked)
	return unlocked, nil
}
