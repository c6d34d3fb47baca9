package market

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Predictory42/predictory/internal/ledger"
	"github.com/Predictory42/predictory/internal/store"
)

// Appeal registers the actor's dispute of a declared result. Each appeal
// adds the participation's headcount, trust snapshot and volume to the
// event's dispute weight, then re-evaluates the forfeiture threshold.
// Forfeiture is one-way: once the creator bond moves to the treasury no
// later appeal, claim or cancellation can move it back.
func (s *Service) Appeal(ctx context.Context, actor string, eventID uuid.UUID) (bool, error) {
	var forfeited bool
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		st, err := tx.GetState()
		if err != nil {
			return err
		}
		e, err := tx.GetEvent(eventID)
		if err != nil {
			return err
		}
		if !e.Completed() {
			return ledger.NewEventError(ledger.ErrEventIsNotOver, "event result is not declared", eventID.String())
		}

		p, err := tx.GetParticipation(eventID, actor)
		if err != nil {
			return err
		}
		if p.IsClaimed {
			return &ledger.Error{Code: ledger.ErrAlreadyClaimed, Message: "claimed participation cannot appeal", EventID: eventID.String(), UserID: actor}
		}
		if p.Appealed {
			return &ledger.Error{Code: ledger.ErrAlreadyAppealed, Message: "participation already appealed", EventID: eventID.String(), UserID: actor}
		}
		if s.clock.Now() > st.DisputeWindowEnd(e.EndDate) {
			return ledger.NewEventError(ledger.ErrAppellationDeadlinePassed, "dispute window is closed", eventID.String())
		}

		u, err := tx.GetUser(actor)
		if err != nil {
			return err
		}

		a, err := tx.GetAppeal(eventID)
		if err != nil {
			return err
		}
		if a == nil {
			a = &ledger.Appeal{EventID: eventID}
		}
		a.DisagreeCount++
		if a.DisagreeTrustLvl, err = ledger.AddChecked(a.DisagreeTrustLvl, u.TrustLvl); err != nil {
			return err
		}
		if a.DisagreeVolume, err = ledger.AddChecked(a.DisagreeVolume, p.DepositedAmount); err != nil {
			return err
		}
		if err := tx.UpsertAppeal(a); err != nil {
			return err
		}

		p.Appealed = true
		if err := tx.UpdateParticipation(p); err != nil {
			return err
		}

		winning, err := tx.GetOption(eventID, *e.Result)
		if err != nil {
			return err
		}
		if e.Stake > 0 && ledger.DisputeUpheld(a, e, winning.VaultBalance) {
			bond := e.Stake
			creator, err := tx.GetUser(e.Authority)
			if err != nil {
				return err
			}
			if creator.LockedStake, err = ledger.SubChecked(creator.LockedStake, bond, ledger.ErrInsufficientStake); err != nil {
				return err
			}
			if err := tx.UpdateUser(creator); err != nil {
				return err
			}
			if st.Treasury, err = ledger.AddChecked(st.Treasury, bond); err != nil {
				return err
			}
			if err := tx.UpdateState(st); err != nil {
				return err
			}
			e.Stake = 0
			if err := tx.UpdateEvent(e); err != nil {
				return err
			}
			forfeited = true
			if err := journal(tx, "event.forfeit", eventID, e.Authority, map[string]any{"bond": bond}); err != nil {
				return err
			}
		}

		return journal(tx, "appeal", eventID, actor, map[string]any{
			"disagree_count": a.DisagreeCount,
			"forfeited":      forfeited,
		})
	})
	if err != nil {
		return false, err
	}

	slog.Info("appeal recorded", "event", eventID, "user", actor, "forfeited", forfeited)
	return forfeited, nil
}
