package market

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Predictory42/predictory/internal/ledger"
	"github.com/Predictory42/predictory/internal/store"
)

// Settlement reports the outcome of one claim.
type Settlement struct {
	Won        bool
	Paid       int64
	TrustDelta int64
}

// ClaimEventReward settles the actor's participation once the dispute
// window has closed. Winners are paid pro-rata from the pot net of fees;
// losers release their locked deposit into the pot permanently. Both sides
// earn trust in proportion to the base units that moved for them. A losing
// claim is a success path: Won=false, Paid=0.
//
// The first claim on an event also releases the creator bond, pays the
// organizer reward and collects the platform fee, provided the pot covers
// both. A pot too small to cover fees is distributed whole.
func (s *Service) ClaimEventReward(ctx context.Context, actor string, eventID uuid.UUID) (*Settlement, error) {
	var out *Settlement
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
			return &ledger.Error{Code: ledger.ErrAlreadyClaimed, Message: "participation already claimed", EventID: eventID.String(), UserID: actor}
		}
		if p.Appealed {
			return &ledger.Error{Code: ledger.ErrAlreadyAppealed, Message: "appealed participation cannot claim", EventID: eventID.String(), UserID: actor}
		}
		if s.clock.Now() <= st.DisputeWindowEnd(e.EndDate) {
			return ledger.NewEventError(ledger.ErrEarlyClaim, "dispute window still open", eventID.String())
		}

		orgReward, err := ledger.MulDiv(e.TotalAmount, st.OrgReward, 100)
		if err != nil {
			return err
		}
		fees, err := ledger.AddChecked(st.PlatformFee, orgReward)
		if err != nil {
			return err
		}
		feesCollected := e.TotalAmount >= fees
		available := e.TotalAmount
		if feesCollected {
			available -= fees
		}

		// Bond release happens on the first claim only; event.stake is the
		// one-shot latch.
		if e.Stake > 0 {
			bond := e.Stake
			if err := releaseBond(tx, e, bond); err != nil {
				return err
			}
			if feesCollected {
				creator, err := tx.GetUser(e.Authority)
				if err != nil {
					return err
				}
				if creator.Stake, err = ledger.AddChecked(creator.Stake, orgReward); err != nil {
					return err
				}
				if err := tx.UpdateUser(creator); err != nil {
					return err
				}
				if st.Treasury, err = ledger.AddChecked(st.Treasury, st.PlatformFee); err != nil {
					return err
				}
				if err := tx.UpdateState(st); err != nil {
					return err
				}
			}
			if err := tx.UpdateEvent(e); err != nil {
				return err
			}
			collectedOrg, collectedFee := int64(0), int64(0)
			if feesCollected {
				collectedOrg, collectedFee = orgReward, st.PlatformFee
			}
			if err := journal(tx, "event.settle", eventID, e.Authority, map[string]any{
				"bond":         bond,
				"org_reward":   collectedOrg,
				"platform_fee": collectedFee,
			}); err != nil {
				return err
			}
		}

		u, err := tx.GetUser(actor)
		if err != nil {
			return err
		}

		res := &Settlement{Won: p.Option == *e.Result}
		if res.Won {
			winning, err := tx.GetOption(eventID, *e.Result)
			if err != nil {
				return err
			}
			if winning.VaultBalance > 0 {
				if res.Paid, err = ledger.MulDiv(p.DepositedAmount, available, winning.VaultBalance); err != nil {
					return err
				}
			}
			if u.Stake, err = ledger.AddChecked(u.Stake, res.Paid); err != nil {
				return err
			}
			if res.TrustDelta, err = ledger.TrustReward(res.Paid, st.Multiplier); err != nil {
				return err
			}
		} else {
			if res.TrustDelta, err = ledger.TrustReward(p.DepositedAmount, st.Multiplier); err != nil {
				return err
			}
		}

		if u.LockedStake, err = ledger.SubChecked(u.LockedStake, p.DepositedAmount, ledger.ErrInsufficientStake); err != nil {
			return err
		}
		if u.TrustLvl, err = ledger.AddChecked(u.TrustLvl, res.TrustDelta); err != nil {
			return err
		}
		if err := tx.UpdateUser(u); err != nil {
			return err
		}

		p.IsClaimed = true
		if err := tx.UpdateParticipation(p); err != nil {
			return err
		}

		out = res
		return journal(tx, "claim", eventID, actor, map[string]any{
			"won":  res.Won,
			"paid": res.Paid,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("reward claimed", "event", eventID, "user", actor, "won", out.Won, "paid", out.Paid)
	return out, nil
}

// Recharge refunds the full deposit of a participation on a canceled
// event. The same one-way isClaimed flag that guards claims guards
// recharges, so each deposit leaves the pot exactly once.
func (s *Service) Recharge(ctx context.Context, actor string, eventID uuid.UUID) (int64, error) {
	var amount int64
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		e, err := tx.GetEvent(eventID)
		if err != nil {
			return err
		}
		if !e.Canceled {
			return ledger.NewEventError(ledger.ErrEventIsNotCancelled, "event is not canceled", eventID.String())
		}

		p, err := tx.GetParticipation(eventID, actor)
		if err != nil {
			return err
		}
		if p.IsClaimed {
			return &ledger.Error{Code: ledger.ErrAlreadyClaimed, Message: "participation already refunded", EventID: eventID.String(), UserID: actor}
		}

		u, err := tx.GetUser(actor)
		if err != nil {
			return err
		}
		if u.LockedStake, err = ledger.SubChecked(u.LockedStake, p.DepositedAmount, ledger.ErrInsufficientStake); err != nil {
			return err
		}
		if u.Stake, err = ledger.AddChecked(u.Stake, p.DepositedAmount); err != nil {
			return err
		}
		if err := tx.UpdateUser(u); err != nil {
			return err
		}

		amount = p.DepositedAmount
		p.IsClaimed = true
		if err := tx.UpdateParticipation(p); err != nil {
			return err
		}
		return journal(tx, "recharge", eventID, actor, map[string]any{"amount": amount})
	})
	if err != nil {
		return 0, err
	}

	slog.Info("deposit recharged", "event", eventID, "user", actor, "amount", amount)
	return amount, nil
}
