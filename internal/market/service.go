// Package market implements the event-participation-settlement state
// machine over the record store: event lifecycle, vote bookkeeping,
// reward distribution, appeal arbitration and the trust economy.
//
// Every exported operation maps to exactly one store transaction. A
// failed precondition aborts the transaction with a coded ledger error
// and no state change; there are no retries, background tasks or timers.
// Deadlines are enforced reactively by comparing the injected clock
// against the event's dates at the moment an operation is invoked.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Predictory42/predictory/internal/ledger"
	"github.com/Predictory42/predictory/internal/store"
)

// Clock supplies the current wall-clock timestamp (unix seconds) used for
// all deadline checks. Implemented by SystemClock (production) and
// testutil.ManualClock (tests).
type Clock interface {
	Now() int64
}

// SystemClock reads the operating system clock.
type SystemClock struct{}

// Now returns the current unix timestamp.
func (SystemClock) Now() int64 { return time.Now().Unix() }

// Service executes ledger operations against the store.
type Service struct {
	store *store.Store
	clock Clock
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock. Used by tests and the harness to
// pin deadline checks to a manual timeline.
func WithClock(c Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// New creates a Service over the given store.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		clock: SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize writes the singleton contract state. Fails with
// ALREADY_EXISTS if the store was initialized before.
func (s *Service) Initialize(ctx context.Context, st *ledger.State) error {
	return s.store.Update(ctx, func(tx *store.Tx) error {
		inserted, err := tx.InsertState(st)
		if err != nil {
			return err
		}
		if !inserted {
			return ledger.NewError(ledger.ErrAlreadyExists, "contract state already initialized")
		}
		if err := journal(tx, "state.init", uuid.Nil, st.Authority, map[string]any{
			"multiplier":   st.Multiplier,
			"event_price":  st.EventPrice,
			"platform_fee": st.PlatformFee,
			"org_reward":   st.OrgReward,
		}); err != nil {
			return err
		}
		slog.Info("contract state initialized", "authority", st.Authority)
		return nil
	})
}

// SetAuthority transfers contract authority. Authority only.
func (s *Service) SetAuthority(ctx context.Context, actor, authority string) error {
	return s.updateState(ctx, actor, "state.set_authority", func(st *ledger.State) {
		st.Authority = authority
	})
}

// SetMultiplier changes the trust conversion rate. Authority only.
func (s *Service) SetMultiplier(ctx context.Context, actor string, multiplier int64) error {
	return s.updateState(ctx, actor, "state.set_multiplier", func(st *ledger.State) {
		st.Multiplier = multiplier
	})
}

// SetEventPrice changes the creator bond requirement. Authority only.
func (s *Service) SetEventPrice(ctx context.Context, actor string, price int64) error {
	return s.updateState(ctx, actor, "state.set_event_price", func(st *ledger.State) {
		st.EventPrice = price
	})
}

func (s *Service) updateState(ctx context.Context, actor, op string, mutate func(*ledger.State)) error {
	return s.store.Update(ctx, func(tx *store.Tx) error {
		st, err := tx.GetState()
		if err != nil {
			return err
		}
		if st.Authority != actor {
			return ledger.NewError(ledger.ErrAuthorityMismatch, "only the contract authority may update state")
		}
		mutate(st)
		if err := tx.UpdateState(st); err != nil {
			return err
		}
		return journal(tx, op, uuid.Nil, actor, map[string]any{})
	})
}

// journal appends the operation record inside the current transaction.
// Payloads go through canonical JSON so the journal is replay-stable.
func journal(tx *store.Tx, op string, eventID uuid.UUID, actor string, payload map[string]any) error {
	body, err := ledger.MarshalCanonical(payload)
	if err != nil {
		return fmt.Errorf("journal payload for %s: %w", op, err)
	}
	id := ""
	if eventID != uuid.Nil {
		id = eventID.String()
	}
	if _, err := tx.AppendJournal(op, id, actor, body); err != nil {
		return err
	}
	return nil
}
