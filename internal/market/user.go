package market

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Predictory42/predictory/internal/ledger"
	"github.com/Predictory42/predictory/internal/store"
)

// CreateUser admits a new participant with the initial trust level.
// The acting identity is verified upstream; here it only has to be
// unregistered.
func (s *Service) CreateUser(ctx context.Context, actor, name string) (*ledger.User, error) {
	user := &ledger.User{
		ID:       actor,
		Name:     name,
		TrustLvl: ledger.InitialTrust,
	}

	err := s.store.Update(ctx, func(tx *store.Tx) error {
		inserted, err := tx.InsertUser(user)
		if err != nil {
			return err
		}
		if !inserted {
			return &ledger.Error{Code: ledger.ErrAlreadyExists, Message: "user already registered", UserID: actor}
		}
		return journal(tx, "user.create", uuid.Nil, actor, map[string]any{"name": name})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user created", "user", actor)
	return user, nil
}

// DepositStake credits free collateral to the caller.
func (s *Service) DepositStake(ctx context.Context, actor string, amount int64) (*ledger.User, error) {
	if amount <= 0 {
		return nil, ledger.NewError(ledger.ErrInvalidAmount, "deposit amount must be positive")
	}

	var user *ledger.User
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		u, err := tx.GetUser(actor)
		if err != nil {
			return err
		}
		if u.Stake, err = ledger.AddChecked(u.Stake, amount); err != nil {
			return err
		}
		if err := tx.UpdateUser(u); err != nil {
			return err
		}
		user = u
		return journal(tx, "user.deposit", uuid.Nil, actor, map[string]any{"amount": amount})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("stake deposited", "user", actor, "amount", amount)
	return user, nil
}

// WithdrawStake returns the caller's free collateral - stake minus
// lockedStake. Collateral committed to open participations or event bonds
// never leaves the ledger here.
func (s *Service) WithdrawStake(ctx context.Context, actor string) (int64, error) {
	var amount int64
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		u, err := tx.GetUser(actor)
		if err != nil {
			return err
		}

		amount = u.FreeStake()
		if amount == 0 {
			return &ledger.Error{Code: ledger.ErrAllStakeLocked, Message: "all user stake is locked", UserID: actor}
		}

		if u.Stake, err = ledger.SubChecked(u.Stake, amount, ledger.ErrInsufficientStake); err != nil {
			return err
		}
		if err := tx.UpdateUser(u); err != nil {
			return err
		}
		return journal(tx, "user.withdraw", uuid.Nil, actor, map[string]any{"amount": amount})
	})
	if err != nil {
		return 0, err
	}

	slog.Info("stake withdrawn", "user", actor, "amount", amount)
	return amount, nil
}

// GetUser reads a user record outside any mutating operation.
func (s *Service) GetUser(ctx context.Context, id string) (*ledger.User, error) {
	var user *ledger.User
	err := s.store.View(ctx, func(tx *store.Tx) error {
		u, err := tx.GetUser(id)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
