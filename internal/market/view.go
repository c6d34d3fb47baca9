package market

import (
	"context"

	"github.com/google/uuid"

	"github.com/Predictory42/predictory/internal/ledger"
	"github.com/Predictory42/predictory/internal/store"
)

// EventView bundles an event with its descriptive record and options for
// read-only presentation.
type EventView struct {
	Event   *ledger.Event
	Meta    *ledger.EventMeta
	Options []ledger.EventOption
}

// GetEvent reads a full event view.
func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*EventView, error) {
	var view EventView
	err := s.store.View(ctx, func(tx *store.Tx) error {
		e, err := tx.GetEvent(id)
		if err != nil {
			return err
		}
		m, err := tx.GetEventMeta(id)
		if err != nil {
			return err
		}
		opts, err := tx.ListOptions(id)
		if err != nil {
			return err
		}
		view = EventView{Event: e, Meta: m, Options: opts}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// GetState reads the singleton contract state.
func (s *Service) GetState(ctx context.Context) (*ledger.State, error) {
	var st *ledger.State
	err := s.store.View(ctx, func(tx *store.Tx) error {
		v, err := tx.GetState()
		if err != nil {
			return err
		}
		st = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ListUsers reads all user records in id order.
func (s *Service) ListUsers(ctx context.Context) ([]ledger.User, error) {
	var users []ledger.User
	err := s.store.View(ctx, func(tx *store.Tx) error {
		v, err := tx.ListUsers()
		if err != nil {
			return err
		}
		users = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetParticipation reads the actor's participation on one event.
func (s *Service) GetParticipation(ctx context.Context, eventID uuid.UUID, userID string) (*ledger.Participation, error) {
	var p *ledger.Participation
	err := s.store.View(ctx, func(tx *store.Tx) error {
		v, err := tx.GetParticipation(eventID, userID)
		if err != nil {
			return err
		}
		p = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Journal lists operation records in sequence order, optionally filtered
// to one event.
func (s *Service) Journal(ctx context.Context, eventID string) ([]store.JournalEntry, error) {
	var entries []store.JournalEntry
	err := s.store.View(ctx, func(tx *store.Tx) error {
		v, err := tx.ListJournal(eventID)
		if err != nil {
			return err
		}
		entries = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
