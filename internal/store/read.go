package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Predictory42/predictory/internal/ledger"
)

// GetState reads the singleton contract state.
// Fails with a NOT_FOUND ledger error if the store was never initialized.
func (t *Tx) GetState() (*ledger.State, error) {
	var st ledger.State
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT authority, multiplier, event_price, platform_fee, org_reward,
		       completion_deadline, appellation_deadline, treasury
		FROM state WHERE id = 1
	`).Scan(
		&st.Authority,
		&st.Multiplier,
		&st.EventPrice,
		&st.PlatformFee,
		&st.OrgReward,
		&st.CompletionDeadline,
		&st.AppellationDeadline,
		&st.Treasury,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("contract state", "singleton")
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	return &st, nil
}

// GetUser reads a user record by identity.
func (t *Tx) GetUser(id string) (*ledger.User, error) {
	var u ledger.User
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT id, name, stake, locked_stake, trust_lvl FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Name, &u.Stake, &u.LockedStake, &u.TrustLvl)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("read user %s: %w", id, err)
	}
	return &u, nil
}

// ListUsers returns all user records ordered by id. Used by the harness
// conservation assertion and the CLI.
func (t *Tx) ListUsers() ([]ledger.User, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT id, name, stake, locked_stake, trust_lvl FROM users ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []ledger.User{}
	for rows.Next() {
		var u ledger.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Stake, &u.LockedStake, &u.TrustLvl); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// GetEvent reads an event record by id.
func (t *Tx) GetEvent(id uuid.UUID) (*ledger.Event, error) {
	var (
		e        ledger.Event
		rawID    string
		deadline sql.NullInt64
		result   sql.NullInt64
	)
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT id, authority, stake, start_date, end_date, participation_deadline,
		       option_count, canceled, result, total_amount, total_trust, participation_count
		FROM events WHERE id = ?
	`, id.String()).Scan(
		&rawID,
		&e.Authority,
		&e.Stake,
		&e.StartDate,
		&e.EndDate,
		&deadline,
		&e.OptionCount,
		&e.Canceled,
		&result,
		&e.TotalAmount,
		&e.TotalTrust,
		&e.ParticipationCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("event", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("read event %s: %w", id, err)
	}

	e.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse event id %q: %w", rawID, err)
	}
	if deadline.Valid {
		v := deadline.Int64
		e.ParticipationDeadline = &v
	}
	if result.Valid {
		v := uint8(result.Int64)
		e.Result = &v
	}
	return &e, nil
}

// ListEvents returns all event records ordered by id. Used by the harness
// final-state snapshot.
func (t *Tx) ListEvents() ([]ledger.Event, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT id, authority, stake, start_date, end_date, participation_deadline,
		       option_count, canceled, result, total_amount, total_trust, participation_count
		FROM events ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ledger.Event{}
	for rows.Next() {
		var (
			e        ledger.Event
			rawID    string
			deadline sql.NullInt64
			result   sql.NullInt64
		)
		if err := rows.Scan(
			&rawID,
			&e.Authority,
			&e.Stake,
			&e.StartDate,
			&e.EndDate,
			&deadline,
			&e.OptionCount,
			&e.Canceled,
			&result,
			&e.TotalAmount,
			&e.TotalTrust,
			&e.ParticipationCount,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("parse event id %q: %w", rawID, err)
		}
		if deadline.Valid {
			v := deadline.Int64
			e.ParticipationDeadline = &v
		}
		if result.Valid {
			v := uint8(result.Int64)
			e.Result = &v
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// GetEventMeta reads the descriptive record next to an event.
func (t *Tx) GetEventMeta(id uuid.UUID) (*ledger.EventMeta, error) {
	m := ledger.EventMeta{EventID: id}
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT name, description, is_private FROM event_meta WHERE event_id = ?
	`, id.String()).Scan(&m.Name, &m.Description, &m.IsPrivate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("event meta", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("read event meta %s: %w", id, err)
	}
	return &m, nil
}

// GetOption reads one outcome option by (event, index).
func (t *Tx) GetOption(id uuid.UUID, index uint8) (*ledger.EventOption, error) {
	o := ledger.EventOption{EventID: id, Index: index}
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT description, votes, vault_balance FROM options WHERE event_id = ? AND idx = ?
	`, id.String(), index).Scan(&o.Description, &o.Votes, &o.VaultBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("option", fmt.Sprintf("%s/%d", id, index))
	}
	if err != nil {
		return nil, fmt.Errorf("read option %s/%d: %w", id, index, err)
	}
	return &o, nil
}

// ListOptions returns an event's options in index order.
func (t *Tx) ListOptions(id uuid.UUID) ([]ledger.EventOption, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT idx, description, votes, vault_balance FROM options
		WHERE event_id = ? ORDER BY idx ASC
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	opts := []ledger.EventOption{}
	for rows.Next() {
		o := ledger.EventOption{EventID: id}
		if err := rows.Scan(&o.Index, &o.Description, &o.Votes, &o.VaultBalance); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		opts = append(opts, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate options: %w", err)
	}
	return opts, nil
}

// GetParticipation reads the single participation for a (event, user) pair.
func (t *Tx) GetParticipation(id uuid.UUID, userID string) (*ledger.Participation, error) {
	p := ledger.Participation{EventID: id, UserID: userID}
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT option, deposited_amount, is_claimed, appealed
		FROM participations WHERE event_id = ? AND user_id = ?
	`, id.String(), userID).Scan(&p.Option, &p.DepositedAmount, &p.IsClaimed, &p.Appealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("participation", fmt.Sprintf("%s/%s", id, userID))
	}
	if err != nil {
		return nil, fmt.Errorf("read participation %s/%s: %w", id, userID, err)
	}
	return &p, nil
}

// ListParticipations returns an event's participations in user id order.
func (t *Tx) ListParticipations(id uuid.UUID) ([]ledger.Participation, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT user_id, option, deposited_amount, is_claimed, appealed
		FROM participations WHERE event_id = ? ORDER BY user_id ASC
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query participations: %w", err)
	}
	defer rows.Close()

	parts := []ledger.Participation{}
	for rows.Next() {
		p := ledger.Participation{EventID: id}
		if err := rows.Scan(&p.UserID, &p.Option, &p.DepositedAmount, &p.IsClaimed, &p.Appealed); err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		parts = append(parts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participations: %w", err)
	}
	return parts, nil
}

// GetAppeal reads an event's appeal record. Returns (nil, nil) when no
// dispute has been filed yet - the record is created lazily.
func (t *Tx) GetAppeal(id uuid.UUID) (*ledger.Appeal, error) {
	a := ledger.Appeal{EventID: id}
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT disagree_count, disagree_trust_lvl, disagree_volume
		FROM appeals WHERE event_id = ?
	`, id.String()).Scan(&a.DisagreeCount, &a.DisagreeTrustLvl, &a.DisagreeVolume)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read appeal %s: %w", id, err)
	}
	return &a, nil
}
