package store

import (
	"database/sql"
	"fmt"

	"github.com/Predictory42/predictory/internal/ledger"
)

// Inserts use ON CONFLICT DO NOTHING and report whether a row was written,
// so uniqueness violations surface as inserted=false instead of driver
// errors. Callers translate that into the ledger's AlreadyExists codes.

// InsertState writes the singleton contract state.
// Returns false if the state was already initialized.
func (t *Tx) InsertState(st *ledger.State) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO state
		(id, authority, multiplier, event_price, platform_fee, org_reward, completion_deadline, appellation_deadline, treasury)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		st.Authority,
		st.Multiplier,
		st.EventPrice,
		st.PlatformFee,
		st.OrgReward,
		st.CompletionDeadline,
		st.AppellationDeadline,
		st.Treasury,
	)
	if err != nil {
		return false, fmt.Errorf("insert state: %w", err)
	}
	return rowsInserted(res)
}

// UpdateState rewrites the mutable contract state fields in place.
func (t *Tx) UpdateState(st *ledger.State) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE state
		SET authority = ?, multiplier = ?, event_price = ?, platform_fee = ?,
		    org_reward = ?, completion_deadline = ?, appellation_deadline = ?, treasury = ?
		WHERE id = 1
	`,
		st.Authority,
		st.Multiplier,
		st.EventPrice,
		st.PlatformFee,
		st.OrgReward,
		st.CompletionDeadline,
		st.AppellationDeadline,
		st.Treasury,
	)
	if err != nil {
		return fmt.Errorf("update state: %w", err)
	}
	return nil
}

// InsertUser creates a user record. Returns false if the identity is
// already registered.
func (t *Tx) InsertUser(u *ledger.User) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO users (id, name, stake, locked_stake, trust_lvl)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, u.ID, u.Name, u.Stake, u.LockedStake, u.TrustLvl)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	return rowsInserted(res)
}

// UpdateUser rewrites a user's balances and trust in place.
func (t *Tx) UpdateUser(u *ledger.User) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE users SET name = ?, stake = ?, locked_stake = ?, trust_lvl = ?
		WHERE id = ?
	`, u.Name, u.Stake, u.LockedStake, u.TrustLvl, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// InsertEvent creates an event record. Returns false on duplicate id.
func (t *Tx) InsertEvent(e *ledger.Event) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO events
		(id, authority, stake, start_date, end_date, participation_deadline,
		 option_count, canceled, result, total_amount, total_trust, participation_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID.String(),
		e.Authority,
		e.Stake,
		e.StartDate,
		e.EndDate,
		nullInt64(e.ParticipationDeadline),
		e.OptionCount,
		e.Canceled,
		nullUint8(e.Result),
		e.TotalAmount,
		e.TotalTrust,
		e.ParticipationCount,
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	return rowsInserted(res)
}

// UpdateEvent rewrites an event record in place.
func (t *Tx) UpdateEvent(e *ledger.Event) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE events
		SET stake = ?, start_date = ?, end_date = ?, participation_deadline = ?,
		    option_count = ?, canceled = ?, result = ?, total_amount = ?,
		    total_trust = ?, participation_count = ?
		WHERE id = ?
	`,
		e.Stake,
		e.StartDate,
		e.EndDate,
		nullInt64(e.ParticipationDeadline),
		e.OptionCount,
		e.Canceled,
		nullUint8(e.Result),
		e.TotalAmount,
		e.TotalTrust,
		e.ParticipationCount,
		e.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// InsertEventMeta creates the descriptive record next to an event.
func (t *Tx) InsertEventMeta(m *ledger.EventMeta) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO event_meta (event_id, name, description, is_private)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`, m.EventID.String(), m.Name, m.Description, m.IsPrivate)
	if err != nil {
		return false, fmt.Errorf("insert event meta: %w", err)
	}
	return rowsInserted(res)
}

// UpdateEventMeta rewrites the descriptive record in place.
func (t *Tx) UpdateEventMeta(m *ledger.EventMeta) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE event_meta SET name = ?, description = ?, is_private = ?
		WHERE event_id = ?
	`, m.Name, m.Description, m.IsPrivate, m.EventID.String())
	if err != nil {
		return fmt.Errorf("update event meta: %w", err)
	}
	return nil
}

// InsertOption creates an outcome option. Returns false on duplicate
// (event, index) key.
func (t *Tx) InsertOption(o *ledger.EventOption) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO options (event_id, idx, description, votes, vault_balance)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(event_id, idx) DO NOTHING
	`, o.EventID.String(), o.Index, o.Description, o.Votes, o.VaultBalance)
	if err != nil {
		return false, fmt.Errorf("insert option: %w", err)
	}
	return rowsInserted(res)
}

// UpdateOption rewrites an option record in place.
func (t *Tx) UpdateOption(o *ledger.EventOption) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE options SET description = ?, votes = ?, vault_balance = ?
		WHERE event_id = ? AND idx = ?
	`, o.Description, o.Votes, o.VaultBalance, o.EventID.String(), o.Index)
	if err != nil {
		return fmt.Errorf("update option: %w", err)
	}
	return nil
}

// InsertParticipation creates the single participation record for a
// (event, user) pair. Returns false when the user already voted - the
// composite primary key is the uniqueness guarantee.
func (t *Tx) InsertParticipation(p *ledger.Participation) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO participations (event_id, user_id, option, deposited_amount, is_claimed, appealed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id, user_id) DO NOTHING
	`, p.EventID.String(), p.UserID, p.Option, p.DepositedAmount, p.IsClaimed, p.Appealed)
	if err != nil {
		return false, fmt.Errorf("insert participation: %w", err)
	}
	return rowsInserted(res)
}

// UpdateParticipation rewrites a participation record in place.
func (t *Tx) UpdateParticipation(p *ledger.Participation) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE participations SET option = ?, deposited_amount = ?, is_claimed = ?, appealed = ?
		WHERE event_id = ? AND user_id = ?
	`, p.Option, p.DepositedAmount, p.IsClaimed, p.Appealed, p.EventID.String(), p.UserID)
	if err != nil {
		return fmt.Errorf("update participation: %w", err)
	}
	return nil
}

// UpsertAppeal creates the lazily-initialized appeal record on first
// dispute and rewrites it on subsequent ones.
func (t *Tx) UpsertAppeal(a *ledger.Appeal) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO appeals (event_id, disagree_count, disagree_trust_lvl, disagree_volume)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			disagree_count = excluded.disagree_count,
			disagree_trust_lvl = excluded.disagree_trust_lvl,
			disagree_volume = excluded.disagree_volume
	`, a.EventID.String(), a.DisagreeCount, a.DisagreeTrustLvl, a.DisagreeVolume)
	if err != nil {
		return fmt.Errorf("upsert appeal: %w", err)
	}
	return nil
}

func rowsInserted(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullUint8(v *uint8) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}
