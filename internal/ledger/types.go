package ledger

import "github.com/google/uuid"

// UnitScale is the number of base units in one coin. All monetary fields
// are int64 base units; trust conversion divides by this scale.
const UnitScale int64 = 1_000_000_000

// MaxOptionCount bounds the number of outcome options per event.
const MaxOptionCount uint8 = 20

// InitialTrust is the trust level granted to a freshly admitted user.
const InitialTrust int64 = 5

// EventIDVersion is the required UUID version for event identifiers.
// Identifiers with any other version tag are rejected with ErrInvalidUUID.
const EventIDVersion = 4

// State is the singleton contract configuration record.
//
// Treasury accumulates platform fees and forfeited creator bonds. It is
// part of the persisted record so conservation can be checked against the
// full set of balances.
type State struct {
	Authority           string
	Multiplier          int64 // trust units granted per coin involved in settlement
	EventPrice          int64 // creator bond required to open an event
	PlatformFee         int64 // flat fee per settled event, base units
	OrgReward           int64 // percentage of the pot reserved for the organizer
	CompletionDeadline  int64 // seconds after end date for the authority to declare
	AppellationDeadline int64 // seconds after the completion window for disputes
	Treasury            int64
}

// DisputeWindowEnd returns the last instant (inclusive) at which appeals
// and trust burns are accepted for an event ending at endDate.
func (s *State) DisputeWindowEnd(endDate int64) int64 {
	return endDate + s.CompletionDeadline + s.AppellationDeadline
}

// User holds a participant's collateral balances and trust score.
type User struct {
	ID          string // acting identity, verified upstream
	Name        string
	Stake       int64 // free collateral
	LockedStake int64 // collateral committed to open participations and bonds
	TrustLvl    int64
}

// FreeStake returns the withdrawable portion of the user's balance.
func (u *User) FreeStake() int64 {
	if u.Stake < u.LockedStake {
		return 0
	}
	return u.Stake - u.LockedStake
}

// Event is the lifecycle record for one proposition.
//
// Result == nil means no outcome has been declared. Stake is the creator
// bond still held by the event; it drops to zero exactly once, either at
// settlement release, cancellation, or appeal forfeiture.
type Event struct {
	ID                    uuid.UUID
	Authority             string
	Stake                 int64
	StartDate             int64
	EndDate               int64
	ParticipationDeadline *int64
	OptionCount           uint8
	Canceled              bool
	Result                *uint8
	TotalAmount           int64
	TotalTrust            int64
	ParticipationCount    int64
}

// Completed reports whether an outcome has been declared.
func (e *Event) Completed() bool { return e.Result != nil }

// EventMeta carries the mutable-before-start descriptive fields.
type EventMeta struct {
	EventID     uuid.UUID
	Name        string
	Description string
	IsPrivate   bool
}

// EventOption is one declared outcome with its collateral pool.
type EventOption struct {
	EventID      uuid.UUID
	Index        uint8
	Description  string
	Votes        int64
	VaultBalance int64
}

// Participation is a user's single committed vote on one event.
// IsClaimed and Appealed are monotone one-way flags.
type Participation struct {
	EventID         uuid.UUID
	UserID          string
	Option          uint8
	DepositedAmount int64
	IsClaimed       bool
	Appealed        bool
}

// Appeal accumulates dispute weight for one event. Created lazily on the
// first dispute.
type Appeal struct {
	EventID          uuid.UUID
	DisagreeCount    int64
	DisagreeTrustLvl int64
	DisagreeVolume   int64
}

// ValidateEventID checks the identifier's embedded version tag.
func ValidateEventID(id uuid.UUID) error {
	if id == uuid.Nil || id.Version() != EventIDVersion {
		return NewError(ErrInvalidUUID, "event id must be a version 4 UUID")
	}
	return nil
}
