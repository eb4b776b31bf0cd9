// Package visit provides the visit domain model and the SQLite-backed store
// that is the single source of truth for who is (or plans to be) at the space.
package visit

// Uid identifies a person. It is the Telegram user id, but the store only
// cares that it round-trips losslessly through an INTEGER column.
type Uid int64

// Status is the lifecycle state of a visit.
type Status int

const (
	Planned Status = iota
	CheckedIn
	CheckedOut
)

// StatusFromCode decodes a persisted status code. Out-of-range codes decode
// to Planned on purpose: a row we can't interpret is still a plan, not an
// error worth failing a whole range query over.
func StatusFromCode(code int64) Status {
	switch code {
	case 1:
		return CheckedIn
	case 2:
		return CheckedOut
	default:
		return Planned
	}
}

// Code returns the integer code stored in the status column.
func (s Status) Code() int64 {
	return int64(s)
}

func (s Status) String() string {
	switch s {
	case Planned:
		return "planned"
	case CheckedIn:
		return "checked_in"
	case CheckedOut:
		return "checked_out"
	default:
		return "planned"
	}
}

// Visit is the current record for one person on one day. At most one exists
// per (Person, Day) pair.
type Visit struct {
	Person  Uid
	Day     Day
	Purpose string
	Status  Status
}

// Update is the write model for UpsertVisit. A nil Purpose means "leave the
// existing purpose alone" on update, or "empty" on insert.
type Update struct {
	Person  Uid
	Day     Day
	Purpose *string
	Status  Status
}
