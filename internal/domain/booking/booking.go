package booking

import (
	"time"

	"github.com/peershare/service-rental/internal/domain"
)

// ItemRef is the booked item as seen by a booking: the identity, a name
// snapshot captured at creation time, and the owner needed for every
// authorization check.
type ItemRef struct {
	ID      int64
	Name    string
	OwnerID int64
}

// Booking is the aggregate root for the booking domain. A booking ties one
// booker to one item for a [start, end] window and moves through the
// waiting -> approved/rejected lifecycle.
type Booking struct {
	id        int64
	start     time.Time
	end       time.Time
	item      ItemRef
	bookerID  int64
	status    Status
	createdAt time.Time
}

// NewBooking creates a booking in the waiting state. The start/end window is
// validated at the transport boundary, not here.
func NewBooking(bookerID int64, item ItemRef, start, end time.Time) *Booking {
	return &Booking{
		start:     start,
		end:       end,
		item:      item,
		bookerID:  bookerID,
		status:    StatusWaiting,
		createdAt: time.Now().UTC(),
	}
}

// Reconstruct rebuilds a Booking from persistence data (no validation).
func Reconstruct(id int64, item ItemRef, bookerID int64, start, end time.Time, status Status, createdAt time.Time) *Booking {
	return &Booking{
		id:        id,
		start:     start,
		end:       end,
		item:      item,
		bookerID:  bookerID,
		status:    status,
		createdAt: createdAt,
	}
}

// ID returns the booking's identifier, zero until persisted.
func (b *Booking) ID() int64 { return b.id }

// Start returns the booking window start.
func (b *Booking) Start() time.Time { return b.start }

// End returns the booking window end.
func (b *Booking) End() time.Time { return b.end }

// Item returns the booked item reference.
func (b *Booking) Item() ItemRef { return b.item }

// BookerID returns the user who requested the booking.
func (b *Booking) BookerID() int64 { return b.bookerID }

// Status returns the current lifecycle status.
func (b *Booking) Status() Status { return b.status }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// AssignID records the identifier assigned by the store on first save.
func (b *Booking) AssignID(id int64) {
	if b.id == 0 {
		b.id = id
	}
}

// Decide resolves a waiting booking to approved or rejected. Both outcomes
// are terminal; deciding an already-decided booking is an invalid state
// transition, never a silent overwrite.
func (b *Booking) Decide(approve bool) error {
	target := StatusRejected
	if approve {
		target = StatusApproved
	}
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	b.status = target
	return nil
}

// IsBooker reports whether the user created this booking.
func (b *Booking) IsBooker(userID int64) bool {
	return b.bookerID == userID
}

// IsOwner reports whether the user owns the booked item.
func (b *Booking) IsOwner(userID int64) bool {
	return b.item.OwnerID == userID
}

// CanBeViewedBy reports whether the user may see this booking: exactly the
// booker and the item owner.
func (b *Booking) CanBeViewedBy(userID int64) bool {
	return b.IsBooker(userID) || b.IsOwner(userID)
}

// IntervalsOverlap reports whether an existing [existingStart, existingEnd]
// window intersects a new [newStart, newEnd] window. Both boundaries are
// inclusive: touching endpoints count as an overlap.
func IntervalsOverlap(existingStart, existingEnd, newStart, newEnd time.Time) bool {
	return !existingEnd.Before(newStart) && !existingStart.After(newEnd)
}
