package booking

import (
	"context"
	"time"

	"github.com/peershare/service-rental/internal/domain"
)

// SubjectRole selects which side of a booking a listing query filters on.
type SubjectRole string

const (
	// RoleBooker lists bookings the subject created.
	RoleBooker SubjectRole = "booker"
	// RoleOwner lists bookings made against items the subject owns.
	RoleOwner SubjectRole = "owner"
)

// Repository defines the persistence contract for booking aggregates.
// Reads must return bookings with the item and item-owner data attached so
// authorization checks never need a second round trip.
type Repository interface {
	// Save persists a new booking and assigns its identifier.
	Save(ctx context.Context, b *Booking) error

	// Update persists a status change to an existing booking.
	Update(ctx context.Context, b *Booking) error

	// FindByID retrieves a booking by its identifier.
	FindByID(ctx context.Context, id int64) (*Booking, error)

	// HasOverlapping reports whether the item has a booking with the given
	// status whose window intersects [start, end].
	HasOverlapping(ctx context.Context, itemID int64, status Status, start, end time.Time) (bool, error)

	// ListBySubject retrieves one page of bookings for a subject acting as
	// booker or owner, partitioned by the state filter and ordered by start
	// descending. The caller captures now once per listing call.
	ListBySubject(ctx context.Context, role SubjectRole, subjectID int64, filter StateFilter, now time.Time, page domain.Page) ([]*Booking, error)

	// ListByItemIDs retrieves all bookings for the given items in one query,
	// grouped by item id.
	ListByItemIDs(ctx context.Context, itemIDs []int64) (map[int64][]*Booking, error)

	// HasFinishedBooking reports whether the booker has an approved booking
	// of the item that ended before the given instant.
	HasFinishedBooking(ctx context.Context, bookerID, itemID int64, before time.Time) (bool, error)
}
