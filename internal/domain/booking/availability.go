package booking

import "time"

// minMeaningfulDuration guards the last-booking pick against degenerate
// same-instant bookings.
const minMeaningfulDuration = time.Second

// AvailabilitySnapshot is the derived per-item view of the booking history:
// the most recently finished booking and the next upcoming one. Either side
// is nil when no booking qualifies.
type AvailabilitySnapshot struct {
	Last *Booking
	Next *Booking
}

// ProjectAvailability computes the availability snapshot for one item from
// its bookings. Last is the booking with the latest end among those already
// finished and longer than a second; Next is the booking with the earliest
// start among those not yet started.
func ProjectAvailability(bookings []*Booking, now time.Time) AvailabilitySnapshot {
	var snapshot AvailabilitySnapshot
	for _, b := range bookings {
		if b.End().Before(now) && b.End().Sub(b.Start()) > minMeaningfulDuration {
			if snapshot.Last == nil || b.End().After(snapshot.Last.End()) {
				snapshot.Last = b
			}
		}
		if b.Start().After(now) {
			if snapshot.Next == nil || b.Start().Before(snapshot.Next.Start()) {
				snapshot.Next = b
			}
		}
	}
	return snapshot
}

// ProjectAvailabilityByItem computes snapshots for many items at once from
// bookings pre-grouped by item id. Callers listing several items must fetch
// the bookings in one bulk query and group them, never per item.
func ProjectAvailabilityByItem(grouped map[int64][]*Booking, now time.Time) map[int64]AvailabilitySnapshot {
	snapshots := make(map[int64]AvailabilitySnapshot, len(grouped))
	for itemID, bookings := range grouped {
		snapshots[itemID] = ProjectAvailability(bookings, now)
	}
	return snapshots
}
