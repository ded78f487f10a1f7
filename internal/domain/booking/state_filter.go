package booking

import (
	"github.com/peershare/service-rental/internal/domain"
)

// StateFilter selects a partition of a user's bookings when listing. The
// CURRENT/PAST/FUTURE partitions apply to approved bookings only and are
// evaluated against a single now captured per listing call.
type StateFilter string

const (
	FilterAll      StateFilter = "ALL"
	FilterCurrent  StateFilter = "CURRENT"
	FilterPast     StateFilter = "PAST"
	FilterFuture   StateFilter = "FUTURE"
	FilterWaiting  StateFilter = "WAITING"
	FilterRejected StateFilter = "REJECTED"
)

var knownFilters = map[StateFilter]struct{}{
	FilterAll:      {},
	FilterCurrent:  {},
	FilterPast:     {},
	FilterFuture:   {},
	FilterWaiting:  {},
	FilterRejected: {},
}

// ParseStateFilter converts a caller-supplied string to a StateFilter.
func ParseStateFilter(s string) (StateFilter, error) {
	filter := StateFilter(s)
	if _, ok := knownFilters[filter]; !ok {
		return "", domain.NewValidationError("unknown state filter: " + s)
	}
	return filter, nil
}
