package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/peershare/service-rental/internal/domain"
	bookingDomain "github.com/peershare/service-rental/internal/domain/booking"
	itemDomain "github.com/peershare/service-rental/internal/domain/item"
	userDomain "github.com/peershare/service-rental/internal/domain/user"
	"github.com/peershare/service-rental/internal/events"
	"go.uber.org/zap"
)

// CreateBookingRequest holds the data needed to create a new booking.
// The start/end window ordering is checked at the transport boundary.
type CreateBookingRequest struct {
	ItemID int64     `json:"itemId" binding:"required"`
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
}

// ItemStubDTO is the embedded item view inside a booking response.
type ItemStubDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BookerStubDTO is the embedded booker view inside a booking response.
type BookerStubDTO struct {
	ID int64 `json:"id"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID     int64         `json:"id"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Status string        `json:"status"`
	Item   ItemStubDTO   `json:"item"`
	Booker BookerStubDTO `json:"booker"`
}

// BookingService is the application service orchestrating the booking
// lifecycle: creation, owner decisions, and state-filtered retrieval.
type BookingService struct {
	bookings  bookingDomain.Repository
	items     itemDomain.Repository
	users     userDomain.Repository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.Repository,
	items itemDomain.Repository,
	users userDomain.Repository,
	publisher events.Publisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		items:     items,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// Create books an item for the requester. The item must exist, be marked
// available, not belong to the requester, and have no approved booking
// overlapping the requested window. The new booking starts out waiting for
// the owner's decision.
func (s *BookingService) Create(ctx context.Context, requesterID int64, req CreateBookingRequest) (*BookingDTO, error) {
	if _, err := s.users.GetByID(ctx, requesterID); err != nil {
		return nil, err
	}

	it, err := s.items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if err := s.checkBookable(ctx, it, requesterID, req.Start, req.End); err != nil {
		return nil, err
	}

	bk := bookingDomain.NewBooking(requesterID, bookingDomain.ItemRef{
		ID:      it.ID,
		Name:    it.Name,
		OwnerID: it.OwnerID,
	}, req.Start, req.End)

	if err := s.bookings.Save(ctx, bk); err != nil {
		return nil, err
	}

	s.publishBookingEvent(ctx, events.BookingCreated, bk)
	s.logger.Debug("booking created",
		zap.Int64("booking_id", bk.ID()),
		zap.Int64("item_id", it.ID),
		zap.Int64("booker_id", requesterID),
	)

	result := toBookingDTO(bk)
	return &result, nil
}

// Decide approves or rejects a waiting booking. Only the item owner may
// decide, and only while the booking is still waiting.
func (s *BookingService) Decide(ctx context.Context, actingUserID, bookingID int64, approve bool) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !bk.IsOwner(actingUserID) {
		return nil, domain.NewForbiddenError("only the item owner may approve or reject a booking")
	}

	if err := bk.Decide(approve); err != nil {
		return nil, err
	}

	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	eventType := events.BookingRejected
	if approve {
		eventType = events.BookingApproved
	}
	s.publishBookingEvent(ctx, eventType, bk)
	s.logger.Debug("booking decided",
		zap.Int64("booking_id", bk.ID()),
		zap.String("status", bk.Status().String()),
	)

	result := toBookingDTO(bk)
	return &result, nil
}

// Find retrieves a single booking, visible to the booker and the item owner
// and nobody else.
func (s *BookingService) Find(ctx context.Context, requesterID, bookingID int64) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !bk.CanBeViewedBy(requesterID) {
		return nil, domain.NewForbiddenError("only the booker or the item owner may view a booking")
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// ListByRequester retrieves a page of the requester's own bookings,
// partitioned by state and ordered by start descending.
func (s *BookingService) ListByRequester(ctx context.Context, requesterID int64, state string, from, size *int) ([]BookingDTO, error) {
	return s.list(ctx, bookingDomain.RoleBooker, requesterID, state, from, size)
}

// ListByOwner retrieves a page of bookings made against the requester's
// items, partitioned by state and ordered by start descending.
func (s *BookingService) ListByOwner(ctx context.Context, requesterID int64, state string, from, size *int) ([]BookingDTO, error) {
	return s.list(ctx, bookingDomain.RoleOwner, requesterID, state, from, size)
}

func (s *BookingService) list(ctx context.Context, role bookingDomain.SubjectRole, subjectID int64, state string, from, size *int) ([]BookingDTO, error) {
	if _, err := s.users.GetByID(ctx, subjectID); err != nil {
		return nil, err
	}

	filter, err := bookingDomain.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}

	page, err := domain.NewPage(from, size)
	if err != nil {
		return nil, err
	}

	// One now per call keeps the CURRENT/PAST/FUTURE boundaries consistent
	// within a single listing.
	now := time.Now().UTC()
	bookings, err := s.bookings.ListBySubject(ctx, role, subjectID, filter, now, page)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, nil
}

// checkBookable enforces the creation rules that all collapse to the same
// conflict signal: unavailable item, self-booking, and approved-booking
// overlap are indistinguishable to the caller.
func (s *BookingService) checkBookable(ctx context.Context, it *itemDomain.Item, requesterID int64, start, end time.Time) error {
	unavailable := domain.NewConflictError(fmt.Sprintf("item %d is not available for booking", it.ID))

	if !it.Available {
		return unavailable
	}
	if it.OwnerID == requesterID {
		return unavailable
	}

	overlaps, err := s.bookings.HasOverlapping(ctx, it.ID, bookingDomain.StatusApproved, start, end)
	if err != nil {
		return err
	}
	if overlaps {
		return unavailable
	}
	return nil
}

func (s *BookingService) publishBookingEvent(ctx context.Context, eventType string, bk *bookingDomain.Booking) {
	evt := events.BookingEvent{
		BookingID:  bk.ID(),
		ItemID:     bk.Item().ID,
		ItemName:   bk.Item().Name,
		BookerID:   bk.BookerID(),
		OwnerID:    bk.Item().OwnerID,
		Start:      bk.Start(),
		End:        bk.End(),
		Status:     bk.Status().String(),
		OccurredAt: time.Now().UTC(),
	}

	key := strconv.FormatInt(bk.ID(), 10)
	if err := s.publisher.Publish(ctx, events.TopicBookingEvents, eventType, key, evt); err != nil {
		s.logger.Error("failed to publish booking event",
			zap.String("event_type", eventType),
			zap.Int64("booking_id", bk.ID()),
			zap.Error(err),
		)
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:     bk.ID(),
		Start:  bk.Start(),
		End:    bk.End(),
		Status: bk.Status().String(),
		Item: ItemStubDTO{
			ID:   bk.Item().ID,
			Name: bk.Item().Name,
		},
		Booker: BookerStubDTO{ID: bk.BookerID()},
	}
}
