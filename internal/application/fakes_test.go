package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/peershare/service-rental/internal/domain"
	bookingDomain "github.com/peershare/service-rental/internal/domain/booking"
	itemDomain "github.com/peershare/service-rental/internal/domain/item"
	userDomain "github.com/peershare/service-rental/internal/domain/user"
)

// In-memory repository fakes. They mirror the query semantics of the GORM
// implementations closely enough for the service tests to exercise real
// filter, ordering and pagination behavior.

type memUserRepo struct {
	byID map[int64]*userDomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[int64]*userDomain.User)}
}

func (r *memUserRepo) add(u *userDomain.User) {
	r.byID[u.ID] = u
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*userDomain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("user", id)
	}
	copied := *u
	return &copied, nil
}

type memItemRepo struct {
	seq  int64
	byID map[int64]*itemDomain.Item
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{byID: make(map[int64]*itemDomain.Item)}
}

func (r *memItemRepo) GetByID(_ context.Context, id int64) (*itemDomain.Item, error) {
	it, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("item", id)
	}
	copied := *it
	return &copied, nil
}

func (r *memItemRepo) Save(_ context.Context, it *itemDomain.Item) error {
	r.seq++
	it.ID = r.seq
	copied := *it
	r.byID[it.ID] = &copied
	return nil
}

func (r *memItemRepo) Update(_ context.Context, it *itemDomain.Item) error {
	if _, ok := r.byID[it.ID]; !ok {
		return domain.NewNotFoundError("item", it.ID)
	}
	copied := *it
	r.byID[it.ID] = &copied
	return nil
}

func (r *memItemRepo) ListByOwner(_ context.Context, ownerID int64, page domain.Page) ([]*itemDomain.Item, error) {
	var items []*itemDomain.Item
	for _, it := range r.byID {
		if it.OwnerID == ownerID {
			copied := *it
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return pageOf(items, page), nil
}

func (r *memItemRepo) Search(_ context.Context, text string, page domain.Page) ([]*itemDomain.Item, error) {
	needle := strings.ToLower(text)
	var items []*itemDomain.Item
	for _, it := range r.byID {
		if it.Available &&
			(strings.Contains(strings.ToLower(it.Name), needle) ||
				strings.Contains(strings.ToLower(it.Description), needle)) {
			copied := *it
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return pageOf(items, page), nil
}

type memCommentRepo struct {
	seq       int64
	byID      map[int64]*itemDomain.Comment
	bulkCalls int
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{byID: make(map[int64]*itemDomain.Comment)}
}

func (r *memCommentRepo) Save(_ context.Context, c *itemDomain.Comment) error {
	r.seq++
	c.ID = r.seq
	copied := *c
	r.byID[c.ID] = &copied
	return nil
}

func (r *memCommentRepo) ListByItemIDs(_ context.Context, itemIDs []int64) (map[int64][]*itemDomain.Comment, error) {
	r.bulkCalls++
	wanted := make(map[int64]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}
	grouped := make(map[int64][]*itemDomain.Comment)
	for _, c := range r.byID {
		if wanted[c.ItemID] {
			copied := *c
			grouped[c.ItemID] = append(grouped[c.ItemID], &copied)
		}
	}
	for _, comments := range grouped {
		sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })
	}
	return grouped, nil
}

type memBookingRepo struct {
	seq       int64
	byID      map[int64]*bookingDomain.Booking
	bulkCalls int
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{byID: make(map[int64]*bookingDomain.Booking)}
}

func (r *memBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.seq++
	bk.AssignID(r.seq)
	stored := *bk
	r.byID[bk.ID()] = &stored
	return nil
}

// Update mirrors the compare-and-swap of the real store: only a waiting
// booking accepts a status write, a stale writer gets InvalidState.
func (r *memBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	current, ok := r.byID[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("booking", bk.ID())
	}
	if current.Status() != bookingDomain.StatusWaiting {
		return domain.NewInvalidStateError(current.Status().String(), bk.Status().String())
	}
	stored := *bk
	r.byID[bk.ID()] = &stored
	return nil
}

func (r *memBookingRepo) FindByID(_ context.Context, id int64) (*bookingDomain.Booking, error) {
	bk, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id)
	}
	loaded := *bk
	return &loaded, nil
}

func (r *memBookingRepo) HasOverlapping(_ context.Context, itemID int64, status bookingDomain.Status, start, end time.Time) (bool, error) {
	for _, bk := range r.byID {
		if bk.Item().ID == itemID && bk.Status() == status &&
			bookingDomain.IntervalsOverlap(bk.Start(), bk.End(), start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memBookingRepo) ListBySubject(_ context.Context, role bookingDomain.SubjectRole, subjectID int64, filter bookingDomain.StateFilter, now time.Time, page domain.Page) ([]*bookingDomain.Booking, error) {
	var bookings []*bookingDomain.Booking
	for _, bk := range r.byID {
		switch role {
		case bookingDomain.RoleBooker:
			if !bk.IsBooker(subjectID) {
				continue
			}
		case bookingDomain.RoleOwner:
			if !bk.IsOwner(subjectID) {
				continue
			}
		}
		if matchesFilter(bk, filter, now) {
			bookings = append(bookings, bk)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].Start().After(bookings[j].Start()) })
	return pageOf(bookings, page), nil
}

func (r *memBookingRepo) ListByItemIDs(_ context.Context, itemIDs []int64) (map[int64][]*bookingDomain.Booking, error) {
	r.bulkCalls++
	wanted := make(map[int64]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}
	grouped := make(map[int64][]*bookingDomain.Booking)
	for _, bk := range r.byID {
		if wanted[bk.Item().ID] {
			grouped[bk.Item().ID] = append(grouped[bk.Item().ID], bk)
		}
	}
	return grouped, nil
}

func (r *memBookingRepo) HasFinishedBooking(_ context.Context, bookerID, itemID int64, before time.Time) (bool, error) {
	for _, bk := range r.byID {
		if bk.BookerID() == bookerID && bk.Item().ID == itemID &&
			bk.Status() == bookingDomain.StatusApproved && bk.End().Before(before) {
			return true, nil
		}
	}
	return false, nil
}

func matchesFilter(bk *bookingDomain.Booking, filter bookingDomain.StateFilter, now time.Time) bool {
	switch filter {
	case bookingDomain.FilterAll:
		return true
	case bookingDomain.FilterCurrent:
		return bk.Status() == bookingDomain.StatusApproved && !bk.Start().After(now) && !bk.End().Before(now)
	case bookingDomain.FilterPast:
		return bk.Status() == bookingDomain.StatusApproved && bk.End().Before(now)
	case bookingDomain.FilterFuture:
		return bk.Status() == bookingDomain.StatusApproved && bk.Start().After(now)
	case bookingDomain.FilterWaiting:
		return bk.Status() == bookingDomain.StatusWaiting
	case bookingDomain.FilterRejected:
		return bk.Status() == bookingDomain.StatusRejected
	}
	return false
}

func pageOf[T any](all []T, page domain.Page) []T {
	if page.From >= len(all) {
		return nil
	}
	end := page.From + page.Size
	if end > len(all) {
		end = len(all)
	}
	return all[page.From:end]
}

type publishedEvent struct {
	Topic     string
	EventType string
	Key       string
	Payload   any
}

type recordingPublisher struct {
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic, eventType, key string, payload any) error {
	p.events = append(p.events, publishedEvent{Topic: topic, EventType: eventType, Key: key, Payload: payload})
	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, string, string, any) error {
	return errors.New("broker unavailable")
}

// failingSaveBookingRepo fails Save with an already-contextualized error,
// the way the real store reports it.
type failingSaveBookingRepo struct {
	*memBookingRepo
}

func (r *failingSaveBookingRepo) Save(context.Context, *bookingDomain.Booking) error {
	return fmt.Errorf("failed to save booking: %w", errors.New("connection reset"))
}
