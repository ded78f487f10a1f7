package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/peershare/service-rental/internal/domain"
	bookingDomain "github.com/peershare/service-rental/internal/domain/booking"
	"gorm.io/gorm"
)

// pgExclusionViolation is the Postgres error code raised when the approved
// overlap exclusion constraint on bookings rejects a write.
const pgExclusionViolation = "23P01"

// BookingModel is the GORM model for the bookings table. ItemName is a
// snapshot taken at creation so the display survives later item renames.
type BookingModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	StartTS   time.Time `gorm:"column:start_ts;not null;index"`
	EndTS     time.Time `gorm:"column:end_ts;not null"`
	ItemID    int64     `gorm:"not null;index"`
	Item      ItemModel `gorm:"foreignKey:ItemID"`
	ItemName  string    `gorm:"not null;size:255"`
	BookerID  int64     `gorm:"not null;index"`
	Status    string    `gorm:"not null;size:16;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of the booking
// store. Every read eagerly loads the item and its owner so the engine can
// authorize without extra round trips.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// Save persists a new booking and assigns its identifier.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Omit("Item").Create(model).Error; err != nil {
		if isExclusionViolation(err) {
			return domain.NewConflictError(fmt.Sprintf("item %d is not available for booking", bk.Item().ID))
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	bk.AssignID(model.ID)
	return nil
}

// Update persists a status change as a compare-and-swap on the waiting
// state, so a decide racing against another decide loses instead of
// overwriting a terminal status. The exclusion constraint on approved
// bookings is the backstop against two racing approvals of overlapping
// windows; a violation surfaces as the usual availability conflict.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND status = ?", bk.ID(), bookingDomain.StatusWaiting.String()).
		Update("status", bk.Status().String())
	if result.Error != nil {
		if isExclusionViolation(result.Error) {
			return domain.NewConflictError(fmt.Sprintf("item %d is not available for booking", bk.Item().ID))
		}
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.classifyStaleUpdate(ctx, bk)
	}
	return nil
}

// classifyStaleUpdate distinguishes a missing booking from one that left
// the waiting state between the caller's read and its write.
func (r *GormBookingRepository) classifyStaleUpdate(ctx context.Context, bk *bookingDomain.Booking) error {
	var current string
	err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Select("status").
		Where("id = ?", bk.ID()).
		Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewNotFoundError("booking", bk.ID())
	}
	if err != nil {
		return fmt.Errorf("failed to read booking status: %w", err)
	}
	return domain.NewInvalidStateError(current, bk.Status().String())
}

// FindByID retrieves a booking with its item and item owner attached.
func (r *GormBookingRepository) FindByID(ctx context.Context, id int64) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).
		Preload("Item").
		First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id)
		}
		return nil, fmt.Errorf("failed to find booking by id: %w", err)
	}
	return toDomainBooking(&model)
}

// HasOverlapping reports whether the item has a booking with the given
// status intersecting [start, end]. Two windows overlap when
// existing.end >= new.start and existing.start <= new.end.
func (r *GormBookingRepository) HasOverlapping(ctx context.Context, itemID int64, status bookingDomain.Status, start, end time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("item_id = ? AND status = ? AND end_ts >= ? AND start_ts <= ?",
			itemID, status.String(), start, end).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	return count > 0, nil
}

// ListBySubject retrieves one page of bookings for a booker or an owner,
// partitioned by the state filter. This one parameterized query replaces
// the per-role, per-state finder explosion.
func (r *GormBookingRepository) ListBySubject(ctx context.Context, role bookingDomain.SubjectRole, subjectID int64, filter bookingDomain.StateFilter, now time.Time, page domain.Page) ([]*bookingDomain.Booking, error) {
	q := r.db.WithContext(ctx).Model(&BookingModel{}).Preload("Item")

	switch role {
	case bookingDomain.RoleBooker:
		q = q.Where("booker_id = ?", subjectID)
	case bookingDomain.RoleOwner:
		q = q.Joins("JOIN items ON items.id = bookings.item_id").
			Where("items.owner_id = ?", subjectID)
	default:
		return nil, fmt.Errorf("unknown subject role: %s", role)
	}

	approved := bookingDomain.StatusApproved.String()
	switch filter {
	case bookingDomain.FilterAll:
		// no extra predicate
	case bookingDomain.FilterCurrent:
		q = q.Where("bookings.status = ? AND start_ts <= ? AND end_ts >= ?", approved, now, now)
	case bookingDomain.FilterPast:
		q = q.Where("bookings.status = ? AND end_ts < ?", approved, now)
	case bookingDomain.FilterFuture:
		q = q.Where("bookings.status = ? AND start_ts > ?", approved, now)
	case bookingDomain.FilterWaiting:
		q = q.Where("bookings.status = ?", bookingDomain.StatusWaiting.String())
	case bookingDomain.FilterRejected:
		q = q.Where("bookings.status = ?", bookingDomain.StatusRejected.String())
	default:
		return nil, fmt.Errorf("unknown state filter: %s", filter)
	}

	var models []BookingModel
	if err := q.Order("start_ts DESC").
		Offset(page.From).
		Limit(page.Size).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// ListByItemIDs retrieves all bookings for the given items in one query,
// grouped by item id.
func (r *GormBookingRepository) ListByItemIDs(ctx context.Context, itemIDs []int64) (map[int64][]*bookingDomain.Booking, error) {
	grouped := make(map[int64][]*bookingDomain.Booking)
	if len(itemIDs) == 0 {
		return grouped, nil
	}

	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Preload("Item").
		Where("item_id IN ?", itemIDs).
		Order("start_ts DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings by items: %w", err)
	}

	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		grouped[models[i].ItemID] = append(grouped[models[i].ItemID], bk)
	}
	return grouped, nil
}

// HasFinishedBooking reports whether the booker has an approved booking of
// the item that ended before the given instant.
func (r *GormBookingRepository) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, before time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("booker_id = ? AND item_id = ? AND status = ? AND end_ts < ?",
			bookerID, itemID, bookingDomain.StatusApproved.String(), before).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check finished bookings: %w", err)
	}
	return count > 0, nil
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation
}

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:        bk.ID(),
		StartTS:   bk.Start(),
		EndTS:     bk.End(),
		ItemID:    bk.Item().ID,
		ItemName:  bk.Item().Name,
		BookerID:  bk.BookerID(),
		Status:    bk.Status().String(),
		CreatedAt: bk.CreatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return bookingDomain.Reconstruct(
		m.ID,
		bookingDomain.ItemRef{
			ID:      m.ItemID,
			Name:    m.ItemName,
			OwnerID: m.Item.OwnerID,
		},
		m.BookerID,
		m.StartTS,
		m.EndTS,
		status,
		m.CreatedAt,
	), nil
}
