package application

import (
	"context"
	"strings"
	"time"

	"github.com/peershare/service-rental/internal/domain"
	bookingDomain "github.com/peershare/service-rental/internal/domain/booking"
	itemDomain "github.com/peershare/service-rental/internal/domain/item"
	userDomain "github.com/peershare/service-rental/internal/domain/user"
	"go.uber.org/zap"
)

// CreateItemRequest holds the data needed to list a new item.
type CreateItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Available   *bool  `json:"available" binding:"required"`
}

// UpdateItemRequest holds a partial item update; nil fields are untouched.
type UpdateItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

// CreateCommentRequest holds the text of a new item comment.
type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// ItemDTO is the response representation of an item.
type ItemDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

// CommentDTO is the response representation of an item comment.
type CommentDTO struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	Created    time.Time `json:"created"`
}

// ItemDetailsDTO is the catalog-display view of an item. The last/next
// booking fields are populated only when the viewer owns the item.
type ItemDetailsDTO struct {
	ItemDTO
	LastBooking *BookingDTO  `json:"lastBooking"`
	NextBooking *BookingDTO  `json:"nextBooking"`
	Comments    []CommentDTO `json:"comments"`
}

// ItemService is the application service behind the catalog-display
// feature: item CRUD, per-item availability projection, and comments.
type ItemService struct {
	items    itemDomain.Repository
	comments itemDomain.CommentRepository
	bookings bookingDomain.Repository
	users    userDomain.Repository
	logger   *zap.Logger
}

// NewItemService creates a new ItemService.
func NewItemService(
	items itemDomain.Repository,
	comments itemDomain.CommentRepository,
	bookings bookingDomain.Repository,
	users userDomain.Repository,
	logger *zap.Logger,
) *ItemService {
	return &ItemService{
		items:    items,
		comments: comments,
		bookings: bookings,
		users:    users,
		logger:   logger,
	}
}

// Create lists a new item owned by the given user.
func (s *ItemService) Create(ctx context.Context, ownerID int64, req CreateItemRequest) (*ItemDTO, error) {
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}

	it := &itemDomain.Item{
		Name:        req.Name,
		Description: req.Description,
		Available:   *req.Available,
		OwnerID:     ownerID,
	}
	if err := s.items.Save(ctx, it); err != nil {
		return nil, err
	}

	s.logger.Debug("item created", zap.Int64("item_id", it.ID), zap.Int64("owner_id", ownerID))
	result := toItemDTO(it)
	return &result, nil
}

// Update applies a partial update to an item. Only the owner may edit.
func (s *ItemService) Update(ctx context.Context, ownerID, itemID int64, req UpdateItemRequest) (*ItemDTO, error) {
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it.OwnerID != ownerID {
		return nil, domain.NewForbiddenError("only the owner may edit an item")
	}

	if req.Name != nil && *req.Name != "" {
		it.Name = *req.Name
	}
	if req.Description != nil && *req.Description != "" {
		it.Description = *req.Description
	}
	if req.Available != nil {
		it.Available = *req.Available
	}

	if err := s.items.Update(ctx, it); err != nil {
		return nil, err
	}

	s.logger.Debug("item updated", zap.Int64("item_id", it.ID))
	result := toItemDTO(it)
	return &result, nil
}

// Find retrieves one item with its comments. The availability projection is
// attached only for the owner; other viewers get nil booking fields.
func (s *ItemService) Find(ctx context.Context, itemID, viewerID int64) (*ItemDetailsDTO, error) {
	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	grouped, err := s.bookings.ListByItemIDs(ctx, []int64{itemID})
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByItemIDs(ctx, []int64{itemID})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	details := s.buildItemDetails(it, grouped[itemID], comments[itemID], viewerID, now)
	return &details, nil
}

// ListOwned retrieves a page of the owner's items, each with its
// availability projection. Bookings and comments for the whole page are
// fetched in single bulk queries and grouped by item.
func (s *ItemService) ListOwned(ctx context.Context, ownerID int64, from, size *int) ([]ItemDetailsDTO, error) {
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	page, err := domain.NewPage(from, size)
	if err != nil {
		return nil, err
	}

	items, err := s.items.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]int64, len(items))
	for i, it := range items {
		itemIDs[i] = it.ID
	}

	grouped, err := s.bookings.ListByItemIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByItemIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	details := make([]ItemDetailsDTO, len(items))
	for i, it := range items {
		details[i] = s.buildItemDetails(it, grouped[it.ID], comments[it.ID], ownerID, now)
	}
	return details, nil
}

// Search retrieves a page of available items matching the text against
// name or description. A blank query matches nothing, it never lists the
// whole catalog.
func (s *ItemService) Search(ctx context.Context, text string, from, size *int) ([]ItemDTO, error) {
	if strings.TrimSpace(text) == "" {
		return []ItemDTO{}, nil
	}
	page, err := domain.NewPage(from, size)
	if err != nil {
		return nil, err
	}

	items, err := s.items.Search(ctx, text, page)
	if err != nil {
		return nil, err
	}

	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}
	return dtos, nil
}

// AddComment records feedback on an item. Only a user whose approved
// booking of the item has already finished may comment.
func (s *ItemService) AddComment(ctx context.Context, authorID, itemID int64, req CreateCommentRequest) (*CommentDTO, error) {
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}

	rented, err := s.bookings.HasFinishedBooking(ctx, authorID, itemID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !rented {
		return nil, domain.NewValidationError("only a user with a finished rental of the item may comment")
	}

	c := &itemDomain.Comment{
		ItemID:     itemID,
		AuthorID:   authorID,
		AuthorName: author.Name,
		Text:       req.Text,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.comments.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Debug("comment created", zap.Int64("item_id", itemID), zap.Int64("author_id", authorID))
	result := toCommentDTO(c)
	return &result, nil
}

func (s *ItemService) buildItemDetails(it *itemDomain.Item, bookings []*bookingDomain.Booking, comments []*itemDomain.Comment, viewerID int64, now time.Time) ItemDetailsDTO {
	details := ItemDetailsDTO{
		ItemDTO:  toItemDTO(it),
		Comments: make([]CommentDTO, len(comments)),
	}
	for i, c := range comments {
		details.Comments[i] = toCommentDTO(c)
	}

	// Display-privacy rule: only the owner sees the booking history.
	if it.OwnerID != viewerID {
		return details
	}

	snapshot := bookingDomain.ProjectAvailability(bookings, now)
	if snapshot.Last != nil {
		dto := toBookingDTO(snapshot.Last)
		details.LastBooking = &dto
	}
	if snapshot.Next != nil {
		dto := toBookingDTO(snapshot.Next)
		details.NextBooking = &dto
	}
	return details
}

func toItemDTO(it *itemDomain.Item) ItemDTO {
	return ItemDTO{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Available:   it.Available,
	}
}

func toCommentDTO(c *itemDomain.Comment) CommentDTO {
	return CommentDTO{
		ID:         c.ID,
		Text:       c.Text,
		AuthorName: c.AuthorName,
		Created:    c.CreatedAt,
	}
}
