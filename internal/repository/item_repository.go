package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/peershare/service-rental/internal/domain"
	itemDomain "github.com/peershare/service-rental/internal/domain/item"
	"gorm.io/gorm"
)

// ItemModel is the GORM model for the items table.
type ItemModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"not null;size:255"`
	Description string    `gorm:"size:1000"`
	Available   bool      `gorm:"not null"`
	OwnerID     int64     `gorm:"not null;index"`
	Owner       UserModel `gorm:"foreignKey:OwnerID"`
}

// TableName returns the table name for the GORM model.
func (ItemModel) TableName() string {
	return "items"
}

// CommentModel is the GORM model for the comments table.
type CommentModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Text       string    `gorm:"not null;size:1000"`
	ItemID     int64     `gorm:"not null;index"`
	AuthorID   int64     `gorm:"not null"`
	AuthorName string    `gorm:"not null;size:255"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (CommentModel) TableName() string {
	return "comments"
}

// GormItemRepository is the GORM-based implementation of the item catalog.
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository.
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// GetByID retrieves an item by id.
func (r *GormItemRepository) GetByID(ctx context.Context, id int64) (*itemDomain.Item, error) {
	var model ItemModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("item", id)
		}
		return nil, fmt.Errorf("failed to find item by id: %w", err)
	}
	return toDomainItem(&model), nil
}

// Save persists a new item and assigns its identifier.
func (r *GormItemRepository) Save(ctx context.Context, it *itemDomain.Item) error {
	model := toItemModel(it)
	if err := r.db.WithContext(ctx).Omit("Owner").Create(model).Error; err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	it.ID = model.ID
	return nil
}

// Update persists changes to an existing item.
func (r *GormItemRepository) Update(ctx context.Context, it *itemDomain.Item) error {
	result := r.db.WithContext(ctx).
		Model(&ItemModel{}).
		Where("id = ?", it.ID).
		Updates(map[string]interface{}{
			"name":        it.Name,
			"description": it.Description,
			"available":   it.Available,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("item", it.ID)
	}
	return nil
}

// ListByOwner retrieves one page of the owner's items ordered by id.
func (r *GormItemRepository) ListByOwner(ctx context.Context, ownerID int64, page domain.Page) ([]*itemDomain.Item, error) {
	var models []ItemModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Offset(page.From).
		Limit(page.Size).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list items by owner: %w", err)
	}

	items := make([]*itemDomain.Item, len(models))
	for i := range models {
		items[i] = toDomainItem(&models[i])
	}
	return items, nil
}

// Search retrieves one page of available items matching the text against
// name or description, case-insensitively.
func (r *GormItemRepository) Search(ctx context.Context, text string, page domain.Page) ([]*itemDomain.Item, error) {
	pattern := "%" + text + "%"
	var models []ItemModel
	if err := r.db.WithContext(ctx).
		Where("available = ? AND (name ILIKE ? OR description ILIKE ?)", true, pattern, pattern).
		Order("id ASC").
		Offset(page.From).
		Limit(page.Size).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}

	items := make([]*itemDomain.Item, len(models))
	for i := range models {
		items[i] = toDomainItem(&models[i])
	}
	return items, nil
}

// GormCommentRepository is the GORM-based implementation of item comments.
type GormCommentRepository struct {
	db *gorm.DB
}

// NewGormCommentRepository creates a new GormCommentRepository.
func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// Save persists a new comment and assigns its identifier.
func (r *GormCommentRepository) Save(ctx context.Context, c *itemDomain.Comment) error {
	model := &CommentModel{
		Text:       c.Text,
		ItemID:     c.ItemID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		CreatedAt:  c.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save comment: %w", err)
	}
	c.ID = model.ID
	return nil
}

// ListByItemIDs retrieves all comments for the given items in one query,
// grouped by item id.
func (r *GormCommentRepository) ListByItemIDs(ctx context.Context, itemIDs []int64) (map[int64][]*itemDomain.Comment, error) {
	grouped := make(map[int64][]*itemDomain.Comment)
	if len(itemIDs) == 0 {
		return grouped, nil
	}

	var models []CommentModel
	if err := r.db.WithContext(ctx).
		Where("item_id IN ?", itemIDs).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	for i := range models {
		m := &models[i]
		grouped[m.ItemID] = append(grouped[m.ItemID], &itemDomain.Comment{
			ID:         m.ID,
			ItemID:     m.ItemID,
			AuthorID:   m.AuthorID,
			AuthorName: m.AuthorName,
			Text:       m.Text,
			CreatedAt:  m.CreatedAt,
		})
	}
	return grouped, nil
}

func toItemModel(it *itemDomain.Item) *ItemModel {
	return &ItemModel{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Available:   it.Available,
		OwnerID:     it.OwnerID,
	}
}

func toDomainItem(m *ItemModel) *itemDomain.Item {
	return &itemDomain.Item{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Available:   m.Available,
		OwnerID:     m.OwnerID,
	}
}
