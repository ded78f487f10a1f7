package item

import (
	"context"
	"time"

	"github.com/peershare/service-rental/internal/domain"
)

// Item is a catalog entry offered for rent. The booking engine treats items
// as read-only collaborators; only the catalog feature mutates them.
type Item struct {
	ID          int64
	Name        string
	Description string
	Available   bool
	OwnerID     int64
}

// Comment is feedback left on an item by a user who finished renting it.
type Comment struct {
	ID         int64
	ItemID     int64
	AuthorID   int64
	AuthorName string
	Text       string
	CreatedAt  time.Time
}

// Repository defines the persistence contract for catalog items.
type Repository interface {
	// GetByID retrieves an item or a not-found error.
	GetByID(ctx context.Context, id int64) (*Item, error)

	// Save persists a new item and assigns its identifier.
	Save(ctx context.Context, it *Item) error

	// Update persists changes to an existing item.
	Update(ctx context.Context, it *Item) error

	// ListByOwner retrieves one page of the owner's items ordered by id.
	ListByOwner(ctx context.Context, ownerID int64, page domain.Page) ([]*Item, error)

	// Search retrieves one page of available items whose name or
	// description contains the text, case-insensitively.
	Search(ctx context.Context, text string, page domain.Page) ([]*Item, error)
}

// CommentRepository defines the persistence contract for item comments.
type CommentRepository interface {
	// Save persists a new comment and assigns its identifier.
	Save(ctx context.Context, c *Comment) error

	// ListByItemIDs retrieves all comments for the given items in one query,
	// grouped by item id.
	ListByItemIDs(ctx context.Context, itemIDs []int64) (map[int64][]*Comment, error)
}
