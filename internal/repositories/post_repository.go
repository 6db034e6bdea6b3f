package repositories

import (
	"context"

	"blog/internal/models"
)

// Order selects the ordering of post listings.
type Order int

const (
	NewestFirst Order = iota // createdAt descending
	OldestFirst
)

// ListOptions controls ordering and size of post listings.
type ListOptions struct {
	OrderBy Order
	Limit   int // <= 0 means no limit
}

// PostRepository defines the interface for post data access.
//
// Not-found outcomes are reported as models.ErrPostNotFound, unique slug
// violations as models.ErrSlugTaken and everything else as *models.StoreError.
type PostRepository interface {
	List(ctx context.Context, opts ListOptions) ([]models.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
