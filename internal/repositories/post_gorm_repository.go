package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMPostRepository is a GORM implementation of PostRepository.
type GORMPostRepository struct {
	db *gorm.DB
}

// NewGORMPostRepository creates a new instance of GORMPostRepository.
func NewGORMPostRepository(db *gorm.DB) *GORMPostRepository {
	return &GORMPostRepository{
		db: db,
	}
}

// withAuthor preloads the author without its credentials.
func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("Author", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "username")
	})
}

func orderClause(o Order) string {
	// id breaks ties between posts stamped in the same millisecond
	if o == OldestFirst {
		return "created_at ASC, id ASC"
	}
	return "created_at DESC, id DESC"
}

// List retrieves posts with their authors.
func (r *GORMPostRepository) List(ctx context.Context, opts ListOptions) ([]models.Post, error) {
	q := withAuthor(r.db.WithContext(ctx)).Order(orderClause(opts.OrderBy))
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var records []postRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, models.NewStoreError("list posts", err)
	}
	return toPosts(records), nil
}

// ListByAuthor retrieves every post owned by the given user.
func (r *GORMPostRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	var records []postRecord
	err := withAuthor(r.db.WithContext(ctx)).
		Where("author_id = ?", authorID).
		Order(orderClause(NewestFirst)).
		Find(&records).Error
	if err != nil {
		return nil, models.NewStoreError("list posts by author", err)
	}
	return toPosts(records), nil
}

// GetBySlug retrieves a single post by its slug.
func (r *GORMPostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return r.first(ctx, "get post by slug", "slug = ?", slug)
}

// GetByID retrieves a single post by its ID.
func (r *GORMPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return r.first(ctx, "get post by id", "id = ?", id)
}

func (r *GORMPostRepository) first(ctx context.Context, op, cond string, arg string) (*models.Post, error) {
	var record postRecord
	if err := withAuthor(r.db.WithContext(ctx)).First(&record, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrPostNotFound
		}
		return nil, models.NewStoreError(op, err)
	}
	post := record.toModel()
	return &post, nil
}

// Create inserts a new post. CreatedAt and UpdatedAt are set to the same instant.
func (r *GORMPostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	record := postRecord{
		ID:        post.ID,
		Title:     post.Title,
		Slug:      post.Slug,
		Excerpt:   post.Excerpt,
		Content:   post.Content,
		AuthorID:  post.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return models.ErrSlugTaken
		}
		return models.NewStoreError("create post", err)
	}
	return nil
}

// Update overwrites title, slug, excerpt and content of an existing post and
// reloads it into post.
func (r *GORMPostRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(&postRecord{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
		"title":      post.Title,
		"slug":       post.Slug,
		"excerpt":    post.Excerpt,
		"content":    post.Content,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return models.ErrSlugTaken
		}
		return models.NewStoreError("update post", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrPostNotFound
	}

	fresh, err := r.GetByID(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("failed to reload post %s: %w", post.ID, err)
	}
	*post = *fresh
	return nil
}

// Delete deletes a post by its ID.
func (r *GORMPostRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&postRecord{}, "id = ?", id)
	if res.Error != nil {
		return models.NewStoreError("delete post", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrPostNotFound
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *GORMPostRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return models.NewStoreError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return models.NewStoreError("ping", err)
	}
	return nil
}

func toPosts(records []postRecord) []models.Post {
	posts := make([]models.Post, 0, len(records))
	for i := range records {
		posts = append(posts, records[i].toModel())
	}
	return posts
}
