package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"blog/internal/models"

	"github.com/google/uuid"
)

// MemoryPostRepository is an in-memory implementation of PostRepository.
// Authors are resolved against users, which may be nil.
type MemoryPostRepository struct {
	posts map[string]models.Post
	users *MemoryUserRepository
	mu    sync.RWMutex
}

// NewMemoryPostRepository creates a new instance of MemoryPostRepository.
func NewMemoryPostRepository(users *MemoryUserRepository) *MemoryPostRepository {
	return &MemoryPostRepository{
		posts: make(map[string]models.Post),
		users: users,
	}
}

// List returns posts ordered by creation time.
func (r *MemoryPostRepository) List(_ context.Context, opts ListOptions) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	postList := r.collect(func(models.Post) bool { return true }, opts.OrderBy)
	if opts.Limit > 0 && len(postList) > opts.Limit {
		postList = postList[:opts.Limit]
	}
	return postList, nil
}

// ListByAuthor returns the posts owned by authorID, newest first.
func (r *MemoryPostRepository) ListByAuthor(_ context.Context, authorID string) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(p models.Post) bool {
		return p.AuthorID != nil && *p.AuthorID == authorID
	}, NewestFirst), nil
}

// GetBySlug returns a post by its slug.
func (r *MemoryPostRepository) GetBySlug(_ context.Context, slug string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.posts {
		if p.Slug == slug {
			return r.withAuthor(p), nil
		}
	}
	return nil, models.ErrPostNotFound
}

// GetByID returns a post by its ID.
func (r *MemoryPostRepository) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, models.ErrPostNotFound
	}
	return r.withAuthor(post), nil
}

// Create adds a new post.
func (r *MemoryPostRepository) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slugTaken(post.Slug, "") {
		return models.ErrSlugTaken
	}
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	stored := *post
	stored.Author = nil
	r.posts[post.ID] = stored
	return nil
}

// Update modifies an existing post.
func (r *MemoryPostRepository) Update(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.posts[post.ID]
	if !ok {
		return models.ErrPostNotFound
	}
	if r.slugTaken(post.Slug, post.ID) {
		return models.ErrSlugTaken
	}
	existing.Title = post.Title
	existing.Slug = post.Slug
	existing.Excerpt = post.Excerpt
	existing.Content = post.Content
	existing.UpdatedAt = time.Now().UTC()
	r.posts[post.ID] = existing

	*post = *r.withAuthor(existing)
	return nil
}

// Delete removes a post by its ID.
func (r *MemoryPostRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return models.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

// Ping always succeeds.
func (r *MemoryPostRepository) Ping(context.Context) error {
	return nil
}

// slugTaken must be called with the lock held.
func (r *MemoryPostRepository) slugTaken(slug, exceptID string) bool {
	for id, p := range r.posts {
		if p.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func (r *MemoryPostRepository) collect(keep func(models.Post) bool, order Order) []models.Post {
	postList := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if keep(p) {
			postList = append(postList, *r.withAuthor(p))
		}
	}
	sort.Slice(postList, func(i, j int) bool {
		a, b := postList[i], postList[j]
		if order == OldestFirst {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return postList
}

func (r *MemoryPostRepository) withAuthor(p models.Post) *models.Post {
	p.Author = r.users.author(p.AuthorID)
	return &p
}
