package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"blog/internal/cache"
	"blog/internal/models"
	"blog/internal/repositories"
	"blog/pkg/rabbitmq"

	"github.com/gosimple/slug"
)

const (
	RecentPostsLimit = 5
	ExcerptLength    = 100 // runes
	PreviewWords     = 20
	MinSlugLength    = 3 // runes
)

// ErrSlugTooShort reports a slug derived from a title with too few URL-safe characters.
var ErrSlugTooShort = errors.New("derived slug is too short")

// PostEventPublisher publishes post lifecycle events. *rabbitmq.Client satisfies it.
type PostEventPublisher interface {
	PublishPostEvent(event rabbitmq.PostEvent) error
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title   string
	Slug    string
	Excerpt string
	Content string
}

// PostService handles business logic related to posts.
type PostService struct {
	posts  repositories.PostRepository
	users  repositories.UserRepository
	cache  *cache.Store
	events PostEventPublisher
}

// NewPostService creates a new PostService. cache and events may be nil.
func NewPostService(posts repositories.PostRepository, users repositories.UserRepository, cacheStore *cache.Store, events PostEventPublisher) *PostService {
	return &PostService{
		posts:  posts,
		users:  users,
		cache:  cacheStore,
		events: events,
	}
}

// DeriveExcerpt returns the first ExcerptLength runes of content.
func DeriveExcerpt(content string) string {
	if utf8.RuneCountInString(content) <= ExcerptLength {
		return content
	}
	return string([]rune(content)[:ExcerptLength])
}

// DeriveSlug turns a title into a URL slug.
func DeriveSlug(title string) string {
	return slug.Make(title)
}

// PreviewExcerpt shortens an excerpt to PreviewWords words for listings.
func PreviewExcerpt(excerpt string) string {
	words := strings.Fields(excerpt)
	if len(words) <= PreviewWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:PreviewWords], " ") + "..."
}

// FilterByTitle keeps the posts whose title contains query, ignoring case.
// An empty query keeps everything.
func FilterByTitle(posts []models.Post, query string) []models.Post {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return posts
	}
	matched := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), query) {
			matched = append(matched, p)
		}
	}
	return matched
}

// ListPosts returns every post, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.posts.List(ctx, repositories.ListOptions{OrderBy: repositories.NewestFirst})
}

// RecentPosts returns the RecentPostsLimit newest posts.
func (s *PostService) RecentPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := s.cache.Aside(ctx, cache.RecentPostsKey, &posts, cache.ListTTL, func() error {
		var err error
		posts, err = s.posts.List(ctx, repositories.ListOptions{
			OrderBy: repositories.NewestFirst,
			Limit:   RecentPostsLimit,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPostBySlug returns the post published under slug.
func (s *PostService) GetPostBySlug(ctx context.Context, postSlug string) (*models.Post, error) {
	var post *models.Post
	err := s.cache.Aside(ctx, cache.PostSlugKey(postSlug), &post, cache.PostTTL, func() error {
		var err error
		post, err = s.posts.GetBySlug(ctx, postSlug)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// GetPostByID returns a post by id.
func (s *PostService) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// GetPostsByUser returns all posts owned by userID.
func (s *PostService) GetPostsByUser(ctx context.Context, userID string) ([]models.Post, error) {
	return s.posts.ListByAuthor(ctx, userID)
}

// CreatePost creates a post owned by authorID. Missing slug and excerpt
// are derived from the title and content.
func (s *PostService) CreatePost(ctx context.Context, authorID string, in PostInput) (*models.Post, error) {
	post := &models.Post{
		Title:   in.Title,
		Slug:    in.Slug,
		Excerpt: in.Excerpt,
		Content: in.Content,
	}
	if post.Slug == "" {
		post.Slug = DeriveSlug(in.Title)
		if utf8.RuneCountInString(post.Slug) < MinSlugLength {
			return nil, ErrSlugTooShort
		}
	}
	if post.Excerpt == "" {
		post.Excerpt = DeriveExcerpt(in.Content)
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	post.AuthorID = &author.ID

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Author = author.Author()

	log.Printf("Post %s created by %s", post.ID, author.Username)
	s.invalidate(ctx, post.Slug)
	s.publish(rabbitmq.PostCreated, post)
	return post, nil
}

// UpdatePost overwrites the editable fields of post id. An empty slug or
// excerpt keeps the stored value; callers that always send both, like the
// admin API, simply overwrite them.
func (s *PostService) UpdatePost(ctx context.Context, id string, in PostInput) (*models.Post, error) {
	existing, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSlug := existing.Slug

	post := *existing
	post.Title = in.Title
	post.Content = in.Content
	if in.Slug != "" {
		post.Slug = in.Slug
	}
	if in.Excerpt != "" {
		post.Excerpt = in.Excerpt
	}

	if err := s.posts.Update(ctx, &post); err != nil {
		return nil, err
	}

	log.Printf("Post %s updated", post.ID)
	s.invalidate(ctx, oldSlug, post.Slug)
	s.publish(rabbitmq.PostUpdated, &post)
	return &post, nil
}

// DeletePost removes post id.
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	existing, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("Post %s deleted", id)
	s.invalidate(ctx, existing.Slug)
	s.publish(rabbitmq.PostDeleted, existing)
	return nil
}

// Ping checks the post store.
func (s *PostService) Ping(ctx context.Context) error {
	return s.posts.Ping(ctx)
}

func (s *PostService) invalidate(ctx context.Context, slugs ...string) {
	keys := []string{cache.RecentPostsKey}
	for _, sl := range slugs {
		keys = append(keys, cache.PostSlugKey(sl))
	}
	s.cache.Invalidate(ctx, keys...)
}

func (s *PostService) publish(event string, post *models.Post) {
	if s.events == nil {
		return
	}
	err := s.events.PublishPostEvent(rabbitmq.PostEvent{
		Event:  event,
		PostID: post.ID,
		Slug:   post.Slug,
		At:     time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Failed to publish %s for post %s: %v", event, post.ID, err)
	}
}

// IsNotFound reports whether err is a missing post or user.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrPostNotFound) || errors.Is(err, models.ErrUserNotFound)
}
