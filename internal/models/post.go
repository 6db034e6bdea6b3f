package models

import "time"

// Post represents a blog post.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content"`
	AuthorID  *string   `json:"author_id"`
	Author    *Author   `json:"author"` // nil when the post is unowned or the author is gone
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author is the public projection of a User attached to posts.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
