package handlers

import (
	"errors"
	"log"

	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service  *services.PostService
	validate *validator.Validate
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the public post routes.
func (h *PostHandler) RegisterRoutes(router fiber.Router) {
	postRoutes := router.Group("/posts")
	postRoutes.Get("/recent", h.HandleRecentPosts)
	postRoutes.Get("/", h.HandleListPosts)
	postRoutes.Get("/:slug", h.HandleGetPostBySlug)
}

// RegisterAdminRoutes registers the post management routes. router must
// already be guarded by middleware.AuthRequired.
func (h *PostHandler) RegisterAdminRoutes(router fiber.Router) {
	adminRoutes := router.Group("/posts")
	adminRoutes.Get("/", h.HandleAdminListPosts)
	adminRoutes.Get("/mine", h.HandleMyPosts)
	adminRoutes.Get("/:id", h.HandleGetPostByID)
	adminRoutes.Post("/", h.HandleCreatePost)
	adminRoutes.Put("/:id", h.HandleUpdatePost)
	adminRoutes.Delete("/:id", h.HandleDeletePost)
}

// postResponse adds the listing preview to a post.
type postResponse struct {
	models.Post
	Preview string `json:"preview"`
}

func withPreviews(posts []models.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, postResponse{Post: p, Preview: services.PreviewExcerpt(p.Excerpt)})
	}
	return out
}

// CreatePostRequest is the body of POST /admin/posts. Slug and excerpt are
// derived when omitted.
type CreatePostRequest struct {
	Title   string `json:"title" form:"title" validate:"required,min=3"`
	Slug    string `json:"slug" form:"slug" validate:"omitempty,min=3"`
	Excerpt string `json:"excerpt" form:"excerpt" validate:"omitempty,min=10"`
	Content string `json:"content" form:"content" validate:"required,min=100"`
}

// UpdatePostRequest is the body of PUT /admin/posts/:id.
type UpdatePostRequest struct {
	Title   string `json:"title" form:"title" validate:"min=3"`
	Slug    string `json:"slug" form:"slug" validate:"min=3"`
	Excerpt string `json:"excerpt" form:"excerpt" validate:"min=10"`
	Content string `json:"content" form:"content" validate:"min=100"`
}

// HandleRecentPosts returns the newest posts.
func (h *PostHandler) HandleRecentPosts(c *fiber.Ctx) error {
	posts, err := h.service.RecentPosts(c.UserContext())
	if err != nil {
		return respondError(c, "recent posts", err)
	}
	return c.JSON(withPreviews(posts))
}

// HandleListPosts returns every post, newest first.
func (h *PostHandler) HandleListPosts(c *fiber.Ctx) error {
	posts, err := h.service.ListPosts(c.UserContext())
	if err != nil {
		return respondError(c, "list posts", err)
	}
	return c.JSON(withPreviews(posts))
}

// HandleAdminListPosts returns every post, optionally narrowed by ?q= to
// titles containing q, case-insensitively.
func (h *PostHandler) HandleAdminListPosts(c *fiber.Ctx) error {
	posts, err := h.service.ListPosts(c.UserContext())
	if err != nil {
		return respondError(c, "list posts", err)
	}
	return c.JSON(withPreviews(services.FilterByTitle(posts, c.Query("q"))))
}

// HandleMyPosts returns the posts owned by the signed-in user.
func (h *PostHandler) HandleMyPosts(c *fiber.Ctx) error {
	posts, err := h.service.GetPostsByUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, "list own posts", err)
	}
	return c.JSON(withPreviews(posts))
}

// HandleGetPostBySlug returns a single post by its slug.
func (h *PostHandler) HandleGetPostBySlug(c *fiber.Ctx) error {
	post, err := h.service.GetPostBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, "get post by slug", err)
	}
	return c.JSON(post)
}

// HandleGetPostByID returns a single post by its id.
func (h *PostHandler) HandleGetPostByID(c *fiber.Ctx) error {
	post, err := h.service.GetPostByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "get post by id", err)
	}
	return c.JSON(post)
}

// HandleCreatePost creates a post owned by the signed-in user.
func (h *PostHandler) HandleCreatePost(c *fiber.Ctx) error {
	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create post body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"formError": "Form not submitted correctly.",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"fieldErrors": fieldErrors(err),
			"fields":      req,
		})
	}

	post, err := h.service.CreatePost(c.UserContext(), middleware.UserID(c), services.PostInput{
		Title:   req.Title,
		Slug:    req.Slug,
		Excerpt: req.Excerpt,
		Content: req.Content,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSlugTooShort):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"fieldErrors": fiber.Map{"slug": "Slug must be at least 3 characters; the title has too few letters or digits to derive one"},
				"fields":      req,
			})
		case errors.Is(err, models.ErrSlugTaken):
			return slugConflict(c, req)
		}
		return respondError(c, "create post", err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleUpdatePost overwrites the editable fields of a post.
func (h *PostHandler) HandleUpdatePost(c *fiber.Ctx) error {
	var req UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update post body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"formError": "Form not submitted correctly.",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"fieldErrors": fieldErrors(err),
			"fields":      req,
		})
	}

	post, err := h.service.UpdatePost(c.UserContext(), c.Params("id"), services.PostInput{
		Title:   req.Title,
		Slug:    req.Slug,
		Excerpt: req.Excerpt,
		Content: req.Content,
	})
	if err != nil {
		if errors.Is(err, models.ErrSlugTaken) {
			return slugConflict(c, req)
		}
		return respondError(c, "update post", err)
	}
	return c.JSON(post)
}

// HandleDeletePost deletes a post.
func (h *PostHandler) HandleDeletePost(c *fiber.Ctx) error {
	if err := h.service.DeletePost(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, "delete post", err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

func slugConflict(c *fiber.Ctx, fields interface{}) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"fieldErrors": fiber.Map{"slug": "Slug is already in use"},
		"fields":      fields,
	})
}
