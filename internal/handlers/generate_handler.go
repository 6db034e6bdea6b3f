package handlers

import (
	"context"
	"errors"
	"log"

	"blog/internal/services"
	"blog/pkg/textgen"

	"github.com/gofiber/fiber/v2"
)

// ContentGenerator drafts a post body. *textgen.Client satisfies it.
type ContentGenerator interface {
	Generate(ctx context.Context, title, excerpt string) (string, error)
}

// GenerateHandler handles content generation requests from the editor.
type GenerateHandler struct {
	generator ContentGenerator
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(generator ContentGenerator) *GenerateHandler {
	return &GenerateHandler{generator: generator}
}

// RegisterRoutes registers the generation route on an authenticated router.
func (h *GenerateHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/generate", h.HandleGenerate)
}

// GenerateRequest is the body of POST /admin/generate.
type GenerateRequest struct {
	Title   string `json:"title" form:"title"`
	Excerpt string `json:"excerpt" form:"excerpt"`
}

// HandleGenerate drafts content for a title and excerpt.
func (h *GenerateHandler) HandleGenerate(c *fiber.Ctx) error {
	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing generate request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	content, err := h.generator.Generate(c.UserContext(), req.Title, req.Excerpt)
	if err != nil {
		switch {
		case errors.Is(err, textgen.ErrMissingInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Title and excerpt are required to generate content.",
			})
		case errors.Is(err, textgen.ErrNotConfigured):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"message": "Content generation is not configured.",
			})
		}
		log.Printf("Error generating content for %q: %v", req.Title, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Failed to generate content. Please try again.",
		})
	}

	return c.JSON(fiber.Map{
		"content": content,
		"slug":    services.DeriveSlug(req.Title),
	})
}
