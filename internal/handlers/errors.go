package handlers

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"

	"blog/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error to a status and a client-safe body.
// Store faults are logged and reported with the generic message only.
func respondError(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, models.ErrPostNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Post not found"})
	case errors.Is(err, models.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}

	log.Printf("Error during %s: %v", op, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": models.PublicFaultMessage,
	})
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors turns validator errors into one message per json field.
func fieldErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"form": err.Error()}
	}
	messages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		messages[e.Field()] = fieldMessage(e)
	}
	return messages
}

func fieldMessage(e validator.FieldError) string {
	label := strings.ToUpper(e.Field()[:1]) + e.Field()[1:]
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
