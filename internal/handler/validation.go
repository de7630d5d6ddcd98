package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/internal/model"
	"github.com/learnhub/api/pkg/response"
)

func formatValidationErrors(err error) interface{} {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string)
		for _, e := range validationErrors {
			fields[e.Field()] = e.Tag()
		}
		return fields
	}
	return nil
}

// writeError maps service errors onto the JSON error envelope
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, model.ErrContentNotFound):
		return response.NotFound(c, "Content not found")
	case errors.Is(err, model.ErrCommandNotFound):
		return response.NotFound(c, "Command not found")
	case errors.Is(err, model.ErrDuplicatePath):
		return response.Conflict(c, "Content path already registered")
	case errors.Is(err, model.ErrNotVideo):
		return response.ValidationError(c, "Only video content can be transcoded", nil)
	case errors.Is(err, model.ErrStorageUnavailable):
		return response.StorageUnavailable(c)
	}
	return response.ServiceError(c, err.Error())
}
