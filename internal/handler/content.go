package handler

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/internal/middleware"
	"github.com/learnhub/api/internal/model"
	"github.com/learnhub/api/internal/service"
	"github.com/learnhub/api/pkg/response"
)

// MaxUploadSize bounds a single video upload
const MaxUploadSize = 512 * 1024 * 1024

var videoTypes = map[string]bool{
	"video/mp4":        true,
	"video/quicktime":  true,
	"video/webm":       true,
	"video/x-matroska": true,
	"video/x-msvideo":  true,
	"video/mpeg":       true,
}

type ContentHandler struct {
	contents  *service.ContentService
	commands  *service.CommandService
	validator *validator.Validate
}

func NewContentHandler(contents *service.ContentService, commands *service.CommandService, v *validator.Validate) *ContentHandler {
	return &ContentHandler{
		contents:  contents,
		commands:  commands,
		validator: v,
	}
}

// Create handles POST /api/contents
// @Summary      Register content
// @Description  Register a content record before its object is uploaded
// @Tags         Contents
// @Accept       json
// @Produce      json
// @Param        request body model.CreateContentRequest true "Content"
// @Success      201 {object} model.ContentResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/contents [post]
func (h *ContentHandler) Create(c *fiber.Ctx) error {
	var req model.CreateContentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.contents.Create(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return response.Created(c, result)
}

// Upload handles POST /api/contents/upload
// @Summary      Upload video
// @Description  Upload a video into the intake area; transcode=true opts it into transcoding
// @Tags         Contents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file      formData file   true  "Video file"
// @Param        title     formData string false "Title"
// @Param        transcode formData bool   false "Request transcoding"
// @Success      201 {object} model.UploadContentResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/contents/upload [post]
func (h *ContentHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}
	if file.Size > MaxUploadSize {
		return response.ValidationError(c, "File exceeds the upload limit", map[string]interface{}{
			"maxSize":  MaxUploadSize,
			"fileSize": file.Size,
		})
	}
	contentType := file.Header.Get("Content-Type")
	if !videoTypes[contentType] {
		return response.ValidationError(c, "Unsupported video type", map[string]interface{}{
			"contentType": contentType,
		})
	}

	transcode := false
	if raw := c.FormValue("transcode"); raw != "" {
		transcode, err = strconv.ParseBool(raw)
		if err != nil {
			return response.ValidationError(c, "transcode must be a boolean", nil)
		}
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	result, err := h.contents.Upload(c.UserContext(), &service.UploadRequest{
		FileName:    file.Filename,
		Title:       c.FormValue("title"),
		ContentType: contentType,
		Size:        file.Size,
		Body:        f,
		Transcode:   transcode,
	})
	if err != nil {
		return writeError(c, err)
	}
	return response.Created(c, result)
}

// Get handles GET /api/contents/:id
// @Summary      Get content
// @Description  Get a content record with its transcode state
// @Tags         Contents
// @Produce      json
// @Param        id path string true "Content ID"
// @Success      200 {object} model.ContentResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/contents/{id} [get]
func (h *ContentHandler) Get(c *fiber.Ctx) error {
	result, err := h.contents.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, result)
}

// Delete handles DELETE /api/contents/:id
// @Summary      Delete content
// @Description  Delete a content record and its transcoded artifacts
// @Tags         Contents
// @Param        id path string true "Content ID"
// @Success      204 "No Content"
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/contents/{id} [delete]
func (h *ContentHandler) Delete(c *fiber.Ctx) error {
	if err := h.contents.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return response.NoContent(c)
}

// Transcode handles POST /api/contents/:id/transcode
// @Summary      Re-transcode
// @Description  Queue a re-transcode of a video
// @Tags         Commands
// @Produce      json
// @Param        id path string true "Content ID"
// @Success      202 {object} model.CommandResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/contents/{id}/transcode [post]
func (h *ContentHandler) Transcode(c *fiber.Ctx) error {
	return h.command(c, model.CommandKindManual)
}

// Cancel handles POST /api/contents/:id/cancel
// @Summary      Cancel transcode
// @Description  Queue cancellation of the outstanding transcode job
// @Tags         Commands
// @Produce      json
// @Param        id path string true "Content ID"
// @Success      202 {object} model.CommandResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/contents/{id}/cancel [post]
func (h *ContentHandler) Cancel(c *fiber.Ctx) error {
	return h.command(c, model.CommandKindCancel)
}

func (h *ContentHandler) command(c *fiber.Ctx, kind model.CommandKind) error {
	result, err := h.commands.Request(c.UserContext(), c.Params("id"), kind, middleware.Requester(c))
	if err != nil {
		return writeError(c, err)
	}
	return response.Accepted(c, result)
}

// Commands handles GET /api/contents/:id/commands
// @Summary      List commands
// @Description  List recent operator commands for a content record
// @Tags         Commands
// @Produce      json
// @Param        id path string true "Content ID"
// @Success      200 {array} model.TranscodeCommand
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/contents/{id}/commands [get]
func (h *ContentHandler) Commands(c *fiber.Ctx) error {
	result, err := h.commands.List(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if result == nil {
		result = []model.TranscodeCommand{}
	}
	return response.OK(c, result)
}

// Source handles GET /api/contents/:id/source
// @Summary      Source download URL
// @Description  Presigned URL for the original upload
// @Tags         Contents
// @Produce      json
// @Param        id path string true "Content ID"
// @Success      200 {object} model.SignedURLResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      503 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/contents/{id}/source [get]
func (h *ContentHandler) Source(c *fiber.Ctx) error {
	result, err := h.contents.SourceURL(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, result)
}
