package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/middleware"
	"github.com/quincena/quincena-backend/internal/service"
)

// AttachmentHandler handles attachment HTTP requests
type AttachmentHandler struct {
	attachmentService *service.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(attachmentService *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// AttachmentResponse represents an attachment in API responses
type AttachmentResponse struct {
	ID           string  `json:"id"`
	EntityType   string  `json:"entityType"`
	EntityID     string  `json:"entityId"`
	OriginalName string  `json:"originalName"`
	FileSize     int64   `json:"fileSize"`
	MimeType     string  `json:"mimeType"`
	UploadedBy   *string `json:"uploadedBy,omitempty"`
	CreatedAt    string  `json:"createdAt"`
}

// PresignedURLResponse carries a short-lived download link
type PresignedURLResponse struct {
	URL string `json:"url"`
}

func toAttachmentResponse(attachment *domain.Attachment) AttachmentResponse {
	resp := AttachmentResponse{
		ID:           attachment.ID.String(),
		EntityType:   string(attachment.EntityType),
		EntityID:     attachment.EntityID.String(),
		OriginalName: attachment.OriginalName,
		FileSize:     attachment.FileSize,
		MimeType:     attachment.MimeType,
		CreatedAt:    attachment.CreatedAt.Format(timeLayout),
	}
	if attachment.UploadedBy != nil {
		uploadedBy := attachment.UploadedBy.String()
		resp.UploadedBy = &uploadedBy
	}
	return resp
}

// UploadAttachment handles POST /api/attachments
func (h *AttachmentHandler) UploadAttachment(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	entityType := domain.EntityType(c.FormValue("entityType"))
	entityID, err := uuid.Parse(c.FormValue("entityId"))
	if err != nil {
		return NewValidationError(c, "Invalid entity ID", []ValidationError{
			{Field: "entityId", Message: "Must be a valid UUID"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	var uploadedBy *uuid.UUID
	if userID := middleware.GetUserID(c); userID != uuid.Nil {
		uploadedBy = &userID
	}

	attachment, err := h.attachmentService.Upload(c.Request().Context(), service.UploadInput{
		EntityType:   entityType,
		EntityID:     entityID,
		OriginalName: file.Filename,
		MimeType:     file.Header.Get("Content-Type"),
		Size:         file.Size,
		Data:         src,
		UploadedBy:   uploadedBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStorageNotConfigured):
			return NewServiceUnavailableError(c, "Attachment uploads are disabled (storage not configured)")
		case errors.Is(err, domain.ErrAttachmentEntityInvalid):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "entityType", Message: "Must be loan or payment"},
			})
		case errors.Is(err, domain.ErrAttachmentTooLarge):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "File too large. Maximum size is 10MB"},
			})
		case errors.Is(err, domain.ErrInvalidInput):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Unsupported type. Allowed: JPEG, PNG, WebP, PDF"},
			})
		default:
			log.Error().Err(err).Msg("Failed to upload attachment")
			return NewInternalError(c, "Failed to upload attachment")
		}
	}

	log.Info().
		Str("attachment_id", attachment.ID.String()).
		Str("entity_type", string(attachment.EntityType)).
		Str("entity_id", attachment.EntityID.String()).
		Msg("Attachment uploaded")

	return c.JSON(http.StatusCreated, toAttachmentResponse(attachment))
}

// GetAttachments handles GET /api/attachments/:entityType/:entityId
func (h *AttachmentHandler) GetAttachments(c echo.Context) error {
	entityType := domain.EntityType(c.Param("entityType"))
	if !entityType.Valid() {
		return NewValidationError(c, "Invalid entity type", []ValidationError{
			{Field: "entityType", Message: "Must be loan or payment"},
		})
	}
	entityID, err := parseIDParam(c, "entityId")
	if err != nil {
		return NewValidationError(c, "Invalid entity ID", nil)
	}

	attachments, err := h.attachmentService.List(entityType, entityID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list attachments")
		return NewInternalError(c, "Failed to list attachments")
	}

	resp := make([]AttachmentResponse, 0, len(attachments))
	for _, attachment := range attachments {
		resp = append(resp, toAttachmentResponse(attachment))
	}
	return c.JSON(http.StatusOK, resp)
}

// DownloadAttachment handles GET /api/attachments/:id/download
func (h *AttachmentHandler) DownloadAttachment(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid attachment ID", nil)
	}

	attachment, body, err := h.attachmentService.Download(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAttachmentNotFound) {
			return NewNotFoundError(c, "Attachment not found")
		}
		if errors.Is(err, service.ErrStorageNotConfigured) {
			return NewServiceUnavailableError(c, "Attachment storage not configured")
		}
		log.Error().Err(err).Str("attachment_id", id.String()).Msg("Failed to download attachment")
		return NewInternalError(c, "Failed to download attachment")
	}
	defer body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, attachment.OriginalName))
	c.Response().Header().Set(echo.HeaderContentType, attachment.MimeType)
	c.Response().WriteHeader(http.StatusOK)
	_, err = io.Copy(c.Response(), body)
	return err
}

// GetPresignedURL handles GET /api/attachments/:id/url
func (h *AttachmentHandler) GetPresignedURL(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid attachment ID", nil)
	}

	url, err := h.attachmentService.PresignedURL(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAttachmentNotFound) {
			return NewNotFoundError(c, "Attachment not found")
		}
		if errors.Is(err, service.ErrStorageNotConfigured) {
			return NewServiceUnavailableError(c, "Attachment storage not configured")
		}
		log.Error().Err(err).Str("attachment_id", id.String()).Msg("Failed to presign attachment URL")
		return NewInternalError(c, "Failed to presign attachment URL")
	}
	return c.JSON(http.StatusOK, PresignedURLResponse{URL: url})
}

// DeleteAttachment handles DELETE /api/attachments/:id
func (h *AttachmentHandler) DeleteAttachment(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid attachment ID", nil)
	}

	if err := h.attachmentService.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrAttachmentNotFound) {
			return NewNotFoundError(c, "Attachment not found")
		}
		log.Error().Err(err).Str("attachment_id", id.String()).Msg("Failed to delete attachment")
		return NewInternalError(c, "Failed to delete attachment")
	}

	log.Info().Str("attachment_id", id.String()).Msg("Attachment deleted")

	return c.NoContent(http.StatusNoContent)
}
