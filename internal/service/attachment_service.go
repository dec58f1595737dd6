package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/quincena/quincena-backend/internal/domain"
	"github.com/quincena/quincena-backend/internal/repository/storage"
)

const (
	MaxAttachmentSize = 10 * 1024 * 1024 // 10MB
	ThumbnailWidth    = 200
	JPEGQuality       = 85

	presignedURLExpiry = 15 * time.Minute
)

var ErrStorageNotConfigured = errors.New("attachment storage not configured")

// AllowedAttachmentTypes contains the supported MIME types: receipt
// photos and the documents the collectors scan.
var AllowedAttachmentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// imageTypes are the subset that get a thumbnail variant
var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// AttachmentService handles attachment upload, download and deletion
type AttachmentService struct {
	attachmentRepo domain.AttachmentRepository
	fileRepo       storage.FileRepository
}

// NewAttachmentService creates a new AttachmentService. fileRepo may be
// nil when storage is not configured; uploads then fail cleanly.
func NewAttachmentService(attachmentRepo domain.AttachmentRepository, fileRepo storage.FileRepository) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		fileRepo:       fileRepo,
	}
}

// UploadInput contains input for uploading an attachment
type UploadInput struct {
	EntityType   domain.EntityType
	EntityID     uuid.UUID
	OriginalName string
	MimeType     string
	Size         int64
	Data         io.Reader
	UploadedBy   *uuid.UUID
}

// Upload stores the blob (plus a thumbnail for images) and records the
// attachment against its loan or payment
func (s *AttachmentService) Upload(ctx context.Context, input UploadInput) (*domain.Attachment, error) {
	if s.fileRepo == nil {
		return nil, ErrStorageNotConfigured
	}
	if !input.EntityType.Valid() {
		return nil, domain.ErrAttachmentEntityInvalid
	}
	if input.Size > MaxAttachmentSize {
		return nil, domain.ErrAttachmentTooLarge
	}
	if !AllowedAttachmentTypes[input.MimeType] {
		return nil, domain.ErrInvalidInput
	}

	data, err := io.ReadAll(io.LimitReader(input.Data, MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > MaxAttachmentSize {
		return nil, domain.ErrAttachmentTooLarge
	}

	ext := strings.ToLower(filepath.Ext(input.OriginalName))
	objectPath := storage.GenerateObjectPath(string(input.EntityType), input.EntityID, "original", ext)

	if _, err := s.fileRepo.Upload(ctx, objectPath, bytes.NewReader(data), input.MimeType, int64(len(data))); err != nil {
		return nil, err
	}

	if imageTypes[input.MimeType] {
		// Thumbnail failure is not fatal; the original is stored
		_ = s.uploadThumbnail(ctx, objectPath, data)
	}

	attachment := &domain.Attachment{
		EntityType:   input.EntityType,
		EntityID:     input.EntityID,
		Filename:     objectPath,
		OriginalName: input.OriginalName,
		FileSize:     int64(len(data)),
		MimeType:     input.MimeType,
		UploadedBy:   input.UploadedBy,
	}
	return s.attachmentRepo.Create(attachment)
}

func (s *AttachmentService) uploadThumbnail(ctx context.Context, originalPath string, data []byte) error {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	// Resize maintaining aspect ratio
	thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return err
	}

	thumbPath := thumbnailPath(originalPath)
	_, err = s.fileRepo.Upload(ctx, thumbPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len()))
	return err
}

// thumbnailPath derives the thumbnail object path from the original's
func thumbnailPath(originalPath string) string {
	ext := filepath.Ext(originalPath)
	base := strings.TrimSuffix(originalPath, ext)
	return strings.Replace(base, "_original", "_thumb", 1) + ".jpg"
}

// List retrieves attachments pinned to a loan or payment
func (s *AttachmentService) List(entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error) {
	if !entityType.Valid() {
		return nil, domain.ErrAttachmentEntityInvalid
	}
	return s.attachmentRepo.ListByEntity(entityType, entityID)
}

// Download streams an attachment's original blob
func (s *AttachmentService) Download(ctx context.Context, id uuid.UUID) (*domain.Attachment, io.ReadCloser, error) {
	if s.fileRepo == nil {
		return nil, nil, ErrStorageNotConfigured
	}
	attachment, err := s.attachmentRepo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.fileRepo.Download(ctx, attachment.Filename)
	if err != nil {
		return nil, nil, err
	}
	return attachment, body, nil
}

// PresignedURL returns a short-lived URL for direct download
func (s *AttachmentService) PresignedURL(ctx context.Context, id uuid.UUID) (string, error) {
	if s.fileRepo == nil {
		return "", ErrStorageNotConfigured
	}
	attachment, err := s.attachmentRepo.GetByID(id)
	if err != nil {
		return "", err
	}
	return s.fileRepo.GeneratePresignedURL(ctx, attachment.Filename, presignedURLExpiry)
}

// Delete removes the attachment record and its blobs
func (s *AttachmentService) Delete(ctx context.Context, id uuid.UUID) error {
	attachment, err := s.attachmentRepo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.attachmentRepo.Delete(id); err != nil {
		return err
	}

	if s.fileRepo != nil {
		_ = s.fileRepo.Delete(ctx, attachment.Filename)
		if imageTypes[attachment.MimeType] {
			_ = s.fileRepo.Delete(ctx, thumbnailPath(attachment.Filename))
		}
	}
	return nil
}
