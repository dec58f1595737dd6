package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAttachmentNotFound      = errors.New("attachment not found")
	ErrAttachmentEntityInvalid = errors.New("attachment entity type must be loan or payment")
	ErrAttachmentTooLarge      = errors.New("attachment exceeds maximum size")
)

// EntityType identifies what an attachment is pinned to
type EntityType string

const (
	EntityTypeLoan    EntityType = "loan"
	EntityTypePayment EntityType = "payment"
)

func (e EntityType) Valid() bool {
	return e == EntityTypeLoan || e == EntityTypePayment
}

type Attachment struct {
	ID           uuid.UUID  `json:"id"`
	EntityType   EntityType `json:"entityType"`
	EntityID     uuid.UUID  `json:"entityId"`
	Filename     string     `json:"filename"`
	OriginalName string     `json:"originalName"`
	FileSize     int64      `json:"fileSize"`
	MimeType     string     `json:"mimeType"`
	UploadedBy   *uuid.UUID `json:"uploadedBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type AttachmentRepository interface {
	Create(attachment *Attachment) (*Attachment, error)
	GetByID(id uuid.UUID) (*Attachment, error)
	ListByEntity(entityType EntityType, entityID uuid.UUID) ([]*Attachment, error)
	Delete(id uuid.UUID) error
}
