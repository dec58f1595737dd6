package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quincena/quincena-backend/internal/domain"
)

const attachmentColumns = `id, entity_type, entity_id, filename, original_name,
	file_size, mime_type, uploaded_by, created_at`

// AttachmentRepository implements domain.AttachmentRepository using PostgreSQL
type AttachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(pool *pgxpool.Pool) *AttachmentRepository {
	return &AttachmentRepository{pool: pool}
}

// Create records an uploaded attachment
func (r *AttachmentRepository) Create(attachment *domain.Attachment) (*domain.Attachment, error) {
	ctx := context.Background()

	var uploadedBy pgtype.UUID
	if attachment.UploadedBy != nil {
		uploadedBy = pgtype.UUID{Bytes: *attachment.UploadedBy, Valid: true}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO attachments (entity_type, entity_id, filename, original_name,
			file_size, mime_type, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+attachmentColumns,
		string(attachment.EntityType), attachment.EntityID, attachment.Filename,
		attachment.OriginalName, attachment.FileSize, attachment.MimeType, uploadedBy,
	)
	return scanAttachment(row)
}

// GetByID retrieves an attachment by its ID
func (r *AttachmentRepository) GetByID(id uuid.UUID) (*domain.Attachment, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE id = $1`, id,
	)
	attachment, err := scanAttachment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, err
	}
	return attachment, nil
}

// ListByEntity retrieves all attachments pinned to a loan or payment
func (r *AttachmentRepository) ListByEntity(entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+attachmentColumns+`
		FROM attachments
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC`,
		string(entityType), entityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Attachment, 0)
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes an attachment record
func (r *AttachmentRepository) Delete(id uuid.UUID) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttachmentNotFound
	}
	return nil
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var (
		attachment domain.Attachment
		entityType string
		uploadedBy pgtype.UUID
	)
	if err := row.Scan(
		&attachment.ID, &entityType, &attachment.EntityID, &attachment.Filename,
		&attachment.OriginalName, &attachment.FileSize, &attachment.MimeType,
		&uploadedBy, &attachment.CreatedAt,
	); err != nil {
		return nil, err
	}
	attachment.EntityType = domain.EntityType(entityType)
	if uploadedBy.Valid {
		id := uuid.UUID(uploadedBy.Bytes)
		attachment.UploadedBy = &id
	}
	return &attachment, nil
}
