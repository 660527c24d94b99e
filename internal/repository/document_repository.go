package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurmak/signflow/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) ListRequiredDocuments(ctx context.Context, participantID uuid.UUID) ([]model.RequiredDocument, error) {
	var docs []model.RequiredDocument
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, participant_id, document_type_code, required, file_url, uploaded_at
		FROM required_documents
		WHERE participant_id = ?
		ORDER BY document_type_code ASC
	`, participantID).Scan(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// AttachFile records the uploaded file reference for one required document.
func (r *DocumentRepository) AttachFile(
	ctx context.Context,
	participantID uuid.UUID,
	documentTypeCode string,
	fileURL string,
) (*model.RequiredDocument, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE required_documents
		SET file_url = ?, uploaded_at = ?
		WHERE participant_id = ? AND document_type_code = ?
	`, fileURL, time.Now().UTC(), participantID, documentTypeCode)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var doc model.RequiredDocument
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, participant_id, document_type_code, required, file_url, uploaded_at
		FROM required_documents
		WHERE participant_id = ? AND document_type_code = ?
		LIMIT 1
	`, participantID, documentTypeCode).Scan(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetSignedArtifact returns the signed-PDF reference for a participant, or
// gorm.ErrRecordNotFound when none was produced yet.
func (r *DocumentRepository) GetSignedArtifact(ctx context.Context, participantID uuid.UUID) (string, error) {
	var url *string
	err := r.db.WithContext(ctx).Raw(`
		SELECT signed_artifact_url
		FROM participants
		WHERE id = ?
		LIMIT 1
	`, participantID).Scan(&url).Error
	if err != nil {
		return "", err
	}
	if url == nil || *url == "" {
		return "", gorm.ErrRecordNotFound
	}
	return *url, nil
}
