package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurmak/signflow/internal/model"
)

type ExportResult struct {
	FileName string
	Content  []byte
}

// ExportRoster renders the participant roster with display statuses to an
// xlsx workbook for the staff console.
func (s *WorkflowService) ExportRoster(ctx context.Context, contractID uuid.UUID) (*ExportResult, error) {
	contract, err := s.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	content, err := s.excel.Generate(contract)
	if err != nil {
		return nil, err
	}

	name := sanitizeFileName(contract.ContractNumber)
	if name == "" {
		name = contract.ID.String()
	}
	return &ExportResult{
		FileName: fmt.Sprintf("contract-%s-roster.xlsx", name),
		Content:  content,
	}, nil
}

// CompletionCertificate produces the signed-contract cover sheet. Only
// available once every participant has reached the downloadable state.
func (s *WorkflowService) CompletionCertificate(ctx context.Context, contractID uuid.UUID) (*ExportResult, error) {
	contract, err := s.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Status != model.ContractStatusComplete {
		return nil, fmt.Errorf("%w: contract is %s, certificate requires %s",
			ErrInvalidTransition, contract.Status, model.ContractStatusComplete)
	}

	content, err := s.pdf.Generate(contract)
	if err != nil {
		return nil, err
	}

	name := sanitizeFileName(contract.ContractNumber)
	if name == "" {
		name = contract.ID.String()
	}
	return &ExportResult{
		FileName: fmt.Sprintf("contract-%s-certificate.pdf", name),
		Content:  content,
	}, nil
}

func (s *WorkflowService) ListRequiredDocuments(ctx context.Context, participantID uuid.UUID) ([]model.RequiredDocument, error) {
	return s.documents.ListRequiredDocuments(ctx, participantID)
}

// SignedArtifact returns the participant's signed-PDF reference once signature
// capture has produced one.
func (s *WorkflowService) SignedArtifact(ctx context.Context, participantID uuid.UUID) (string, error) {
	url, err := s.documents.GetSignedArtifact(ctx, participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: no signed artifact for participant %s", ErrNotFound, participantID)
		}
		return "", err
	}
	return url, nil
}

func (s *WorkflowService) AttachDocument(
	ctx context.Context,
	participantID uuid.UUID,
	documentTypeCode, fileURL string,
) (*model.RequiredDocument, error) {
	if strings.TrimSpace(fileURL) == "" {
		return nil, fmt.Errorf("%w: file_url is required", ErrValidation)
	}
	doc, err := s.documents.AttachFile(ctx, participantID, documentTypeCode, fileURL)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: required document %s for participant %s",
				ErrNotFound, documentTypeCode, participantID)
		}
		return nil, err
	}
	return doc, nil
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
