package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/nurmak/signflow/internal/model"
)

func TestAttachDocument_Success(t *testing.T) {
	svc, _, docs, _ := setupWorkflow()
	participantID := uuid.New()
	docs.docs[participantID] = []model.RequiredDocument{
		{ID: uuid.New(), ParticipantID: participantID, DocumentTypeCode: "BUSINESS_LICENSE", Required: true},
	}

	doc, err := svc.AttachDocument(context.Background(), participantID, "BUSINESS_LICENSE", "https://files.example.com/license.pdf")
	if err != nil {
		t.Fatalf("attach should succeed: %v", err)
	}
	if doc.FileURL == nil || *doc.FileURL != "https://files.example.com/license.pdf" {
		t.Error("file reference should be recorded")
	}
}

func TestAttachDocument_EmptyURL(t *testing.T) {
	svc, _, _, _ := setupWorkflow()

	_, err := svc.AttachDocument(context.Background(), uuid.New(), "BUSINESS_LICENSE", "  ")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAttachDocument_UnknownType(t *testing.T) {
	svc, _, docs, _ := setupWorkflow()
	participantID := uuid.New()
	docs.docs[participantID] = []model.RequiredDocument{
		{ID: uuid.New(), ParticipantID: participantID, DocumentTypeCode: "BUSINESS_LICENSE", Required: true},
	}

	_, err := svc.AttachDocument(context.Background(), participantID, "SEAL_CERTIFICATE", "https://files.example.com/seal.pdf")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a type not in the participant's set, got %v", err)
	}
}

func TestSignedArtifact(t *testing.T) {
	svc, _, docs, _ := setupWorkflow()
	participantID := uuid.New()
	docs.artifacts[participantID] = "https://files.example.com/signed.pdf"

	url, err := svc.SignedArtifact(context.Background(), participantID)
	if err != nil {
		t.Fatalf("lookup should succeed: %v", err)
	}
	if url != "https://files.example.com/signed.pdf" {
		t.Errorf("unexpected artifact url %q", url)
	}

	if _, err := svc.SignedArtifact(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound without an artifact, got %v", err)
	}
}
