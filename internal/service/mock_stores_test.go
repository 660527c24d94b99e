package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurmak/signflow/internal/model"
	"github.com/nurmak/signflow/internal/notify"
	"github.com/nurmak/signflow/internal/repository"
)

// mock ContractStore

type mockContractStore struct {
	contracts map[uuid.UUID]*model.Contract
	saveErr   error
}

func newMockContractStore() *mockContractStore {
	return &mockContractStore{contracts: make(map[uuid.UUID]*model.Contract)}
}

func copyContract(c *model.Contract) *model.Contract {
	clone := *c
	clone.Templates = append([]model.Template(nil), c.Templates...)
	clone.Participants = append([]model.Participant(nil), c.Participants...)
	return &clone
}

func (m *mockContractStore) put(c *model.Contract) {
	m.contracts[c.ID] = copyContract(c)
}

func (m *mockContractStore) GetContract(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	if c, ok := m.contracts[id]; ok {
		return copyContract(c), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockContractStore) LatestContractForCompany(_ context.Context, companyID uuid.UUID) (*model.Contract, error) {
	var latest *model.Contract
	for _, c := range m.contracts {
		if c.CompanyID != companyID {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return copyContract(latest), nil
}

func (m *mockContractStore) ListContracts(_ context.Context, companyID uuid.UUID, _, _ int) ([]model.Contract, error) {
	var result []model.Contract
	for _, c := range m.contracts {
		if c.CompanyID == companyID {
			result = append(result, *copyContract(c))
		}
	}
	return result, nil
}

func (m *mockContractStore) CreateContract(_ context.Context, contract *model.Contract, _ []model.RequiredDocument) (*model.Contract, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.put(contract)
	return copyContract(contract), nil
}

func (m *mockContractStore) SaveTransition(_ context.Context, contract *model.Contract, expectedVersion int64) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	stored, ok := m.contracts[contract.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	contract.Version = expectedVersion + 1
	m.put(contract)
	return nil
}

// mock DocumentStore

type mockDocumentStore struct {
	docs      map[uuid.UUID][]model.RequiredDocument
	artifacts map[uuid.UUID]string
}

func newMockDocumentStore() *mockDocumentStore {
	return &mockDocumentStore{
		docs:      make(map[uuid.UUID][]model.RequiredDocument),
		artifacts: make(map[uuid.UUID]string),
	}
}

func (m *mockDocumentStore) ListRequiredDocuments(_ context.Context, participantID uuid.UUID) ([]model.RequiredDocument, error) {
	return m.docs[participantID], nil
}

func (m *mockDocumentStore) AttachFile(_ context.Context, participantID uuid.UUID, documentTypeCode, fileURL string) (*model.RequiredDocument, error) {
	docs := m.docs[participantID]
	for i := range docs {
		if docs[i].DocumentTypeCode == documentTypeCode {
			docs[i].FileURL = &fileURL
			return &docs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDocumentStore) GetSignedArtifact(_ context.Context, participantID uuid.UUID) (string, error) {
	if url, ok := m.artifacts[participantID]; ok {
		return url, nil
	}
	return "", gorm.ErrRecordNotFound
}

// mock Notifier

type mockNotifier struct {
	calls     int
	lastCount int
	lastMsg   notify.Message
	failAll   bool
}

func (m *mockNotifier) FanOut(_ context.Context, contract *model.Contract, msg notify.Message) notify.Summary {
	m.calls++
	m.lastCount = len(contract.Participants)
	m.lastMsg = msg
	summary := notify.Summary{Attempted: len(contract.Participants)}
	if !m.failAll {
		summary.Succeeded = summary.Attempted
	} else {
		summary.FirstError = "gateway unavailable"
	}
	return summary
}

// mock generators

type mockExporter struct{ content []byte }

func (m *mockExporter) Generate(_ *model.Contract) ([]byte, error) {
	if m.content == nil {
		return []byte("xlsx"), nil
	}
	return m.content, nil
}

type mockCertificate struct{}

func (m *mockCertificate) Generate(_ *model.Contract) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}
