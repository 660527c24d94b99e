package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurmak/signflow/internal/model"
)

// ErrVersionConflict is returned when an optimistic-version write matches no
// row: another operation mutated the contract first.
var ErrVersionConflict = errors.New("contract version conflict")

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = `
	id,
	company_id,
	contract_number,
	title,
	description,
	status,
	progress,
	start_date,
	expiry_date,
	deadline_date,
	insurance_start,
	insurance_end,
	version,
	created_by,
	created_at
`

const participantColumns = `
	id,
	contract_id,
	name,
	email,
	phone,
	channel,
	status,
	signed,
	signed_at,
	signed_artifact_url,
	approval_comment,
	approved_by,
	approved_at,
	rejection_reason,
	rejected_at,
	resign_reason,
	resign_requested_at,
	resign_approved_by,
	created_at
`

func (r *ContractRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	if err := r.loadRelations(ctx, &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) LatestContractForCompany(ctx context.Context, companyID uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE company_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, companyID).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	if err := r.loadRelations(ctx, &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) ListContracts(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]model.Contract, error) {
	if limit <= 0 {
		limit = 50
	}
	var contracts []model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE company_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, companyID, limit, offset).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *ContractRepository) loadRelations(ctx context.Context, contract *model.Contract) error {
	var templates []model.Template
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, contract_id, name, file_url, display_order
		FROM contract_templates
		WHERE contract_id = ?
		ORDER BY display_order ASC
	`, contract.ID).Scan(&templates).Error
	if err != nil {
		return err
	}
	contract.Templates = templates

	var participants []model.Participant
	err = r.db.WithContext(ctx).Raw(`
		SELECT `+participantColumns+`
		FROM participants
		WHERE contract_id = ?
		ORDER BY created_at ASC, id ASC
	`, contract.ID).Scan(&participants).Error
	if err != nil {
		return err
	}
	contract.Participants = participants
	return nil
}

// CreateContract inserts the contract with its templates, participants and
// required-document records in one transaction.
func (r *ContractRepository) CreateContract(
	ctx context.Context,
	contract *model.Contract,
	documents []model.RequiredDocument,
) (*model.Contract, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(`
			INSERT INTO contracts (
				id,
				company_id,
				contract_number,
				title,
				description,
				status,
				progress,
				start_date,
				expiry_date,
				deadline_date,
				insurance_start,
				insurance_end,
				version,
				created_by,
				created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			contract.ID,
			contract.CompanyID,
			contract.ContractNumber,
			contract.Title,
			contract.Description,
			contract.Status,
			contract.Progress,
			contract.StartDate,
			contract.ExpiryDate,
			contract.DeadlineDate,
			contract.InsuranceStart,
			contract.InsuranceEnd,
			contract.Version,
			contract.CreatedBy,
			contract.CreatedAt,
		).Error
		if err != nil {
			return err
		}

		for _, tpl := range contract.Templates {
			if err := tx.Exec(`
				INSERT INTO contract_templates (id, contract_id, name, file_url, display_order)
				VALUES (?, ?, ?, ?, ?)
			`, tpl.ID, tpl.ContractID, tpl.Name, tpl.FileURL, tpl.DisplayOrder).Error; err != nil {
				return err
			}
		}

		for _, p := range contract.Participants {
			if err := tx.Exec(`
				INSERT INTO participants (
					id, contract_id, name, email, phone, channel, status, signed, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, p.ID, p.ContractID, p.Name, p.Email, p.Phone, p.Channel, p.Status, p.Signed, p.CreatedAt).Error; err != nil {
				return err
			}
		}

		for _, doc := range documents {
			if err := tx.Exec(`
				INSERT INTO required_documents (id, participant_id, document_type_code, required)
				VALUES (?, ?, ?, ?)
			`, doc.ID, doc.ParticipantID, doc.DocumentTypeCode, doc.Required).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetContract(ctx, contract.ID)
}

// SaveTransition writes all participant rows of one state transition together
// with the recomputed contract status, progress and bumped version. The
// contract update carries an optimistic version check: zero rows affected
// means a concurrent operation won the race.
func (r *ContractRepository) SaveTransition(
	ctx context.Context,
	contract *model.Contract,
	expectedVersion int64,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE contracts
			SET status = ?, progress = ?, version = version + 1
			WHERE id = ? AND version = ?
		`, contract.Status, contract.Progress, contract.ID, expectedVersion)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}
		contract.Version = expectedVersion + 1

		for i := range contract.Participants {
			p := &contract.Participants[i]
			if err := tx.Exec(`
				UPDATE participants
				SET
					status = ?,
					signed = ?,
					signed_at = ?,
					signed_artifact_url = ?,
					approval_comment = ?,
					approved_by = ?,
					approved_at = ?,
					rejection_reason = ?,
					rejected_at = ?,
					resign_reason = ?,
					resign_requested_at = ?,
					resign_approved_by = ?
				WHERE id = ? AND contract_id = ?
			`,
				p.Status,
				p.Signed,
				p.SignedAt,
				p.SignedArtifactURL,
				p.ApprovalComment,
				p.ApprovedBy,
				p.ApprovedAt,
				p.RejectionReason,
				p.RejectedAt,
				p.ResignReason,
				p.ResignRequestedAt,
				p.ResignApprovedBy,
				p.ID, contract.ID,
			).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
