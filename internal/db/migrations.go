package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'contract_status') THEN
			CREATE TYPE contract_status AS ENUM ('DRAFT', 'WAITING', 'SIGNING', 'COMPLETE');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'participant_status') THEN
			CREATE TYPE participant_status AS ENUM (
				'DRAFT',
				'SIGNING',
				'SIGNED_WAITING_APPROVAL',
				'APPROVED',
				'REJECTED',
				'RESIGN_REQUESTED',
				'RESIGN_IN_PROGRESS',
				'SIGNED_DOWNLOADABLE'
			);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'notify_channel') THEN
			CREATE TYPE notify_channel AS ENUM ('EMAIL', 'KAKAO');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		company_id UUID NOT NULL,
		contract_number VARCHAR(64) NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status contract_status NOT NULL DEFAULT 'SIGNING',
		progress NUMERIC(5,4) NOT NULL DEFAULT 0,
		start_date DATE NOT NULL,
		expiry_date DATE NOT NULL,
		deadline_date DATE,
		insurance_start DATE NOT NULL,
		insurance_end DATE NOT NULL,
		version BIGINT NOT NULL DEFAULT 1,
		created_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_number ON contracts (contract_number);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_company_id ON contracts (company_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_status ON contracts (status);`,
	`CREATE TABLE IF NOT EXISTS contract_templates (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		file_url TEXT NOT NULL,
		display_order INT NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_templates_contract_id ON contract_templates (contract_id);`,
	`CREATE TABLE IF NOT EXISTS participants (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		name VARCHAR(128) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(32) NOT NULL,
		channel notify_channel NOT NULL DEFAULT 'EMAIL',
		status participant_status NOT NULL DEFAULT 'SIGNING',
		signed BOOLEAN NOT NULL DEFAULT FALSE,
		signed_at TIMESTAMPTZ,
		signed_artifact_url TEXT,
		approval_comment TEXT,
		approved_by VARCHAR(128),
		approved_at TIMESTAMPTZ,
		rejection_reason TEXT,
		rejected_at TIMESTAMPTZ,
		resign_reason TEXT,
		resign_requested_at TIMESTAMPTZ,
		resign_approved_by VARCHAR(128),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_participants_contract_id ON participants (contract_id);`,
	`CREATE INDEX IF NOT EXISTS idx_participants_status ON participants (status);`,
	`CREATE TABLE IF NOT EXISTS required_documents (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		participant_id UUID NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
		document_type_code VARCHAR(64) NOT NULL,
		required BOOLEAN NOT NULL DEFAULT TRUE,
		file_url TEXT,
		uploaded_at TIMESTAMPTZ
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_required_documents_participant_type
		ON required_documents (participant_id, document_type_code);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
