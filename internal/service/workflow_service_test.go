package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurmak/signflow/internal/model"
)

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func staffPrincipal() model.Principal {
	return model.Principal{
		UserID:    uuid.New(),
		CompanyID: uuid.New(),
		Name:      "김담당",
		Role:      "STAFF",
	}
}

func setupWorkflow() (*WorkflowService, *mockContractStore, *mockDocumentStore, *mockNotifier) {
	store := newMockContractStore()
	docs := newMockDocumentStore()
	notifier := &mockNotifier{}
	svc := NewWorkflowService(store, docs, notifier, &mockExporter{}, &mockCertificate{}, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc, store, docs, notifier
}

func fixtureContract(statuses ...model.ParticipantStatus) *model.Contract {
	contract := &model.Contract{
		ID:             uuid.New(),
		CompanyID:      uuid.New(),
		ContractNumber: "CT-20250101-TEST",
		Title:          "용역 계약서",
		Status:         model.ContractStatusSigning,
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:     time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		InsuranceStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		InsuranceEnd:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		Version:        1,
		CreatedAt:      fixedNow.Add(-24 * time.Hour),
	}
	for i, status := range statuses {
		p := model.Participant{
			ID:         uuid.New(),
			ContractID: contract.ID,
			Name:       "참여자",
			Email:      "signer@example.com",
			Phone:      "010-0000-0000",
			Channel:    model.ChannelEmail,
			Status:     status,
			CreatedAt:  fixedNow.Add(time.Duration(i) * time.Minute),
		}
		if p.HasSigned() {
			p.Signed = true
			signedAt := fixedNow.Add(-time.Hour)
			artifact := "https://files.example.com/signed.pdf"
			p.SignedAt = &signedAt
			p.SignedArtifactURL = &artifact
		}
		contract.Participants = append(contract.Participants, p)
	}
	contract.Recompute()
	return contract
}

// ApproveParticipant

func TestApproveParticipant_Success(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusWaitingApproval, model.ParticipantStatusSigning)
	store.put(contract)
	target := contract.Participants[0]

	updated, err := svc.ApproveParticipant(context.Background(), staffPrincipal(), contract.ID, target.ID, "확인 완료", 1)
	if err != nil {
		t.Fatalf("approve should succeed: %v", err)
	}

	p := updated.FindParticipant(target.ID)
	if p.Status != model.ParticipantStatusApproved {
		t.Errorf("expected APPROVED, got %s", p.Status)
	}
	if p.ApprovedAt == nil || !p.ApprovedAt.Equal(fixedNow) {
		t.Error("approval timestamp should be recorded")
	}
	if p.ApprovalComment == nil || *p.ApprovalComment != "확인 완료" {
		t.Error("approval comment should be recorded")
	}
	if updated.Progress != 0.5 {
		t.Errorf("expected progress 0.5, got %v", updated.Progress)
	}
	if updated.Version != 2 {
		t.Errorf("expected version bump to 2, got %d", updated.Version)
	}
}

func TestApproveParticipant_WrongState(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusSigning)
	store.put(contract)
	target := contract.Participants[0]

	_, err := svc.ApproveParticipant(context.Background(), staffPrincipal(), contract.ID, target.ID, "", 1)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	stored, _ := store.GetContract(context.Background(), contract.ID)
	if stored.Participants[0].Status != model.ParticipantStatusSigning {
		t.Error("failed approve must not mutate participant state")
	}
	if stored.Version != 1 {
		t.Error("failed approve must not bump version")
	}
}

func TestApproveParticipant_TwiceRejectedSecondTime(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusWaitingApproval, model.ParticipantStatusWaitingApproval)
	store.put(contract)
	target := contract.Participants[0]

	if _, err := svc.ApproveParticipant(context.Background(), staffPrincipal(), contract.ID, target.ID, "", 1); err != nil {
		t.Fatalf("first approve should succeed: %v", err)
	}
	_, err := svc.ApproveParticipant(context.Background(), staffPrincipal(), contract.ID, target.ID, "", 2)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second approve must fail with ErrInvalidTransition, got %v", err)
	}
}

func TestApproveParticipant_LastApprovalCompletesContract(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusApproved, model.ParticipantStatusWaitingApproval)
	store.put(contract)
	target := contract.Participants[1]

	updated, err := svc.ApproveParticipant(context.Background(), staffPrincipal(), contract.ID, target.ID, "", 1)
	if err != nil {
		t.Fatalf("approve should succeed: %v", err)
	}
	if updated.Status != model.ContractStatusComplete {
		t.Errorf("expected COMPLETE contract, got %s", updated.Status)
	}
	for i := range updated.Participants {
		if updated.Participants[i].Status != model.ParticipantStatusDownloadable {
			t.Errorf("participant %d should be SIGNED_DOWNLOADABLE, got %s", i, updated.Participants[i].Status)
		}
	}
	if updated.Progress != 1 {
		t.Errorf("expected progress 1, got %v", updated.Progress)
	}
}

func TestApproveParticipant_VersionConflict(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusWaitingApproval)
	store.put(contract)

	_, err := svc.ApproveParticipant(context.Background(), staffPrincipal(), contract.ID, contract.Participants[0].ID, "", 7)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on stale version, got %v", err)
	}
}

func TestApproveParticipant_NotFound(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusWaitingApproval)
	store.put(contract)

	if _, err := svc.ApproveParticipant(context.Background(), staffPrincipal(), uuid.New(), contract.Participants[0].ID, "", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown contract, got %v", err)
	}
	if _, err := svc.ApproveParticipant(context.Background(), staffPrincipal(), contract.ID, uuid.New(), "", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown participant, got %v", err)
	}
}

func TestApproveParticipant_NonStaff(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusWaitingApproval)
	store.put(contract)

	signer := model.Principal{UserID: uuid.New(), Role: "SIGNER"}
	_, err := svc.ApproveParticipant(context.Background(), signer, contract.ID, contract.Participants[0].ID, "", 1)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

// RejectParticipant

func TestRejectParticipant_ResetsAllParticipants(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusWaitingApproval, model.ParticipantStatusApproved)
	store.put(contract)
	p1 := contract.Participants[0]
	p2 := contract.Participants[1]

	updated, err := svc.RejectParticipant(context.Background(), staffPrincipal(), contract.ID, p1.ID, "서명 위치 오류", 1)
	if err != nil {
		t.Fatalf("reject should succeed: %v", err)
	}

	for _, id := range []uuid.UUID{p1.ID, p2.ID} {
		p := updated.FindParticipant(id)
		if p.Status != model.ParticipantStatusSigning {
			t.Errorf("participant %s should be reset to SIGNING, got %s", id, p.Status)
		}
		if p.Signed || p.SignedArtifactURL != nil {
			t.Errorf("participant %s signature progress should be wiped", id)
		}
	}

	rejected := updated.FindParticipant(p1.ID)
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "서명 위치 오류" {
		t.Error("rejection reason should be recorded on the rejected participant")
	}
	if updated.Progress != 0 {
		t.Errorf("expected progress 0 after contract-wide reset, got %v", updated.Progress)
	}
	if updated.Status != model.ContractStatusSigning {
		t.Errorf("expected SIGNING contract, got %s", updated.Status)
	}
}

func TestRejectParticipant_EmptyReason(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusWaitingApproval, model.ParticipantStatusApproved)
	store.put(contract)

	_, err := svc.RejectParticipant(context.Background(), staffPrincipal(), contract.ID, contract.Participants[0].ID, "", 1)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty reason, got %v", err)
	}

	stored, _ := store.GetContract(context.Background(), contract.ID)
	if stored.Participants[1].Status != model.ParticipantStatusApproved {
		t.Error("validation failure must not mutate any participant")
	}
}

func TestRejectParticipant_WrongState(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusApproved)
	store.put(contract)

	_, err := svc.RejectParticipant(context.Background(), staffPrincipal(), contract.ID, contract.Participants[0].ID, "사유", 1)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

// Resign cycle

func TestRequestResign_FromApproved(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusApproved, model.ParticipantStatusApproved)
	store.put(contract)
	target := contract.Participants[0]

	participant, err := svc.RequestResign(context.Background(), staffPrincipal(), contract.ID, target.ID, "도장 누락", 1)
	if err != nil {
		t.Fatalf("resign request should succeed: %v", err)
	}
	if participant.Status != model.ParticipantStatusResignRequested {
		t.Errorf("expected RESIGN_REQUESTED, got %s", participant.Status)
	}
	if participant.ResignReason == nil || *participant.ResignReason != "도장 누락" {
		t.Error("resign reason should be recorded")
	}
	if participant.ResignRequestedAt == nil || !participant.ResignRequestedAt.Equal(fixedNow) {
		t.Error("resign requested-at timestamp should be recorded")
	}

	stored, _ := store.GetContract(context.Background(), contract.ID)
	if stored.Progress != 1 {
		t.Errorf("resign request should not drop progress yet, got %v", stored.Progress)
	}
}

func TestRequestResign_WrongState(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusSigning)
	store.put(contract)

	_, err := svc.RequestResign(context.Background(), staffPrincipal(), contract.ID, contract.Participants[0].ID, "사유", 1)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApproveResign_EmptyApprover(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusResignRequested)
	store.put(contract)

	_, err := svc.ApproveResign(context.Background(), staffPrincipal(), contract.ID, contract.Participants[0].ID, "", 1)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty approver, got %v", err)
	}

	stored, _ := store.GetContract(context.Background(), contract.ID)
	if stored.Participants[0].Status != model.ParticipantStatusResignRequested {
		t.Error("validation failure must not mutate participant state")
	}
}

func TestApproveResign_ClearsArtifactAndResets(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusResignRequested, model.ParticipantStatusApproved)
	store.put(contract)
	target := contract.Participants[0]

	updated, err := svc.ApproveResign(context.Background(), staffPrincipal(), contract.ID, target.ID, "박과장", 1)
	if err != nil {
		t.Fatalf("resign approve should succeed: %v", err)
	}

	p := updated.FindParticipant(target.ID)
	if p.Status != model.ParticipantStatusSigning {
		t.Errorf("expected SIGNING after resign approval, got %s", p.Status)
	}
	if p.SignedArtifactURL != nil || p.Signed {
		t.Error("prior signed artifact should be cleared")
	}
	if p.ResignApprovedBy == nil || *p.ResignApprovedBy != "박과장" {
		t.Error("resign approver should be recorded")
	}
	if other := updated.FindParticipant(contract.Participants[1].ID); other.Status != model.ParticipantStatusApproved {
		t.Error("resign approval must not touch other participants")
	}
	if updated.Progress != 0.5 {
		t.Errorf("expected progress 0.5, got %v", updated.Progress)
	}
}

func TestApproveResign_WrongState(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusApproved)
	store.put(contract)

	_, err := svc.ApproveResign(context.Background(), staffPrincipal(), contract.ID, contract.Participants[0].ID, "박과장", 1)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

// CompleteSignature

func TestCompleteSignature_Success(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusSigning, model.ParticipantStatusSigning)
	store.put(contract)
	target := contract.Participants[0]

	updated, err := svc.CompleteSignature(context.Background(), contract.ID, target.ID, "https://files.example.com/p1.pdf")
	if err != nil {
		t.Fatalf("signature completion should succeed: %v", err)
	}

	p := updated.FindParticipant(target.ID)
	if p.Status != model.ParticipantStatusWaitingApproval {
		t.Errorf("expected SIGNED_WAITING_APPROVAL, got %s", p.Status)
	}
	if !p.Signed || p.SignedArtifactURL == nil {
		t.Error("signed flag and artifact should be set")
	}
	if updated.Progress != 0.5 {
		t.Errorf("expected progress 0.5, got %v", updated.Progress)
	}
}

func TestCompleteSignature_WrongState(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusWaitingApproval)
	store.put(contract)

	_, err := svc.CompleteSignature(context.Background(), contract.ID, contract.Participants[0].ID, "https://files.example.com/p1.pdf")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCompleteSignature_MissingArtifact(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusSigning)
	store.put(contract)

	_, err := svc.CompleteSignature(context.Background(), contract.ID, contract.Participants[0].ID, "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// progress invariant across a full cycle

func TestProgressInvariantAcrossOperations(t *testing.T) {
	svc, store, _, _ := setupWorkflow()
	contract := fixtureContract(model.ParticipantStatusSigning, model.ParticipantStatusSigning)
	store.put(contract)
	p1 := contract.Participants[0]
	p2 := contract.Participants[1]
	staff := staffPrincipal()
	ctx := context.Background()

	assertProgress := func(step string, want float64) {
		t.Helper()
		stored, err := store.GetContract(ctx, contract.ID)
		if err != nil {
			t.Fatalf("%s: %v", step, err)
		}
		if stored.Progress != want {
			t.Errorf("%s: expected progress %v, got %v", step, want, stored.Progress)
		}
	}

	if _, err := svc.CompleteSignature(ctx, contract.ID, p1.ID, "https://files.example.com/a.pdf"); err != nil {
		t.Fatal(err)
	}
	assertProgress("after first signature", 0.5)

	if _, err := svc.CompleteSignature(ctx, contract.ID, p2.ID, "https://files.example.com/b.pdf"); err != nil {
		t.Fatal(err)
	}
	assertProgress("after second signature", 1)

	if _, err := svc.ApproveParticipant(ctx, staff, contract.ID, p1.ID, "", 3); err != nil {
		t.Fatal(err)
	}
	assertProgress("after first approval", 1)

	if _, err := svc.RejectParticipant(ctx, staff, contract.ID, p2.ID, "내용 오류", 4); err != nil {
		t.Fatal(err)
	}
	assertProgress("after rejection", 0)
}
