package patients

import (
	"context"
	"errors"
	"testing"

	"github.com/careloop/clinicdesk/pkg/logging"
)

func TestResolveFindsExistingPatient(t *testing.T) {
	repo := NewInMemoryRepository()
	resolver := NewResolver(repo, logging.Default())
	ctx := context.Background()

	created, err := repo.Create(ctx, &CreatePatientRequest{Name: "Asha", Mobile: "9999999999", Gender: GenderFemale})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := resolver.Resolve(ctx, "+919999999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found == nil || res.Found.ID != created.ID {
		t.Fatalf("expected to resolve patient %s, got %+v", created.ID, res)
	}
	if res.Draft != nil {
		t.Error("expected no draft when a patient is found")
	}
}

func TestResolveReturnsDraftOnMiss(t *testing.T) {
	resolver := NewResolver(NewInMemoryRepository(), logging.Default())

	res, err := resolver.Resolve(context.Background(), "9999999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found != nil {
		t.Error("expected no match")
	}
	if res.Draft == nil || res.Draft.Mobile != "9999999999" {
		t.Fatalf("expected draft pre-filled with mobile, got %+v", res.Draft)
	}
}

func TestResolveFailsFastOnInvalidMobile(t *testing.T) {
	resolver := NewResolver(failingPatientRepo{}, logging.Default())

	// The failing repo would error if a lookup were attempted.
	_, err := resolver.Resolve(context.Background(), "98765")
	if err != ErrInvalidMobile {
		t.Fatalf("expected ErrInvalidMobile before any lookup, got %v", err)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	repo := NewInMemoryRepository()
	resolver := NewResolver(repo, logging.Default())
	ctx := context.Background()

	first, _ := repo.Create(ctx, &CreatePatientRequest{Name: "Asha", Mobile: "9999999999", Gender: GenderFemale})
	if _, err := repo.Create(ctx, &CreatePatientRequest{Name: "Asha Jr", Mobile: "9999999999", Gender: GenderFemale}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := resolver.Resolve(ctx, "9999999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found == nil || res.Found.ID != first.ID {
		t.Fatalf("expected oldest match %s to win, got %+v", first.ID, res.Found)
	}
}

type failingPatientRepo struct{}

func (failingPatientRepo) Create(context.Context, *CreatePatientRequest) (*Patient, error) {
	return nil, errors.New("boom")
}

func (failingPatientRepo) GetByID(context.Context, string) (*Patient, error) {
	return nil, ErrPatientNotFound
}

func (failingPatientRepo) Search(context.Context, string, int) ([]*Patient, error) {
	return nil, errors.New("boom")
}
