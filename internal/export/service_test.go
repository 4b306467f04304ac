package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"referral-intake-service/constants"
	"referral-intake-service/internal/entity"
	"referral-intake-service/internal/repository"
)

var _ repository.ReferralRepository = (*mockRepo)(nil)

type mockRepo struct {
	ListFunc func(ctx context.Context) ([]*entity.Referral, error)
}

func (m *mockRepo) List(ctx context.Context) ([]*entity.Referral, error) { return m.ListFunc(ctx) }
func (m *mockRepo) Create(context.Context, *entity.Referral) error       { return nil }
func (m *mockRepo) GetByID(context.Context, string) (*entity.Referral, error) {
	return nil, errors.New("not implemented in mock")
}
func (m *mockRepo) UpdateStatus(context.Context, string, constants.ReferralStatus) (*entity.Referral, error) {
	return nil, errors.New("not implemented in mock")
}
func (m *mockRepo) UpdateFields(context.Context, string, repository.ReferralUpdate) (*entity.Referral, error) {
	return nil, errors.New("not implemented in mock")
}
func (m *mockRepo) Archive(context.Context, string) error { return nil }
func (m *mockRepo) Count(context.Context) (int, error)    { return 0, nil }

func TestExportReferralsXLSX(t *testing.T) {
	t.Parallel()

	recs := []*entity.Referral{
		{
			ID:          "REF-2001",
			PatientName: "John Doe",
			ReferredBy:  "Dr. Smith",
			ReferredTo:  "Cardiology",
			Diagnosis:   "I10",
			DOB:         "1970-01-01",
			Status:      constants.StatusPending,
			FilePath:    "https://blobs.example.net/intake/1-fax.jpg",
			MimeType:    "image/jpeg",
			CreatedAt:   time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:          "REF-2002",
			PatientName: "Jane Roe",
			ReferredBy:  "Dr. Adams",
			ReferredTo:  "Neurology",
			Diagnosis:   "G43",
			Status:      constants.StatusAccepted,
			FilePath:    "data:image/png;base64," + strings.Repeat("A", 500),
			MimeType:    "image/png",
			CreatedAt:   time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
		},
	}
	svc := NewService(&mockRepo{ListFunc: func(context.Context) ([]*entity.Referral, error) {
		return recs, nil
	}}, nil)

	out, err := svc.ExportReferralsXLSX(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Referrals")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Referral ID" || rows[0][7] != "Status" {
		t.Fatalf("unexpected header row: %v", rows[0])
	}
	if rows[1][1] != "John Doe" || rows[1][7] != "pending" {
		t.Fatalf("unexpected first data row: %v", rows[1])
	}
	// long data URLs must not be embedded verbatim
	if strings.Contains(rows[2][10], "base64") {
		t.Fatalf("data URL leaked into workbook: %q", rows[2][10])
	}
	if !strings.Contains(rows[2][10], "embedded image/png") {
		t.Fatalf("placeholder missing for embedded document: %q", rows[2][10])
	}
}

func TestExportReferralsXLSXListFailure(t *testing.T) {
	t.Parallel()

	svc := NewService(&mockRepo{ListFunc: func(context.Context) ([]*entity.Referral, error) {
		return nil, errors.New("disk gone")
	}}, nil)
	if _, err := svc.ExportReferralsXLSX(context.Background()); err == nil {
		t.Fatal("expected error when the repository fails")
	}
}
