package repository

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"referral-intake-service/constants"
	"referral-intake-service/internal/common"
	"referral-intake-service/internal/entity"
)

func newTestRepo(t *testing.T) ReferralRepository {
	t.Helper()
	db, err := Open(context.Background(), Config{
		Path:        filepath.Join(t.TempDir(), "referrals.db"),
		DialTimeout: 3 * time.Second,
	}, slog.Default())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewReferralRepository(db, slog.Default())
}

func sampleReferral(id string) *entity.Referral {
	return &entity.Referral{
		ID:          id,
		PatientName: "John Doe",
		ReferredBy:  "Dr. Smith",
		ReferredTo:  "Cardiology",
		Diagnosis:   "I10",
		FilePath:    "data:image/jpeg;base64,AAAA",
		MimeType:    "image/jpeg",
		Status:      constants.StatusPending,
		StorageKind: entity.StorageLocal,
	}
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, sampleReferral("REF-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetByID(ctx, "REF-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PatientName != "John Doe" || got.Status != constants.StatusPending || got.StorageKind != entity.StorageLocal {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, sampleReferral("REF-dup")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	other := sampleReferral("REF-dup")
	other.PatientName = "Someone Else"
	err := repo.Create(ctx, other)
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	// original row must be untouched
	got, _ := repo.GetByID(ctx, "REF-dup")
	if got.PatientName != "John Doe" {
		t.Fatalf("duplicate create overwrote the record: %+v", got)
	}
}

func TestCreateConcurrentSameID(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	// Two writers racing on one id: exactly one insert wins, the loser
	// sees ErrConflict, never a raw database error.
	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, sampleReferral("REF-race"))
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, common.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error from racing create: %v", err)
		}
	}
	if ok != 1 || conflicts != writers-1 {
		t.Fatalf("ok = %d, conflicts = %d, want 1 and %d", ok, conflicts, writers-1)
	}
}

func TestGetMissing(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), "REF-nope")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"REF-a", "REF-b", "REF-c"} {
		r := sampleReferral(id)
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].ID != "REF-c" || got[2].ID != "REF-a" {
		t.Fatalf("not newest-first: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, sampleReferral("REF-s")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.UpdateStatus(ctx, "REF-s", constants.StatusAccepted)
	if err != nil {
		t.Fatalf("pending->accepted: %v", err)
	}
	if got.Status != constants.StatusAccepted {
		t.Fatalf("status = %s", got.Status)
	}

	// accepted is terminal: no move back to pending, no flip to rejected
	if _, err := repo.UpdateStatus(ctx, "REF-s", constants.StatusPending); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("accepted->pending error = %v, want ErrInvalidInput", err)
	}
	if _, err := repo.UpdateStatus(ctx, "REF-s", constants.StatusRejected); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("accepted->rejected error = %v, want ErrInvalidInput", err)
	}
}

func TestUpdateFields(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, sampleReferral("REF-e")); err != nil {
		t.Fatalf("create: %v", err)
	}
	name := "Jonathan Doe"
	notes := "confirmed by front desk"
	got, err := repo.UpdateFields(ctx, "REF-e", ReferralUpdate{PatientName: &name, Notes: &notes})
	if err != nil {
		t.Fatalf("update fields: %v", err)
	}
	if got.PatientName != name || got.Notes != notes {
		t.Fatalf("fields not applied: %+v", got)
	}
	if got.Diagnosis != "I10" {
		t.Fatalf("untouched field changed: %+v", got)
	}
}

func TestArchive(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, sampleReferral("REF-z")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Archive(ctx, "REF-z"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := repo.GetByID(ctx, "REF-z"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound after archive", err)
	}
	if err := repo.Archive(ctx, "REF-z"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("second archive error = %v, want ErrNotFound", err)
	}
}

func TestSeedDemoDataIsIdempotent(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := SeedDemoData(ctx, repo, slog.Default()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := SeedDemoData(ctx, repo, slog.Default()); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
}
