package repository

import (
	"context"
	"log/slog"
	"time"

	"referral-intake-service/constants"
	"referral-intake-service/internal/entity"
)

// SeedDemoData inserts a handful of demo referrals so a fresh install has
// something to review. No-op unless the store is empty.
func SeedDemoData(ctx context.Context, repo ReferralRepository, logger *slog.Logger) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	demo := []*entity.Referral{
		{
			ID:           "REF-1001",
			PatientName:  "John Doe",
			ReferredBy:   "Dr. Smith (General Practice)",
			ReferredTo:   "Cardiology Dept",
			Diagnosis:    "I10 - Essential Hypertension",
			FilePath:     "https://picsum.photos/600/800",
			MimeType:     "image/jpeg",
			Status:       constants.StatusPending,
			StorageKind:  entity.StorageRemote,
			DOB:          "1980-05-15",
			ReferralDate: "2023-10-25",
		},
		{
			ID:           "REF-1002",
			PatientName:  "Jane Roe",
			ReferredBy:   "City Health Clinic",
			ReferredTo:   "Dr. Adams (Orthopedics)",
			Diagnosis:    "M54.5 - Low Back Pain",
			FilePath:     "https://picsum.photos/601/801",
			MimeType:     "image/jpeg",
			Status:       constants.StatusAccepted,
			StorageKind:  entity.StorageRemote,
			DOB:          "1992-11-02",
			ReferralDate: "2023-10-24",
		},
		{
			ID:           "REF-1003",
			PatientName:  "Alice M.",
			ReferredBy:   "Westside Urgent Care",
			ReferredTo:   "Neurology",
			Diagnosis:    "R51 - Headache",
			FilePath:     "https://picsum.photos/602/802",
			MimeType:     "image/jpeg",
			Status:       constants.StatusRejected,
			StorageKind:  entity.StorageRemote,
			DOB:          "1975-03-10",
			ReferralDate: "2023-10-20",
		},
	}

	now := time.Now().UTC()
	for i, r := range demo {
		// spread creation times so List order is stable
		r.CreatedAt = now.Add(time.Duration(i-len(demo)) * time.Minute)
		if err := repo.Create(ctx, r); err != nil {
			return err
		}
	}
	logger.Info("seeded demo referrals", "count", len(demo))
	return nil
}
