package entity

import (
	"time"

	"referral-intake-service/constants"
)

// StorageKind records where the original document bytes ended up.
type StorageKind string

const (
	StorageLocal  StorageKind = "local"  // embedded inline as a data URL
	StorageRemote StorageKind = "remote" // durably stored in remote blob storage
)

// Referral is the persisted unit produced by the ingestion pipeline.
// ID and FilePath are set exactly once at creation; Status and the
// clinical text fields may be edited later by a review action.
type Referral struct {
	ID           string                   `json:"id"`
	PatientName  string                   `json:"patient_name"`
	ReferredBy   string                   `json:"referred_by"`
	ReferredTo   string                   `json:"referred_to"`
	Diagnosis    string                   `json:"diagnosis"`
	DOB          string                   `json:"dob,omitempty"`
	ReferralDate string                   `json:"referral_date,omitempty"`
	Notes        string                   `json:"notes,omitempty"`
	FilePath     string                   `json:"file_path"`
	MimeType     string                   `json:"mime_type"`
	Status       constants.ReferralStatus `json:"status"`
	StorageKind  StorageKind              `json:"storage_kind"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}
