package llm

import "context"

// BinaryPayload is inline document content for the extraction call.
type BinaryPayload struct {
	MimeType   string
	Base64Data string // raw base64, no data-URL prefix
}

// ExtractRequest carries the document content the model should read.
// At least one of Binary/Text must be present; the pipeline's format
// branch guarantees exactly one in practice.
type ExtractRequest struct {
	Binary *BinaryPayload
	Text   string
}

// ReferralFields is the structured response shape we demand from the
// document-understanding service. The required clinical fields may come
// back empty; defaulting them to the "Unknown" sentinel is the record
// assembler's job, not the client's.
type ReferralFields struct {
	IsReferral   bool   `json:"isReferral"`
	PatientName  string `json:"PatientName"`
	ReferredBy   string `json:"ReferredBy"`
	ReferredTo   string `json:"ReferredTo"`
	Diagnosis    string `json:"Diagnosis"`
	DOB          string `json:"DOB,omitempty"`
	ReferralDate string `json:"ReferralDate,omitempty"`
	Summary      string `json:"Summary,omitempty"`
}

// DocumentExtractor is the interface the ingestion pipeline depends on.
type DocumentExtractor interface {
	ExtractReferral(ctx context.Context, req ExtractRequest) (ReferralFields, []byte /*rawJSON*/, error)
}
