package llm

// BuildReferralJSONSchema returns the fixed response schema (a JSON-Schema
// draft 2020-12 subset as a generic map). It is sent to the service as a
// structured-output constraint and also used locally to validate what
// comes back.
func BuildReferralJSONSchema() map[string]any {
	props := map[string]any{
		"isReferral": map[string]any{
			"type":        "boolean",
			"description": "True if the document appears to be a medical referral, form, letter, or note. False only if clearly irrelevant.",
		},
		"PatientName": map[string]any{"type": "string", "description": "Full name of the patient"},
		"ReferredBy":  map[string]any{"type": "string", "description": "Name of referring physician or clinic"},
		"ReferredTo":  map[string]any{"type": "string", "description": "Name of physician or clinic being referred to"},
		"Diagnosis":   map[string]any{"type": "string", "description": "ICD code or diagnosis description"},
		"DOB":         map[string]any{"type": "string", "description": "Date of birth of the patient (YYYY-MM-DD)"},
		"ReferralDate": map[string]any{
			"type":        "string",
			"description": "Date of the referral (YYYY-MM-DD)",
		},
		"Summary": map[string]any{
			"type":        "string",
			"description": "Brief summary of the document content, including any handwritten notes if present.",
		},
	}
	required := []string{"isReferral", "PatientName", "ReferredBy", "ReferredTo", "Diagnosis"}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
