package llm

import "strings"

// SystemInstruction frames the service as a medical intake assistant able
// to read degraded and handwritten fax scans.
const SystemInstruction = "You are an expert medical administrative assistant capable of reading complex, handwritten, and low-quality fax documents."

// BuildInstructionBlock returns the fixed instruction text appended after
// the document content. Kept deliberately deterministic: the same block
// goes out for every upload.
func BuildInstructionBlock() string {
	parts := []string{
		"Analyze the provided document content (which may include an image, PDF pages, or extracted text).",
		"Role: You are an expert medical intake automation system.",
		"Goal: Extract structured data for the referral database.",
		"Strict Rules:",
		"1. 'isReferral': Set to true if the document contains ANY patient information, medical terminology, or looks like a form, letter, or note regarding a patient. Only set to false if it is clearly junk (e.g., a blank page, a picture of a cat).",
		`2. 'PatientName': Look for patterns like "Patient:", "Name:", or capitalized names at the top.`,
		`3. 'Diagnosis': Look for "Dx", "Diagnosis", "Reason for referral", or ICD codes (e.g., M54.5).`,
		"4. Handwriting: The document might be handwritten. Do your best to decipher it.",
		`5. If a field is not found, use "Unknown".`,
		"Output JSON only.",
	}
	return strings.Join(parts, "\n")
}

// LabelTextContent wraps locally extracted document text in the label
// the instruction block refers to.
func LabelTextContent(text string) string {
	return "Document Text Content:\n" + text
}
