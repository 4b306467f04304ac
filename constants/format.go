package constants

import "strings"

// Well-known media types the intake pipeline cares about.
const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeWebP = "image/webp"
	MIMETypePDF  = "application/pdf"
	MIMETypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// AcceptedMIMETypes holds the media types an upload may declare.
// Anything else is rejected before conversion work starts.
var AcceptedMIMETypes = map[string]struct{}{
	MIMETypeJPEG: {},
	MIMETypePNG:  {},
	MIMETypeWebP: {},
	MIMETypePDF:  {},
	MIMETypeDocx: {},
}

// IsAcceptedMIMEType reports whether the declared media type is uploadable.
func IsAcceptedMIMEType(mimeType string) bool {
	_, ok := AcceptedMIMETypes[NormalizeMIMEType(mimeType)]
	return ok
}

// NormalizeMIMEType lowercases a media type and strips any parameters
// (e.g. "image/jpeg; charset=binary" -> "image/jpeg").
func NormalizeMIMEType(mimeType string) string {
	s := strings.TrimSpace(strings.ToLower(mimeType))
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
