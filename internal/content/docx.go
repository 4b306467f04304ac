package content

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"referral-intake-service/internal/common"
)

// ExtractDocxText pulls the plain text out of a .docx file: the zip
// container's word/document.xml, with formatting discarded. Paragraph
// and tab boundaries become newlines and tabs so the extraction model
// sees roughly the reading order of the document.
func ExtractDocxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a zip container: %v", common.ErrTextExtraction, err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("%w: word/document.xml missing", common.ErrTextExtraction)
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open document.xml: %v", common.ErrTextExtraction, err)
	}
	defer rc.Close()

	text, err := walkDocumentXML(rc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrTextExtraction, err)
	}
	return text, nil
}

// walkDocumentXML streams the WordprocessingML body, collecting the
// character data of w:t runs. w:p closes become newlines; w:tab and
// w:br map to their plain-text equivalents.
func walkDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed document xml: %v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
