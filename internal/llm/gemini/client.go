package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"referral-intake-service/internal/common"
	"referral-intake-service/internal/llm"
)

// ExtractReferral implements llm.DocumentExtractor against the Gemini
// generateContent endpoint. The request carries the binary part and/or
// the labeled text part, the fixed instruction block, and the fixed
// response schema; decoding is two-stage (strict schema validation first,
// sentinel defaulting left to the record assembler).
func (c *Client) ExtractReferral(ctx context.Context, req llm.ExtractRequest) (llm.ReferralFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	if req.Binary == nil && req.Text == "" {
		return llm.ReferralFields{}, nil, fmt.Errorf("%w: extraction request needs binary or text content", common.ErrInvalidInput)
	}

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"has_binary", req.Binary != nil,
		"text_len", len(req.Text),
	)

	schema := llm.BuildReferralJSONSchema()

	var parts []map[string]any
	if req.Binary != nil {
		parts = append(parts, map[string]any{
			"inline_data": map[string]any{
				"mime_type": req.Binary.MimeType,
				"data":      req.Binary.Base64Data,
			},
		})
	}
	if req.Text != "" {
		parts = append(parts, map[string]any{"text": llm.LabelTextContent(req.Text)})
	}
	parts = append(parts, map[string]any{"text": llm.BuildInstructionBlock()})

	body := map[string]any{
		"contents": []map[string]any{{"parts": parts}},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   toGeminiSchema(schema),
			"temperature":      c.cfg.Temperature,
		},
		"systemInstruction": map[string]any{
			"parts": []map[string]any{{"text": llm.SystemInstruction}},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + c.cfg.Model + ":generateContent"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReferralFields{}, nil, fmt.Errorf("%w: %v", common.ErrExtractionService, err)
	}

	var envelope struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReferralFields{}, raw, fmt.Errorf("%w: decode response envelope: %v", common.ErrExtractionParse, err)
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		c.logger.Error("llm.extract.no_candidates",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReferralFields{}, raw, fmt.Errorf("%w: no candidates in response", common.ErrExtractionParse)
	}

	content := strings.TrimSpace(envelope.Candidates[0].Content.Parts[0].Text)
	rawContent := []byte(content)

	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		c.logger.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", content,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReferralFields{}, rawContent, fmt.Errorf("%w: %v", common.ErrExtractionParse, err)
	}

	var out llm.ReferralFields
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.logger.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReferralFields{}, rawContent, fmt.Errorf("%w: unmarshal fields: %v", common.ErrExtractionParse, err)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"is_referral", out.IsReferral,
		"patient", out.PatientName,
		"referred_by", out.ReferredBy,
		"referred_to", out.ReferredTo,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("gemini response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

// toGeminiSchema converts the JSON-Schema map into the OpenAPI-flavored
// shape generateContent expects (upper-case type enum names).
func toGeminiSchema(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		switch k {
		case "type":
			if s, ok := v.(string); ok {
				out[k] = strings.ToUpper(s)
				continue
			}
			out[k] = v
		case "properties":
			if props, ok := v.(map[string]any); ok {
				converted := make(map[string]any, len(props))
				for name, sub := range props {
					if m, ok := sub.(map[string]any); ok {
						converted[name] = toGeminiSchema(m)
					} else {
						converted[name] = sub
					}
				}
				out[k] = converted
				continue
			}
			out[k] = v
		case "items":
			if m, ok := v.(map[string]any); ok {
				out[k] = toGeminiSchema(m)
				continue
			}
			out[k] = v
		default:
			out[k] = v
		}
	}
	return out
}
