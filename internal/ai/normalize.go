package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/insightflow/backend/internal/models"
)

var codeFence = regexp.MustCompile("```json\\s*|\\s*```")

// ExtractJSON recovers a single JSON object from a free-form model response.
// Recovery escalates, stopping at the first success:
//
//  1. parse the whole string
//  2. strip markdown code fences, parse again
//  3. parse the first-'{' .. last-'}' substring
//
// Whole-string parses run before the substring scan on purpose: grabbing a
// brace pair out of descriptive text can extract the wrong thing, so the
// substring path is a last resort. A '{' with no valid '}' after it is
// classified as ErrTruncated (the response was cut off by an output-length
// limit); anything else unrecoverable is ErrInvalidFormat.
func ExtractJSON(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyResponse
	}

	if isJSONObject(raw) {
		return raw, nil
	}

	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))
	if isJSONObject(cleaned) {
		return cleaned, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start != -1 && end > start {
		candidate := cleaned[start : end+1]
		if isJSONObject(candidate) {
			return candidate, nil
		}
	}

	if start != -1 && end < start {
		return "", ErrTruncated
	}
	return "", ErrInvalidFormat
}

// DecodeAnalysis runs ExtractJSON and decodes the result into an
// AnalysisResult with empty-collection defaults filled in, so callers never
// observe absent fields.
func DecodeAnalysis(raw string) (*models.AnalysisResult, error) {
	text, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, ErrInvalidFormat
	}
	result.FillDefaults()
	return &result, nil
}

func isJSONObject(s string) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil
}
