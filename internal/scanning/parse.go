package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// labelScanPrompt is the shared prompt used by all LLM providers for transcribing labels
const labelScanPrompt = `You are an OCR engine reading a photo of a printed product label or package.
Transcribe every piece of visible text exactly as printed, in natural reading order (top to bottom, left to right).

Rules:
- Do not interpret, translate, correct or reformat anything. Dates must be copied character for character (e.g. "MFD: 12/03/24", "BEST BEFORE 12 MAR 25").
- Emit one fragment per line or visually separate block of text.
- Give each fragment a confidence between 0 and 1.

Return ONLY valid JSON in this exact format:
{
  "fragments": [
    {"text": "first line of text", "confidence": 0.95}
  ]
}

Important:
- If the image contains no text, return {"fragments": []}
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

type fragmentsResponse struct {
	Fragments []Fragment `json:"fragments"`
}

// parseFragmentsJSON parses the JSON transcription returned by an LLM backend
func parseFragmentsJSON(text string) ([]Fragment, error) {
	// Remove markdown code blocks if present
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var resp fragmentsResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	fragments := make([]Fragment, 0, len(resp.Fragments))
	for _, f := range resp.Fragments {
		f.Text = strings.TrimSpace(f.Text)
		if f.Text == "" {
			continue
		}
		if f.Confidence < 0 {
			f.Confidence = 0
		}
		if f.Confidence > 1 {
			f.Confidence = 1
		}
		fragments = append(fragments, f)
	}

	return fragments, nil
}
