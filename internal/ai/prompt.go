package ai

import "github.com/garnizeh/pawfect/pkg/ollama"

// PurposePrompt is the instruction sent to the classifier. The acceptance
// policy lives entirely in this text.
const PurposePrompt = `
Respond ONLY in JSON format:
{ "decision": "VALID" } or { "decision": "INVALID" }

Rules:
- VALID: purpose includes love, care, sheltering, or protection.
- INVALID: purpose includes harm, slavery, abuse, profit, neglect.
- INVALID: if the purpose is only one sentence. Must be at least two sentences.

Input: "{{.Purpose}}"
`

// RenderPrompt embeds purpose into PurposePrompt.
func RenderPrompt(purpose string) (string, error) {
	return ollama.RenderTemplate(PurposePrompt, map[string]any{"Purpose": purpose})
}
