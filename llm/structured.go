package llm

import (
	"fmt"
	"strings"

	"github.com/edgerun-ai/edgerun/types"
)

// StructuredConfig controls structured (JSON) generation.
type StructuredConfig struct {
	// Schema is the JSON schema the model must follow.
	Schema string
	// IncludeSchemaInPrompt injects the schema and output rules into the
	// prompt itself, for models without a dedicated system channel.
	IncludeSchemaInPrompt bool
}

// FindMatchingBrace scans forward from an opening '{' at start and
// returns the index of the brace that closes it. Strings and escape
// sequences inside the JSON are respected.
func FindMatchingBrace(text string, start int) (int, bool) {
	return findMatching(text, start, '{', '}')
}

// FindMatchingBracket is FindMatchingBrace for '[' and ']'.
func FindMatchingBracket(text string, start int) (int, bool) {
	return findMatching(text, start, '[', ']')
}

func findMatching(text string, start int, open, close byte) (int, bool) {
	if start >= len(text) || text[start] != open {
		return 0, false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// findCompleteJSON locates the first balanced JSON object or array in
// text and returns its [start, end) bounds. Objects are tried before
// arrays.
func findCompleteJSON(text string) (int, int, bool) {
	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(text, pair[0])
		if start < 0 {
			continue
		}
		if end, ok := findMatching(text, start, pair[0], pair[1]); ok {
			return start, end + 1, true
		}
	}
	return 0, 0, false
}

// ExtractJSON pulls the JSON payload out of a model response that may
// be wrapped in prose or markdown fences. Extraction tries, in order:
// a balanced object or array anywhere in the text, a matching-brace
// scan, a matching-bracket scan, and finally the whole trimmed text if
// it at least starts like JSON. Anything else is an INVALID_FORMAT
// error.
func ExtractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", types.NewError(types.ErrInvalidInput, "empty text provided")
	}

	if start, end, ok := findCompleteJSON(trimmed); ok {
		return trimmed[start:end], nil
	}

	if start := strings.IndexByte(trimmed, '{'); start >= 0 {
		if end, ok := FindMatchingBrace(trimmed, start); ok {
			return trimmed[start : end+1], nil
		}
	}

	if start := strings.IndexByte(trimmed, '['); start >= 0 {
		if end, ok := FindMatchingBracket(trimmed, start); ok {
			return trimmed[start : end+1], nil
		}
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed, nil
	}

	return "", types.NewError(types.ErrInvalidFormat, "no valid JSON found in the response")
}

// ValidateStructured reports whether a response contains extractable
// JSON, returning the extracted payload when it does.
func ValidateStructured(text string) (string, bool) {
	extracted, err := ExtractJSON(text)
	if err != nil {
		return "", false
	}
	return extracted, true
}

// StructuredSystemPrompt builds the system prompt that constrains a
// model to emit only JSON matching the schema.
func StructuredSystemPrompt(schema string) string {
	if schema == "" {
		schema = "{}"
	}
	return fmt.Sprintf(`You are a JSON generator that outputs ONLY valid JSON without any additional text.

CRITICAL RULES:
1. Your entire response must be valid JSON that can be parsed
2. Start with { and end with }
3. No text before the opening {
4. No text after the closing }
5. Follow the provided schema exactly
6. Include all required fields
7. Use proper JSON syntax (quotes, commas, etc.)

Expected JSON Schema:
%s

Remember: Output ONLY the JSON object, nothing else.`, schema)
}

// PrepareStructuredPrompt wraps a prompt with schema instructions when
// the config asks for the schema in-prompt; otherwise the prompt passes
// through unchanged.
func PrepareStructuredPrompt(prompt string, cfg *StructuredConfig) string {
	if cfg == nil || !cfg.IncludeSchemaInPrompt {
		return prompt
	}
	schema := cfg.Schema
	if schema == "" {
		schema = "{}"
	}
	return fmt.Sprintf(`System: You are a JSON generator. You must output only valid JSON.

%s

CRITICAL INSTRUCTION: You MUST respond with ONLY a valid JSON object. No other text is allowed.

JSON Schema:
%s

RULES:
1. Start your response with { and end with }
2. Include NO text before the opening {
3. Include NO text after the closing }
4. Follow the schema exactly
5. All required fields must be present
6. Use exact field names from the schema
7. Ensure proper JSON syntax (quotes, commas, etc.)

IMPORTANT: Your entire response must be valid JSON that can be parsed. Do not include any explanations, comments, or additional text.

Remember: Output ONLY the JSON object, nothing else.`, prompt, schema)
}
