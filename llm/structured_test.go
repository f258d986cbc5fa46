package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/edgerun-ai/edgerun/types"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"bare array", `[1,2,3]`, `[1,2,3]`},
		{"surrounding prose", `Sure, here you go: {"a":1} Hope that helps!`, `{"a":1}`},
		{"markdown fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"nested object", `x {"a":{"b":[1,2]},"c":"d"} y`, `{"a":{"b":[1,2]},"c":"d"}`},
		{"brace inside string", `{"a":"}"}`, `{"a":"}"}`},
		{"escaped quote inside string", `{"a":"say \"}\" ok"}`, `{"a":"say \"}\" ok"}`},
		{"array before prose", `[{"a":1}] trailing`, `[{"a":1}]`},
		{"whitespace trimmed", "  \n\t{\"a\":1}\r\n ", `{"a":1}`},
		{"truncated object starting like json", `{"a":1`, `{"a":1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON_Errors(t *testing.T) {
	t.Parallel()

	_, err := ExtractJSON("   \n\t ")
	assert.Equal(t, types.ErrInvalidInput, types.GetErrorCode(err))

	_, err = ExtractJSON("no json here at all")
	assert.Equal(t, types.ErrInvalidFormat, types.GetErrorCode(err))
}

func TestFindMatchingBrace(t *testing.T) {
	t.Parallel()

	end, ok := FindMatchingBrace(`{"a":{"b":2}}`, 0)
	require.True(t, ok)
	assert.Equal(t, 12, end)

	_, ok = FindMatchingBrace(`{"a":1`, 0)
	assert.False(t, ok, "unterminated object")

	_, ok = FindMatchingBrace(`x{"a":1}`, 0)
	assert.False(t, ok, "start must point at a brace")
}

func TestFindMatchingBracket(t *testing.T) {
	t.Parallel()

	end, ok := FindMatchingBracket(`[[1],[2]]`, 0)
	require.True(t, ok)
	assert.Equal(t, 8, end)

	_, ok = FindMatchingBracket(`[1,2`, 0)
	assert.False(t, ok)
}

func TestExtractJSON_RoundTripsValidJSON(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		obj := map[string]any{
			"name":  rapid.StringMatching(`[a-z "{}\[\]\\]{0,20}`).Draw(t, "name"),
			"count": rapid.IntRange(-1000, 1000).Draw(t, "count"),
			"tags":  rapid.SliceOfN(rapid.StringMatching(`[a-z{}"]{0,8}`), 0, 4).Draw(t, "tags"),
		}
		payload, err := json.Marshal(obj)
		if err != nil {
			t.Skip()
		}
		prefix := rapid.SampledFrom([]string{"", "Here is the result: ", "```json\n"}).Draw(t, "prefix")
		suffix := rapid.SampledFrom([]string{"", "\n```", " done."}).Draw(t, "suffix")

		got, err := ExtractJSON(prefix + string(payload) + suffix)
		if err != nil {
			t.Fatalf("extraction failed: %v", err)
		}
		var back map[string]any
		if err := json.Unmarshal([]byte(got), &back); err != nil {
			t.Fatalf("extracted %q is not valid JSON: %v", got, err)
		}
	})
}

func TestStructuredSystemPrompt(t *testing.T) {
	t.Parallel()

	p := StructuredSystemPrompt(`{"type":"object"}`)
	assert.Contains(t, p, `{"type":"object"}`)
	assert.Contains(t, p, "ONLY valid JSON")

	assert.Contains(t, StructuredSystemPrompt(""), "{}")
}

func TestPrepareStructuredPrompt(t *testing.T) {
	t.Parallel()

	// passthrough without schema injection
	assert.Equal(t, "hi", PrepareStructuredPrompt("hi", nil))
	assert.Equal(t, "hi", PrepareStructuredPrompt("hi", &StructuredConfig{Schema: "{}"}))

	wrapped := PrepareStructuredPrompt("list the planets", &StructuredConfig{
		Schema:                `{"type":"array"}`,
		IncludeSchemaInPrompt: true,
	})
	assert.Contains(t, wrapped, "list the planets")
	assert.Contains(t, wrapped, `{"type":"array"}`)
	assert.True(t, strings.Contains(wrapped, "CRITICAL INSTRUCTION"))
}

func TestValidateStructured(t *testing.T) {
	t.Parallel()

	got, ok := ValidateStructured(`noise {"a":1} noise`)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, got)

	_, ok = ValidateStructured("nothing structured")
	assert.False(t, ok)
}
