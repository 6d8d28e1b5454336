package genai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"slogan":"a"}`, `{"slogan":"a"}`},
		{"surrounding whitespace", "\n  {\"slogan\":\"a\"}  \n", `{"slogan":"a"}`},
		{"fenced", "```json\n{\"slogan\":\"a\"}\n```", `{"slogan":"a"}`},
		{"bare fence", "```\n{\"slogan\":\"a\"}\n```", `{"slogan":"a"}`},
		{"fenced invalid", "```json\n{\"slogan\":\"a\",}\n```", ""},
		{"prose around", "Here you go: {\"slogan\":\"a\"} enjoy", ""},
		{"trailing comma", "{\"slogan\":\"a\",}", ""},
		{"empty", "   ", ""},
		{"no object", "sorry, I cannot help", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.input))
		})
	}
}

func TestExtractJSONLeavesStringContentsAlone(t *testing.T) {
	in := `{"slogan":"Quarks {up, }","extendedDescription":"Spin states [1, ]."}`
	assert.Equal(t, in, ExtractJSON(in))

	fenced := "```json\n" + in + "\n```"
	assert.Equal(t, in, ExtractJSON(fenced))
}
