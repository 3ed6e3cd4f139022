package textutils_test

import (
	"regexp"
	"testing"

	"fjacquet/spend-intel/internal/textutils"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already clean", input: "uber ride", expected: "uber ride"},
		{name: "upper case", input: "Uber RIDE", expected: "uber ride"},
		{name: "digits and currency", input: "Pizza $12.50 dinner", expected: "pizza dinner"},
		{name: "punctuation splits words", input: "uber-ride/airport", expected: "uber ride airport"},
		{name: "collapse whitespace", input: "  taxi \t\n fare  ", expected: "taxi fare"},
		{name: "accented letters removed", input: "Café crème", expected: "caf cr me"},
		{name: "non-breaking space", input: "lunch pizza", expected: "lunch pizza"},
		{name: "empty", input: "", expected: ""},
		{name: "whitespace only", input: "   \t ", expected: ""},
		{name: "no letters at all", input: "12.50 € #42", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutils.Normalize(tt.input))
		})
	}
}

func TestNormalize_IdempotentAndAlphabet(t *testing.T) {
	valid := regexp.MustCompile(`^([a-z]+( [a-z]+)*)?$`)
	inputs := []string{
		"Uber ride to JFK!!",
		"  Weekly   groceries: milk, eggs & bread (x2) ",
		"Restaurant Zürich 45CHF",
		"ÀÉÎÕÜ",
		"\x00\x01 binary\xff junk",
		"İstanbul KELVIN K",
		"",
	}

	for _, in := range inputs {
		once := textutils.Normalize(in)
		assert.Equal(t, once, textutils.Normalize(once), "normalize must be idempotent for %q", in)
		assert.Regexp(t, valid, once, "unexpected characters for %q", in)
	}
}

func TestHasSignal(t *testing.T) {
	assert.True(t, textutils.HasSignal("taxi"))
	assert.False(t, textutils.HasSignal(""))
	assert.False(t, textutils.HasSignal(" 42 € "))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"taxi", "downtown"}, textutils.Tokens("taxi downtown"))
	assert.Empty(t, textutils.Tokens(""))
}
