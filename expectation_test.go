package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expectationFixture = `<?xml version="1.0" encoding="UTF-8"?>
<!--
  TEST
  Invoice without a seller VAT number.
  Should trigger the cross-border rules.

  warning: BR-CO-09
  error: BR-S-02
-->
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"/>`

func TestParseExpectation(t *testing.T) {
	e := ParseExpectation([]byte(expectationFixture))
	require.NotNil(t, e)

	assert.Equal(t, "Invoice without a seller VAT number. Should trigger the cross-border rules.", e.Description)
	assert.True(t, e.Anticipates("BR-CO-09"))
	assert.True(t, e.Anticipates("br-s-02"))
	assert.False(t, e.Anticipates("BR-S-03"))
}

func TestParseExpectationAbsent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no comment", `<Invoice xmlns="urn:x"/>`},
		{"unrelated comment", `<!-- generated by hand --><Invoice xmlns="urn:x"/>`},
		{"marker not first", "<!--\nsome note\nTEST\n-->\n<Invoice xmlns=\"urn:x\"/>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ParseExpectation([]byte(tt.content)))
		})
	}
}

func TestExpectationFilterFlag(t *testing.T) {
	e := ParseExpectation([]byte(expectationFixture))
	require.NotNil(t, e)

	tests := []struct {
		name      string
		assertion Assertion
		want      Flag
	}{
		{"anticipated warning", Assertion{Identifier: "BR-CO-09", Flag: FlagWarning}, FlagExpected},
		{"anticipated error", Assertion{Identifier: "BR-S-02", Flag: FlagError}, FlagExpected},
		{"milder than anticipated", Assertion{Identifier: "BR-S-02", Flag: FlagWarning}, FlagExpected},
		{"worse than anticipated", Assertion{Identifier: "BR-CO-09", Flag: FlagFatal}, FlagFatal},
		{"not anticipated", Assertion{Identifier: "BR-S-03", Flag: FlagError}, FlagError},
		{"ok passes through", Assertion{Identifier: "BR-CO-09", Flag: FlagOK}, FlagOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.FilterFlag(tt.assertion))
		})
	}
}

func TestExpectationVerify(t *testing.T) {
	e := ParseExpectation([]byte(expectationFixture))
	require.NotNil(t, e)

	// Only BR-CO-09 occurs; BR-S-02 stays unfulfilled.
	e.FilterFlag(Assertion{Identifier: "BR-CO-09", Flag: FlagWarning})

	section := NewSection("Validator", nil)
	e.Verify(section)

	require.Len(t, section.Assertions, 1)
	assert.Equal(t, "SYSTEM-009", section.Assertions[0].Identifier)
	assert.Contains(t, section.Assertions[0].Text, "BR-S-02")
	assert.Equal(t, FlagError, section.Flag)
}

func TestExpectationVerifyAllFulfilled(t *testing.T) {
	e := ParseExpectation([]byte(expectationFixture))
	require.NotNil(t, e)

	e.FilterFlag(Assertion{Identifier: "BR-CO-09", Flag: FlagWarning})
	e.FilterFlag(Assertion{Identifier: "BR-S-02", Flag: FlagError})

	section := NewSection("Validator", nil)
	e.Verify(section)
	assert.True(t, section.Empty())
}
