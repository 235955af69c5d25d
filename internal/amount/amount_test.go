/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package amount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Norwegian with space and kr", input: "1 234,56 kr", expected: "1234.56"},
		{name: "Norwegian with period thousands", input: "1.234,56", expected: "1234.56"},
		{name: "Period decimal without comma", input: "1234.56", expected: "1234.56"},
		{name: "Non-breaking space thousands", input: "10\u00a0000", expected: "10000"},
		{name: "Narrow no-break space thousands", input: "2\u202f500,50", expected: "2500.5"},
		{name: "Plain integer", input: "500", expected: "500"},
		{name: "Spaced integer", input: "10 000", expected: "10000"},
		{name: "Negative", input: "-1 250,00 kr", expected: "-1250"},
		{name: "Currency prefix", input: "kr 99,90", expected: "99.9"},
		{name: "Uppercase currency", input: "450 KR", expected: "450"},
		{name: "Zero", input: "0", expected: "0"},
		{name: "Empty", input: "", expected: "0"},
		{name: "Whitespace only", input: "   ", expected: "0"},
		{name: "Letters only", input: "abc", expected: "0"},
		{name: "Lone minus", input: "-", expected: "0"},
		{name: "Two periods without comma", input: "1.234.567", expected: "0"},
		{name: "Second comma dropped", input: "1,234,5", expected: "1.2345"},
		{name: "Quoted field", input: "\"1 000\"", expected: "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "Parse(%q) = %s, want %s", tt.input, got, tt.expected)
		})
	}
}

func TestParseStrict(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		err      error
	}{
		{name: "Valid Norwegian amount", input: "1 234,56 kr", expected: "1234.56"},
		{name: "Valid period decimal", input: "1234.56", expected: "1234.56"},
		{name: "Empty", input: "", err: ErrEmpty},
		{name: "Only currency", input: " kr ", err: ErrEmpty},
		{name: "Letters", input: "abc", err: ErrUnparseable},
		{name: "Embedded minus", input: "12-34", err: ErrUnparseable},
		{name: "Two decimal points", input: "1.2.3", err: ErrUnparseable},
		{name: "Explicit zero", input: "0,00", expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStrict(tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.True(t, got.IsZero())
				return
			}
			assert.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "ParseStrict(%q) = %s, want %s", tt.input, got, tt.expected)
		})
	}
}

func TestParseNeverReturnsNonZeroForGarbage(t *testing.T) {
	for _, input := range []string{"n/a", "--", "kr", "., ,"} {
		assert.True(t, Parse(input).IsZero(), "input %q", input)
	}
}
