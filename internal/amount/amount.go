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

// Package amount converts monetary strings from Norwegian point-of-sale exports
// ("1 234,56 kr", "1.234,56", "1234.56") into decimals.
package amount

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmpty is returned by ParseStrict when the field holds nothing but whitespace or a currency suffix.
	ErrEmpty = errors.New("amount is empty")
	// ErrUnparseable is returned by ParseStrict when the field is not a number.
	ErrUnparseable = errors.New("amount is not a number")
)

// Parse normalizes s and returns its value. Absent and unparseable input both
// yield exactly zero; callers that must tell them apart use ParseStrict.
func Parse(s string) decimal.Decimal {
	d, err := parse(s, false)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseStrict is Parse without the silent zero fallback. It also rejects input
// carrying letters or symbols other than the "kr" suffix.
func ParseStrict(s string) (decimal.Decimal, error) {
	return parse(s, true)
}

func parse(s string, strict bool) (decimal.Decimal, error) {
	cleaned := normalize(s)
	if cleaned == "" {
		return decimal.Zero, ErrEmpty
	}

	var b strings.Builder
	for i, r := range cleaned {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		default:
			if strict {
				return decimal.Zero, ErrUnparseable
			}
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, ErrUnparseable
	}
	return d, nil
}

// normalize removes whitespace (including the non-breaking space used as a
// thousands separator) and "kr", then rewrites a decimal comma to a point.
// Periods are only treated as thousands separators when a comma is present.
func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, "kr", "")
	s = strings.ReplaceAll(s, "Kr", "")
	s = strings.ReplaceAll(s, "KR", "")

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}
