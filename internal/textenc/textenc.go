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

// Package textenc picks the text decoding for uploaded sales files. Point-of-sale
// systems in Norway export either UTF-8 or ISO-8859-1, and the file itself does
// not say which.
package textenc

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names reported in a Decision.
const (
	UTF8   = "utf-8"
	Latin1 = "iso-8859-1"
)

// norwegianLetters are the characters whose presence proves a Latin-1 reading is right.
const norwegianLetters = "ÆØÅæøå"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decision is the outcome of Normalize: the encoding that was chosen and the decoded text.
type Decision struct {
	Encoding string
	Text     string
}

// Normalize decodes raw as UTF-8 and falls back to ISO-8859-1 when the UTF-8
// reading is damaged and the Latin-1 reading yields Norwegian letters. It never
// fails; undecodable bytes become U+FFFD in the UTF-8 reading.
func Normalize(raw []byte) Decision {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	text := strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	if !looksDamaged(raw, text) {
		return Decision{Encoding: UTF8, Text: text}
	}

	latin1, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err == nil && strings.ContainsAny(string(latin1), norwegianLetters) {
		return Decision{Encoding: Latin1, Text: string(latin1)}
	}
	return Decision{Encoding: UTF8, Text: text}
}

// looksDamaged reports whether the UTF-8 reading shows mojibake: invalid byte
// sequences or replacement characters.
func looksDamaged(raw []byte, text string) bool {
	return !utf8.Valid(raw) || strings.ContainsRune(text, utf8.RuneError)
}
