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

// Package tabular turns an uploaded sales extract into rows of string fields.
package tabular

import (
	"fmt"
	"strings"
)

// Parse splits text into rows. Blank lines are dropped. Each line picks its own
// separator: ';' when the line contains one, ',' otherwise. A double quote
// toggles literal mode, in which the separator is ordinary text; the quotes
// themselves are not part of the field. Fields are trimmed. Rows may differ in width.
func Parse(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, splitLine(line))
	}
	return rows
}

func splitLine(line string) []string {
	separator := ','
	if strings.ContainsRune(line, ';') {
		separator = ';'
	}

	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == separator && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

// SplitHeader separates the header row from the data rows. Without a header
// every row is data and the labels are generated as "Kolonne 1", "Kolonne 2", ...
// for the width of the first row.
func SplitHeader(rows [][]string, hasHeader bool) (headers []string, data [][]string) {
	if len(rows) == 0 {
		return nil, nil
	}
	if hasHeader {
		return rows[0], rows[1:]
	}

	headers = make([]string, len(rows[0]))
	for i := range headers {
		headers[i] = fmt.Sprintf("Kolonne %d", i+1)
	}
	return headers, rows
}

// Field returns the trimmed field at index, or "" when the row is too short.
func Field(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
