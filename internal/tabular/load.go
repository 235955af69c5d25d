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

package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fjordsales/salesrecon/internal/textenc"
)

// MinRows is the smallest number of parsed rows an upload must contain.
const MinRows = 2

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrTooFewRows      = fmt.Errorf("file must contain at least %d rows", MinRows)
	ErrUnsupportedType = errors.New("unsupported file type")
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Table is a parsed upload.
type Table struct {
	Encoding string
	Rows     [][]string
}

// Load detects the file type, decodes and parses the upload. Delimited text
// goes through textenc and Parse; xlsx workbooks are read from their first sheet.
func Load(raw []byte, filename string) (Table, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Table{}, ErrEmptyFile
	}

	var table Table
	switch fileType := detectFileType(raw, filename); fileType {
	case xlsxMime:
		rows, err := ParseWorkbook(raw)
		if err != nil {
			return Table{}, err
		}
		table = Table{Encoding: "xlsx", Rows: rows}
	case "text/csv", "text/plain", "text/tab-separated-values":
		decision := textenc.Normalize(raw)
		table = Table{Encoding: decision.Encoding, Rows: Parse(decision.Text)}
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedType, fileType)
	}

	if len(table.Rows) < MinRows {
		return Table{}, ErrTooFewRows
	}
	return table, nil
}

// ParseWorkbook reads every non-empty row of the first worksheet.
func ParseWorkbook(raw []byte) ([][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer func() { _ = wb.Close() }()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	all, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %s: %w", sheets[0], err)
	}

	var rows [][]string
	for _, row := range all {
		empty := true
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
			if row[i] != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// detectFileType tries the extension first and falls back to sniffing the content.
func detectFileType(data []byte, filename string) string {
	if mimeType := detectByExtension(filename); mimeType != "" {
		return mimeType
	}
	return detectByContent(data)
}

func detectByExtension(filename string) string {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return "text/csv"
	case ".txt", ".tsv":
		return "text/plain"
	case ".xlsx":
		return xlsxMime
	case "":
		return ""
	default:
		mimeType, _, _ := mime.ParseMediaType(mime.TypeByExtension(ext))
		return mimeType
	}
}

func detectByContent(data []byte) string {
	mimeType, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	switch mimeType {
	case "application/zip":
		// xlsx workbooks are zip archives
		return xlsxMime
	case "application/octet-stream":
		// Latin-1 exports with high bytes are sniffed as binary
		if bytes.IndexByte(data, 0) < 0 {
			return "text/plain"
		}
	}
	return mimeType
}
