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

package salesrecon

import (
	"github.com/fjordsales/salesrecon/internal/apierror"
	"github.com/fjordsales/salesrecon/internal/mapping"
	"github.com/fjordsales/salesrecon/internal/tabular"
	"github.com/fjordsales/salesrecon/model"
)

// PreviewRows is how many data rows a preview shows.
const PreviewRows = 5

// Preview parses an upload without importing it, so the caller can choose the
// column mapping. A suggested mapping is only offered when the file has a header row.
func (s *SalesRecon) Preview(content []byte, fileName string, hasHeaderRow bool) (*model.Preview, error) {
	table, err := tabular.Load(content, fileName)
	if err != nil {
		return nil, invalidInput(err.Error(), err)
	}

	headers, rows := tabular.SplitHeader(table.Rows, hasHeaderRow)

	columns := len(headers)
	for _, row := range rows {
		if len(row) > columns {
			columns = len(row)
		}
	}

	preview := &model.Preview{
		Encoding:     table.Encoding,
		ColumnCount:  columns,
		Headers:      headers,
		Rows:         rows[:min(len(rows), PreviewRows)],
		RowCount:     len(rows),
		HasHeaderRow: hasHeaderRow,
	}
	if hasHeaderRow {
		preview.Suggested = mapping.Suggest(headers)
	}
	return preview, nil
}

// ValidateMapping reports whether m can drive an import.
func ValidateMapping(m map[int]model.FieldKey) error {
	if err := mapping.New(m).Validate(); err != nil {
		return apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), err)
	}
	return nil
}
