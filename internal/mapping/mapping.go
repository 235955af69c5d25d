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

// Package mapping assigns file columns to the import's target fields and reads
// mapped values out of parsed rows.
package mapping

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fjordsales/salesrecon/internal/tabular"
	"github.com/fjordsales/salesrecon/model"
)

var (
	// ErrMissingIdentity is returned by Validate when neither org_nr nor name is mapped.
	ErrMissingIdentity = errors.New("mapping must assign a column to org_nr or name")
	ErrUnknownField    = errors.New("unknown field key")
	ErrInvalidColumn   = errors.New("column index must not be negative")
)

// Mapping maps a zero-based column index to the field it feeds. Indices that
// are absent are unmapped. Two indices may carry the same field; the highest
// index wins when values are read.
type Mapping map[int]model.FieldKey

// New copies m, dropping unmapped entries.
func New(m map[int]model.FieldKey) Mapping {
	out := make(Mapping, len(m))
	for idx, field := range m {
		out.Assign(idx, field)
	}
	return out
}

// Assign sets the field for a column. Assigning FieldNone unmaps the column.
// Other columns already carrying the same field keep it.
func (m Mapping) Assign(index int, field model.FieldKey) {
	if field == model.FieldNone {
		delete(m, index)
		return
	}
	m[index] = field
}

// ColumnFor returns the column that feeds field.
func (m Mapping) ColumnFor(field model.FieldKey) (int, bool) {
	found := -1
	for idx, f := range m {
		if f == field && idx > found {
			found = idx
		}
	}
	return found, found >= 0
}

// Has reports whether any column is mapped to field.
func (m Mapping) Has(field model.FieldKey) bool {
	_, ok := m.ColumnFor(field)
	return ok
}

// Get returns the trimmed value of field in row. ok is false when the field is
// not mapped; a mapped column beyond the row's width reads as "".
func (m Mapping) Get(row []string, field model.FieldKey) (value string, ok bool) {
	idx, ok := m.ColumnFor(field)
	if !ok {
		return "", false
	}
	return tabular.Field(row, idx), true
}

// Value is Get without the mapped flag.
func (m Mapping) Value(row []string, field model.FieldKey) string {
	v, _ := m.Get(row, field)
	return v
}

// Validate checks the mapping can drive an import: known field keys, non-negative
// indices and at least one identity column.
func (m Mapping) Validate() error {
	for _, idx := range m.Columns() {
		if idx < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidColumn, idx)
		}
		if field := m[idx]; !field.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}
	if !m.Has(model.FieldOrgNr) && !m.Has(model.FieldName) {
		return ErrMissingIdentity
	}
	return nil
}

// Columns returns the mapped column indices in ascending order.
func (m Mapping) Columns() []int {
	cols := make([]int, 0, len(m))
	for idx := range m {
		cols = append(cols, idx)
	}
	sort.Ints(cols)
	return cols
}

// FromTemplate applies a saved mapping to a file with columnCount columns.
// Saved indices at or beyond the new width are dropped; columns the template
// does not cover stay unmapped.
func FromTemplate(saved map[int]model.FieldKey, columnCount int) Mapping {
	out := make(Mapping, len(saved))
	for idx, field := range saved {
		if idx < 0 || idx >= columnCount {
			continue
		}
		out.Assign(idx, field)
	}
	return out
}
