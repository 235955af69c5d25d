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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjordsales/salesrecon/model"
)

func TestValidateImportForm(t *testing.T) {
	tests := []struct {
		name    string
		form    ImportForm
		wantErr bool
	}{
		{"inline mapping", ImportForm{Period: "2025-01", Mapping: `{"0":"org_nr"}`}, false},
		{"template", ImportForm{Period: "2025-W05", Template: "standard"}, false},
		{"missing period", ImportForm{Mapping: `{"0":"org_nr"}`}, true},
		{"bad period", ImportForm{Period: "januar", Mapping: `{"0":"org_nr"}`}, true},
		{"neither", ImportForm{Period: "2025-01"}, true},
		{"both", ImportForm{Period: "2025-01", Mapping: `{"0":"org_nr"}`, Template: "standard"}, true},
		{"bad json", ImportForm{Period: "2025-01", Mapping: `{"a":"org_nr"}`}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.ValidateImportForm()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestToImportRequest(t *testing.T) {
	form := ImportForm{
		Period:       " 2025-02 ",
		HasHeaderRow: true,
		Mapping:      `{"0":"org_nr","3":"total_sales"}`,
	}

	req, err := form.ToImportRequest("tenant-a", "feb.csv", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", req.TenantID)
	assert.Equal(t, "2025-02", req.Period)
	assert.True(t, req.HasHeaderRow)
	assert.Equal(t, map[int]model.FieldKey{0: model.FieldOrgNr, 3: model.FieldTotalSales}, req.Mapping)

	form.Mapping = ""
	form.Template = "standard"
	req, err = form.ToImportRequest("tenant-a", "feb.csv", []byte("x"))
	require.NoError(t, err)
	assert.Nil(t, req.Mapping)
}

func TestValidateCreateTemplate(t *testing.T) {
	valid := CreateTemplate{Name: "standard", Mapping: map[int]model.FieldKey{0: model.FieldName}, ColumnCount: 3}
	assert.NoError(t, valid.ValidateCreateTemplate())

	noName := valid
	noName.Name = ""
	assert.Error(t, noName.ValidateCreateTemplate())

	noColumns := valid
	noColumns.ColumnCount = 0
	assert.Error(t, noColumns.ValidateCreateTemplate())
}
