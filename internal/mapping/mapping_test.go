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

package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjordsales/salesrecon/model"
)

func TestGet(t *testing.T) {
	m := New(map[int]model.FieldKey{
		0: model.FieldOrgNr,
		1: model.FieldName,
		4: model.FieldEmail,
	})
	row := []string{" 987654321 ", "Acme AS", "10 000"}

	v, ok := m.Get(row, model.FieldOrgNr)
	assert.True(t, ok)
	assert.Equal(t, "987654321", v)

	v, ok = m.Get(row, model.FieldEmail)
	assert.True(t, ok, "mapped column beyond the row width is still mapped")
	assert.Equal(t, "", v)

	v, ok = m.Get(row, model.FieldTotalSales)
	assert.False(t, ok)
	assert.Equal(t, "", v)
}

func TestAssign_LastWriterWins(t *testing.T) {
	m := Mapping{}
	m.Assign(0, model.FieldName)
	m.Assign(2, model.FieldName)

	// the earlier owner keeps its assignment
	assert.Equal(t, model.FieldName, m[0])

	col, ok := m.ColumnFor(model.FieldName)
	require.True(t, ok)
	assert.Equal(t, 2, col)
	assert.Equal(t, "Kari", m.Value([]string{"Acme AS", "x", "Kari"}, model.FieldName))

	m.Assign(0, model.FieldOrgNr)
	assert.Equal(t, model.FieldOrgNr, m[0], "reassigning a column replaces its field")

	m.Assign(2, model.FieldNone)
	assert.False(t, m.Has(model.FieldName))
	assert.Equal(t, []int{0}, m.Columns())
}

func TestNew_DropsUnmapped(t *testing.T) {
	m := New(map[int]model.FieldKey{0: model.FieldName, 1: model.FieldNone})
	assert.Len(t, m, 1)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mapping Mapping
		wantErr error
	}{
		{"org nr only", Mapping{0: model.FieldOrgNr, 1: model.FieldTotalSales}, nil},
		{"name only", Mapping{3: model.FieldName}, nil},
		{"neither", Mapping{0: model.FieldTotalSales, 1: model.FieldEmail}, ErrMissingIdentity},
		{"empty", Mapping{}, ErrMissingIdentity},
		{"unknown field", Mapping{0: model.FieldName, 1: "shoe_size"}, ErrUnknownField},
		{"negative column", Mapping{-1: model.FieldName}, ErrInvalidColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mapping.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFromTemplate(t *testing.T) {
	saved := map[int]model.FieldKey{
		0: model.FieldOrgNr,
		1: model.FieldName,
		2: model.FieldAddress,
		3: model.FieldTotalSales,
		4: model.FieldTotalCost,
		5: model.FieldTotalProfit,
	}

	same := FromTemplate(saved, 6)
	assert.Equal(t, Mapping(saved), same)

	narrow := FromTemplate(saved, 4)
	assert.Equal(t, Mapping{
		0: model.FieldOrgNr,
		1: model.FieldName,
		2: model.FieldAddress,
		3: model.FieldTotalSales,
	}, narrow)

	wide := FromTemplate(map[int]model.FieldKey{1: model.FieldName}, 6)
	assert.Equal(t, []int{1}, wide.Columns(), "uncovered columns stay unmapped")
}

func TestSuggest(t *testing.T) {
	headers := []string{
		"Kundenr",
		"Firmanavn",
		"Org.nr",
		"Adresse",
		"Postnr",
		"Poststed",
		"Telefon",
		"E-post",
		"Kontaktperson",
		"Omsetning",
		"Varekost",
		"Fortjeneste",
		"Merknad",
	}

	got := Suggest(headers)
	assert.Equal(t, Mapping{
		0:  model.FieldCustomerNumber,
		1:  model.FieldName,
		2:  model.FieldOrgNr,
		3:  model.FieldAddress,
		4:  model.FieldPostalCode,
		5:  model.FieldCity,
		6:  model.FieldPhone,
		7:  model.FieldEmail,
		8:  model.FieldContactPerson,
		9:  model.FieldTotalSales,
		10: model.FieldTotalCost,
		11: model.FieldTotalProfit,
	}, got)
}

func TestSuggest_Variants(t *testing.T) {
	tests := []struct {
		header string
		want   model.FieldKey
	}{
		{"Bedriftsnavn", model.FieldName},
		{"Bedrift", model.FieldOrgNr},
		{"epost", model.FieldEmail},
		{"Email", model.FieldEmail},
		{"Tlf", model.FieldPhone},
		{"Phone", model.FieldPhone},
		{"Address", model.FieldAddress},
		{"Kontakt e-post", model.FieldContactEmail},
		{"Kontakt tlf", model.FieldContactPhone},
		{"Adrese", model.FieldAddress},
		{"Telfon", model.FieldPhone},
		{"Dekningsgrad", model.FieldMarginPercent},
		{"Antall ordre", model.FieldOrderCount},
		{"Kolonne 1", model.FieldNone},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got := Suggest([]string{tt.header})
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestSuggest_FieldSuggestedOnce(t *testing.T) {
	got := Suggest([]string{"Navn", "Kundenavn", "Org.nr"})
	assert.Equal(t, Mapping{0: model.FieldName, 2: model.FieldOrgNr}, got)
}
