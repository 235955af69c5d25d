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
	"encoding/json"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/fjordsales/salesrecon/internal/period"
	"github.com/fjordsales/salesrecon/model"
)

// ImportForm holds the non-file fields of a multipart import upload. The
// column mapping is given either inline as a JSON object of column index to
// field key, or by naming a saved template.
type ImportForm struct {
	Period       string `form:"period"`
	HasHeaderRow bool   `form:"has_header_row"`
	Mapping      string `form:"mapping"`
	Template     string `form:"template"`
}

// PreviewForm holds the non-file fields of a preview upload.
type PreviewForm struct {
	HasHeaderRow bool `form:"has_header_row"`
}

func mappingOrTemplateValidation(f *ImportForm) validation.RuleFunc {
	return func(value interface{}) error {
		hasMapping := strings.TrimSpace(f.Mapping) != ""
		hasTemplate := strings.TrimSpace(f.Template) != ""
		if hasMapping == hasTemplate {
			return errors.New("either mapping or template is required, not both")
		}
		return nil
	}
}

func periodValidation(value interface{}) error {
	selector, _ := value.(string)
	_, err := period.Parse(selector)
	return err
}

func mappingJSONValidation(value interface{}) error {
	raw, _ := value.(string)
	_, err := ParseMapping(raw)
	return err
}

func (f *ImportForm) ValidateImportForm() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Period, validation.Required, validation.By(periodValidation)),
		validation.Field(&f.Mapping,
			validation.By(mappingOrTemplateValidation(f)),
			validation.When(strings.TrimSpace(f.Mapping) != "", validation.By(mappingJSONValidation)),
		),
	)
}

// ParseMapping decodes a mapping given as a JSON object such as
// {"0":"org_nr","3":"total_sales"}.
func ParseMapping(raw string) (map[int]model.FieldKey, error) {
	var m map[int]model.FieldKey
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, errors.New("mapping must be a JSON object of column index to field key")
	}
	return m, nil
}

// ToImportRequest builds the job request for tenantID. Mapping is left empty
// when the form names a template.
func (f *ImportForm) ToImportRequest(tenantID, fileName string, content []byte) (model.ImportRequest, error) {
	req := model.ImportRequest{
		TenantID:     tenantID,
		FileName:     fileName,
		Content:      content,
		HasHeaderRow: f.HasHeaderRow,
		Period:       strings.TrimSpace(f.Period),
	}
	if strings.TrimSpace(f.Mapping) != "" {
		m, err := ParseMapping(f.Mapping)
		if err != nil {
			return model.ImportRequest{}, err
		}
		req.Mapping = m
	}
	return req, nil
}
