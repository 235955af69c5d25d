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
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/fjordsales/salesrecon/model"
)

type CreateTemplate struct {
	Name        string                 `json:"name"`
	Mapping     map[int]model.FieldKey `json:"mapping"`
	ColumnCount int                    `json:"column_count"`
}

func (t *CreateTemplate) ValidateCreateTemplate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&t.Mapping, validation.Required),
		validation.Field(&t.ColumnCount, validation.Required, validation.Min(1)),
	)
}
