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
	"context"
	"fmt"
	"strings"

	"github.com/fjordsales/salesrecon/internal/mapping"
	"github.com/fjordsales/salesrecon/model"
)

// SaveTemplate stores the mapping under name for the tenant, replacing a
// template of the same name. columnCount is the width of the file the mapping
// was made for.
func (s *SalesRecon) SaveTemplate(ctx context.Context, tenantID, name string, m map[int]model.FieldKey, columnCount int) (model.MappingTemplate, error) {
	name = strings.TrimSpace(name)
	if tenantID == "" {
		return model.MappingTemplate{}, invalidInput("tenant id is required", nil)
	}
	if name == "" {
		return model.MappingTemplate{}, invalidInput("template name is required", nil)
	}
	if columnCount <= 0 {
		return model.MappingTemplate{}, invalidInput("column count must be positive", nil)
	}

	cleaned := mapping.New(m)
	if err := cleaned.Validate(); err != nil {
		return model.MappingTemplate{}, invalidInput(err.Error(), err)
	}
	for _, col := range cleaned.Columns() {
		if col >= columnCount {
			return model.MappingTemplate{}, invalidInput(fmt.Sprintf("column %d is outside a file of %d columns", col, columnCount), nil)
		}
	}

	return s.datasource.SaveTemplate(ctx, model.MappingTemplate{
		TenantID:    tenantID,
		Name:        name,
		Mapping:     cleaned,
		ColumnCount: columnCount,
	})
}

// ListTemplates returns the tenant's templates ordered by name.
func (s *SalesRecon) ListTemplates(ctx context.Context, tenantID string) ([]model.MappingTemplate, error) {
	return s.datasource.GetTemplates(ctx, tenantID)
}

func (s *SalesRecon) GetTemplate(ctx context.Context, tenantID, name string) (*model.MappingTemplate, error) {
	return s.datasource.GetTemplate(ctx, tenantID, strings.TrimSpace(name))
}

func (s *SalesRecon) DeleteTemplate(ctx context.Context, tenantID, name string) error {
	return s.datasource.DeleteTemplate(ctx, tenantID, strings.TrimSpace(name))
}

// ApplyTemplate loads a template and fits it to a file of columnCount columns.
// Columns the file does not have are dropped and extra file columns stay unmapped.
func (s *SalesRecon) ApplyTemplate(ctx context.Context, tenantID, name string, columnCount int) (map[int]model.FieldKey, error) {
	tpl, err := s.GetTemplate(ctx, tenantID, name)
	if err != nil {
		return nil, err
	}
	return mapping.FromTemplate(tpl.Mapping, columnCount), nil
}
