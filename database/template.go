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

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/fjordsales/salesrecon/internal/apierror"
	"github.com/fjordsales/salesrecon/internal/cache"
	"github.com/fjordsales/salesrecon/model"
)

// templateCacheTTL is how long a tenant's template list stays cached. Saves and
// deletes invalidate it.
const templateCacheTTL = 10 * time.Minute

func templatesCacheKey(tenantID string) string {
	return fmt.Sprintf("templates:%s", tenantID)
}

func (d Datasource) invalidateTemplates(ctx context.Context, tenantID string) {
	if d.Cache == nil {
		return
	}
	if err := d.Cache.Delete(ctx, templatesCacheKey(tenantID)); err != nil {
		logrus.WithField("tenant_id", tenantID).Warnf("failed to invalidate template cache: %v", err)
	}
}

// SaveTemplate creates the template, or replaces the mapping and column count
// of the tenant's template with the same name.
func (d Datasource) SaveTemplate(ctx context.Context, tpl model.MappingTemplate) (model.MappingTemplate, error) {
	ctx, span := otel.Tracer("Template").Start(ctx, "Saving mapping template to db")
	defer span.End()

	mappingJSON, err := json.Marshal(tpl.Mapping)
	if err != nil {
		return tpl, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal mapping", err)
	}

	err = d.db().QueryRowContext(ctx, `
		INSERT INTO salesrecon.import_templates (template_id, tenant_id, name, mapping, column_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, name) DO UPDATE
		SET mapping = EXCLUDED.mapping, column_count = EXCLUDED.column_count
		RETURNING template_id, created_at
	`, model.NewID("tpl"), tpl.TenantID, tpl.Name, mappingJSON, tpl.ColumnCount, time.Now()).
		Scan(&tpl.TemplateID, &tpl.CreatedAt)
	if err != nil {
		return tpl, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to save template", err)
	}

	d.invalidateTemplates(ctx, tpl.TenantID)
	return tpl, nil
}

func scanTemplate(row interface{ Scan(...interface{}) error }) (model.MappingTemplate, error) {
	var (
		tpl         model.MappingTemplate
		mappingJSON []byte
	)
	if err := row.Scan(&tpl.TemplateID, &tpl.TenantID, &tpl.Name, &mappingJSON, &tpl.ColumnCount, &tpl.CreatedAt); err != nil {
		return tpl, err
	}
	if err := json.Unmarshal(mappingJSON, &tpl.Mapping); err != nil {
		return tpl, err
	}
	return tpl, nil
}

// GetTemplates lists the tenant's templates by name.
func (d Datasource) GetTemplates(ctx context.Context, tenantID string) ([]model.MappingTemplate, error) {
	ctx, span := otel.Tracer("Template").Start(ctx, "Fetching mapping templates from db")
	defer span.End()

	if d.Cache != nil {
		var cached []model.MappingTemplate
		if err := d.Cache.Get(ctx, templatesCacheKey(tenantID), &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			logrus.WithField("tenant_id", tenantID).Debugf("template cache read failed: %v", err)
		}
	}

	rows, err := d.db().QueryContext(ctx, `
		SELECT template_id, tenant_id, name, mapping, column_count, created_at
		FROM salesrecon.import_templates
		WHERE tenant_id = $1
		ORDER BY name ASC
	`, tenantID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve templates", err)
	}
	defer rows.Close()

	templates := []model.MappingTemplate{}
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan template data", err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over templates", err)
	}

	if d.Cache != nil {
		if err := d.Cache.Set(ctx, templatesCacheKey(tenantID), templates, templateCacheTTL); err != nil {
			logrus.WithField("tenant_id", tenantID).Debugf("template cache write failed: %v", err)
		}
	}
	return templates, nil
}

// GetTemplate retrieves one of the tenant's templates by name.
func (d Datasource) GetTemplate(ctx context.Context, tenantID, name string) (*model.MappingTemplate, error) {
	ctx, span := otel.Tracer("Template").Start(ctx, "Fetching mapping template from db")
	defer span.End()

	tpl, err := scanTemplate(d.db().QueryRowContext(ctx, `
		SELECT template_id, tenant_id, name, mapping, column_count, created_at
		FROM salesrecon.import_templates
		WHERE tenant_id = $1 AND name = $2
	`, tenantID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Template '%s' not found", name), nil)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve template", err)
	}
	return &tpl, nil
}

// DeleteTemplate removes one of the tenant's templates by name.
func (d Datasource) DeleteTemplate(ctx context.Context, tenantID, name string) error {
	ctx, span := otel.Tracer("Template").Start(ctx, "Deleting mapping template from db")
	defer span.End()

	result, err := d.db().ExecContext(ctx, `
		DELETE FROM salesrecon.import_templates WHERE tenant_id = $1 AND name = $2
	`, tenantID, name)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to delete template", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Template '%s' not found", name), nil)
	}

	d.invalidateTemplates(ctx, tenantID)
	return nil
}
