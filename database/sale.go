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
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fjordsales/salesrecon/internal/apierror"
	"github.com/fjordsales/salesrecon/model"
)

const dateLayout = "2006-01-02"

// RecordSale inserts one sale record. sale_date is a DATE column, so only the
// calendar day of SaleDate is stored.
func (d Datasource) RecordSale(ctx context.Context, sale *model.SaleRecord) error {
	ctx, span := otel.Tracer("Sale").Start(ctx, "Saving sale to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(sale.MetaData)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	sale.SaleID = model.NewID("sal")
	sale.CreatedAt = time.Now()
	if sale.Origin == "" {
		sale.Origin = model.OriginManual
	}

	_, err = d.db().ExecContext(ctx, `
		INSERT INTO salesrecon.sales (sale_id, tenant_id, customer_id, amount, profit, sale_date, description, import_ref, origin, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, sale.SaleID, sale.TenantID, sale.CustomerID, sale.Amount.String(), sale.Profit.String(),
		sale.SaleDate.Format(dateLayout), sale.Description, nullIfEmpty(sale.ImportRef), sale.Origin,
		sale.CreatedAt, metaDataJSON)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record sale", err)
	}
	return nil
}

func saleWhere(filter model.SaleFilter) (string, []interface{}) {
	clauses := []string{"tenant_id = $1", "sale_date >= $2", "sale_date <= $3"}
	args := []interface{}{filter.TenantID, filter.From.Format(dateLayout), filter.To.Format(dateLayout)}
	if filter.Origin != "" {
		args = append(args, filter.Origin)
		clauses = append(clauses, fmt.Sprintf("origin = $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

// DeleteSales removes the tenant's sales dated inside the filter's interval and
// returns how many were removed.
func (d Datasource) DeleteSales(ctx context.Context, filter model.SaleFilter) (int64, error) {
	ctx, span := otel.Tracer("Sale").Start(ctx, "Deleting sales in period from db")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant_id", filter.TenantID),
		attribute.String("from", filter.From.Format(dateLayout)),
		attribute.String("to", filter.To.Format(dateLayout)),
		attribute.String("origin", filter.Origin),
	)

	where, args := saleWhere(filter)
	result, err := d.db().ExecContext(ctx, `DELETE FROM salesrecon.sales WHERE `+where, args...)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to delete sales", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	return removed, nil
}

// GetSales lists the tenant's sales dated inside the filter's interval, oldest first.
func (d Datasource) GetSales(ctx context.Context, filter model.SaleFilter) ([]model.SaleRecord, error) {
	ctx, span := otel.Tracer("Sale").Start(ctx, "Fetching sales in period from db")
	defer span.End()

	where, args := saleWhere(filter)
	rows, err := d.db().QueryContext(ctx, `
		SELECT sale_id, tenant_id, customer_id, amount, profit, sale_date, description, import_ref, origin, created_at, meta_data
		FROM salesrecon.sales
		WHERE `+where+`
		ORDER BY sale_date ASC, created_at ASC
	`, args...)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve sales", err)
	}
	defer rows.Close()

	sales := []model.SaleRecord{}
	for rows.Next() {
		var (
			s            model.SaleRecord
			importRef    sql.NullString
			metaDataJSON []byte
		)
		err = rows.Scan(&s.SaleID, &s.TenantID, &s.CustomerID, &s.Amount, &s.Profit, &s.SaleDate,
			&s.Description, &importRef, &s.Origin, &s.CreatedAt, &metaDataJSON)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan sale data", err)
		}
		s.ImportRef = importRef.String
		if len(metaDataJSON) > 0 {
			if err := json.Unmarshal(metaDataJSON, &s.MetaData); err != nil {
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
			}
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over sales", err)
	}
	return sales, nil
}
