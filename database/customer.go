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

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/fjordsales/salesrecon/internal/apierror"
	"github.com/fjordsales/salesrecon/model"
)

const customerColumns = `customer_id, tenant_id, customer_number, name, org_nr, address, postal_code, city,
	phone, email, contact_person, contact_phone, contact_email, industry, employee_count, notes, created_at, meta_data`

func scanCustomer(row interface{ Scan(...interface{}) error }) (*model.Customer, error) {
	c := &model.Customer{}
	var orgNr sql.NullString
	var metaDataJSON []byte
	err := row.Scan(
		&c.CustomerID, &c.TenantID, &c.CustomerNumber, &c.Name, &orgNr, &c.Address, &c.PostalCode, &c.City,
		&c.Phone, &c.Email, &c.ContactPerson, &c.ContactPhone, &c.ContactEmail, &c.Industry, &c.EmployeeCount,
		&c.Notes, &c.CreatedAt, &metaDataJSON,
	)
	if err != nil {
		return nil, err
	}
	c.OrgNr = orgNr.String
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &c.MetaData); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (d Datasource) getCustomer(ctx context.Context, notFound string, query string, args ...interface{}) (*model.Customer, error) {
	c, err := scanCustomer(d.db().QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, notFound, nil)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve customer", err)
	}
	return c, nil
}

// GetCustomerByOrgNr retrieves a tenant's business customer by its normalized organization number.
func (d Datasource) GetCustomerByOrgNr(ctx context.Context, tenantID, orgNr string) (*model.Customer, error) {
	ctx, span := otel.Tracer("Customer").Start(ctx, "Fetching customer by org nr from db")
	defer span.End()

	return d.getCustomer(ctx, fmt.Sprintf("Customer with org nr '%s' not found", orgNr), `
		SELECT `+customerColumns+`
		FROM salesrecon.customers
		WHERE tenant_id = $1 AND org_nr = $2
	`, tenantID, orgNr)
}

// GetPrivateCustomer retrieves the tenant's private-customer aggregate. Should
// more than one exist, the oldest is used so every import lands on the same one.
func (d Datasource) GetPrivateCustomer(ctx context.Context, tenantID string) (*model.Customer, error) {
	ctx, span := otel.Tracer("Customer").Start(ctx, "Fetching private customer from db")
	defer span.End()

	return d.getCustomer(ctx, "Private customer not found", `
		SELECT `+customerColumns+`
		FROM salesrecon.customers
		WHERE tenant_id = $1 AND name = $2 AND org_nr IS NULL
		ORDER BY created_at ASC
		LIMIT 1
	`, tenantID, model.PrivateCustomerName)
}

// GetCustomerByID retrieves a tenant's customer by ID.
func (d Datasource) GetCustomerByID(ctx context.Context, tenantID, customerID string) (*model.Customer, error) {
	ctx, span := otel.Tracer("Customer").Start(ctx, "Fetching customer by id from db")
	defer span.End()

	return d.getCustomer(ctx, fmt.Sprintf("Customer with ID '%s' not found", customerID), `
		SELECT `+customerColumns+`
		FROM salesrecon.customers
		WHERE tenant_id = $1 AND customer_id = $2
	`, tenantID, customerID)
}

// CreateCustomer inserts a new customer. An empty org nr is stored as NULL so
// that the unique (tenant_id, org_nr) index only applies to business customers.
func (d Datasource) CreateCustomer(ctx context.Context, customer model.Customer) (model.Customer, error) {
	ctx, span := otel.Tracer("Customer").Start(ctx, "Saving customer to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(customer.MetaData)
	if err != nil {
		return customer, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	customer.CustomerID = model.NewID("cus")
	customer.CreatedAt = time.Now()

	_, err = d.db().ExecContext(ctx, `
		INSERT INTO salesrecon.customers (customer_id, tenant_id, customer_number, name, org_nr, address, postal_code, city,
			phone, email, contact_person, contact_phone, contact_email, industry, employee_count, notes, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, customer.CustomerID, customer.TenantID, customer.CustomerNumber, customer.Name, nullIfEmpty(customer.OrgNr),
		customer.Address, customer.PostalCode, customer.City, customer.Phone, customer.Email, customer.ContactPerson,
		customer.ContactPhone, customer.ContactEmail, customer.Industry, customer.EmployeeCount, customer.Notes,
		customer.CreatedAt, metaDataJSON)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return customer, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Customer with org nr '%s' already exists", customer.OrgNr), err)
		}
		return customer, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create customer", err)
	}

	return customer, nil
}

// UpdateCustomer writes the overwrite-if-present fields of an existing customer.
func (d Datasource) UpdateCustomer(ctx context.Context, customer *model.Customer) error {
	ctx, span := otel.Tracer("Customer").Start(ctx, "Updating customer in db")
	defer span.End()

	result, err := d.db().ExecContext(ctx, `
		UPDATE salesrecon.customers
		SET name = $3, address = $4, postal_code = $5, city = $6, phone = $7, email = $8
		WHERE tenant_id = $1 AND customer_id = $2
	`, customer.TenantID, customer.CustomerID, customer.Name, customer.Address, customer.PostalCode,
		customer.City, customer.Phone, customer.Email)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update customer", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Customer with ID '%s' not found", customer.CustomerID), nil)
	}
	return nil
}
