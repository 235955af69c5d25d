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

	"github.com/fjordsales/salesrecon/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	customer
	sale
	template
	unitOfWork
}

// customer defines the customer store the import engine creates and enriches.
type customer interface {
	GetCustomerByOrgNr(ctx context.Context, tenantID, orgNr string) (*model.Customer, error)   // Retrieves a business customer by normalized org nr
	GetPrivateCustomer(ctx context.Context, tenantID string) (*model.Customer, error)          // Retrieves the tenant's private-customer aggregate
	CreateCustomer(ctx context.Context, customer model.Customer) (model.Customer, error)       // Inserts a new customer
	UpdateCustomer(ctx context.Context, customer *model.Customer) error                        // Overwrites the contact fields of a customer
	GetCustomerByID(ctx context.Context, tenantID, customerID string) (*model.Customer, error) // Retrieves a customer by ID
}

// sale defines the sales store.
type sale interface {
	RecordSale(ctx context.Context, sale *model.SaleRecord) error                      // Inserts one sale record
	DeleteSales(ctx context.Context, filter model.SaleFilter) (int64, error)           // Removes the sales matching filter
	GetSales(ctx context.Context, filter model.SaleFilter) ([]model.SaleRecord, error) // Lists the sales matching filter
}

// template defines the mapping-template store.
type template interface {
	SaveTemplate(ctx context.Context, tpl model.MappingTemplate) (model.MappingTemplate, error) // Creates or replaces a template by name
	GetTemplates(ctx context.Context, tenantID string) ([]model.MappingTemplate, error)         // Lists a tenant's templates
	GetTemplate(ctx context.Context, tenantID, name string) (*model.MappingTemplate, error)     // Retrieves a template by name
	DeleteTemplate(ctx context.Context, tenantID, name string) error                           // Deletes a template by name
}

// unitOfWork groups statements into one transaction and isolates parts of it.
type unitOfWork interface {
	// RunInTx runs fn with a data source bound to a new transaction, committing
	// when fn returns nil and rolling back otherwise.
	RunInTx(ctx context.Context, fn func(tx IDataSource) error) error
	// Savepoint runs fn inside a savepoint of the current transaction. When fn
	// fails, only its statements are rolled back and the transaction stays usable.
	Savepoint(ctx context.Context, name string, fn func() error) error
}
