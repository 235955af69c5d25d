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

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fjordsales/salesrecon/database"
	"github.com/fjordsales/salesrecon/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

var _ database.IDataSource = (*MockDataSource)(nil)

// Customer methods

func (m *MockDataSource) GetCustomerByOrgNr(ctx context.Context, tenantID, orgNr string) (*model.Customer, error) {
	args := m.Called(ctx, tenantID, orgNr)
	customer, _ := args.Get(0).(*model.Customer)
	return customer, args.Error(1)
}

func (m *MockDataSource) GetPrivateCustomer(ctx context.Context, tenantID string) (*model.Customer, error) {
	args := m.Called(ctx, tenantID)
	customer, _ := args.Get(0).(*model.Customer)
	return customer, args.Error(1)
}

func (m *MockDataSource) CreateCustomer(ctx context.Context, customer model.Customer) (model.Customer, error) {
	args := m.Called(ctx, customer)
	return args.Get(0).(model.Customer), args.Error(1)
}

func (m *MockDataSource) UpdateCustomer(ctx context.Context, customer *model.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockDataSource) GetCustomerByID(ctx context.Context, tenantID, customerID string) (*model.Customer, error) {
	args := m.Called(ctx, tenantID, customerID)
	customer, _ := args.Get(0).(*model.Customer)
	return customer, args.Error(1)
}

// Sale methods

func (m *MockDataSource) RecordSale(ctx context.Context, sale *model.SaleRecord) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockDataSource) DeleteSales(ctx context.Context, filter model.SaleFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataSource) GetSales(ctx context.Context, filter model.SaleFilter) ([]model.SaleRecord, error) {
	args := m.Called(ctx, filter)
	sales, _ := args.Get(0).([]model.SaleRecord)
	return sales, args.Error(1)
}

// Template methods

func (m *MockDataSource) SaveTemplate(ctx context.Context, tpl model.MappingTemplate) (model.MappingTemplate, error) {
	args := m.Called(ctx, tpl)
	return args.Get(0).(model.MappingTemplate), args.Error(1)
}

func (m *MockDataSource) GetTemplates(ctx context.Context, tenantID string) ([]model.MappingTemplate, error) {
	args := m.Called(ctx, tenantID)
	templates, _ := args.Get(0).([]model.MappingTemplate)
	return templates, args.Error(1)
}

func (m *MockDataSource) GetTemplate(ctx context.Context, tenantID, name string) (*model.MappingTemplate, error) {
	args := m.Called(ctx, tenantID, name)
	tpl, _ := args.Get(0).(*model.MappingTemplate)
	return tpl, args.Error(1)
}

func (m *MockDataSource) DeleteTemplate(ctx context.Context, tenantID, name string) error {
	args := m.Called(ctx, tenantID, name)
	return args.Error(0)
}

// Unit of work methods. Both run fn against the mock itself unless the
// expectation returns an error, so statements issued inside are asserted as usual.

func (m *MockDataSource) RunInTx(ctx context.Context, fn func(tx database.IDataSource) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *MockDataSource) Savepoint(ctx context.Context, name string, fn func() error) error {
	args := m.Called(ctx, name)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn()
}
