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
	"sort"

	"github.com/fjordsales/salesrecon/database"
	"github.com/fjordsales/salesrecon/internal/apierror"
	"github.com/fjordsales/salesrecon/model"
)

// memStore is an in-memory IDataSource. Transactions and savepoints restore a
// snapshot on failure, which is enough to observe what a rolled back row leaves behind.
type memStore struct {
	customers []model.Customer
	sales     []model.SaleRecord
	templates map[string]model.MappingTemplate

	failSale   func(sale *model.SaleRecord) error
	deleteErr  error
	txCommits  int
	savepoints int
}

var _ database.IDataSource = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{templates: map[string]model.MappingTemplate{}}
}

type memSnapshot struct {
	customers []model.Customer
	sales     []model.SaleRecord
}

func (m *memStore) snapshot() memSnapshot {
	return memSnapshot{
		customers: append([]model.Customer(nil), m.customers...),
		sales:     append([]model.SaleRecord(nil), m.sales...),
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.customers = s.customers
	m.sales = s.sales
}

func (m *memStore) RunInTx(_ context.Context, fn func(tx database.IDataSource) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	m.txCommits++
	return nil
}

func (m *memStore) Savepoint(_ context.Context, _ string, fn func() error) error {
	m.savepoints++
	snap := m.snapshot()
	if err := fn(); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) GetCustomerByOrgNr(_ context.Context, tenantID, orgNr string) (*model.Customer, error) {
	for _, c := range m.customers {
		if c.TenantID == tenantID && c.OrgNr == orgNr {
			found := c
			return &found, nil
		}
	}
	return nil, apierror.NewAPIError(apierror.ErrNotFound, "customer not found", nil)
}

func (m *memStore) GetPrivateCustomer(_ context.Context, tenantID string) (*model.Customer, error) {
	for _, c := range m.customers {
		if c.TenantID == tenantID && c.IsPrivate() {
			found := c
			return &found, nil
		}
	}
	return nil, apierror.NewAPIError(apierror.ErrNotFound, "private customer not found", nil)
}

func (m *memStore) CreateCustomer(_ context.Context, customer model.Customer) (model.Customer, error) {
	for _, c := range m.customers {
		if c.TenantID != customer.TenantID {
			continue
		}
		if customer.OrgNr != "" && c.OrgNr == customer.OrgNr {
			return customer, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Customer with org nr '%s' already exists", c.OrgNr), nil)
		}
		if customer.IsPrivate() && c.IsPrivate() {
			return customer, apierror.NewAPIError(apierror.ErrConflict, "private customer already exists", nil)
		}
	}
	customer.CustomerID = model.NewID("cus")
	m.customers = append(m.customers, customer)
	return customer, nil
}

func (m *memStore) UpdateCustomer(_ context.Context, customer *model.Customer) error {
	for i, c := range m.customers {
		if c.TenantID == customer.TenantID && c.CustomerID == customer.CustomerID {
			m.customers[i].Name = customer.Name
			m.customers[i].Address = customer.Address
			m.customers[i].PostalCode = customer.PostalCode
			m.customers[i].City = customer.City
			m.customers[i].Phone = customer.Phone
			m.customers[i].Email = customer.Email
			return nil
		}
	}
	return apierror.NewAPIError(apierror.ErrNotFound, "customer not found", nil)
}

func (m *memStore) GetCustomerByID(_ context.Context, tenantID, customerID string) (*model.Customer, error) {
	for _, c := range m.customers {
		if c.TenantID == tenantID && c.CustomerID == customerID {
			found := c
			return &found, nil
		}
	}
	return nil, apierror.NewAPIError(apierror.ErrNotFound, "customer not found", nil)
}

func (m *memStore) RecordSale(_ context.Context, sale *model.SaleRecord) error {
	if m.failSale != nil {
		if err := m.failSale(sale); err != nil {
			return err
		}
	}
	sale.SaleID = model.NewID("sal")
	if sale.Origin == "" {
		sale.Origin = model.OriginManual
	}
	m.sales = append(m.sales, *sale)
	return nil
}

func saleMatches(s model.SaleRecord, filter model.SaleFilter) bool {
	if s.TenantID != filter.TenantID {
		return false
	}
	if s.SaleDate.Before(filter.From) || s.SaleDate.After(filter.To) {
		return false
	}
	return filter.Origin == "" || s.Origin == filter.Origin
}

func (m *memStore) DeleteSales(_ context.Context, filter model.SaleFilter) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var kept []model.SaleRecord
	var removed int64
	for _, s := range m.sales {
		if saleMatches(s, filter) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	m.sales = kept
	return removed, nil
}

func (m *memStore) GetSales(_ context.Context, filter model.SaleFilter) ([]model.SaleRecord, error) {
	out := []model.SaleRecord{}
	for _, s := range m.sales {
		if saleMatches(s, filter) {
			out = append(out, s)
		}
	}
	return out, nil
}

func templateKey(tenantID, name string) string {
	return tenantID + "|" + name
}

func (m *memStore) SaveTemplate(_ context.Context, tpl model.MappingTemplate) (model.MappingTemplate, error) {
	if existing, ok := m.templates[templateKey(tpl.TenantID, tpl.Name)]; ok {
		tpl.TemplateID = existing.TemplateID
	} else {
		tpl.TemplateID = model.NewID("tpl")
	}
	m.templates[templateKey(tpl.TenantID, tpl.Name)] = tpl
	return tpl, nil
}

func (m *memStore) GetTemplates(_ context.Context, tenantID string) ([]model.MappingTemplate, error) {
	out := []model.MappingTemplate{}
	for _, tpl := range m.templates {
		if tpl.TenantID == tenantID {
			out = append(out, tpl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) GetTemplate(_ context.Context, tenantID, name string) (*model.MappingTemplate, error) {
	tpl, ok := m.templates[templateKey(tenantID, name)]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "template not found", nil)
	}
	return &tpl, nil
}

func (m *memStore) DeleteTemplate(_ context.Context, tenantID, name string) error {
	if _, ok := m.templates[templateKey(tenantID, name)]; !ok {
		return apierror.NewAPIError(apierror.ErrNotFound, "template not found", nil)
	}
	delete(m.templates, templateKey(tenantID, name))
	return nil
}

func (m *memStore) customersWithOrgNr(orgNr string) []model.Customer {
	var out []model.Customer
	for _, c := range m.customers {
		if c.OrgNr == orgNr {
			out = append(out, c)
		}
	}
	return out
}

func (m *memStore) privateCustomers() []model.Customer {
	var out []model.Customer
	for _, c := range m.customers {
		if c.IsPrivate() {
			out = append(out, c)
		}
	}
	return out
}
