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
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/wacul/ptr"

	"github.com/fjordsales/salesrecon/database"
	"github.com/fjordsales/salesrecon/internal/apierror"
	"github.com/fjordsales/salesrecon/internal/mapping"
	"github.com/fjordsales/salesrecon/internal/registry"
	"github.com/fjordsales/salesrecon/model"
)

// resolution is the customer a row belongs to and what resolving it changed.
type resolution struct {
	customer *model.Customer
	private  bool
	created  bool
	updated  bool
}

// customerResolver finds, creates or enriches the customer of each row of one
// import job. Customers seen earlier in the job are served from memory, so a
// new organization number appearing on several rows is created once.
type customerResolver struct {
	ds       database.IDataSource
	registry registry.Lookup
	tenantID string

	known   map[string]*model.Customer
	private *model.Customer
}

func newCustomerResolver(ds database.IDataSource, lookup registry.Lookup, tenantID string) *customerResolver {
	if lookup == nil {
		lookup = registry.Disabled{}
	}
	return &customerResolver{
		ds:       ds,
		registry: lookup,
		tenantID: tenantID,
		known:    make(map[string]*model.Customer),
	}
}

// resolve returns the customer of row. Nothing is remembered until remember is
// called, so a row that is rolled back leaves no trace in the job cache.
func (r *customerResolver) resolve(ctx context.Context, m mapping.Mapping, row []string) (*resolution, error) {
	orgNr := model.NormalizeOrgNr(m.Value(row, model.FieldOrgNr))
	if orgNr == "" {
		return r.resolvePrivate(ctx)
	}

	existing, err := r.lookupBusiness(ctx, orgNr)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return r.updateBusiness(ctx, existing, m, row)
	}
	return r.createBusiness(ctx, orgNr, m, row)
}

// remember records a resolution whose row was committed.
func (r *customerResolver) remember(res *resolution) {
	if res.private {
		r.private = res.customer
		return
	}
	r.known[res.customer.OrgNr] = res.customer
}

func (r *customerResolver) resolvePrivate(ctx context.Context) (*resolution, error) {
	if r.private != nil {
		return &resolution{customer: r.private, private: true}, nil
	}

	existing, err := r.ds.GetPrivateCustomer(ctx, r.tenantID)
	if err == nil {
		return &resolution{customer: existing, private: true}, nil
	}
	if !apierror.IsCode(err, apierror.ErrNotFound) {
		return nil, err
	}

	created, err := r.ds.CreateCustomer(ctx, model.Customer{
		TenantID: r.tenantID,
		Name:     model.PrivateCustomerName,
		Notes:    model.PrivateCustomerNotes,
	})
	if err != nil {
		return nil, err
	}
	return &resolution{customer: &created, private: true, created: true}, nil
}

func (r *customerResolver) lookupBusiness(ctx context.Context, orgNr string) (*model.Customer, error) {
	if c, ok := r.known[orgNr]; ok {
		copied := *c
		return &copied, nil
	}
	c, err := r.ds.GetCustomerByOrgNr(ctx, r.tenantID, orgNr)
	if err != nil {
		if apierror.IsCode(err, apierror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func patchFromRow(m mapping.Mapping, row []string) model.CustomerPatch {
	var p model.CustomerPatch
	set := func(field model.FieldKey) *string {
		if v := m.Value(row, field); v != "" {
			return ptr.String(v)
		}
		return nil
	}
	p.Name = set(model.FieldName)
	p.Address = set(model.FieldAddress)
	p.PostalCode = set(model.FieldPostalCode)
	p.City = set(model.FieldCity)
	p.Phone = set(model.FieldPhone)
	p.Email = set(model.FieldEmail)
	return p
}

func (r *customerResolver) updateBusiness(ctx context.Context, c *model.Customer, m mapping.Mapping, row []string) (*resolution, error) {
	patch := patchFromRow(m, row)
	if patch.IsEmpty() {
		return &resolution{customer: c}, nil
	}

	patch.Apply(c)
	if err := r.ds.UpdateCustomer(ctx, c); err != nil {
		return nil, err
	}
	return &resolution{customer: c, updated: true}, nil
}

func (r *customerResolver) createBusiness(ctx context.Context, orgNr string, m mapping.Mapping, row []string) (*resolution, error) {
	c := model.Customer{
		TenantID:       r.tenantID,
		OrgNr:          orgNr,
		CustomerNumber: m.Value(row, model.FieldCustomerNumber),
		Name:           m.Value(row, model.FieldName),
		Address:        m.Value(row, model.FieldAddress),
		PostalCode:     m.Value(row, model.FieldPostalCode),
		City:           m.Value(row, model.FieldCity),
		Phone:          m.Value(row, model.FieldPhone),
		Email:          m.Value(row, model.FieldEmail),
		ContactPerson:  m.Value(row, model.FieldContactPerson),
		ContactPhone:   m.Value(row, model.FieldContactPhone),
		ContactEmail:   m.Value(row, model.FieldContactEmail),
	}
	if c.Name == "" {
		c.Name = model.UnknownCustomerName
	}

	r.enrich(ctx, &c)

	created, err := r.ds.CreateCustomer(ctx, c)
	if err != nil {
		return nil, err
	}
	return &resolution{customer: &created, created: true}, nil
}

// enrich fills gaps in c from the business registry. A failed or empty lookup
// leaves c as the file described it.
func (r *customerResolver) enrich(ctx context.Context, c *model.Customer) {
	company, err := r.registry.Lookup(ctx, c.OrgNr)
	if err != nil {
		fields := logrus.Fields{"tenant_id": r.tenantID, "org_nr": c.OrgNr}
		if errors.Is(err, registry.ErrNotFound) {
			logrus.WithFields(fields).Debug("organization not in registry")
		} else {
			logrus.WithFields(fields).Debugf("registry lookup failed: %v", err)
		}
		return
	}

	if (c.Name == "" || c.Name == model.UnknownCustomerName) && company.Name != "" {
		c.Name = company.Name
	}
	if c.Address == "" {
		c.Address = company.Street()
	}
	if c.PostalCode == "" {
		c.PostalCode = company.PostalCode
	}
	if c.City == "" {
		c.City = company.City
	}
	c.Industry = company.Industry
	c.EmployeeCount = company.EmployeeCount

	meta := map[string]interface{}{}
	if company.Website != "" {
		meta["website"] = company.Website
	}
	if company.OrgForm != "" {
		meta["org_form"] = company.OrgForm
	}
	if len(meta) > 0 {
		c.MetaData = meta
	}
}
