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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fjordsales/salesrecon/database/mocks"
	"github.com/fjordsales/salesrecon/internal/apierror"
	"github.com/fjordsales/salesrecon/internal/mapping"
	"github.com/fjordsales/salesrecon/internal/registry"
	"github.com/fjordsales/salesrecon/model"
)

var resolverMapping = mapping.New(map[int]model.FieldKey{
	0: model.FieldOrgNr,
	1: model.FieldName,
	2: model.FieldAddress,
	3: model.FieldEmail,
	4: model.FieldContactPerson,
})

func notFound() error {
	return apierror.NewAPIError(apierror.ErrNotFound, "not found", nil)
}

func TestResolve_OrgNrNormalization(t *testing.T) {
	for _, raw := range []string{"987 654 321", "987-654-321", "NO987654321MVA", " 987.654.321 "} {
		t.Run(raw, func(t *testing.T) {
			ds := new(mocks.MockDataSource)
			existing := &model.Customer{CustomerID: "cus_1", TenantID: tenant, OrgNr: "987654321", Name: "Acme AS"}
			ds.On("GetCustomerByOrgNr", mock.Anything, tenant, "987654321").Return(existing, nil)

			r := newCustomerResolver(ds, nil, tenant)
			res, err := r.resolve(context.Background(), resolverMapping, []string{raw})
			require.NoError(t, err)
			assert.Equal(t, "cus_1", res.customer.CustomerID)
			assert.False(t, res.updated, "a row without contact fields changes nothing")
			ds.AssertExpectations(t)
		})
	}
}

func TestResolve_UpdateOverwritesPresentFieldsOnly(t *testing.T) {
	ds := new(mocks.MockDataSource)
	existing := &model.Customer{
		CustomerID: "cus_1",
		TenantID:   tenant,
		OrgNr:      "987654321",
		Name:       "Acme AS",
		Address:    "Storgata 1",
		Email:      "old@acme.no",
	}
	ds.On("GetCustomerByOrgNr", mock.Anything, tenant, "987654321").Return(existing, nil)
	ds.On("UpdateCustomer", mock.Anything, mock.MatchedBy(func(c *model.Customer) bool {
		return c.Name == "Acme Holding AS" && c.Address == "Storgata 1" && c.Email == "ny@acme.no"
	})).Return(nil)

	r := newCustomerResolver(ds, nil, tenant)
	res, err := r.resolve(context.Background(), resolverMapping, []string{"987654321", "Acme Holding AS", "", "ny@acme.no", "Kari"})
	require.NoError(t, err)
	assert.True(t, res.updated)
	assert.False(t, res.created)
	ds.AssertExpectations(t)
}

func TestResolve_CreatesBusinessCustomerOnce(t *testing.T) {
	ds := new(mocks.MockDataSource)
	ds.On("GetCustomerByOrgNr", mock.Anything, tenant, "912345678").Return(nil, notFound()).Once()
	ds.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(c model.Customer) bool {
		return c.OrgNr == "912345678" && c.Name == "Nordic Handel AS" && c.ContactPerson == "Kari" &&
			c.Address == "Kaigata 5" && c.MetaData["org_form"] == "Aksjeselskap"
	})).Return(model.Customer{CustomerID: "cus_new", TenantID: tenant, OrgNr: "912345678", Name: "Nordic Handel AS"}, nil).Once()

	reg := nordicRegistry()
	r := newCustomerResolver(ds, reg, tenant)
	row := []string{"912 345 678", "", "", "", "Kari"}

	first, err := r.resolve(context.Background(), resolverMapping, row)
	require.NoError(t, err)
	assert.True(t, first.created)
	r.remember(first)

	second, err := r.resolve(context.Background(), resolverMapping, row)
	require.NoError(t, err)
	assert.False(t, second.created)
	assert.Equal(t, "cus_new", second.customer.CustomerID)
	assert.Equal(t, 1, reg.calls)
	ds.AssertExpectations(t)
}

func TestResolve_ForgottenUntilRemembered(t *testing.T) {
	ds := new(mocks.MockDataSource)
	ds.On("GetCustomerByOrgNr", mock.Anything, tenant, "912345678").Return(nil, notFound()).Twice()
	ds.On("CreateCustomer", mock.Anything, mock.Anything).
		Return(model.Customer{CustomerID: "cus_new", TenantID: tenant, OrgNr: "912345678"}, nil).Twice()

	r := newCustomerResolver(ds, registry.Disabled{}, tenant)
	row := []string{"912345678"}

	_, err := r.resolve(context.Background(), resolverMapping, row)
	require.NoError(t, err)
	// the first row was rolled back, so the customer must be looked up again
	_, err = r.resolve(context.Background(), resolverMapping, row)
	require.NoError(t, err)
	ds.AssertExpectations(t)
}

func TestResolve_PrivateCustomer(t *testing.T) {
	ds := new(mocks.MockDataSource)
	ds.On("GetPrivateCustomer", mock.Anything, tenant).Return(nil, notFound()).Once()
	ds.On("CreateCustomer", mock.Anything, model.Customer{
		TenantID: tenant,
		Name:     model.PrivateCustomerName,
		Notes:    model.PrivateCustomerNotes,
	}).Return(model.Customer{CustomerID: "cus_p", TenantID: tenant, Name: model.PrivateCustomerName}, nil).Once()

	r := newCustomerResolver(ds, nil, tenant)

	first, err := r.resolve(context.Background(), resolverMapping, []string{"", "Ola"})
	require.NoError(t, err)
	assert.True(t, first.private)
	assert.True(t, first.created)
	r.remember(first)

	for _, row := range [][]string{{"", "Kari"}, {"ingen", "Per"}, {}} {
		res, err := r.resolve(context.Background(), resolverMapping, row)
		require.NoError(t, err)
		assert.True(t, res.private)
		assert.False(t, res.created)
		assert.Equal(t, "cus_p", res.customer.CustomerID)
	}
	ds.AssertExpectations(t)
}

func TestResolve_StoreErrorPropagates(t *testing.T) {
	ds := new(mocks.MockDataSource)
	storeErr := apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve customer", nil)
	ds.On("GetCustomerByOrgNr", mock.Anything, tenant, "987654321").Return(nil, storeErr)

	r := newCustomerResolver(ds, nil, tenant)
	_, err := r.resolve(context.Background(), resolverMapping, []string{"987654321"})
	assert.True(t, apierror.IsCode(err, apierror.ErrInternalServer))
}

func TestEnrich_KeepsFileValues(t *testing.T) {
	r := newCustomerResolver(new(mocks.MockDataSource), nordicRegistry(), tenant)
	c := &model.Customer{OrgNr: "912345678", Name: "Nordic", Address: "Postboks 1", City: "OSLO"}

	r.enrich(context.Background(), c)
	assert.Equal(t, "Nordic", c.Name)
	assert.Equal(t, "Postboks 1", c.Address)
	assert.Equal(t, "5003", c.PostalCode)
	assert.Equal(t, "OSLO", c.City)
	assert.Equal(t, "14", c.EmployeeCount)
	assert.Equal(t, "nordichandel.no", c.MetaData["website"])
}
