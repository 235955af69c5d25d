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
	"strings"
	"time"
)

// PrivateCustomerName is the name of the single aggregate customer every tenant
// uses for sales to individuals without an organization number.
const PrivateCustomerName = "Privatkunder"

// PrivateCustomerNotes is stored on the aggregate customer when it is created.
const PrivateCustomerNotes = "Samlet kategori for alle privatkunder uten org.nr"

// UnknownCustomerName is used for new business customers whose row carries no name.
const UnknownCustomerName = "Ukjent"

type Customer struct {
	CustomerID     string                 `json:"customer_id"`
	TenantID       string                 `json:"tenant_id"`
	CustomerNumber string                 `json:"customer_number,omitempty"`
	Name           string                 `json:"name"`
	OrgNr          string                 `json:"org_nr,omitempty"`
	Address        string                 `json:"address,omitempty"`
	PostalCode     string                 `json:"postal_code,omitempty"`
	City           string                 `json:"city,omitempty"`
	Phone          string                 `json:"phone,omitempty"`
	Email          string                 `json:"email,omitempty"`
	ContactPerson  string                 `json:"contact_person,omitempty"`
	ContactPhone   string                 `json:"contact_phone,omitempty"`
	ContactEmail   string                 `json:"contact_email,omitempty"`
	Industry       string                 `json:"industry,omitempty"`
	EmployeeCount  string                 `json:"employee_count,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	MetaData       map[string]interface{} `json:"meta_data,omitempty"`
}

// IsPrivate reports whether the customer is the tenant's private-customer aggregate.
func (c *Customer) IsPrivate() bool {
	return c.OrgNr == "" && c.Name == PrivateCustomerName
}

// CustomerPatch carries the overwrite-if-present fields of an existing business customer.
// A nil field leaves the stored value untouched.
type CustomerPatch struct {
	Name       *string
	Address    *string
	PostalCode *string
	City       *string
	Phone      *string
	Email      *string
}

// IsEmpty reports whether the patch would change nothing.
func (p CustomerPatch) IsEmpty() bool {
	return p.Name == nil && p.Address == nil && p.PostalCode == nil &&
		p.City == nil && p.Phone == nil && p.Email == nil
}

// Apply writes every non-nil patch field onto the customer.
func (p CustomerPatch) Apply(c *Customer) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.PostalCode != nil {
		c.PostalCode = *p.PostalCode
	}
	if p.City != nil {
		c.City = *p.City
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
}

// NormalizeOrgNr strips every non-digit character from an organization number,
// so "NO 987 654 321 MVA" becomes "987654321".
func NormalizeOrgNr(orgNr string) string {
	var b strings.Builder
	for _, r := range orgNr {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
