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
	"time"

	"github.com/shopspring/decimal"
)

// Sale origins. Records created through the CRUD surface of the wider system carry
// OriginManual; the import engine always writes OriginImport.
const (
	OriginManual = "manual"
	OriginImport = "import"
)

type SaleRecord struct {
	SaleID      string                 `json:"sale_id"`
	TenantID    string                 `json:"tenant_id"`
	CustomerID  string                 `json:"customer_id"`
	Amount      decimal.Decimal        `json:"amount"`
	Profit      decimal.Decimal        `json:"profit"`
	SaleDate    time.Time              `json:"sale_date"`
	Description string                 `json:"description"`
	ImportRef   string                 `json:"import_ref,omitempty"`
	Origin      string                 `json:"origin"`
	CreatedAt   time.Time              `json:"created_at"`
	MetaData    map[string]interface{} `json:"meta_data,omitempty"`
}

// SaleFilter selects a tenant's sales dated within [From, To], both inclusive.
// An empty Origin matches every origin.
type SaleFilter struct {
	TenantID string
	From     time.Time
	To       time.Time
	Origin   string
}
