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
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FieldKey names a target field a file column can be mapped to.
type FieldKey string

const (
	FieldNone           FieldKey = ""
	FieldCustomerNumber FieldKey = "customer_number"
	FieldName           FieldKey = "name"
	FieldOrgNr          FieldKey = "org_nr"
	FieldAddress        FieldKey = "address"
	FieldPostalCode     FieldKey = "postal_code"
	FieldCity           FieldKey = "city"
	FieldPhone          FieldKey = "phone"
	FieldEmail          FieldKey = "email"
	FieldContactPerson  FieldKey = "contact_person"
	FieldContactPhone   FieldKey = "contact_phone"
	FieldContactEmail   FieldKey = "contact_email"
	FieldTotalSales     FieldKey = "total_sales"
	FieldTotalCost      FieldKey = "total_cost"
	FieldTotalProfit    FieldKey = "total_profit"
	FieldMarginPercent  FieldKey = "margin_percent"
	FieldOrderCount     FieldKey = "order_count"
)

// FieldKeys lists every mappable field in display order.
var FieldKeys = []FieldKey{
	FieldCustomerNumber,
	FieldName,
	FieldOrgNr,
	FieldAddress,
	FieldPostalCode,
	FieldCity,
	FieldPhone,
	FieldEmail,
	FieldContactPerson,
	FieldContactPhone,
	FieldContactEmail,
	FieldTotalSales,
	FieldTotalCost,
	FieldTotalProfit,
	FieldMarginPercent,
	FieldOrderCount,
}

// Valid reports whether k is one of the known field keys. FieldNone is valid and means "unmapped".
func (k FieldKey) Valid() bool {
	if k == FieldNone {
		return true
	}
	for _, f := range FieldKeys {
		if f == k {
			return true
		}
	}
	return false
}

type MappingTemplate struct {
	TemplateID  string           `json:"template_id"`
	TenantID    string           `json:"tenant_id"`
	Name        string           `json:"name"`
	Mapping     map[int]FieldKey `json:"mapping"`
	ColumnCount int              `json:"column_count"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ImportRequest is everything a caller submits to run one import job.
type ImportRequest struct {
	TenantID     string           `json:"tenant_id"`
	FileName     string           `json:"file_name"`
	Content      []byte           `json:"content"`
	HasHeaderRow bool             `json:"has_header_row"`
	Mapping      map[int]FieldKey `json:"mapping"`
	Period       string           `json:"period"`
}

// ImportJob is the parsed, validated form of an ImportRequest. It lives for one run only.
type ImportJob struct {
	TenantID string
	Period   string
	// FirstRowNumber is the 1-based file line of Rows[0]; 2 when a header row was consumed.
	FirstRowNumber int
	Rows           [][]string
}

type ImportResult struct {
	Period              string          `json:"period"`
	ImportRef           string          `json:"import_ref"`
	RowsTotal           int             `json:"rows_total"`
	CustomersCreated    int             `json:"customers_created"`
	CustomersUpdated    int             `json:"customers_updated"`
	SalesCreated        int             `json:"sales_created"`
	SalesDeleted        int64           `json:"sales_deleted"`
	SkippedZeroSales    int             `json:"skipped_zero_sales"`
	TotalAmountImported decimal.Decimal `json:"total_amount_imported"`
	TotalProfitImported decimal.Decimal `json:"total_profit_imported"`
	Errors              []string        `json:"errors"`
}

// NewImportResult returns an empty result for the given period.
func NewImportResult(period, importRef string, rows int) *ImportResult {
	return &ImportResult{
		Period:              period,
		ImportRef:           importRef,
		RowsTotal:           rows,
		TotalAmountImported: decimal.Zero,
		TotalProfitImported: decimal.Zero,
		Errors:              []string{},
	}
}

// AddSale accounts one inserted sale record.
func (r *ImportResult) AddSale(amount, profit decimal.Decimal) {
	r.SalesCreated++
	r.TotalAmountImported = r.TotalAmountImported.Add(amount)
	r.TotalProfitImported = r.TotalProfitImported.Add(profit)
}

// AddRowError records a failed row. rowNumber is the 1-based line in the file.
func (r *ImportResult) AddRowError(rowNumber int, err error) {
	r.Errors = append(r.Errors, rowErrorMessage(rowNumber, err))
}

// Preview is returned before an import so the caller can configure the mapping.
type Preview struct {
	Encoding     string           `json:"encoding"`
	ColumnCount  int              `json:"column_count"`
	Headers      []string         `json:"headers"`
	Rows         [][]string       `json:"rows"`
	RowCount     int              `json:"row_count"`
	Suggested    map[int]FieldKey `json:"suggested_mapping,omitempty"`
	HasHeaderRow bool             `json:"has_header_row"`
}

func rowErrorMessage(rowNumber int, err error) string {
	return fmt.Sprintf("Rad %d: %v", rowNumber, err)
}
