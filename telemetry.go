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
	"github.com/posthog/posthog-go"
	"github.com/sirupsen/logrus"

	"github.com/fjordsales/salesrecon/model"
)

// trackImport reports a finished import as a product event. Only counts are
// sent, never file contents or customer data.
func (s *SalesRecon) trackImport(tenantID string, result *model.ImportResult) {
	if s.telemetry == nil {
		return
	}
	err := s.telemetry.Enqueue(posthog.Capture{
		DistinctId: tenantID,
		Event:      EventImportCompleted,
		Properties: posthog.NewProperties().
			Set("period", result.Period).
			Set("rows_total", result.RowsTotal).
			Set("sales_created", result.SalesCreated).
			Set("sales_deleted", result.SalesDeleted).
			Set("customers_created", result.CustomersCreated).
			Set("customers_updated", result.CustomersUpdated).
			Set("skipped_zero_sales", result.SkippedZeroSales).
			Set("row_errors", len(result.Errors)),
	})
	if err != nil {
		logrus.Debugf("failed to send import event: %v", err)
	}
}
