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

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fjordsales/salesrecon/config"
	"github.com/fjordsales/salesrecon/database"
	"github.com/fjordsales/salesrecon/internal/amount"
	"github.com/fjordsales/salesrecon/internal/apierror"
	redlock "github.com/fjordsales/salesrecon/internal/lock"
	"github.com/fjordsales/salesrecon/internal/mapping"
	"github.com/fjordsales/salesrecon/internal/period"
	"github.com/fjordsales/salesrecon/internal/tabular"
	"github.com/fjordsales/salesrecon/model"
)

// preparedJob is an import request that passed every pre-flight check.
type preparedJob struct {
	model.ImportJob
	mapping  mapping.Mapping
	period   period.Period
	encoding string
}

func invalidInput(message string, err error) error {
	return apierror.NewAPIError(apierror.ErrInvalidInput, message, err)
}

// PrepareJob validates req and parses its file. Every failure is an
// ErrInvalidInput error and nothing has been written.
func (s *SalesRecon) PrepareJob(req model.ImportRequest) (*preparedJob, error) {
	if req.TenantID == "" {
		return nil, invalidInput("tenant id is required", nil)
	}
	if limit := s.config.Import.MaxUploadBytes; limit > 0 && int64(len(req.Content)) > limit {
		return nil, invalidInput(fmt.Sprintf("file exceeds the upload limit of %d bytes", limit), nil)
	}

	p, err := period.Parse(req.Period)
	if err != nil {
		return nil, invalidInput(err.Error(), err)
	}

	m := mapping.New(req.Mapping)
	if err := m.Validate(); err != nil {
		return nil, invalidInput(err.Error(), err)
	}

	table, err := tabular.Load(req.Content, req.FileName)
	if err != nil {
		return nil, invalidInput(err.Error(), err)
	}

	_, rows := tabular.SplitHeader(table.Rows, req.HasHeaderRow)
	firstRow := 1
	if req.HasHeaderRow {
		firstRow = 2
	}

	return &preparedJob{
		ImportJob: model.ImportJob{
			TenantID:       req.TenantID,
			Period:         p.Label,
			FirstRowNumber: firstRow,
			Rows:           rows,
		},
		mapping:  m,
		period:   p,
		encoding: table.Encoding,
	}, nil
}

// RunImport replaces the tenant's imported sales for the request's period with
// the rows of its file. Pre-flight failures return an error and touch nothing.
// Once rows are processed, a failing row is rolled back on its own and reported
// in the result, and the rest of the file is still imported.
func (s *SalesRecon) RunImport(ctx context.Context, req model.ImportRequest) (*model.ImportResult, error) {
	ctx, span := tracer.Start(ctx, "RunImport")
	defer span.End()

	job, err := s.PrepareJob(req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("tenant_id", job.TenantID),
		attribute.String("period", job.Period),
		attribute.Int("rows", len(job.Rows)),
	)

	release, err := s.acquireImportLock(ctx, job.TenantID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer release()

	logrus.WithFields(logrus.Fields{
		"tenant_id": job.TenantID,
		"period":    job.Period,
		"rows":      len(job.Rows),
		"encoding":  job.encoding,
	}).Info("starting sales import")

	result, err := s.runJob(ctx, job)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"tenant_id":         job.TenantID,
		"period":            job.Period,
		"sales_created":     result.SalesCreated,
		"sales_deleted":     result.SalesDeleted,
		"customers_created": result.CustomersCreated,
		"customers_updated": result.CustomersUpdated,
		"skipped":           result.SkippedZeroSales,
		"errors":            len(result.Errors),
	}).Info("sales import finished")

	s.afterImport(ctx, job.TenantID, result)
	return result, nil
}

func (s *SalesRecon) runJob(ctx context.Context, job *preparedJob) (*model.ImportResult, error) {
	result := model.NewImportResult(job.period.Label, job.period.ImportRef, len(job.Rows))

	err := s.datasource.RunInTx(ctx, func(tx database.IDataSource) error {
		deleted, err := tx.DeleteSales(ctx, s.deleteFilter(job.TenantID, job.period))
		if err != nil {
			return errors.Wrap(err, "failed to remove existing sales for period")
		}
		result.SalesDeleted = deleted

		resolver := newCustomerResolver(tx, s.registry, job.TenantID)
		for i, row := range job.Rows {
			rowNumber := job.FirstRowNumber + i

			var outcome *rowOutcome
			err := tx.Savepoint(ctx, fmt.Sprintf("import_row_%d", rowNumber), func() error {
				var rowErr error
				outcome, rowErr = s.importRow(ctx, tx, resolver, job, row)
				return rowErr
			})
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"tenant_id": job.TenantID,
					"row":       rowNumber,
				}).Warnf("import row failed: %v", err)
				result.AddRowError(rowNumber, rowErrorCause(err))
				continue
			}

			resolver.remember(outcome.resolution)
			outcome.record(result)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "import of period %s failed", job.Period)
	}
	return result, nil
}

// deleteFilter selects the sales a re-import replaces, following import.delete_scope.
func (s *SalesRecon) deleteFilter(tenantID string, p period.Period) model.SaleFilter {
	filter := model.SaleFilter{TenantID: tenantID, From: p.Start, To: p.End}
	if s.config.Import.DeleteScope != config.DeleteScopePeriod {
		filter.Origin = model.OriginImport
	}
	return filter
}

// rowOutcome is what one committed row contributed to the result.
type rowOutcome struct {
	resolution *resolution
	sale       *model.SaleRecord
}

func (o *rowOutcome) record(result *model.ImportResult) {
	if o.resolution.created {
		result.CustomersCreated++
	}
	if o.resolution.updated {
		result.CustomersUpdated++
	}
	if o.sale == nil {
		result.SkippedZeroSales++
		return
	}
	result.AddSale(o.sale.Amount, o.sale.Profit)
}

func (s *SalesRecon) importRow(ctx context.Context, tx database.IDataSource, resolver *customerResolver, job *preparedJob, row []string) (*rowOutcome, error) {
	res, err := resolver.resolve(ctx, job.mapping, row)
	if err != nil {
		return nil, err
	}
	outcome := &rowOutcome{resolution: res}

	sales, profit := rowAmounts(job.mapping, row)
	if sales.IsZero() {
		return outcome, nil
	}

	sale := &model.SaleRecord{
		TenantID:    job.TenantID,
		CustomerID:  res.customer.CustomerID,
		Amount:      sales,
		Profit:      profit,
		SaleDate:    job.period.SaleDate,
		Description: job.period.Description(),
		ImportRef:   job.period.ImportRef,
		Origin:      model.OriginImport,
		MetaData:    saleMetaData(job.mapping, row),
	}
	if res.private {
		sale.Description = privateSaleDescription(job.mapping.Value(row, model.FieldName))
		sale.ImportRef = ""
	}

	if err := tx.RecordSale(ctx, sale); err != nil {
		return nil, err
	}
	outcome.sale = sale
	return outcome, nil
}

// rowAmounts parses the sales and profit of a row. Profit is the mapped
// profit column when there is one and sales minus cost otherwise.
func rowAmounts(m mapping.Mapping, row []string) (sales, profit decimal.Decimal) {
	rawSales := m.Value(row, model.FieldTotalSales)
	sales = amount.Parse(rawSales)
	if _, err := amount.ParseStrict(rawSales); errors.Is(err, amount.ErrUnparseable) {
		logrus.Debugf("sales amount %q is not a number, treated as 0", rawSales)
	}

	if rawProfit, ok := m.Get(row, model.FieldTotalProfit); ok {
		return sales, amount.Parse(rawProfit)
	}
	return sales, sales.Sub(amount.Parse(m.Value(row, model.FieldTotalCost)))
}

func saleMetaData(m mapping.Mapping, row []string) map[string]interface{} {
	meta := map[string]interface{}{}
	if v := m.Value(row, model.FieldMarginPercent); v != "" {
		meta["margin_percent"] = v
	}
	if v := m.Value(row, model.FieldOrderCount); v != "" {
		meta["order_count"] = v
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func privateSaleDescription(name string) string {
	if name == "" {
		name = model.UnknownCustomerName
	}
	return "Privatkunde - " + name
}

// rowErrorCause strips the error code from store errors so the result shows
// the message a user can act on.
func rowErrorCause(err error) error {
	var apiErr apierror.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Message)
	}
	return err
}

// acquireImportLock serialises the imports of one tenant. Without Redis there
// is nothing to lock and imports rely on the database constraints alone.
func (s *SalesRecon) acquireImportLock(ctx context.Context, tenantID string) (release func(), err error) {
	if s.redis == nil {
		return func() {}, nil
	}

	locker := redlock.NewLocker(s.redis, redlock.ImportKey(tenantID), model.NewID("imp"))
	if err := locker.WaitLock(ctx, s.config.LockTTL(), s.config.LockWait()); err != nil {
		if errors.Is(err, redlock.ErrLockHeld) {
			logrus.WithField("tenant_id", tenantID).Info("import rejected, another import is running")
			return nil, apierror.NewAPIError(apierror.ErrLocked, "another import is already running for this tenant", err)
		}
		return nil, errors.Wrap(err, "failed to acquire import lock")
	}

	stop := locker.KeepAlive(ctx, s.config.LockTTL())
	return func() {
		stop()
		if err := locker.Unlock(context.Background()); err != nil {
			logrus.WithField("tenant_id", tenantID).Warnf("failed to release import lock: %v", err)
		}
	}, nil
}
