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
	"fmt"
	"regexp"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
)

var savepointName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// RunInTx runs fn with a data source bound to a new transaction. A data source
// that is already inside a transaction runs fn in that same transaction.
func (d Datasource) RunInTx(ctx context.Context, fn func(tx IDataSource) error) error {
	if d.tx != nil {
		return fn(d)
	}

	ctx, span := otel.Tracer("Datasource").Start(ctx, "Running transaction")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	bound := d
	bound.tx = tx
	if err := fn(bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// Savepoint runs fn inside a named savepoint. Outside a transaction there is
// nothing to roll back to and fn runs as is.
func (d Datasource) Savepoint(ctx context.Context, name string, fn func() error) error {
	if d.tx == nil {
		return fn()
	}
	if !savepointName.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}

	if _, err := d.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return errors.Wrapf(err, "failed to create savepoint %s", name)
	}

	if err := fn(); err != nil {
		if _, rbErr := d.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Wrapf(rbErr, "failed to roll back to savepoint %s after: %v", name, err)
		}
		return err
	}

	if _, err := d.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return errors.Wrapf(err, "failed to release savepoint %s", name)
	}
	return nil
}
