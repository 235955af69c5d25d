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
	"embed"

	"github.com/posthog/posthog-go"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/fjordsales/salesrecon/config"
	"github.com/fjordsales/salesrecon/database"
	"github.com/fjordsales/salesrecon/internal/cache"
	"github.com/fjordsales/salesrecon/internal/registry"
)

//go:embed sql/*.sql
var SQLFiles embed.FS

var tracer = otel.Tracer("salesrecon")

// SalesRecon runs sales-period imports for tenants and manages their mapping templates.
type SalesRecon struct {
	datasource database.IDataSource
	registry   registry.Lookup
	redis      redis.UniversalClient
	queue      *Queue
	telemetry  posthog.Client
	config     *config.Configuration
}

// Option configures optional collaborators of SalesRecon.
type Option func(*SalesRecon)

// WithRegistry sets the business registry used to enrich new customers.
func WithRegistry(lookup registry.Lookup) Option {
	return func(s *SalesRecon) {
		s.registry = lookup
	}
}

// WithRedis enables the per-tenant import lock.
func WithRedis(client redis.UniversalClient) Option {
	return func(s *SalesRecon) {
		s.redis = client
	}
}

// WithQueue enables asynchronous imports and import.completed webhooks.
func WithQueue(q *Queue) Option {
	return func(s *SalesRecon) {
		s.queue = q
	}
}

// WithTelemetry reports finished imports as product events.
func WithTelemetry(client posthog.Client) Option {
	return func(s *SalesRecon) {
		s.telemetry = client
	}
}

// NewSalesRecon creates the engine on top of db. Without options it runs imports
// without a lock, registry enrichment, queue or telemetry.
func NewSalesRecon(db database.IDataSource, opts ...Option) (*SalesRecon, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	s := &SalesRecon{
		datasource: db,
		registry:   registry.Disabled{},
		config:     configuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewRegistryLookup builds the registry client the configuration asks for,
// cached through c when a cache is given.
func NewRegistryLookup(cnf *config.Configuration, c cache.Cache) registry.Lookup {
	if cnf.Registry.Disabled {
		return registry.Disabled{}
	}
	var lookup registry.Lookup = registry.NewClient(cnf.Registry.BaseURL, cnf.RegistryTimeout())
	if c != nil {
		lookup = registry.NewCached(lookup, c, cnf.RegistryCacheTTL())
	}
	return lookup
}
