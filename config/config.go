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

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"

	DefaultRegistryURL     = "https://data.brreg.no/enhetsregisteret/api/enheter"
	DefaultRegistryTimeout = 5
	DefaultRegistryTTL     = 86400
	DefaultLockTTL         = 600
	DefaultLockWait        = 5
	DefaultMaxUploadBytes  = 20 << 20
	DefaultImportQueue     = "imports"
	DefaultWebhookQueue    = "webhooks"
	DefaultConcurrency     = 10
	DefaultMonitoringPort  = "5004"

	// DeleteScopeImported removes only sales created by earlier imports when a period is re-imported.
	DeleteScopeImported = "imported"
	// DeleteScopePeriod removes every sale dated inside the period, including manually entered ones.
	DeleteScopePeriod = "period"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"SALESRECON_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"SALESRECON_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"SALESRECON_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"SALESRECON_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"SALESRECON_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"SALESRECON_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"SALESRECON_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"SALESRECON_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"SALESRECON_REDIS_SKIP_TLS_VERIFY"`
}

// RegistryConfig controls the business-registry lookup used when a new customer is created.
type RegistryConfig struct {
	Disabled    bool   `json:"disabled" envconfig:"SALESRECON_REGISTRY_DISABLED"`
	BaseURL     string `json:"base_url" envconfig:"SALESRECON_REGISTRY_BASE_URL"`
	TimeoutSec  int    `json:"timeout_sec" envconfig:"SALESRECON_REGISTRY_TIMEOUT_SEC"`
	CacheTTLSec int    `json:"cache_ttl_sec" envconfig:"SALESRECON_REGISTRY_CACHE_TTL_SEC"`
}

type ImportConfig struct {
	DeleteScope    string `json:"delete_scope" envconfig:"SALESRECON_IMPORT_DELETE_SCOPE"`
	LockTTLSec     int    `json:"lock_ttl_sec" envconfig:"SALESRECON_IMPORT_LOCK_TTL_SEC"`
	LockWaitSec    int    `json:"lock_wait_sec" envconfig:"SALESRECON_IMPORT_LOCK_WAIT_SEC"`
	MaxUploadBytes int64  `json:"max_upload_bytes" envconfig:"SALESRECON_IMPORT_MAX_UPLOAD_BYTES"`
}

type QueueConfig struct {
	ImportQueue    string `json:"import_queue" envconfig:"SALESRECON_QUEUE_IMPORT"`
	WebhookQueue   string `json:"webhook_queue" envconfig:"SALESRECON_QUEUE_WEBHOOK"`
	Concurrency    int    `json:"concurrency" envconfig:"SALESRECON_QUEUE_CONCURRENCY"`
	MonitorPath    string `json:"monitor_path" envconfig:"SALESRECON_QUEUE_MONITOR_PATH"`
	MonitoringPort string `json:"monitoring_port" envconfig:"SALESRECON_QUEUE_MONITORING_PORT"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"SALESRECON_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"SALESRECON_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"SALESRECON_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"SALESRECON_SLACK_WEBHOOK_URL"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url" envconfig:"SALESRECON_WEBHOOK_URL"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

// TelemetryConfig switches the usage heartbeat and trace export. Both are off
// unless configured.
type TelemetryConfig struct {
	PosthogKey      string `json:"posthog_key" envconfig:"SALESRECON_POSTHOG_KEY"`
	PosthogEndpoint string `json:"posthog_endpoint" envconfig:"SALESRECON_POSTHOG_ENDPOINT"`
	EnableTracing   bool   `json:"enable_tracing" envconfig:"SALESRECON_ENABLE_TRACING"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"SALESRECON_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Registry     RegistryConfig   `json:"registry"`
	Import       ImportConfig     `json:"import"`
	Queue        QueueConfig      `json:"queue"`
	Notification Notification     `json:"notification"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
	Telemetry    TelemetryConfig  `json:"telemetry"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("salesrecon", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return nil
}

// InitConfig loads an optional .env file into the environment, then the JSON
// config file, then applies environment overrides.
func InitConfig(configFile string) error {
	logger()
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called salesrecon.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Salesrecon"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	cnf.Registry.BaseURL = strings.TrimRight(strings.TrimSpace(cnf.Registry.BaseURL), "/")
	if cnf.Registry.BaseURL == "" {
		cnf.Registry.BaseURL = DefaultRegistryURL
	}
	if cnf.Registry.TimeoutSec <= 0 {
		cnf.Registry.TimeoutSec = DefaultRegistryTimeout
	}
	if cnf.Registry.CacheTTLSec <= 0 {
		cnf.Registry.CacheTTLSec = DefaultRegistryTTL
	}

	switch strings.ToLower(strings.TrimSpace(cnf.Import.DeleteScope)) {
	case "":
		cnf.Import.DeleteScope = DeleteScopeImported
	case DeleteScopeImported:
		cnf.Import.DeleteScope = DeleteScopeImported
	case DeleteScopePeriod:
		cnf.Import.DeleteScope = DeleteScopePeriod
		log.Println("Warning: import delete scope is 'period'. Re-imports will remove manually entered sales in the period.")
	default:
		return fmt.Errorf("invalid import delete scope %q, expected %q or %q", cnf.Import.DeleteScope, DeleteScopeImported, DeleteScopePeriod)
	}
	if cnf.Import.LockTTLSec <= 0 {
		cnf.Import.LockTTLSec = DefaultLockTTL
	}
	if cnf.Import.LockWaitSec <= 0 {
		cnf.Import.LockWaitSec = DefaultLockWait
	}
	if cnf.Import.MaxUploadBytes <= 0 {
		cnf.Import.MaxUploadBytes = DefaultMaxUploadBytes
	}

	if cnf.Queue.ImportQueue == "" {
		cnf.Queue.ImportQueue = DefaultImportQueue
	}
	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = DefaultWebhookQueue
	}
	if cnf.Queue.Concurrency <= 0 {
		cnf.Queue.Concurrency = DefaultConcurrency
	}
	if cnf.Queue.MonitorPath == "" {
		cnf.Queue.MonitorPath = "/monitoring"
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = DefaultMonitoringPort
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// RegistryTimeout is the per-lookup deadline for the business registry.
func (cnf *Configuration) RegistryTimeout() time.Duration {
	return time.Duration(cnf.Registry.TimeoutSec) * time.Second
}

// RegistryCacheTTL is how long a registry answer is cached.
func (cnf *Configuration) RegistryCacheTTL() time.Duration {
	return time.Duration(cnf.Registry.CacheTTLSec) * time.Second
}

// LockTTL is how long an import lock is held before it expires on its own.
func (cnf *Configuration) LockTTL() time.Duration {
	return time.Duration(cnf.Import.LockTTLSec) * time.Second
}

// LockWait is how long a second import for the same period waits for the first to finish.
func (cnf *Configuration) LockWait() time.Duration {
	return time.Duration(cnf.Import.LockWaitSec) * time.Second
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
