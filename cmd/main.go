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

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/posthog/posthog-go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fjordsales/salesrecon"
	"github.com/fjordsales/salesrecon/config"
	"github.com/fjordsales/salesrecon/database"
	"github.com/fjordsales/salesrecon/internal/cache"
	"github.com/fjordsales/salesrecon/internal/notification"
	redis_db "github.com/fjordsales/salesrecon/internal/redis-db"
)

// SalesReconCLI wraps the root cobra command.
type SalesReconCLI struct {
	cmd *cobra.Command
}

// salesreconInstance holds what preRun built, shared by every subcommand.
type salesreconInstance struct {
	svc       *salesrecon.SalesRecon
	cnf       *config.Configuration
	queue     *salesrecon.Queue
	redis     *redis_db.Redis
	telemetry posthog.Client
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and builds the engine before any command runs.
func preRun(app *salesreconInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(*configFile); err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		if err := setupSalesRecon(app, cnf); err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}
		return nil
	}
}

// setupSalesRecon connects Redis, Postgres and the job queue and wires them
// into the engine.
func setupSalesRecon(app *salesreconInstance, cfg *config.Configuration) error {
	rdb, err := redis_db.NewRedisClient([]string{cfg.Redis.Dns}, cfg.Redis.SkipTLSVerify)
	if err != nil {
		return fmt.Errorf("error connecting to redis: %v", err)
	}
	c := cache.NewCache(rdb.Client())

	db, err := database.NewDataSource(cfg, c)
	if err != nil {
		return fmt.Errorf("error getting datasource: %v", err)
	}

	q, err := salesrecon.NewQueue(cfg)
	if err != nil {
		return fmt.Errorf("error creating queue: %v", err)
	}

	opts := []salesrecon.Option{
		salesrecon.WithRedis(rdb.Client()),
		salesrecon.WithQueue(q),
		salesrecon.WithRegistry(salesrecon.NewRegistryLookup(cfg, c)),
	}
	telemetry := initializePostHog(cfg)
	if telemetry != nil {
		opts = append(opts, salesrecon.WithTelemetry(telemetry))
	}

	svc, err := salesrecon.NewSalesRecon(db, opts...)
	if err != nil {
		return fmt.Errorf("error creating salesrecon: %v", err)
	}

	app.svc = svc
	app.cnf = cfg
	app.queue = q
	app.redis = rdb
	app.telemetry = telemetry
	return nil
}

// close releases the connections setupSalesRecon opened.
func (app *salesreconInstance) close() {
	if app.telemetry != nil {
		_ = app.telemetry.Close()
	}
	if app.queue != nil {
		_ = app.queue.Close()
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
}

func NewCLI() *SalesReconCLI {
	var configFile string
	app := &salesreconInstance{}

	rootCmd := &cobra.Command{
		Use:   "salesrecon",
		Short: "Sales period import and reconciliation",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./salesrecon.json", "Configuration file for salesrecon")
	rootCmd.PersistentPreRunE = preRun(app, &configFile)
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) { app.close() }

	rootCmd.AddCommand(serverCommands(app))
	rootCmd.AddCommand(workerCommands(app))
	rootCmd.AddCommand(migrateCommands(app))
	rootCmd.AddCommand(importCommands(app))
	rootCmd.AddCommand(configCommands(app))

	return &SalesReconCLI{cmd: rootCmd}
}

func (s SalesReconCLI) executeCLI() {
	if err := s.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
