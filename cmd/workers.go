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
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.elastic.co/apm/module/apmlogrus/v2"

	"github.com/fjordsales/salesrecon"
	"github.com/fjordsales/salesrecon/config"
	"github.com/fjordsales/salesrecon/internal/notification"
)

func init() {
	logrus.AddHook(&apmlogrus.Hook{})
}

// initializeQueues weights import jobs above webhook deliveries.
func initializeQueues(cfg *config.Configuration) map[string]int {
	return map[string]int{
		cfg.Queue.ImportQueue:  3,
		cfg.Queue.WebhookQueue: 1,
	}
}

func initializeWorkerServer(conf *config.Configuration, queues map[string]int) (*asynq.Server, error) {
	redisOption, err := salesrecon.RedisClientOpt(conf)
	if err != nil {
		return nil, err
	}

	return asynq.NewServer(redisOption, asynq.Config{
		Concurrency: conf.Queue.Concurrency,
		Queues:      queues,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logrus.WithFields(logrus.Fields{
				"type":    task.Type(),
				"retried": retried,
			}).Errorf("task failed: %v", err)
			if retried >= maxRetry {
				notification.NotifyError(fmt.Errorf("%s failed after %d retries: %w", task.Type(), retried, err))
			}
		}),
	}), nil
}

func initializeTaskHandlers(app *salesreconInstance, mux *asynq.ServeMux) {
	mux.HandleFunc(salesrecon.TypeImport, app.svc.ProcessImportTask)
	mux.HandleFunc(salesrecon.TypeWebhook, salesrecon.ProcessWebhook)
}

// startMonitoring serves the asynqmon dashboard on the configured port.
func startMonitoring(conf *config.Configuration) error {
	redisOption, err := salesrecon.RedisClientOpt(conf)
	if err != nil {
		return err
	}
	h := asynqmon.New(asynqmon.Options{
		RootPath:     conf.Queue.MonitorPath,
		RedisConnOpt: redisOption,
	})

	go func() {
		monitoringAddr := fmt.Sprintf(":%s", conf.Queue.MonitoringPort)
		log.Printf("Asynqmon server listening on %s%s", monitoringAddr, conf.Queue.MonitorPath)
		if err := http.ListenAndServe(monitoringAddr, h); err != nil {
			log.Printf("could not start asynqmon server: %v", err)
		}
	}()
	return nil
}

// workerCommands returns the command that runs queued imports and webhooks.
func workerCommands(app *salesreconInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start salesrecon workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			shutdown, err := initializeTracing(ctx, app.cnf)
			if err != nil {
				log.Fatal(err)
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			}()

			srv, err := initializeWorkerServer(app.cnf, initializeQueues(app.cnf))
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			initializeTaskHandlers(app, mux)

			if err := startMonitoring(app.cnf); err != nil {
				log.Printf("monitoring disabled: %v", err)
			}

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}

	return cmd
}
