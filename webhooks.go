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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fjordsales/salesrecon/config"
	"github.com/fjordsales/salesrecon/internal/notification"
	"github.com/fjordsales/salesrecon/internal/request"
	"github.com/fjordsales/salesrecon/model"
)

// EventImportCompleted is sent after every import that ran to the end,
// including imports with row errors.
const EventImportCompleted = "import.completed"

const webhookTimeout = 10 * time.Second

// NewWebhook represents the structure of a webhook notification.
type NewWebhook struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"data"`
}

// ImportCompleted is the data of an import.completed webhook.
type ImportCompleted struct {
	TenantID string              `json:"tenant_id"`
	Result   *model.ImportResult `json:"result"`
}

// processHTTP posts the webhook to the configured URL with the configured headers.
func processHTTP(ctx context.Context, conf *config.Configuration, data json.RawMessage) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, conf.Notification.Webhook.Url, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "error creating webhook request")
	}
	for key, value := range conf.Notification.Webhook.Headers {
		req.Header.Set(key, value)
	}

	_, err = request.Call(&http.Client{Timeout: webhookTimeout}, req, nil)
	return err
}

// SendWebhook queues a webhook. Nothing is queued when no webhook URL is configured.
func (q *Queue) SendWebhook(ctx context.Context, newWebhook NewWebhook) error {
	if q.config.Notification.Webhook.Url == "" {
		return nil
	}

	payload, err := json.Marshal(newWebhook)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeWebhook, payload, asynq.Queue(q.config.Queue.WebhookQueue))
	if _, err := q.Client.EnqueueContext(ctx, task); err != nil {
		return errors.Wrap(err, "failed to enqueue webhook")
	}
	return nil
}

// ProcessWebhook delivers a queued webhook. A failed delivery is retried by the queue.
func ProcessWebhook(ctx context.Context, task *asynq.Task) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Webhook.Url == "" {
		return nil
	}

	var payload NewWebhook
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return errors.Wrap(err, "error unmarshaling webhook payload")
	}
	logrus.Infof("processing webhook %s", payload.Event)
	return processHTTP(ctx, conf, task.Payload())
}

// afterImport announces a finished import. Failures here never fail the import.
func (s *SalesRecon) afterImport(ctx context.Context, tenantID string, result *model.ImportResult) {
	if s.queue != nil {
		err := s.queue.SendWebhook(ctx, NewWebhook{
			Event:   EventImportCompleted,
			Payload: ImportCompleted{TenantID: tenantID, Result: result},
		})
		if err != nil {
			notification.NotifyError(err)
		}
	}
	s.trackImport(tenantID, result)
}
