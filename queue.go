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
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/fjordsales/salesrecon/config"
	"github.com/fjordsales/salesrecon/internal/apierror"
	redis_db "github.com/fjordsales/salesrecon/internal/redis-db"
	"github.com/fjordsales/salesrecon/model"
)

const (
	// TypeImport is the task type of a queued import job.
	TypeImport = "import:run"
	// TypeWebhook is the task type of an outgoing webhook.
	TypeWebhook = "webhook:send"

	// importResultRetention is how long a finished import's result stays readable.
	importResultRetention = 24 * time.Hour
	importMaxRetry        = 5
)

// Queue represents a queue for handling import and webhook tasks.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
	config    *config.Configuration
}

// ImportStatus is the state of a queued import as seen by the caller.
type ImportStatus struct {
	TaskID string              `json:"task_id"`
	State  string              `json:"state"`
	Error  string              `json:"error,omitempty"`
	Result *model.ImportResult `json:"result,omitempty"`
}

// RedisClientOpt converts the configured Redis DNS into asynq connection options.
func RedisClientOpt(conf *config.Configuration) (asynq.RedisClientOpt, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return asynq.RedisClientOpt{}, errors.Wrap(err, "error parsing Redis URL")
	}
	return asynq.RedisClientOpt{
		Addr:      redisOption.Addr,
		Username:  redisOption.Username,
		Password:  redisOption.Password,
		DB:        redisOption.DB,
		TLSConfig: redisOption.TLSConfig,
	}, nil
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) (*Queue, error) {
	queueOptions, err := RedisClientOpt(conf)
	if err != nil {
		return nil, err
	}
	return &Queue{
		Client:    asynq.NewClient(queueOptions),
		Inspector: asynq.NewInspector(queueOptions),
		config:    conf,
	}, nil
}

func (q *Queue) Close() error {
	if err := q.Inspector.Close(); err != nil {
		logrus.Error(err)
	}
	return q.Client.Close()
}

// EnqueueImport validates req and queues it. The returned id reads the job's
// state and result through ImportStatus.
func (s *SalesRecon) EnqueueImport(ctx context.Context, req model.ImportRequest) (string, error) {
	if s.queue == nil {
		return "", errors.New("import queue is not configured")
	}
	if _, err := s.PrepareJob(req); err != nil {
		return "", err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(TypeImport, payload,
		asynq.Queue(s.config.Queue.ImportQueue),
		asynq.MaxRetry(importMaxRetry),
		asynq.Retention(importResultRetention),
	)
	info, err := s.queue.Client.EnqueueContext(ctx, task)
	if err != nil {
		return "", errors.Wrap(err, "failed to enqueue import")
	}
	logrus.WithFields(logrus.Fields{
		"tenant_id": req.TenantID,
		"period":    req.Period,
		"task_id":   info.ID,
	}).Info("import queued")
	return info.ID, nil
}

// ImportStatus reports the state of a queued import and, once it finished, its result.
func (s *SalesRecon) ImportStatus(taskID string) (*ImportStatus, error) {
	if s.queue == nil {
		return nil, errors.New("import queue is not configured")
	}
	info, err := s.queue.Inspector.GetTaskInfo(s.config.Queue.ImportQueue, taskID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Import '%s' not found", taskID), err)
		}
		return nil, err
	}

	status := &ImportStatus{
		TaskID: info.ID,
		State:  info.State.String(),
		Error:  info.LastErr,
	}
	if len(info.Result) > 0 {
		var result model.ImportResult
		if err := json.Unmarshal(info.Result, &result); err != nil {
			return nil, errors.Wrap(err, "failed to decode import result")
		}
		status.Result = &result
	}
	return status, nil
}

// ProcessImportTask runs a queued import. Requests that fail validation are
// not retried; a tenant that is busy with another import is.
func (s *SalesRecon) ProcessImportTask(ctx context.Context, task *asynq.Task) error {
	ctx, span := tracer.Start(ctx, "ProcessImportTask", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	var req model.ImportRequest
	if err := json.Unmarshal(task.Payload(), &req); err != nil {
		return fmt.Errorf("invalid import payload: %v: %w", err, asynq.SkipRetry)
	}

	result, err := s.RunImport(ctx, req)
	if err != nil {
		if apierror.IsCode(err, apierror.ErrInvalidInput) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if w := task.ResultWriter(); w != nil {
		if _, err := w.Write(data); err != nil {
			logrus.WithField("tenant_id", req.TenantID).Warnf("failed to store import result: %v", err)
		}
	}
	return nil
}
