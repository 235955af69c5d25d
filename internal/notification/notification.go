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

package notification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjordsales/salesrecon/config"
	"github.com/fjordsales/salesrecon/internal/request"
)

// slackTimeout bounds a single Slack delivery.
const slackTimeout = 10 * time.Second

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

func buildSlackMessage(project string, err error, at time.Time) slackMessage {
	return slackMessage{Blocks: []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("Error From %s", project)}},
		{Type: "section", Fields: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("*Error:*\n%v", err)}}},
		{Type: "section", Fields: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("*Time:*\n%s", at.Format(time.RFC822))}}},
	}}
}

// SlackNotification posts err to the configured Slack webhook.
func SlackNotification(err error) error {
	conf, cfgErr := config.Fetch()
	if cfgErr != nil {
		return cfgErr
	}
	if conf.Notification.Slack.WebhookUrl == "" {
		return nil
	}

	payload, jsonErr := request.ToJsonReq(buildSlackMessage(conf.ProjectName, err, time.Now()))
	if jsonErr != nil {
		return jsonErr
	}

	ctx, cancel := context.WithTimeout(context.Background(), slackTimeout)
	defer cancel()
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, conf.Notification.Slack.WebhookUrl, payload)
	if reqErr != nil {
		return reqErr
	}

	_, callErr := request.Call(nil, req, nil)
	return callErr
}

// NotifyError logs systemError and, when Slack is configured, forwards it there
// without blocking the caller.
func NotifyError(systemError error) {
	logrus.Error(systemError)
	go func(systemError error) {
		if err := SlackNotification(systemError); err != nil {
			logrus.Warnf("failed to send slack notification: %v", err)
		}
	}(systemError)
}
