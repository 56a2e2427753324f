package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendAlert is the task type for sending supply alert emails.
	TaskTypeSendAlert = "mail:send"
)

// SendAlertPayload describes the information required to send an alert email.
type SendAlertPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendAlertTask constructs an Asynq task.
func NewSendAlertTask(payload SendAlertPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendAlert, data, asynq.Queue(QueueDefault)), nil
}

// HandleSendAlertTask processes TaskTypeSendAlert tasks.
func HandleSendAlertTask(ctx context.Context, t *asynq.Task) error {
	var payload SendAlertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder until an SMTP relay is provisioned for the clinic.
	fmt.Printf("[jobs] send alert to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}
