package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// Mailer delivers transactional mail through a plain SMTP relay.
type Mailer struct {
	logger *slog.Logger
	addr   string
	from   string
}

// NewMailer constructs a Mailer targeting host:port.
func NewMailer(logger *slog.Logger, host string, port int, from string) *Mailer {
	return &Mailer{logger: logger, addr: fmt.Sprintf("%s:%d", host, port), from: from}
}

// HandleSendEmail processes TaskTypeSendEmail tasks.
func (m *Mailer) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	msg := []byte("From: " + m.from + "\r\n" +
		"To: " + payload.To + "\r\n" +
		"Subject: " + payload.Subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		payload.Body + "\r\n")
	if err := smtp.SendMail(m.addr, nil, m.from, []string{payload.To}, msg); err != nil {
		m.logger.Error("send mail", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	m.logger.Info("mail delivered", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}
