// Package transport holds the delivery collaborators of the notification
// engine. The real email/push providers live outside this service; LogSender
// is the development default that writes deliveries to the log.
package transport

import (
	"context"

	"go.uber.org/zap"
)

type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(_ context.Context, recipient, title, message string) error {
	zap.L().Info("notification delivered",
		zap.String("recipient", recipient),
		zap.String("title", title),
		zap.String("message", message))

	return nil
}

func (s *LogSender) SendVerificationToken(_ context.Context, email, token string) error {
	zap.L().Info("verification token issued",
		zap.String("email", email),
		zap.String("token", token))

	return nil
}
