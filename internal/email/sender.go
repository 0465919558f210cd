// Copyright (c) 2026 FitHub. All rights reserved.

// Package email defines the outbound notification contract.
//
// # Architecture
//
// Callers depend on the [Sender] interface only; delivery is a best-effort
// side effect and must never decide the outcome of an API request. The
// default implementation logs the message instead of delivering it, which
// keeps local and CI environments free of SMTP infrastructure.
package email

import (
	"context"
	"log/slog"
)

// Message is a plain-text outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message.
type Sender interface {
	Send(context context.Context, message Message) error
}

// LogSender writes messages to the structured log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a [LogSender] around the given logger.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message at INFO level. The body is logged in full; it only
// ever contains templated notification text, never user secrets.
func (sender *LogSender) Send(context context.Context, message Message) error {
	sender.logger.InfoContext(context, "outbound email",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
		slog.String("body", message.Body),
	)
	return nil
}
