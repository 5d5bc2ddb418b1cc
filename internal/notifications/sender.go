// Package notifications sends push notifications via Firebase Cloud
// Messaging. The adhan scheduler is the only producer today.
package notifications

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMSender sends push notifications via Firebase Cloud Messaging.
// Nil-safe: when not configured, all methods are no-ops.
type FCMSender struct {
	client *messaging.Client
	logger *slog.Logger
}

// NewFCMSender creates an FCM sender from a service account credentials
// file. Returns (nil, nil) if credentialsFile is empty — push disabled.
func NewFCMSender(ctx context.Context, credentialsFile string, logger *slog.Logger) (*FCMSender, error) {
	if credentialsFile == "" {
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	return &FCMSender{client: client, logger: logger}, nil
}

// SendMulti sends a notification to multiple device tokens (max 500 per
// FCM multicast request). Invalid or unregistered tokens are logged so the
// device table can be pruned.
func (s *FCMSender) SendMulti(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if s == nil {
		return nil // no-op when not configured
	}
	if len(tokens) == 0 {
		return fmt.Errorf("no tokens to send to")
	}
	if len(tokens) > 500 {
		tokens = tokens[:500]
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return fmt.Errorf("fcm multicast: %w", err)
	}

	invalid := 0
	for i, r := range resp.Responses {
		if r.Error == nil {
			continue
		}
		if messaging.IsInvalidArgument(r.Error) || messaging.IsUnregistered(r.Error) {
			invalid++
			s.logger.Warn("invalid device token", "token_suffix", suffix(tokens[i]))
		}
	}

	s.logger.Info("FCM send",
		"success", resp.SuccessCount, "failure", resp.FailureCount, "invalid", invalid)
	if resp.SuccessCount == 0 {
		return fmt.Errorf("fcm multicast: all %d sends failed", resp.FailureCount)
	}
	return nil
}

func suffix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return "..." + token[len(token)-8:]
}
