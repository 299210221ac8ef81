// Package notify delivers push notifications to seller devices.
package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Pusher sends a message to one device token.
type Pusher interface {
	Push(ctx context.Context, token string, msg Message) error
}

// FCM pushes through Firebase Cloud Messaging.
type FCM struct {
	client *messaging.Client
}

// NewFCM builds a messaging client from a service account file.
func NewFCM(ctx context.Context, credentialsFile string) (*FCM, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return &FCM{client: client}, nil
}

func (f *FCM) Push(ctx context.Context, token string, msg Message) error {
	_, err := f.client.Send(ctx, buildMessage(token, msg))
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

func buildMessage(token string, msg Message) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: msg.Title, Body: msg.Body},
					Sound: "default",
				},
			},
		},
	}
}

// Noop drops every message.
type Noop struct{}

func (Noop) Push(context.Context, string, Message) error { return nil }
