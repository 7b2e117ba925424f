package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMGateway sends push messages through Firebase Cloud Messaging. The client
// is constructed once at process start and handed in, not held as a global.
type FCMGateway struct {
	client *messaging.Client
}

// NewFCMGateway initializes a Firebase app from a service account file and
// returns a gateway backed by its messaging client.
func NewFCMGateway(ctx context.Context, credentialsFile string) (*FCMGateway, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	return &FCMGateway{client: client}, nil
}

// Send delivers one message to one token. Unregistered-token failures are
// classified as *ErrTokenInvalid so the caller can invalidate the token.
func (g *FCMGateway) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	_, err := g.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	if err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) {
			return &ErrTokenInvalid{Token: token}
		}
		return err
	}
	return nil
}
