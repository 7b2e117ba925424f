// Package push defines the push gateway the notification dispatcher delivers
// through. Delivery is strictly best-effort and at-most-once: the durable
// notification record is the system of record, not the push.
package push

import "context"

// ErrTokenInvalid marks a device token the gateway reports as no longer
// registered. The dispatcher reacts by clearing the stored token.
type ErrTokenInvalid struct {
	Token string
}

func (e *ErrTokenInvalid) Error() string {
	return "device token is not registered"
}

// Gateway delivers a single push message to a device token.
type Gateway interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}
