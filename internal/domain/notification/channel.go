package notification

import "context"

// Channel delivers a notification message to a recipient. Implementations
// own transport mechanics and their own failure handling; a channel error
// marks the notification FAILED but never fails the pipeline run.
type Channel interface {
	// Send delivers the message. A nil error means the message was accepted
	// by the transport.
	Send(ctx context.Context, recipient, subject, body string) error
}

// NopChannel is a Channel that records nothing and always succeeds.
// Used when no transport is configured, so alert generation still runs and
// the notifications log is still written.
type NopChannel struct{}

// Send implements Channel.
func (NopChannel) Send(ctx context.Context, recipient, subject, body string) error {
	return nil
}
