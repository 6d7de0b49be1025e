package core

import "context"

type (
	// PushMessage is a notification bundled for a batch of devices.
	PushMessage struct {
		Tokens []string `json:"to"`
		Title  string   `json:"title"`
		Body   string   `json:"body"`
	}

	// PushService is any service that can deliver push notifications.
	PushService interface {
		// Notify sends msg to all its tokens in a single request.
		// It reports whether the push service accepted the batch; there are no retries.
		Notify(ctx context.Context, msg PushMessage) bool
	}
)

func (m PushMessage) HasRecipients() bool { return len(m.Tokens) > 0 }
