package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
)

// Outbox documents are picked up by the Firebase Trigger Email and
// Send SMS with Twilio extensions, which watch these collections.
const (
	mailCollection     = "mail"
	messagesCollection = "messages"
)

type mailDoc struct {
	To      string      `firestore:"to"`
	Message mailMessage `firestore:"message"`
	Created time.Time   `firestore:"createdAt"`
}

type mailMessage struct {
	Subject string `firestore:"subject"`
	Text    string `firestore:"text"`
}

type smsDoc struct {
	To      string    `firestore:"to"`
	Body    string    `firestore:"body"`
	Created time.Time `firestore:"createdAt"`
}

type notificationOutbox struct {
	client *firestore.Client
}

func NewNotificationOutbox(client *firestore.Client) *notificationOutbox {
	return &notificationOutbox{client: client}
}

func (o *notificationOutbox) Enqueue(ctx context.Context, n models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	var (
		collection string
		doc        any
	)
	switch n.Channel {
	case models.ChannelEmail:
		collection = mailCollection
		doc = mailDoc{To: n.To, Message: mailMessage{Subject: n.Subject, Text: n.Body}, Created: n.CreatedAt}
	case models.ChannelSMS:
		collection = messagesCollection
		doc = smsDoc{To: n.To, Body: n.Body, Created: n.CreatedAt}
	default:
		return errs.NewValidationError("unsupported notification channel")
	}

	if _, _, err := o.client.Collection(collection).Add(ctx, doc); err != nil {
		return errs.NewDatabaseError("create", "failed to enqueue notification", err)
	}
	return nil
}
