package models

import "time"

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

// Notification is an outbound message queued for the mail/SMS delivery extensions.
type Notification struct {
	Channel   NotificationChannel
	To        string
	Subject   string
	Body      string
	CreatedAt time.Time
}
