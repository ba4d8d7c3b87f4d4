package infrastructure

import (
	notification "bazaar/internal/service/notification/domain"
	"bazaar/internal/service/support/domain"
	"context"
)

// NotificationAdapter 实现了 domain.Notifier
type NotificationAdapter struct {
	publisher notification.Publisher
}

func NewNotificationAdapter(publisher notification.Publisher) *NotificationAdapter {
	return &NotificationAdapter{publisher: publisher}
}

func (a *NotificationAdapter) NotifyContactReply(ctx context.Context, c *domain.ContactForm) error {
	return a.publisher.Publish(ctx, notification.Event{
		Type: notification.ContactReply,
		To:   c.Email,
		Name: c.Name,
		Data: map[string]string{
			"subject":  c.Subject,
			"original": c.Message,
			"reply":    c.Reply,
		},
	})
}
