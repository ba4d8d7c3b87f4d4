package infrastructure

import (
	"bazaar/internal/service/catalog/domain"
	notification "bazaar/internal/service/notification/domain"
	"context"
	"strings"
	"time"
)

// NotificationAdapter 实现了 domain.Notifier，把审核结果转换为通知事件
type NotificationAdapter struct {
	publisher notification.Publisher
	baseURL   string
}

func NewNotificationAdapter(publisher notification.Publisher, publicBaseURL string) *NotificationAdapter {
	return &NotificationAdapter{publisher: publisher, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (a *NotificationAdapter) NotifyStoreApproved(ctx context.Context, s *domain.Store) error {
	return a.publisher.Publish(ctx, notification.Event{
		Type: notification.StoreApproved,
		To:   s.Email,
		Name: s.Name,
		Data: map[string]string{
			"storeUrl":     a.baseURL + "/shop/" + s.Username,
			"dashboardUrl": a.baseURL + "/store",
		},
	})
}

func (a *NotificationAdapter) NotifyStoreRejected(ctx context.Context, s *domain.Store, reason string) error {
	return a.publisher.Publish(ctx, notification.Event{
		Type: notification.StoreRejected,
		To:   s.Email,
		Name: s.Name,
		Data: map[string]string{"reason": reason},
	})
}

func (a *NotificationAdapter) NotifyPasswordReset(ctx context.Context, s *domain.Store, token string, expiresAt time.Time) error {
	return a.publisher.Publish(ctx, notification.Event{
		Type: notification.PasswordReset,
		To:   s.Email,
		Name: s.Name,
		Data: map[string]string{
			"resetUrl":  a.baseURL + "/store/reset-password?token=" + token,
			"expiresAt": expiresAt.UTC().Format(time.RFC1123),
		},
	})
}
