// Package domain 定义通知事件，它是各业务服务与 notification-service 之间的消息契约。
package domain

import (
	"context"
	"errors"
	"time"
)

// EventType 通知类型，对应一个邮件模板
type EventType string

const (
	StoreApproved EventType = "store_approved"
	StoreRejected EventType = "store_rejected"
	PasswordReset EventType = "password_reset"
	ContactReply  EventType = "contact_reply"
)

// Event 通知事件
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	To         string            `json:"to"`
	Name       string            `json:"name"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// Publisher 发布通知事件
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Email 渲染完成的邮件
type Email struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer 邮件发送通道
type Mailer interface {
	Send(ctx context.Context, m Email) error
}

// Renderer 把事件渲染成邮件
type Renderer interface {
	Render(e Event) (Email, error)
}

// 以下错误重试也不会成功
var (
	ErrUnknownEventType = errors.New("unknown notification event type")
	ErrInvalidEvent     = errors.New("invalid notification event")
)

// PermanentError 发送被下游明确拒绝，不再重试
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string { return "permanent delivery failure: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
